package main

import (
	"AgriVoice/pkg/audio"
	"AgriVoice/pkg/capture"
	"AgriVoice/pkg/speech"
	"AgriVoice/pkg/voicerouter"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	audioPath     string
	provider      string
	listenTimeout time.Duration
	speakDir      string
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Recognise one recorded clip and navigate",
	Long: `Runs a single listening session against a recorded clip ("-" reads stdin).

Navigation is printed as "navigate <path>" on stdout and the confirmation
phrase follows it. With --speak-dir the confirmation is synthesised with
ElevenLabs (ELEVENLABS_API_KEY, ELEVENLABS_VOICE_ID) and saved as MP3.
Failures are printed on stderr. An unmatched phrase prints nothing.`,
	Args: cobra.NoArgs,
	RunE: runListen,
}

func init() {
	listenCmd.Flags().StringVarP(&audioPath, "audio", "a", "", "recorded clip to recognise, - for stdin")
	listenCmd.Flags().StringVarP(&provider, "provider", "p", "", "whisper, gemini, deepgram or remote (defaults to SPEECH_PROVIDER)")
	listenCmd.Flags().DurationVar(&listenTimeout, "timeout", voicerouter.DefaultClipTimeout, "recording window; 0 waits for end of speech")
	listenCmd.Flags().StringVar(&speakDir, "speak-dir", "", "write synthesised confirmations to this directory")
	_ = listenCmd.MarkFlagRequired("audio")
}

func runListen(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := newLogger(cmd.ErrOrStderr())

	matcher, err := loadMatcher()
	if err != nil {
		return err
	}

	cfg, err := speech.ConfigFromEnv()
	if err != nil {
		return err
	}
	if provider != "" {
		if cfg.Provider, err = speech.ParseProvider(provider); err != nil {
			return err
		}
	}

	recognizer, err := speech.New(ctx, cfg)
	if err != nil {
		return err
	}
	if closer, ok := recognizer.(io.Closer); ok {
		defer closer.Close()
	}

	timeout := listenTimeout
	if !cmd.Flags().Changed("timeout") && cfg.Provider.Streaming() {
		timeout = 0
	}

	var source voicerouter.AudioSource = capture.FileSource{Path: audioPath}
	if audioPath == "-" {
		source = capture.NewReaderSource(cmd.InOrStdin())
	}

	out := cmd.OutOrStdout()
	speaker, err := newSpeaker(out, logger)
	if err != nil {
		return err
	}

	router, err := voicerouter.New(
		logger,
		source,
		recognizer,
		voicerouter.NavigatorFunc(func(path string) { fmt.Fprintf(out, "navigate %s\n", path) }),
		matcher,
		voicerouter.WithTimeout(timeout),
		voicerouter.WithSpeaker(speaker),
		voicerouter.WithNotifier(voicerouter.NotifierFunc(func(msg string) { fmt.Fprintln(cmd.ErrOrStderr(), msg) })),
	)
	if err != nil {
		return err
	}
	defer router.Close()

	if err := router.StartListening(ctx); err != nil {
		return err
	}
	router.Wait()

	return nil
}

// newSpeaker prints confirmations, or saves them as speech when --speak-dir
// is set.
func newSpeaker(out io.Writer, logger *logrus.Logger) (voicerouter.Speaker, error) {
	if speakDir == "" {
		return voicerouter.SpeakerFunc(func(phrase string) { fmt.Fprintln(out, phrase) }), nil
	}

	apiKey := os.Getenv("ELEVENLABS_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("--speak-dir needs ELEVENLABS_API_KEY")
	}
	if err := os.MkdirAll(speakDir, 0o755); err != nil {
		return nil, err
	}

	var opts []audio.Option
	if baseURL := os.Getenv("ELEVENLABS_BASE_URL"); baseURL != "" {
		opts = append(opts, audio.WithBaseURL(baseURL))
	}
	tts := audio.NewTTSService(apiKey, os.Getenv("ELEVENLABS_VOICE_ID"), opts...)

	return voicerouter.SpeakerFunc(func(phrase string) {
		fmt.Fprintln(out, phrase)

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		data, err := tts.Synthesize(ctx, phrase)
		if err != nil {
			logger.WithFields(logrus.Fields{"error": err.Error()}).Warn("Failed to synthesise confirmation")
			return
		}

		sum := sha256.Sum256([]byte(phrase))
		file := filepath.Join(speakDir, "confirmation-"+hex.EncodeToString(sum[:6])+".mp3")
		if err := os.WriteFile(file, data, 0o644); err != nil {
			logger.WithFields(logrus.Fields{"error": err.Error()}).Warn("Failed to save confirmation audio")
			return
		}
		fmt.Fprintf(out, "speak %s\n", file)
	}), nil
}
