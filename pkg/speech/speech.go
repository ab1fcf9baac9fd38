package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

type Recognizer interface {
	Recognize(ctx context.Context, audio io.Reader) (string, error)
}

type Provider string

const (
	ProviderWhisper  Provider = "whisper"
	ProviderGemini   Provider = "gemini"
	ProviderDeepgram Provider = "deepgram"
	ProviderRemote   Provider = "remote"
)

// Streaming reports whether the provider detects the end of speech itself
// instead of transcribing a bounded clip.
func (p Provider) Streaming() bool {
	return p == ProviderDeepgram
}

func ParseProvider(s string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(s))); p {
	case ProviderWhisper, ProviderGemini, ProviderDeepgram, ProviderRemote:
		return p, nil
	case "":
		return ProviderWhisper, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, s)
	}
}

var (
	ErrUnknownProvider = errors.New("speech: unknown provider")
	ErrEmptyAudio      = errors.New("speech: empty audio clip")
	ErrClipTooLarge    = errors.New("speech: audio clip too large")
	ErrNoSpeech        = errors.New("speech: no speech recognized")
)

const defaultMaxClipBytes = 10 * 1024 * 1024

type Config struct {
	Provider     Provider
	Language     string
	MaxClipBytes int64
	ClipMIMEType string

	OpenAIAPIKey string
	OpenAIURL    string

	GeminiAPIKey string
	GeminiModel  string

	DeepgramAPIKey string
	DeepgramURL    string

	RemoteBaseURL string
	RemoteToken   string
}

func ConfigFromEnv() (Config, error) {
	provider, err := ParseProvider(os.Getenv("SPEECH_PROVIDER"))
	if err != nil {
		return Config{}, err
	}

	var maxClip int64 = defaultMaxClipBytes
	if v := os.Getenv("SPEECH_MAX_CLIP_BYTES"); v != "" {
		maxClip, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("speech: invalid SPEECH_MAX_CLIP_BYTES: %w", err)
		}
	}

	return Config{
		Provider:       provider,
		Language:       os.Getenv("SPEECH_LANGUAGE"),
		MaxClipBytes:   maxClip,
		ClipMIMEType:   os.Getenv("SPEECH_CLIP_MIME_TYPE"),
		OpenAIAPIKey:   os.Getenv("OPENAI_API_KEY"),
		OpenAIURL:      os.Getenv("OPENAI_BASE_URL"),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		GeminiModel:    os.Getenv("GEMINI_MODEL_NAME"),
		DeepgramAPIKey: os.Getenv("DEEPGRAM_API_KEY"),
		DeepgramURL:    os.Getenv("DEEPGRAM_URL"),
		RemoteBaseURL:  os.Getenv("VOICE_API_BASE_URL"),
		RemoteToken:    os.Getenv("VOICE_API_TOKEN"),
	}, nil
}

// New builds the recognizer selected by cfg.Provider.
func New(ctx context.Context, cfg Config) (Recognizer, error) {
	if cfg.MaxClipBytes <= 0 {
		cfg.MaxClipBytes = defaultMaxClipBytes
	}

	switch cfg.Provider {
	case ProviderWhisper, "":
		return NewWhisper(cfg)
	case ProviderGemini:
		return NewGemini(ctx, cfg)
	case ProviderDeepgram:
		return NewDeepgram(cfg)
	case ProviderRemote:
		return NewRemote(cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}

func readClip(audio io.Reader, maxBytes int64) ([]byte, error) {
	if audio == nil {
		return nil, ErrEmptyAudio
	}

	data, err := io.ReadAll(io.LimitReader(audio, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("speech: read audio: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyAudio
	}
	if int64(len(data)) > maxBytes {
		return nil, ErrClipTooLarge
	}

	return data, nil
}

func clipMIMEType(cfg Config) string {
	if cfg.ClipMIMEType != "" {
		return cfg.ClipMIMEType
	}
	return "audio/webm"
}
