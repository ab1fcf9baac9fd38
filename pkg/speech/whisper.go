package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

type whisperRecognizer struct {
	client   *openai.Client
	language string
	maxBytes int64
	filename string
}

func NewWhisper(cfg Config) (Recognizer, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, errors.New("speech: OPENAI_API_KEY is required for whisper")
	}

	clientCfg := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIURL != "" {
		clientCfg.BaseURL = cfg.OpenAIURL
	}

	maxBytes := cfg.MaxClipBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxClipBytes
	}

	return &whisperRecognizer{
		client:   openai.NewClientWithConfig(clientCfg),
		language: cfg.Language,
		maxBytes: maxBytes,
		filename: "command" + extensionFor(clipMIMEType(cfg)),
	}, nil
}

func (w *whisperRecognizer) Recognize(ctx context.Context, audio io.Reader) (string, error) {
	data, err := readClip(audio, w.maxBytes)
	if err != nil {
		return "", err
	}

	req := openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: w.filename,
		Reader:   bytes.NewReader(data),
		Language: w.language,
	}

	resp, err := w.client.CreateTranscription(ctx, req)
	if err != nil {
		return "", fmt.Errorf("speech: whisper transcription: %w", err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", ErrNoSpeech
	}
	return text, nil
}

func extensionFor(mimeType string) string {
	switch strings.ToLower(mimeType) {
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/mp4", "audio/m4a", "audio/x-m4a":
		return ".m4a"
	case "audio/ogg":
		return ".ogg"
	default:
		return ".webm"
	}
}
