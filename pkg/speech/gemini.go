package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const geminiPrompt = "Transcribe the spoken command in this audio clip. " +
	"Reply with the transcript only, without quotes or commentary. " +
	"Reply with an empty message if nobody speaks."

type geminiRecognizer struct {
	client    *genai.Client
	modelName string
	mimeType  string
	language  string
	maxBytes  int64
}

func NewGemini(ctx context.Context, cfg Config) (Recognizer, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, errors.New("speech: GEMINI_API_KEY is required for gemini")
	}

	modelName := cfg.GeminiModel
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}

	maxBytes := cfg.MaxClipBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxClipBytes
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("speech: create gemini client: %w", err)
	}

	return &geminiRecognizer{
		client:    client,
		modelName: modelName,
		mimeType:  clipMIMEType(cfg),
		language:  cfg.Language,
		maxBytes:  maxBytes,
	}, nil
}

func (g *geminiRecognizer) Recognize(ctx context.Context, audio io.Reader) (string, error) {
	data, err := readClip(audio, g.maxBytes)
	if err != nil {
		return "", err
	}

	model := g.client.GenerativeModel(g.modelName)
	model.SetTemperature(0)

	prompt := geminiPrompt
	if g.language != "" {
		prompt += " The speaker uses language code " + g.language + "."
	}

	res, err := model.GenerateContent(ctx, genai.Text(prompt), genai.Blob{MIMEType: g.mimeType, Data: data})
	if err != nil {
		return "", fmt.Errorf("speech: gemini transcription: %w", err)
	}

	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
		return "", ErrNoSpeech
	}

	var sb strings.Builder
	for _, part := range res.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", ErrNoSpeech
	}
	return text, nil
}

func (g *geminiRecognizer) Close() error {
	return g.client.Close()
}
