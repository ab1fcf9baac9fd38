package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
)

const remoteCommandPath = "/api/v1/voice/command"

type remoteResponse struct {
	Transcript string `json:"transcript"`
	Route      string `json:"route"`
	Message    string `json:"message"`
	Matched    bool   `json:"matched"`
	Error      string `json:"error"`
}

// remoteRecognizer uploads the clip to an AgriVoice server and uses the
// transcript it returns.
type remoteRecognizer struct {
	endpoint string
	token    string
	mimeType string
	maxBytes int64
	client   *http.Client
}

func NewRemote(cfg Config) (Recognizer, error) {
	if cfg.RemoteBaseURL == "" {
		return nil, errors.New("speech: VOICE_API_BASE_URL is required for remote")
	}

	maxBytes := cfg.MaxClipBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxClipBytes
	}

	return &remoteRecognizer{
		endpoint: strings.TrimRight(cfg.RemoteBaseURL, "/") + remoteCommandPath,
		token:    cfg.RemoteToken,
		mimeType: clipMIMEType(cfg),
		maxBytes: maxBytes,
		client:   &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (r *remoteRecognizer) Recognize(ctx context.Context, audio io.Reader) (string, error) {
	data, err := readClip(audio, r.maxBytes)
	if err != nil {
		return "", err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="audio"; filename="command`+extensionFor(r.mimeType)+`"`)
	h.Set("Content-Type", r.mimeType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return "", fmt.Errorf("speech: build upload: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("speech: build upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("speech: build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("speech: build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("speech: remote request: %w", err)
	}
	defer resp.Body.Close()

	var out remoteResponse
	if err := jsoniter.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("speech: decode remote response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK {
		reason := out.Error
		if reason == "" {
			reason = out.Message
		}
		return "", fmt.Errorf("speech: remote recognizer returned %d: %s", resp.StatusCode, reason)
	}

	text := strings.TrimSpace(out.Transcript)
	if text == "" {
		return "", ErrNoSpeech
	}
	return text, nil
}
