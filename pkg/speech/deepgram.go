package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
)

const (
	defaultDeepgramURL = "wss://api.deepgram.com/v1/listen"
	deepgramChunkSize  = 8 * 1024
)

var closeStreamMessage = []byte(`{"type":"CloseStream"}`)

type deepgramResult struct {
	Type        string `json:"type"`
	IsFinal     bool   `json:"is_final"`
	SpeechFinal bool   `json:"speech_final"`
	Channel     struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"channel"`
}

type deepgramRecognizer struct {
	apiKey   string
	endpoint string
	dialer   *websocket.Dialer
}

func NewDeepgram(cfg Config) (Recognizer, error) {
	if cfg.DeepgramAPIKey == "" {
		return nil, errors.New("speech: DEEPGRAM_API_KEY is required for deepgram")
	}

	base := cfg.DeepgramURL
	if base == "" {
		base = defaultDeepgramURL
	}

	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("speech: invalid deepgram url: %w", err)
	}

	q := u.Query()
	if q.Get("punctuate") == "" {
		q.Set("punctuate", "true")
	}
	if q.Get("interim_results") == "" {
		q.Set("interim_results", "true")
	}
	if cfg.Language != "" {
		q.Set("language", cfg.Language)
	}
	u.RawQuery = q.Encode()

	return &deepgramRecognizer{
		apiKey:   cfg.DeepgramAPIKey,
		endpoint: u.String(),
		dialer:   &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}, nil
}

// Recognize streams audio to Deepgram and returns once the service marks the
// end of an utterance or closes the stream. The audio writer has stopped
// reading by the time it returns, unless ctx ends first.
func (d *deepgramRecognizer) Recognize(ctx context.Context, audio io.Reader) (string, error) {
	if audio == nil {
		return "", ErrEmptyAudio
	}

	header := http.Header{}
	header.Set("Authorization", "Token "+d.apiKey)

	conn, _, err := d.dialer.DialContext(ctx, d.endpoint, header)
	if err != nil {
		return "", fmt.Errorf("speech: deepgram dial: %w", err)
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	writeErr := make(chan error, 1)
	stop := make(chan struct{})
	writerDone := false
	go func() {
		writeErr <- streamAudio(conn, audio, stop)
	}()
	defer func() {
		close(stop)
		conn.Close()
		if writerDone {
			return
		}
		select {
		case <-writeErr:
		case <-ctx.Done():
		}
	}()

	var parts []string
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}
			if len(parts) > 0 {
				return strings.Join(parts, " "), nil
			}
			select {
			case werr := <-writeErr:
				writerDone = true
				if werr != nil {
					return "", werr
				}
			default:
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return "", ErrNoSpeech
			}
			return "", fmt.Errorf("speech: deepgram read: %w", err)
		}

		var res deepgramResult
		if err := jsoniter.Unmarshal(msg, &res); err != nil {
			continue
		}
		if res.Type != "" && res.Type != "Results" {
			continue
		}
		if !res.IsFinal || len(res.Channel.Alternatives) == 0 {
			continue
		}

		if t := strings.TrimSpace(res.Channel.Alternatives[0].Transcript); t != "" {
			parts = append(parts, t)
		}
		if res.SpeechFinal && len(parts) > 0 {
			return strings.Join(parts, " "), nil
		}
	}
}

func streamAudio(conn *websocket.Conn, audio io.Reader, stop <-chan struct{}) error {
	buf := make([]byte, deepgramChunkSize)
	for {
		select {
		case <-stop:
			return nil
		default:
		}

		n, err := audio.Read(buf)
		select {
		case <-stop:
			return nil
		default:
		}
		if n > 0 {
			if werr := conn.WriteMessage(websocket.BinaryMessage, buf[:n]); werr != nil {
				return fmt.Errorf("speech: deepgram write: %w", werr)
			}
		}
		if errors.Is(err, io.EOF) {
			if werr := conn.WriteMessage(websocket.TextMessage, closeStreamMessage); werr != nil {
				return fmt.Errorf("speech: deepgram close stream: %w", werr)
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("speech: read audio: %w", err)
		}
	}
}
