package speech

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProvider(t *testing.T) {
	p, err := ParseProvider(" Deepgram ")
	require.NoError(t, err)
	assert.Equal(t, ProviderDeepgram, p)
	assert.True(t, p.Streaming())

	p, err = ParseProvider("")
	require.NoError(t, err)
	assert.Equal(t, ProviderWhisper, p)
	assert.False(t, p.Streaming())

	_, err = ParseProvider("siri")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestReadClip(t *testing.T) {
	_, err := readClip(strings.NewReader(""), 10)
	assert.ErrorIs(t, err, ErrEmptyAudio)

	_, err = readClip(strings.NewReader("0123456789A"), 10)
	assert.ErrorIs(t, err, ErrClipTooLarge)

	data, err := readClip(strings.NewReader("0123456789"), 10)
	require.NoError(t, err)
	assert.Len(t, data, 10)
}

func TestNew_MissingCredentials(t *testing.T) {
	for _, p := range []Provider{ProviderWhisper, ProviderGemini, ProviderDeepgram, ProviderRemote} {
		_, err := New(context.Background(), Config{Provider: p})
		assert.Error(t, err, string(p))
	}

	_, err := New(context.Background(), Config{Provider: "siri"})
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestWhisper_Recognize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/transcriptions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		file, header, err := r.FormFile("file")
		if assert.NoError(t, err) {
			defer file.Close()
			assert.Equal(t, "command.webm", header.Filename)
			data, _ := io.ReadAll(file)
			assert.Equal(t, "clip", string(data))
		}
		assert.Equal(t, "whisper-1", r.FormValue("model"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":" Open crop disease "}`))
	}))
	defer srv.Close()

	rec, err := NewWhisper(Config{OpenAIAPIKey: "sk-test", OpenAIURL: srv.URL + "/v1", MaxClipBytes: 1024})
	require.NoError(t, err)

	text, err := rec.Recognize(context.Background(), strings.NewReader("clip"))
	require.NoError(t, err)
	assert.Equal(t, "Open crop disease", text)
}

func TestWhisper_EmptyTranscript(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":""}`))
	}))
	defer srv.Close()

	rec, err := NewWhisper(Config{OpenAIAPIKey: "sk-test", OpenAIURL: srv.URL + "/v1"})
	require.NoError(t, err)

	_, err = rec.Recognize(context.Background(), strings.NewReader("clip"))
	assert.ErrorIs(t, err, ErrNoSpeech)
}

func TestRemote_Recognize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, remoteCommandPath, r.URL.Path)
		assert.Equal(t, "Bearer tkn", r.Header.Get("Authorization"))

		file, header, err := r.FormFile("audio")
		if assert.NoError(t, err) {
			defer file.Close()
			assert.Equal(t, "command.webm", header.Filename)
			assert.Equal(t, "audio/webm", header.Header.Get("Content-Type"))
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"transcript":"show me the dashboard","route":"/dashboard","matched":true}`))
	}))
	defer srv.Close()

	rec, err := NewRemote(Config{RemoteBaseURL: srv.URL + "/", RemoteToken: "tkn", MaxClipBytes: 1024})
	require.NoError(t, err)

	text, err := rec.Recognize(context.Background(), bytes.NewReader([]byte("clip")))
	require.NoError(t, err)
	assert.Equal(t, "show me the dashboard", text)
}

func TestRemote_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Unauthorized","code":"UNAUTHORIZED"}`))
	}))
	defer srv.Close()

	rec, err := NewRemote(Config{RemoteBaseURL: srv.URL, MaxClipBytes: 1024})
	require.NoError(t, err)

	_, err = rec.Recognize(context.Background(), strings.NewReader("clip"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "Unauthorized")
}

type fakeDeepgram struct {
	t        *testing.T
	results  []string
	received chan []byte
}

func (f *fakeDeepgram) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	assert.Equal(f.t, "Token dg-key", r.Header.Get("Authorization"))
	assert.Equal(f.t, "true", r.URL.Query().Get("interim_results"))

	upgrader := websocket.Upgrader{}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	var audio []byte
	for {
		kind, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if kind == websocket.BinaryMessage {
			audio = append(audio, msg...)
			continue
		}
		if string(msg) == string(closeStreamMessage) {
			break
		}
	}
	f.received <- audio

	for _, res := range f.results {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(res)); err != nil {
			return
		}
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
}

func newDeepgramServer(t *testing.T, results ...string) (*httptest.Server, *fakeDeepgram) {
	fake := &fakeDeepgram{t: t, results: results, received: make(chan []byte, 1)}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return srv, fake
}

func TestDeepgram_Recognize(t *testing.T) {
	srv, fake := newDeepgramServer(t,
		`{"type":"Metadata","request_id":"abc"}`,
		`{"type":"Results","is_final":false,"channel":{"alternatives":[{"transcript":"open"}]}}`,
		`{"type":"Results","is_final":true,"speech_final":false,"channel":{"alternatives":[{"transcript":"Open crop"}]}}`,
		`{"type":"Results","is_final":true,"speech_final":true,"channel":{"alternatives":[{"transcript":"disease"}]}}`,
	)

	rec, err := NewDeepgram(Config{DeepgramAPIKey: "dg-key", DeepgramURL: "ws" + strings.TrimPrefix(srv.URL, "http")})
	require.NoError(t, err)

	audio := bytes.Repeat([]byte{1, 2, 3}, deepgramChunkSize)
	text, err := rec.Recognize(context.Background(), bytes.NewReader(audio))
	require.NoError(t, err)
	assert.Equal(t, "Open crop disease", text)
	assert.Equal(t, audio, <-fake.received)
}

func TestDeepgram_NoSpeech(t *testing.T) {
	srv, _ := newDeepgramServer(t,
		`{"type":"Results","is_final":true,"speech_final":true,"channel":{"alternatives":[{"transcript":""}]}}`,
	)

	rec, err := NewDeepgram(Config{DeepgramAPIKey: "dg-key", DeepgramURL: "ws" + strings.TrimPrefix(srv.URL, "http")})
	require.NoError(t, err)

	_, err = rec.Recognize(context.Background(), strings.NewReader("silence"))
	assert.ErrorIs(t, err, ErrNoSpeech)
}

func TestDeepgram_ContextCancel(t *testing.T) {
	srv, _ := newDeepgramServer(t)

	rec, err := NewDeepgram(Config{DeepgramAPIKey: "dg-key", DeepgramURL: "ws" + strings.TrimPrefix(srv.URL, "http")})
	require.NoError(t, err)

	// The pipe is never closed, so the server keeps waiting for audio.
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = rec.Recognize(ctx, pr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type countingAudio struct {
	reads atomic.Int64
}

func (c *countingAudio) Read(p []byte) (int, error) {
	c.reads.Add(1)
	return len(p), nil
}

func TestDeepgram_StopsReadingAudioOnResult(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		_ = conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"type":"Results","is_final":true,"speech_final":true,"channel":{"alternatives":[{"transcript":"open market"}]}}`))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	rec, err := NewDeepgram(Config{DeepgramAPIKey: "dg-key", DeepgramURL: "ws" + strings.TrimPrefix(srv.URL, "http")})
	require.NoError(t, err)

	audio := &countingAudio{}
	text, err := rec.Recognize(context.Background(), audio)
	require.NoError(t, err)
	assert.Equal(t, "open market", text)

	reads := audio.reads.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, reads, audio.reads.Load())
}
