package audio

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthesize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/text-to-speech/voice-1", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("xi-api-key"))

		var body ttsRequest
		require.NoError(t, jsoniter.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Opened crop disease page", body.Text)
		assert.Equal(t, defaultModelID, body.ModelID)

		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3"))
	}))
	defer srv.Close()

	tts := NewTTSService("key", "voice-1", WithBaseURL(srv.URL+"/"))
	data, err := tts.Synthesize(context.Background(), "Opened crop disease page")
	require.NoError(t, err)
	assert.Equal(t, "ID3", string(data))
}

func TestSynthesize_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	tts := NewTTSService("bad", "voice-1", WithBaseURL(srv.URL))

	_, err := tts.Synthesize(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrEmptyText)

	_, err = tts.Synthesize(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
