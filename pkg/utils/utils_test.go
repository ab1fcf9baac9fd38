package utils

import (
	"mime/multipart"
	"net/textproto"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileHeader(name, contentType string, size int64) *multipart.FileHeader {
	h := make(textproto.MIMEHeader)
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	return &multipart.FileHeader{Filename: name, Header: h, Size: size}
}

func TestNewULIDFromTimestamp(t *testing.T) {
	now := time.Now()
	id, err := New().NewULIDFromTimestamp(now)
	require.NoError(t, err)

	parsed, err := ulid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, ulid.Timestamp(now), parsed.Time())
}

func TestValidateAudioFile(t *testing.T) {
	u := NewWithMaxFileSize(1024)

	assert.ErrorIs(t, u.ValidateAudioFile(nil), ErrNoFile)
	assert.ErrorIs(t, u.ValidateAudioFile(fileHeader("a.webm", "", 0)), ErrNoFile)
	assert.ErrorIs(t, u.ValidateAudioFile(fileHeader("a.webm", "", 2048)), ErrFileTooLarge)
	assert.ErrorIs(t, u.ValidateAudioFile(fileHeader("a.png", "image/png", 10)), ErrUnsupportedAudio)

	assert.NoError(t, u.ValidateAudioFile(fileHeader("clip.WAV", "", 10)))
	assert.NoError(t, u.ValidateAudioFile(fileHeader("blob", "audio/webm;codecs=opus", 10)))
}

func TestAudioMIMEType(t *testing.T) {
	assert.Equal(t, "audio/mpeg", AudioMIMEType("x.mp3", ""))
	assert.Equal(t, "audio/webm", AudioMIMEType("blob", "audio/webm;codecs=opus"))
	assert.Equal(t, "audio/webm", AudioMIMEType("blob", "application/octet-stream"))
	assert.Equal(t, ".wav", AudioExtension("audio/wav"))
	assert.Equal(t, ".webm", AudioExtension("audio/unknown"))
}
