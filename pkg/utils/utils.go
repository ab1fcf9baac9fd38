package utils

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	ErrNoFile           = errors.New("no file uploaded")
	ErrFileTooLarge     = errors.New("file size exceeds limit")
	ErrUnsupportedAudio = errors.New("uploaded file is not a supported audio clip")
)

var audioExtensions = map[string]string{
	".webm": "audio/webm",
	".wav":  "audio/wav",
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".ogg":  "audio/ogg",
}

type IUtils interface {
	NewULIDFromTimestamp(t time.Time) (string, error)
	ValidateAudioFile(file *multipart.FileHeader) error
	ReadAudioFile(file *multipart.FileHeader) ([]byte, string, error)
}

type utils struct {
	maxFileSize int64
}

func New() IUtils {
	return &utils{
		maxFileSize: 10 * 1024 * 1024,
	}
}

func NewWithMaxFileSize(maxFileSize int64) IUtils {
	return &utils{
		maxFileSize: maxFileSize,
	}
}

func (u *utils) NewULIDFromTimestamp(t time.Time) (string, error) {
	ms := ulid.Timestamp(t)
	entropy := ulid.Monotonic(rand.Reader, 0)

	id, err := ulid.New(ms, entropy)
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

func (u *utils) ValidateAudioFile(file *multipart.FileHeader) error {
	if file == nil {
		return ErrNoFile
	}

	if file.Size == 0 {
		return ErrNoFile
	}

	if file.Size > u.maxFileSize {
		return ErrFileTooLarge
	}

	if _, ok := audioExtensions[strings.ToLower(filepath.Ext(file.Filename))]; ok {
		return nil
	}

	// MediaRecorder uploads are often named "blob" with only a content type.
	contentType := file.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "audio/") || contentType == "video/webm" {
		return nil
	}

	return ErrUnsupportedAudio
}

// ReadAudioFile returns the clip bytes and their MIME type.
func (u *utils) ReadAudioFile(file *multipart.FileHeader) ([]byte, string, error) {
	if err := u.ValidateAudioFile(file); err != nil {
		return nil, "", err
	}

	src, err := file.Open()
	if err != nil {
		return nil, "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, u.maxFileSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > u.maxFileSize {
		return nil, "", ErrFileTooLarge
	}

	return data, AudioMIMEType(file.Filename, file.Header.Get("Content-Type")), nil
}

func AudioMIMEType(filename, contentType string) string {
	if mt, ok := audioExtensions[strings.ToLower(filepath.Ext(filename))]; ok {
		return mt
	}
	if strings.HasPrefix(contentType, "audio/") {
		if i := strings.Index(contentType, ";"); i > 0 {
			return contentType[:i]
		}
		return contentType
	}
	return "audio/webm"
}

func AudioExtension(mimeType string) string {
	for ext, mt := range audioExtensions {
		if mt == mimeType {
			return ext
		}
	}
	return ".webm"
}
