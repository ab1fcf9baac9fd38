package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

var ErrUnavailable = errors.New("capture: audio input unavailable")

// FileSource serves a recorded clip as the microphone. A missing or unreadable
// file is reported the same way a denied microphone is.
type FileSource struct {
	Path string
}

func (s FileSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return nil, fmt.Errorf("capture: open %s: %w", s.Path, os.ErrPermission)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if info.IsDir() || info.Size() == 0 {
		f.Close()
		return nil, fmt.Errorf("%w: %s is empty", ErrUnavailable, s.Path)
	}

	return f, nil
}

// ReaderSource wraps an already open stream, such as stdin. It can be opened
// once; later opens report the input as unavailable.
type ReaderSource struct {
	r    io.Reader
	used chan struct{}
}

func NewReaderSource(r io.Reader) *ReaderSource {
	return &ReaderSource{r: r, used: make(chan struct{}, 1)}
}

func (s *ReaderSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	select {
	case s.used <- struct{}{}:
		return io.NopCloser(s.r), nil
	default:
		return nil, fmt.Errorf("%w: stream already consumed", ErrUnavailable)
	}
}
