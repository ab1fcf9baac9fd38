package voicerouter

import (
	"context"
	"io"
)

// AudioSource hands out the capture handle for one listening session. An
// error means the microphone is denied or unavailable.
type AudioSource interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Transcriber turns one captured utterance into text.
type Transcriber interface {
	Recognize(ctx context.Context, audio io.Reader) (string, error)
}

type Navigator interface {
	Navigate(path string)
}

type Speaker interface {
	Speak(phrase string)
}

type Notifier interface {
	Notify(message string)
}

type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

type SpeakerFunc func(phrase string)

func (f SpeakerFunc) Speak(phrase string) { f(phrase) }

type NotifierFunc func(message string)

func (f NotifierFunc) Notify(message string) { f(message) }
