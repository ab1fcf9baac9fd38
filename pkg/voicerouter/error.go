package voicerouter

import "errors"

var (
	ErrPermissionDenied   = errors.New("microphone access denied")
	ErrRecognitionFailure = errors.New("speech recognition failed")
)

const (
	msgPermissionDenied   = "Failed to access microphone. Please allow microphone permissions."
	msgRecognitionFailure = "Sorry, voice recognition failed. Please try again."
)

// PermissionError is returned by StartListening when the audio source could
// not be opened.
type PermissionError struct {
	Err error
}

func (e *PermissionError) Error() string {
	if e.Err == nil {
		return ErrPermissionDenied.Error()
	}
	return ErrPermissionDenied.Error() + ": " + e.Err.Error()
}

func (e *PermissionError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrPermissionDenied}
	}
	return []error{ErrPermissionDenied, e.Err}
}
