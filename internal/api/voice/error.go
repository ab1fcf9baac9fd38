package voice

import "AgriVoice/pkg/response"

var (
	ErrInvalidAudioFile    = response.NewError(400, "invalid audio file")
	ErrAudioFileTooLarge   = response.NewError(400, "audio file too large")
	ErrUnsupportedFormat   = response.NewError(400, "unsupported audio format")
	ErrTranscriptionFailed = response.NewError(502, "failed to transcribe audio")
	ErrRouteNotFound       = response.NewError(404, "route not found")
	ErrRouteAlreadyExists  = response.NewError(409, "route already exists")
	ErrInvalidRoute        = response.NewError(400, "invalid route")
	ErrAudioNotFound       = response.NewError(404, "audio file not found")
	ErrVoiceCommandFailed  = response.NewError(500, "failed to process voice command")
)

var ErrStreamingUnavailable = response.NewError(503, "streaming recognition is not configured")
