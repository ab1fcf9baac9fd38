package voiceService

import (
	"AgriVoice/internal/api/voice"
	"AgriVoice/internal/entity"
	contextPkg "AgriVoice/pkg/context"
	"AgriVoice/pkg/command"
	"AgriVoice/pkg/response"
	"AgriVoice/pkg/speech"
	"AgriVoice/pkg/utils"
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

func (s *voiceService) ProcessVoiceCommand(ctx context.Context, userID string, req voice.ProcessVoiceRequest) (*voice.VoiceCommandResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)
	start := time.Now()

	data, mimeType, err := s.utils.ReadAudioFile(req.AudioFile)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Invalid audio file")
		return nil, mapAudioFileError(err)
	}

	commandID, err := s.utils.NewULIDFromTimestamp(start)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to generate command ID")
		return nil, err
	}

	transcript, err := s.recognize(ctx, s.recognizer, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	audioKey := s.archiveClip(ctx, commandID, data, mimeType)

	return s.resolve(ctx, entity.VoiceCommand{
		ID:         commandID,
		UserID:     userID,
		Source:     entity.CommandSourceUpload,
		AudioKey:   audioKey,
		Transcript: transcript,
	}, start)
}

// ProcessStream recognises audio as it arrives from a live connection.
func (s *voiceService) ProcessStream(ctx context.Context, userID string, audio io.Reader) (*voice.VoiceCommandResponse, error) {
	if s.streamRecognizer == nil {
		return nil, voice.ErrStreamingUnavailable
	}

	requestID := contextPkg.GetRequestID(ctx)
	start := time.Now()

	commandID, err := s.utils.NewULIDFromTimestamp(start)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to generate command ID")
		return nil, err
	}

	var clip *clipRecorder
	if s.config.ArchiveClips {
		clip = &clipRecorder{}
		audio = io.TeeReader(audio, clip)
	}

	transcript, err := s.recognize(ctx, s.streamRecognizer, audio)
	if err != nil {
		return nil, err
	}

	var audioKey string
	if data := clip.Seal(); len(data) > 0 {
		audioKey = s.archiveClip(ctx, commandID, data, "audio/webm")
	}

	return s.resolve(ctx, entity.VoiceCommand{
		ID:         commandID,
		UserID:     userID,
		Source:     entity.CommandSourceStream,
		AudioKey:   audioKey,
		Transcript: transcript,
	}, start)
}

func (s *voiceService) MatchText(ctx context.Context, req voice.MatchRequest) voice.MatchResponse {
	resp := voice.MatchResponse{
		Text:       req.Text,
		Normalized: command.Normalize(req.Text),
	}

	match, ok := s.currentMatcher().Match(req.Text)
	if !ok {
		return resp
	}

	resp.Matched = true
	resp.PageID = match.Route.PageID
	resp.Route = match.Route.Path
	resp.Keyword = match.Keyword
	resp.Message = match.Route.Confirmation
	return resp
}

// recognize bounds a recogniser call. Silence and an expired recognition
// window both yield an empty transcript rather than an error.
func (s *voiceService) recognize(ctx context.Context, recognizer speech.Recognizer, audio io.Reader) (string, error) {
	requestID := contextPkg.GetRequestID(ctx)

	c, cancel := context.WithTimeout(ctx, s.config.RecognitionTimeout)
	defer cancel()

	transcript, err := recognizer.Recognize(c, audio)
	switch {
	case err == nil:
		return transcript, nil
	case errors.Is(err, speech.ErrNoSpeech):
		return "", nil
	case errors.Is(err, speech.ErrEmptyAudio):
		return "", voice.ErrInvalidAudioFile
	case errors.Is(err, speech.ErrClipTooLarge):
		return "", voice.ErrAudioFileTooLarge
	case ctx.Err() != nil:
		return "", ctx.Err()
	case errors.Is(err, context.DeadlineExceeded):
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"timeout":    s.config.RecognitionTimeout.String(),
		}).Warn("Recognition window elapsed without a transcript")
		return "", nil
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"error":      err.Error(),
	}).Error("Failed to transcribe audio")
	return "", response.Wrap(voice.ErrTranscriptionFailed, err)
}

// resolve matches the transcript, attaches the spoken confirmation and
// records the command.
func (s *voiceService) resolve(ctx context.Context, cmd entity.VoiceCommand, start time.Time) (*voice.VoiceCommandResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	resp := &voice.VoiceCommandResponse{
		CommandID:  cmd.ID,
		Transcript: cmd.Transcript,
	}

	if match, ok := s.currentMatcher().Match(cmd.Transcript); ok {
		resp.Matched = true
		resp.PageID = match.Route.PageID
		resp.Route = match.Route.Path
		resp.Keyword = match.Keyword
		resp.Message = match.Route.Confirmation

		audioURL, err := s.confirmationAudio(ctx, resp.Message)
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"error":      err.Error(),
			}).Warn("Failed to generate audio response, continuing without audio")
		}
		resp.AudioURL = audioURL
	}

	cmd.PageID = resp.PageID
	cmd.Route = resp.Route
	cmd.Keyword = resp.Keyword
	cmd.Message = resp.Message
	cmd.Matched = resp.Matched
	cmd.AudioURL = resp.AudioURL
	cmd.LatencyMS = time.Since(start).Milliseconds()
	cmd.CreatedAt = start

	repo, err := s.voiceRepo.NewClient(true)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return nil, err
	}
	defer repo.Rollback()

	if err := repo.VoiceCommands.CreateVoiceCommand(ctx, cmd); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to save voice command")
		return nil, voice.ErrVoiceCommandFailed
	}

	if err := repo.Commit(); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to commit transaction")
		return nil, voice.ErrVoiceCommandFailed
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"command_id": cmd.ID,
		"source":     cmd.Source,
		"matched":    cmd.Matched,
		"route":      cmd.Route,
		"latency_ms": cmd.LatencyMS,
	}).Info("Voice command processed")

	return resp, nil
}

func (s *voiceService) archiveClip(ctx context.Context, commandID string, data []byte, mimeType string) string {
	if !s.config.ArchiveClips || s.s3Client == nil {
		return ""
	}

	key, err := s.s3Client.UploadBytes(ctx, "clips/"+commandID+utils.AudioExtension(mimeType), data, mimeType)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"command_id": commandID,
			"error":      err.Error(),
		}).Warn("Failed to archive voice clip")
		return ""
	}

	return key
}

func (s *voiceService) GetVoiceHistory(ctx context.Context, userID string, page, limit int) ([]voice.VoiceCommandHistory, int, error) {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.voiceRepo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return nil, 0, err
	}

	offset := (page - 1) * limit
	commands, total, err := repo.VoiceCommands.GetVoiceCommandsByUserID(ctx, userID, limit, offset)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to get voice history")
		return nil, 0, err
	}

	history := make([]voice.VoiceCommandHistory, 0, len(commands))
	for _, cmd := range commands {
		history = append(history, voice.VoiceCommandHistory{
			ID:         cmd.ID,
			Source:     string(cmd.Source),
			Transcript: cmd.Transcript,
			Matched:    cmd.Matched,
			PageID:     cmd.PageID,
			Route:      cmd.Route,
			Message:    cmd.Message,
			AudioURL:   cmd.AudioURL,
			LatencyMS:  cmd.LatencyMS,
			CreatedAt:  cmd.CreatedAt,
		})
	}

	return history, total, nil
}

func mapAudioFileError(err error) error {
	switch {
	case errors.Is(err, utils.ErrNoFile):
		return voice.ErrInvalidAudioFile
	case errors.Is(err, utils.ErrFileTooLarge):
		return voice.ErrAudioFileTooLarge
	case errors.Is(err, utils.ErrUnsupportedAudio):
		return voice.ErrUnsupportedFormat
	}
	return response.Wrap(voice.ErrInvalidAudioFile, err)
}

var errClipSealed = errors.New("clip recording already sealed")

// clipRecorder collects streamed audio for archival. A recogniser may still
// be reading when it returns, so writes after Seal are refused.
type clipRecorder struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	sealed bool
}

func (c *clipRecorder) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sealed {
		return 0, errClipSealed
	}
	return c.buf.Write(p)
}

// Seal stops recording and returns a copy of what was captured.
func (c *clipRecorder) Seal() []byte {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sealed = true
	return bytes.Clone(c.buf.Bytes())
}
