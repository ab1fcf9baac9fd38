package voiceService

import (
	"AgriVoice/internal/api/voice"
	contextPkg "AgriVoice/pkg/context"
	"AgriVoice/pkg/redis"
	"AgriVoice/pkg/s3"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	audioPathPrefix = "/api/v1/voice/audio/"
	ttsCachePrefix  = "tts:"
)

// confirmationAudio returns the URL of the spoken confirmation, synthesising
// and uploading it on first use. Identical phrases share one object.
func (s *voiceService) confirmationAudio(ctx context.Context, text string) (string, error) {
	if s.tts == nil || s.s3Client == nil || text == "" {
		return "", nil
	}

	requestID := contextPkg.GetRequestID(ctx)
	filename := ttsFilename(s.config.ElevenLabsVoiceID, text)
	cacheKey := ttsCachePrefix + filename

	if s.cache != nil {
		url, err := s.cache.GetCache(ctx, cacheKey)
		if err == nil && url != "" {
			return url, nil
		}
		if err != nil && !errors.Is(err, redis.ErrCacheMiss) {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"error":      err.Error(),
			}).Warn("Failed to read audio cache")
		}
	}

	data, err := s.tts.Synthesize(ctx, text)
	if err != nil {
		return "", err
	}

	if _, err := s.s3Client.UploadBytes(ctx, filename, data, "audio/mpeg"); err != nil {
		return "", err
	}

	url := audioPathPrefix + filename
	if s.cache != nil {
		if err := s.cache.SetCache(ctx, cacheKey, url, s.config.AudioCacheTTL); err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"error":      err.Error(),
			}).Warn("Failed to cache audio URL")
		}
	}

	return url, nil
}

func ttsFilename(voiceID, text string) string {
	sum := sha256.Sum256([]byte(voiceID + "\x00" + text))
	return "tts-" + hex.EncodeToString(sum[:12]) + ".mp3"
}

func (s *voiceService) ServeAudioFile(ctx context.Context, filename string) ([]byte, error) {
	if filename == "" || strings.Contains(filename, "..") || strings.ContainsAny(filename, "/\\") {
		return nil, voice.ErrInvalidAudioFile
	}
	if s.s3Client == nil {
		return nil, voice.ErrAudioNotFound
	}

	data, err := s.s3Client.Download(ctx, filename)
	if err != nil {
		if errors.Is(err, s3.ErrObjectNotFound) {
			return nil, voice.ErrAudioNotFound
		}
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"filename":   filename,
			"error":      err.Error(),
		}).Error("Failed to download audio file")
		return nil, err
	}

	return data, nil
}
