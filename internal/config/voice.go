package config

import (
	voiceService "AgriVoice/internal/api/voice/service"
	"os"
	"strconv"
	"time"
)

const defaultMaxFileSize = 10 * 1024 * 1024

func NewVoiceConfig() *voiceService.VoiceConfig {
	return &voiceService.VoiceConfig{
		ElevenLabsVoiceID:  os.Getenv("ELEVENLABS_VOICE_ID"),
		MaxFileSize:        envInt64("VOICE_MAX_FILE_SIZE", defaultMaxFileSize),
		ArchiveClips:       os.Getenv("VOICE_ARCHIVE_CLIPS") == "true",
		AudioCacheTTL:      envDuration("VOICE_AUDIO_CACHE_TTL", 24*time.Hour),
		RecognitionTimeout: envDuration("VOICE_RECOGNITION_TIMEOUT", 20*time.Second),
	}
}

func envInt64(key string, fallback int64) int64 {
	v, err := strconv.ParseInt(os.Getenv(key), 10, 64)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
