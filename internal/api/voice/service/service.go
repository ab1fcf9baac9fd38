package voiceService

import (
	"AgriVoice/internal/api/voice"
	voiceRepository "AgriVoice/internal/api/voice/repository"
	"AgriVoice/pkg/audio"
	"AgriVoice/pkg/command"
	"AgriVoice/pkg/redis"
	"AgriVoice/pkg/s3"
	"AgriVoice/pkg/speech"
	"AgriVoice/pkg/utils"
	"context"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type IVoiceService interface {
	ProcessVoiceCommand(ctx context.Context, userID string, req voice.ProcessVoiceRequest) (*voice.VoiceCommandResponse, error)
	ProcessStream(ctx context.Context, userID string, stream io.Reader) (*voice.VoiceCommandResponse, error)
	MatchText(ctx context.Context, req voice.MatchRequest) voice.MatchResponse

	GetVoiceHistory(ctx context.Context, userID string, page, limit int) ([]voice.VoiceCommandHistory, int, error)

	GetRoutes(ctx context.Context) ([]voice.RouteResponse, error)
	CreateRoute(ctx context.Context, req voice.RouteRequest) (*voice.RouteResponse, error)
	UpdateRoute(ctx context.Context, pageID string, req voice.RouteRequest) (*voice.RouteResponse, error)
	SeedDefaultRoutes(ctx context.Context) error
	ReloadRoutes(ctx context.Context) error

	ServeAudioFile(ctx context.Context, filename string) ([]byte, error)
}

const defaultRecognitionTimeout = 20 * time.Second

type VoiceConfig struct {
	ElevenLabsVoiceID  string        `json:"eleven_labs_voice_id"`
	MaxFileSize        int64         `json:"max_file_size"`
	ArchiveClips       bool          `json:"archive_clips"`
	AudioCacheTTL      time.Duration `json:"audio_cache_ttl"`
	RecognitionTimeout time.Duration `json:"recognition_timeout"`
}

type voiceService struct {
	log       *logrus.Logger
	voiceRepo voiceRepository.Repository
	utils     utils.IUtils
	config    *VoiceConfig

	recognizer       speech.Recognizer
	streamRecognizer speech.Recognizer

	// optional; nil disables clip archival and spoken confirmations
	s3Client s3.ItfS3
	cache    redis.IRedis
	tts      audio.ISynthesizer

	mu      sync.RWMutex
	matcher *command.Matcher

	// held across a route table write and the matcher swap that follows it
	routesMu sync.Mutex
}

func NewVoiceService(
	log *logrus.Logger,
	voiceRepo voiceRepository.Repository,
	recognizer speech.Recognizer,
	streamRecognizer speech.Recognizer,
	s3Client s3.ItfS3,
	cache redis.IRedis,
	tts audio.ISynthesizer,
	utils utils.IUtils,
	config *VoiceConfig,
) IVoiceService {
	if config == nil {
		config = &VoiceConfig{}
	}
	if config.RecognitionTimeout <= 0 {
		config.RecognitionTimeout = defaultRecognitionTimeout
	}
	if config.AudioCacheTTL <= 0 {
		config.AudioCacheTTL = 24 * time.Hour
	}

	// the built-in table is always valid
	matcher, _ := command.NewMatcher(command.DefaultRoutes())

	return &voiceService{
		log:              log,
		voiceRepo:        voiceRepo,
		utils:            utils,
		config:           config,
		recognizer:       recognizer,
		streamRecognizer: streamRecognizer,
		s3Client:         s3Client,
		cache:            cache,
		tts:              tts,
		matcher:          matcher,
	}
}

func (s *voiceService) currentMatcher() *command.Matcher {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.matcher
}
