package config

import (
	"AgriVoice/database/postgres"
	customerHandler "AgriVoice/internal/api/customer/handler"
	customerRepository "AgriVoice/internal/api/customer/repository"
	customerService "AgriVoice/internal/api/customer/service"
	voiceHandler "AgriVoice/internal/api/voice/handler"
	voiceRepository "AgriVoice/internal/api/voice/repository"
	voiceService "AgriVoice/internal/api/voice/service"
	"AgriVoice/internal/middleware"
	"AgriVoice/pkg/audio"
	"AgriVoice/pkg/bcrypt"
	contextPkg "AgriVoice/pkg/context"
	"AgriVoice/pkg/redis"
	"AgriVoice/pkg/s3"
	"AgriVoice/pkg/speech"
	"AgriVoice/pkg/utils"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type ServerOption func(*Server) error

type Server struct {
	engine           *fiber.App
	db               *sqlx.DB
	log              *logrus.Logger
	middleware       middleware.Middleware
	validator        *validator.Validate
	utils            utils.IUtils
	bcryptUtils      bcrypt.IBcrypt
	handlers         []handler
	redisServer      redis.IRedis
	s3Client         s3.ItfS3
	recognizer       speech.Recognizer
	streamRecognizer speech.Recognizer
	synthesizer      audio.ISynthesizer
	voiceConfig      *voiceService.VoiceConfig
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if server.recognizer == nil {
		return nil, fmt.Errorf("speech recognizer is required")
	}
	if server.voiceConfig == nil {
		server.voiceConfig = NewVoiceConfig()
	}
	if server.utils == nil {
		server.utils = utils.NewWithMaxFileSize(server.voiceConfig.MaxFileSize)
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

// WithDatabase connects to Postgres and, when RUN_MIGRATIONS=true, applies
// the embedded schema.
func WithDatabase() ServerOption {
	return func(s *Server) error {
		db, err := postgres.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to connect to database: %v", err)
			}
			return fmt.Errorf("failed to create database connection: %w", err)
		}
		s.db = db

		if os.Getenv("RUN_MIGRATIONS") == "true" {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := postgres.Migrate(ctx, db); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
		}
		return nil
	}
}

func WithRedisServer(redisServer redis.IRedis) ServerOption {
	return func(s *Server) error {
		s.redisServer = redisServer
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log)
		return nil
	}
}

func WithS3Client() ServerOption {
	return func(s *Server) error {
		client, err := s3.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to initialize S3 client: %v", err)
			}
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		s.s3Client = client
		return nil
	}
}

// WithSpeech builds the recognizer named by SPEECH_PROVIDER. Live streams
// use it directly when it streams, otherwise Deepgram when a key is set.
func WithSpeech(ctx context.Context) ServerOption {
	return func(s *Server) error {
		cfg, err := speech.ConfigFromEnv()
		if err != nil {
			return err
		}

		recognizer, err := speech.New(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to create %s recognizer: %w", cfg.Provider, err)
		}
		s.recognizer = recognizer

		switch {
		case cfg.Provider.Streaming():
			s.streamRecognizer = recognizer
		case cfg.DeepgramAPIKey != "":
			stream, err := speech.NewDeepgram(cfg)
			if err != nil {
				return fmt.Errorf("failed to create deepgram recognizer: %w", err)
			}
			s.streamRecognizer = stream
		default:
			if s.log != nil {
				s.log.Warn("No streaming recognizer configured, /voice/stream is disabled")
			}
		}
		return nil
	}
}

func WithRecognizers(recognizer, stream speech.Recognizer) ServerOption {
	return func(s *Server) error {
		s.recognizer = recognizer
		s.streamRecognizer = stream
		return nil
	}
}

// WithSynthesizer enables spoken confirmations when ELEVENLABS_API_KEY is set.
func WithSynthesizer() ServerOption {
	return func(s *Server) error {
		apiKey := os.Getenv("ELEVENLABS_API_KEY")
		if apiKey == "" {
			return nil
		}

		var opts []audio.Option
		if baseURL := os.Getenv("ELEVENLABS_BASE_URL"); baseURL != "" {
			opts = append(opts, audio.WithBaseURL(baseURL))
		}
		if model := os.Getenv("ELEVENLABS_MODEL_ID"); model != "" {
			opts = append(opts, audio.WithModel(model))
		}
		s.synthesizer = audio.NewTTSService(apiKey, os.Getenv("ELEVENLABS_VOICE_ID"), opts...)
		return nil
	}
}

func WithVoiceConfig(cfg *voiceService.VoiceConfig) ServerOption {
	return func(s *Server) error {
		s.voiceConfig = cfg
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		maxFileSize := int64(defaultMaxFileSize)
		if s.voiceConfig != nil {
			maxFileSize = s.voiceConfig.MaxFileSize
		}
		s.utils = utils.NewWithMaxFileSize(maxFileSize)
		return nil
	}
}

func WithBcryptUtils() ServerOption {
	return func(s *Server) error {
		s.bcryptUtils = bcrypt.New()
		return nil
	}
}

func (s *Server) RegisterHandler() {
	// Customer Domain
	customerRepo := customerRepository.New(s.db, s.log)
	customerServices := customerService.New(s.log, customerRepo, s.bcryptUtils, s.utils, envDuration("JWT_ACCESS_TOKEN_TTL", 24*time.Hour))
	customerHandlers := customerHandler.New(s.log, s.validator, s.middleware, customerServices)

	// Voice Domain
	voiceRepo := voiceRepository.New(s.db, s.log)
	voiceServices := voiceService.NewVoiceService(
		s.log,
		voiceRepo,
		s.recognizer,
		s.streamRecognizer,
		s.s3Client,
		s.redisServer,
		s.synthesizer,
		s.utils,
		s.voiceConfig,
	)
	voiceHandlers := voiceHandler.New(s.log, s.validator, s.middleware, voiceServices)

	ctx, cancel := context.WithTimeout(contextPkg.WithRequestID(context.Background(), "startup"), 15*time.Second)
	defer cancel()
	if err := voiceServices.SeedDefaultRoutes(ctx); err != nil {
		s.log.WithFields(logrus.Fields{
			"error": err.Error(),
		}).Error("Failed to load command routes, using built-in routes")
	}

	s.setupHealthCheck()
	s.handlers = append(s.handlers, customerHandlers, voiceHandlers)
}

func (s *Server) Run() error {
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(s.middleware.NewLoggingMiddleware())
	router := s.engine.Group("/api/v1")

	for _, h := range s.handlers {
		h.Start(router)
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "3000"
	}

	return s.engine.Listen(fmt.Sprintf(":%s", port))
}

// Shutdown stops accepting requests and releases the backing clients.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.engine.ShutdownWithContext(ctx); err != nil {
		return err
	}

	for _, c := range []interface{}{s.recognizer, s.streamRecognizer} {
		if closer, ok := c.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				s.log.Warnf("Failed to close recognizer: %v", err)
			}
		}
	}

	if s.redisServer != nil {
		if err := s.redisServer.Close(); err != nil {
			s.log.Warnf("Failed to close redis: %v", err)
		}
	}

	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"message": "Server is Healthy!",
		})
	})
}
