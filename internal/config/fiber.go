package config

import (
	"time"

	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

// multipart framing around an uploaded clip
const uploadOverhead = 1 << 20

func NewFiber(logger *logrus.Logger) *fiber.App {
	bodyLimit := envInt64("VOICE_MAX_FILE_SIZE", defaultMaxFileSize) + uploadOverhead

	logger.WithFields(logrus.Fields{
		"body_limit": bodyLimit,
	}).Debug("Configuring fiber")

	app := fiber.New(
		fiber.Config{
			AppName:           "AgriVoice",
			BodyLimit:         int(bodyLimit),
			ReadTimeout:       envDuration("HTTP_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:      envDuration("HTTP_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:       envDuration("HTTP_IDLE_TIMEOUT", 2*time.Minute),
			DisableKeepalive:  false,
			StrictRouting:     true,
			CaseSensitive:     true,
			EnablePrintRoutes: false,
			JSONEncoder:       jsoniter.Marshal,
			JSONDecoder:       jsoniter.Unmarshal,
		})

	return app
}
