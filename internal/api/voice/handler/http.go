package voiceHandler

import (
	voiceService "AgriVoice/internal/api/voice/service"
	"AgriVoice/internal/middleware"
	jwtPkg "AgriVoice/pkg/jwt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

const (
	localsUserID    = "voice_user_id"
	localsRequestID = "voice_request_id"
)

type VoiceHandler struct {
	log          *logrus.Logger
	validator    *validator.Validate
	middleware   middleware.Middleware
	voiceService voiceService.IVoiceService
}

func New(
	log *logrus.Logger,
	validate *validator.Validate,
	middleware middleware.Middleware,
	vs voiceService.IVoiceService,
) *VoiceHandler {
	return &VoiceHandler{
		log:          log,
		validator:    validate,
		middleware:   middleware,
		voiceService: vs,
	}
}

func (h *VoiceHandler) Start(srv fiber.Router) {
	voice := srv.Group("/voice")

	// browsers cannot set headers on websocket or <audio> requests, so the
	// token middleware also accepts ?token=
	voice.Use(h.middleware.NewTokenMiddleware)

	voice.Post("/command", h.middleware.NewRateLimiter, h.ProcessVoiceCommand)
	voice.Use("/stream", h.upgradeStream)
	voice.Get("/stream", websocket.New(h.handleStream))
	voice.Post("/match", h.MatchText)

	voice.Get("/history", h.GetVoiceHistory)

	voice.Get("/routes", h.GetRoutes)
	voice.Post("/routes", h.middleware.NewAdminMiddleware, h.CreateRoute)
	voice.Put("/routes/:page_id", h.middleware.NewAdminMiddleware, h.UpdateRoute)

	voice.Get("/audio/:filename", h.ServeAudioFile)
}

// upgradeStream carries the caller identity across the websocket upgrade.
func (h *VoiceHandler) upgradeStream(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	customer, err := jwtPkg.GetCustomerLoginData(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	c.Locals(localsUserID, customer.ID)
	c.Locals(localsRequestID, h.middleware.GetRequestID(c))
	return c.Next()
}
