package customerHandler

import (
	customerService "AgriVoice/internal/api/customer/service"
	"AgriVoice/internal/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type CustomerHandler struct {
	log             *logrus.Logger
	validator       *validator.Validate
	middleware      middleware.Middleware
	customerService customerService.ICustomerService
}

func New(
	log *logrus.Logger,
	validate *validator.Validate,
	middleware middleware.Middleware,
	cs customerService.ICustomerService,
) *CustomerHandler {
	return &CustomerHandler{
		log:             log,
		validator:       validate,
		middleware:      middleware,
		customerService: cs,
	}
}

func (h *CustomerHandler) Start(srv fiber.Router) {
	customers := srv.Group("/customers")
	customers.Post("/register", h.middleware.NewRateLimiter, h.HandleRegister)
	customers.Post("/login", h.middleware.NewRateLimiter, h.HandleLogin)
}
