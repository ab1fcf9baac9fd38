package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const (
	AdminTokenEnv    = "ADMIN_API_TOKEN"
	AdminTokenHeader = "X-Admin-Token"
)

// NewAdminMiddleware guards operations that change shared state for every
// customer. With no ADMIN_API_TOKEN configured every request is refused.
func (m *middleware) NewAdminMiddleware(ctx *fiber.Ctx) error {
	requestID := m.GetRequestID(ctx)

	given := ctx.Get(AdminTokenHeader)
	if m.adminToken == "" || subtle.ConstantTimeCompare([]byte(given), []byte(m.adminToken)) != 1 {
		m.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"path":       ctx.Path(),
			"has_token":  given != "",
		}).Warn("Admin access denied")
		return forbidden(ctx)
	}

	return ctx.Next()
}

func forbidden(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{
		"error": "Forbidden, admin access required",
		"code":  "FORBIDDEN",
	})
}
