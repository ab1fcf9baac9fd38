package middleware

import (
	contextPkg "AgriVoice/pkg/context"
	jwtPkg "AgriVoice/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

func (m *middleware) NewTokenMiddleware(ctx *fiber.Ctx) error {
	requestID := m.GetRequestID(ctx)

	accessToken, err := jwtPkg.BearerToken(ctx)
	if err != nil {
		m.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"path":       ctx.Path(),
			"error":      err.Error(),
		}).Warn("Authorization header check")
		return unauthorized(ctx)
	}

	claims, err := jwtPkg.Parse(accessToken, jwtPkg.AccessTokenSecretEnv)
	if err != nil {
		m.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Token verification failed")
		return unauthorized(ctx)
	}

	customer, err := jwtPkg.CustomerFromClaims(claims)
	if err != nil {
		m.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Token claims check")
		return unauthorized(ctx)
	}

	jwtPkg.SetCustomerLoginData(ctx, customer)
	ctx.SetUserContext(contextPkg.WithUserID(ctx.UserContext(), customer.ID))

	m.log.WithFields(logrus.Fields{
		"request_id":  requestID,
		"customer_id": customer.ID,
	}).Debug("Authentication successful")

	return ctx.Next()
}

func unauthorized(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": "Unauthorized, access token invalid or expired",
		"code":  "UNAUTHORIZED",
	})
}
