package jwtPkg

import (
	"AgriVoice/internal/entity"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

const (
	AccessTokenSecretEnv = "JWT_ACCESS_TOKEN_SECRET"

	ClaimID          = "id"
	ClaimPhoneNumber = "phone_number"

	customerLocalsKey = "customer"
)

var (
	ErrMissingToken = errors.New("empty Authorization header")
	ErrInvalidToken = errors.New("invalid access token")
)

func Sign(data map[string]interface{}, expiredAt time.Duration, secretEnvKey string) (string, int64, error) {
	exp := time.Now().Add(expiredAt).Unix()

	secret := os.Getenv(secretEnvKey)
	if secret == "" {
		return "", 0, fmt.Errorf("%s not set", secretEnvKey)
	}

	claims := jwt.MapClaims{}
	claims["exp"] = exp
	claims["authorization"] = true

	for k, v := range data {
		claims[k] = v
	}

	to := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	accessToken, err := to.SignedString([]byte(secret))
	if err != nil {
		logrus.WithError(err).Error("Failed to sign token")
		return "", 0, err
	}

	return accessToken, exp, nil
}

// BearerToken extracts the access token from the Authorization header. A
// websocket upgrade cannot carry headers from a browser, so the token query
// parameter is accepted as a fallback.
func BearerToken(c *fiber.Ctx) (string, error) {
	header := c.Get("Authorization")
	if header == "" {
		if q := strings.TrimSpace(c.Query("token")); q != "" {
			return q, nil
		}
		return "", ErrMissingToken
	}

	if !strings.HasPrefix(header, "Bearer ") {
		return "", errors.New("invalid Authorization format")
	}

	accessToken := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if accessToken == "" {
		return "", errors.New("empty token")
	}

	return accessToken, nil
}

func Parse(accessToken string, secretEnvKey string) (jwt.MapClaims, error) {
	secret := os.Getenv(secretEnvKey)
	if secret == "" {
		return nil, errors.New("JWT secret not configured")
	}

	token, err := jwt.Parse(accessToken, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func CustomerFromClaims(claims jwt.MapClaims) (entity.CustomerLoginData, error) {
	id, _ := claims[ClaimID].(string)
	phone, _ := claims[ClaimPhoneNumber].(string)
	if id == "" || phone == "" {
		return entity.CustomerLoginData{}, fmt.Errorf("%w: missing customer claims", ErrInvalidToken)
	}

	return entity.CustomerLoginData{ID: id, PhoneNumber: phone}, nil
}

func SetCustomerLoginData(c *fiber.Ctx, customer entity.CustomerLoginData) {
	c.Locals(customerLocalsKey, customer)
}

func GetCustomerLoginData(c *fiber.Ctx) (entity.CustomerLoginData, error) {
	customer, ok := c.Locals(customerLocalsKey).(entity.CustomerLoginData)
	if !ok {
		return entity.CustomerLoginData{}, fiber.ErrUnauthorized
	}

	return customer, nil
}
