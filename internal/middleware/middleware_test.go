package middleware

import (
	jwtPkg "AgriVoice/pkg/jwt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	t.Setenv(jwtPkg.AccessTokenSecretEnv, "test-secret")
	t.Setenv("RATE_LIMIT_RPS", "1")
	t.Setenv("RATE_LIMIT_BURST", "2")
	t.Setenv(AdminTokenEnv, "admin-secret")

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	mw := New(logger)

	app := fiber.New()
	app.Use(mw.NewRequestIDMiddleware())
	app.Use(mw.NewLoggingMiddleware())
	app.Get("/me", mw.NewTokenMiddleware, func(c *fiber.Ctx) error {
		customer, err := jwtPkg.GetCustomerLoginData(c)
		if err != nil {
			return err
		}
		return c.SendString(customer.ID + " " + mw.GetRequestID(c))
	})
	app.Put("/admin", mw.NewAdminMiddleware, func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	app.Get("/limited", mw.NewRateLimiter, func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func signToken(t *testing.T, claims map[string]interface{}) string {
	t.Helper()
	token, _, err := jwtPkg.Sign(claims, time.Hour, jwtPkg.AccessTokenSecretEnv)
	require.NoError(t, err)
	return token
}

func TestTokenMiddleware(t *testing.T) {
	app := newTestApp(t)
	token := signToken(t, map[string]interface{}{
		jwtPkg.ClaimID:          "01HZXCUSTOMER",
		jwtPkg.ClaimPhoneNumber: "+6281234567890",
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(RequestIDKey, "req-1")

	resp, err := app.Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "01HZXCUSTOMER req-1", string(body))
	assert.Equal(t, "req-1", resp.Header.Get(RequestIDKey))
}

func TestTokenMiddleware_QueryToken(t *testing.T) {
	app := newTestApp(t)
	token := signToken(t, map[string]interface{}{
		jwtPkg.ClaimID:          "01HZXCUSTOMER",
		jwtPkg.ClaimPhoneNumber: "+6281234567890",
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/me?token="+token, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(RequestIDKey))
}

func TestTokenMiddleware_Rejects(t *testing.T) {
	app := newTestApp(t)
	missingPhone := signToken(t, map[string]interface{}{jwtPkg.ClaimID: "01HZXCUSTOMER"})

	cases := map[string]string{
		"no header":      "",
		"wrong scheme":   "Basic abc",
		"garbage":        "Bearer not-a-jwt",
		"missing claims": "Bearer " + missingPhone,
	}

	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestRateLimiter(t *testing.T) {
	app := newTestApp(t)

	var statuses []int
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/limited", nil))
		require.NoError(t, err)
		statuses = append(statuses, resp.StatusCode)
	}

	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, statuses)
}

func TestAdminMiddleware(t *testing.T) {
	app := newTestApp(t)

	cases := map[string]struct {
		token  string
		status int
	}{
		"missing": {"", http.StatusForbidden},
		"wrong":   {"admin-secrex", http.StatusForbidden},
		"valid":   {"admin-secret", http.StatusNoContent},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/admin", nil)
			if tc.token != "" {
				req.Header.Set(AdminTokenHeader, tc.token)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestAdminMiddleware_Unconfigured(t *testing.T) {
	t.Setenv(AdminTokenEnv, "")
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	mw := New(logger)

	app := fiber.New()
	app.Put("/admin", mw.NewAdminMiddleware, func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodPut, "/admin", nil)
	req.Header.Set(AdminTokenHeader, "")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestSanitizeRequestBody(t *testing.T) {
	out := sanitizeRequestBody([]byte(`{"phone":"0812","pin":"123456","confirm_pin":"123456"}`))
	assert.Contains(t, out, `"pin":"[SECRET]"`)
	assert.Contains(t, out, `"confirm_pin":"[SECRET]"`)
	assert.Contains(t, out, `"phone":"0812"`)

	assert.Equal(t, "[non-JSON body]", sanitizeRequestBody([]byte("audio")))
}

func TestRequestIDMiddleware_ReplacesMalformedIDs(t *testing.T) {
	app := newTestApp(t)

	for name, id := range map[string]string{
		"too long":   strings.Repeat("a", 65),
		"whitespace": "req 1",
		"slash":      "req/1",
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/admin", nil)
			req.Header.Set(RequestIDKey, id)
			resp, err := app.Test(req)
			require.NoError(t, err)

			got := resp.Header.Get(RequestIDKey)
			assert.NotEqual(t, id, got)
			assert.Len(t, got, 26)
		})
	}
}
