package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zeen/internal/models"
	"zeen/internal/utils"
)

const testSecret = "test-secret"

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	app := fiber.New()
	auth := NewAuthMiddleware(testSecret)
	app.Get("/protected", auth.Handler, func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/payouts", auth.Handler, HasPermission(models.PermissionPayoutsWrite), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/admin", auth.Handler, AdminOnly, func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func token(t *testing.T, role string, permissions []string, ttl time.Duration) string {
	t.Helper()
	t.Setenv("JWT_SECRET", testSecret)
	signed, err := utils.GenerateOperatorToken(&models.OperatorClaims{
		OperatorID:  1,
		Email:       "ops@example.com",
		Role:        role,
		Permissions: permissions,
	}, ttl)
	require.NoError(t, err)
	return signed
}

func doRequest(t *testing.T, app *fiber.App, path, bearer string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestAuthMiddleware(t *testing.T) {
	app := newTestApp(t)

	t.Run("missing header", func(t *testing.T) {
		resp := doRequest(t, app, "/protected", "")
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("garbage token", func(t *testing.T) {
		resp := doRequest(t, app, "/protected", "not-a-jwt")
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("valid token", func(t *testing.T) {
		resp := doRequest(t, app, "/protected", token(t, "support", nil, time.Minute))
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("expired token", func(t *testing.T) {
		signed := token(t, "support", nil, -time.Minute)
		resp := doRequest(t, app, "/protected", signed)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})
}

func TestHasPermission(t *testing.T) {
	app := newTestApp(t)

	t.Run("granted", func(t *testing.T) {
		signed := token(t, "service", []string{models.PermissionPayoutsWrite}, time.Minute)
		resp := doRequest(t, app, "/payouts", signed)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("denied", func(t *testing.T) {
		signed := token(t, "support", models.GetDefaultPermissions("support"), time.Minute)
		resp := doRequest(t, app, "/payouts", signed)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	})

	t.Run("admin bypass", func(t *testing.T) {
		signed := token(t, "admin", nil, time.Minute)
		resp := doRequest(t, app, "/payouts", signed)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})
}

func TestAdminOnly(t *testing.T) {
	app := newTestApp(t)

	resp := doRequest(t, app, "/admin", token(t, "support", nil, time.Minute))
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = doRequest(t, app, "/admin", token(t, "admin", nil, time.Minute))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
