package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestRegisterAllowsConfiguredOrigin(t *testing.T) {
	app := fiber.New()
	Register(app, Config{AllowOrigins: "https://exdb.example.edu"})
	app.Get("/ping", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	preflight := httptest.NewRequest(fiber.MethodOptions, "/ping", nil)
	preflight.Header.Set(fiber.HeaderOrigin, "https://exdb.example.edu")
	preflight.Header.Set(fiber.HeaderAccessControlRequestMethod, fiber.MethodGet)
	preflight.Header.Set(fiber.HeaderAccessControlRequestHeaders, "X-Correlation-ID")

	resp, err := app.Test(preflight)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	require.Equal(t, "https://exdb.example.edu", resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))
	require.Contains(t, resp.Header.Get(fiber.HeaderAccessControlAllowHeaders), "X-Correlation-ID")

	req := httptest.NewRequest(fiber.MethodGet, "/ping", nil)
	req.Header.Set(fiber.HeaderOrigin, "https://evil.example.com")
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Empty(t, resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))
	require.NotEmpty(t, resp.Header.Get("X-Correlation-ID"))
}
