package middleware

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/exdb-api/internal/models"
)

func TestRefreshPrincipal(t *testing.T) {
	cases := []struct {
		name      string
		principal Principal
		err       error
		status    int
		role      string
	}{
		{"demoted", Principal{Role: models.UserRoleRequester, Active: true}, nil, fiber.StatusOK, models.UserRoleRequester},
		{"unchanged", Principal{Role: models.UserRoleHallstaff, Active: true}, nil, fiber.StatusOK, models.UserRoleHallstaff},
		{"deactivated", Principal{Role: models.UserRoleHallstaff}, nil, fiber.StatusUnauthorized, ""},
		{"lookup failure", Principal{}, errors.New("db down"), fiber.StatusInternalServerError, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var seenRole string
			var lookedUp uint
			app := fiber.New()
			app.Use(func(c *fiber.Ctx) error {
				c.Locals("user_id", uint(5))
				c.Locals("user_role", models.UserRoleHallstaff)
				return c.Next()
			})
			app.Get("/", RefreshPrincipal(func(_ context.Context, userID uint) (Principal, error) {
				lookedUp = userID
				return tc.principal, tc.err
			}), RequireRole(models.UserRoleRequester, models.UserRoleHallstaff), func(c *fiber.Ctx) error {
				seenRole, _ = c.Locals("user_role").(string)
				return c.SendStatus(fiber.StatusOK)
			})

			resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)
			require.Equal(t, uint(5), lookedUp)
			require.Equal(t, tc.role, seenRole)
		})
	}
}

func TestRefreshPrincipalSkipsAnonymous(t *testing.T) {
	called := false
	app := fiber.New()
	app.Get("/", RefreshPrincipal(func(context.Context, uint) (Principal, error) {
		called = true
		return Principal{}, nil
	}), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.False(t, called)
}
