package middleware

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/exdb-api/internal/utils"
)

// Principal is the stored state of the user behind a token.
type Principal struct {
	Role      string
	Superuser bool
	Active    bool
}

// PrincipalLookup loads the stored principal of a user. Unknown users come back
// inactive with a nil error.
type PrincipalLookup func(ctx context.Context, userID uint) (Principal, error)

// RefreshPrincipal overrides the role and superuser claims of the token with the
// stored values, so directory demotions and deactivations apply before the
// token expires.
func RefreshPrincipal(lookup PrincipalLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if lookup == nil {
			return c.Next()
		}
		userID, ok := c.Locals("user_id").(uint)
		if !ok || userID == 0 {
			return c.Next()
		}

		principal, err := lookup(c.UserContext(), userID)
		if err != nil {
			return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
		}
		if !principal.Active {
			return utils.SendError(c, fiber.StatusUnauthorized, "account is no longer active")
		}

		c.Locals("user_role", normalizeRoleValue(principal.Role))
		c.Locals("user_superuser", principal.Superuser)
		return c.Next()
	}
}
