package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// RequireAdmin ensures the caller is an admin account.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		if !principal.User.IsAdmin() {
			return fiber.NewError(http.StatusForbidden, "admin role required")
		}
		return c.Next()
	}
}

// RejectUnverified blocks authenticated accounts still awaiting admin
// verification. Anonymous callers pass.
func RejectUnverified() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if ok && principal.User != nil && !principal.User.Verified {
			return fiber.NewError(http.StatusForbidden, "account awaiting verification")
		}
		return c.Next()
	}
}
