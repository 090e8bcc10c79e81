package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/neurowallet/neurowallet/internal/identity"
)

// Authenticate verifies the bearer token and attaches the caller to the request context.
func Authenticate(verifier *identity.Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if len(authz) < len("Bearer ") || !strings.EqualFold(authz[:len("Bearer ")], "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		caller, err := verifier.Verify(strings.TrimSpace(authz[len("Bearer "):]))
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		}

		c.SetUserContext(identity.WithCaller(c.UserContext(), caller))
		return c.Next()
	}
}

// RequireAdmin rejects callers without the ADMIN role. Must run after Authenticate.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, ok := identity.FromContext(c.UserContext())
		if !ok {
			return fiber.NewError(http.StatusUnauthorized, "missing caller identity")
		}
		if !caller.IsAdmin() {
			return fiber.NewError(http.StatusForbidden, "administrator role required")
		}
		return c.Next()
	}
}
