package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/helpdesk-triage/pkg/util/errorutil"
)

// RequireAdmin ensures the caller holds the admin role.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil {
			return apperrors.NewUnauthenticated("authentication required")
		}
		if !user.IsAdmin() {
			return apperrors.NewUnauthorized("admin role required")
		}
		return c.Next()
	}
}

// RequireAuthenticated ensures some user is authenticated.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if CurrentUser(c) == nil {
			return apperrors.NewUnauthenticated("authentication required")
		}
		return c.Next()
	}
}
