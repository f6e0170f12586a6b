// internals/middlewares/auth/role_middleware.go
package auth

import (
	"github.com/gofiber/fiber/v2"

	"pelajarku_backend/internals/constants"
	helperAuth "pelajarku_backend/internals/helpers/auth"
)

// IsAdmin membatasi route hanya untuk role admin/owner (grup /api/a)
func IsAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !helperAuth.IsAdmin(c) {
			return fiber.NewError(fiber.StatusForbidden, constants.RoleErrorAdmin("mastery"))
		}
		return c.Next()
	}
}
