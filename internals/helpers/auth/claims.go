// file: internals/helpers/auth/claims.go
package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"pelajarku_backend/internals/constants"
)

// GetUserIDFromLocals mengambil user_id yang sudah disimpan AuthJWT middleware.
func GetUserIDFromLocals(c *fiber.Ctx) (uuid.UUID, error) {
	raw, ok := c.Locals("user_id").(string)
	if !ok || raw == "" {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - user_id tidak ada di token")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - user_id tidak valid")
	}
	return id, nil
}

// GetRoleFromLocals mengambil role dari context (default "user").
func GetRoleFromLocals(c *fiber.Ctx) string {
	if role, ok := c.Locals("role").(string); ok && role != "" {
		return role
	}
	return constants.RoleUser
}

func IsAdmin(c *fiber.Ctx) bool {
	role := GetRoleFromLocals(c)
	for _, allowed := range constants.AdminAndAbove {
		if role == allowed {
			return true
		}
	}
	return false
}
