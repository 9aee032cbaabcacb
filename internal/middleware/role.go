package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/assembleme/platform_be_assembly/internal/models"
	"github.com/assembleme/platform_be_assembly/internal/utils"
)

func RequireRoles(allowed ...string) fiber.Handler {
	allowedSet := map[string]bool{}
	for _, r := range allowed {
		allowedSet[strings.ToLower(r)] = true
	}

	return func(c *fiber.Ctx) error {
		raw := c.Locals("user")
		if raw == nil {
			return fiber.ErrUnauthorized
		}

		token, ok := raw.(*jwt.Token)
		if !ok || token == nil {
			return fiber.ErrUnauthorized
		}

		claims, ok := token.Claims.(*utils.Claims)
		if !ok {
			return fiber.ErrUnauthorized
		}

		role := strings.ToLower(strings.TrimSpace(claims.Role))
		if !allowedSet[role] {
			return fiber.NewError(fiber.StatusForbidden, "forbidden: insufficient role")
		}

		return c.Next()
	}
}

// RequireApprovedTasker gates bidding endpoints: the tasker must exist and
// carry approved = true.
func RequireApprovedTasker(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, ok := c.Locals("userId").(string)
		if !ok || uid == "" {
			return fiber.ErrUnauthorized
		}

		userUUID, err := uuid.Parse(uid)
		if err != nil {
			return fiber.ErrUnauthorized
		}

		var u models.User
		if err := db.First(&u, "id = ?", userUUID).Error; err != nil {
			return fiber.ErrUnauthorized
		}

		if u.Role != models.RoleTasker || !u.Approved {
			return fiber.NewError(fiber.StatusForbidden, "tasker account not yet approved")
		}

		return c.Next()
	}
}
