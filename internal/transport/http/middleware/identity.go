package middleware

import (
	"strings"

	"advisory-tracker/internal/transport/http/dto"

	"github.com/gofiber/fiber/v2"
)

// HeaderUserID carries the caller identity asserted by the upstream gateway.
const HeaderUserID = "X-User-ID"

const userIDKey = "user_id"

// Identity rejects requests without a caller identity and stores it for handlers.
func Identity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := strings.TrimSpace(c.Get(HeaderUserID))
		if user == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: dto.ErrorBody{
				Code:    dto.UNAUTHENTICATED,
				Message: HeaderUserID + " header is required",
			}})
		}
		c.Locals(userIDKey, user)
		return c.Next()
	}
}

// UserID returns the identity stored by Identity, or "".
func UserID(c *fiber.Ctx) string {
	user, _ := c.Locals(userIDKey).(string)
	return user
}
