package middleware

import (
	"realty-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const userLocal = "user"

// RequireAuth ensures a session user with a valid user_id is present.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := CallerID(c); !ok {
			return response.Unauthorized(c, "Unauthorized")
		}
		return c.Next()
	}
}

// GetUser returns the session user from Locals (nil if not logged in).
func GetUser(c *fiber.Ctx) interface{} {
	return c.Locals(userLocal)
}

// CallerID returns the authenticated user's id from the session.
func CallerID(c *fiber.Ctx) (uuid.UUID, bool) {
	m, ok := GetUser(c).(map[string]interface{})
	if !ok {
		return uuid.Nil, false
	}
	s, _ := m["user_id"].(string)
	id, err := uuid.Parse(s)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}
