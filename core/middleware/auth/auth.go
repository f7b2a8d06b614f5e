// Package auth implements API key validation.
package auth

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
)

// Config holds the auth middleware settings.
type Config struct {
	// ApiKey is the expected key. Empty disables authentication.
	ApiKey string
}

// New creates the API key middleware. The key is read from the
// X-Api-Key header and compared in constant time.
func New(cfg Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.ApiKey == "" {
			return c.Next()
		}
		got := c.Get("X-Api-Key")
		if subtle.ConstantTimeCompare([]byte(got), []byte(cfg.ApiKey)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid api key",
			})
		}
		return c.Next()
	}
}
