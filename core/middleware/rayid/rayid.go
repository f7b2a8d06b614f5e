// Package rayid assigns a unique request id to every incoming request.
package rayid

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Header is the response header carrying the ray id.
const Header = "X-Ray-ID"

// New creates the ray-id middleware. An inbound X-Ray-ID is honored so
// callers can correlate retries; otherwise a fresh uuid is generated.
func New() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid := c.Get(Header)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Locals("ray_id", rid)
		c.Set(Header, rid)
		return c.Next()
	}
}
