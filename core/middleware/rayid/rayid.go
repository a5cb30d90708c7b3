package rayid

import (
	"inventory-reconciler/core/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Header carries the ray ID on requests and responses.
const Header = "X-Ray-ID"

// New returns a middleware that assigns every request a ray ID. An ID sent
// by the caller is kept.
func New() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(Header)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Locals(logger.RayIDKey, id)
		c.Set(Header, id)
		return c.Next()
	}
}
