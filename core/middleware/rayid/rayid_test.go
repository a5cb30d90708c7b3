package rayid_test

import (
	"net/http/httptest"
	"testing"

	"inventory-reconciler/core/logger"
	"inventory-reconciler/core/middleware/rayid"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRayID(t *testing.T) {
	app := fiber.New()
	app.Use(rayid.New())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals(logger.RayIDKey).(string))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	_, err = uuid.Parse(resp.Header.Get(rayid.Header))
	assert.NoError(t, err)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(rayid.Header, "given-id")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "given-id", resp.Header.Get(rayid.Header))
}
