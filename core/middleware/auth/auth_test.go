package auth_test

import (
	"net/http/httptest"
	"testing"

	"inventory-reconciler/core/middleware/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(key string) *fiber.App {
	app := fiber.New()
	app.Use(auth.New(auth.Config{ApiKey: key, Skip: []string{"/health"}}))
	app.Get("/health", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Get("/reports", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	return app
}

func TestAuth(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		path   string
		header string
		want   int
	}{
		{"Disabled", "", "/reports", "", fiber.StatusOK},
		{"Missing", "secret", "/reports", "", fiber.StatusUnauthorized},
		{"Wrong", "secret", "/reports", "nope", fiber.StatusUnauthorized},
		{"Valid", "secret", "/reports", "secret", fiber.StatusOK},
		{"Skipped", "secret", "/health", "", fiber.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.header != "" {
				req.Header.Set(auth.Header, tt.header)
			}
			resp, err := newApp(tt.key).Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
