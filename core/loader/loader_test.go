package loader_test

import (
	"errors"
	"net/http/httptest"
	"testing"

	"inventory-reconciler/core/loader"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFeature struct {
	name    string
	enabled bool
	err     error
}

func (f *fakeFeature) Name() string    { return f.name }
func (f *fakeFeature) IsEnabled() bool { return f.enabled }
func (f *fakeFeature) Load(app fiber.Router) error {
	if f.err != nil {
		return f.err
	}
	app.Get("/"+f.name, func(c *fiber.Ctx) error { return c.SendString(f.name) })
	return nil
}

func TestManager_LoadAll(t *testing.T) {
	app := fiber.New()
	mgr := loader.NewManager()
	mgr.Register(&fakeFeature{name: "reports", enabled: true})
	mgr.Register(&fakeFeature{name: "disabled", enabled: false})

	loaded, err := mgr.LoadAll(app)
	require.NoError(t, err)
	assert.Equal(t, []string{"reports"}, loaded)

	resp, err := app.Test(httptest.NewRequest("GET", "/reports", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/disabled", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestManager_LoadAllError(t *testing.T) {
	mgr := loader.NewManager()
	mgr.Register(&fakeFeature{name: "broken", enabled: true, err: errors.New("boom")})

	_, err := mgr.LoadAll(fiber.New())
	assert.ErrorContains(t, err, "broken")
}
