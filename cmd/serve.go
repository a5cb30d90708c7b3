package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"inventory-reconciler/core/loader"
	"inventory-reconciler/core/logger"
	"inventory-reconciler/core/middleware/auth"
	"inventory-reconciler/core/middleware/rayid"
	"inventory-reconciler/feature/report"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the reconciliation HTTP server",
	Long: `Starts the HTTP server exposing /health, /metrics and the /reports API.
POST /reports triggers a run; concurrent triggers join the run in progress.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(true, nil)
		if err != nil {
			return err
		}
		defer a.close()
		zap.ReplaceGlobals(a.log)

		app := newServer(a)

		go func() {
			a.log.Info("Starting server", zap.String("address", a.cfg.Server.Address()))
			if err := app.Listen(a.cfg.Server.Address()); err != nil {
				a.log.Error("Server stopped", zap.Error(err))
			}
		}()

		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		a.log.Info("Shutting down server...")
		return app.ShutdownWithTimeout(a.cfg.Server.ShutdownTimeout())
	},
}

func init() {
	RootCmd.AddCommand(serveCmd)
}

// newServer wires middleware and features onto a fiber app.
func newServer(a *app) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	// RayID first so every later log line carries it.
	app.Use(rayid.New())

	app.Use(func(c *fiber.Ctx) error {
		l := logger.WithRayID(a.log, c)
		l.Debug("Request started",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("ip", c.IP()),
		)
		err := c.Next()
		if err != nil {
			l.Error("Request error", zap.Error(err))
		}
		return err
	})

	app.Use(auth.New(auth.Config{
		ApiKey: a.cfg.Server.ApiKey,
		Skip:   []string{"/health", "/metrics"},
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(a.metrics.Gatherer(), promhttp.HandlerOpts{})))

	mgr := loader.NewManager()
	mgr.Register(report.NewFeature(a.service, a.log))

	loaded, err := mgr.LoadAll(app)
	if err != nil {
		a.log.Error("Failed to load features", zap.Error(err))
	}
	a.log.Info("Features loaded", zap.Strings("features", loaded))
	return app
}
