package report

import (
	"errors"
	"path"

	"inventory-reconciler/core/logger"
	"inventory-reconciler/core/reconcile"
	"inventory-reconciler/core/reportstore"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler exposes reports over HTTP.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers the report routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/reports")
	group.Post("/", h.HandleRun)
	group.Get("/", h.HandleList)
	group.Get("/:name", h.HandleGet)
	group.Delete("/:name", h.HandleDelete)
}

// HandleRun runs a reconciliation and returns the persisted report.
func (h *Handler) HandleRun(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)
	l.Info("Reconciliation requested")

	result, err := h.service.Run(c.UserContext())
	if err != nil {
		l.Error("Reconciliation run failed", zap.Error(err))
		return c.Status(runErrorStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"key":    result.Key,
		"name":   path.Base(result.Key),
		"report": result.Report,
	})
}

func runErrorStatus(err error) int {
	switch {
	case reconcile.IsConfigurationError(err):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, reconcile.ErrRunCancelled):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// HandleList returns the stored report names, oldest first.
func (h *Handler) HandleList(c *fiber.Ctx) error {
	keys, err := h.service.List(c.UserContext())
	if err != nil {
		logger.WithRayID(h.logger, c).Error("Failed to list reports", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, path.Base(k))
	}
	return c.JSON(fiber.Map{"reports": names})
}

// HandleGet returns one report.
func (h *Handler) HandleGet(c *fiber.Ctx) error {
	report, err := h.service.Get(c.UserContext(), c.Params("name"))
	if err != nil {
		if errors.Is(err, reportstore.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		logger.WithRayID(h.logger, c).Error("Failed to read report", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(report)
}

// HandleDelete removes one report.
func (h *Handler) HandleDelete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), c.Params("name")); err != nil {
		logger.WithRayID(h.logger, c).Error("Failed to delete report", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
