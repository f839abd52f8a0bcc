package http

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/smartinventory/backend/internal/domain"
	"github.com/smartinventory/backend/internal/service"
)

// DefaultCity is used by /weather when no city is given.
const DefaultCity = "Singapore"

// HealthChecker is anything that can report its health.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Handler contains all HTTP handlers
type Handler struct {
	recSvc   *service.RecommendationService
	wasteSvc *service.WasteService
	repo     service.HistoryRepository
	model    HealthChecker
}

// NewHandler creates a new handler. model may be nil when the loss model has no
// remote dependency to probe.
func NewHandler(recSvc *service.RecommendationService, wasteSvc *service.WasteService, repo service.HistoryRepository, model HealthChecker) *Handler {
	return &Handler{
		recSvc:   recSvc,
		wasteSvc: wasteSvc,
		repo:     repo,
		model:    model,
	}
}

// Root returns a banner
func (h *Handler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "SmartInventory backend is running",
	})
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	status := "ok"
	checks := fiber.Map{"history": "ok", "model": "ok"}
	if err := h.repo.Health(ctx); err != nil {
		status = "degraded"
		checks["history"] = err.Error()
	}
	if !h.recSvc.ModelInfo().Available {
		status = "degraded"
		checks["model"] = "unavailable"
	} else if h.model != nil {
		if err := h.model.Health(ctx); err != nil {
			status = "degraded"
			checks["model"] = err.Error()
		}
	}

	return c.JSON(fiber.Map{
		"status":  status,
		"service": "smartinventory-backend",
		"version": "1.0.0",
		"checks":  checks,
	})
}

// Recommend estimates spoilage for a single inventory item
func (h *Handler) Recommend(c *fiber.Ctx) error {
	var req service.RecommendationRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	rec, err := h.recSvc.Recommend(c.Context(), req)
	if err != nil {
		return toFiberError(err, "Failed to estimate spoilage")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    rec,
	})
}

// GetWeather returns the forecast for a city
func (h *Handler) GetWeather(c *fiber.Ctx) error {
	city := c.Query("city", DefaultCity)
	forecast := h.recSvc.Forecast(c.Context(), city)
	return c.JSON(forecast)
}

// GetHistory returns mean recorded loss per item for a city
func (h *Handler) GetHistory(c *fiber.Ctx) error {
	city := c.Query("city")
	data, err := h.recSvc.History(c.Context(), city)
	if err != nil {
		return toFiberError(err, "Failed to fetch history")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"city":    domain.Normalize(city),
		"data":    data,
		"count":   len(data),
	})
}

// DeleteHistory removes the history of one item in a city
func (h *Handler) DeleteHistory(c *fiber.Ctx) error {
	city, item := c.Query("city"), c.Query("item")
	deleted, err := h.recSvc.DeleteHistory(c.Context(), city, item)
	if err != nil {
		return toFiberError(err, "Failed to delete history")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"deleted": deleted,
	})
}

// GetGlobalWaste returns mean loss per commodity
func (h *Handler) GetGlobalWaste(c *fiber.Ctx) error {
	data, err := h.wasteSvc.GlobalWaste()
	if err != nil {
		return toFiberError(err, "Failed to compute global waste")
	}
	return c.JSON(data)
}

// GetGlobalWasteSteps returns the dataset transformation steps
func (h *Handler) GetGlobalWasteSteps(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", service.DefaultTopWasteItems)
	if limit < 1 || limit > 100 {
		limit = service.DefaultTopWasteItems
	}

	steps, err := h.wasteSvc.Steps(limit)
	if err != nil {
		return toFiberError(err, "Failed to compute global waste steps")
	}
	return c.JSON(steps)
}

// GetModelInfo describes the loss model
func (h *Handler) GetModelInfo(c *fiber.Ctx) error {
	return c.JSON(h.recSvc.ModelInfo())
}

// toFiberError maps domain errors to HTTP status codes
func toFiberError(err error, fallback string) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrModelUnavailable), errors.Is(err, domain.ErrDatasetUnavailable):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	default:
		slog.Error(fallback, "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, fallback)
	}
}

// ErrorHandler renders every error as {"error": true, "message": ...}
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
