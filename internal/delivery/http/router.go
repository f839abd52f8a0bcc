package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes configures all HTTP routes. registry may be nil to skip /metrics.
func SetupRoutes(app *fiber.App, handler *Handler, registry *prometheus.Registry) {
	app.Get("/", handler.Root)
	app.Get("/health", handler.HealthCheck)

	if registry != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	// unversioned routes at the root, versioned ones under /api/v1
	registerAPI(app, handler)
	registerAPI(app.Group("/api/v1"), handler)
}

func registerAPI(r fiber.Router, handler *Handler) {
	r.Post("/recommend", handler.Recommend)
	r.Get("/weather", handler.GetWeather)

	r.Get("/history", handler.GetHistory)
	r.Delete("/history", handler.DeleteHistory)

	r.Get("/global_waste", handler.GetGlobalWaste)
	r.Get("/global_waste_steps", handler.GetGlobalWasteSteps)
	r.Get("/model_info", handler.GetModelInfo)
}
