package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"docudeep/docs"
	"docudeep/internal/metrics"
	"docudeep/internal/service"
)

// RegisterCommonRoutes attaches the operational endpoints both services expose.
func RegisterCommonRoutes(app *fiber.App, gatherer prometheus.Gatherer, deps ...Pinger) {
	app.Get("/health", HealthCheck(deps...))
	app.Get("/healthz", Liveness())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})
}

// RegisterUploadRoutes attaches the write-side endpoints.
func RegisterUploadRoutes(app *fiber.App, svc service.CaseStorage, m *metrics.CaseMetrics) {
	app.Post("/cases", CreateCase(svc, m))
	app.Post("/cases/reset", ResetStorage(svc))
}

// RegisterViewRoutes attaches the read-side endpoints.
func RegisterViewRoutes(app *fiber.App, svc service.CaseViewer) {
	app.Get("/", ListCases(svc))
	app.Get("/cases", ListCases(svc))
	app.Get("/cases/:caseId", GetCase(svc))
	app.Get("/cases/:caseId/documents/:documentId", GetDocument(svc))
}
