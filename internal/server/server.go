package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"docudeep/internal/config"
	"docudeep/internal/database"
	"docudeep/internal/http/handler"
	"docudeep/internal/http/middleware"
	"docudeep/internal/storage"
)

// Deps are the backends a service is built on.
type Deps struct {
	Store    storage.Storage
	Catalog  *sql.DB // nil unless DB_HOST is configured
	Registry *prometheus.Registry
}

// NewStorage builds the backend selected by STORAGE_BACKEND.
func NewStorage(cfg *config.AppConfig) (storage.Storage, error) {
	switch cfg.StorageBackend {
	case config.BackendLocal, "":
		return storage.NewLocal(cfg.StorageRoot)
	case config.BackendMinIO:
		return storage.NewMinIO(cfg.MinIO)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// OpenDeps opens storage, the optional catalog and a fresh metrics registry.
func OpenDeps(ctx context.Context, cfg *config.AppConfig) (*Deps, error) {
	store, err := NewStorage(cfg)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	var catalog *sql.DB
	if cfg.Database.Enabled() {
		catalog, err = database.OpenCatalog(ctx, cfg.Database, cfg.Location)
		if err != nil {
			return nil, fmt.Errorf("open catalog: %w", err)
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return &Deps{Store: store, Catalog: catalog, Registry: reg}, nil
}

// Close releases the catalog connection pool.
func (d *Deps) Close() error {
	if d.Catalog == nil {
		return nil
	}
	return d.Catalog.Close()
}

func (d *Deps) pingers() []handler.Pinger {
	deps := []handler.Pinger{d.Store}
	if d.Catalog != nil {
		deps = append(deps, d.Catalog)
	}
	return deps
}

// NewApp creates a fiber app with the middleware chain and operational routes both services share.
// methods are the verbs CORS allows for the frontend.
func NewApp(name string, cfg *config.AppConfig, deps *Deps, methods ...string) (*fiber.App, error) {
	app := fiber.New(fiber.Config{
		AppName:               name,
		ErrorHandler:          handler.ErrorHandler(),
		BodyLimit:             cfg.BodyLimit,
		DisableStartupMessage: true,
	})

	prom, err := middleware.NewPrometheusMiddleware(deps.Registry)
	if err != nil {
		return nil, fmt.Errorf("register http metrics: %w", err)
	}

	app.Use(otelfiber.Middleware(otelfiber.WithNext(func(c *fiber.Ctx) bool {
		return c.Path() == "/metrics" || c.Path() == "/healthz"
	})))
	// RequestID runs before Logger so every access log line carries the id
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(cfg.Location))
	app.Use(prom.Handler())
	app.Use(middleware.CORS(cfg.FrontendOrigin, methods...))

	handler.RegisterCommonRoutes(app, deps.Registry, deps.pingers()...)
	return app, nil
}

// Run serves app on addr until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, app *fiber.App, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down", "addr", addr)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}
