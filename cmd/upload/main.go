package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"

	"docudeep/internal/config"
	handlers "docudeep/internal/http/handler"
	"docudeep/internal/logger"
	"docudeep/internal/metrics"
	"docudeep/internal/otel"
	"docudeep/internal/repository"
	"docudeep/internal/repository/postgres"
	"docudeep/internal/server"
	"docudeep/internal/service"
)

const serviceName = "docudeep-upload"

// @title DocuDeep API
// @version 1.0
// @description Case upload and viewing services.
// @BasePath /
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	// Environment (and .env) values become the flag defaults, so flags win.
	cfg := config.Load()
	cmd := &cobra.Command{
		Use:          serviceName,
		Short:        "DocuDeep upload service",
		Long:         "Accepts case submissions, validates every document and persists the case under the storage root.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&cfg.Upload.Host, "host", cfg.Upload.Host, "Interface to bind")
	cmd.Flags().IntVar(&cfg.Upload.Port, "port", cfg.Upload.Port, "Port to listen on")
	cmd.Flags().StringVar(&cfg.StorageRoot, "storage", cfg.StorageRoot, "Storage root directory")
	return cmd
}

func run(ctx context.Context, cfg *config.AppConfig) error {
	logger.Init(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	shutdownTracing, err := otel.Init(ctx, serviceName, cfg.Location)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer shutdownTracing(context.Background())

	deps, err := server.OpenDeps(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	caseMetrics, err := metrics.NewCaseMetrics(deps.Registry)
	if err != nil {
		return fmt.Errorf("register case metrics: %w", err)
	}

	var catalog repository.CaseRepository
	if deps.Catalog != nil {
		catalog = postgres.NewCasePostgres(deps.Catalog)
	}
	svc := service.NewCaseStorage(deps.Store, catalog, caseMetrics)

	app, err := server.NewApp(serviceName, cfg, deps, fiber.MethodPost, fiber.MethodOptions)
	if err != nil {
		return err
	}
	handlers.RegisterUploadRoutes(app, svc, caseMetrics)

	slog.Info("upload service ready",
		"addr", cfg.Upload.Addr(),
		"storage_backend", cfg.StorageBackend,
		"storage_root", cfg.StorageRoot,
		"catalog", cfg.Database.Enabled(),
	)
	return server.Run(ctx, app, cfg.Upload.Addr())
}
