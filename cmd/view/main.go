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
	"docudeep/internal/otel"
	"docudeep/internal/server"
	"docudeep/internal/service"
)

const serviceName = "docudeep-view"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := config.Load()
	cmd := &cobra.Command{
		Use:          serviceName,
		Short:        "DocuDeep view service",
		Long:         "Serves stored cases and their documents read-only from the storage root.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&cfg.View.Host, "host", cfg.View.Host, "Interface to bind")
	cmd.Flags().IntVar(&cfg.View.Port, "port", cfg.View.Port, "Port to listen on")
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

	// The viewer never touches the catalog; keep it out of the health check too.
	cfg.Database = config.DatabaseConfig{}
	deps, err := server.OpenDeps(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	app, err := server.NewApp(serviceName, cfg, deps, fiber.MethodGet, fiber.MethodOptions)
	if err != nil {
		return err
	}
	handlers.RegisterViewRoutes(app, service.NewCaseViewer(deps.Store))

	slog.Info("view service ready",
		"addr", cfg.View.Addr(),
		"storage_backend", cfg.StorageBackend,
		"storage_root", cfg.StorageRoot,
	)
	return server.Run(ctx, app, cfg.View.Addr())
}
