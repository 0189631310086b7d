package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/humanorai/internal/api"
	"github.com/jon4hz/humanorai/internal/version"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the humanorai server",
	Long:  `Start the humanorai HTTP server that serves the content catalog and records votes.`,
	Example: `humanorai serve --config config.yml
humanorai serve -c /path/to/config.yml --log-level debug
`,
	Run: startServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func startServer(cmd *cobra.Command, _ []string) {
	cfg, engine, err := loadEngine()
	if err != nil {
		log.Fatal(err)
	}
	defer engine.Close() //nolint:errcheck

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if cfg.Admin != nil && cfg.Admin.Email != "" {
		created, err := engine.EnsureAdmin(ctx, cfg.Admin)
		if err != nil {
			log.Fatalf("failed to create admin user: %v", err)
		}
		if created {
			log.Info("created admin user", "email", cfg.Admin.Email)
		}
	}

	server, err := api.New(ctx, cfg, engine, log.GetLevel() == log.DebugLevel)
	if err != nil {
		log.Fatalf("failed to create API server: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting API server", "listen", cfg.Listen, "version", version.Version)
		errCh <- server.Run()
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	select {
	case <-c:
		log.Info("shutting down gracefully...")
	case err := <-errCh:
		if err != nil {
			log.Error("API server error", "error", err)
		}
		return
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shut down API server", "error", err)
	}
}
