// Command server runs the spreadsheet editor web server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/JonMunkholm/sheetedit/internal/audit"
	"github.com/JonMunkholm/sheetedit/internal/config"
	"github.com/JonMunkholm/sheetedit/internal/core"
	"github.com/JonMunkholm/sheetedit/internal/logging"
	"github.com/JonMunkholm/sheetedit/internal/web"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var cfg *config.Config

func main() {
	rootCmd := &cobra.Command{
		Use:   "sheetedit",
		Short: "Upload, review and download spreadsheets in the browser",
		Long: `sheetedit serves a page for uploading an .xlsx workbook, reviewing its rows
with thumbnails of linked images, tagging each row and downloading the result.

Settings are read from the environment and an optional .env file.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		RunE:              serve,
	}
	rootCmd.AddCommand(newInspectCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads .env, configuration and logging for every subcommand.
func setup(cmd *cobra.Command, args []string) error {
	// Overload lets .env win over variables already set in the shell.
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	var err error
	cfg, err = config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		return err
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	return nil
}

func serve(cmd *cobra.Command, args []string) error {
	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"thumbnails_enabled", cfg.Thumbnail.Enabled,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"audit_enabled", cfg.Database.AuditEnabled(),
	)

	ctx := context.Background()

	var recorder audit.Recorder = audit.Nop{}
	if cfg.Database.AuditEnabled() {
		pool, err := audit.Connect(ctx, cfg.Database)
		if err != nil {
			slog.Error("failed to connect to audit database", "error", err)
			return err
		}
		defer pool.Close()

		pg := audit.NewPgRecorder(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			slog.Error("failed to prepare audit table", "error", err)
			return err
		}
		recorder = pg

		if u, err := url.Parse(cfg.Database.URL); err == nil {
			slog.Info("connected to audit database", "name", strings.TrimPrefix(u.Path, "/"))
		} else {
			slog.Info("connected to audit database")
		}
	}

	service := core.NewService(cfg, core.NewThumbnailFetcher(cfg.Thumbnail), recorder)
	server := web.NewServer(service, cfg)

	// Graceful shutdown
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for active uploads to complete (with timeout)
		uploadStatus := service.UploadLimiterStatus()
		if uploadStatus.Active > 0 {
			slog.Info("waiting for uploads to complete", "active", uploadStatus.Active)
			if err := service.WaitForUploads(shutdownCtx); err != nil {
				slog.Warn("uploads did not complete in time", "error", err)
			} else {
				slog.Info("all uploads completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		return err
	}
	<-stopped
	slog.Info("server stopped")
	return nil
}
