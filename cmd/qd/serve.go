package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alfredjeanlab/quorum/internal/config"
	"github.com/alfredjeanlab/quorum/internal/events"
	"github.com/alfredjeanlab/quorum/internal/export"
	"github.com/alfredjeanlab/quorum/internal/server"
	"github.com/alfredjeanlab/quorum/internal/store/postgres"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Start the Quorum governance server",
	GroupID: "system",
	// Override PersistentPreRunE so we don't create a client connection.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

		// Load configuration.
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		// Connect to Postgres.
		store, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return err
		}

		// Create event publisher.
		var publisher events.Publisher
		if cfg.NATSURL != "" {
			pub, err := events.NewNATSPublisher(cfg.NATSURL)
			if err != nil {
				store.Close()
				return err
			}
			publisher = pub
			logger.Info("events enabled", "nats_url", cfg.NATSURL)
		} else {
			publisher = &events.NoopPublisher{}
			logger.Info("events disabled (QUORUM_NATS_URL not set)")
		}

		// Create server components.
		quorumServer := server.NewQuorumServer(store, publisher, logger)
		httpServer := &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: quorumServer.NewHTTPHandler(cfg.AuthToken),
		}

		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		// Start the compliance export scheduler if a destination is configured.
		var scheduler *export.Scheduler
		if cfg.ExportInterval > 0 && cfg.ExportS3Bucket != "" {
			s3Dest, err := export.NewS3Destination(
				context.Background(),
				cfg.ExportS3Bucket,
				cfg.ExportS3Key,
				cfg.ExportS3Region,
				cfg.ExportS3Endpoint,
			)
			if err != nil {
				logger.Error("failed to create S3 export destination", "err", err)
			} else {
				scheduler = export.NewScheduler(store, []export.Destination{s3Dest}, cfg.ExportInterval, logger)
				scheduler.Start()
				logger.Info("export scheduler started", "interval", cfg.ExportInterval, "bucket", cfg.ExportS3Bucket, "key", cfg.ExportS3Key)
			}
		}

		logger.Info("quorum server started", "http_addr", cfg.HTTPAddr)

		// Wait for SIGINT or SIGTERM.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		// Graceful shutdown.
		if scheduler != nil {
			scheduler.Stop()
			logger.Info("export scheduler stopped")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")

		if err := publisher.Close(); err != nil {
			logger.Error("error closing publisher", "err", err)
		}
		if err := store.Close(); err != nil {
			logger.Error("error closing store", "err", err)
		}

		logger.Info("shutdown complete")
		return nil
	},
}
