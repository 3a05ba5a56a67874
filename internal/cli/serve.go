package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	ginserver "elaview/internal/infra/http/gin"
	"elaview/internal/infra/obs"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and the outbox relay",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			app, err := buildApplication(ctx, cfg, logger, nil)
			if err != nil {
				return err
			}
			if cfg.FixturesPath != "" {
				if err := loadFixtures(ctx, app.store.factory, cfg.FixturesPath, logger); err != nil {
					logger.Warn("fixtures load failed", "error", err, "path", cfg.FixturesPath)
				}
			}

			server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, app.health, app.handlers)
			app.runBackground(ctx)

			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					logger.Error("http shutdown failed", "error", err)
				}
			}()

			logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageDriver)
			serveErr := server.ListenAndServe()
			if errors.Is(serveErr, http.ErrServerClosed) {
				serveErr = nil
			}

			closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := app.close(closeCtx); err != nil {
				logger.Error("backend shutdown failed", "error", err)
			}
			logger.Info("HTTP server stopped")
			return serveErr
		},
	}
}
