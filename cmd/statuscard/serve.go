package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/statuscard/internal/adapters/http/api"
	"github.com/okian/statuscard/internal/adapters/http/site"
	"github.com/okian/statuscard/internal/adapters/http/swagger"
	app "github.com/okian/statuscard/internal/app"
	"github.com/okian/statuscard/internal/config"
	"github.com/okian/statuscard/pkg/logger"
)

const serveCmdName = "serve"

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeGrace        = 5 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func newServeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   serveCmdName,
		Short: "Run the HTTP server",
		Long: `Serve the card at /card and /api/card, the landing page at /, API docs at
/api-docs and Prometheus metrics at /healthz. Stops gracefully on SIGINT or
SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, c.cfg, c.log)
		},
	}
}

// newMux builds the route table for svc.
func newMux(ctx context.Context, cfg *config.Config, svc *app.Service, log logger.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	swagger.Register(ctx, mux)

	apiServer := api.NewServer(svc, svc,
		api.WithCacheMaxAge(cfg.CacheMaxAge),
		api.WithLogger(log.Named("http")),
	)
	apiServer.Register(ctx, mux)

	// Landing page catches every other path.
	site.Register(ctx, mux)
	return mux
}

func runServer(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	svc := app.New(
		app.WithConfig(cfg),
		app.WithLogger(log.Named("card")),
	)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	mode := "rest"
	if cfg.OwnerToken != "" {
		mode = "graphql"
	}
	log.Info(ctx, "statuscard configured",
		logger.String("username", cfg.Username),
		logger.Bool("tokenLoaded", cfg.OwnerToken != ""),
		logger.String("ownerMode", mode),
		logger.Int("cacheMaxAge", cfg.CacheMaxAge),
	)

	go startSystemMetricsUpdater(ctx)

	srv := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           newMux(ctx, cfg, svc, log),
		ReadTimeout:       readTimeout,
		WriteTimeout:      cfg.FetchTimeout + writeGrace,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			return err
		}
	case <-ctx.Done():
	}
	log.Info(context.Background(), "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "server shutdown failed", logger.Error(err))
		return err
	}

	log.Info(shutdownCtx, "server stopped")
	return nil
}
