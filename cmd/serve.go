package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"postbrowser/internal/api"
	"postbrowser/internal/app"
	"postbrowser/internal/config"
	"postbrowser/pkg/logger"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func setupServer(ctx context.Context, cfg *config.Config, page *app.Page) func(ctx context.Context) {
	server := api.NewServer(api.Deps{
		Page:     page,
		Gatherer: prometheus.DefaultGatherer,
	}, api.NewOptions(cfg))

	go func() {
		logger.Info(ctx, "starting webserver...", zap.String("addr", cfg.HTTP.Addr))
		if err := server.ListenAndServe(); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				logger.Error(ctx, "could not start webserver", zap.Error(err))
			}
		}
	}()

	return func(ctx context.Context) {
		logger.Info(ctx, "stopping webserver...")
		if err := server.Shutdown(ctx); err != nil {
			logger.Error(ctx, "could not stop webserver", zap.Error(err))
		}
	}
}

func serveCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Loads the employee list and serves the page",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			page, closePage := getPage(ctx, cfg, prometheus.DefaultRegisterer)
			defer closePage()

			// a failed load leaves the select menu empty; the page is still served
			if _, err := page.Init(ctx); err != nil {
				logger.Error(ctx, "could not load employees", zap.Error(err))
			}

			stopWebserver := setupServer(ctx, cfg, page)

			// wait for interrupt
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GracefulShutdownTimeout)
			defer cancel()

			stopWebserver(shutdownCtx)
		},
	}

	return cmd
}
