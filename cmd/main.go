// Package main provides the CLI entrypoint for the post browser.
// It wires subcommands (serve, render, users), loads configuration, and initializes logging.
package main

import (
	"context"
	"flag"
	"io"
	"log"
	"net/http"
	"os"
	"postbrowser/internal/api/handler/pagehandler"
	"postbrowser/internal/app"
	"postbrowser/internal/config"
	"postbrowser/internal/fetcher"
	"postbrowser/pkg/logger"
	"postbrowser/pkg/metrics"
	"postbrowser/pkg/placeholder/jsonplaceholder"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// pageTitle is shown in the page head and header.
const pageTitle = "Employee Posts"

// getPage builds the upstream client, the fetcher and the page from cfg.
// Metrics are registered with reg; spans are written to the logger. The
// returned function releases the page.
func getPage(ctx context.Context, cfg *config.Config, reg prometheus.Registerer) (*app.Page, func()) {
	client, err := jsonplaceholder.New(&http.Client{Timeout: cfg.API.Timeout}, cfg.API.BaseURL)
	if err != nil {
		logger.Fatal(ctx, "could not create api client", zap.Error(err))
	}

	mp, err := metrics.NewMeterProvider(reg)
	if err != nil {
		logger.Fatal(ctx, "could not create meter provider", zap.Error(err))
	}

	tp := metrics.NewTracerProvider(logger.Get(ctx).Named("trace"))

	f, err := fetcher.New(client, fetcher.Options{MeterProvider: mp, TracerProvider: tp})
	if err != nil {
		logger.Fatal(ctx, "could not create fetcher", zap.Error(err))
	}

	page := app.New(f, app.Options{
		Title:              pageTitle,
		SelectAction:       pagehandler.SelectPath,
		ToggleAction:       pagehandler.TogglePath,
		TransientNodeDelay: cfg.Render.TransientNodeDelay,
		ConcurrentFetch:    cfg.Render.ConcurrentFetch,
		Registerer:         reg,
	})

	return page, func() {
		logger.Info(ctx, "closing page...")
		page.Close()
		if err := mp.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Warn(ctx, "could not shut down meter provider", zap.Error(err))
		}
		if err := tp.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Warn(ctx, "could not shut down tracer provider", zap.Error(err))
		}
	}
}

// main sets up the root Cobra command, loads configuration and logging, and
// registers subcommands before executing the CLI.
func main() {
	rootCmd := &cobra.Command{
		Use:   "postbrowser",
		Short: "Browse JSONPlaceholder employees, their posts and comments",
	}

	// there is no way to access flags before command execution in cobra.
	// configPath here is parsed using the standard flags package.
	// following line is just added to prevent errors when Cobra is parsing the flags.
	rootCmd.PersistentFlags().StringP("config", "c", "config.yml", "Config File Path")

	fs := flag.NewFlagSet("postbrowser", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	configPath := fs.String("c", "config.yml", "The config file path")
	_ = fs.Parse(configArgs(os.Args[1:]))

	log.Println("loading config ...")
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("could not load config file", err)
	}

	logger.Setup(cfg.Environment)

	ctx := context.Background()

	defer func() {
		if p := recover(); p != nil {
			logger.Error(ctx, "captured panic, exiting...", zap.Any("panic", p))
			logger.Sync()

			panic(p)
		}
	}()

	rootCmd.AddCommand(
		serveCommand(cfg),
		renderCommand(cfg),
		usersCommand(cfg),
	)

	err = rootCmd.Execute()
	logger.Sync()
	if err != nil {
		os.Exit(1) //nolint: gocritic
	}
}

// configArgs picks the -c/--config flag out of args so it can be read before
// cobra parses the rest.
func configArgs(args []string) []string {
	for i, a := range args {
		switch a {
		case "-c", "--config", "-config":
			if i+1 < len(args) {
				return []string{"-c", args[i+1]}
			}
		}
		for _, p := range []string{"-c=", "--config=", "-config="} {
			if v, ok := strings.CutPrefix(a, p); ok && v != "" {
				return []string{"-c", v}
			}
		}
	}

	return nil
}
