package main

import (
	"context"
	"os/signal"
	"postbrowser/internal/config"
	"postbrowser/pkg/logger"
	"strconv"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func renderCommand(cfg *config.Config) *cobra.Command {
	var userID int

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Selects an employee and prints the resulting page",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			// the page is printed once, no helper node to wait for
			local := *cfg
			local.Render.TransientNodeDelay = 0

			page, closePage := getPage(ctx, &local, prometheus.NewRegistry())
			defer closePage()

			if _, err := page.Init(ctx); err != nil {
				logger.Warn(ctx, "could not load employees", zap.Error(err))
			}

			raw := ""
			if userID > 0 {
				raw = strconv.Itoa(userID)
			}
			out, err := page.Select(ctx, raw)
			if err != nil {
				logger.Error(ctx, "could not render posts", zap.String("state", string(out.State)), zap.Error(err))
			}

			return page.Render(cmd.OutOrStdout()) //nolint: wrapcheck
		},
	}
	cmd.Flags().IntVarP(&userID, "user", "u", 0, "Employee id (defaults to the first employee)")

	return cmd
}
