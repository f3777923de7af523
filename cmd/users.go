package main

import (
	"context"
	"fmt"
	"net/http"
	"postbrowser/internal/config"
	"postbrowser/internal/fetcher"
	"postbrowser/pkg/logger"
	"postbrowser/pkg/metrics"
	"postbrowser/pkg/placeholder/jsonplaceholder"

	"github.com/kr/pretty"
	"github.com/spf13/cobra"
)

func usersCommand(cfg *config.Config) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "users",
		Short: "Lists the employees offered by the select menu",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := jsonplaceholder.New(&http.Client{Timeout: cfg.API.Timeout}, cfg.API.BaseURL)
			if err != nil {
				return fmt.Errorf("could not create api client: %w", err)
			}
			ctx := context.Background()
			tp := metrics.NewTracerProvider(logger.Get(ctx).Named("trace"))
			defer func() { _ = tp.Shutdown(ctx) }()

			f, err := fetcher.New(client, fetcher.Options{TracerProvider: tp})
			if err != nil {
				return fmt.Errorf("could not create fetcher: %w", err)
			}
			defer f.Close()

			users, err := f.Begin(ctx).FetchAllUsers()
			if err != nil {
				return fmt.Errorf("could not fetch users: %w", err)
			}

			w := cmd.OutOrStdout()
			for _, u := range users {
				if verbose {
					_, _ = pretty.Fprintf(w, "%# v\n", u)

					continue
				}
				_, _ = fmt.Fprintf(w, "%d\t%s\t%s\n", u.ID, u.Name, u.Company.Name)
			}

			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print every field of each employee")

	return cmd
}
