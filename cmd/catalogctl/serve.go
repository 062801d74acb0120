package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/JourneyJu/dsg-sub010/server"
	"github.com/JourneyJu/dsg-sub010/sessions"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func (cli *CLI) serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog and editing-session HTTP API",
		Long: `Serve the catalog endpoints (/api/v1/sources/:source/records) backed by the
local JSON catalog, and the editing-session endpoints (/api/v1/sessions) whose
sessions load from and submit to the configured backend.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
				cli.settings.Listen = listen
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return cli.serve(ctx)
		},
	}
	cmd.Flags().String("listen", "", "listen address (default from settings)")
	return cmd
}

func (cli *CLI) serve(ctx context.Context) error {
	store, err := cli.localStore()
	if err != nil {
		return err
	}
	client, err := cli.client()
	if err != nil {
		return err
	}

	manager := sessions.NewManager(client,
		sessions.WithConfig(cli.settings.Schema()),
		sessions.WithLogger(cli.logger.Named("sessions")),
		sessions.WithTTL(cli.settings.SessionTTL),
		sessions.WithDebounce(cli.settings.Debounce))
	srv := server.New(store, manager,
		server.WithLogger(cli.logger.Named("server")),
		server.WithRequestTimeout(cli.settings.RequestTimeout),
		server.WithAllowedOrigins(cli.settings.AllowedOrigins...))

	cli.logger.Info("starting server",
		zap.String("listen", cli.settings.Listen),
		zap.String("store", store.Path()),
		zap.Duration("session_ttl", cli.settings.SessionTTL))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		manager.Run(ctx, time.Minute)
		return nil
	})
	g.Go(func() error {
		return srv.ListenAndServe(ctx, cli.settings.Listen)
	})
	if err := g.Wait(); err != nil {
		return WrapError("serve", err)
	}
	return nil
}
