package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/blocks/internal/config"
	"github.com/dmitrymomot/blocks/internal/server"
	"github.com/dmitrymomot/blocks/middlewares"
	"github.com/dmitrymomot/blocks/pkg/cache"
	"github.com/dmitrymomot/blocks/pkg/logger"
	"github.com/dmitrymomot/blocks/pkg/redis"
	"github.com/dmitrymomot/blocks/pkg/request"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Long: `Runs the HTTP server until SIGINT or SIGTERM.

When REDIS_URL is set the detected URL format is cached in Redis and shared
between instances; otherwise it is cached in memory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides SERVER_ADDR")

	return cmd
}

func runServe(ctx context.Context, cfg config.Config) error {
	log := logger.New(cfg.Log, middlewares.RequestIDExtractor(), request.ModeExtractor())
	slog.SetDefault(log)

	opts := []server.Option{server.WithLogger(log)}

	if cfg.Redis.Enabled() {
		client, err := redis.Open(ctx, cfg.Redis)
		if err != nil {
			log.ErrorContext(ctx, "failed to connect to redis", slog.String("error", err.Error()))
			return err
		}
		opts = append(opts,
			server.WithFormatCache(cache.NewRedis[request.URLFormat](client, nil, cfg.Cache)),
			server.WithReadinessCheck("redis", redis.Healthcheck(client)),
			server.WithShutdownHook(redis.Shutdown(client)),
		)
		log.InfoContext(ctx, "url format cache backed by redis", slog.String("prefix", cfg.Cache.Prefix))
	}

	// Flush last so errors from earlier hooks reach Sentry.
	opts = append(opts, server.WithShutdownHook(logger.Flush))

	return server.New(cfg, opts...).Run(ctx)
}
