package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/pipebuilder/pkg/cache"
	"github.com/matzehuels/pipebuilder/pkg/server"
)

func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr     string
		origins  []string
		redisURL string
		maxBody  int64
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the pipeline validation service",
		Long: `Run the HTTP validation service.

Endpoints:
  GET  /                   health check, answers {"ping":"pong"}
  POST /pipelines/parse    counts nodes and edges and reports whether the pipeline is a DAG
  POST /pipelines/delete   acknowledges deletions made in an editor

With --redis, validation results are shared through Redis.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := server.Config{
				Addr:           c.cfg.Server.Addr,
				AllowedOrigins: c.cfg.Server.AllowedOrigins,
				MaxBody:        maxBody,
				Logger:         c.Logger,
			}
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}
			if cmd.Flags().Changed("origin") {
				cfg.AllowedOrigins = origins
			}
			if !cmd.Flags().Changed("redis") {
				redisURL = c.cfg.Server.RedisURL
			}

			if redisURL != "" {
				rc, err := cache.NewRedisCache(cache.RedisOptions{URL: redisURL}, appName+":server:")
				if err != nil {
					return err
				}
				defer rc.Close()
				cfg.Cache = rc
				c.Logger.Info("Caching validations in Redis")
			}

			printInfo("Serving on %s", StyleValue.Render(cfg.Addr))
			printDetail("Allowed origins: %v", cfg.AllowedOrigins)
			return server.New(cfg).ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", server.DefaultAddr, "listen address")
	cmd.Flags().StringSliceVar(&origins, "origin", nil, "allowed CORS origin (repeatable)")
	cmd.Flags().StringVar(&redisURL, "redis", "", "Redis URL for the shared validation cache")
	cmd.Flags().Int64Var(&maxBody, "max-body", server.DefaultMaxBody, "maximum request body size in bytes")

	return cmd
}
