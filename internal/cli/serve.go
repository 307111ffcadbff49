package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/chitboxes/internal/server"
	"github.com/matzehuels/chitboxes/pkg/buildinfo"
	"github.com/matzehuels/chitboxes/pkg/pipeline"
)

type serveOpts struct {
	addr    string
	envFile string
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve exposes box generation over HTTP. Settings come from the environment
and an optional .env file:

  CHITBOXES_ADDR              listen address (default :8080)
  CHITBOXES_REDIS_ADDR        share the artifact cache through Redis
  CHITBOXES_REDIS_PASSWORD    Redis password
  CHITBOXES_REDIS_DB          Redis database number
  CHITBOXES_CACHE_TTL         artifact lifetime, e.g. 24h
  CHITBOXES_CACHE_SCOPE       prefix for cache keys, e.g. v2:
  CHITBOXES_MAX_UPLOAD_BYTES  request body limit

Without Redis the server uses the local file cache.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), &opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (overrides "+server.EnvAddr+")")
	cmd.Flags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file to load")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts *serveOpts) error {
	cfg, err := server.LoadConfig(opts.envFile)
	if err != nil {
		return err
	}
	if opts.addr != "" {
		cfg.Addr = opts.addr
	}
	cfg.Version = buildinfo.Version

	dir, err := cacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	store, err := server.NewCache(ctx, cfg, dir)
	if err != nil {
		return err
	}
	runner := pipeline.NewRunner(store, server.NewKeyer(cfg), c.Logger)
	defer runner.Close()

	backend := "file " + dir
	if cfg.RedisAddr != "" {
		backend = "redis " + cfg.RedisAddr
	}
	printInfo("Serving on %s", StyleHighlight.Render(cfg.Addr))
	printKeyValue("cache", backend)
	printKeyValue("ttl", cfg.CacheTTL.String())
	if cfg.CacheScope != "" {
		printKeyValue("scope", cfg.CacheScope)
	}

	return server.New(cfg, runner, c.Logger).ListenAndServe(ctx)
}
