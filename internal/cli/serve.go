package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/greenroom-ai/traceviz/internal/server"
	"github.com/greenroom-ai/traceviz/pkg/cache"
	"github.com/greenroom-ai/traceviz/pkg/config"
	"github.com/greenroom-ai/traceviz/pkg/integrations/analysis"
	"github.com/greenroom-ai/traceviz/pkg/pipeline"
	"github.com/greenroom-ai/traceviz/pkg/store"
)

// newServeCmd creates the serve command that runs the HTTP API.
func newServeCmd() *cobra.Command {
	var (
		configPath string
		addr       string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the traceviz HTTP API",
		Long: `Run the traceviz HTTP API.

Configuration is read from a TOML file (see --config); every field has a
working default for local development: file cache, in-memory store, and the
analysis service on localhost. The server shuts down gracefully on SIGINT.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath, addr)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a traceviz.toml config file")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides the config file)")

	return cmd
}

func runServe(ctx context.Context, configPath, addr string) error {
	logger := loggerFromContext(ctx)

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	backend, err := newServeCache(ctx, cfg.Cache)
	if err != nil {
		return fmt.Errorf("initialize cache: %w", err)
	}
	defer backend.Close()

	st, err := newServeStore(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	if st != nil {
		defer st.Close(context.Background())
	}

	logger.Debug("configured backends",
		"cache", cfg.Cache.Backend,
		"store", cfg.Store.Backend,
		"analysis", cfg.Analysis.BaseURL)

	srv := server.New(server.Config{
		Addr:     cfg.Server.Addr,
		Runner:   pipeline.NewRunner(backend, nil, logger),
		Store:    st,
		Analysis: analysis.NewClient(cfg.Analysis.BaseURL, backend),
		Logger:   logger,
	})
	return srv.Serve(ctx)
}

// newServeCache builds the cache backend named by the config.
func newServeCache(ctx context.Context, cfg config.CacheConfig) (cache.Cache, error) {
	switch cfg.Backend {
	case config.BackendRedis:
		return cache.NewRedisCache(ctx, cache.RedisConfig{Addr: cfg.RedisAddr})
	case config.BackendFile:
		dir := cfg.Dir
		if dir == "" {
			dir = config.DefaultCacheDir()
		}
		return cache.NewFileCache(dir)
	case config.BackendNone:
		return cache.NewNullCache(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// newServeStore builds the persistence backend named by the config.
func newServeStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Backend {
	case config.BackendMongo:
		return store.NewMongoStore(ctx, store.MongoConfig{URI: cfg.URI, Database: cfg.Database})
	case config.BackendMemory:
		return store.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
