package cli

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sbenjam1n/upgradeadvisor/internal/cache"
	"github.com/sbenjam1n/upgradeadvisor/internal/catalog"
	"github.com/sbenjam1n/upgradeadvisor/internal/config"
	"github.com/sbenjam1n/upgradeadvisor/internal/db"
	"github.com/sbenjam1n/upgradeadvisor/internal/logger"
	"github.com/sbenjam1n/upgradeadvisor/internal/profile"
	"github.com/sbenjam1n/upgradeadvisor/internal/queue"
	"github.com/sbenjam1n/upgradeadvisor/internal/recommend"
	"github.com/sbenjam1n/upgradeadvisor/internal/scoring"
)

var (
	cfg     *config.Config
	log     *zap.Logger
	closers []func()

	rootCmd = &cobra.Command{
		Use:   "advisor",
		Short: "Upgrade advisor: which permanent upgrade to buy next",
		Long: `advisor ranks the next level of every upgrade in a catalog by how much
effect it adds per unit of cost, for a saved player profile.

Typical session:
  advisor profile create "Main"
  advisor profile set-level <id> damage 12
  advisor profile set-currency <id> 125000
  advisor rank <id> --explain

Every score shown can be reproduced from the explanation printed with it.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) { teardown() },
	}
)

// Execute runs the root command.
func Execute() error {
	defer teardown()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: advisor.yaml in . or ./configs)")
	rootCmd.PersistentFlags().String("catalog", "", "catalog file, overrides catalog.path")
	rootCmd.PersistentFlags().String("log-level", "", "log level, overrides logging.level")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(rankCmd)
	rootCmd.AddCommand(explainCmd)
	rootCmd.AddCommand(enginesCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(queueCmd)
	rootCmd.AddCommand(versionCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	loaded, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if path, _ := cmd.Flags().GetString("catalog"); path != "" {
		loaded.Catalog.Path = path
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		loaded.Logging.Level = level
	}

	l, err := logger.New(loaded.Logging.Level)
	if err != nil {
		return err
	}
	cfg, log = loaded, l
	return nil
}

func teardown() {
	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}
	closers = nil
	if log != nil {
		_ = log.Sync()
	}
}

func onClose(fn func()) {
	closers = append(closers, fn)
}

// loadCatalog reads the configured catalog and logs its validation warnings.
// Validation errors stop the command: scoring assumes a clean catalog.
func loadCatalog() (*catalog.Catalog, error) {
	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return nil, err
	}
	result := catalog.Validate(cat)
	for _, w := range result.Warnings {
		log.Warn("catalog warning", zap.String("check", w.Check), zap.String("finding", w.String()))
	}
	if !result.OK() {
		return nil, fmt.Errorf("%w: %s failed validation (run 'advisor catalog validate')", catalog.ErrInvalidCatalog, cfg.Catalog.Path)
	}
	return cat, nil
}

func openStore(ctx context.Context) (profile.Store, error) {
	switch cfg.Profiles.Store {
	case config.StorePostgres:
		pool, err := db.Connect(ctx, cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("%w\nSet %s_DATABASE_URL environment variable", err, config.EnvPrefix)
		}
		onClose(pool.Close)
		return profile.NewPostgresStore(pool), nil
	default:
		return profile.NewFileStore(cfg.Profiles.Dir)
	}
}

func newManager(ctx context.Context) (*profile.Manager, error) {
	store, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	return profile.NewManager(store, log), nil
}

func connectRedis() (*redis.Client, error) {
	if !cfg.RedisEnabled() {
		return nil, fmt.Errorf("redis is not configured\nSet %s_REDIS_URL environment variable", config.EnvPrefix)
	}
	rdb, err := queue.ConnectRedis(cfg.Redis.URL)
	if err != nil {
		return nil, err
	}
	onClose(func() { rdb.Close() })
	return rdb, nil
}

// newService wires the ranking cache and event stream when Redis is
// configured. An unreachable Redis only costs the cache and events.
func newService(ctx context.Context) *recommend.Service {
	registry := scoring.DefaultRegistry()
	if !cfg.RedisEnabled() {
		return recommend.NewService(registry, log)
	}

	rdb, err := connectRedis()
	if err == nil {
		err = rdb.Ping(ctx).Err()
	}
	if err != nil {
		log.Warn("redis unavailable, ranking without cache or events", zap.Error(err))
		return recommend.NewService(registry, log)
	}
	return recommend.NewService(registry, log,
		recommend.WithCache(cache.New(rdb, cfg.Redis.CacheTTL)),
		recommend.WithEvents(queue.New(rdb)),
	)
}
