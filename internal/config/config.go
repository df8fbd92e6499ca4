package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// ADVISOR_DATABASE_URL for database.url.
const EnvPrefix = "ADVISOR"

// Profile store kinds.
const (
	StoreFile     = "file"
	StorePostgres = "postgres"
)

// Config holds all configuration for the advisor CLI.
type Config struct {
	Catalog    CatalogConfig    `mapstructure:"catalog"`
	Profiles   ProfilesConfig   `mapstructure:"profiles"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Migrations MigrationsConfig `mapstructure:"migrations"`
	Ranking    RankingConfig    `mapstructure:"ranking"`
}

type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

type ProfilesConfig struct {
	Store string `mapstructure:"store"`
	Dir   string `mapstructure:"dir"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// RedisConfig configures the ranking cache and the recommendation stream.
// An empty URL disables both.
type RedisConfig struct {
	URL      string        `mapstructure:"url"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type MigrationsConfig struct {
	Dir string `mapstructure:"dir"`
}

type RankingConfig struct {
	Engine string `mapstructure:"engine"`
	Limit  int    `mapstructure:"limit"`
}

// Load reads configuration from defaults, an optional advisor.yaml, an
// optional .env file and ADVISOR_* environment variables, in increasing
// priority. configFile, when set, must exist.
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("advisor")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("catalog.path", "data/upgrades.yaml")

	v.SetDefault("profiles.store", StoreFile)
	v.SetDefault("profiles.dir", "data/profiles")

	v.SetDefault("database.url", "")

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.cache_ttl", "10m")

	v.SetDefault("logging.level", "warn")

	v.SetDefault("migrations.dir", "migrations")

	v.SetDefault("ranking.engine", "balanced")
	v.SetDefault("ranking.limit", 20)
}

// Validate checks combinations that Load cannot catch by type alone.
func (c *Config) Validate() error {
	switch c.Profiles.Store {
	case StoreFile:
		if c.Profiles.Dir == "" {
			return fmt.Errorf("profiles.dir is required for the %s store", StoreFile)
		}
	case StorePostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("database.url is required for the %s store (set %s_DATABASE_URL)", StorePostgres, EnvPrefix)
		}
	default:
		return fmt.Errorf("unknown profiles.store %q (want %s or %s)", c.Profiles.Store, StoreFile, StorePostgres)
	}

	if c.Catalog.Path == "" {
		return fmt.Errorf("catalog.path is required")
	}
	if c.Redis.CacheTTL <= 0 {
		return fmt.Errorf("redis.cache_ttl must be positive, got %v", c.Redis.CacheTTL)
	}
	if c.Ranking.Limit < 0 {
		return fmt.Errorf("ranking.limit cannot be negative, got %d", c.Ranking.Limit)
	}
	return nil
}

// RedisEnabled reports whether a Redis URL is configured.
func (c *Config) RedisEnabled() bool {
	return c.Redis.URL != ""
}
