// Package config loads the server, search, cache and indexing settings from
// flags, APISEARCH_* environment variables, a .apisearch.yaml file and
// defaults, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/dshills/apisearch-mcp/internal/indexer"
	"github.com/dshills/apisearch-mcp/internal/logging"
	"github.com/dshills/apisearch-mcp/internal/walker"
)

const (
	// EnvPrefix prefixes environment overrides, e.g. APISEARCH_CACHE_TTL
	EnvPrefix = "APISEARCH"
	// FileName is the config file searched in the home and working directories
	FileName = ".apisearch"
)

// Transports accepted by server.transport
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
	TransportHTTP  = "http"
)

// Config holds all configuration for the application
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Search   SearchConfig   `mapstructure:"search"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      logging.Config `mapstructure:"log"`
	Index    IndexConfig    `mapstructure:"index"`
}

// DatabaseConfig locates the SQLite symbol store
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// CacheConfig sizes the search result cache
type CacheConfig struct {
	TTL      time.Duration `mapstructure:"ttl"`
	Capacity int           `mapstructure:"capacity"`
}

// SearchConfig holds paging and detail fetching settings
type SearchConfig struct {
	PageSize          int              `mapstructure:"page_size"`
	DetailConcurrency int              `mapstructure:"detail_concurrency"`
	Exclusions        ExclusionsConfig `mapstructure:"exclusions"`
}

// ExclusionsConfig switches the member exclusion rules of the walker
type ExclusionsConfig struct {
	GeneratedDefaultConstructors bool   `mapstructure:"generated_default_constructors"`
	CopyConstructors             bool   `mapstructure:"copy_constructors"`
	OperatorPrefix               string `mapstructure:"operator_prefix"`
	MixinsOnOwner                bool   `mapstructure:"mixins_on_owner"`
}

// Rules converts the settings into walker exclusions
func (e ExclusionsConfig) Rules() walker.Exclusions {
	return walker.Exclusions{
		SkipGeneratedDefaultConstructors: e.GeneratedDefaultConstructors,
		SkipCopyConstructors:             e.CopyConstructors,
		OperatorPrefix:                   e.OperatorPrefix,
		SkipMixinsOnOwner:                e.MixinsOnOwner,
	}
}

// ServerConfig selects the MCP transport
type ServerConfig struct {
	Transport string `mapstructure:"transport"`
	Addr      string `mapstructure:"addr"`
}

// IndexConfig holds indexing defaults
type IndexConfig struct {
	IncludeTests  bool     `mapstructure:"include_tests"`
	IncludeVendor bool     `mapstructure:"include_vendor"`
	Exclude       []string `mapstructure:"exclude"`
	Workers       int      `mapstructure:"workers"`
	BatchSize     int      `mapstructure:"batch_size"`
}

// IndexerConfig converts the settings into an indexer configuration
func (c IndexConfig) IndexerConfig() *indexer.Config {
	return &indexer.Config{
		Workers:       c.Workers,
		BatchSize:     c.BatchSize,
		IncludeTests:  c.IncludeTests,
		IncludeVendor: c.IncludeVendor,
		Exclude:       append([]string(nil), c.Exclude...),
	}
}

// SetDefaults sets default configuration values
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", "~/.apisearch/symbols.db")

	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("cache.capacity", 32)

	v.SetDefault("search.page_size", 200)
	v.SetDefault("search.detail_concurrency", 10)
	rules := walker.DefaultExclusions()
	v.SetDefault("search.exclusions.generated_default_constructors", rules.SkipGeneratedDefaultConstructors)
	v.SetDefault("search.exclusions.copy_constructors", rules.SkipCopyConstructors)
	v.SetDefault("search.exclusions.operator_prefix", rules.OperatorPrefix)
	v.SetDefault("search.exclusions.mixins_on_owner", rules.SkipMixinsOnOwner)

	v.SetDefault("server.transport", TransportStdio)
	v.SetDefault("server.addr", ":8080")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("index.include_tests", false)
	v.SetDefault("index.include_vendor", false)
	v.SetDefault("index.exclude", []string{})
	v.SetDefault("index.workers", 0)
	v.SetDefault("index.batch_size", 20)
}

// Load reads configuration into a Config. cfgFile, when set, must exist;
// otherwise .apisearch.yaml is looked up in the home and working
// directories and may be absent. Flags bound to v take precedence.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(FileName)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.Database.Path = expandHome(cfg.Database.Path)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Database.Path) == "" {
		errs = append(errs, errors.New("database.path must not be empty"))
	}
	if c.Cache.TTL <= 0 {
		errs = append(errs, fmt.Errorf("cache.ttl must be positive, got %s", c.Cache.TTL))
	}
	if c.Cache.Capacity <= 0 {
		errs = append(errs, fmt.Errorf("cache.capacity must be positive, got %d", c.Cache.Capacity))
	}
	if c.Search.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("search.page_size must be positive, got %d", c.Search.PageSize))
	}
	if c.Search.DetailConcurrency <= 0 {
		errs = append(errs, fmt.Errorf("search.detail_concurrency must be positive, got %d", c.Search.DetailConcurrency))
	}
	if c.Index.Workers < 0 {
		errs = append(errs, fmt.Errorf("index.workers must not be negative, got %d", c.Index.Workers))
	}
	switch c.Server.Transport {
	case TransportStdio, TransportSSE, TransportHTTP:
	default:
		errs = append(errs, fmt.Errorf("server.transport must be one of stdio, sse, http, got %q", c.Server.Transport))
	}
	if _, err := logging.New(c.Log, os.Stderr); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}
	return errors.Join(errs...)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
