package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/apisearch-mcp/internal/walker"
)

// isolate points the home directory at an empty temp dir so no user config
// file is picked up
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestLoad_Defaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".apisearch", "symbols.db"), cfg.Database.Path)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 32, cfg.Cache.Capacity)
	assert.Equal(t, 200, cfg.Search.PageSize)
	assert.Equal(t, 10, cfg.Search.DetailConcurrency)
	assert.Equal(t, walker.DefaultExclusions(), cfg.Search.Exclusions.Rules())
	assert.Equal(t, TransportStdio, cfg.Server.Transport)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.False(t, cfg.Index.IncludeTests)
	assert.Empty(t, cfg.Index.Exclude)
	assert.Equal(t, 20, cfg.Index.BatchSize)
}

func TestLoad_ConfigFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
database:
  path: /var/lib/apisearch/api.db
cache:
  ttl: 90s
  capacity: 8
search:
  page_size: 50
  exclusions:
    operator_prefix: ""
    copy_constructors: false
server:
  transport: http
  addr: 127.0.0.1:9000
index:
  include_tests: true
  exclude:
    - "**/generated/**"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/apisearch/api.db", cfg.Database.Path)
	assert.Equal(t, 90*time.Second, cfg.Cache.TTL)
	assert.Equal(t, 8, cfg.Cache.Capacity)
	assert.Equal(t, 50, cfg.Search.PageSize)
	assert.Empty(t, cfg.Search.Exclusions.OperatorPrefix)
	assert.False(t, cfg.Search.Exclusions.CopyConstructors)
	assert.True(t, cfg.Search.Exclusions.GeneratedDefaultConstructors)
	assert.Equal(t, TransportHTTP, cfg.Server.Transport)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)

	ic := cfg.Index.IndexerConfig()
	assert.True(t, ic.IncludeTests)
	assert.Equal(t, []string{"**/generated/**"}, ic.Exclude)
}

func TestLoad_HomeConfigFile(t *testing.T) {
	home := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(home, ".apisearch.yaml"), []byte("cache:\n  capacity: 4\n"), 0644))

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Cache.Capacity)
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("APISEARCH_CACHE_CAPACITY", "64")
	t.Setenv("APISEARCH_CACHE_TTL", "1m")
	t.Setenv("APISEARCH_SERVER_TRANSPORT", "sse")
	t.Setenv("APISEARCH_LOG_LEVEL", "debug")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Cache.Capacity)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
	assert.Equal(t, TransportSSE, cfg.Server.Transport)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_FlagOverridesEnv(t *testing.T) {
	isolate(t)
	t.Setenv("APISEARCH_SERVER_ADDR", ":7000")

	v := viper.New()
	v.Set("server.addr", ":9999")

	cfg, err := Load(v, "")
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Server.Addr)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	isolate(t)

	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	isolate(t)
	t.Setenv("APISEARCH_CACHE_CAPACITY", "0")

	_, err := Load(viper.New(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache.capacity")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Database: DatabaseConfig{Path: "/tmp/api.db"},
			Cache:    CacheConfig{TTL: time.Minute, Capacity: 1},
			Search:   SearchConfig{PageSize: 1, DetailConcurrency: 1},
			Server:   ServerConfig{Transport: TransportStdio},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "empty database path", mutate: func(c *Config) { c.Database.Path = " " }, wantErr: "database.path"},
		{name: "zero ttl", mutate: func(c *Config) { c.Cache.TTL = 0 }, wantErr: "cache.ttl"},
		{name: "negative capacity", mutate: func(c *Config) { c.Cache.Capacity = -1 }, wantErr: "cache.capacity"},
		{name: "zero page size", mutate: func(c *Config) { c.Search.PageSize = 0 }, wantErr: "search.page_size"},
		{name: "zero detail concurrency", mutate: func(c *Config) { c.Search.DetailConcurrency = 0 }, wantErr: "search.detail_concurrency"},
		{name: "negative workers", mutate: func(c *Config) { c.Index.Workers = -2 }, wantErr: "index.workers"},
		{name: "unknown transport", mutate: func(c *Config) { c.Server.Transport = "grpc" }, wantErr: "server.transport"},
		{name: "unknown log level", mutate: func(c *Config) { c.Log.Level = "loud" }, wantErr: "log"},
		{name: "unknown log format", mutate: func(c *Config) { c.Log.Format = "xml" }, wantErr: "log"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestExpandHome(t *testing.T) {
	home := isolate(t)

	assert.Equal(t, filepath.Join(home, "db.sqlite"), expandHome("~/db.sqlite"))
	assert.Equal(t, home, expandHome("~"))
	assert.Equal(t, "/abs/db.sqlite", expandHome("/abs/db.sqlite"))
	assert.Equal(t, "~user/db", expandHome("~user/db"))
}
