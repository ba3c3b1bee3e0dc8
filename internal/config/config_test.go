package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/shelfsync/internal/config"
	"github.com/agentstation/shelfsync/pkg/errors"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "2024-10", cfg.ShopAPIVersion)
	assert.Equal(t, 50, cfg.PageSize)
	assert.Equal(t, 25, cfg.Concurrency)
	assert.Equal(t, 50*time.Millisecond, cfg.PacingDelay)
	assert.Equal(t, config.DriverFile, cfg.StoreDriver)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.ConfigFile)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("HOME", t.TempDir())

	file := filepath.Join(dir, "shelfsync.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
shop_domain: file.myshopify.com
concurrency: 10
pacing_delay: 100ms
store_driver: Postgres
`), 0o644))

	t.Setenv("SHELFSYNC_CONCURRENCY", "4")
	t.Setenv("DATABASE_URL", "postgres://localhost/shelfsync")

	cfg, err := config.Load(file)
	require.NoError(t, err)

	assert.Equal(t, file, cfg.ConfigFile)
	assert.Equal(t, "file.myshopify.com", cfg.ShopDomain)
	assert.Equal(t, 4, cfg.Concurrency, "environment overrides file")
	assert.Equal(t, 100*time.Millisecond, cfg.PacingDelay)
	assert.Equal(t, config.DriverPostgres, cfg.StoreDriver)
	assert.Equal(t, "postgres://localhost/shelfsync", cfg.DatabaseURL)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("HOME", t.TempDir())

	// registered so t.Setenv restores the environment after godotenv sets it
	t.Setenv("SHELFSYNC_SHOP_ACCESS_TOKEN", "")
	require.NoError(t, os.Unsetenv("SHELFSYNC_SHOP_ACCESS_TOKEN"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SHELFSYNC_SHOP_ACCESS_TOKEN=shpat_env\n"), 0o644))

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "shpat_env", cfg.ShopAccessToken)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	var cfgErr *errors.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestValidate(t *testing.T) {
	valid := func() *config.Config {
		return &config.Config{
			ShopDomain:      "example.myshopify.com",
			ShopAccessToken: "shpat_123",
			PageSize:        50,
			Concurrency:     25,
			StoreDriver:     config.DriverMemory,
		}
	}

	tests := []struct {
		name   string
		mutate func(*config.Config)
		ok     bool
	}{
		{name: "valid", mutate: func(*config.Config) {}, ok: true},
		{name: "missing domain", mutate: func(c *config.Config) { c.ShopDomain = "" }},
		{name: "missing token", mutate: func(c *config.Config) { c.ShopAccessToken = "" }},
		{name: "page size too large", mutate: func(c *config.Config) { c.PageSize = 251 }},
		{name: "zero concurrency", mutate: func(c *config.Config) { c.Concurrency = 0 }},
		{name: "negative pacing", mutate: func(c *config.Config) { c.PacingDelay = -time.Second }},
		{name: "unknown driver", mutate: func(c *config.Config) { c.StoreDriver = "mongo" }},
		{name: "file without path", mutate: func(c *config.Config) { c.StoreDriver = config.DriverFile }},
		{name: "postgres without url", mutate: func(c *config.Config) { c.StoreDriver = config.DriverPostgres }},
		{name: "file with path", mutate: func(c *config.Config) {
			c.StoreDriver = config.DriverFile
			c.StorePath = "./data"
		}, ok: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
