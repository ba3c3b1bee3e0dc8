// Package config loads shelfsync settings from flags, environment variables,
// .env files and an optional YAML config file.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/shelfsync/pkg/constants"
	"github.com/agentstation/shelfsync/pkg/errors"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverPostgres = "postgres"
)

// EnvPrefix is prepended to every environment variable, e.g.
// SHELFSYNC_SHOP_DOMAIN.
const EnvPrefix = "SHELFSYNC"

// Config holds the application configuration.
type Config struct {
	// Config file actually read, empty when none
	ConfigFile string

	// Remote shop
	ShopDomain      string
	ShopAccessToken string
	ShopAPIVersion  string
	PageSize        int
	RateLimit       float64

	// Document store
	StoreDriver string
	StorePath   string
	DatabaseURL string

	// Sync behaviour
	Concurrency int
	PacingDelay time.Duration
	Timeout     time.Duration

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// Load reads configuration in order of precedence:
// 1. Environment variables (SHELFSYNC_*, plus DATABASE_URL)
// 2. .env and .env.local files
// 3. Config file (configFile, or .shelfsync.yaml in the working or home directory)
// 4. Defaults
//
// Command-line flags are applied afterwards by the caller.
func Load(configFile string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("database_url", EnvPrefix+"_DATABASE_URL", "DATABASE_URL"); err != nil {
		return nil, errors.NewConfigError("config", "binding database_url", err)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigType("yaml")
		v.SetConfigName(".shelfsync")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// an explicitly named file must exist
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, errors.NewConfigError("config", "reading config file", err)
		}
	}

	return &Config{
		ConfigFile:      v.ConfigFileUsed(),
		ShopDomain:      v.GetString("shop_domain"),
		ShopAccessToken: v.GetString("shop_access_token"),
		ShopAPIVersion:  v.GetString("shop_api_version"),
		PageSize:        v.GetInt("page_size"),
		RateLimit:       v.GetFloat64("rate_limit"),
		StoreDriver:     strings.ToLower(v.GetString("store_driver")),
		StorePath:       v.GetString("store_path"),
		DatabaseURL:     v.GetString("database_url"),
		Concurrency:     v.GetInt("concurrency"),
		PacingDelay:     v.GetDuration("pacing_delay"),
		Timeout:         v.GetDuration("timeout"),
		LogLevel:        v.GetString("log_level"),
		LogFormat:       v.GetString("log_format"),
		LogOutput:       v.GetString("log_output"),
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("shop_api_version", constants.DefaultAPIVersion)
	v.SetDefault("page_size", constants.DefaultPageSize)
	v.SetDefault("rate_limit", constants.DefaultRateLimit)
	v.SetDefault("store_driver", DriverFile)
	v.SetDefault("store_path", "./data")
	v.SetDefault("concurrency", constants.DefaultConcurrency)
	v.SetDefault("pacing_delay", constants.DefaultPacingDelay)
	v.SetDefault("timeout", time.Duration(0))
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "auto")
	v.SetDefault("log_output", "stderr")
}

// Validate checks settings needed by every sync command.
func (c *Config) Validate() error {
	if c.ShopDomain == "" {
		return errors.NewConfigError("shop", "shop_domain is required (set "+EnvPrefix+"_SHOP_DOMAIN)", nil)
	}
	if c.ShopAccessToken == "" {
		return errors.NewConfigError("shop", "shop_access_token is required (set "+EnvPrefix+"_SHOP_ACCESS_TOKEN)", nil)
	}
	if c.PageSize < 1 || c.PageSize > constants.MaxPageSize {
		return errors.NewValidationError("page_size", c.PageSize, "must be between 1 and 250")
	}
	if c.Concurrency < 1 {
		return errors.NewValidationError("concurrency", c.Concurrency, "must be at least 1")
	}
	if c.PacingDelay < 0 {
		return errors.NewValidationError("pacing_delay", c.PacingDelay, "must be non-negative")
	}
	if c.Timeout < 0 {
		return errors.NewValidationError("timeout", c.Timeout, "must be non-negative")
	}

	switch c.StoreDriver {
	case DriverMemory:
	case DriverFile:
		if c.StorePath == "" {
			return errors.NewConfigError("store", "store_path is required for the file driver", nil)
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.NewConfigError("store", "database_url is required for the postgres driver", nil)
		}
	default:
		return errors.NewValidationError("store_driver", c.StoreDriver, "must be one of: memory, file, postgres")
	}
	return nil
}

// loadEnvFiles loads environment variables from .env files. Variables that
// are already set win; .env.local is read first so it overrides .env.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}
