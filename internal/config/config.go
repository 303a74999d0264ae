// Package config defines all configuration for the quote manager. Config is
// loaded from a YAML file (default: configs/config.yaml) with sensitive
// fields overridable via CBMM_* environment variables.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config is the top-level configuration. Maps directly to the YAML file structure.
type Config struct {
	DryRun  bool          `mapstructure:"dry_run"`
	Feed    FeedConfig    `mapstructure:"feed"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// FeedConfig holds the exchange endpoints the synchronizer talks to.
type FeedConfig struct {
	WSURL      string `mapstructure:"ws_url"`
	RESTURL    string `mapstructure:"rest_url"`
	ProductID  string `mapstructure:"product_id"`
}

// AuthConfig selects how outgoing REST requests get signed.
//
//   - Mode "none": NullSigner, requests carry no auth headers and no
//     credentials are required; whether orders are actually sent still
//     follows DryRun.
//   - Mode "env": EnvSigner, credentials read from CBMM_API_KEY,
//     CBMM_API_SECRET, CBMM_API_PASSPHRASE.
type AuthConfig struct {
	Mode       string `mapstructure:"mode"`
	APIKey     string `mapstructure:"api_key"`
	Secret     string `mapstructure:"secret"`
	Passphrase string `mapstructure:"passphrase"`
}

// LoggingConfig controls the rotating CSV event log.
type LoggingConfig struct {
	Dir         string `mapstructure:"dir"`
	MaxSizeMB   int    `mapstructure:"max_size_mb"`
	MaxBackups  int    `mapstructure:"max_backups"`
}

// Load reads config from a YAML file with env var overrides.
// Sensitive fields use env vars: CBMM_API_KEY, CBMM_API_SECRET, CBMM_API_PASSPHRASE.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("CBMM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("feed.product_id", "BTC-USD")
	v.SetDefault("logging.dir", "logs")
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 100)
	v.SetDefault("auth.mode", "env")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if key := os.Getenv("CBMM_API_KEY"); key != "" {
		cfg.Auth.APIKey = key
	}
	if secret := os.Getenv("CBMM_API_SECRET"); secret != "" {
		cfg.Auth.Secret = secret
	}
	if pass := os.Getenv("CBMM_API_PASSPHRASE"); pass != "" {
		cfg.Auth.Passphrase = pass
	}
	if os.Getenv("CBMM_DRY_RUN") == "true" || os.Getenv("CBMM_DRY_RUN") == "1" {
		cfg.DryRun = true
	}

	return &cfg, nil
}

// Validate checks all required fields.
func (c *Config) Validate() error {
	if c.Feed.WSURL == "" {
		return fmt.Errorf("feed.ws_url is required")
	}
	if c.Feed.RESTURL == "" {
		return fmt.Errorf("feed.rest_url is required")
	}
	switch c.Auth.Mode {
	case "none":
	case "env":
		if !c.DryRun && (c.Auth.APIKey == "" || c.Auth.Secret == "") {
			return fmt.Errorf("auth.api_key and auth.secret are required when auth.mode is env and dry_run is false")
		}
	default:
		return fmt.Errorf("auth.mode must be one of: none, env")
	}
	return nil
}
