package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTestConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeTestConfig(t, `
feed:
  ws_url: wss://example.invalid/feed
  rest_url: https://example.invalid/api
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Feed.ProductID != "BTC-USD" {
		t.Fatalf("ProductID = %q, want BTC-USD default", cfg.Feed.ProductID)
	}
	if cfg.Logging.MaxBackups != 100 {
		t.Fatalf("MaxBackups = %d, want 100 default", cfg.Logging.MaxBackups)
	}
	if cfg.Auth.Mode != "env" {
		t.Fatalf("Auth.Mode = %q, want env default", cfg.Auth.Mode)
	}
}

func TestValidateRequiresFeedURLs(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing feed URLs")
	}
}

func TestValidateNoneModeSkipsCredentials(t *testing.T) {
	cfg := &Config{
		Feed: FeedConfig{WSURL: "wss://x", RESTURL: "https://x"},
		Auth: AuthConfig{Mode: "none"},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateEnvModeRequiresCredentialsUnlessDryRun(t *testing.T) {
	cfg := &Config{
		Feed: FeedConfig{WSURL: "wss://x", RESTURL: "https://x"},
		Auth: AuthConfig{Mode: "env"},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing credentials in env mode")
	}

	cfg.DryRun = true
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate with DryRun: %v", err)
	}
}

func TestEnvOverridesCredentials(t *testing.T) {
	path := writeTestConfig(t, `
feed:
  ws_url: wss://example.invalid/feed
  rest_url: https://example.invalid/api
auth:
  mode: env
`)
	t.Setenv("CBMM_API_KEY", "from-env")
	t.Setenv("CBMM_API_SECRET", "from-env-secret")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Auth.APIKey != "from-env" || cfg.Auth.Secret != "from-env-secret" {
		t.Fatalf("Auth = %+v, want env overrides applied", cfg.Auth)
	}
}
