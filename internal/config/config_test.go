package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("missing config file must not be an error: %v", err)
	}

	if cfg.Mode != ModeRehearsal {
		t.Errorf("default mode must be rehearsal, got %s", cfg.Mode)
	}
	if cfg.Trading.Underlying != "BANKNIFTY" || cfg.Trading.StrikeStep != 100 {
		t.Errorf("unexpected trading defaults: %+v", cfg.Trading)
	}
	if cfg.Trading.DefaultQty != 105 {
		t.Errorf("default qty must be 105, got %d", cfg.Trading.DefaultQty)
	}
	if cfg.Server.Port != 10000 {
		t.Errorf("default port must be 10000, got %d", cfg.Server.Port)
	}
	if cfg.Retry.MaxAttempts != 3 {
		t.Errorf("default max_attempts must be 3, got %d", cfg.Retry.MaxAttempts)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	contents := `
mode: rehearsal
trading:
  default_qty: 70
  cooldown_ms: 5000
server:
  port: 9000
`
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Trading.DefaultQty != 70 || cfg.Trading.CooldownMs != 5000 || cfg.Server.Port != 9000 {
		t.Errorf("file values not applied: %+v", cfg)
	}
	// Untouched fields keep their defaults.
	if cfg.Trading.LegPauseMs != 2000 {
		t.Errorf("expected default leg_pause_ms, got %d", cfg.Trading.LegPauseMs)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("KITE_API_KEY", "env-key")
	t.Setenv("KITE_ACCESS_TOKEN", "env-token")
	t.Setenv("TRADE_MODE", "live")
	t.Setenv("PORT", "8123")
	t.Setenv("DEFAULT_QTY", "35")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Mode != ModeLive {
		t.Errorf("TRADE_MODE not applied: %s", cfg.Mode)
	}
	if cfg.Broker.APIKey != "env-key" || cfg.Broker.AccessToken != "env-token" {
		t.Errorf("credentials not applied: %+v", cfg.Broker)
	}
	if cfg.Server.Port != 8123 || cfg.Trading.DefaultQty != 35 {
		t.Errorf("numeric overrides not applied: %+v", cfg)
	}
}

func TestValidateRejectsLiveWithoutCredentials(t *testing.T) {
	t.Setenv("TRADE_MODE", "live")

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("live mode without credentials must fail validation")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []Config{}

	bad := Config{}
	applyDefaults(&bad)
	bad.Mode = "paper"
	cases = append(cases, bad)

	bad = Config{}
	applyDefaults(&bad)
	bad.Trading.DefaultQty = -1
	cases = append(cases, bad)

	bad = Config{}
	applyDefaults(&bad)
	bad.Server.Port = 70000
	cases = append(cases, bad)

	for i, cfg := range cases {
		if err := validate(&cfg); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}
