package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Mode string

const (
	ModeLive      Mode = "live"
	ModeRehearsal Mode = "rehearsal"
)

type Config struct {
	Mode   Mode `yaml:"mode"`
	Broker struct {
		APIKey       string `yaml:"api_key"`
		AccessToken  string `yaml:"access_token"`
		RESTEndpoint string `yaml:"rest_endpoint"`
		WSEndpoint   string `yaml:"ws_endpoint"`
	} `yaml:"broker"`
	Trading struct {
		Underlying     string  `yaml:"underlying"`
		SpotInstrument string  `yaml:"spot_instrument"`
		StrikeStep     int     `yaml:"strike_step"`
		DefaultQty     int     `yaml:"default_qty"`
		CooldownMs     int     `yaml:"cooldown_ms"`
		LegPauseMs     int     `yaml:"leg_pause_ms"`
		SimSpotPrice   float64 `yaml:"sim_spot_price"`
	} `yaml:"trading"`
	Retry struct {
		MaxAttempts int `yaml:"max_attempts"`
		BackoffMs   int `yaml:"backoff_ms"`
	} `yaml:"retry"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
	Journal struct {
		Path string `yaml:"path"`
	} `yaml:"journal"`
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
}

// Load reads the yaml config, applies defaults and environment
// overrides, and validates the result. A missing file is not an error;
// env-only deployments are supported.
func Load(path string) (*Config, error) {
	var cfg Config

	f, err := os.Open(path)
	if err == nil {
		defer f.Close()
		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	applyDefaults(&cfg)
	applyEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Mode == "" {
		cfg.Mode = ModeRehearsal
	}
	if cfg.Trading.Underlying == "" {
		cfg.Trading.Underlying = "BANKNIFTY"
	}
	if cfg.Trading.SpotInstrument == "" {
		cfg.Trading.SpotInstrument = "NSE:NIFTY BANK"
	}
	if cfg.Trading.StrikeStep == 0 {
		cfg.Trading.StrikeStep = 100
	}
	if cfg.Trading.DefaultQty == 0 {
		cfg.Trading.DefaultQty = 105
	}
	if cfg.Trading.CooldownMs == 0 {
		cfg.Trading.CooldownMs = 2000
	}
	if cfg.Trading.LegPauseMs == 0 {
		cfg.Trading.LegPauseMs = 2000
	}
	if cfg.Trading.SimSpotPrice == 0 {
		cfg.Trading.SimSpotPrice = 44500
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = 3
	}
	if cfg.Retry.BackoffMs == 0 {
		cfg.Retry.BackoffMs = 1000
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Journal.Path == "" {
		cfg.Journal.Path = "bot.db"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 10000
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("KITE_API_KEY"); v != "" {
		cfg.Broker.APIKey = v
	}
	if v := os.Getenv("KITE_ACCESS_TOKEN"); v != "" {
		cfg.Broker.AccessToken = v
	}
	if v := os.Getenv("TRADE_MODE"); v != "" {
		cfg.Mode = Mode(v)
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("DEFAULT_QTY"); v != "" {
		if qty, err := strconv.Atoi(v); err == nil {
			cfg.Trading.DefaultQty = qty
		}
	}
}

func validate(cfg *Config) error {
	if cfg.Mode != ModeLive && cfg.Mode != ModeRehearsal {
		return fmt.Errorf("invalid mode: %s", cfg.Mode)
	}
	if cfg.Mode == ModeLive && (cfg.Broker.APIKey == "" || cfg.Broker.AccessToken == "") {
		return fmt.Errorf("KITE_API_KEY and KITE_ACCESS_TOKEN are required in live mode")
	}
	if cfg.Trading.DefaultQty <= 0 {
		return fmt.Errorf("default_qty must be > 0")
	}
	if cfg.Trading.StrikeStep <= 0 {
		return fmt.Errorf("strike_step must be > 0")
	}
	if cfg.Retry.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be >= 1")
	}
	if cfg.Trading.CooldownMs < 0 || cfg.Trading.LegPauseMs < 0 {
		return fmt.Errorf("cooldown_ms and leg_pause_ms must be >= 0")
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Server.Port)
	}
	return nil
}
