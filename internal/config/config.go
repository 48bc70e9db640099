// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// App captures process-wide runtime settings such as name, environment, metrics, and logging.
type App struct {
	Name        string `yaml:"name"`
	Env         string `yaml:"env"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"` // json|console
}

// Schedule fixes what is sent, where, and how often.
type Schedule struct {
	Destination string        `yaml:"destination"`
	Interval    time.Duration `yaml:"interval"`
	Cron        string        `yaml:"cron"` // optional; overrides interval
	AmountSOL   string        `yaml:"amount_sol"`
	ReserveSOL  string        `yaml:"reserve_sol"`
	TickTimeout time.Duration `yaml:"tick_timeout"`
}

// Retry bounds blockhash-expiry resubmission.
type Retry struct {
	MaxAttempts int           `yaml:"max_attempts"`
	MaxElapsed  time.Duration `yaml:"max_elapsed"`
	Delay       time.Duration `yaml:"delay"`
}

// Paper configures the in-memory ledger used for dry runs.
type Paper struct {
	Enabled           bool    `yaml:"enabled"`
	StartingSOL       string  `yaml:"starting_sol"`
	FeeLamports       uint64  `yaml:"fee_lamports"`
	ExpiryProbability float64 `yaml:"expiry_probability"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App      App      `yaml:"app"`
	Network  Network  `yaml:"network"`
	Wallet   Wallet   `yaml:"wallet"`
	Schedule Schedule `yaml:"schedule"`
	Retry    Retry    `yaml:"retry"`
	Paper    Paper    `yaml:"paper"`
}

// Default returns a config with every optional field filled in.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero-valued optional fields.
func (c *Config) ApplyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "soldrip"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.LogFormat == "" {
		c.App.LogFormat = "console"
	}
	if c.Network.RPCURL == "" {
		c.Network.RPCURL = DefaultRPCURL
	}
	if c.Network.Commitment == "" {
		c.Network.Commitment = "confirmed"
	}
	if c.Network.RequestsPerSecond <= 0 {
		c.Network.RequestsPerSecond = 5
	}
	if c.Network.Burst <= 0 {
		c.Network.Burst = 10
	}
	if c.Network.BreakerFailures == 0 {
		c.Network.BreakerFailures = 5
	}
	if c.Network.ConfirmPoll <= 0 {
		c.Network.ConfirmPoll = 500 * time.Millisecond
	}
	if c.Network.ConfirmTimeout <= 0 {
		c.Network.ConfirmTimeout = 2 * time.Minute
	}
	if c.Schedule.Interval == 0 && c.Schedule.Cron == "" {
		c.Schedule.Interval = time.Hour
	}
	if c.Schedule.AmountSOL == "" {
		c.Schedule.AmountSOL = DefaultAmountSOL
	}
	if c.Schedule.ReserveSOL == "" {
		c.Schedule.ReserveSOL = DefaultReserveSOL
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = 10
	}
	if c.Retry.MaxElapsed <= 0 {
		c.Retry.MaxElapsed = 5 * time.Minute
	}
	if c.Paper.StartingSOL == "" {
		c.Paper.StartingSOL = "1"
	}
}

// Load reads a YAML file from disk, applies defaults, and validates the result.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
