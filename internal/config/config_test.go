package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	path := filepath.Join("testdata", "config.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.App.Name != "soldrip-test" {
		t.Fatalf("unexpected App.Name: %s", cfg.App.Name)
	}
	if cfg.App.LogFormat != "json" {
		t.Fatalf("unexpected App.LogFormat: %s", cfg.App.LogFormat)
	}
	if cfg.Network.RPCURL != "https://api.devnet.solana.com" {
		t.Fatalf("unexpected Network.RPCURL: %s", cfg.Network.RPCURL)
	}
	if cfg.Network.Commitment != "finalized" {
		t.Fatalf("expected finalized commitment, got %s", cfg.Network.Commitment)
	}
	if cfg.Network.RequestsPerSecond != 2.5 || cfg.Network.Burst != 4 {
		t.Fatalf("unexpected rate limit: %.1f/%d", cfg.Network.RequestsPerSecond, cfg.Network.Burst)
	}
	if cfg.Network.BreakerFailures != 3 {
		t.Fatalf("unexpected breaker failures: %d", cfg.Network.BreakerFailures)
	}
	if cfg.Network.ConfirmPoll != 750*time.Millisecond {
		t.Fatalf("unexpected confirm poll: %s", cfg.Network.ConfirmPoll)
	}
	if cfg.Network.ConfirmTimeout != 90*time.Second {
		t.Fatalf("unexpected confirm timeout: %s", cfg.Network.ConfirmTimeout)
	}
	if cfg.Schedule.Destination != "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin" {
		t.Fatalf("unexpected destination: %s", cfg.Schedule.Destination)
	}
	if cfg.Schedule.Interval != 45*time.Minute {
		t.Fatalf("unexpected interval: %s", cfg.Schedule.Interval)
	}
	if cfg.Schedule.TickTimeout != 3*time.Minute {
		t.Fatalf("unexpected tick timeout: %s", cfg.Schedule.TickTimeout)
	}
	amount, err := cfg.AmountLamports()
	if err != nil || amount != 100_000 {
		t.Fatalf("expected 100000 lamports, got %d (%v)", amount, err)
	}
	reserve, err := cfg.ReserveLamports()
	if err != nil || reserve != 20_000 {
		t.Fatalf("expected 20000 lamports reserve, got %d (%v)", reserve, err)
	}
	if cfg.Retry.MaxAttempts != 6 || cfg.Retry.MaxElapsed != 4*time.Minute || cfg.Retry.Delay != 250*time.Millisecond {
		t.Fatalf("unexpected retry settings: %+v", cfg.Retry)
	}
	if !cfg.Paper.Enabled || cfg.Paper.StartingSOL != "0.5" || cfg.Paper.ExpiryProbability != 0.25 {
		t.Fatalf("unexpected paper settings: %+v", cfg.Paper)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "schedule:\n  destination: 9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Schedule.Interval != time.Hour {
		t.Fatalf("expected 1h default interval, got %s", cfg.Schedule.Interval)
	}
	if cfg.Schedule.AmountSOL != DefaultAmountSOL || cfg.Schedule.ReserveSOL != DefaultReserveSOL {
		t.Fatalf("unexpected default amounts: %s / %s", cfg.Schedule.AmountSOL, cfg.Schedule.ReserveSOL)
	}
	if cfg.Network.RPCURL != DefaultRPCURL || cfg.Network.Commitment != "confirmed" {
		t.Fatalf("unexpected network defaults: %+v", cfg.Network)
	}
	if cfg.Retry.MaxAttempts != 10 || cfg.Retry.MaxElapsed != 5*time.Minute {
		t.Fatalf("unexpected retry defaults: %+v", cfg.Retry)
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]struct {
		mutate func(*Config)
		field  string
	}{
		"missing destination": {func(c *Config) { c.Schedule.Destination = "" }, "schedule.destination"},
		"bad destination":     {func(c *Config) { c.Schedule.Destination = "not-an-address" }, "schedule.destination"},
		"negative interval":   {func(c *Config) { c.Schedule.Interval = -time.Second }, "schedule.interval"},
		"zero amount":         {func(c *Config) { c.Schedule.AmountSOL = "0" }, "schedule.amount_sol"},
		"bad amount":          {func(c *Config) { c.Schedule.AmountSOL = "lots" }, "schedule.amount_sol"},
		"bad reserve":         {func(c *Config) { c.Schedule.ReserveSOL = "-1" }, "schedule.reserve_sol"},
		"bad commitment":      {func(c *Config) { c.Network.Commitment = "eventually" }, "network.commitment"},
		"bad probability":     {func(c *Config) { c.Paper.ExpiryProbability = 1 }, "paper.expiry_probability"},
	}
	for name, tc := range cases {
		cfg := Default()
		cfg.Schedule.Destination = "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"
		tc.mutate(cfg)

		err := cfg.Validate()
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("%s: expected ValidationError, got %v", name, err)
		}
		if verr.Field != tc.field {
			t.Fatalf("%s: expected field %s, got %s", name, tc.field, verr.Field)
		}
	}
}

func TestValidateCronWithoutInterval(t *testing.T) {
	cfg := &Config{Schedule: Schedule{Destination: "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin", Cron: "@hourly"}}
	cfg.ApplyDefaults()
	if cfg.Schedule.Interval != 0 {
		t.Fatalf("cron schedules should not get a default interval")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Schedule.Destination = "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"
	cfg.Schedule.Interval = 90 * time.Second

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load after Save returned error: %v", err)
	}
	if loaded.Schedule.Interval != 90*time.Second {
		t.Fatalf("interval did not survive round trip: %s", loaded.Schedule.Interval)
	}
	if loaded.Wallet.PrivateKeyBase58 != "" {
		t.Fatalf("expected no key material written")
	}
	if err := Save(path, nil); err == nil {
		t.Fatalf("expected error saving nil config")
	}
}
