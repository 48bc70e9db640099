package config

import (
	"fmt"
	"strings"

	solana "github.com/gagliardetto/solana-go"

	"soldrip-go/internal/units"
)

// ValidationError reports a config field that cannot be used at startup.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Validate checks fields the scheduler treats as preconditions. Call it after ApplyDefaults.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Schedule.Destination) == "" {
		return invalid("schedule.destination", "required")
	}
	if _, err := solana.PublicKeyFromBase58(strings.TrimSpace(c.Schedule.Destination)); err != nil {
		return invalid("schedule.destination", "not a base58 address: %v", err)
	}
	if c.Schedule.Cron == "" && c.Schedule.Interval <= 0 {
		return invalid("schedule.interval", "must be positive, got %s", c.Schedule.Interval)
	}
	amount, err := units.ParseSOL(c.Schedule.AmountSOL)
	if err != nil {
		return invalid("schedule.amount_sol", "%v", err)
	}
	if amount == 0 {
		return invalid("schedule.amount_sol", "must be greater than zero")
	}
	if _, err := units.ParseSOL(c.Schedule.ReserveSOL); err != nil {
		return invalid("schedule.reserve_sol", "%v", err)
	}
	switch strings.ToLower(c.Network.Commitment) {
	case "processed", "confirmed", "finalized":
	default:
		return invalid("network.commitment", "unknown level %q", c.Network.Commitment)
	}
	if c.Paper.ExpiryProbability < 0 || c.Paper.ExpiryProbability >= 1 {
		return invalid("paper.expiry_probability", "must be in [0,1)")
	}
	if _, err := units.ParseSOL(c.Paper.StartingSOL); err != nil {
		return invalid("paper.starting_sol", "%v", err)
	}
	return nil
}

// AmountLamports returns the parsed transfer amount.
func (c *Config) AmountLamports() (uint64, error) { return units.ParseSOL(c.Schedule.AmountSOL) }

// ReserveLamports returns the parsed reserve threshold.
func (c *Config) ReserveLamports() (uint64, error) { return units.ParseSOL(c.Schedule.ReserveSOL) }
