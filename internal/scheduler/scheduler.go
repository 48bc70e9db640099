// Package scheduler decides on every firing whether the sender can afford a
// transfer and hands admitted ticks to the executor, one at a time.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	solana "github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"soldrip-go/internal/execution"
	"soldrip-go/internal/metrics"
	"soldrip-go/internal/risk"
	"soldrip-go/internal/units"
)

// BalanceSource reads an account balance in lamports.
type BalanceSource interface {
	Balance(ctx context.Context, owner solana.PublicKey) (uint64, error)
}

// Transferer executes one logical transfer.
type Transferer interface {
	Execute(ctx context.Context, to solana.PublicKey, lamports uint64) (execution.Result, error)
}

// Outcome classifies how a tick ended.
type Outcome string

const (
	OutcomeTransferred  Outcome = "transferred"
	OutcomeBelowReserve Outcome = "below_reserve"
	OutcomeBalanceError Outcome = "balance_error"
	OutcomeFailed       Outcome = "failed"
	OutcomeBusy         Outcome = "busy"
	OutcomeCancelled    Outcome = "cancelled"
)

// TickReport summarizes a single tick.
type TickReport struct {
	ID        string
	Started   time.Time
	Outcome   Outcome
	Balance   uint64
	Signature solana.Signature
	Attempts  int
	Err       error
}

// Config is fixed for the scheduler's lifetime.
type Config struct {
	Owner       solana.PublicKey
	Destination solana.PublicKey
	Limits      risk.Limits
	Schedule    cron.Schedule
	// TickTimeout caps a single tick including retries; zero means no cap.
	TickTimeout time.Duration
}

// Option customizes a Scheduler.
type Option func(*Scheduler)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithReporter registers a callback invoked after every tick, skipped ones included.
func WithReporter(fn func(TickReport)) Option {
	return func(s *Scheduler) { s.report = fn }
}

// Scheduler owns one timer and runs at most one tick at a time.
type Scheduler struct {
	balances BalanceSource
	exec     Transferer
	cfg      Config
	log      zerolog.Logger
	clock    Clock
	report   func(TickReport)

	inFlight atomic.Bool
	wg       sync.WaitGroup
}

// New validates the wiring and returns a scheduler ready to Run.
func New(balances BalanceSource, exec Transferer, cfg Config, log zerolog.Logger, opts ...Option) (*Scheduler, error) {
	if balances == nil || exec == nil {
		return nil, errors.New("scheduler: balance source and executor are required")
	}
	if cfg.Schedule == nil {
		return nil, errors.New("scheduler: schedule is required")
	}
	s := &Scheduler{
		balances: balances,
		exec:     exec,
		cfg:      cfg,
		log:      log,
		clock:    SystemClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run ticks once immediately and then on every schedule firing until ctx is
// cancelled. A firing that lands while the previous tick is still running is
// skipped. Run waits for the in-flight tick before returning ctx.Err().
func (s *Scheduler) Run(ctx context.Context) error {
	required, _ := s.cfg.Limits.Required()
	s.log.Info().
		Str("owner", s.cfg.Owner.String()).
		Str("destination", s.cfg.Destination.String()).
		Str("amount_sol", units.FormatSOL(s.cfg.Limits.Amount)).
		Str("required_sol", units.FormatSOL(required)).
		Msg("scheduler started")

	s.fire(ctx)
	for {
		now := s.clock.Now()
		timer := s.clock.NewTimer(s.cfg.Schedule.Next(now).Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.wg.Wait()
			s.log.Info().Msg("scheduler stopped")
			return ctx.Err()
		case <-timer.C():
			s.fire(ctx)
		}
	}
}

func (s *Scheduler) fire(ctx context.Context) {
	id := uuid.NewString()
	if !s.inFlight.CompareAndSwap(false, true) {
		s.log.Warn().Str("tick", id).Msg("previous tick still running, skipping")
		s.finish(TickReport{ID: id, Started: s.clock.Now(), Outcome: OutcomeBusy})
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		rep := s.tick(ctx, id)
		s.inFlight.Store(false)
		s.finish(rep)
	}()
}

func (s *Scheduler) finish(rep TickReport) {
	metrics.TicksTotal.WithLabelValues(string(rep.Outcome)).Inc()
	if s.report != nil {
		s.report(rep)
	}
}

// Tick runs one admission check and, if admitted, one transfer. It does not
// take part in single-flight accounting and is meant for one-off runs.
func (s *Scheduler) Tick(ctx context.Context) TickReport {
	return s.tick(ctx, uuid.NewString())
}

func (s *Scheduler) tick(parent context.Context, id string) TickReport {
	log := s.log.With().Str("tick", id).Logger()
	rep := TickReport{ID: id, Started: s.clock.Now()}

	ctx := parent
	if s.cfg.TickTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, s.cfg.TickTimeout)
		defer cancel()
	}

	balance, err := s.balances.Balance(ctx, s.cfg.Owner)
	if err != nil {
		if parent.Err() != nil {
			rep.Outcome, rep.Err = OutcomeCancelled, parent.Err()
			return rep
		}
		rep.Outcome, rep.Err = OutcomeBalanceError, &BalanceQueryError{Err: err}
		log.Error().Err(rep.Err).Msg("balance query failed, skipping tick")
		return rep
	}
	rep.Balance = balance
	metrics.BalanceLamports.Set(float64(balance))
	log.Info().Str("balance_sol", units.FormatSOL(balance)).Msg("balance observed")

	if !s.cfg.Limits.Allow(balance) {
		rep.Outcome = OutcomeBelowReserve
		log.Info().
			Str("balance_sol", units.FormatSOL(balance)).
			Str("amount_sol", units.FormatSOL(s.cfg.Limits.Amount)).
			Str("reserve_sol", units.FormatSOL(s.cfg.Limits.Reserve)).
			Msg("balance below amount plus reserve, skipping tick")
		return rep
	}

	res, err := s.exec.Execute(ctx, s.cfg.Destination, s.cfg.Limits.Amount)
	if err != nil {
		if parent.Err() != nil {
			rep.Outcome, rep.Err = OutcomeCancelled, parent.Err()
			log.Warn().Msg("transfer interrupted by shutdown")
			return rep
		}
		rep.Outcome, rep.Err = OutcomeFailed, err
		log.Error().Err(err).Msg("transfer failed")
		return rep
	}

	rep.Outcome = OutcomeTransferred
	rep.Signature = res.Signature
	rep.Attempts = res.Attempts
	log.Info().
		Str("signature", res.Signature.String()).
		Int("attempts", res.Attempts).
		Str("amount_sol", units.FormatSOL(s.cfg.Limits.Amount)).
		Msg("transfer sent")
	return rep
}
