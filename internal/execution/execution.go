// Package execution submits native transfers and resubmits them when their blockhash expires.
package execution

import (
	"context"
	"errors"
	"fmt"
	"time"

	solana "github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	"soldrip-go/internal/metrics"
	"soldrip-go/internal/transfer"
	"soldrip-go/internal/units"
)

// Session is the ledger surface the executor and scheduler consume.
type Session interface {
	Balance(ctx context.Context, owner solana.PublicKey) (uint64, error)
	LatestBlockhash(ctx context.Context) (transfer.Blockhash, error)
	SubmitAndConfirm(ctx context.Context, req transfer.Request) (solana.Signature, error)
}

// RetryPolicy bounds expiry resubmission. Zero MaxElapsed disables the time ceiling.
type RetryPolicy struct {
	MaxAttempts int
	MaxElapsed  time.Duration
	Delay       time.Duration
}

// DefaultRetryPolicy is used for zero-valued fields.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 10, MaxElapsed: 5 * time.Minute}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultRetryPolicy.MaxAttempts
	}
	if p.MaxElapsed < 0 {
		p.MaxElapsed = 0
	}
	if p.Delay < 0 {
		p.Delay = 0
	}
	return p
}

// Result describes a confirmed transfer.
type Result struct {
	Signature solana.Signature
	Attempts  int
}

// Executor sends one logical transfer per Execute call from a fixed payer.
type Executor struct {
	session Session
	payer   solana.PrivateKey
	policy  RetryPolicy
	log     zerolog.Logger
	now     func() time.Time
}

// NewExecutor wires a session and payer key with the given retry policy.
func NewExecutor(session Session, payer solana.PrivateKey, policy RetryPolicy, log zerolog.Logger) *Executor {
	return &Executor{
		session: session,
		payer:   payer,
		policy:  policy.withDefaults(),
		log:     log,
		now:     time.Now,
	}
}

// Payer returns the sending account.
func (e *Executor) Payer() solana.PublicKey { return e.payer.PublicKey() }

// Execute moves lamports to the destination. Every attempt uses a freshly fetched
// blockhash; only ErrBlockhashExpired leads to another attempt. It returns a
// *TransferError or *RetryExhaustedError on terminal failure, or the context error
// when cancelled.
func (e *Executor) Execute(ctx context.Context, to solana.PublicKey, lamports uint64) (Result, error) {
	started := e.now()
	log := e.log.With().Str("to", to.String()).Str("amount_sol", units.FormatSOL(lamports)).Logger()

	var lastErr error
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		blockhash, err := e.session.LatestBlockhash(ctx)
		if err != nil {
			return Result{}, e.fail(ctx, attempt, fmt.Errorf("fetch blockhash: %w", err))
		}

		req := transfer.Request{Payer: e.payer, To: to, Lamports: lamports, Blockhash: blockhash}
		log.Debug().Int("attempt", attempt).Str("blockhash", blockhash.Hash.String()).Msg("submitting transfer")

		sig, err := e.session.SubmitAndConfirm(ctx, req)
		if err == nil {
			metrics.TransfersTotal.WithLabelValues("confirmed").Inc()
			log.Info().Int("attempt", attempt).Str("signature", sig.String()).Msg("transfer confirmed")
			return Result{Signature: sig, Attempts: attempt}, nil
		}
		if !transfer.IsExpired(err) {
			return Result{}, e.fail(ctx, attempt, err)
		}

		metrics.BlockhashExpiriesTotal.Inc()
		lastErr = err
		elapsed := e.now().Sub(started)
		if attempt >= e.policy.MaxAttempts || (e.policy.MaxElapsed > 0 && elapsed >= e.policy.MaxElapsed) {
			metrics.TransfersTotal.WithLabelValues("exhausted").Inc()
			return Result{}, &RetryExhaustedError{Attempts: attempt, Elapsed: elapsed, Last: lastErr}
		}
		log.Warn().Err(err).Int("attempt", attempt).Msg("blockhash expired, resubmitting")

		if e.policy.Delay > 0 {
			timer := time.NewTimer(e.policy.Delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return Result{}, ctx.Err()
			case <-timer.C:
			}
		}
	}
}

func (e *Executor) fail(ctx context.Context, attempt int, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return ctxErr
	}
	metrics.TransfersTotal.WithLabelValues("failed").Inc()
	return &TransferError{Attempts: attempt, Err: err}
}
