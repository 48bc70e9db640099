// Package solana talks to a Solana JSON-RPC endpoint on behalf of the executor.
package solana

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	solana "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"soldrip-go/internal/transfer"
)

// Options configures a Session. Zero values take the defaults below.
type Options struct {
	RPCURL            string
	Commitment        string
	RequestsPerSecond float64
	Burst             int
	BreakerFailures   uint32
	ConfirmPoll       time.Duration
	ConfirmTimeout    time.Duration
}

const (
	defaultRequestsPerSecond = 5
	defaultBurst             = 10
	defaultBreakerFailures   = 5
	defaultConfirmPoll       = 500 * time.Millisecond
	defaultConfirmTimeout    = 2 * time.Minute
)

// Session implements the ledger surface over JSON-RPC. It is safe for concurrent use.
type Session struct {
	RPC    *rpc.Client
	Commit rpc.CommitmentType

	limiter        *rate.Limiter
	breaker        *gobreaker.CircuitBreaker
	confirmPoll    time.Duration
	confirmTimeout time.Duration
	log            zerolog.Logger
}

// ParseCommitment maps a config string to a commitment level, defaulting to confirmed.
func ParseCommitment(commit string) rpc.CommitmentType {
	switch strings.ToLower(strings.TrimSpace(commit)) {
	case "processed":
		return rpc.CommitmentProcessed
	case "finalized":
		return rpc.CommitmentFinalized
	default:
		return rpc.CommitmentConfirmed
	}
}

// NewSession builds a rate-limited RPC session.
func NewSession(opts Options, log zerolog.Logger) *Session {
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = defaultRequestsPerSecond
	}
	if opts.Burst <= 0 {
		opts.Burst = defaultBurst
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = defaultBreakerFailures
	}
	if opts.ConfirmPoll <= 0 {
		opts.ConfirmPoll = defaultConfirmPoll
	}
	if opts.ConfirmTimeout <= 0 {
		opts.ConfirmTimeout = defaultConfirmTimeout
	}
	log = log.With().Str("component", "rpc").Logger()

	failures := opts.BreakerFailures
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "solana-rpc",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})

	return &Session{
		RPC:            rpc.New(opts.RPCURL),
		Commit:         ParseCommitment(opts.Commitment),
		limiter:        rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst),
		breaker:        breaker,
		confirmPoll:    opts.ConfirmPoll,
		confirmTimeout: opts.ConfirmTimeout,
		log:            log,
	}
}

// read runs a read-only call behind the rate limiter and circuit breaker.
func (s *Session) read(ctx context.Context, call func() (interface{}, error)) (interface{}, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}
	return s.breaker.Execute(call)
}

// Balance returns the owner's lamports at the session commitment.
func (s *Session) Balance(ctx context.Context, owner solana.PublicKey) (uint64, error) {
	out, err := s.read(ctx, func() (interface{}, error) {
		return s.RPC.GetBalance(ctx, owner, s.Commit)
	})
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	res, ok := out.(*rpc.GetBalanceResult)
	if !ok || res == nil {
		return 0, errors.New("get balance: empty response")
	}
	return res.Value, nil
}

// LatestBlockhash fetches a fresh blockhash and the last block height it stays valid for.
func (s *Session) LatestBlockhash(ctx context.Context) (transfer.Blockhash, error) {
	out, err := s.read(ctx, func() (interface{}, error) {
		return s.RPC.GetLatestBlockhash(ctx, s.Commit)
	})
	if err != nil {
		return transfer.Blockhash{}, fmt.Errorf("get latest blockhash: %w", err)
	}
	res, ok := out.(*rpc.GetLatestBlockhashResult)
	if !ok || res == nil || res.Value == nil {
		return transfer.Blockhash{}, errors.New("get latest blockhash: empty response")
	}
	return transfer.Blockhash{Hash: res.Value.Blockhash, LastValidBlockHeight: res.Value.LastValidBlockHeight}, nil
}

// BuildTransfer assembles and signs a system transfer for req.
func BuildTransfer(req transfer.Request) (*solana.Transaction, error) {
	if len(req.Payer) == 0 {
		return nil, errors.New("build transfer: missing payer key")
	}
	from := req.From()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{system.NewTransferInstruction(req.Lamports, from, req.To).Build()},
		req.Blockhash.Hash,
		solana.TransactionPayer(from),
	)
	if err != nil {
		return nil, fmt.Errorf("build transfer: %w", err)
	}
	payer := req.Payer
	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(from) {
			return &payer
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}
	return tx, nil
}

// SubmitAndConfirm sends req and waits for it to reach the session commitment.
// Submissions whose blockhash can no longer land return an error wrapping
// transfer.ErrBlockhashExpired.
func (s *Session) SubmitAndConfirm(ctx context.Context, req transfer.Request) (solana.Signature, error) {
	tx, err := BuildTransfer(req)
	if err != nil {
		return solana.Signature{}, err
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return solana.Signature{}, fmt.Errorf("rate limiter wait: %w", err)
	}

	sig, err := s.RPC.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: s.Commit,
	})
	if err != nil {
		return solana.Signature{}, classify(fmt.Errorf("send transaction: %w", err))
	}
	if sig == (solana.Signature{}) && len(tx.Signatures) > 0 {
		sig = tx.Signatures[0]
	}
	s.log.Debug().Str("signature", sig.String()).Msg("transaction sent, awaiting confirmation")

	if err := s.awaitConfirmation(ctx, sig, req.Blockhash.LastValidBlockHeight); err != nil {
		return sig, err
	}
	return sig, nil
}

func (s *Session) awaitConfirmation(parent context.Context, sig solana.Signature, lastValid uint64) error {
	ctx, cancel := context.WithTimeout(parent, s.confirmTimeout)
	defer cancel()

	ticker := time.NewTicker(s.confirmPoll)
	defer ticker.Stop()

	for {
		confirmed, err := s.signatureStatus(ctx, sig)
		if err != nil {
			return err
		}
		if confirmed {
			return nil
		}

		if s.pastBlockHeight(ctx, lastValid) {
			// The transaction may have landed between the two calls.
			if confirmed, err := s.signatureStatus(ctx, sig); err != nil || confirmed {
				return err
			}
			return fmt.Errorf("%w: %s not confirmed before block height %d", transfer.ErrBlockhashExpired, sig, lastValid)
		}

		select {
		case <-ctx.Done():
			if parent.Err() != nil {
				return parent.Err()
			}
			return fmt.Errorf("confirm %s: timed out after %s", sig, s.confirmTimeout)
		case <-ticker.C:
		}
	}
}

// signatureStatus reports whether sig reached the session commitment. Poll
// failures are logged and count as "not yet"; an error is returned only when
// the transaction itself failed on chain.
func (s *Session) signatureStatus(ctx context.Context, sig solana.Signature) (bool, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return false, nil
	}
	out, err := s.RPC.GetSignatureStatuses(ctx, false, sig)
	if err != nil {
		s.log.Debug().Err(err).Str("signature", sig.String()).Msg("signature status poll failed")
		return false, nil
	}
	if out == nil || len(out.Value) == 0 || out.Value[0] == nil {
		return false, nil
	}
	st := out.Value[0]
	if st.Err != nil {
		return false, fmt.Errorf("transaction %s failed on chain: %v", sig, st.Err)
	}
	return reached(st.ConfirmationStatus, s.Commit), nil
}

func (s *Session) pastBlockHeight(ctx context.Context, lastValid uint64) bool {
	if err := s.limiter.Wait(ctx); err != nil {
		return false
	}
	height, err := s.RPC.GetBlockHeight(ctx, s.Commit)
	if err != nil {
		s.log.Debug().Err(err).Msg("block height poll failed")
		return false
	}
	return height > lastValid
}

var commitmentRank = map[string]int{
	string(rpc.CommitmentProcessed): 1,
	string(rpc.CommitmentConfirmed): 2,
	string(rpc.CommitmentFinalized): 3,
}

func reached(got rpc.ConfirmationStatusType, want rpc.CommitmentType) bool {
	rank := commitmentRank[string(got)]
	return rank > 0 && rank >= commitmentRank[string(want)]
}

var expiryMarkers = []string{
	"blockhash not found",
	"blockhashnotfound",
	"block height exceeded",
	"has expired",
}

// classify tags RPC errors that mean the blockhash window closed.
func classify(err error) error {
	if err == nil || transfer.IsExpired(err) {
		return err
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range expiryMarkers {
		if strings.Contains(msg, marker) {
			return fmt.Errorf("%w: %w", transfer.ErrBlockhashExpired, err)
		}
	}
	return err
}
