package execution

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	solana "github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soldrip-go/internal/transfer"
)

// scriptedSession hands out a new blockhash per call and replays submit outcomes in order.
type scriptedSession struct {
	mu          sync.Mutex
	outcomes    []error
	blockhashes int
	hashErr     error
	submitted   []transfer.Request
	signature   solana.Signature
}

func (s *scriptedSession) Balance(context.Context, solana.PublicKey) (uint64, error) {
	return 0, nil
}

func (s *scriptedSession) LatestBlockhash(context.Context) (transfer.Blockhash, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hashErr != nil {
		return transfer.Blockhash{}, s.hashErr
	}
	s.blockhashes++
	var h solana.Hash
	h[0] = byte(s.blockhashes)
	h[1] = byte(s.blockhashes >> 8)
	return transfer.Blockhash{Hash: h, LastValidBlockHeight: uint64(100 + s.blockhashes)}, nil
}

func (s *scriptedSession) SubmitAndConfirm(_ context.Context, req transfer.Request) (solana.Signature, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitted = append(s.submitted, req)
	idx := len(s.submitted) - 1
	if idx < len(s.outcomes) && s.outcomes[idx] != nil {
		return solana.Signature{}, s.outcomes[idx]
	}
	return s.signature, nil
}

func expired(n int) []error {
	out := make([]error, n)
	for i := range out {
		out[i] = fmt.Errorf("confirm: %w", transfer.ErrBlockhashExpired)
	}
	return out
}

func distinctBlockhashes(reqs []transfer.Request) int {
	seen := make(map[solana.Hash]struct{}, len(reqs))
	for _, r := range reqs {
		seen[r.Blockhash.Hash] = struct{}{}
	}
	return len(seen)
}

func TestExecuteFirstAttemptSucceeds(t *testing.T) {
	payer := solana.NewWallet()
	dest := solana.NewWallet().PublicKey()
	session := &scriptedSession{signature: solana.Signature{7}}

	exec := NewExecutor(session, payer.PrivateKey, RetryPolicy{}, zerolog.Nop())
	res, err := exec.Execute(context.Background(), dest, 100_000)
	require.NoError(t, err)
	assert.Equal(t, solana.Signature{7}, res.Signature)
	assert.Equal(t, 1, res.Attempts)

	require.Len(t, session.submitted, 1)
	req := session.submitted[0]
	assert.True(t, req.From().Equals(payer.PublicKey()))
	assert.True(t, req.To.Equals(dest))
	assert.Equal(t, uint64(100_000), req.Lamports)
}

func TestExecuteRetriesExpiredUntilConfirmed(t *testing.T) {
	for _, n := range []int{1, 3, 6} {
		t.Run(fmt.Sprintf("%d_expiries", n), func(t *testing.T) {
			session := &scriptedSession{outcomes: expired(n), signature: solana.Signature{42}}
			exec := NewExecutor(session, solana.NewWallet().PrivateKey, RetryPolicy{MaxAttempts: 20}, zerolog.Nop())

			res, err := exec.Execute(context.Background(), solana.NewWallet().PublicKey(), 100_000)
			require.NoError(t, err)
			assert.Equal(t, solana.Signature{42}, res.Signature)
			assert.Equal(t, n+1, res.Attempts)
			assert.Len(t, session.submitted, n+1)
			assert.Equal(t, n+1, session.blockhashes)
			assert.Equal(t, n+1, distinctBlockhashes(session.submitted))
		})
	}
}

func TestExecuteThreeExpiriesThenSignature(t *testing.T) {
	want := solana.Signature{1, 2, 3}
	session := &scriptedSession{outcomes: expired(3), signature: want}
	exec := NewExecutor(session, solana.NewWallet().PrivateKey, RetryPolicy{}, zerolog.Nop())

	res, err := exec.Execute(context.Background(), solana.NewWallet().PublicKey(), 100_000)
	require.NoError(t, err)
	assert.Equal(t, want, res.Signature)
	assert.Equal(t, 4, session.blockhashes)
	assert.Equal(t, 4, distinctBlockhashes(session.submitted))
}

func TestExecuteTerminalErrorShortCircuits(t *testing.T) {
	insufficient := errors.New("Transaction simulation failed: insufficient funds for fee")
	session := &scriptedSession{outcomes: []error{insufficient}}
	exec := NewExecutor(session, solana.NewWallet().PrivateKey, RetryPolicy{}, zerolog.Nop())

	_, err := exec.Execute(context.Background(), solana.NewWallet().PublicKey(), 100_000)
	require.Error(t, err)

	var terr *TransferError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, 1, terr.Attempts)
	assert.ErrorIs(t, err, insufficient)
	assert.Len(t, session.submitted, 1)
	assert.Equal(t, 1, session.blockhashes)
}

func TestExecuteTerminalAfterExpiry(t *testing.T) {
	rejected := errors.New("signature verification failure")
	outcomes := append(expired(2), rejected)
	session := &scriptedSession{outcomes: outcomes}
	exec := NewExecutor(session, solana.NewWallet().PrivateKey, RetryPolicy{}, zerolog.Nop())

	_, err := exec.Execute(context.Background(), solana.NewWallet().PublicKey(), 1)
	var terr *TransferError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, 3, terr.Attempts)
	assert.Len(t, session.submitted, 3)
}

func TestExecuteExhaustsAttempts(t *testing.T) {
	session := &scriptedSession{outcomes: expired(10)}
	exec := NewExecutor(session, solana.NewWallet().PrivateKey, RetryPolicy{MaxAttempts: 4}, zerolog.Nop())

	_, err := exec.Execute(context.Background(), solana.NewWallet().PublicKey(), 1)
	var exhausted *RetryExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 4, exhausted.Attempts)
	assert.Len(t, session.submitted, 4)
	assert.True(t, transfer.IsExpired(err))

	var terr *TransferError
	assert.False(t, errors.As(err, &terr), "exhaustion is its own error kind")
}

func TestExecuteExhaustsElapsed(t *testing.T) {
	session := &scriptedSession{outcomes: expired(10)}
	exec := NewExecutor(session, solana.NewWallet().PrivateKey, RetryPolicy{MaxAttempts: 100, MaxElapsed: time.Minute}, zerolog.Nop())

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	calls := 0
	exec.now = func() time.Time {
		calls++
		// Each attempt observes another 25 seconds passing.
		return base.Add(time.Duration(calls-1) * 25 * time.Second)
	}

	_, err := exec.Execute(context.Background(), solana.NewWallet().PublicKey(), 1)
	var exhausted *RetryExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.GreaterOrEqual(t, exhausted.Elapsed, time.Minute)
}

func TestExecuteBlockhashFetchFailureIsTerminal(t *testing.T) {
	session := &scriptedSession{hashErr: errors.New("connection refused")}
	exec := NewExecutor(session, solana.NewWallet().PrivateKey, RetryPolicy{}, zerolog.Nop())

	_, err := exec.Execute(context.Background(), solana.NewWallet().PublicKey(), 1)
	var terr *TransferError
	require.ErrorAs(t, err, &terr)
	assert.Contains(t, err.Error(), "fetch blockhash")
	assert.Empty(t, session.submitted)
}

func TestExecuteHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	session := &scriptedSession{}
	exec := NewExecutor(session, solana.NewWallet().PrivateKey, RetryPolicy{}, zerolog.Nop())
	_, err := exec.Execute(ctx, solana.NewWallet().PublicKey(), 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, session.submitted)
}

func TestExecuteCancelledDuringRetryDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	session := &scriptedSession{outcomes: expired(5)}
	exec := NewExecutor(session, solana.NewWallet().PrivateKey, RetryPolicy{Delay: time.Hour}, zerolog.Nop())

	done := make(chan error, 1)
	go func() {
		_, err := exec.Execute(ctx, solana.NewWallet().PublicKey(), 1)
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Execute did not return after cancel")
	}
}

func TestExecuteLogsOutcome(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	session := &scriptedSession{outcomes: expired(1), signature: solana.Signature{5}}
	exec := NewExecutor(session, solana.NewWallet().PrivateKey, RetryPolicy{}, logger)
	_, err := exec.Execute(context.Background(), solana.NewWallet().PublicKey(), 100_000)
	require.NoError(t, err)

	out := buf.String()
	if !strings.Contains(out, "blockhash expired, resubmitting") {
		t.Fatalf("expected retry log line, got: %s", out)
	}
	if !strings.Contains(out, "transfer confirmed") || !strings.Contains(out, `"amount_sol":"0.0001"`) {
		t.Fatalf("expected confirmation log line, got: %s", out)
	}
}
