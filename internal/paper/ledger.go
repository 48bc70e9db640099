// Package paper simulates a ledger in memory so the scheduler can run without
// touching a real cluster.
package paper

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/rand"
	"sync"
	"time"

	solana "github.com/gagliardetto/solana-go"

	"soldrip-go/internal/transfer"
)

const (
	// DefaultFeeLamports matches the base fee for a single-signature transaction.
	DefaultFeeLamports = 5000
	// DefaultBlockhashLifetime is how many blocks a blockhash stays usable.
	DefaultBlockhashLifetime = 150
)

// Options tunes the simulation.
type Options struct {
	FeeLamports       uint64
	BlockhashLifetime uint64
	// ExpiryProbability is the chance any submission comes back expired.
	ExpiryProbability float64
	Rand              *rand.Rand
}

// Ledger is an in-memory stand-in for a cluster: balances, a block height that
// advances with every call, and blockhashes with a bounded lifetime.
type Ledger struct {
	mu         sync.Mutex
	balances   map[solana.PublicKey]uint64
	issued     map[solana.Hash]uint64
	height     uint64
	seq        uint64
	fee        uint64
	fees       uint64
	lifetime   uint64
	expiryP    float64
	expireNext int
	submits    int
	rng        *rand.Rand
}

// NewLedger constructs an empty ledger.
func NewLedger(opts Options) *Ledger {
	if opts.FeeLamports == 0 {
		opts.FeeLamports = DefaultFeeLamports
	}
	if opts.BlockhashLifetime == 0 {
		opts.BlockhashLifetime = DefaultBlockhashLifetime
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Ledger{
		balances: make(map[solana.PublicKey]uint64),
		issued:   make(map[solana.Hash]uint64),
		height:   1,
		fee:      opts.FeeLamports,
		lifetime: opts.BlockhashLifetime,
		expiryP:  opts.ExpiryProbability,
		rng:      opts.Rand,
	}
}

// ExpireNext forces the next n submissions to come back expired.
func (l *Ledger) ExpireNext(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.expireNext = n
}

// Advance moves the block height forward.
func (l *Ledger) Advance(blocks uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.height += blocks
}

// Submissions counts SubmitAndConfirm calls, expired ones included.
func (l *Ledger) Submissions() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.submits
}

// Balance implements the session balance query.
func (l *Ledger) Balance(ctx context.Context, owner solana.PublicKey) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return l.BalanceOf(owner), nil
}

// LatestBlockhash issues a new blockhash valid for the configured lifetime.
func (l *Ledger) LatestBlockhash(ctx context.Context) (transfer.Blockhash, error) {
	if err := ctx.Err(); err != nil {
		return transfer.Blockhash{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.height++
	l.seq++
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], l.seq)
	hash := solana.Hash(sha256.Sum256(buf[:]))
	lastValid := l.height + l.lifetime
	l.issued[hash] = lastValid
	return transfer.Blockhash{Hash: hash, LastValidBlockHeight: lastValid}, nil
}

// SubmitAndConfirm settles req immediately or reports why it could not.
func (l *Ledger) SubmitAndConfirm(ctx context.Context, req transfer.Request) (solana.Signature, error) {
	if err := ctx.Err(); err != nil {
		return solana.Signature{}, err
	}
	if len(req.Payer) == 0 {
		return solana.Signature{}, fmt.Errorf("missing payer key")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.submits++
	l.height++

	lastValid, ok := l.issued[req.Blockhash.Hash]
	if !ok {
		return solana.Signature{}, fmt.Errorf("%w: blockhash not found", transfer.ErrBlockhashExpired)
	}
	if l.expireNext > 0 {
		l.expireNext--
		return solana.Signature{}, fmt.Errorf("%w: block height exceeded", transfer.ErrBlockhashExpired)
	}
	if l.expiryP > 0 && l.rng.Float64() < l.expiryP {
		return solana.Signature{}, fmt.Errorf("%w: block height exceeded", transfer.ErrBlockhashExpired)
	}
	if l.height > lastValid {
		return solana.Signature{}, fmt.Errorf("%w: height %d past %d", transfer.ErrBlockhashExpired, l.height, lastValid)
	}

	l.seq++
	payload := make([]byte, 0, 32+32+16)
	payload = append(payload, req.Blockhash.Hash[:]...)
	payload = append(payload, req.To[:]...)
	payload = binary.LittleEndian.AppendUint64(payload, req.Lamports)
	payload = binary.LittleEndian.AppendUint64(payload, l.seq)
	sig, err := req.Payer.Sign(payload)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("sign: %w", err)
	}
	if err := l.move(req.From(), req.To, req.Lamports); err != nil {
		return solana.Signature{}, err
	}
	return sig, nil
}
