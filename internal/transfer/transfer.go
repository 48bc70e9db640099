// Package transfer standardizes payloads shared between the executor and ledger sessions.
package transfer

import (
	"errors"

	solana "github.com/gagliardetto/solana-go"
)

// ErrBlockhashExpired marks a submission that can never confirm because its
// blockhash aged out. Sessions wrap it; the executor retries on it.
var ErrBlockhashExpired = errors.New("blockhash expired")

// Blockhash is a recent block reference a transaction must carry. Transactions
// built on it stop being confirmable once the chain passes LastValidBlockHeight.
type Blockhash struct {
	Hash                 solana.Hash
	LastValidBlockHeight uint64
}

// Request is a single native transfer attempt. It is built fresh for every
// submission and discarded when its blockhash expires.
type Request struct {
	Payer     solana.PrivateKey
	To        solana.PublicKey
	Lamports  uint64
	Blockhash Blockhash
}

// From returns the payer's public key.
func (r Request) From() solana.PublicKey { return r.Payer.PublicKey() }

// IsExpired reports whether err carries ErrBlockhashExpired.
func IsExpired(err error) bool { return errors.Is(err, ErrBlockhashExpired) }
