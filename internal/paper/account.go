package paper

import (
	"errors"
	"fmt"

	solana "github.com/gagliardetto/solana-go"
)

// ErrInsufficientFunds is returned when the payer cannot cover amount plus fee.
var ErrInsufficientFunds = errors.New("insufficient funds for transfer and fee")

// Fund credits lamports to owner, creating the account if needed.
func (l *Ledger) Fund(owner solana.PublicKey, lamports uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[owner] += lamports
}

// BalanceOf returns owner's lamports without a context.
func (l *Ledger) BalanceOf(owner solana.PublicKey) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[owner]
}

// FeesCollected reports the total fees burned by confirmed transfers.
func (l *Ledger) FeesCollected() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fees
}

// move debits from by lamports+fee and credits to. Caller holds l.mu.
func (l *Ledger) move(from, to solana.PublicKey, lamports uint64) error {
	need := lamports + l.fee
	if need < lamports {
		return fmt.Errorf("transfer of %d lamports overflows", lamports)
	}
	balance := l.balances[from]
	if balance < need {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, balance, need)
	}
	l.balances[from] = balance - need
	l.balances[to] += lamports
	l.fees += l.fee
	return nil
}
