// Package units converts between SOL amounts written by humans and lamports.
package units

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	solana "github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// Decimals is the number of fractional digits in one SOL.
const Decimals = 9

// LamportsPerSOL mirrors the on-chain denomination.
const LamportsPerSOL = solana.LAMPORTS_PER_SOL

// ParseSOL converts a decimal SOL string such as "0.0001" into lamports.
func ParseSOL(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty amount")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	if d.Sign() < 0 {
		return 0, fmt.Errorf("amount %q is negative", s)
	}
	lamports := d.Shift(Decimals)
	if !lamports.Equal(lamports.Truncate(0)) {
		return 0, fmt.Errorf("amount %q has more than %d decimal places", s, Decimals)
	}
	n := lamports.BigInt()
	if !n.IsUint64() {
		return 0, fmt.Errorf("amount %q out of range", s)
	}
	return n.Uint64(), nil
}

// SOL returns lamports as a decimal SOL value.
func SOL(lamports uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(lamports), -Decimals)
}

// FormatSOL renders lamports as a trimmed SOL string, e.g. 100000 -> "0.0001".
func FormatSOL(lamports uint64) string {
	return SOL(lamports).String()
}
