// Package risk holds the balance gate that admits or skips a transfer.
package risk

// Limits pairs the fixed transfer amount with the reserve the sender must keep, both in lamports.
type Limits struct {
	Amount  uint64
	Reserve uint64
}

// Required returns Amount+Reserve; ok is false when the sum overflows.
func (l Limits) Required() (required uint64, ok bool) {
	sum := l.Amount + l.Reserve
	if sum < l.Amount {
		return 0, false
	}
	return sum, true
}

// Allow reports whether balance covers the transfer and leaves the reserve intact.
func (l Limits) Allow(balance uint64) bool {
	required, ok := l.Required()
	return ok && balance >= required
}
