package scheduler

import "fmt"

// BalanceQueryError means the tick could not read the sender balance and was skipped.
type BalanceQueryError struct {
	Err error
}

func (e *BalanceQueryError) Error() string { return fmt.Sprintf("balance query: %v", e.Err) }

func (e *BalanceQueryError) Unwrap() error { return e.Err }
