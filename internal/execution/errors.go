package execution

import (
	"fmt"
	"time"
)

// TransferError is a terminal submission failure that is not a blockhash expiry.
type TransferError struct {
	Attempts int
	Err      error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transfer failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }

// RetryExhaustedError reports that every allowed resubmission expired.
type RetryExhaustedError struct {
	Attempts int
	Elapsed  time.Duration
	Last     error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("transfer gave up after %d expired attempt(s) in %s: %v", e.Attempts, e.Elapsed.Round(time.Millisecond), e.Last)
}

func (e *RetryExhaustedError) Unwrap() error { return e.Last }
