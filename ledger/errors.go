package ledger

import (
	"errors"
	"fmt"
)

// Sentinel errors for precondition violations. Anything else returned by
// the engine is a storage failure wrapping the repository error.
var (
	// ErrInvalidArguments means a price, size or percent was out of range.
	ErrInvalidArguments = errors.New("invalid arguments")

	// ErrAlreadyOpen means the (ticker, instrument class) pair already has
	// a non-closed position.
	ErrAlreadyOpen = errors.New("position already open")

	// ErrNotFound means no open position exists for the pair. Closed
	// positions are terminal: they are reported as not found, never
	// resurrected.
	ErrNotFound = errors.New("no open position")

	// ErrInsufficientRemaining means a sell asked for more percent than
	// the position has left.
	ErrInsufficientRemaining = errors.New("insufficient remaining percent")
)

// InsufficientRemainingError carries the requested and remaining percent
// of a rejected sell. It matches ErrInsufficientRemaining under errors.Is.
type InsufficientRemainingError struct {
	Requested int
	Remaining int
}

func (e *InsufficientRemainingError) Error() string {
	return fmt.Sprintf("cannot sell %d%%, only %d%% remaining", e.Requested, e.Remaining)
}

func (e *InsufficientRemainingError) Unwrap() error {
	return ErrInsufficientRemaining
}
