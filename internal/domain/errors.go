package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidSide   = errors.New("invalid option side")
	ErrInvalidPrice  = errors.New("invalid spot price")
	ErrInvalidSignal = errors.New("invalid signal")
	ErrMarketClosed  = errors.New("outside market hours")
	ErrLiveOnly      = errors.New("not available in live mode")
)

// ExhaustedError reports that a retried operation failed on every
// attempt. Last carries the final underlying error.
type ExhaustedError struct {
	Op       string
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s failed after %d attempts: %v", e.Op, e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

// PartialFlipError means the exit leg went through but the entry leg
// did not: the exchange state no longer matches any tracked side and
// needs manual reconciliation. It must never be folded into a generic
// failure.
type PartialFlipError struct {
	Exited      string
	EntrySymbol string
	Err         error
}

func (e *PartialFlipError) Error() string {
	return fmt.Sprintf("partial flip: exited %s but entry %s failed: %v", e.Exited, e.EntrySymbol, e.Err)
}

func (e *PartialFlipError) Unwrap() error { return e.Err }
