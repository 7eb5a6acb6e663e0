package domain

import (
	"fmt"
	"time"
)

type OptionSide string

const (
	SideCE OptionSide = "CE"
	SidePE OptionSide = "PE"
)

// Opposite returns the other option side. Only valid for CE/PE.
func (s OptionSide) Opposite() OptionSide {
	if s == SideCE {
		return SidePE
	}
	return SideCE
}

func (s OptionSide) Valid() bool {
	return s == SideCE || s == SidePE
}

// ParseOptionSide validates a raw webhook "type" value.
func ParseOptionSide(raw string) (OptionSide, error) {
	side := OptionSide(raw)
	if !side.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidSide, raw)
	}
	return side, nil
}

// Signal is one inbound trading alert. It lives for a single request.
type Signal struct {
	Side       OptionSide
	Qty        int
	ReceivedAt time.Time
}

func (s Signal) Validate() error {
	if !s.Side.Valid() {
		return fmt.Errorf("%w: side %q", ErrInvalidSignal, string(s.Side))
	}
	if s.Qty <= 0 {
		return fmt.Errorf("%w: qty %d", ErrInvalidSignal, s.Qty)
	}
	return nil
}
