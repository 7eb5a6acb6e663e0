package domain

import (
	"strings"
	"time"
)

type OrderSide string

const (
	OrderBuy  OrderSide = "BUY"
	OrderSell OrderSide = "SELL"
)

// Position is an open option position. In live mode it is a read-only
// snapshot of the broker's books; in rehearsal mode the in-memory store
// is the sole writer.
type Position struct {
	Symbol   string `json:"symbol"`
	Quantity int    `json:"quantity"`
}

// OptionSide extracts the CE/PE suffix from the tradable symbol.
// Returns "" for symbols that are not option contracts.
func (p Position) OptionSide() OptionSide {
	switch {
	case strings.HasSuffix(p.Symbol, string(SideCE)):
		return SideCE
	case strings.HasSuffix(p.Symbol, string(SidePE)):
		return SidePE
	}
	return ""
}

// Order is an executed order, recorded in the journal.
type Order struct {
	ID        int64     `json:"id"`
	OrderID   string    `json:"order_id"`
	Symbol    string    `json:"symbol"`
	Side      OrderSide `json:"side"`
	Quantity  int       `json:"quantity"`
	Mode      string    `json:"mode"`
	CreatedAt time.Time `json:"created_at"`
}

// SignalLog is the recorded outcome of one webhook delivery.
type SignalLog struct {
	ID        int64     `json:"id"`
	Side      string    `json:"side"`
	Quantity  int       `json:"quantity"`
	Status    string    `json:"status"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}
