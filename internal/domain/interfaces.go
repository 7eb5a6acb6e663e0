package domain

import "context"

// Broker defines the operations the engine needs from the order
// execution API. All three are fallible and latency-bearing; in live
// mode the broker is authoritative for positions.
type Broker interface {
	GetLastPrice(ctx context.Context, instrument string) (float64, error)
	PlaceOrder(ctx context.Context, symbol string, side OrderSide, quantity int) (string, error)
	GetOpenPositions(ctx context.Context) ([]Position, error)
}

// TradeJournal defines storage operations for the audit log. It records
// what happened; it is never read back to reconstruct position state.
type TradeJournal interface {
	RecordOrder(ctx context.Context, order *Order) error
	RecordSignal(ctx context.Context, log *SignalLog) error
	ListOrders(ctx context.Context, limit int) ([]*Order, error)
}
