package broker

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/raghav/banknifty_flip/internal/domain"
	"go.uber.org/zap"
)

// SimBroker is the rehearsal-mode broker: orders are acknowledged with
// a generated ID and nothing reaches an exchange. The spot price is
// settable so scenarios can be rehearsed at any level.
type SimBroker struct {
	logger *zap.Logger

	mu    sync.Mutex
	price float64
}

func NewSimBroker(spotPrice float64, logger *zap.Logger) *SimBroker {
	return &SimBroker{price: spotPrice, logger: logger}
}

func (b *SimBroker) GetLastPrice(ctx context.Context, instrument string) (float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.price, nil
}

// SetLastPrice overrides the simulated spot.
func (b *SimBroker) SetLastPrice(price float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.price = price
}

func (b *SimBroker) PlaceOrder(ctx context.Context, symbol string, side domain.OrderSide, quantity int) (string, error) {
	orderID := uuid.NewString()
	b.logger.Info("[rehearsal] order accepted",
		zap.String("order_id", orderID),
		zap.String("symbol", symbol),
		zap.String("side", string(side)),
		zap.Int("qty", quantity))
	return orderID, nil
}

// GetOpenPositions always reports flat: in rehearsal mode the position
// store owns the truth, not the broker.
func (b *SimBroker) GetOpenPositions(ctx context.Context) ([]domain.Position, error) {
	return nil, nil
}
