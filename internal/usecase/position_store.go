package usecase

import (
	"context"
	"sort"
	"sync"

	"github.com/raghav/banknifty_flip/internal/domain"
	"github.com/raghav/banknifty_flip/internal/infrastructure/metrics"
	"go.uber.org/zap"
)

// PositionStore exposes the current open positions to the engine.
// Snapshot never fails: a broker query error degrades to an empty
// (flat) snapshot so the decision engine is never blocked. Open/Close
// record mutations; in live mode they are no-ops because the broker's
// books are the truth.
type PositionStore interface {
	Snapshot(ctx context.Context) []domain.Position
	Open(ctx context.Context, symbol string, quantity int)
	Close(ctx context.Context, symbol string)
}

// LivePositionStore mirrors the broker's open positions.
type LivePositionStore struct {
	broker domain.Broker
	logger *zap.Logger
}

func NewLivePositionStore(broker domain.Broker, logger *zap.Logger) *LivePositionStore {
	return &LivePositionStore{broker: broker, logger: logger}
}

// Snapshot queries the broker and filters to nonzero quantities. On
// query failure it fails open to flat; this can mask a real open
// position, so the failure is logged at error level and counted.
func (s *LivePositionStore) Snapshot(ctx context.Context) []domain.Position {
	positions, err := s.broker.GetOpenPositions(ctx)
	if err != nil {
		s.logger.Error("position query failed, treating as flat", zap.Error(err))
		metrics.IncSnapshotFailure()
		return nil
	}

	var open []domain.Position
	for _, p := range positions {
		if p.Quantity != 0 {
			open = append(open, p)
		}
	}
	return open
}

func (s *LivePositionStore) Open(ctx context.Context, symbol string, quantity int) {}

func (s *LivePositionStore) Close(ctx context.Context, symbol string) {}

// SimPositionStore is the rehearsal-mode store: an in-memory map keyed
// by symbol, owned exclusively by this process.
type SimPositionStore struct {
	mu        sync.Mutex
	positions map[string]int
}

func NewSimPositionStore() *SimPositionStore {
	return &SimPositionStore{positions: make(map[string]int)}
}

func (s *SimPositionStore) Snapshot(ctx context.Context) []domain.Position {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Position, 0, len(s.positions))
	for symbol, qty := range s.positions {
		out = append(out, domain.Position{Symbol: symbol, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

func (s *SimPositionStore) Open(ctx context.Context, symbol string, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions[symbol] = quantity
}

func (s *SimPositionStore) Close(ctx context.Context, symbol string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.positions, symbol)
}

// Reset drops every simulated position.
func (s *SimPositionStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions = make(map[string]int)
}

// Remove drops one simulated position and reports whether it existed.
func (s *SimPositionStore) Remove(symbol string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.positions[symbol]
	delete(s.positions, symbol)
	return ok
}
