package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/raghav/banknifty_flip/internal/domain"
	"github.com/raghav/banknifty_flip/internal/usecase"
	"go.uber.org/zap"
)

type stubBroker struct {
	positions []domain.Position
	err       error
}

func (b *stubBroker) GetLastPrice(ctx context.Context, instrument string) (float64, error) {
	return 0, errors.New("not implemented")
}

func (b *stubBroker) PlaceOrder(ctx context.Context, symbol string, side domain.OrderSide, quantity int) (string, error) {
	return "", errors.New("not implemented")
}

func (b *stubBroker) GetOpenPositions(ctx context.Context) ([]domain.Position, error) {
	return b.positions, b.err
}

func TestLivePositionStore_FiltersZeroQuantities(t *testing.T) {
	broker := &stubBroker{positions: []domain.Position{
		{Symbol: "BANKNIFTY25AUG44600CE", Quantity: 105},
		{Symbol: "BANKNIFTY25AUG44700PE", Quantity: 0},
	}}
	store := usecase.NewLivePositionStore(broker, zap.NewNop())

	snapshot := store.Snapshot(context.Background())
	if len(snapshot) != 1 {
		t.Fatalf("expected 1 open position, got %d", len(snapshot))
	}
	if snapshot[0].Symbol != "BANKNIFTY25AUG44600CE" {
		t.Errorf("unexpected position: %+v", snapshot[0])
	}
}

func TestLivePositionStore_FailsOpenToFlat(t *testing.T) {
	broker := &stubBroker{err: errors.New("gateway timeout")}
	store := usecase.NewLivePositionStore(broker, zap.NewNop())

	snapshot := store.Snapshot(context.Background())
	if len(snapshot) != 0 {
		t.Fatalf("expected flat snapshot on query failure, got %+v", snapshot)
	}
}

func TestLivePositionStore_MutationsAreNoOps(t *testing.T) {
	broker := &stubBroker{positions: []domain.Position{
		{Symbol: "BANKNIFTY25AUG44600CE", Quantity: 105},
	}}
	store := usecase.NewLivePositionStore(broker, zap.NewNop())

	store.Open(context.Background(), "BANKNIFTY25AUG44700PE", 35)
	store.Close(context.Background(), "BANKNIFTY25AUG44600CE")

	// The broker's books are the truth; the snapshot is unchanged.
	snapshot := store.Snapshot(context.Background())
	if len(snapshot) != 1 || snapshot[0].Symbol != "BANKNIFTY25AUG44600CE" {
		t.Errorf("live store must not track its own mutations, got %+v", snapshot)
	}
}

func TestSimPositionStore_OpenCloseSnapshot(t *testing.T) {
	store := usecase.NewSimPositionStore()
	ctx := context.Background()

	store.Open(ctx, "BANKNIFTY25AUG44600CE", 105)
	store.Open(ctx, "BANKNIFTY25AUG44700PE", 35)

	snapshot := store.Snapshot(ctx)
	if len(snapshot) != 2 {
		t.Fatalf("expected 2 positions, got %d", len(snapshot))
	}

	store.Close(ctx, "BANKNIFTY25AUG44600CE")
	snapshot = store.Snapshot(ctx)
	if len(snapshot) != 1 || snapshot[0].Symbol != "BANKNIFTY25AUG44700PE" {
		t.Fatalf("expected only the PE position, got %+v", snapshot)
	}
}

func TestSimPositionStore_ResetAndRemove(t *testing.T) {
	store := usecase.NewSimPositionStore()
	ctx := context.Background()

	store.Open(ctx, "BANKNIFTY25AUG44600CE", 105)
	if !store.Remove("BANKNIFTY25AUG44600CE") {
		t.Error("expected Remove to report an existing position")
	}
	if store.Remove("BANKNIFTY25AUG44600CE") {
		t.Error("expected Remove to report a missing position")
	}

	store.Open(ctx, "BANKNIFTY25AUG44600CE", 105)
	store.Open(ctx, "BANKNIFTY25AUG44700PE", 35)
	store.Reset()
	if len(store.Snapshot(ctx)) != 0 {
		t.Error("expected empty snapshot after reset")
	}
}
