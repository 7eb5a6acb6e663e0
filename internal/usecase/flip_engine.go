package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/raghav/banknifty_flip/internal/domain"
	"github.com/raghav/banknifty_flip/internal/infrastructure/metrics"
	"go.uber.org/zap"
)

const (
	StatusSuccess  = "success"
	StatusTest     = "test"
	StatusSkipped  = "skipped"
	StatusRejected = "rejected"
	StatusError    = "error"
)

// Result is the outcome of one processed signal, mapped 1:1 onto the
// webhook response body.
type Result struct {
	Status  string  `json:"status"`
	Reason  string  `json:"reason,omitempty"`
	Entered string  `json:"entered,omitempty"`
	Exited  string  `json:"exited,omitempty"`
	Spot    float64 `json:"spot,omitempty"`
}

// FlipEngine is the decision core: it resolves an incoming signal
// against a fresh position snapshot and executes zero, one, or two
// order legs. One mutex serializes the whole decide-and-act sequence;
// two concurrent deliveries can never both observe flat or both pass
// the cooldown check. The cooldown timestamp is the only state trusted
// across requests; everything else is rederived from the snapshot.
type FlipEngine struct {
	clock    *MarketClock
	resolver *SymbolResolver
	store    PositionStore
	broker   domain.Broker
	retryer  *Retryer
	journal  domain.TradeJournal
	logger   *zap.Logger

	spotInstrument string
	rehearsal      bool
	cooldown       time.Duration
	legPause       time.Duration

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	mu         sync.Mutex
	lastFlipAt time.Time
}

type FlipEngineConfig struct {
	SpotInstrument string
	Rehearsal      bool
	Cooldown       time.Duration
	LegPause       time.Duration

	// Now overrides the wall clock. Tests use it to pin the session
	// time and to simulate cooldown expiry.
	Now func() time.Time
}

func NewFlipEngine(
	clock *MarketClock,
	resolver *SymbolResolver,
	store PositionStore,
	broker domain.Broker,
	retryer *Retryer,
	journal domain.TradeJournal,
	cfg FlipEngineConfig,
	logger *zap.Logger,
) *FlipEngine {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &FlipEngine{
		clock:          clock,
		resolver:       resolver,
		store:          store,
		broker:         broker,
		retryer:        retryer,
		journal:        journal,
		logger:         logger,
		spotInstrument: cfg.SpotInstrument,
		rehearsal:      cfg.Rehearsal,
		cooldown:       cfg.Cooldown,
		legPause:       cfg.LegPause,
		now:            now,
		sleep:          sleepCtx,
	}
}

// Process runs the full gate-resolve-decide-act sequence for one
// signal. The returned Result is always usable for the HTTP response;
// the error, when non-nil, classifies the failure (ExhaustedError,
// PartialFlipError).
func (e *FlipEngine) Process(ctx context.Context, sig domain.Signal) (*Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := sig.Validate(); err != nil {
		return &Result{Status: StatusError, Reason: err.Error()}, err
	}

	if !e.clock.IsOpen(e.now()) {
		return &Result{Status: StatusRejected, Reason: domain.ErrMarketClosed.Error()}, nil
	}

	spot, err := e.fetchSpot(ctx)
	if err != nil {
		return &Result{Status: StatusError, Reason: fmt.Sprintf("price fetch failed: %v", err)}, err
	}

	target, err := e.resolver.Resolve(spot, sig.Side, e.now())
	if err != nil {
		return &Result{Status: StatusError, Reason: err.Error()}, err
	}

	snapshot := e.store.Snapshot(ctx)
	held := findSide(snapshot, sig.Side)
	opposite := findSide(snapshot, sig.Side.Opposite())

	switch {
	case held != nil:
		e.logger.Info("duplicate signal, already holding side",
			zap.String("symbol", held.Symbol),
			zap.String("side", string(sig.Side)))
		return &Result{Status: StatusSkipped, Reason: "already holding " + string(sig.Side), Spot: spot}, nil

	case opposite != nil:
		return e.flip(ctx, sig, *opposite, target, spot)

	default:
		return e.enter(ctx, sig, target, spot)
	}
}

func (e *FlipEngine) fetchSpot(ctx context.Context) (float64, error) {
	var spot float64
	err := e.retryer.Do(ctx, "fetch last price", func() error {
		var ferr error
		spot, ferr = e.broker.GetLastPrice(ctx, e.spotInstrument)
		return ferr
	})
	if err != nil {
		return 0, err
	}
	metrics.SetSpotPrice(spot)
	return spot, nil
}

func (e *FlipEngine) enter(ctx context.Context, sig domain.Signal, target string, spot float64) (*Result, error) {
	if err := e.placeOrder(ctx, target, domain.OrderBuy, sig.Qty); err != nil {
		return &Result{Status: StatusError, Reason: fmt.Sprintf("order failed: %v", err)}, err
	}
	e.store.Open(ctx, target, sig.Qty)

	e.logger.Info("entered position",
		zap.String("symbol", target),
		zap.Int("qty", sig.Qty),
		zap.Float64("spot", spot))

	return &Result{Status: e.successStatus(), Entered: target, Spot: spot}, nil
}

func (e *FlipEngine) flip(ctx context.Context, sig domain.Signal, held domain.Position, target string, spot float64) (*Result, error) {
	if !e.lastFlipAt.IsZero() {
		if since := e.now().Sub(e.lastFlipAt); since < e.cooldown {
			e.logger.Info("flip suppressed by cooldown",
				zap.Duration("since_last_flip", since),
				zap.Duration("cooldown", e.cooldown))
			return &Result{Status: StatusSkipped, Reason: "flip cooldown", Spot: spot}, nil
		}
	}

	// Exit leg first. If it fails the flip is aborted with the old
	// position intact and the cooldown untouched.
	if err := e.placeOrder(ctx, held.Symbol, domain.OrderSell, held.Quantity); err != nil {
		return &Result{Status: StatusError, Reason: fmt.Sprintf("exit failed: %v", err)}, err
	}
	e.store.Close(ctx, held.Symbol)
	e.logger.Info("exited position", zap.String("symbol", held.Symbol), zap.Int("qty", held.Quantity))

	// Let the exit settle before the entry is attempted.
	if err := e.sleep(ctx, e.legPause); err != nil {
		pf := &domain.PartialFlipError{Exited: held.Symbol, EntrySymbol: target, Err: err}
		return &Result{Status: StatusError, Reason: "partial flip", Exited: held.Symbol, Spot: spot}, pf
	}

	if err := e.placeOrder(ctx, target, domain.OrderBuy, sig.Qty); err != nil {
		// The exit already went through: the exchange is flat while a
		// position is expected. Surface it distinctly, never as a
		// generic order failure.
		pf := &domain.PartialFlipError{Exited: held.Symbol, EntrySymbol: target, Err: err}
		e.logger.Error("partial flip", zap.Error(pf))
		return &Result{Status: StatusError, Reason: "partial flip", Exited: held.Symbol, Spot: spot}, pf
	}
	e.store.Open(ctx, target, sig.Qty)
	e.lastFlipAt = e.now()

	e.logger.Info("flipped position",
		zap.String("exited", held.Symbol),
		zap.String("entered", target),
		zap.Int("qty", sig.Qty))

	return &Result{Status: e.successStatus(), Exited: held.Symbol, Entered: target, Spot: spot}, nil
}

func (e *FlipEngine) placeOrder(ctx context.Context, symbol string, side domain.OrderSide, qty int) error {
	var orderID string
	err := e.retryer.Do(ctx, "place order", func() error {
		var perr error
		orderID, perr = e.broker.PlaceOrder(ctx, symbol, side, qty)
		return perr
	})
	if err != nil {
		metrics.IncOrder(string(side), "failed")
		return err
	}
	metrics.IncOrder(string(side), "ok")

	if e.journal != nil {
		order := &domain.Order{
			OrderID:   orderID,
			Symbol:    symbol,
			Side:      side,
			Quantity:  qty,
			Mode:      e.mode(),
			CreatedAt: e.now(),
		}
		if jerr := e.journal.RecordOrder(ctx, order); jerr != nil {
			e.logger.Warn("failed to journal order", zap.Error(jerr))
		}
	}
	return nil
}

func (e *FlipEngine) successStatus() string {
	if e.rehearsal {
		return StatusTest
	}
	return StatusSuccess
}

func (e *FlipEngine) mode() string {
	if e.rehearsal {
		return "rehearsal"
	}
	return "live"
}

// Exclusive runs fn while holding the decision mutex. Admin mutations
// of the rehearsal store go through here so they cannot interleave
// with an in-flight flip's close/open pair.
func (e *FlipEngine) Exclusive(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn()
}

// IsPartialFlip reports whether err is the exit-succeeded-entry-failed
// case that needs manual reconciliation.
func IsPartialFlip(err error) bool {
	var pf *domain.PartialFlipError
	return errors.As(err, &pf)
}

func findSide(positions []domain.Position, side domain.OptionSide) *domain.Position {
	for i := range positions {
		if positions[i].OptionSide() == side {
			return &positions[i]
		}
	}
	return nil
}
