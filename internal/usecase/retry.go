package usecase

import (
	"context"
	"time"

	"github.com/raghav/banknifty_flip/internal/domain"
	"github.com/raghav/banknifty_flip/internal/infrastructure/metrics"
	"go.uber.org/zap"
)

// BackoffFunc maps a 1-based attempt index to the pause before the next
// attempt.
type BackoffFunc func(attempt int) time.Duration

func ConstantBackoff(d time.Duration) BackoffFunc {
	return func(int) time.Duration { return d }
}

// LinearBackoff pauses attempt*unit between attempts: 1s, 2s, 3s...
func LinearBackoff(unit time.Duration) BackoffFunc {
	return func(attempt int) time.Duration { return time.Duration(attempt) * unit }
}

// Retryer runs fallible broker operations with bounded retry. Failed
// attempts are logged at warn level; exhaustion surfaces as a
// domain.ExhaustedError carrying the last underlying error.
type Retryer struct {
	MaxAttempts int
	Backoff     BackoffFunc

	logger *zap.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

func NewRetryer(maxAttempts int, backoff BackoffFunc, logger *zap.Logger) *Retryer {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Retryer{
		MaxAttempts: maxAttempts,
		Backoff:     backoff,
		logger:      logger,
		sleep:       sleepCtx,
	}
}

// Do invokes fn up to MaxAttempts times. The context is only consulted
// during backoff pauses; an in-flight attempt is never interrupted.
func (r *Retryer) Do(ctx context.Context, op string, fn func() error) error {
	var last error
	attempts := 0
	for attempt := 1; attempt <= r.MaxAttempts; attempt++ {
		attempts = attempt
		last = fn()
		if last == nil {
			return nil
		}

		r.logger.Warn("operation failed",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", r.MaxAttempts),
			zap.Error(last))
		metrics.IncRetry(op)

		if attempt == r.MaxAttempts {
			break
		}
		if err := r.sleep(ctx, r.Backoff(attempt)); err != nil {
			last = err
			break
		}
	}
	return &domain.ExhaustedError{Op: op, Attempts: attempts, Last: last}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
