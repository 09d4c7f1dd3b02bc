package embeddings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BreakerInvoker wraps an Invoker with a circuit breaker so a failing
// endpoint is short-circuited instead of being hit on every retry.
type BreakerInvoker struct {
	inner Invoker
	cb    *gobreaker.CircuitBreaker
}

// NewBreakerInvoker wraps inv. The breaker opens after five consecutive
// failures and half-opens again after 30 seconds.
func NewBreakerInvoker(inv Invoker, name string, logger *zap.Logger) *BreakerInvoker {
	if logger == nil {
		logger = zap.NewNop()
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("inference circuit breaker state change",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &BreakerInvoker{
		inner: inv,
		cb:    gobreaker.NewCircuitBreaker(settings),
	}
}

// Invoke forwards to the wrapped invoker unless the breaker is open.
func (b *BreakerInvoker) Invoke(ctx context.Context, body []byte) ([]byte, error) {
	resp, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.Invoke(ctx, body)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrInvoke, err)
	}
	if err != nil {
		return nil, err
	}
	return resp.([]byte), nil
}

// State reports the breaker state.
func (b *BreakerInvoker) State() gobreaker.State {
	return b.cb.State()
}

// Close closes the wrapped invoker.
func (b *BreakerInvoker) Close() error {
	return b.inner.Close()
}

var _ Invoker = (*BreakerInvoker)(nil)
