package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
)

// BreakerService guards the placement path with a circuit breaker so a
// store outage fails fast instead of piling up checkout requests. An
// open circuit surfaces as StoreUnavailableError.
type BreakerService struct {
	inner   Service
	breaker *gobreaker.CircuitBreaker[string]
}

func NewBreakerService(inner Service) *BreakerService {
	settings := gobreaker.Settings{
		Name:    "order-placement",
		Timeout: 10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Business rejections are healthy store round-trips; only
		// store failures should trip the breaker.
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var unavailable *StoreUnavailableError
			return !errors.As(err, &unavailable)
		},
	}
	return &BreakerService{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker[string](settings),
	}
}

func (b *BreakerService) PlaceOrder(ctx context.Context, req *PlacementRequest) (string, error) {
	orderID, err := b.breaker.Execute(func() (string, error) {
		return b.inner.PlaceOrder(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", &StoreUnavailableError{Err: err}
	}
	return orderID, err
}
