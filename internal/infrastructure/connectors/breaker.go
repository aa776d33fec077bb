// Package connectors implements the outbound marketplace clients: the
// eBay Browse API and the scraper sidecar for Amazon and Myntra. Each
// client runs behind a circuit breaker so a dead marketplace cannot tie
// up request handlers, and surfaces failures as typed unavailability
// errors.
package connectors

import (
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	apperrors "dealradar-backend/internal/errors"
)

func newBreaker(name string, logger *zap.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.8
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}

// breakerErr maps the breaker's own rejections to the unavailability
// taxonomy; everything else passes through untouched.
func breakerErr(name string, err error) error {
	switch err {
	case gobreaker.ErrOpenState, gobreaker.ErrTooManyRequests:
		return apperrors.Unavailable("CIRCUIT_OPEN", name+" is temporarily unavailable").WithCause(err)
	default:
		return err
	}
}
