package cartsync

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	apperrors "github.com/utafrali/PizzaGo/pkg/errors"
)

var (
	cartOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pizzacart_cart_operations_total",
			Help: "Total number of cart operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	cartOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pizzacart_cart_operation_duration_seconds",
			Help:    "Cart operation duration in seconds, including the resync",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	authRedirectsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pizzacart_auth_redirects_total",
			Help: "Total number of scheduled login redirects",
		},
	)
)

const (
	outcomeSuccess      = "success"
	outcomeError        = "error"
	outcomeAuthRequired = "auth_required"
	outcomeUnsupported  = "unsupported"
	outcomeInvalid      = "invalid"
	outcomeNoop         = "noop"
)

func observeOperation(op, outcome string, start time.Time) {
	cartOperationsTotal.WithLabelValues(op, outcome).Inc()
	cartOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return outcomeSuccess
	case errors.Is(err, apperrors.ErrAuthRequired):
		return outcomeAuthRequired
	case errors.Is(err, apperrors.ErrUnsupported):
		return outcomeUnsupported
	case errors.Is(err, apperrors.ErrValidation):
		return outcomeInvalid
	default:
		return outcomeError
	}
}
