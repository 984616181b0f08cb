package storefront

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	apperrors "github.com/utafrali/PizzaGo/pkg/errors"
)

var requestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "pizzacart_storefront_request_duration_seconds",
		Help:    "Duration of storefront API requests",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"operation", "outcome"},
)

func observeRequest(op, outcome string, d time.Duration) {
	requestDuration.WithLabelValues(op, outcome).Observe(d.Seconds())
}

func outcomeFor(status int, err error) string {
	switch {
	case err != nil && errors.Is(err, apperrors.ErrNetworkFailure):
		return "network_error"
	case err != nil && errors.Is(err, apperrors.ErrServerFailure):
		return "server_error"
	case err != nil:
		return "error"
	case status >= 500:
		return "server_error"
	case status == 401 || status == 403:
		return "auth_required"
	case status >= 400:
		return "client_error"
	default:
		return "ok"
	}
}
