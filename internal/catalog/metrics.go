package catalog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var cacheRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "pizzacart_catalog_cache_requests_total",
		Help: "Catalog cache lookups by result (hit, miss, error)",
	},
	[]string{"result"},
)

const (
	cacheHit   = "hit"
	cacheMiss  = "miss"
	cacheError = "error"
)
