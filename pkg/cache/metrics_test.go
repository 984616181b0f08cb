package cache

import (
	"context"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolStatsCollector_Describe(t *testing.T) {
	c := NewPoolStatsCollector(nil, "test-service")

	ch := make(chan *prometheus.Desc, 10)
	c.Describe(ch)
	close(ch)

	var names []string
	for d := range ch {
		names = append(names, d.String())
	}

	require.Len(t, names, 6)
	for _, want := range []string{
		"redis_pool_hits_total",
		"redis_pool_misses_total",
		"redis_pool_timeouts_total",
		"redis_pool_total_connections",
		"redis_pool_idle_connections",
		"redis_pool_stale_connections_total",
	} {
		found := false
		for _, n := range names {
			if strings.Contains(n, want) {
				found = true
			}
		}
		assert.True(t, found, "expected descriptor containing %q", want)
	}
}

func TestPoolStatsCollector_CollectsFromClient(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())

	reg := prometheus.NewRegistry()
	require.NoError(t, RegisterPoolMetrics(reg, client, "pizzacart"))

	count, err := testutil.GatherAndCount(reg, "redis_pool_total_connections")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	expected := `
# HELP redis_pool_total_connections Total number of connections in the pool
# TYPE redis_pool_total_connections gauge
redis_pool_total_connections{service="pizzacart"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "redis_pool_total_connections"))
}

type nilStats struct{}

func (nilStats) PoolStats() *goredis.PoolStats { return nil }

func TestPoolStatsCollector_NilStats(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, RegisterPoolMetrics(reg, nilStats{}, "pizzacart"))

	count, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
