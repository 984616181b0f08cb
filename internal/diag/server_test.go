package diag

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/PizzaGo/pkg/health"
	"github.com/utafrali/PizzaGo/pkg/logger"
)

func newHealth(storefront, cache error) *health.Handler {
	h := health.NewHandler()
	h.RegisterCritical("storefront", func(ctx context.Context) error { return storefront })
	h.RegisterNonCritical("catalog_cache", func(ctx context.Context) error { return cache })
	return h
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = "127.0.0.1:40000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Liveness(t *testing.T) {
	router := NewRouter(newHealth(errors.New("down"), nil), prometheus.NewRegistry(), nil, logger.Discard())

	rec := get(t, router, "/health/live")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_Readiness(t *testing.T) {
	tests := []struct {
		name       string
		storefront error
		cache      error
		wantCode   int
		wantStatus health.Status
	}{
		{"all up", nil, nil, http.StatusOK, health.StatusUp},
		{"cache down degrades", nil, errors.New("connection refused"), http.StatusOK, health.StatusDegraded},
		{"storefront down", errors.New("timeout"), nil, http.StatusServiceUnavailable, health.StatusDown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := NewRouter(newHealth(tt.storefront, tt.cache), prometheus.NewRegistry(), nil, logger.Discard())

			rec := get(t, router, "/health/ready")
			assert.Equal(t, tt.wantCode, rec.Code)

			var resp health.Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.Len(t, resp.Checks, 2)
		})
	}
}

func TestRouter_MetricsFromGatherer(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "pizzacart_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Add(3)

	router := NewRouter(newHealth(nil, nil), reg, nil, logger.Discard())
	rec := get(t, router, "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pizzacart_test_total 3")
}

func TestRouter_PprofAllowlist(t *testing.T) {
	router := NewRouter(newHealth(nil, nil), prometheus.NewRegistry(), []string{"127.0.0.1/32"}, logger.Discard())

	assert.Equal(t, http.StatusOK, get(t, router, "/debug/pprof/").Code)

	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
	req.RemoteAddr = "203.0.113.9:5555"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestServer_StartAndShutdown(t *testing.T) {
	router := NewRouter(newHealth(nil, nil), prometheus.NewRegistry(), nil, logger.Discard())
	srv := NewServer(0, router, logger.Discard())
	assert.Empty(t, srv.Addr())

	require.NoError(t, srv.Start())
	require.NotEmpty(t, srv.Addr())

	_, port, err := net.SplitHostPort(srv.Addr())
	require.NoError(t, err)
	resp, err := http.Get("http://127.0.0.1:" + port + "/health/live")
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))

	select {
	case err := <-srv.Done():
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServer_ShutdownBeforeStart(t *testing.T) {
	srv := NewServer(0, http.NotFoundHandler(), logger.Discard())
	assert.NoError(t, srv.Shutdown(context.Background()))
}
