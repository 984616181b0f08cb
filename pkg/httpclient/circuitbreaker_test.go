package httpclient

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func breakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:         name,
		MaxRequests:  1,
		Timeout:      30 * time.Millisecond,
		FailureRatio: 0.5,
		MinRequests:  2,
	}
}

// switchServer answers with the status stored in status.
func switchServer(t *testing.T, status *atomic.Int32) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(int(status.Load()))
		_, _ = io.WriteString(w, `{"detail":"kitchen on fire"}`)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func get(t *testing.T, cb *CircuitBreakerClient, ctx context.Context, target string) (*http.Response, error) {
	t.Helper()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	require.NoError(t, err)
	resp, err := cb.Do(ctx, req)
	if resp != nil {
		t.Cleanup(func() { resp.Body.Close() })
	}
	return resp, err
}

func TestDefaultCircuitBreakerConfig(t *testing.T) {
	cfg := DefaultCircuitBreakerConfig("storefront")
	assert.Equal(t, "storefront", cfg.Name)
	assert.Equal(t, uint32(1), cfg.MaxRequests)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.InDelta(t, 0.5, cfg.FailureRatio, 1e-9)
	assert.Equal(t, uint32(5), cfg.MinRequests)
}

func TestCircuitBreaker_TripsOnServerErrors(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusInternalServerError)
	srv, hits := switchServer(t, &status)

	name := t.Name()
	cb := NewCircuitBreakerClient(New(testConfig(0)), breakerConfig(name), discardLogger())
	assert.Equal(t, gobreaker.StateClosed, cb.State())

	for range 2 {
		_, err := get(t, cb, context.Background(), srv.URL)
		var statusErr *StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
		assert.Contains(t, string(statusErr.Body), "kitchen on fire")
	}
	assert.Equal(t, gobreaker.StateOpen, cb.State())
	assert.Equal(t, 2.0, testutil.ToFloat64(circuitBreakerState.WithLabelValues(name)))

	_, err := get(t, cb, context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(2), hits.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(circuitBreakerRejections.WithLabelValues(name, "open")))
}

func TestCircuitBreaker_ClientErrorsDoNotTrip(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusUnauthorized)
	srv, hits := switchServer(t, &status)

	cb := NewCircuitBreakerClient(New(testConfig(0)), breakerConfig(t.Name()), discardLogger())
	for range 5 {
		resp, err := get(t, cb, context.Background(), srv.URL)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
	assert.Equal(t, gobreaker.StateClosed, cb.State())
	assert.Equal(t, int32(5), hits.Load())
}

func TestCircuitBreaker_CancellationDoesNotTrip(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)
	srv, _ := switchServer(t, &status)

	cb := NewCircuitBreakerClient(New(testConfig(0)), breakerConfig(t.Name()), discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for range 4 {
		_, err := get(t, cb, ctx, srv.URL)
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestCircuitBreaker_FallbackWhenOpen(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusBadGateway)
	srv, _ := switchServer(t, &status)

	var fallbackErr error
	cb := NewCircuitBreakerClient(New(testConfig(0)), breakerConfig(t.Name()), discardLogger()).
		WithFallback(func(_ context.Context, err error) (*http.Response, error) {
			fallbackErr = err
			return nil, errors.New("storefront temporarily unavailable")
		})

	for range 2 {
		_, _ = get(t, cb, context.Background(), srv.URL)
	}
	_, err := get(t, cb, context.Background(), srv.URL)
	require.EqualError(t, err, "storefront temporarily unavailable")
	assert.ErrorIs(t, fallbackErr, ErrCircuitOpen)
}

func TestCircuitBreaker_WithFallbackLeavesOriginalUntouched(t *testing.T) {
	cb := NewCircuitBreakerClient(New(testConfig(0)), breakerConfig(t.Name()), discardLogger())
	withFallback := cb.WithFallback(func(context.Context, error) (*http.Response, error) { return nil, nil })

	assert.Nil(t, cb.fallback)
	assert.NotNil(t, withFallback.fallback)
	assert.Same(t, cb.breaker, withFallback.breaker)
}

func TestCircuitBreaker_RecoversAfterTimeout(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusServiceUnavailable)
	srv, _ := switchServer(t, &status)

	name := t.Name()
	cb := NewCircuitBreakerClient(New(testConfig(0)), breakerConfig(name), discardLogger())
	for range 2 {
		_, _ = get(t, cb, context.Background(), srv.URL)
	}
	require.Equal(t, gobreaker.StateOpen, cb.State())

	status.Store(http.StatusOK)
	require.Eventually(t, func() bool {
		return cb.State() == gobreaker.StateHalfOpen
	}, time.Second, 5*time.Millisecond)

	resp, err := get(t, cb, context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, gobreaker.StateClosed, cb.State())
	assert.Equal(t, 0.0, testutil.ToFloat64(circuitBreakerState.WithLabelValues(name)))
}

func TestCircuitBreaker_HalfOpenLimitUsesFallback(t *testing.T) {
	var failing atomic.Bool
	failing.Store(true)
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failing.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		entered <- struct{}{}
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	name := t.Name()
	var fallbackErr error
	cb := NewCircuitBreakerClient(New(testConfig(0)), breakerConfig(name), discardLogger()).
		WithFallback(func(_ context.Context, err error) (*http.Response, error) {
			fallbackErr = err
			return nil, err
		})

	for range 2 {
		_, _ = get(t, cb, context.Background(), srv.URL)
	}
	failing.Store(false)
	require.Eventually(t, func() bool {
		return cb.State() == gobreaker.StateHalfOpen
	}, time.Second, 5*time.Millisecond)

	probe := make(chan error, 1)
	go func() {
		req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, nil)
		resp, err := cb.Do(context.Background(), req)
		if resp != nil {
			resp.Body.Close()
		}
		probe <- err
	}()
	<-entered

	_, err := get(t, cb, context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrTooManyRequests)
	assert.ErrorIs(t, fallbackErr, ErrTooManyRequests)
	assert.Equal(t, 1.0, testutil.ToFloat64(circuitBreakerRejections.WithLabelValues(name, "half_open_limit")))

	close(release)
	require.NoError(t, <-probe)
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestStatusError_Message(t *testing.T) {
	err := &StatusError{StatusCode: 502, Body: []byte(strings.Repeat("x", 500))}
	msg := err.Error()
	assert.True(t, strings.HasPrefix(msg, "server error 502: "))
	assert.Less(t, len(msg), 250)
}

func TestStateValue(t *testing.T) {
	assert.Equal(t, 0.0, stateValue(gobreaker.StateClosed))
	assert.Equal(t, 1.0, stateValue(gobreaker.StateHalfOpen))
	assert.Equal(t, 2.0, stateValue(gobreaker.StateOpen))
	assert.Equal(t, -1.0, stateValue(gobreaker.State(99)))
}
