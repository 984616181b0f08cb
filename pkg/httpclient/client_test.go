package httpclient

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(retries int) Config {
	return Config{
		Timeout:         5 * time.Second,
		MaxRetries:      retries,
		RetryWaitMin:    time.Millisecond,
		RetryWaitMax:    5 * time.Millisecond,
		MaxConnsPerHost: 4,
	}
}

func newRequest(t *testing.T, method, target string, body io.Reader) *http.Request {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), method, target, body)
	require.NoError(t, err)
	return req
}

// countingServer answers with statuses in order, repeating the last one.
func countingServer(t *testing.T, statuses ...int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(hits.Add(1))
		w.WriteHeader(statuses[min(n, len(statuses))-1])
		_, _ = io.WriteString(w, `{"ok":true}`)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, 0, cfg.MaxRetries)
	assert.Equal(t, 200*time.Millisecond, cfg.RetryWaitMin)
	assert.Equal(t, 2*time.Second, cfg.RetryWaitMax)
	assert.Nil(t, cfg.Jar)
}

func TestDo_RetryPolicy(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		statuses   []int
		retries    int
		wantStatus int
		wantHits   int32
	}{
		{name: "get succeeds first time", method: http.MethodGet, statuses: []int{200}, retries: 2, wantStatus: 200, wantHits: 1},
		{name: "get retried until success", method: http.MethodGet, statuses: []int{503, 502, 200}, retries: 2, wantStatus: 200, wantHits: 3},
		{name: "get gives up after retries", method: http.MethodGet, statuses: []int{500}, retries: 2, wantStatus: 500, wantHits: 3},
		{name: "head is retried", method: http.MethodHead, statuses: []int{503, 200}, retries: 1, wantStatus: 200, wantHits: 2},
		{name: "501 is final", method: http.MethodGet, statuses: []int{501}, retries: 2, wantStatus: 501, wantHits: 1},
		{name: "4xx is final", method: http.MethodGet, statuses: []int{401}, retries: 2, wantStatus: 401, wantHits: 1},
		{name: "post sent once", method: http.MethodPost, statuses: []int{503}, retries: 3, wantStatus: 503, wantHits: 1},
		{name: "delete sent once", method: http.MethodDelete, statuses: []int{500}, retries: 3, wantStatus: 500, wantHits: 1},
		{name: "negative retries", method: http.MethodGet, statuses: []int{500}, retries: -1, wantStatus: 500, wantHits: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, hits := countingServer(t, tt.statuses...)
			client := New(testConfig(tt.retries))

			var body io.Reader
			if tt.method == http.MethodPost {
				body = strings.NewReader(`{"pizza_id":1}`)
			}
			resp, err := client.Do(context.Background(), newRequest(t, tt.method, srv.URL+"/cart/add", body))
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantHits, hits.Load())
		})
	}
}

func TestDo_SendsJarCookies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/login" {
			http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: "abc", Path: "/"})
			return
		}
		c, err := r.Cookie("sessionid")
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, c.Value)
	}))
	defer srv.Close()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	cfg := testConfig(0)
	cfg.Jar = jar
	client := New(cfg)
	assert.Same(t, jar, client.Jar())

	resp, err := client.Do(context.Background(), newRequest(t, http.MethodGet, srv.URL+"/login", nil))
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = client.Do(context.Background(), newRequest(t, http.MethodGet, srv.URL+"/cart", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "abc", string(body))
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	srv, hits := countingServer(t, http.StatusServiceUnavailable)
	cfg := testConfig(5)
	cfg.RetryWaitMin = time.Second
	cfg.RetryWaitMax = time.Second
	client := New(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Do(ctx, newRequest(t, http.MethodGet, srv.URL, nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int32(1), hits.Load())
}

func TestDo_ConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	client := New(testConfig(1))
	_, err = client.Do(context.Background(), newRequest(t, http.MethodGet, "http://"+addr+"/pizzas", nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GET /pizzas failed after 2 attempts")

	var netErr net.Error
	assert.True(t, errors.As(err, &netErr))
}

func TestBackoff_Capped(t *testing.T) {
	c := New(Config{RetryWaitMin: 100 * time.Millisecond, RetryWaitMax: 300 * time.Millisecond})
	for n := 1; n <= 40; n++ {
		d := c.backoff(n)
		assert.LessOrEqual(t, d, 375*time.Millisecond, "attempt %d", n)
		assert.Greater(t, d, time.Duration(0), "attempt %d", n)
	}
}

func TestIsRetryableError(t *testing.T) {
	assert.False(t, isRetryableError(nil))
	assert.False(t, isRetryableError(context.Canceled))
	assert.False(t, isRetryableError(errors.New("boom")))
	assert.True(t, isRetryableError(&url.Error{Op: "Get", URL: "x", Err: &net.OpError{Op: "dial", Err: errors.New("refused")}}))
}

func TestIsIdempotent(t *testing.T) {
	assert.True(t, isIdempotent(http.MethodGet))
	assert.True(t, isIdempotent(http.MethodHead))
	assert.False(t, isIdempotent(http.MethodPost))
	assert.False(t, isIdempotent(http.MethodPatch))
	assert.False(t, isIdempotent(http.MethodDelete))
}

func TestAddJitter(t *testing.T) {
	assert.Equal(t, time.Duration(0), addJitter(0))
	assert.Equal(t, time.Duration(0), addJitter(-time.Second))
	assert.Equal(t, time.Duration(1), addJitter(1))

	base := 100 * time.Millisecond
	for range 200 {
		d := addJitter(base)
		assert.GreaterOrEqual(t, d, 75*time.Millisecond)
		assert.LessOrEqual(t, d, 125*time.Millisecond)
	}
}
