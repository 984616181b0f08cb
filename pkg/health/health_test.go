package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func up(context.Context) error { return nil }

func down(msg string) Checker {
	return func(context.Context) error { return errors.New(msg) }
}

func serve(t *testing.T, handler http.HandlerFunc) (int, Response) {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return rec.Code, resp
}

func TestLivenessHandler(t *testing.T) {
	h := NewHandler()
	h.RegisterCritical("storefront", down("unreachable"))

	code, resp := serve(t, h.LivenessHandler())
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusUp, resp.Status)
	assert.Empty(t, resp.Checks)
	assert.False(t, resp.Timestamp.IsZero())
}

func TestReadinessHandler(t *testing.T) {
	tests := []struct {
		name        string
		critical    map[string]Checker
		nonCritical map[string]Checker
		wantCode    int
		wantStatus  Status
	}{
		{
			name:       "no checks",
			wantCode:   http.StatusOK,
			wantStatus: StatusUp,
		},
		{
			name:        "all up",
			critical:    map[string]Checker{"storefront": up},
			nonCritical: map[string]Checker{"catalog_cache": up},
			wantCode:    http.StatusOK,
			wantStatus:  StatusUp,
		},
		{
			name:        "cache down degrades",
			critical:    map[string]Checker{"storefront": up},
			nonCritical: map[string]Checker{"catalog_cache": down("redis unreachable")},
			wantCode:    http.StatusOK,
			wantStatus:  StatusDegraded,
		},
		{
			name:        "storefront down",
			critical:    map[string]Checker{"storefront": down("connection refused")},
			nonCritical: map[string]Checker{"catalog_cache": up},
			wantCode:    http.StatusServiceUnavailable,
			wantStatus:  StatusDown,
		},
		{
			name:        "everything down",
			critical:    map[string]Checker{"storefront": down("connection refused")},
			nonCritical: map[string]Checker{"catalog_cache": down("redis unreachable")},
			wantCode:    http.StatusServiceUnavailable,
			wantStatus:  StatusDown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler()
			for name, c := range tt.critical {
				h.RegisterCritical(name, c)
			}
			for name, c := range tt.nonCritical {
				h.RegisterNonCritical(name, c)
			}

			code, resp := serve(t, h.ReadinessHandler())
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.Len(t, resp.Checks, len(tt.critical)+len(tt.nonCritical))
			for name := range tt.critical {
				assert.True(t, resp.Checks[name].Critical, name)
			}
			for name := range tt.nonCritical {
				assert.False(t, resp.Checks[name].Critical, name)
			}
		})
	}
}

func TestCheck_ReportsErrorAndLatency(t *testing.T) {
	h := NewHandler()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var ticks atomic.Int64
	h.now = func() time.Time {
		return base.Add(time.Duration(ticks.Add(1)) * 10 * time.Millisecond)
	}
	h.RegisterNonCritical("catalog_cache", down("redis unreachable"))

	resp := h.Check(context.Background())
	res := resp.Checks["catalog_cache"]
	assert.Equal(t, StatusDown, res.Status)
	assert.Equal(t, "redis unreachable", res.Error)
	assert.Equal(t, int64(10), res.LatencyMS)
}

func TestCheck_RunsConcurrentlyUnderTimeout(t *testing.T) {
	h := NewHandler(WithTimeout(50 * time.Millisecond))
	slow := func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}
	h.RegisterCritical("storefront", slow)
	h.RegisterNonCritical("catalog_cache", slow)

	start := time.Now()
	resp := h.Check(context.Background())
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, StatusDown, resp.Status)
	assert.Equal(t, context.DeadlineExceeded.Error(), resp.Checks["storefront"].Error)
	assert.Equal(t, context.DeadlineExceeded.Error(), resp.Checks["catalog_cache"].Error)
}

func TestRegister_ReplacesExisting(t *testing.T) {
	h := NewHandler()
	h.RegisterCritical("storefront", down("fail"))
	h.RegisterNonCritical("storefront", down("fail"))

	resp := h.Check(context.Background())
	assert.Equal(t, StatusDegraded, resp.Status)
	assert.Equal(t, []string{"storefront"}, h.Names())
}

func TestNames_Sorted(t *testing.T) {
	h := NewHandler()
	h.RegisterNonCritical("catalog_cache", up)
	h.RegisterCritical("storefront", up)
	h.RegisterNonCritical("auth", up)

	assert.Equal(t, []string{"auth", "catalog_cache", "storefront"}, h.Names())
}
