package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{})

	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "http://localhost:8000", cfg.APIURL)
	assert.Equal(t, DialectSession, cfg.Dialect)
	assert.Equal(t, "/login/", cfg.LoginPath)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout())
	assert.Equal(t, 0, cfg.GetRetries)
	assert.Equal(t, 3*time.Second, cfg.NotifyTTL())
	assert.Equal(t, 1200*time.Millisecond, cfg.AuthRedirectDelay())
	assert.Equal(t, 5*time.Minute, cfg.CatalogCacheTTL())
	assert.Equal(t, uint32(5), cfg.CBMinRequests)
	assert.Equal(t, 0, cfg.DiagHTTPPort)
	assert.False(t, cfg.CacheEnabled())
	assert.False(t, cfg.OTELEnabled)
}

func TestLoad_ProcessEnvironment(t *testing.T) {
	t.Setenv("STOREFRONT_DIALECT", "token")
	t.Setenv("STOREFRONT_AUTH_TOKEN", "abc123")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DialectToken, cfg.Dialect)
	assert.Equal(t, "abc123", cfg.AuthToken)
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"STOREFRONT_API_URL":        "https://pizza.example.com/shop/",
		"STOREFRONT_DIALECT":        "legacy",
		"REDIS_ADDR":                "localhost:6379",
		"CATALOG_CACHE_TTL_SECONDS": "60",
		"NOTIFY_TTL_MS":             "500",
	})

	require.NoError(t, err)
	assert.Equal(t, DialectLegacy, cfg.Dialect)
	assert.True(t, cfg.CacheEnabled())
	assert.Equal(t, time.Minute, cfg.CatalogCacheTTL())
	assert.Equal(t, 500*time.Millisecond, cfg.NotifyTTL())
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]struct {
		env  map[string]string
		want string
	}{
		"bad url":          {map[string]string{"STOREFRONT_API_URL": "not a url"}, "STOREFRONT_API_URL"},
		"bad scheme":       {map[string]string{"STOREFRONT_API_URL": "ftp://pizza"}, "http or https"},
		"bad dialect":      {map[string]string{"STOREFRONT_DIALECT": "graphql"}, "STOREFRONT_DIALECT"},
		"bad log format":   {map[string]string{"LOG_FORMAT": "xml"}, "LOG_FORMAT"},
		"zero timeout":     {map[string]string{"STOREFRONT_HTTP_TIMEOUT_MS": "0"}, "STOREFRONT_HTTP_TIMEOUT_MS"},
		"negative retries": {map[string]string{"STOREFRONT_GET_RETRIES": "-1"}, "STOREFRONT_GET_RETRIES"},
		"negative delay":   {map[string]string{"AUTH_REDIRECT_DELAY_MS": "-5"}, "AUTH_REDIRECT_DELAY_MS"},
		"bad diag port":    {map[string]string{"DIAG_HTTP_PORT": "70000"}, "DIAG_HTTP_PORT"},
		"bad ratio":        {map[string]string{"CB_FAILURE_RATIO": "1.5"}, "CB_FAILURE_RATIO"},
		"bad sample rate":  {map[string]string{"OTEL_SAMPLE_RATE": "2"}, "OTEL_SAMPLE_RATE"},
		"bad login path":   {map[string]string{"STOREFRONT_LOGIN_PATH": "login"}, "STOREFRONT_LOGIN_PATH"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			cfg, err := LoadFrom(tc.env)
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoad_ParseError(t *testing.T) {
	_, err := LoadFrom(map[string]string{"NOTIFY_TTL_MS": "soon"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load pizzacart config")
}

func TestLoginURL(t *testing.T) {
	cfg := &Config{APIURL: "http://localhost:8000", LoginPath: "/login/"}
	assert.Equal(t, "http://localhost:8000/login/", cfg.LoginURL())

	cfg = &Config{APIURL: "https://pizza.example.com/shop/", LoginPath: "/accounts/login/"}
	assert.Equal(t, "https://pizza.example.com/accounts/login/", cfg.LoginURL())

	cfg = &Config{APIURL: "http://localhost:8000", LoginPath: "https://auth.example.com/login"}
	assert.Equal(t, "https://auth.example.com/login", cfg.LoginURL())
}
