package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	pkgconfig "github.com/utafrali/PizzaGo/pkg/config"
)

// Storefront backend dialects.
const (
	DialectSession = "session"
	DialectToken   = "token"
	DialectLegacy  = "legacy"
)

// Config holds all configuration for the pizzacart client.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"text"`
	LogFile     string `env:"LOG_FILE"`

	// Storefront backend
	APIURL        string `env:"STOREFRONT_API_URL" envDefault:"http://localhost:8000"`
	Dialect       string `env:"STOREFRONT_DIALECT" envDefault:"session"`
	AuthToken     string `env:"STOREFRONT_AUTH_TOKEN"`
	SessionCookie string `env:"STOREFRONT_SESSION_COOKIE"`
	CSRFToken     string `env:"STOREFRONT_CSRF_TOKEN"`
	LoginPath     string `env:"STOREFRONT_LOGIN_PATH" envDefault:"/login/"`
	HTTPTimeoutMs int    `env:"STOREFRONT_HTTP_TIMEOUT_MS" envDefault:"10000"`
	GetRetries    int    `env:"STOREFRONT_GET_RETRIES" envDefault:"0"`

	// Cart view behaviour
	NotifyTTLMs         int `env:"NOTIFY_TTL_MS" envDefault:"3000"`
	AuthRedirectDelayMs int `env:"AUTH_REDIRECT_DELAY_MS" envDefault:"1200"`

	// Circuit breaker settings for storefront calls
	CBMaxRequests  uint32  `env:"CB_MAX_REQUESTS" envDefault:"1"`
	CBInterval     int     `env:"CB_INTERVAL_SECONDS" envDefault:"60"`
	CBTimeout      int     `env:"CB_TIMEOUT_SECONDS" envDefault:"30"`
	CBFailureRatio float64 `env:"CB_FAILURE_RATIO" envDefault:"0.5"`
	CBMinRequests  uint32  `env:"CB_MIN_REQUESTS" envDefault:"5"`

	// Catalog cache (Redis). An empty address disables caching.
	RedisAddr           string `env:"REDIS_ADDR"`
	RedisPassword       string `env:"REDIS_PASSWORD"`
	RedisDB             int    `env:"REDIS_DB" envDefault:"0"`
	CatalogCacheTTLSecs int    `env:"CATALOG_CACHE_TTL_SECONDS" envDefault:"300"`

	// Diagnostics HTTP server; 0 disables it.
	DiagHTTPPort   int      `env:"DIAG_HTTP_PORT" envDefault:"0"`
	DiagPprofCIDRs []string `env:"DIAG_PPROF_ALLOWED_CIDRS" envSeparator:"," envDefault:"127.0.0.1/32,::1/128"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load pizzacart config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFrom reads configuration from the given variables instead of the
// process environment.
func LoadFrom(environ map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.LoadFrom(cfg, environ); err != nil {
		return nil, fmt.Errorf("load pizzacart config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks configuration invariants. Callers that override fields
// after Load (command-line flags) run it again.
func (c *Config) Validate() error {
	u, err := url.ParseRequestURI(c.APIURL)
	if err != nil {
		return fmt.Errorf("invalid STOREFRONT_API_URL %q: %w", c.APIURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("STOREFRONT_API_URL must be http or https, got %q", u.Scheme)
	}
	switch c.Dialect {
	case DialectSession, DialectToken, DialectLegacy:
	default:
		return fmt.Errorf("STOREFRONT_DIALECT must be one of session, token, legacy; got %q", c.Dialect)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	if !strings.HasPrefix(c.LoginPath, "/") && !strings.HasPrefix(c.LoginPath, "http") {
		return fmt.Errorf("STOREFRONT_LOGIN_PATH must be a path or absolute URL, got %q", c.LoginPath)
	}
	for name, v := range map[string]int{
		"STOREFRONT_HTTP_TIMEOUT_MS": c.HTTPTimeoutMs,
		"NOTIFY_TTL_MS":              c.NotifyTTLMs,
		"CATALOG_CACHE_TTL_SECONDS":  c.CatalogCacheTTLSecs,
		"CB_TIMEOUT_SECONDS":         c.CBTimeout,
	} {
		if v <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, v)
		}
	}
	if c.AuthRedirectDelayMs < 0 {
		return fmt.Errorf("AUTH_REDIRECT_DELAY_MS must not be negative, got %d", c.AuthRedirectDelayMs)
	}
	if c.GetRetries < 0 {
		return fmt.Errorf("STOREFRONT_GET_RETRIES must not be negative, got %d", c.GetRetries)
	}
	if c.DiagHTTPPort < 0 || c.DiagHTTPPort > 65535 {
		return fmt.Errorf("invalid DIAG_HTTP_PORT: %d", c.DiagHTTPPort)
	}
	if c.CBFailureRatio <= 0 || c.CBFailureRatio > 1.0 {
		return fmt.Errorf("CB_FAILURE_RATIO must be in (0, 1], got %f", c.CBFailureRatio)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	return nil
}

// LoginURL resolves the login path against the storefront base URL.
func (c *Config) LoginURL() string {
	base, err := url.Parse(c.APIURL)
	if err != nil {
		return c.LoginPath
	}
	ref, err := url.Parse(c.LoginPath)
	if err != nil {
		return c.LoginPath
	}
	return base.ResolveReference(ref).String()
}

// HTTPTimeout is the per-request timeout for storefront calls.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutMs) * time.Millisecond
}

// NotifyTTL is how long a notification stays visible.
func (c *Config) NotifyTTL() time.Duration {
	return time.Duration(c.NotifyTTLMs) * time.Millisecond
}

// AuthRedirectDelay is the pause between an auth failure and the login redirect.
func (c *Config) AuthRedirectDelay() time.Duration {
	return time.Duration(c.AuthRedirectDelayMs) * time.Millisecond
}

// CatalogCacheTTL is the lifetime of cached catalog entries.
func (c *Config) CatalogCacheTTL() time.Duration {
	return time.Duration(c.CatalogCacheTTLSecs) * time.Second
}

// CacheEnabled reports whether a Redis address is configured.
func (c *Config) CacheEnabled() bool {
	return c.RedisAddr != ""
}
