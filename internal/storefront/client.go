// Package storefront is the REST client for the pizza storefront backends.
package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/utafrali/PizzaGo/pkg/httpclient"
	"github.com/utafrali/PizzaGo/pkg/logger"
	"github.com/utafrali/PizzaGo/pkg/tracing"
)

const (
	tracerName  = "storefront"
	maxBodySize = 4 << 20
)

// HTTPDoer is the interface for executing HTTP requests.
// Both httpclient.Client and httpclient.CircuitBreakerClient satisfy this.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Options configures a Client.
type Options struct {
	BaseURL   string
	Dialect   Dialect
	AuthToken string
	// CSRFToken is sent when the jar holds no csrftoken cookie.
	CSRFToken string
	// Jar is the cookie jar used by the underlying HTTP client; the client
	// reads the CSRF cookie from it.
	Jar http.CookieJar
}

// Client talks to one storefront backend in its dialect.
type Client struct {
	http         HTTPDoer
	base         *url.URL
	dialect      Dialect
	authToken    string
	fallbackCSRF string
	jar          http.CookieJar
	logger       *slog.Logger
}

// NewClient creates a storefront client.
func NewClient(doer HTTPDoer, opts Options, log *slog.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse storefront url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("storefront url %q must be absolute", opts.BaseURL)
	}
	if opts.Dialect.Name == "" {
		opts.Dialect = SessionDialect()
	}
	return &Client{
		http:         doer,
		base:         base,
		dialect:      opts.Dialect,
		authToken:    opts.AuthToken,
		fallbackCSRF: opts.CSRFToken,
		jar:          opts.Jar,
		logger:       log,
	}, nil
}

// Dialect returns the backend dialect the client speaks.
func (c *Client) Dialect() Dialect {
	return c.dialect
}

// BaseURL returns the storefront base URL.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Ping checks that the backend answers the product list.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, "ping", http.MethodGet, c.dialect.Products, nil, nil)
	return err
}

func (c *Client) resolve(path string, query url.Values) *url.URL {
	u := *c.base
	u.Path = strings.TrimRight(c.base.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return &u
}

// do sends one request and returns the response body of a 2xx answer.
// Failures come back classified into the pkg/errors taxonomy.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body any) (data []byte, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "storefront."+op,
		attribute.String("http.method", method),
		attribute.String("storefront.path", path),
		attribute.String("storefront.dialect", c.dialect.Name),
	)
	defer func() { tracing.EndSpan(span, err) }()

	correlationID := logger.CorrelationIDFromContext(ctx)
	if correlationID == "" {
		correlationID = uuid.NewString()
		ctx = logger.WithCorrelationID(ctx, correlationID)
	}
	log := logger.WithContext(ctx, c.logger)

	var reader io.Reader = http.NoBody
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal %s request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	u := c.resolve(path, query)
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Correlation-ID", correlationID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	start := time.Now()
	resp, err := c.http.Do(ctx, req)
	if err != nil {
		err = httpclient.ClassifyError(err)
		observeRequest(op, outcomeFor(0, err), time.Since(start))
		log.WarnContext(ctx, "storefront request failed",
			slog.String("operation", op),
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	observeRequest(op, outcomeFor(resp.StatusCode, nil), time.Since(start))

	if !httpclient.IsSuccess(resp.StatusCode) {
		appErr := httpclient.ParseResponseError(resp)
		log.InfoContext(ctx, "storefront rejected request",
			slog.String("operation", op),
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
			slog.String("code", appErr.Code),
		)
		return nil, appErr
	}

	data, err = io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, httpclient.ClassifyError(fmt.Errorf("read %s response: %w", op, err))
	}

	log.DebugContext(ctx, "storefront request",
		slog.String("operation", op),
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)
	return data, nil
}
