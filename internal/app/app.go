// Package app wires the pizzacart dependency graph: configuration, logging,
// tracing, the storefront client, the cart controller, the catalog and the
// optional diagnostics server.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/PizzaGo/internal/cartsync"
	"github.com/utafrali/PizzaGo/internal/catalog"
	"github.com/utafrali/PizzaGo/internal/config"
	"github.com/utafrali/PizzaGo/internal/diag"
	"github.com/utafrali/PizzaGo/internal/notify"
	"github.com/utafrali/PizzaGo/internal/storefront"
	"github.com/utafrali/PizzaGo/pkg/cache"
	apperrors "github.com/utafrali/PizzaGo/pkg/errors"
	"github.com/utafrali/PizzaGo/pkg/health"
	"github.com/utafrali/PizzaGo/pkg/httpclient"
	"github.com/utafrali/PizzaGo/pkg/logger"
	"github.com/utafrali/PizzaGo/pkg/tracing"
)

// ServiceName tags logs, traces and metrics.
const ServiceName = "pizzacart"

// Version is stamped at build time.
var Version = "dev"

const slowRedisCommand = 50 * time.Millisecond

// App holds the wired components of one pizzacart process.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	Storefront *storefront.Client
	Store      *cartsync.Store
	Notifier   *notify.Notifier
	Cart       *cartsync.Controller
	Catalog    *catalog.Service

	rdb             *redis.Client
	diagServer      *diag.Server
	shutdownTracing tracing.ShutdownFunc
}

// NewApp builds the dependency graph. nav decides what an auth redirect does
// in the calling front end.
func NewApp(ctx context.Context, cfg *config.Config, log *slog.Logger, nav cartsync.Navigator) (*App, error) {
	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tracingCfg := tracing.DefaultConfig(ServiceName)
	tracingCfg.ServiceVersion = Version
	tracingCfg.Environment = cfg.Environment
	tracingCfg.Enabled = cfg.OTELEnabled
	tracingCfg.OTLPEndpoint = cfg.OTELEndpoint
	tracingCfg.SampleRate = cfg.OTELSampleRate
	shutdownTracing, err := tracing.InitTracer(initCtx, tracingCfg)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	built := false
	defer func() {
		if built {
			return
		}
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn("tracer shutdown failed", slog.String("error", err.Error()))
		}
	}()

	dialect, err := storefront.DialectByName(cfg.Dialect)
	if err != nil {
		return nil, err
	}

	jar, err := storefront.NewCookieJar(cfg.APIURL, cfg.SessionCookie, cfg.CSRFToken)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	httpCfg := httpclient.DefaultConfig()
	httpCfg.Timeout = cfg.HTTPTimeout()
	httpCfg.MaxRetries = cfg.GetRetries
	httpCfg.Jar = jar

	cbCfg := httpclient.DefaultCircuitBreakerConfig("storefront")
	cbCfg.MaxRequests = cfg.CBMaxRequests
	cbCfg.Interval = time.Duration(cfg.CBInterval) * time.Second
	cbCfg.Timeout = time.Duration(cfg.CBTimeout) * time.Second
	cbCfg.FailureRatio = cfg.CBFailureRatio
	cbCfg.MinRequests = cfg.CBMinRequests

	doer := httpclient.NewCircuitBreakerClient(httpclient.New(httpCfg), cbCfg, log).
		WithFallback(func(ctx context.Context, err error) (*http.Response, error) {
			return nil, apperrors.NetworkFailure(fmt.Errorf("storefront temporarily unavailable: %w", err))
		})

	client, err := storefront.NewClient(doer, storefront.Options{
		BaseURL:   cfg.APIURL,
		Dialect:   dialect,
		AuthToken: cfg.AuthToken,
		CSRFToken: cfg.CSRFToken,
		Jar:       jar,
	}, log)
	if err != nil {
		return nil, err
	}
	log.Debug("storefront client ready",
		slog.String("url", client.BaseURL()),
		slog.String("dialect", dialect.Name),
	)

	notifier := notify.New(cfg.NotifyTTL(), log)
	store := cartsync.NewStore(log)
	controller := cartsync.NewController(client, store, notifier, nav, cartsync.Options{
		LoginURL:      cfg.LoginURL(),
		RedirectDelay: cfg.AuthRedirectDelay(),
	}, log)

	a := &App{
		cfg:             cfg,
		logger:          log,
		Storefront:      client,
		Store:           store,
		Notifier:        notifier,
		Cart:            controller,
		shutdownTracing: shutdownTracing,
	}

	var catalogCache catalog.Cache
	if cfg.CacheEnabled() {
		rc, err := a.connectCache(initCtx)
		if err != nil {
			log.Warn("catalog cache unavailable, reading the storefront directly",
				slog.String("addr", cfg.RedisAddr),
				slog.String("error", err.Error()),
			)
		} else {
			catalogCache = rc
		}
	}
	a.Catalog = catalog.NewService(client, catalogCache, log)

	if cfg.DiagHTTPPort > 0 {
		a.diagServer = diag.NewServer(cfg.DiagHTTPPort, a.diagRouter(), log)
	}
	built = true
	return a, nil
}

func (a *App) connectCache(ctx context.Context) (*catalog.RedisCache, error) {
	redisCfg := cache.DefaultRedisConfig()
	redisCfg.Addr = a.cfg.RedisAddr
	redisCfg.Password = a.cfg.RedisPassword
	redisCfg.DB = a.cfg.RedisDB

	rdb, err := cache.NewRedisClient(ctx, redisCfg)
	if err != nil {
		return nil, err
	}
	a.rdb = rdb

	if err := cache.RegisterPoolMetrics(prometheus.DefaultRegisterer, rdb, ServiceName); err != nil {
		a.logger.Warn("redis pool metrics not registered", slog.String("error", err.Error()))
	}
	cache.SetSlowCommandLogging(slowRedisCommand, a.logger)

	a.logger.Info("connected to Redis",
		slog.String("addr", a.cfg.RedisAddr),
		slog.Int("db", a.cfg.RedisDB),
	)
	return catalog.NewRedisCache(rdb, a.cfg.CatalogCacheTTL()), nil
}

func (a *App) diagRouter() http.Handler {
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("storefront", a.Storefront.Ping)
	if a.rdb != nil {
		healthHandler.RegisterNonCritical("catalog_cache", func(ctx context.Context) error {
			return a.rdb.Ping(ctx).Err()
		})
	}
	return diag.NewRouter(healthHandler, prometheus.DefaultGatherer, a.cfg.DiagPprofCIDRs, a.logger)
}

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Config returns the configuration the app was built with.
func (a *App) Config() *config.Config {
	return a.cfg
}

// DiagAddr is the bound diagnostics address, empty when disabled.
func (a *App) DiagAddr() string {
	if a.diagServer == nil {
		return ""
	}
	return a.diagServer.Addr()
}

// Run starts the background components, runs fn and shuts everything down.
func (a *App) Run(ctx context.Context, fn func(context.Context) error) error {
	if a.diagServer != nil {
		if err := a.diagServer.Start(); err != nil {
			_ = a.Shutdown()
			return err
		}
	}

	runErr := fn(ctx)
	if err := a.Shutdown(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// Shutdown stops all components. Pending login redirects and notification
// timers are cancelled.
func (a *App) Shutdown() error {
	a.logger.Debug("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	a.Cart.Close()
	a.Notifier.Close()

	if a.diagServer != nil {
		if err := a.diagServer.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("diagnostics shutdown error", slog.String("error", err.Error()))
		}
	}

	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}

	if err := a.shutdownTracing(shutdownCtx); err != nil {
		a.logger.Error("tracing shutdown error", slog.String("error", err.Error()))
		return fmt.Errorf("flush traces: %w", err)
	}
	return nil
}

// NewLogger builds the process logger from configuration. Output goes to
// LOG_FILE when set, otherwise to fallback; the returned closer releases
// the file.
func NewLogger(cfg *config.Config, fallback io.Writer) (*slog.Logger, io.Closer, error) {
	if cfg.LogFile == "" {
		return logger.NewWithWriter(ServiceName, cfg.LogLevel, cfg.LogFormat, fallback), nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return logger.NewWithWriter(ServiceName, cfg.LogLevel, cfg.LogFormat, f), f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
