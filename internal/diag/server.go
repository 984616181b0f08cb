// Package diag serves liveness, readiness, Prometheus metrics and pprof for a
// running pizzacart process. It is off unless DIAG_HTTP_PORT is set.
package diag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/PizzaGo/pkg/health"
	"github.com/utafrali/PizzaGo/pkg/middleware"
)

// NewRouter creates the diagnostics router. gatherer is exposed on /metrics;
// nil means the default registry.
func NewRouter(healthHandler *health.Handler, gatherer prometheus.Gatherer, pprofCIDRs []string, logger *slog.Logger) http.Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Tracing())
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics())

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second))
		r.Get("/health/live", healthHandler.LivenessHandler())
		r.Get("/health/ready", healthHandler.ReadinessHandler())
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	})

	// CPU profiles run for up to 30s by default, so pprof stays outside the timeout group.
	middleware.RegisterPprof(r, pprofCIDRs, logger)
	return r
}

// Server is the diagnostics HTTP server.
type Server struct {
	httpServer *http.Server
	listener   net.Listener
	logger     *slog.Logger
	done       chan error
}

// NewServer creates a server for handler on the given port. Port 0 picks a
// free port; Addr reports it after Start.
func NewServer(port int, handler http.Handler, logger *slog.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		logger: logger,
		done:   make(chan error, 1),
	}
}

// Start binds the port and serves in the background. Bind errors are
// returned directly.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen diagnostics %s: %w", s.httpServer.Addr, err)
	}
	s.listener = ln
	s.logger.Info("starting diagnostics server", slog.String("addr", ln.Addr().String()))

	go func() {
		err := s.httpServer.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		s.done <- err
	}()
	return nil
}

// Addr is the bound address, empty before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Done delivers the serve error, nil after a clean Shutdown.
func (s *Server) Done() <-chan error {
	return s.done
}

// Shutdown stops the server, waiting for in-flight requests until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.listener == nil {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown diagnostics server: %w", err)
	}
	s.logger.Info("diagnostics server stopped")
	return nil
}
