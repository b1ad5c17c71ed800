package server

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/menulens/menulens/internal/live"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const healthTimeout = 2 * time.Second

type Server struct {
	Engine   *gin.Engine
	Addr     string
	checkers map[string]HealthChecker
	sessions StatusReporter
}

// HealthChecker is an interface for components that can report their health status.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// StatusReporter reports the live session states shown on /health.
type StatusReporter interface {
	Statuses() []live.Status
}

// Option configures a Server.
type Option func(*Server)

// WithHealthCheck adds a dependency checked by /health under name.
func WithHealthCheck(name string, checker HealthChecker) Option {
	return func(s *Server) {
		s.checkers[name] = checker
	}
}

// WithSessions reports live session states on /health.
func WithSessions(reporter StatusReporter) Option {
	return func(s *Server) {
		s.sessions = reporter
	}
}

// WithMetrics serves gatherer on /metrics.
func WithMetrics(gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.Engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
}

func New(addr string, mode string, opts ...Option) *Server {
	// Set Gin mode based on configuration
	if mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	s := &Server{
		Engine:   r,
		Addr:     addr,
		checkers: make(map[string]HealthChecker),
	}
	for _, opt := range opts {
		opt(s)
	}

	// Health check endpoint with dependency connectivity verification
	r.GET("/health", s.healthHandler)

	return s
}

// healthHandler reports unhealthy when a dependency is unreachable. Sessions
// that are still syncing do not fail the check; their state is reported.
func (s *Server) healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	names := make([]string, 0, len(s.checkers))
	for name := range s.checkers {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	deps := make(map[string]string, len(names))
	for _, name := range names {
		if err := s.checkers[name].Ping(ctx); err != nil {
			slog.Error("Health check failed: dependency unreachable", "dependency", name, "error", err)
			deps[name] = "unreachable"
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "connected"
	}

	body := gin.H{
		"status":       "healthy",
		"dependencies": deps,
	}
	if status != http.StatusOK {
		body["status"] = "unhealthy"
	}
	if s.sessions != nil {
		body["sessions"] = s.sessions.Statuses()
	}

	c.JSON(status, body)
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("Starting HTTP Server...", "address", s.Addr)

	go func() {
		<-ctx.Done()
		slog.Info("Stopping HTTP Server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP Server forced to shutdown", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
