package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	apihandler "github.com/newthinker/chartwise/internal/api/handler/api"
	"github.com/newthinker/chartwise/internal/api/job"
	"github.com/newthinker/chartwise/internal/api/middleware"
	"github.com/newthinker/chartwise/internal/metrics"
	"github.com/newthinker/chartwise/internal/notifier"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server represents the HTTP server for chartwise
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
}

// Config holds server configuration
type Config struct {
	Host   string
	Port   int
	APIKey string
	// MetricsPath mounts the Prometheus handler; empty disables it.
	MetricsPath string
	// WriteTimeout bounds a whole request, agent calls included.
	WriteTimeout time.Duration
}

// Dependencies are the collaborators the handlers run against.
type Dependencies struct {
	App     apihandler.AnalysisApp
	Jobs    *job.Store
	Metrics *metrics.Registry
	// Notifier is told about finished batch jobs; nil disables it.
	Notifier notifier.Notifier
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps Dependencies, logger *zap.Logger) (*Server, error) {
	if deps.App == nil {
		return nil, fmt.Errorf("server requires an app")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Jobs == nil {
		deps.Jobs = job.NewStore(100, time.Hour)
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 3 * time.Minute
	}

	mux := http.NewServeMux()

	var handler http.Handler = mux
	handler = metrics.LoggingMiddleware(logger)(handler)
	if deps.Metrics != nil {
		handler = metrics.HTTPMiddleware(deps.Metrics)(handler)
	}

	s := &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      handler,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
		mux:    mux,
	}

	s.setupRoutes(cfg, deps)
	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(cfg Config, deps Dependencies) {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	if cfg.MetricsPath != "" && deps.Metrics != nil {
		s.mux.Handle("GET "+cfg.MetricsPath, promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	auth := middleware.APIKeyAuth(cfg.APIKey)
	protected := func(pattern string, h http.HandlerFunc) {
		s.mux.Handle(pattern, auth(h))
	}

	indicators := apihandler.NewIndicatorsHandler(deps.App)
	protected("POST /api/v1/indicators", indicators.Compute)
	protected("GET /api/v1/indicators/{symbol}", indicators.Get)

	analysis := apihandler.NewAnalysisHandler(deps.App, deps.Jobs, deps.Notifier, s.logger)
	protected("POST /api/v1/analyze/{symbol}", analysis.Analyze)
	protected("POST /api/v1/analyze", analysis.Batch)
	protected("GET /api/v1/jobs", analysis.Jobs)
	protected("GET /api/v1/jobs/{id}", analysis.Job)
}

// Handler returns the fully wrapped root handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
