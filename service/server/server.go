package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/brojonat/minisolscan/service/metrics"
	natspkg "github.com/brojonat/minisolscan/service/nats"
	"github.com/brojonat/minisolscan/service/network"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server represents the HTTP server for transaction lookups.
type Server struct {
	addr      string
	sessions  *Sessions
	fetcher   Fetcher
	history   History
	publisher natspkg.Publisher
	renderer  *TemplateRenderer
	policy    network.EndpointPolicy
	metrics   *metrics.Metrics
	logger    *slog.Logger
	server    *http.Server
}

// New creates a new HTTP server with the given dependencies.
// The history is optional - if nil, lookups are not recorded and the history endpoint answers 503.
// The publisher is optional - if nil, lookup events are not published.
// The metrics is optional - if nil, metrics endpoints won't be available.
func New(addr string, sessions *Sessions, fetcher Fetcher, history History, publisher natspkg.Publisher, m *metrics.Metrics, logger *slog.Logger) *Server {
	return &Server{
		addr:      addr,
		sessions:  sessions,
		fetcher:   fetcher,
		history:   history,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
		server: &http.Server{
			Addr:         addr,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// WithTemplates adds template rendering support to the server using embedded files
func (s *Server) WithTemplates() error {
	renderer, err := NewTemplateRenderer(s.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize templates: %w", err)
	}
	s.renderer = renderer
	s.logger.Info("HTML templates loaded from embedded files")
	return nil
}

// WithEndpointPolicy sets which networks sessions may select and look up
// on. Without it only the presets are dialed.
func (s *Server) WithEndpointPolicy(p network.EndpointPolicy) {
	s.policy = p
}

// Handler builds the routed handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	route := func(pattern, name string, h http.Handler) {
		mux.Handle(pattern, metrics.HTTPMetricsMiddleware(s.metrics, name)(h))
	}

	// Network and preference routes
	route("GET /api/v1/networks", "/api/v1/networks", handleListNetworks(s.sessions, s.policy, s.logger))
	route("GET /api/v1/network", "/api/v1/network", handleGetNetwork(s.sessions, s.logger))
	route("PUT /api/v1/network", "/api/v1/network", handleSelectNetwork(s.sessions, s.policy, s.metrics, s.logger))
	route("GET /api/v1/preferences", "/api/v1/preferences", handleGetPreferences(s.sessions, s.logger))
	route("PUT /api/v1/theme", "/api/v1/theme", handleSetTheme(s.sessions, s.metrics, s.logger))

	// Lookup routes
	route("GET /api/v1/signature-check", "/api/v1/signature-check", handleSignatureCheck())
	route("GET /api/v1/transactions/{signature}", "/api/v1/transactions", handleLookupTransaction(s.sessions, s.policy, s.fetcher, s.history, s.publisher, s.metrics, s.logger))
	route("GET /api/v1/lookups", "/api/v1/lookups", handleListLookups(s.history, s.logger))

	// HTML pages (if template renderer is configured)
	if s.renderer != nil {
		route("GET /{$}", "/", handleIndexPage(s.renderer, s.sessions, s.policy, s.fetcher, s.history, s.publisher, s.logger))
		route("POST /network", "/network", handleNetworkForm(s.sessions, s.policy, s.logger))
		route("POST /theme", "/theme", handleThemeForm(s.sessions, s.logger))
	}

	// Health check endpoint
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Prometheus metrics endpoint (if metrics collector is configured)
	if s.metrics != nil {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	return corsMiddleware(mux)
}

// Start starts the HTTP server. It blocks until the server stops and
// returns nil when stopped by Shutdown, even if Shutdown ran first.
func (s *Server) Start() error {
	s.server.Handler = s.Handler()

	s.logger.Info("starting HTTP server",
		"addr", s.addr,
		"history", s.history != nil,
		"events", s.publisher != nil,
		"html", s.renderer != nil,
		"custom_rpc", s.policy.AllowCustom,
	)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// corsMiddleware adds CORS headers to all responses and handles OPTIONS preflight requests.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, PUT, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "3600")

		// Handle preflight OPTIONS requests
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
