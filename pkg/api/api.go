package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ip-witness/pkg/config"
	"ip-witness/pkg/logging"
	"ip-witness/pkg/resolver"
	"ip-witness/pkg/telemetry"
)

// Server represents the API server
type Server struct {
	handler    http.Handler
	httpServer *http.Server
	logger     *logging.Logger

	// Dependencies
	resolver resolver.Resolver
	metrics  *telemetry.Metrics

	// Resolution target and proxy trust, fixed at startup
	hostname    string
	trustedHops int

	// Metadata
	version   string
	startTime time.Time
}

// Config holds API server configuration
type Config struct {
	ListenAddress string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	IdleTimeout   time.Duration

	// Hostname is the host whose IPv4 address /aws-public-ip reports
	Hostname string

	// TrustedHops is the reverse proxy trust contract for /client-ip
	TrustedHops int

	Resolver resolver.Resolver
	Metrics  *telemetry.Metrics
	Logger   *logging.Logger
	Version  string
}

// New creates a new API server
func New(cfg *Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewDefault()
	}

	s := &Server{
		resolver:    cfg.Resolver,
		metrics:     cfg.Metrics,
		hostname:    cfg.Hostname,
		trustedHops: cfg.TrustedHops,
		logger:      cfg.Logger,
		version:     cfg.Version,
		startTime:   time.Now(),
	}

	mux := http.NewServeMux()

	// IP reporting
	mux.HandleFunc("GET /aws-public-ip", s.handlePublicIP)
	mux.HandleFunc("GET /client-ip", s.handleClientIP)

	// API documentation
	mux.HandleFunc("GET /openapi.json", s.handleOpenAPI)
	mux.HandleFunc("GET /docs", s.handleDocs)

	// Health checks
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/healthz", s.handleHealthz) // Kubernetes liveness probe
	mux.HandleFunc("/readyz", s.handleReadyz)   // Kubernetes readiness probe

	// Process diagnostics
	mux.HandleFunc("GET /api/system", s.handleSystem)

	// Apply middleware
	handler := s.loggingMiddleware(mux)
	handler = s.requestIDMiddleware(handler)
	handler = s.corsMiddleware(handler)

	readTimeout := cfg.ReadTimeout
	if readTimeout == 0 {
		readTimeout = 10 * time.Second
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout == 0 {
		writeTimeout = 10 * time.Second
	}
	idleTimeout := cfg.IdleTimeout
	if idleTimeout == 0 {
		idleTimeout = 60 * time.Second
	}

	s.handler = handler
	s.httpServer = &http.Server{
		Addr:         cfg.ListenAddress,
		Handler:      handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	return s
}

// FromAppConfig builds the API server config from the application config
func FromAppConfig(cfg *config.Config, res resolver.Resolver, metrics *telemetry.Metrics, logger *logging.Logger, version string) (*Config, error) {
	hostname, err := cfg.Hostname()
	if err != nil {
		return nil, err
	}

	return &Config{
		ListenAddress: cfg.Server.ListenAddress,
		ReadTimeout:   cfg.Server.ReadTimeout,
		WriteTimeout:  cfg.Server.WriteTimeout,
		IdleTimeout:   cfg.Server.IdleTimeout,
		Hostname:      hostname,
		TrustedHops:   cfg.Proxy.TrustedHops,
		Resolver:      res,
		Metrics:       metrics,
		Logger:        logger,
		Version:       version,
	}, nil
}

// Start starts the API server
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting API server", "address", s.httpServer.Addr)

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	}
}

// Shutdown gracefully shuts down the API server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")
	return s.httpServer.Shutdown(ctx)
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to encode JSON response", "error", err)
	}
}

// writeError writes an error response
func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string) {
	s.writeJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Code:    statusCode,
		Message: message,
	})
}

// getUptime returns the server uptime as a string
func (s *Server) getUptime() string {
	uptime := time.Since(s.startTime)

	hours := int(uptime.Hours())
	minutes := int(uptime.Minutes()) % 60
	seconds := int(uptime.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
	}
	if minutes > 0 {
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}
