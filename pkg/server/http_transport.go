package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/NERVsystems/greenroute/pkg/core"
	"github.com/NERVsystems/greenroute/pkg/monitoring"
)

// HTTPTransportConfig holds configuration for the HTTP transport
type HTTPTransportConfig struct {
	Addr           string  `json:"addr"`             // HTTP server address (e.g., ":7082")
	BaseURL        string  `json:"base_url"`         // Base URL for service discovery
	AuthType       string  `json:"auth_type"`        // Authentication type: "bearer", "basic", "none"
	AuthToken      string  `json:"auth_token"`       // Bearer token, or user:password / user:bcrypt-hash
	MCPEndpoint    string  `json:"mcp_endpoint"`     // Streamable HTTP endpoint path (default: "/mcp")
	RateLimit      float64 `json:"rate_limit"`       // Requests per second per IP (0 = disabled)
	RateBurst      int     `json:"rate_burst"`       // Burst size for rate limiter
	MaxRequestSize int64   `json:"max_request_size"` // Maximum request body size in bytes
	MaxHeaderBytes int     `json:"max_header_bytes"` // Maximum header size in bytes
	TLSCertFile    string  `json:"tls_cert_file"`    // Path to TLS certificate file
	TLSKeyFile     string  `json:"tls_key_file"`     // Path to TLS private key file
	ForceHTTPS     bool    `json:"force_https"`      // Redirect plain HTTP requests to HTTPS
	EnableMetrics  bool    `json:"enable_metrics"`   // Serve Prometheus metrics on /metrics
}

// DefaultHTTPTransportConfig returns sensible defaults
func DefaultHTTPTransportConfig() HTTPTransportConfig {
	return HTTPTransportConfig{
		Addr:           ":7082",
		AuthType:       "none",
		MCPEndpoint:    "/mcp",
		RateLimit:      10,
		RateBurst:      20,
		MaxRequestSize: 10 << 20, // 10 MB
		MaxHeaderBytes: 1 << 20,  // 1 MB
		EnableMetrics:  true,
	}
}

// HTTPTransport serves the MCP streamable HTTP endpoint next to the REST
// API, health probes and metrics.
type HTTPTransport struct {
	config        HTTPTransportConfig
	logger        *slog.Logger
	mcpServer     *mcpserver.StreamableHTTPServer
	api           http.Handler
	mux           *http.ServeMux
	httpSrv       *http.Server
	rateLimiter   *RateLimiter
	healthChecker *monitoring.HealthChecker
	mu            sync.RWMutex
}

// NewHTTPTransport creates a new HTTP transport instance. api may be nil,
// in which case no REST routes are mounted.
func NewHTTPTransport(mcpServer *mcpserver.MCPServer, api http.Handler, config HTTPTransportConfig, logger *slog.Logger) *HTTPTransport {
	if logger == nil {
		logger = slog.Default()
	}
	if config.MCPEndpoint == "" {
		config.MCPEndpoint = "/mcp"
	}
	if config.AuthType == "" {
		config.AuthType = "none"
	}
	if config.MaxRequestSize <= 0 {
		config.MaxRequestSize = 10 << 20
	}

	if config.AuthType == "bearer" && config.AuthToken != "" {
		if err := core.ValidateAuthToken(config.AuthToken); err != nil {
			logger.Warn("weak authentication token detected", "error", err.Error())
		}
	}

	streamable := mcpserver.NewStreamableHTTPServer(
		mcpServer,
		mcpserver.WithEndpointPath(config.MCPEndpoint),
	)

	transport := &HTTPTransport{
		config:    config,
		logger:    logger,
		mcpServer: streamable,
		api:       api,
		mux:       http.NewServeMux(),
	}

	if config.RateLimit > 0 {
		burst := config.RateBurst
		if burst < 1 {
			burst = 1
		}
		transport.rateLimiter = NewRateLimiter(rate.Limit(config.RateLimit), burst)
	}

	transport.setupRoutes()

	return transport
}

// SetHealthChecker sets the health checker for the HTTP transport
func (t *HTTPTransport) SetHealthChecker(hc *monitoring.HealthChecker) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.healthChecker = hc
}

// setupRoutes configures all HTTP routes
func (t *HTTPTransport) setupRoutes() {
	t.mux.HandleFunc("/", t.httpsEnforcement(t.handleServiceDiscovery))

	// Probes and metrics are unauthenticated
	t.mux.HandleFunc("/health", t.handleHealth)
	t.mux.HandleFunc("/ready", t.handleReady)
	t.mux.HandleFunc("/live", t.handleLive)
	if t.config.EnableMetrics {
		t.mux.Handle("/metrics", promhttp.Handler())
	}

	protected := func(h http.Handler) http.Handler {
		h = t.authMiddleware(h)
		if t.rateLimiter != nil {
			h = t.rateLimiter.Middleware(h)
		}
		return t.httpsEnforcement(h.ServeHTTP)
	}

	t.mux.Handle(t.config.MCPEndpoint, protected(t.mcpServer))
	if t.api != nil {
		t.mux.Handle(APIPrefix, protected(t.api))
	}
}

// Handler returns the routed handler wrapped in the middleware chain.
func (t *HTTPTransport) Handler() http.Handler {
	handler := http.Handler(t.mux)
	handler = TracingMiddleware()(handler)
	handler = LoggingMiddleware(t.logger)(handler)
	handler = SecurityHeaders(handler)
	handler = RequestSizeLimiter(t.config.MaxRequestSize)(handler)
	return handler
}

// httpsEnforcement redirects HTTP requests to HTTPS if ForceHTTPS is enabled
func (t *HTTPTransport) httpsEnforcement(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if t.config.ForceHTTPS && r.TLS == nil {
			httpsURL := "https://" + r.Host + r.URL.RequestURI()

			t.logger.Info("redirecting HTTP request to HTTPS",
				"client_ip", getIP(r),
				"original_url", r.URL.String(),
				"redirect_url", httpsURL)

			http.Redirect(w, r, httpsURL, http.StatusMovedPermanently)
			return
		}

		next(w, r)
	}
}

// authMiddleware authenticates MCP and API requests
func (t *HTTPTransport) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if t.config.AuthType == "none" {
			next.ServeHTTP(w, r)
			return
		}

		var authResult core.AuthResult

		switch t.config.AuthType {
		case "bearer":
			authResult = core.AuthenticateBearer(r.Header.Get("Authorization"), t.config.AuthToken)

		case "basic":
			username, password, ok := r.BasicAuth()
			if !ok {
				authResult = core.AuthResult{
					Authorized: false,
					Error:      "Missing basic auth credentials",
				}
			} else {
				authResult = core.AuthenticateBasic(username, password, t.config.AuthToken)
			}

		default:
			authResult = core.AuthResult{
				Authorized: false,
				Error:      "Unknown auth type",
			}
		}

		if !authResult.Authorized {
			t.logger.Warn("authentication failed",
				"remote_addr", getIP(r),
				"path", r.URL.Path,
				"auth_type", t.config.AuthType,
				"error", authResult.Error,
				"auth_duration", authResult.Duration)
			monitoring.RecordError("http", "auth_failed")

			if t.config.AuthType == "basic" {
				w.Header().Set("WWW-Authenticate", `Basic realm="greenroute"`)
			} else {
				w.Header().Set("WWW-Authenticate", "Bearer")
			}

			if strings.HasPrefix(r.URL.Path, APIPrefix) {
				writeJSON(w, t.logger, http.StatusUnauthorized, core.NewError(core.ErrInvalidInput, "Authentication required"))
				return
			}
			t.writeJSONRPCError(w, nil, -32001, "Authentication required", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// handleServiceDiscovery provides service discovery for MCP clients
func (t *HTTPTransport) handleServiceDiscovery(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	baseURL := t.config.BaseURL
	if baseURL == "" {
		scheme := "http"
		if r.TLS != nil || t.config.ForceHTTPS || t.tlsEnabled() {
			scheme = "https"
		}
		baseURL = fmt.Sprintf("%s://%s", scheme, r.Host)
	}
	baseURL = strings.TrimRight(baseURL, "/")

	endpoints := map[string]string{
		"mcp":    baseURL + t.config.MCPEndpoint,
		"health": baseURL + "/health",
	}
	if t.api != nil {
		endpoints["api"] = baseURL + strings.TrimSuffix(APIPrefix, "/")
	}

	discovery := map[string]interface{}{
		"service":   "greenroute",
		"transport": "streamable-http",
		"endpoints": endpoints,
		"capabilities": map[string]interface{}{
			"tools":   true,
			"prompts": true,
		},
		"auth": map[string]interface{}{
			"required": t.config.AuthType != "none",
			"type":     t.config.AuthType,
		},
	}

	writeJSON(w, t.logger, http.StatusOK, discovery)
}

// handleHealth provides comprehensive health check endpoint
func (t *HTTPTransport) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if hc := t.getHealthChecker(); hc != nil {
		hc.HealthHandler()(w, r)
		return
	}
	writeJSON(w, t.logger, http.StatusOK, map[string]interface{}{"status": "ok"})
}

// handleReady provides Kubernetes-style readiness check
func (t *HTTPTransport) handleReady(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if hc := t.getHealthChecker(); hc != nil {
		hc.ReadinessHandler()(w, r)
		return
	}
	writeJSON(w, t.logger, http.StatusOK, map[string]interface{}{
		"ready":  true,
		"status": "ok",
	})
}

// handleLive provides Kubernetes-style liveness check
func (t *HTTPTransport) handleLive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if hc := t.getHealthChecker(); hc != nil {
		hc.LivenessHandler()(w, r)
		return
	}
	writeJSON(w, t.logger, http.StatusOK, map[string]interface{}{"alive": true})
}

func (t *HTTPTransport) getHealthChecker() *monitoring.HealthChecker {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.healthChecker
}

// writeJSONRPCError writes a JSON-RPC error response
func (t *HTTPTransport) writeJSONRPCError(w http.ResponseWriter, id interface{}, code int, message string, status int) {
	writeJSON(w, t.logger, status, map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      id,
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
	})
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func (t *HTTPTransport) tlsEnabled() bool {
	return t.config.TLSCertFile != "" && t.config.TLSKeyFile != ""
}

// Start begins serving HTTP requests. It blocks until the server stops and
// returns http.ErrServerClosed after a graceful shutdown.
func (t *HTTPTransport) Start() error {
	ln, err := t.listen()
	if err != nil {
		return err
	}
	return t.Serve(ln)
}

func (t *HTTPTransport) listen() (net.Listener, error) {
	if t.config.ForceHTTPS && !t.tlsEnabled() {
		return nil, core.NewError(core.ErrInvalidInput, "force HTTPS requires a TLS certificate and key").
			WithGuidance("Set both TLS certificate and key files, or disable HTTPS enforcement.")
	}
	ln, err := net.Listen("tcp", t.config.Addr)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", t.config.Addr, err)
	}
	return ln, nil
}

// Serve accepts connections on ln until Shutdown is called.
func (t *HTTPTransport) Serve(ln net.Listener) error {
	t.mu.Lock()
	if t.httpSrv != nil {
		t.mu.Unlock()
		ln.Close()
		return core.NewError(core.ErrInternalError, "HTTP transport already started").
			WithGuidance("The HTTP transport is already running. Stop it before starting again.")
	}

	t.httpSrv = &http.Server{
		Handler:           t.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    t.config.MaxHeaderBytes,
	}
	srv := t.httpSrv

	t.logger.Info("starting HTTP transport",
		"addr", ln.Addr().String(),
		"mcp_endpoint", t.config.MCPEndpoint,
		"auth_type", t.config.AuthType,
		"base_url", t.config.BaseURL,
		"rate_limit", t.config.RateLimit,
		"tls_enabled", t.tlsEnabled(),
		"force_https", t.config.ForceHTTPS)

	t.mu.Unlock()

	if t.tlsEnabled() {
		return srv.ServeTLS(ln, t.config.TLSCertFile, t.config.TLSKeyFile)
	}
	return srv.Serve(ln)
}

// Shutdown gracefully stops the HTTP transport
func (t *HTTPTransport) Shutdown(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.rateLimiter != nil {
		t.rateLimiter.Stop()
	}

	if t.httpSrv == nil {
		return nil
	}

	t.logger.Info("shutting down HTTP transport")

	var errs []error
	if err := t.mcpServer.Shutdown(ctx); err != nil {
		t.logger.Error("failed to shutdown MCP endpoint", "error", err)
		errs = append(errs, err)
	}
	if err := t.httpSrv.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	t.httpSrv = nil
	return errors.Join(errs...)
}

// GetBaseURL returns the configured base URL
func (t *HTTPTransport) GetBaseURL() string {
	return t.config.BaseURL
}

// GetConfig returns the transport configuration
func (t *HTTPTransport) GetConfig() HTTPTransportConfig {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.config
}
