package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/NERVsystems/greenroute/pkg/core"
	"github.com/NERVsystems/greenroute/pkg/fleet"
	"github.com/NERVsystems/greenroute/pkg/impact"
	"github.com/NERVsystems/greenroute/pkg/monitoring"
	"github.com/NERVsystems/greenroute/pkg/registration"
	"github.com/NERVsystems/greenroute/pkg/routing"
	"github.com/NERVsystems/greenroute/pkg/server"
	"github.com/NERVsystems/greenroute/pkg/tracing"
	ver "github.com/NERVsystems/greenroute/pkg/version"
)

const envPrefix = "GREENROUTE_"

var (
	showVersionFlag bool
	debug           bool
	generateConfig  string
	mergeOnly       bool
	hashPassword    string
	monitorParent   bool

	// HTTP transport flags
	enableHTTP    bool
	httpOnly      bool
	httpAddr      string
	httpBaseURL   string
	httpAuthType  string
	httpAuthToken string
	tlsCert       string
	tlsKey        string
	httpRPS       float64
	httpBurst     int

	// Estimator caps
	maxMonthlyKm float64
	maxFuelPrice float64

	// Routing flags
	disableRouting bool
	osrmURL        string
	osrmRPS        float64
	osrmBurst      int

	// Tracing flags
	enableTracing bool
	otlpEndpoint  string
	otlpInsecure  bool
	traceRatio    float64

	// Registration flags
	enableRegistration bool
	registryURL        string
	serviceURL         string
	internalURL        string
)

func init() {
	flag.BoolVar(&showVersionFlag, "version", false, "Display version information")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.StringVar(&generateConfig, "generate-config", "", "Write an MCP client config file for this binary at the specified path")
	flag.BoolVar(&mergeOnly, "merge-only", false, "Merge into an existing config instead of overwriting it")
	flag.StringVar(&hashPassword, "hash-password", "", "Print a bcrypt hash of the given password for basic auth and exit")
	flag.BoolVar(&monitorParent, "monitor-parent", true, "Exit the stdio server when the parent process exits")

	flag.BoolVar(&enableHTTP, "enable-http", false, "Enable Streamable HTTP transport and REST API (in addition to stdio)")
	flag.BoolVar(&httpOnly, "http-only", false, "Run HTTP transport only, skip stdio (requires --enable-http)")
	flag.StringVar(&httpAddr, "http-addr", ":7082", "HTTP server address")
	flag.StringVar(&httpBaseURL, "http-base-url", "", "Base URL for HTTP transport (auto-detected if empty)")
	flag.StringVar(&httpAuthType, "http-auth-type", "none", "HTTP authentication type: none, bearer, basic")
	flag.StringVar(&httpAuthToken, "http-auth-token", "", "HTTP bearer token, or user:password / user:bcrypt-hash for basic")
	flag.StringVar(&tlsCert, "tls-cert", "", "TLS certificate file for the HTTP transport")
	flag.StringVar(&tlsKey, "tls-key", "", "TLS key file for the HTTP transport")
	flag.Float64Var(&httpRPS, "http-rps", 10, "Per-client HTTP rate limit in requests per second (0 disables)")
	flag.IntVar(&httpBurst, "http-burst", 20, "Per-client HTTP rate limit burst size")

	flag.Float64Var(&maxMonthlyKm, "max-monthly-km", impact.DefaultMaxMonthlyKm, "Upper bound on monthly distance (0 disables)")
	flag.Float64Var(&maxFuelPrice, "max-fuel-price", impact.DefaultMaxFuelPricePerLiter, "Upper bound on fuel price per liter (0 disables)")

	flag.BoolVar(&disableRouting, "disable-routing", false, "Disable OSRM lane lookups (route tool and fleet lanes)")
	flag.StringVar(&osrmURL, "osrm-url", routing.DefaultBaseURL, "OSRM base URL")
	flag.Float64Var(&osrmRPS, "osrm-rps", 1.0, "OSRM rate limit in requests per second")
	flag.IntVar(&osrmBurst, "osrm-burst", 1, "OSRM rate limit burst size")

	flag.BoolVar(&enableTracing, "enable-tracing", false, "Export OpenTelemetry traces over OTLP/gRPC")
	flag.StringVar(&otlpEndpoint, "otlp-endpoint", "localhost:4317", "OTLP collector address (OTEL_EXPORTER_OTLP_ENDPOINT)")
	flag.BoolVar(&otlpInsecure, "otlp-insecure", true, "Disable TLS towards the OTLP collector")
	flag.Float64Var(&traceRatio, "trace-sample-ratio", 1.0, "Fraction of traces to keep")

	flag.BoolVar(&enableRegistration, "enable-registration", false, "Enable service registration with a service registry")
	flag.StringVar(&registryURL, "registry-url", "", "Service registry URL (e.g., http://registry:7083)")
	flag.StringVar(&serviceURL, "service-url", "", "External URL where this service is accessible")
	flag.StringVar(&internalURL, "internal-url", "", "Internal URL for container environments")
}

// envFlags maps flag names to the environment variables that set them when
// the flag is not given on the command line.
var envFlags = map[string]string{
	"debug":               envPrefix + "DEBUG",
	"enable-http":         envPrefix + "ENABLE_HTTP",
	"http-only":           envPrefix + "HTTP_ONLY",
	"http-addr":           envPrefix + "HTTP_ADDR",
	"http-base-url":       envPrefix + "HTTP_BASE_URL",
	"http-auth-type":      envPrefix + "HTTP_AUTH_TYPE",
	"http-auth-token":     envPrefix + "HTTP_AUTH_TOKEN",
	"tls-cert":            envPrefix + "TLS_CERT",
	"tls-key":             envPrefix + "TLS_KEY",
	"max-monthly-km":      envPrefix + "MAX_MONTHLY_KM",
	"max-fuel-price":      envPrefix + "MAX_FUEL_PRICE",
	"disable-routing":     envPrefix + "DISABLE_ROUTING",
	"osrm-url":            envPrefix + "OSRM_URL",
	"osrm-rps":            envPrefix + "OSRM_RPS",
	"osrm-burst":          envPrefix + "OSRM_BURST",
	"enable-tracing":      envPrefix + "ENABLE_TRACING",
	"otlp-endpoint":       "OTEL_EXPORTER_OTLP_ENDPOINT",
	"enable-registration": envPrefix + "ENABLE_REGISTRATION",
	"registry-url":        envPrefix + "REGISTRY_URL",
	"service-url":         envPrefix + "SERVICE_URL",
	"internal-url":        envPrefix + "INTERNAL_URL",
}

// applyEnv fills unset flags from the environment. Explicit flags win.
func applyEnv(fs *flag.FlagSet, lookup func(string) (string, bool)) error {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	for name, env := range envFlags {
		if set[name] || fs.Lookup(name) == nil {
			continue
		}
		val, ok := lookup(env)
		if !ok || val == "" {
			continue
		}
		if err := fs.Set(name, val); err != nil {
			return fmt.Errorf("invalid %s=%q: %w", env, val, err)
		}
	}
	return nil
}

func main() {
	flag.Parse()

	if err := applyEnv(flag.CommandLine, os.LookupEnv); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	// Configure logging
	var logLevel slog.Level
	if debug {
		logLevel = slog.LevelDebug
	} else {
		logLevel = slog.LevelInfo
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Show version and exit if requested
	if showVersionFlag {
		showVersion()
		return
	}

	if hashPassword != "" {
		hash, err := core.HashPassword(hashPassword)
		if err != nil {
			logger.Error("failed to hash password", "error", err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	if generateConfig != "" {
		if err := generateClientConfig(generateConfig, mergeOnly); err != nil {
			logger.Error("failed to generate config", "error", err)
			os.Exit(1)
		}
		logger.Info("successfully generated MCP client config", "path", generateConfig)
		return
	}

	if httpOnly && !enableHTTP {
		logger.Error("--http-only requires --enable-http")
		os.Exit(2)
	}

	// Initialize OpenTelemetry tracing
	if enableTracing {
		shutdownTracing, err := tracing.InitTracing(context.Background(), tracing.Config{
			Endpoint:    otlpEndpoint,
			Insecure:    otlpInsecure,
			SampleRatio: traceRatio,
			Version:     ver.BuildVersion,
			Environment: os.Getenv(envPrefix + "ENVIRONMENT"),
		})
		if err != nil {
			// Continue without tracing - it's not critical
			logger.Error("failed to initialize tracing", "error", err)
		} else {
			defer func() {
				if err := shutdownTracing(context.Background()); err != nil {
					logger.Error("error shutting down tracing", "error", err)
				}
			}()
			logger.Info("OpenTelemetry tracing enabled", "endpoint", otlpEndpoint)
		}
	}

	logger.Info("starting GreenRoute MCP server",
		"version", ver.BuildVersion,
		"log_level", logLevel.String(),
		"routing_enabled", !disableRouting,
		"osrm_url", osrmURL,
		"osrm_rps", osrmRPS,
		"osrm_burst", osrmBurst,
		"max_monthly_km", maxMonthlyKm,
		"max_fuel_price", maxFuelPrice,
		"http_enabled", enableHTTP)

	estimator, err := impact.NewEstimator(impact.Config{
		Limits: impact.Limits{
			MaxMonthlyKm:         maxMonthlyKm,
			MaxFuelPricePerLiter: maxFuelPrice,
		},
		Logger: logger,
		Hooks:  monitoring.EstimatorHooks(),
	})
	if err != nil {
		logger.Error("failed to create estimator", "error", err)
		os.Exit(1)
	}

	healthChecker := monitoring.NewHealthChecker(monitoring.ServiceName, ver.BuildVersion)
	defer healthChecker.Shutdown()

	// A nil *routing.Router must not reach the LaneResolver interface.
	var resolver fleet.LaneResolver
	if !disableRouting {
		cfg := routing.DefaultConfig()
		cfg.BaseURL = osrmURL
		cfg.RequestsPerSecond = osrmRPS
		cfg.Burst = osrmBurst
		cfg.Logger = logger
		cfg.Hooks = monitoring.RoutingHooks()

		router, err := routing.New(cfg)
		if err != nil {
			logger.Error("failed to create router", "error", err)
			os.Exit(1)
		}
		resolver = router

		osrmMonitor := startExternalServiceMonitoring(healthChecker, router)
		defer osrmMonitor.Stop()
	}

	s, err := server.NewServer(server.Config{
		Estimator:     estimator,
		Router:        resolver,
		Logger:        logger,
		MonitorParent: monitorParent && !httpOnly,
	})
	if err != nil {
		logger.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	// Create context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	transports := []string{"stdio"}
	transport := monitoring.TransportInfo{Type: "stdio"}
	if enableHTTP {
		transports = append(transports, "http")
		transport = monitoring.TransportInfo{Type: "http_streaming", HTTPAddr: httpAddr}
	}
	healthChecker.SetTransport(transport)

	// Initialize registration client if enabled
	if enableRegistration {
		toolNames := s.Registry().GetToolNames()

		svcURL := serviceURL
		if svcURL == "" && enableHTTP {
			svcURL = "http://localhost" + httpAddr
		}
		intHealth := ""
		if internalURL != "" {
			intHealth = strings.TrimRight(internalURL, "/") + "/health"
		}

		regClient := registration.NewClient(registration.Config{
			Enabled:           true,
			RegistryURL:       registryURL,
			ServiceName:       monitoring.ServiceName,
			ServiceType:       "mcp",
			ServiceURL:        svcURL,
			HealthURL:         strings.TrimRight(svcURL, "/") + "/health",
			InternalURL:       internalURL,
			InternalHealthURL: intHealth,
			Version:           ver.BuildVersion,
			Capabilities:      []string{"impact", "validation", "routing", "fleet"},
			Tools:             toolNames,
			Metadata: map[string]interface{}{
				"transport": map[string]bool{"stdio": !httpOnly, "http": enableHTTP},
			},
		}, logger)
		regClient.Start(ctx)
		defer regClient.Stop()

		logger.Info("registration client initialized",
			"registry_url", registryURL,
			"service_url", svcURL,
			"tool_count", len(toolNames))
	}

	// Start HTTP transport in background if enabled (non-blocking)
	if enableHTTP {
		httpTransport := server.NewHTTPTransport(s.GetMCPServer(), s.APIHandler(), server.HTTPTransportConfig{
			Addr:          httpAddr,
			BaseURL:       httpBaseURL,
			AuthType:      httpAuthType,
			AuthToken:     httpAuthToken,
			MCPEndpoint:   "/mcp",
			RateLimit:     httpRPS,
			RateBurst:     httpBurst,
			TLSCertFile:   tlsCert,
			TLSKeyFile:    tlsKey,
			EnableMetrics: true,
		}, logger)
		httpTransport.SetHealthChecker(healthChecker)

		go func() {
			logger.Info("starting Streamable HTTP transport", "addr", httpAddr, "endpoint", "/mcp", "api", server.APIPrefix)
			if err := httpTransport.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP transport error", "error", err)
				stop()
			}
		}()

		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := httpTransport.Shutdown(shutdownCtx); err != nil {
				logger.Error("failed to shutdown HTTP transport", "error", err)
			}
		}()
	}

	// Transport startup logic:
	// - If HTTP is NOT enabled: Run stdio on main thread (blocking) - default behavior
	// - If HTTP IS enabled and httpOnly is false: Run stdio in goroutine, then wait for shutdown
	// - If HTTP IS enabled and httpOnly is true: Skip stdio, just wait for shutdown
	switch {
	case !enableHTTP:
		logger.Info("transport_enabled", "type", "stdio", "mode", "blocking")
		if err := s.RunWithContext(ctx); err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	case httpOnly:
		logger.Info("server_ready", "transports", []string{"http"}, "http_only", true)
		<-ctx.Done()
		logger.Info("shutdown signal received")
	default:
		go func() {
			logger.Info("transport_enabled", "type", "stdio", "mode", "background")
			if err := s.RunWithContext(ctx); err != nil {
				// Don't exit - HTTP transport may still be useful
				logger.Error("stdio transport error", "error", err)
			}
		}()

		logger.Info("server_ready", "transports", transports)
		<-ctx.Done()
		logger.Info("shutdown signal received")
		s.Shutdown()
	}

	logger.Info("server stopped")
}

// generateClientConfig writes an MCP client configuration that launches this
// binary over stdio. With mergeOnly, other servers already in the file are kept.
func generateClientConfig(path string, mergeOnly bool) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to resolve executable path: %w", err)
	}
	return writeClientConfig(path, exe, mergeOnly)
}

func writeClientConfig(path, command string, mergeOnly bool) error {
	if path == "" {
		return fmt.Errorf("config path cannot be empty")
	}
	if !strings.HasSuffix(path, ".json") {
		return fmt.Errorf("config file must have .json extension")
	}

	cleanPath := filepath.Clean(path)
	if err := validateSafePath(cleanPath); err != nil {
		return fmt.Errorf("invalid config path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cleanPath), 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	config := map[string]interface{}{}
	if mergeOnly {
		if data, err := os.ReadFile(cleanPath); err == nil {
			if err := json.Unmarshal(data, &config); err != nil {
				return fmt.Errorf("failed to parse existing config: %w", err)
			}
		}
	}

	servers, _ := config["mcpServers"].(map[string]interface{})
	if servers == nil {
		servers = map[string]interface{}{}
	}
	servers[monitoring.ServiceName] = map[string]interface{}{
		"command": command,
		"args":    []string{},
	}
	config["mcpServers"] = servers

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(cleanPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// validateSafePath validates that a path is safe to write to within the current working directory
func validateSafePath(path string) error {
	if filepath.IsAbs(path) {
		return fmt.Errorf("absolute paths are not allowed for security reasons")
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current working directory: %w", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	relPath, err := filepath.Rel(cwd, absPath)
	if err != nil {
		return fmt.Errorf("failed to determine relative path: %w", err)
	}

	if relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path traversal detected: %s", relPath)
	}

	return nil
}

// showVersion displays version information and exits
func showVersion() {
	fmt.Println(ver.String())
}

// startExternalServiceMonitoring probes the routing service in the background
// and reports it as the "osrm" connection on the health endpoints.
func startExternalServiceMonitoring(hc *monitoring.HealthChecker, router *routing.Router) *monitoring.ConnectionMonitor {
	osrmMonitor := monitoring.NewConnectionMonitor(
		tracing.ServiceOSRM,
		hc,
		router.Check,
		30*time.Second,
	)
	osrmMonitor.Start()
	return osrmMonitor
}
