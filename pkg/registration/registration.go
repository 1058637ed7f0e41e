// Package registration announces the server to a service registry and keeps
// the entry alive with heartbeats. Registration is optional and fails
// softly: the server works the same whether or not the registry answers.
package registration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/NERVsystems/greenroute/pkg/monitoring"
)

// DefaultHeartbeatInterval is the default interval between heartbeats.
const DefaultHeartbeatInterval = 30 * time.Second

// DefaultTimeout is the default timeout for HTTP requests.
const DefaultTimeout = 5 * time.Second

// minHeartbeatInterval bounds how far a short registry TTL can push the
// heartbeat rate.
const minHeartbeatInterval = time.Second

// Config holds the configuration for service registration.
type Config struct {
	// Enabled controls whether registration is active (default: false)
	Enabled bool

	// RegistryURL is the base URL of the registry, e.g. "http://registry:7083"
	RegistryURL string

	ServiceName string
	// ServiceType defaults to "mcp"
	ServiceType string

	// ServiceURL is the external URL where this service is accessible
	ServiceURL string
	HealthURL  string

	// InternalURL and InternalHealthURL are used in container networks
	InternalURL       string
	InternalHealthURL string

	Version      string
	Capabilities []string
	Tools        []string
	Metadata     map[string]interface{}

	// HeartbeatInterval is how often to send heartbeats (default: 30s).
	// A registry TTL shorter than twice the interval shortens it.
	HeartbeatInterval time.Duration

	// Timeout is the HTTP request timeout (default: 5s)
	Timeout time.Duration

	Client *http.Client
}

// RegistrationRequest is the request format for the registry API.
type RegistrationRequest struct {
	Name           string                 `json:"name"`
	Type           string                 `json:"type"`
	URL            string                 `json:"url"`
	HealthURL      string                 `json:"health_url"`
	InternalURL    string                 `json:"internal_url,omitempty"`
	InternalHealth string                 `json:"internal_health_url,omitempty"`
	Version        string                 `json:"version"`
	Capabilities   []string               `json:"capabilities,omitempty"`
	Tools          []string               `json:"tools,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// RegistrationResponse is the response from the registry.
type RegistrationResponse struct {
	Status          string    `json:"status"`
	Name            string    `json:"name"`
	TTLSeconds      int       `json:"ttl_seconds"`
	NextHeartbeatBy time.Time `json:"next_heartbeat_by"`
}

// Status is a snapshot of the client state.
type Status struct {
	Registered    bool      `json:"registered"`
	LastHeartbeat time.Time `json:"last_heartbeat,omitempty"`
	LastError     string    `json:"last_error,omitempty"`
}

// Client handles registration with the service registry.
type Client struct {
	cfg        Config
	logger     *slog.Logger
	httpClient *http.Client
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	mu         sync.RWMutex
	status     Status
	interval   time.Duration
}

// NewClient creates a new registration client.
// If cfg.Enabled is false, the client will be a no-op.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.ServiceType == "" {
		cfg.ServiceType = "mcp"
	}

	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		cfg:        cfg,
		logger:     logger.With("component", "registration"),
		httpClient: client,
		interval:   cfg.HeartbeatInterval,
	}
}

// Start begins the registration and heartbeat loop.
// This method is non-blocking and returns immediately.
// If registration is disabled, this is a no-op.
func (c *Client) Start(ctx context.Context) {
	if !c.cfg.Enabled {
		c.logger.Info("service registration disabled")
		return
	}

	if c.cfg.RegistryURL == "" {
		c.logger.Warn("service registration enabled but no registry URL configured")
		return
	}

	ctx, c.cancel = context.WithCancel(ctx)
	c.wg.Add(1)
	go c.heartbeatLoop(ctx)
}

// Stop deregisters the service and waits for the heartbeat loop to exit.
func (c *Client) Stop() {
	if !c.cfg.Enabled || c.cancel == nil {
		return
	}

	c.cancel()
	c.wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.Timeout)
	defer cancel()
	c.deregister(ctx)
}

// IsRegistered returns whether the service is currently registered.
func (c *Client) IsRegistered() bool {
	return c.Status().Registered
}

// Status returns the current registration state.
func (c *Client) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// heartbeatLoop sends periodic heartbeats to the registry.
func (c *Client) heartbeatLoop(ctx context.Context) {
	defer c.wg.Done()

	c.register(ctx)

	ticker := time.NewTicker(c.heartbeatInterval())
	defer ticker.Stop()
	current := c.heartbeatInterval()

	for {
		select {
		case <-ticker.C:
			c.register(ctx)
			if next := c.heartbeatInterval(); next != current {
				ticker.Reset(next)
				current = next
			}
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) heartbeatInterval() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.interval
}

func (c *Client) endpoint(elem ...string) (string, error) {
	return url.JoinPath(c.cfg.RegistryURL, elem...)
}

// register sends a registration/heartbeat request to the registry.
func (c *Client) register(ctx context.Context) {
	start := time.Now()
	regResp, err := c.doRegister(ctx)
	monitoring.RecordExternalServiceRequest("registry", "register", time.Since(start), err == nil)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		c.logger.Debug("registration failed (registry may be unavailable)", "error", err)
		c.setStatus(false, err)
		return
	}

	wasRegistered := c.IsRegistered()
	c.setStatus(true, nil)
	c.adjustInterval(regResp.TTLSeconds)

	if !wasRegistered {
		c.logger.Info("registered with service registry",
			"name", c.cfg.ServiceName,
			"ttl_seconds", regResp.TTLSeconds,
			"heartbeat_interval", c.heartbeatInterval(),
		)
	}
}

func (c *Client) doRegister(ctx context.Context) (RegistrationResponse, error) {
	var regResp RegistrationResponse

	body, err := json.Marshal(RegistrationRequest{
		Name:           c.cfg.ServiceName,
		Type:           c.cfg.ServiceType,
		URL:            c.cfg.ServiceURL,
		HealthURL:      c.cfg.HealthURL,
		InternalURL:    c.cfg.InternalURL,
		InternalHealth: c.cfg.InternalHealthURL,
		Version:        c.cfg.Version,
		Capabilities:   c.cfg.Capabilities,
		Tools:          c.cfg.Tools,
		Metadata:       c.cfg.Metadata,
	})
	if err != nil {
		return regResp, fmt.Errorf("marshal registration request: %w", err)
	}

	target, err := c.endpoint("api", "register")
	if err != nil {
		return regResp, fmt.Errorf("invalid registry URL: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return regResp, fmt.Errorf("create registration request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return regResp, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return regResp, fmt.Errorf("registry returned status %d: %s", resp.StatusCode, bytes.TrimSpace(bodyBytes))
	}

	if err := json.NewDecoder(resp.Body).Decode(&regResp); err != nil {
		return regResp, fmt.Errorf("decode registration response: %w", err)
	}
	return regResp, nil
}

// adjustInterval keeps heartbeats at no more than half the registry TTL.
func (c *Client) adjustInterval(ttlSeconds int) {
	interval := c.cfg.HeartbeatInterval
	if ttlSeconds > 0 {
		if half := time.Duration(ttlSeconds) * time.Second / 2; half < interval {
			interval = max(half, minHeartbeatInterval)
		}
	}

	c.mu.Lock()
	c.interval = interval
	c.mu.Unlock()
}

// deregister sends a deregistration request to the registry.
func (c *Client) deregister(ctx context.Context) {
	if !c.IsRegistered() {
		return
	}
	defer c.setStatus(false, nil)

	target, err := c.endpoint("api", "register", c.cfg.ServiceName)
	if err != nil {
		c.logger.Debug("invalid registry URL", "error", err)
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, target, nil)
	if err != nil {
		c.logger.Debug("failed to create deregistration request", "error", err)
		return
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	monitoring.RecordExternalServiceRequest("registry", "deregister", time.Since(start), err == nil)
	if err != nil {
		c.logger.Debug("deregistration failed (registry may be unavailable)", "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNoContent {
		c.logger.Info("deregistered from service registry", "name", c.cfg.ServiceName)
	}
}

func (c *Client) setStatus(registered bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status.Registered = registered
	if err != nil {
		c.status.LastError = err.Error()
		return
	}
	c.status.LastError = ""
	if registered {
		c.status.LastHeartbeat = time.Now()
	}
}
