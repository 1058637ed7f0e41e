// Package routing resolves lane distances between two points using an OSRM
// compatible routing service.
package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/NERVsystems/greenroute/pkg/cache"
	"github.com/NERVsystems/greenroute/pkg/coords"
	"github.com/NERVsystems/greenroute/pkg/core"
	"github.com/NERVsystems/greenroute/pkg/tracing"
)

const (
	// DefaultBaseURL is the public OSRM demo server.
	DefaultBaseURL = "https://router.project-osrm.org"
	// DefaultUserAgent identifies requests to the routing service.
	DefaultUserAgent = "GreenRoute/1.0"
	// DefaultProfile is the OSRM profile used for lanes.
	DefaultProfile = "driving"

	operationRoute = "route"
	cacheName      = "lanes"
)

// Hooks observe routing activity. Nil fields are skipped.
type Hooks struct {
	OnRequest       func(operation string)
	OnResponse      func(operation string, duration time.Duration, success bool)
	OnRateLimitWait func(wait time.Duration)
	OnError         func(errorType string)
	OnCacheLookup   cache.Observer
}

// Config configures a Router.
type Config struct {
	BaseURL   string
	UserAgent string
	Profile   string

	// RequestsPerSecond and Burst bound the request rate to the service.
	RequestsPerSecond float64
	Burst             int

	// CacheSize and CacheTTL bound the lane cache. Zero takes the default;
	// a negative size disables the cache.
	CacheSize int
	CacheTTL  time.Duration

	// Timeout bounds a single lane lookup including retries.
	Timeout time.Duration
	Retry   core.RetryOptions

	Client *http.Client
	Logger *slog.Logger
	Hooks  Hooks
}

// DefaultConfig returns settings suitable for the public OSRM server.
func DefaultConfig() Config {
	return Config{
		BaseURL:           DefaultBaseURL,
		UserAgent:         DefaultUserAgent,
		Profile:           DefaultProfile,
		RequestsPerSecond: 1,
		Burst:             1,
		CacheSize:         1024,
		CacheTTL:          24 * time.Hour,
		Timeout:           30 * time.Second,
		Retry:             core.DefaultRetryOptions(),
	}
}

// Lane is the driving distance between two points.
type Lane struct {
	From            coords.Point `json:"from"`
	To              coords.Point `json:"to"`
	DistanceKm      float64      `json:"distanceKm"`
	DurationMinutes float64      `json:"durationMinutes"`
	Cached          bool         `json:"cached"`
}

// Router looks up lane distances. It is safe for concurrent use; identical
// concurrent lookups share one upstream request.
type Router struct {
	baseURL   string
	userAgent string
	profile   string
	timeout   time.Duration
	retry     core.RetryOptions
	client    *http.Client
	logger    *slog.Logger
	hooks     Hooks

	limiter *rate.Limiter
	group   singleflight.Group
	lanes   *cache.TTLCache[string, Lane]
}

// New creates a Router from cfg. Zero fields take DefaultConfig values.
// A negative CacheSize turns the lane cache off.
func New(cfg Config) (*Router, error) {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid routing base URL %q", cfg.BaseURL)
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if cfg.Profile == "" {
		cfg.Profile = def.Profile
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = def.RequestsPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = def.Burst
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.CacheSize == 0 {
		cfg.CacheSize = def.CacheSize
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = def.CacheTTL
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = def.Retry
	}
	if cfg.Client == nil {
		cfg.Client = core.NewHTTPClient(cfg.Timeout)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	logger := cfg.Logger.With("service", tracing.ServiceOSRM)
	if cfg.Retry.Logger == nil {
		cfg.Retry.Logger = logger
	}

	r := &Router{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		profile:   cfg.Profile,
		timeout:   cfg.Timeout,
		retry:     cfg.Retry,
		client:    cfg.Client,
		logger:    logger,
		hooks:     cfg.Hooks,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
	}
	if cfg.CacheSize > 0 {
		r.lanes = cache.NewTTLCache[string, Lane](cacheName, cfg.CacheTTL, cfg.CacheSize, cfg.Hooks.OnCacheLookup)
	}
	return r, nil
}

func laneKey(from, to coords.Point) string {
	return from.String() + ";" + to.String()
}

// LaneDistance returns the driving distance from one point to another.
func (r *Router) LaneDistance(ctx context.Context, from, to coords.Point) (Lane, error) {
	if err := from.Validate(); err != nil {
		return Lane{}, core.NewError(core.ErrInvalidCoordinates, "origin: "+err.Error()).WithField("from")
	}
	if err := to.Validate(); err != nil {
		return Lane{}, core.NewError(core.ErrInvalidCoordinates, "destination: "+err.Error()).WithField("to")
	}

	key := laneKey(from, to)
	if r.lanes != nil {
		if lane, ok := r.lanes.Get(key); ok {
			tracing.SetAttributes(ctx, tracing.CacheAttributes(cacheName, true, key)...)
			lane.Cached = true
			return lane, nil
		}
	}

	ch := r.group.DoChan(key, func() (any, error) {
		// The shared lookup must outlive a single caller's cancellation.
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()

		lane, err := r.fetch(fctx, from, to)
		if err != nil {
			return Lane{}, err
		}
		if r.lanes != nil {
			r.lanes.Set(key, lane)
		}
		return lane, nil
	})

	select {
	case <-ctx.Done():
		return Lane{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Lane{}, res.Err
		}
		if res.Shared {
			r.logger.Debug("lane lookup coalesced", "key", key)
		}
		return res.Val.(Lane), nil
	}
}

type osrmResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
	} `json:"routes"`
}

func (r *Router) fetch(ctx context.Context, from, to coords.Point) (Lane, error) {
	// OSRM expects longitude,latitude pairs.
	reqURL := fmt.Sprintf("%s/route/v1/%s/%.6f,%.6f;%.6f,%.6f?overview=false&alternatives=false&steps=false",
		r.baseURL, r.profile, from.Longitude, from.Latitude, to.Longitude, to.Latitude)

	ctx, span := tracing.StartSpan(ctx, "osrm.route",
		trace.WithAttributes(tracing.ServiceAttributes(tracing.ServiceOSRM, operationRoute, reqURL, 0)...),
	)
	defer span.End()

	if err := r.wait(ctx); err != nil {
		r.onError("rate_limit_wait_error")
		span.RecordError(err)
		span.SetStatus(codes.Error, "rate limit wait failed")
		return Lane{}, core.NewError(core.ErrRateLimit, "timed out waiting for routing rate limit").
			WithGuidance("Retry the request later")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Lane{}, core.NewError(core.ErrInternalError, "failed to build routing request")
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "application/json")

	if r.hooks.OnRequest != nil {
		r.hooks.OnRequest(operationRoute)
	}
	start := time.Now()
	resp, err := core.WithRetry(ctx, req, r.client, r.retry)
	if r.hooks.OnResponse != nil {
		r.hooks.OnResponse(operationRoute, time.Since(start), err == nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "routing request failed")
		return Lane{}, r.translate(err)
	}
	defer resp.Body.Close()

	var body osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		r.onError("decode_error")
		span.RecordError(err)
		return Lane{}, core.NewError(core.ErrParseError, "failed to decode routing response")
	}
	if body.Code != "Ok" || len(body.Routes) == 0 {
		r.onError("no_route")
		span.SetStatus(codes.Error, body.Code)
		return Lane{}, noRoute(body.Message)
	}

	route := body.Routes[0]
	lane := Lane{
		From:            from,
		To:              to,
		DistanceKm:      route.Distance / 1000,
		DurationMinutes: route.Duration / 60,
	}
	span.SetAttributes(attribute.Float64("greenroute.lane.distance_km", lane.DistanceKm))
	span.SetStatus(codes.Ok, "")
	r.logger.Debug("lane resolved", "from", from.String(), "to", to.String(), "distance_km", lane.DistanceKm)
	return lane, nil
}

func noRoute(detail string) *core.MCPError {
	msg := "no drivable route between the given points"
	if detail != "" {
		msg += ": " + detail
	}
	return core.NewError(core.ErrNoRouteFound, msg).
		WithGuidance("Check that both points are on or near a road network")
}

// translate maps retry errors to routing errors. OSRM answers 400 when no
// road segment is near one of the points.
func (r *Router) translate(err error) error {
	var mcpErr *core.MCPError
	if !errors.As(err, &mcpErr) {
		r.onError("request_error")
		return core.NewError(core.ErrRoutingService, err.Error())
	}
	if mcpErr.Status == http.StatusBadRequest {
		r.onError("no_route")
		return noRoute("")
	}
	r.onError("upstream_error")
	return mcpErr
}

func (r *Router) wait(ctx context.Context) error {
	if r.limiter.Allow() {
		return nil
	}
	start := time.Now()
	tracing.AddEvent(ctx, "rate_limit_wait",
		trace.WithAttributes(attribute.String(tracing.AttrRateLimitService, tracing.ServiceOSRM)),
	)
	err := r.limiter.Wait(ctx)
	waited := time.Since(start)
	tracing.SetAttributes(ctx, attribute.Int64(tracing.AttrRateLimitWaitMs, waited.Milliseconds()))
	if r.hooks.OnRateLimitWait != nil {
		r.hooks.OnRateLimitWait(waited)
	}
	return err
}

func (r *Router) onError(errorType string) {
	if r.hooks.OnError != nil {
		r.hooks.OnError(errorType)
	}
}

// Check probes the routing service. Any answer below 500 counts as reachable.
func (r *Router) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/nearest/v1/"+r.profile+"/0,0", nil)
	if err != nil {
		return fmt.Errorf("failed to create osrm health check request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("osrm health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("osrm health check returned status %d", resp.StatusCode)
	}
	return nil
}

// CacheStats reports lane cache usage. It is zero when caching is disabled.
func (r *Router) CacheStats() cache.Stats {
	if r.lanes == nil {
		return cache.Stats{}
	}
	return r.lanes.Stats()
}
