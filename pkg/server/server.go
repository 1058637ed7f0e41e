// Package server provides the GreenRoute MCP server and its HTTP surface.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/NERVsystems/greenroute/pkg/fleet"
	"github.com/NERVsystems/greenroute/pkg/impact"
	"github.com/NERVsystems/greenroute/pkg/tools"
	"github.com/NERVsystems/greenroute/pkg/version"
)

const (
	// ServerName is the name of the MCP server
	ServerName = "greenroute-mcp-server"

	// DefaultParentCheckInterval is how often the stdio server polls its parent.
	DefaultParentCheckInterval = 5 * time.Second
)

// Config holds the dependencies of a Server.
type Config struct {
	Name    string
	Version string

	// Estimator defaults to the built-in profiles with DefaultLimits.
	Estimator *impact.Estimator
	// Router resolves lanes for route and fleet estimates. May be nil.
	Router fleet.LaneResolver
	Logger *slog.Logger

	// MonitorParent stops the server once the process that started it exits.
	MonitorParent       bool
	ParentCheckInterval time.Duration

	// Stdin and Stdout default to the process streams.
	Stdin  io.Reader
	Stdout io.Writer
}

// Server encapsulates the MCP server with the GreenRoute tools.
type Server struct {
	srv          *mcpserver.MCPServer
	registry     *tools.Registry
	logger       *slog.Logger
	cfg          Config
	stopCh       chan struct{}
	doneCh       chan struct{}
	running      bool
	started      bool
	mu           sync.Mutex
	once         sync.Once // Ensure we only close stopCh once
	ctxCancel    context.CancelFunc
	ctxGoroutine sync.Once // Ensure we only start one context goroutine
}

// NewServer creates a new GreenRoute MCP server with all tools registered.
func NewServer(cfg Config) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Name == "" {
		cfg.Name = ServerName
	}
	if cfg.Version == "" {
		cfg.Version = version.BuildVersion
	}
	if cfg.ParentCheckInterval <= 0 {
		cfg.ParentCheckInterval = DefaultParentCheckInterval
	}
	if cfg.Stdin == nil {
		cfg.Stdin = os.Stdin
	}
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}

	estimator := cfg.Estimator
	if estimator == nil {
		var err error
		estimator, err = impact.NewEstimator(impact.Config{
			Limits: impact.DefaultLimits(),
			Logger: logger,
		})
		if err != nil {
			return nil, err
		}
	}

	logger.Info("initializing GreenRoute MCP server",
		"name", cfg.Name,
		"version", cfg.Version,
		"routing", cfg.Router != nil)

	srv := mcpserver.NewMCPServer(
		cfg.Name,
		cfg.Version,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithPromptCapabilities(false),
		mcpserver.WithRecovery(),
	)

	registry, err := tools.NewRegistry(tools.Config{
		Estimator: estimator,
		Router:    cfg.Router,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}
	registry.RegisterAll(srv)

	return &Server{
		srv:      srv,
		registry: registry,
		logger:   logger,
		cfg:      cfg,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Run starts the MCP server using stdin/stdout for communication.
// This method blocks until the server is stopped or an error occurs.
func (s *Server) Run() error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.running = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		defer close(s.doneCh)
		stdio := mcpserver.NewStdioServer(s.srv)
		stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))

		err := stdio.Listen(ctx, s.cfg.Stdin, s.cfg.Stdout)
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, context.Canceled) {
			s.logger.Error("server error", "error", err)
		}

		// Ensure the main Run loop is notified that the
		// server has finished processing.
		s.Shutdown()
	}()

	if s.cfg.MonitorParent {
		go s.monitorParent(os.Getppid())
	}

	<-s.stopCh
	cancel()

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	<-s.doneCh
	return nil
}

// RunWithContext starts the MCP server and allows for graceful shutdown via context.
// This method blocks until the context is canceled or an error occurs.
func (s *Server) RunWithContext(ctx context.Context) error {
	s.ctxGoroutine.Do(func() {
		derived, cancel := context.WithCancel(ctx)
		s.ctxCancel = cancel

		go func() {
			select {
			case <-derived.Done():
				s.Shutdown()
			case <-s.stopCh:
			}
		}()
	})

	return s.Run()
}

// Shutdown initiates a graceful shutdown of the server.
// It does not block and returns immediately. A server shut down before Run
// returns from Run as soon as it is called.
func (s *Server) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.once.Do(func() {
		close(s.stopCh)
	})

	if s.ctxCancel != nil {
		s.ctxCancel()
	}
}

// WaitForShutdown blocks until the server has fully shut down.
func (s *Server) WaitForShutdown() {
	<-s.doneCh
}

// GetMCPServer returns the underlying MCP server instance for HTTP transport
func (s *Server) GetMCPServer() *mcpserver.MCPServer {
	return s.srv
}

// Registry returns the tool registry backing the server.
func (s *Server) Registry() *tools.Registry {
	return s.registry
}

// monitorParent shuts the server down when ppid disappears. A stdio server
// whose client died would otherwise block on stdin forever.
func (s *Server) monitorParent(ppid int) {
	ticker := time.NewTicker(s.cfg.ParentCheckInterval)
	defer ticker.Stop()

	s.logger.Debug("monitoring parent process", "ppid", ppid)
	for {
		select {
		case <-ticker.C:
			if !isProcessRunning(ppid) || os.Getppid() != ppid {
				s.logger.Info("parent process exited, shutting down", "ppid", ppid)
				s.Shutdown()
				return
			}
		case <-s.stopCh:
			return
		}
	}
}

// isProcessRunning reports whether a process with the given pid exists.
func isProcessRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = p.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
