package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/irhvac-core/internal/hvac"
	"github.com/nerrad567/irhvac-core/internal/infrastructure/config"
	"github.com/nerrad567/irhvac-core/internal/infrastructure/logging"
	"github.com/nerrad567/irhvac-core/internal/irdriver"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	WS       config.WebSocketConfig
	Limits   config.LimitsConfig
	Logger   *logging.Logger
	Registry *hvac.Registry
	Engine   *hvac.Engine
	Emitters *irdriver.Table
	Repo     hvac.Repository
	Version  string
}

// Server is the HTTP management API for irhvac-core.
//
// It exposes emitter and device configuration, direct send testing, and
// a WebSocket state feed. The server is created with New() and started
// with Start().
type Server struct {
	cfg      config.APIConfig
	wsCfg    config.WebSocketConfig
	limits   config.LimitsConfig
	logger   *logging.Logger
	registry *hvac.Registry
	engine   *hvac.Engine
	emitters *irdriver.Table
	repo     hvac.Repository
	version  string

	server *http.Server
	hub    *Hub
	cancel context.CancelFunc
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("device registry is required")
	}
	if deps.Engine == nil {
		return nil, fmt.Errorf("command engine is required")
	}
	if deps.Emitters == nil {
		return nil, fmt.Errorf("emitter table is required")
	}

	return &Server{
		cfg:      deps.Config,
		wsCfg:    deps.WS,
		limits:   deps.Limits,
		logger:   deps.Logger,
		registry: deps.Registry,
		engine:   deps.Engine,
		emitters: deps.Emitters,
		repo:     deps.Repo,
		version:  deps.Version,
	}, nil
}

// Hub returns the WebSocket hub. Nil until Start has been called.
// The hub implements hvac.Notifier, so it can be registered with the
// engine's fan-out.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start begins listening for HTTP connections.
//
// It starts the WebSocket hub and launches the HTTP listener in a
// background goroutine. The server can be stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	if s.hub == nil {
		s.hub = NewHub(s.wsCfg, s.logger)
	}
	go s.hub.Run(srvCtx)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		s.logger.Info("API server starting", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
