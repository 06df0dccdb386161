// Package api provides the HTTP REST API and WebSocket server for Hearth Core.
//
// It exposes the session endpoints (login, refresh, logout), the room,
// device, and product inventories, user administration, and a live
// telemetry event stream to web and mobile frontends.
//
// The server follows the same lifecycle pattern as other infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rowanfell/hearth-core/internal/audit"
	"github.com/rowanfell/hearth-core/internal/auth"
	"github.com/rowanfell/hearth-core/internal/device"
	"github.com/rowanfell/hearth-core/internal/infrastructure/config"
	"github.com/rowanfell/hearth-core/internal/infrastructure/logging"
	"github.com/rowanfell/hearth-core/internal/location"
	"github.com/rowanfell/hearth-core/internal/product"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config        config.APIConfig
	WS            config.WebSocketConfig
	RateLimit     config.RateLimitConfig
	Logger        *logging.Logger
	Sessions      *auth.SessionService
	Authenticator *auth.Authenticator
	Cookies       *auth.CookieTransport
	Users         auth.UserRepository
	Rooms         location.Repository
	Devices       device.Repository
	Data          device.DataRepository
	Importer      *device.Importer
	Audit         audit.Repository // optional: session activity trail
	Redis         *redis.Client    // optional: backs the auth rate limiter
	Products      product.Repository
	DB            *sql.DB // optional: connection pool stats on /api/health
	ExternalHub   *Hub    // If set, the server uses this hub instead of creating its own
	Version       string
}

// Server is the HTTP API server for Hearth Core.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg           config.APIConfig
	wsCfg         config.WebSocketConfig
	rlCfg         config.RateLimitConfig
	logger        *logging.Logger
	sessions      *auth.SessionService
	authenticator *auth.Authenticator
	cookies       *auth.CookieTransport
	users         auth.UserRepository
	rooms         location.Repository
	devices       device.Repository
	data          device.DataRepository
	importer      *device.Importer
	audit         audit.Repository
	redis         *redis.Client
	products      product.Repository
	db            *sql.DB
	version       string
	startTime     time.Time
	server        *http.Server
	hub           *Hub
	externalHub   bool               // true if hub was injected externally
	cancel        context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Sessions == nil {
		return nil, fmt.Errorf("session service is required")
	}
	if deps.Authenticator == nil {
		return nil, fmt.Errorf("authenticator is required")
	}
	if deps.Cookies == nil {
		return nil, fmt.Errorf("cookie transport is required")
	}

	s := &Server{
		cfg:           deps.Config,
		wsCfg:         deps.WS,
		rlCfg:         deps.RateLimit,
		logger:        deps.Logger,
		sessions:      deps.Sessions,
		authenticator: deps.Authenticator,
		cookies:       deps.Cookies,
		users:         deps.Users,
		rooms:         deps.Rooms,
		devices:       deps.Devices,
		data:          deps.Data,
		importer:      deps.Importer,
		audit:         deps.Audit,
		redis:         deps.Redis,
		products:      deps.Products,
		db:            deps.DB,
		version:       deps.Version,
		startTime:     time.Now(),
	}

	// Use externally-provided hub if available (needed when the telemetry
	// ingestor also requires the hub for WebSocket broadcasting).
	if deps.ExternalHub != nil {
		s.hub = deps.ExternalHub
		s.externalHub = true
	}

	return s, nil
}

// Hub returns the server's WebSocket hub. Nil until Start() unless one
// was injected via Deps.ExternalHub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start begins listening for HTTP connections.
//
// It sets up the router, starts the WebSocket hub, and launches the HTTP
// listener in a background goroutine. The server can be stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	// Create internal context so Close() can stop background goroutines
	// independently of the parent context.
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	// Create WebSocket hub (unless one was injected externally)
	if s.hub == nil {
		s.hub = NewHub(s.wsCfg, s.logger)
		go s.hub.Run(srvCtx)
	}

	// Build router
	router := s.buildRouter()

	// Create HTTP server
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	// Start listening in background
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

	// Cancel background goroutines (hub)
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

// HealthCheck verifies the API server is running and responsive.
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
