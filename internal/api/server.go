// Package api provides the HTTP REST API and WebSocket server for
// Pitchside Core.
//
// It exposes component status, run history, and re-initialisation triggers
// to the admin surface, and relays component lifecycle events to WebSocket
// subscribers in real time.
//
// The server follows the same lifecycle pattern as the other
// infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/pitchside/pitchside-core/internal/action"
	"github.com/pitchside/pitchside-core/internal/auth"
	"github.com/pitchside/pitchside-core/internal/history"
	"github.com/pitchside/pitchside-core/internal/infrastructure/config"
	"github.com/pitchside/pitchside-core/internal/infrastructure/database"
	"github.com/pitchside/pitchside-core/internal/infrastructure/logging"
	"github.com/pitchside/pitchside-core/internal/infrastructure/mqtt"
	"github.com/pitchside/pitchside-core/internal/lifecycle"
)

// gracefulShutdownTimeout is the maximum wait for in-flight requests
// during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config      config.APIConfig
	WS          config.WebSocketConfig
	Security    config.SecurityConfig
	Logger      *logging.Logger
	Registry    *lifecycle.Registry
	Dispatcher  *action.Dispatcher
	Users       *auth.Store
	History     history.Repository // optional: run history endpoint disabled when nil
	MQTT        *mqtt.Client       // optional: metrics only
	DB          *database.DB       // optional: metrics only
	ExternalHub *Hub               // if set, the server uses this hub instead of creating its own
	Version     string
}

// Server is the HTTP API server for Pitchside Core. It manages the HTTP
// listener, routes, middleware, and WebSocket hub. Create with New and
// start with Start.
type Server struct {
	cfg         config.APIConfig
	wsCfg       config.WebSocketConfig
	secCfg      config.SecurityConfig
	logger      *logging.Logger
	registry    *lifecycle.Registry
	dispatcher  *action.Dispatcher
	users       *auth.Store
	historyRepo history.Repository
	mqtt        *mqtt.Client
	db          *database.DB
	version     string
	startTime   time.Time

	server      *http.Server
	hub         *Hub
	externalHub bool
	tickets     *ticketStore
	cancel      context.CancelFunc // cancels background goroutines on Close
}

// New creates a new API server with the given dependencies. The server is
// not started until Start is called.
//
// Parameters:
//   - deps: Required dependencies (config, logger, registry, dispatcher, users)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("lifecycle registry is required")
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("action dispatcher is required")
	}
	if deps.Users == nil {
		return nil, fmt.Errorf("user store is required")
	}

	s := &Server{
		cfg:         deps.Config,
		wsCfg:       deps.WS,
		secCfg:      deps.Security,
		logger:      deps.Logger,
		registry:    deps.Registry,
		dispatcher:  deps.Dispatcher,
		users:       deps.Users,
		historyRepo: deps.History,
		mqtt:        deps.MQTT,
		db:          deps.DB,
		version:     deps.Version,
		startTime:   time.Now(),
		tickets:     newTicketStore(),
	}

	if deps.ExternalHub != nil {
		s.hub = deps.ExternalHub
		s.externalHub = true
	}

	return s, nil
}

// Start begins listening for HTTP connections.
//
// It starts the WebSocket hub and ticket cleanup, builds the router, and
// launches the HTTP listener in a background goroutine. Stop with Close.
func (s *Server) Start(ctx context.Context) error {
	// Internal context so Close can stop background goroutines
	// independently of the parent context.
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	if s.hub == nil {
		s.hub = NewHub(s.wsCfg, s.logger)
		go s.hub.Run(srvCtx)
	}

	go s.tickets.cleanLoop(srvCtx)

	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server, waiting up to 10 seconds for
// in-flight requests.
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

// Hub returns the server's WebSocket hub. Available after Start, or
// immediately when an external hub was injected.
func (s *Server) Hub() *Hub {
	return s.hub
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
