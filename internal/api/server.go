package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nerrad567/samsung2878/internal/infrastructure/config"
	"github.com/nerrad567/samsung2878/internal/infrastructure/logging"
	"github.com/nerrad567/samsung2878/internal/poller"
	"github.com/nerrad567/samsung2878/internal/samsung2878"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// StateSource is the read side of the reconciliation loop.
// *poller.Poller satisfies it.
type StateSource interface {
	Snapshot() (samsung2878.DeviceState, bool)
	Status() poller.Status
	LastError() error
	SendCommand(ctx context.Context, op func(context.Context) error, patch func(*samsung2878.DeviceState)) error
}

// DeviceOps is the command and query surface the handlers drive.
// *samsung2878.Client satisfies it. Device operations are always
// routed through StateSource.SendCommand so they serialise against
// the refresh loop.
type DeviceOps interface {
	SetPower(ctx context.Context, on bool) error
	SetMode(ctx context.Context, mode string) error
	SetTemperature(ctx context.Context, temp int) error
	SetFanMode(ctx context.Context, mode string) error
	SetSwingMode(ctx context.Context, mode string) error
	SetPreset(ctx context.Context, preset string) error
	SetAutoClean(ctx context.Context, on bool) error
	SetIonizer(ctx context.Context, on bool) error
	SetSleepTimer(ctx context.Context, minutes int) error
	GetSWInfo(ctx context.Context) (samsung2878.SWInfo, error)
	GetPowerLoggingMode(ctx context.Context) (string, error)
	SetPowerLoggingMode(ctx context.Context, enable bool) error
	ResetPowerLogging(ctx context.Context) error
	GetPowerUsage(ctx context.Context, from, to time.Time, unit string) ([]samsung2878.PowerUsage, error)
	SendRawXML(ctx context.Context, request string) (string, error)
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	WS       config.WebSocketConfig
	Logger   *logging.Logger
	State    StateSource
	Device   DeviceOps
	Gatherer prometheus.Gatherer // nil disables /metrics
	DUID     string
	Version  string
}

// Server is the HTTP API server.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg      config.APIConfig
	wsCfg    config.WebSocketConfig
	logger   *logging.Logger
	state    StateSource
	device   DeviceOps
	gatherer prometheus.Gatherer
	duid     string
	version  string
	server   *http.Server
	hub      *Hub
	cancel   context.CancelFunc
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (config, logger, state source, device)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.State == nil {
		return nil, fmt.Errorf("state source is required")
	}
	if deps.Device == nil {
		return nil, fmt.Errorf("device controller is required")
	}

	return &Server{
		cfg:      deps.Config,
		wsCfg:    deps.WS,
		logger:   deps.Logger,
		state:    deps.State,
		device:   deps.Device,
		gatherer: deps.Gatherer,
		duid:     deps.DUID,
		version:  deps.Version,
	}, nil
}

// Hub returns the WebSocket hub. It is nil until Start() is called.
// Register hub.BroadcastState as a poller listener so every snapshot
// reaches connected sockets.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start begins listening for HTTP connections.
//
// It sets up the router, starts the WebSocket hub, and launches the
// HTTP listener in a background goroutine. The server can be stopped
// with Close().
//
// Parameters:
//   - ctx: Context for cancellation (not used for listener lifetime)
//
// Returns:
//   - error: If the server fails to start (port in use, etc.)
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	s.hub = NewHub(s.wsCfg, s.logger)
	go s.hub.Run(srvCtx)

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
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
//
// Returns:
//   - error: If shutdown encounters an error
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

// HealthCheck verifies the API server is running and responsive.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
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
