package poller

import (
	"context"
	"sync"
	"time"

	"github.com/nerrad567/samsung2878/internal/infrastructure/logging"
	"github.com/nerrad567/samsung2878/internal/samsung2878"
)

// Status describes the health of the device session.
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusRefreshing   Status = "refreshing"
	StatusReady        Status = "ready"
	StatusFailed       Status = "failed"
)

// Controller is the slice of the device client the poller drives.
// *samsung2878.Client satisfies it; tests substitute a fake.
type Controller interface {
	Connected() bool
	Connect(ctx context.Context) error
	Authenticate(ctx context.Context) error
	Disconnect()
	GetStatus(ctx context.Context) (samsung2878.DeviceState, error)
}

// Listener receives each new state snapshot.
type Listener func(samsung2878.DeviceState)

// StatusListener receives connection health transitions.
type StatusListener func(Status)

// Poller owns the device session and the cached state snapshot.
//
// Thread Safety:
//   - All methods are safe for concurrent use. Device operations
//     (refresh, SendCommand) serialise on an operation mutex; snapshot
//     reads take a separate short-lived lock.
type Poller struct {
	controller Controller
	interval   time.Duration
	logger     *logging.Logger

	// opMu serialises device operations so a command never interleaves
	// with a refresh on the shared connection.
	opMu sync.Mutex

	stateMu   sync.RWMutex
	snapshot  samsung2878.DeviceState
	hasState  bool
	status    Status
	lastErr   error
	listeners []Listener
	statusLs  []StatusListener

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds a poller around controller, refreshing every interval.
func New(controller Controller, interval time.Duration, logger *logging.Logger) *Poller {
	if interval <= 0 {
		interval = samsung2878.DefaultPollInterval * time.Second
	}
	return &Poller{
		controller: controller,
		interval:   interval,
		logger:     logger,
		status:     StatusDisconnected,
	}
}

// AddListener registers a snapshot subscriber. Must be called before
// Start.
func (p *Poller) AddListener(l Listener) {
	p.stateMu.Lock()
	p.listeners = append(p.listeners, l)
	p.stateMu.Unlock()
}

// AddStatusListener registers a health subscriber. Must be called
// before Start.
func (p *Poller) AddStatusListener(l StatusListener) {
	p.stateMu.Lock()
	p.statusLs = append(p.statusLs, l)
	p.stateMu.Unlock()
}

// Start begins the refresh loop: one immediate refresh, then one per
// interval until the context is cancelled or Stop is called.
func (p *Poller) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		p.Refresh(ctx)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.Refresh(ctx)
			}
		}
	}()
}

// Stop halts the refresh loop and closes the device session.
func (p *Poller) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()

	p.opMu.Lock()
	p.controller.Disconnect()
	p.opMu.Unlock()

	p.setStatus(StatusDisconnected, nil)
	p.logger.Info("poller stopped")
}

// Refresh polls the unit for a full state snapshot, reconnecting first
// if the session is down. Errors mark the session failed; the next
// cycle retries from scratch.
func (p *Poller) Refresh(ctx context.Context) {
	p.opMu.Lock()
	defer p.opMu.Unlock()

	p.setStatus(StatusRefreshing, nil)

	if err := p.ensureConnectedLocked(ctx); err != nil {
		p.logger.Warn("refresh: connect failed", "error", err)
		p.setStatus(StatusFailed, err)
		return
	}

	state, err := p.controller.GetStatus(ctx)
	if err != nil {
		p.logger.Warn("refresh: status poll failed", "error", err)
		p.controller.Disconnect()
		p.setStatus(StatusFailed, err)
		return
	}

	p.publish(state)
	p.setStatus(StatusReady, nil)
}

// SendCommand runs op on the serialised session, then applies patch to
// the cached snapshot so subscribers see the optimistic effect at once.
// The next refresh reconciles against the device's actual state.
func (p *Poller) SendCommand(ctx context.Context, op func(context.Context) error, patch func(*samsung2878.DeviceState)) error {
	p.opMu.Lock()
	defer p.opMu.Unlock()

	if err := p.ensureConnectedLocked(ctx); err != nil {
		p.setStatus(StatusFailed, err)
		return err
	}

	if err := op(ctx); err != nil {
		// The stream framing is unknown after a failed write; drop the
		// session and let the next refresh rebuild it.
		p.logger.Warn("command failed, dropping session", "error", err)
		p.controller.Disconnect()
		p.setStatus(StatusFailed, err)
		return err
	}

	if patch != nil {
		p.stateMu.RLock()
		hasState := p.hasState
		snapshot := p.snapshot
		p.stateMu.RUnlock()

		if hasState {
			next := snapshot.Clone()
			patch(&next)
			p.publish(next)
		}
	}

	return nil
}

// Snapshot returns the most recent state and whether one exists yet.
func (p *Poller) Snapshot() (samsung2878.DeviceState, bool) {
	p.stateMu.RLock()
	defer p.stateMu.RUnlock()
	if !p.hasState {
		return samsung2878.DeviceState{}, false
	}
	return p.snapshot.Clone(), true
}

// Status returns the current session health.
func (p *Poller) Status() Status {
	p.stateMu.RLock()
	defer p.stateMu.RUnlock()
	return p.status
}

// LastError returns the error behind the most recent failure, if any.
func (p *Poller) LastError() error {
	p.stateMu.RLock()
	defer p.stateMu.RUnlock()
	return p.lastErr
}

// ensureConnectedLocked opens and authenticates the session if needed.
// Callers must hold opMu.
func (p *Poller) ensureConnectedLocked(ctx context.Context) error {
	if p.controller.Connected() {
		return nil
	}

	if err := p.controller.Connect(ctx); err != nil {
		return err
	}
	if err := p.controller.Authenticate(ctx); err != nil {
		p.controller.Disconnect()
		return err
	}

	p.logger.Info("device session established")
	return nil
}

// publish stores a snapshot and notifies listeners outside the state
// lock.
func (p *Poller) publish(state samsung2878.DeviceState) {
	p.stateMu.Lock()
	p.snapshot = state
	p.hasState = true
	listeners := make([]Listener, len(p.listeners))
	copy(listeners, p.listeners)
	p.stateMu.Unlock()

	for _, l := range listeners {
		l(state.Clone())
	}
}

// setStatus records a health transition and notifies status listeners
// when it changed.
func (p *Poller) setStatus(status Status, err error) {
	p.stateMu.Lock()
	changed := p.status != status
	p.status = status
	if err != nil || status == StatusReady {
		p.lastErr = err
	}
	listeners := make([]StatusListener, len(p.statusLs))
	copy(listeners, p.statusLs)
	p.stateMu.Unlock()

	if !changed {
		return
	}
	for _, l := range listeners {
		l(status)
	}
}
