package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/samsung2878/internal/infrastructure/config"
	"github.com/nerrad567/samsung2878/internal/infrastructure/logging"
	"github.com/nerrad567/samsung2878/internal/samsung2878"
)

type fakeController struct {
	mu          sync.Mutex
	connected   bool
	connectErr  error
	authErr     error
	statusErr   error
	state       samsung2878.DeviceState
	polls       int
	disconnects int
}

func (f *fakeController) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeController) Connect(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.connectErr != nil {
		return f.connectErr
	}
	return nil
}

func (f *fakeController) Authenticate(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.authErr != nil {
		return f.authErr
	}
	f.connected = true
	return nil
}

func (f *fakeController) Disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
	f.disconnects++
}

func (f *fakeController) GetStatus(context.Context) (samsung2878.DeviceState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls++
	if f.statusErr != nil {
		return samsung2878.DeviceState{}, f.statusErr
	}
	return f.state.Clone(), nil
}

func (f *fakeController) pollCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.polls
}

func (f *fakeController) disconnectCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.disconnects
}

func testLogger() *logging.Logger {
	return logging.New(config.LoggingConfig{
		Level:  "error",
		Format: "text",
		Output: "stderr",
	}, "test")
}

func testState(power bool, target int) samsung2878.DeviceState {
	return samsung2878.DeviceState{
		Power:      power,
		Mode:       "Cool",
		TargetTemp: target,
		Raw:        samsung2878.RawAttributes{},
	}
}

func TestRefresh(t *testing.T) {
	fake := &fakeController{state: testState(true, 22)}
	p := New(fake, time.Minute, testLogger())

	var notified []samsung2878.DeviceState
	p.AddListener(func(s samsung2878.DeviceState) {
		notified = append(notified, s)
	})

	p.Refresh(context.Background())

	if got := p.Status(); got != StatusReady {
		t.Fatalf("Status() = %q, want ready", got)
	}
	state, ok := p.Snapshot()
	if !ok {
		t.Fatal("Snapshot() empty after refresh")
	}
	if !state.Power || state.TargetTemp != 22 {
		t.Errorf("snapshot = %+v", state)
	}
	if len(notified) != 1 {
		t.Fatalf("listener calls = %d, want 1", len(notified))
	}
}

func TestRefreshPollFailure(t *testing.T) {
	fake := &fakeController{statusErr: errors.New("read: broken pipe")}
	p := New(fake, time.Minute, testLogger())

	p.Refresh(context.Background())

	if got := p.Status(); got != StatusFailed {
		t.Fatalf("Status() = %q, want failed", got)
	}
	if p.LastError() == nil {
		t.Error("LastError() = nil after failure")
	}
	if fake.disconnectCount() == 0 {
		t.Error("session not dropped after poll failure")
	}
	if _, ok := p.Snapshot(); ok {
		t.Error("Snapshot() present after failed first refresh")
	}
}

func TestRefreshAuthFailure(t *testing.T) {
	fake := &fakeController{authErr: samsung2878.ErrAuth}
	p := New(fake, time.Minute, testLogger())

	p.Refresh(context.Background())

	if got := p.Status(); got != StatusFailed {
		t.Fatalf("Status() = %q, want failed", got)
	}
	if !errors.Is(p.LastError(), samsung2878.ErrAuth) {
		t.Errorf("LastError() = %v, want ErrAuth", p.LastError())
	}
}

func TestSendCommandOptimisticPatch(t *testing.T) {
	fake := &fakeController{state: testState(false, 22)}
	p := New(fake, time.Minute, testLogger())
	p.Refresh(context.Background())

	pollsBefore := fake.pollCount()

	err := p.SendCommand(context.Background(),
		func(context.Context) error { return nil },
		func(s *samsung2878.DeviceState) { s.Power = true })
	if err != nil {
		t.Fatalf("SendCommand() = %v", err)
	}

	// The patch is visible immediately, without another poll.
	state, ok := p.Snapshot()
	if !ok || !state.Power {
		t.Errorf("snapshot after command = %+v, want Power=true", state)
	}
	if fake.pollCount() != pollsBefore {
		t.Errorf("poll count = %d, want unchanged %d", fake.pollCount(), pollsBefore)
	}
}

func TestSendCommandFailureDropsSession(t *testing.T) {
	fake := &fakeController{state: testState(true, 22)}
	p := New(fake, time.Minute, testLogger())
	p.Refresh(context.Background())

	opErr := errors.New("write: connection reset")
	err := p.SendCommand(context.Background(),
		func(context.Context) error { return opErr },
		func(s *samsung2878.DeviceState) { s.Power = false })
	if !errors.Is(err, opErr) {
		t.Fatalf("SendCommand() = %v, want %v", err, opErr)
	}

	if p.Status() != StatusFailed {
		t.Errorf("Status() = %q, want failed", p.Status())
	}
	if fake.disconnectCount() == 0 {
		t.Error("session not dropped after command failure")
	}

	// The optimistic patch must not apply on failure.
	state, ok := p.Snapshot()
	if !ok || !state.Power {
		t.Errorf("snapshot after failed command = %+v, want Power still true", state)
	}
}

func TestStatusListenerTransitions(t *testing.T) {
	fake := &fakeController{state: testState(true, 22)}
	p := New(fake, time.Minute, testLogger())

	var transitions []Status
	p.AddStatusListener(func(s Status) {
		transitions = append(transitions, s)
	})

	p.Refresh(context.Background())
	p.Refresh(context.Background())

	// Each refresh passes through refreshing then ready; repeats of the
	// same status do not re-notify within a phase.
	want := []Status{StatusRefreshing, StatusReady, StatusRefreshing, StatusReady}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i, s := range want {
		if transitions[i] != s {
			t.Fatalf("transitions = %v, want %v", transitions, want)
		}
	}
}

func TestStartStop(t *testing.T) {
	fake := &fakeController{state: testState(true, 22)}
	p := New(fake, 10*time.Millisecond, testLogger())

	snapshots := make(chan samsung2878.DeviceState, 16)
	p.AddListener(func(s samsung2878.DeviceState) {
		select {
		case snapshots <- s:
		default:
		}
	})

	p.Start(context.Background())

	// Immediate refresh plus at least one tick.
	for i := 0; i < 2; i++ {
		select {
		case <-snapshots:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for poll")
		}
	}

	p.Stop()

	if p.Status() != StatusDisconnected {
		t.Errorf("Status() after Stop = %q, want disconnected", p.Status())
	}
	if fake.Connected() {
		t.Error("controller still connected after Stop")
	}
}
