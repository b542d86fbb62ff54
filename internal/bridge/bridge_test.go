package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/nerrad567/samsung2878/internal/infrastructure/config"
	"github.com/nerrad567/samsung2878/internal/infrastructure/logging"
	"github.com/nerrad567/samsung2878/internal/infrastructure/mqtt"
	"github.com/nerrad567/samsung2878/internal/poller"
	"github.com/nerrad567/samsung2878/internal/samsung2878"
)

type published struct {
	topic    string
	payload  string
	retained bool
}

type fakeBroker struct {
	mu        sync.Mutex
	published []published
	handler   mqtt.MessageHandler
	subTopic  string
	pubErr    error
}

func (f *fakeBroker) Publish(topic string, payload []byte, qos byte, retained bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pubErr != nil {
		return f.pubErr
	}
	f.published = append(f.published, published{topic, string(payload), retained})
	return nil
}

func (f *fakeBroker) Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subTopic = topic
	f.handler = handler
	return nil
}

func (f *fakeBroker) deliver(t *testing.T, topic string, payload string) error {
	t.Helper()
	f.mu.Lock()
	h := f.handler
	f.mu.Unlock()
	if h == nil {
		t.Fatal("no subscription registered")
	}
	return h(topic, []byte(payload))
}

func (f *fakeBroker) messages() []published {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]published, len(f.published))
	copy(out, f.published)
	return out
}

// fakeDevice records each control call by name and argument.
type fakeDevice struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeDevice) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeDevice) SetPower(_ context.Context, on bool) error {
	if on {
		return f.record("power=On")
	}
	return f.record("power=Off")
}
func (f *fakeDevice) SetMode(_ context.Context, mode string) error { return f.record("mode=" + mode) }
func (f *fakeDevice) SetTemperature(_ context.Context, temp int) error {
	return f.record("temp=" + strconv.Itoa(temp))
}
func (f *fakeDevice) SetFanMode(_ context.Context, mode string) error {
	return f.record("fan=" + mode)
}
func (f *fakeDevice) SetSwingMode(_ context.Context, mode string) error {
	return f.record("swing=" + mode)
}
func (f *fakeDevice) SetPreset(_ context.Context, preset string) error {
	return f.record("preset=" + preset)
}
func (f *fakeDevice) SetAutoClean(_ context.Context, on bool) error {
	if on {
		return f.record("autoclean=On")
	}
	return f.record("autoclean=Off")
}
func (f *fakeDevice) SetIonizer(_ context.Context, on bool) error {
	if on {
		return f.record("ionizer=On")
	}
	return f.record("ionizer=Off")
}
func (f *fakeDevice) SetSleepTimer(_ context.Context, minutes int) error {
	return f.record("sleep")
}

func (f *fakeDevice) callList() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

// fakeSender runs the op immediately and records the patch.
type fakeSender struct {
	mu      sync.Mutex
	patched samsung2878.DeviceState
	sendErr error
}

func (f *fakeSender) SendCommand(ctx context.Context, op func(context.Context) error, patch func(*samsung2878.DeviceState)) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	if err := op(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if patch != nil {
		patch(&f.patched)
	}
	return nil
}

func testLogger() *logging.Logger {
	return logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stderr"}, "test")
}

const testDUID = "AABBCCDDEEFF"

func newTestBridge(t *testing.T) (*Bridge, *fakeBroker, *fakeDevice, *fakeSender) {
	t.Helper()
	broker := &fakeBroker{}
	device := &fakeDevice{}
	sender := &fakeSender{}
	b := New(broker, device, sender, mqtt.Topics{Prefix: "samsungac"}, testDUID, 1, testLogger())
	if err := b.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return b, broker, device, sender
}

func TestStartSubscribesCommandTopic(t *testing.T) {
	_, broker, _, _ := newTestBridge(t)

	want := "samsungac/AABBCCDDEEFF/command/+"
	if broker.subTopic != want {
		t.Errorf("subscribed topic = %q, want %q", broker.subTopic, want)
	}
}

func TestCommandDispatch(t *testing.T) {
	tests := []struct {
		name     string
		command  string
		payload  string
		wantCall string
	}{
		{"power json bool", "power", "true", "power=On"},
		{"power word", "power", "off", "power=Off"},
		{"power quoted", "power", `"on"`, "power=On"},
		{"mode", "mode", `"Cool"`, "mode=Cool"},
		{"mode bare case insensitive", "mode", "heat", "mode=Heat"},
		{"temperature", "temperature", "22", "temp=22"},
		{"temperature quoted", "temperature", `"18"`, "temp=18"},
		{"fan mode", "fan_mode", "Turbo", "fan=Turbo"},
		{"swing mode", "swing_mode", "SwingUD", "swing=SwingUD"},
		{"preset", "preset", "Quiet", "preset=Quiet"},
		{"auto clean", "auto_clean", "true", "autoclean=On"},
		{"ionizer", "ionizer", "off", "ionizer=Off"},
		{"sleep timer", "sleep_timer", "120", "sleep"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, broker, device, _ := newTestBridge(t)

			topic := "samsungac/" + testDUID + "/command/" + tt.command
			if err := broker.deliver(t, topic, tt.payload); err != nil {
				t.Fatalf("deliver() error = %v", err)
			}

			calls := device.callList()
			if len(calls) != 1 || calls[0] != tt.wantCall {
				t.Errorf("device calls = %v, want [%s]", calls, tt.wantCall)
			}
		})
	}
}

func TestCommandRejectsInvalidPayload(t *testing.T) {
	tests := []struct {
		name    string
		command string
		payload string
	}{
		{"power garbage", "power", "maybe"},
		{"mode unknown", "mode", "Freeze"},
		{"temperature word", "temperature", "warm"},
		{"fan unknown", "fan_mode", "Hurricane"},
		{"unknown command", "defrost", "true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, broker, device, _ := newTestBridge(t)

			topic := "samsungac/" + testDUID + "/command/" + tt.command
			if err := broker.deliver(t, topic, tt.payload); err == nil {
				t.Error("deliver() error = nil, want error")
			}
			if calls := device.callList(); len(calls) != 0 {
				t.Errorf("device calls = %v, want none", calls)
			}
		})
	}
}

func TestCommandOptimisticPatch(t *testing.T) {
	_, broker, _, sender := newTestBridge(t)

	topic := "samsungac/" + testDUID + "/command/temperature"
	if err := broker.deliver(t, topic, "25"); err != nil {
		t.Fatalf("deliver() error = %v", err)
	}

	if sender.patched.TargetTemp != 25 {
		t.Errorf("patched TargetTemp = %d, want 25", sender.patched.TargetTemp)
	}
}

func TestCommandDeviceFailure(t *testing.T) {
	_, broker, device, _ := newTestBridge(t)
	device.err = errors.New("write failed")

	topic := "samsungac/" + testDUID + "/command/power"
	if err := broker.deliver(t, topic, "on"); err == nil {
		t.Error("deliver() error = nil, want error")
	}
}

func TestHandleStatePublishesRetainedJSON(t *testing.T) {
	b, broker, _, _ := newTestBridge(t)

	state := samsung2878.DeviceState{Power: true, Mode: "Cool", TargetTemp: 21}
	b.HandleState(state)

	msgs := broker.messages()
	if len(msgs) != 1 {
		t.Fatalf("published %d messages, want 1", len(msgs))
	}
	if msgs[0].topic != "samsungac/AABBCCDDEEFF/state" {
		t.Errorf("topic = %q", msgs[0].topic)
	}
	if !msgs[0].retained {
		t.Error("state message not retained")
	}

	var decoded samsung2878.DeviceState
	if err := json.Unmarshal([]byte(msgs[0].payload), &decoded); err != nil {
		t.Fatalf("payload not valid JSON: %v", err)
	}
	if !decoded.Power || decoded.Mode != "Cool" || decoded.TargetTemp != 21 {
		t.Errorf("decoded state = %+v", decoded)
	}
}

func TestHandleStatusAvailability(t *testing.T) {
	tests := []struct {
		status poller.Status
		want   string
	}{
		{poller.StatusReady, "online"},
		{poller.StatusFailed, "offline"},
		{poller.StatusDisconnected, "offline"},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			b, broker, _, _ := newTestBridge(t)

			b.HandleStatus(tt.status)

			msgs := broker.messages()
			if len(msgs) != 1 {
				t.Fatalf("published %d messages, want 1", len(msgs))
			}
			if msgs[0].topic != "samsungac/AABBCCDDEEFF/availability" {
				t.Errorf("topic = %q", msgs[0].topic)
			}
			if msgs[0].payload != tt.want {
				t.Errorf("payload = %q, want %q", msgs[0].payload, tt.want)
			}
			if !msgs[0].retained {
				t.Error("availability message not retained")
			}
		})
	}
}

func TestHandleStatusRefreshingSilent(t *testing.T) {
	b, broker, _, _ := newTestBridge(t)

	b.HandleStatus(poller.StatusRefreshing)

	if msgs := broker.messages(); len(msgs) != 0 {
		t.Errorf("published %d messages, want 0", len(msgs))
	}
}
