package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nerrad567/samsung2878/internal/infrastructure/logging"
	"github.com/nerrad567/samsung2878/internal/infrastructure/mqtt"
	"github.com/nerrad567/samsung2878/internal/poller"
	"github.com/nerrad567/samsung2878/internal/samsung2878"
)

// Broker is the slice of the MQTT client the bridge uses.
// *mqtt.Client satisfies it; tests substitute a fake.
type Broker interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// DeviceController is the command surface the bridge drives.
// *samsung2878.Client satisfies it.
type DeviceController interface {
	SetPower(ctx context.Context, on bool) error
	SetMode(ctx context.Context, mode string) error
	SetTemperature(ctx context.Context, temp int) error
	SetFanMode(ctx context.Context, mode string) error
	SetSwingMode(ctx context.Context, mode string) error
	SetPreset(ctx context.Context, preset string) error
	SetAutoClean(ctx context.Context, on bool) error
	SetIonizer(ctx context.Context, on bool) error
	SetSleepTimer(ctx context.Context, minutes int) error
}

// CommandSender serialises device commands against the refresh loop.
// *poller.Poller satisfies it.
type CommandSender interface {
	SendCommand(ctx context.Context, op func(context.Context) error, patch func(*samsung2878.DeviceState)) error
}

// Bridge connects one unit's poller to an MQTT broker.
type Bridge struct {
	broker Broker
	device DeviceController
	sender CommandSender
	topics mqtt.Topics
	duid   string
	qos    byte
	logger *logging.Logger
}

// New builds a bridge for one unit.
func New(broker Broker, device DeviceController, sender CommandSender, topics mqtt.Topics, duid string, qos byte, logger *logging.Logger) *Bridge {
	return &Bridge{
		broker: broker,
		device: device,
		sender: sender,
		topics: topics,
		duid:   duid,
		qos:    qos,
		logger: logger.With("component", "bridge", "duid", duid),
	}
}

// Start subscribes to the unit's command topics. State publishing is
// driven by the poller listeners; wire HandleState and HandleStatus
// into the poller before starting it.
func (b *Bridge) Start(ctx context.Context) error {
	topic := b.topics.AllCommands(b.duid)
	return b.broker.Subscribe(topic, b.qos, func(t string, payload []byte) error {
		return b.handleCommand(ctx, t, payload)
	})
}

// HandleState publishes a retained state document. Register it as a
// poller listener.
func (b *Bridge) HandleState(state samsung2878.DeviceState) {
	payload, err := json.Marshal(state)
	if err != nil {
		b.logger.Error("state marshal failed", "error", err)
		return
	}
	if err := b.broker.Publish(b.topics.State(b.duid), payload, b.qos, true); err != nil {
		b.logger.Warn("state publish failed", "error", err)
	}
}

// HandleStatus publishes the retained availability flag on session
// health transitions. Register it as a poller status listener.
func (b *Bridge) HandleStatus(status poller.Status) {
	var payload string
	switch status {
	case poller.StatusReady:
		payload = "online"
	case poller.StatusFailed, poller.StatusDisconnected:
		payload = "offline"
	default:
		// Refreshing is transient; neither online nor offline yet.
		return
	}
	if err := b.broker.Publish(b.topics.Availability(b.duid), []byte(payload), b.qos, true); err != nil {
		b.logger.Warn("availability publish failed", "error", err)
	}
}

// handleCommand dispatches one inbound command by its topic leaf.
func (b *Bridge) handleCommand(ctx context.Context, topic string, payload []byte) error {
	name := topic[strings.LastIndex(topic, "/")+1:]
	b.logger.Debug("command received", "command", name, "payload", string(payload))

	op, patch, err := b.buildCommand(name, payload)
	if err != nil {
		return fmt.Errorf("command %q: %w", name, err)
	}

	return b.sender.SendCommand(ctx, op, patch)
}

// buildCommand maps a command name and payload onto a device operation
// and the optimistic snapshot patch it implies.
func (b *Bridge) buildCommand(name string, payload []byte) (func(context.Context) error, func(*samsung2878.DeviceState), error) {
	switch name {
	case "power":
		v, err := parseBool(payload)
		if err != nil {
			return nil, nil, err
		}
		return func(ctx context.Context) error { return b.device.SetPower(ctx, v) },
			func(s *samsung2878.DeviceState) { s.Power = v }, nil

	case "mode":
		v, err := parseEnum(payload, samsung2878.Modes)
		if err != nil {
			return nil, nil, err
		}
		return func(ctx context.Context) error { return b.device.SetMode(ctx, v) },
			func(s *samsung2878.DeviceState) { s.Mode = v }, nil

	case "temperature":
		v, err := parseInt(payload)
		if err != nil {
			return nil, nil, err
		}
		return func(ctx context.Context) error { return b.device.SetTemperature(ctx, v) },
			func(s *samsung2878.DeviceState) { s.TargetTemp = v }, nil

	case "fan_mode":
		v, err := parseEnum(payload, samsung2878.FanModes)
		if err != nil {
			return nil, nil, err
		}
		return func(ctx context.Context) error { return b.device.SetFanMode(ctx, v) },
			func(s *samsung2878.DeviceState) { s.FanMode = v }, nil

	case "swing_mode":
		v, err := parseEnum(payload, samsung2878.SwingModes)
		if err != nil {
			return nil, nil, err
		}
		return func(ctx context.Context) error { return b.device.SetSwingMode(ctx, v) },
			func(s *samsung2878.DeviceState) { s.SwingMode = v }, nil

	case "preset":
		v, err := parseEnum(payload, samsung2878.Presets)
		if err != nil {
			return nil, nil, err
		}
		return func(ctx context.Context) error { return b.device.SetPreset(ctx, v) },
			func(s *samsung2878.DeviceState) { s.Preset = v }, nil

	case "auto_clean":
		v, err := parseBool(payload)
		if err != nil {
			return nil, nil, err
		}
		return func(ctx context.Context) error { return b.device.SetAutoClean(ctx, v) },
			func(s *samsung2878.DeviceState) { s.AutoClean = v }, nil

	case "ionizer":
		v, err := parseBool(payload)
		if err != nil {
			return nil, nil, err
		}
		return func(ctx context.Context) error { return b.device.SetIonizer(ctx, v) },
			func(s *samsung2878.DeviceState) { s.Ionizer = v }, nil

	case "sleep_timer":
		v, err := parseInt(payload)
		if err != nil {
			return nil, nil, err
		}
		return func(ctx context.Context) error { return b.device.SetSleepTimer(ctx, v) },
			func(s *samsung2878.DeviceState) { s.SleepTimerMinutes = v }, nil

	default:
		return nil, nil, fmt.Errorf("unknown command")
	}
}

// parseBool accepts JSON booleans plus the usual hand-typed spellings.
func parseBool(payload []byte) (bool, error) {
	switch strings.ToLower(strings.Trim(strings.TrimSpace(string(payload)), `"`)) {
	case "true", "on", "1":
		return true, nil
	case "false", "off", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean payload %q", payload)
	}
}

// parseInt accepts JSON numbers and quoted digit strings.
func parseInt(payload []byte) (int, error) {
	var v int
	text := strings.Trim(strings.TrimSpace(string(payload)), `"`)
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return 0, fmt.Errorf("invalid integer payload %q", payload)
	}
	return v, nil
}

// parseEnum accepts a JSON string or bare word and matches it against
// the accepted values, case-insensitively.
func parseEnum(payload []byte, accepted []string) (string, error) {
	text := strings.Trim(strings.TrimSpace(string(payload)), `"`)
	for _, v := range accepted {
		if strings.EqualFold(text, v) {
			return v, nil
		}
	}
	return "", fmt.Errorf("invalid value %q (accepted: %s)", text, strings.Join(accepted, ", "))
}
