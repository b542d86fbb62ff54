package api

import (
	"encoding/json"
	"testing"

	"github.com/nerrad567/samsung2878/internal/infrastructure/config"
	"github.com/nerrad567/samsung2878/internal/poller"
	"github.com/nerrad567/samsung2878/internal/samsung2878"
)

func newTestHub() *Hub {
	return NewHub(config.WebSocketConfig{MaxMessageSize: 4096, PingInterval: 30, PongTimeout: 10}, testLogger())
}

// attach registers a connection-less client so broadcast paths can be
// exercised without a network socket.
func attach(h *Hub) *wsClient {
	client := &wsClient{hub: h, send: make(chan []byte, wsSendBufferSize)}
	h.register(client)
	return client
}

func TestHubBroadcastState(t *testing.T) {
	hub := newTestHub()
	client := attach(hub)

	hub.BroadcastState(samsung2878.DeviceState{Power: true, Mode: "Cool", TargetTemp: 23})

	select {
	case data := <-client.send:
		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if msg.Type != WSTypeState {
			t.Errorf("type = %q, want %q", msg.Type, WSTypeState)
		}
		payload, ok := msg.Payload.(map[string]any)
		if !ok {
			t.Fatalf("payload = %T", msg.Payload)
		}
		if payload["mode"] != "Cool" {
			t.Errorf("payload mode = %v", payload["mode"])
		}
	default:
		t.Fatal("no message broadcast")
	}
}

func TestHubBroadcastStatus(t *testing.T) {
	hub := newTestHub()
	client := attach(hub)

	hub.BroadcastStatus(poller.StatusReady)

	select {
	case data := <-client.send:
		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if msg.Type != WSTypeStatus || msg.Payload != string(poller.StatusReady) {
			t.Errorf("message = %+v", msg)
		}
	default:
		t.Fatal("no message broadcast")
	}
}

func TestHubUnregisterClosesSend(t *testing.T) {
	hub := newTestHub()
	client := attach(hub)

	hub.unregister(client)
	if _, ok := <-client.send; ok {
		t.Error("send channel should be closed")
	}
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount = %d, want 0", hub.ClientCount())
	}

	// Second unregister must not panic on double close.
	hub.unregister(client)
}

func TestHubSlowClientSkipped(t *testing.T) {
	hub := newTestHub()
	client := attach(hub)

	// Fill the buffer, then broadcast once more; the extra message is
	// dropped rather than blocking the hub.
	for i := 0; i < wsSendBufferSize; i++ {
		hub.BroadcastStatus(poller.StatusRefreshing)
	}
	hub.BroadcastStatus(poller.StatusReady)

	if got := len(client.send); got != wsSendBufferSize {
		t.Errorf("buffered = %d, want %d", got, wsSendBufferSize)
	}
}
