package samsung2878

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// newTestClient returns a client with the handshake already completed
// against a fake device.
func newTestClient(t *testing.T) (*Client, *fakeDevice) {
	t.Helper()
	device, dialer := newFakeDevice(t)
	client := NewClient(ClientConfig{
		Host:   "unit",
		Token:  "secret-token",
		DUID:   "AABBCCDDEEFF",
		Dialer: dialer,
	})

	go device.greet("Okay")

	ctx := context.Background()
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect() = %v", err)
	}
	if err := client.Authenticate(ctx); err != nil {
		t.Fatalf("Authenticate() = %v", err)
	}
	return client, device
}

func TestClientGetStatus(t *testing.T) {
	client, device := newTestClient(t)

	go func() {
		req := device.recv()
		if !strings.Contains(req, `Type="DeviceState"`) || !strings.Contains(req, `DUID="AABBCCDDEEFF"`) {
			device.t.Errorf("unexpected request %q", req)
		}
		device.send(`<Response Type="DeviceState" Status="Okay"><DeviceState><Device DUID="AABBCCDDEEFF"><Attr ID="AC_FUN_POWER" Value="On"/><Attr ID="AC_FUN_TEMPSET" Value="21"/><Attr ID="AC_FUN_OPMODE" Value="Cool"/></Device></DeviceState></Response>`)
	}()

	state, err := client.GetStatus(context.Background())
	if err != nil {
		t.Fatalf("GetStatus() = %v", err)
	}
	if !state.Power || state.Mode != "Cool" || state.TargetTemp != 21 {
		t.Errorf("state = %+v", state)
	}
}

func TestClientGetStatusPushWins(t *testing.T) {
	client, device := newTestClient(t)

	// A push arriving between request and response carries the newer
	// value and must override the polled one.
	go func() {
		device.recv()
		device.send(`<Update Type="Status"><Status><Attr ID="AC_FUN_TEMPSET" Value="25"/><Attr ID="AC_FUN_SLEEP" Value="30"/></Status></Update>`)
		device.send(`<Response Type="DeviceState" Status="Okay"><Attr ID="AC_FUN_POWER" Value="On"/><Attr ID="AC_FUN_TEMPSET" Value="21"/></Response>`)
	}()

	state, err := client.GetStatus(context.Background())
	if err != nil {
		t.Fatalf("GetStatus() = %v", err)
	}
	if state.TargetTemp != 25 {
		t.Errorf("TargetTemp = %d, want pushed 25", state.TargetTemp)
	}
	if state.SleepTimerMinutes != 30 {
		t.Errorf("SleepTimerMinutes = %d, want pushed 30", state.SleepTimerMinutes)
	}
	if !state.Power {
		t.Error("polled Power lost in merge")
	}

	// The push buffer drains on use: a second poll sees only its own
	// response.
	go func() {
		device.recv()
		device.send(`<Response Type="DeviceState" Status="Okay"><Attr ID="AC_FUN_TEMPSET" Value="21"/></Response>`)
	}()

	state, err = client.GetStatus(context.Background())
	if err != nil {
		t.Fatalf("second GetStatus() = %v", err)
	}
	if state.TargetTemp != 21 {
		t.Errorf("second TargetTemp = %d, want 21", state.TargetTemp)
	}
}

func TestClientResponseBudget(t *testing.T) {
	client, device := newTestClient(t)

	go func() {
		device.recv()
		for i := 0; i < maxResponseLines; i++ {
			device.send(`<Update Type="Status"><Attr ID="AC_FUN_TEMPNOW" Value="22"/></Update>`)
		}
	}()

	// Ten non-matching lines exhaust the budget; the command completes
	// without error and the pushes still land in the snapshot.
	state, err := client.GetStatus(context.Background())
	if err != nil {
		t.Fatalf("GetStatus() = %v", err)
	}
	if state.CurrentTemp != 22 {
		t.Errorf("CurrentTemp = %v, want pushed 22", state.CurrentTemp)
	}
}

func TestClientSkipsMismatchedResponse(t *testing.T) {
	client, device := newTestClient(t)

	go func() {
		device.recv()
		device.send(`<Response Type="DeviceControl" Status="Okay"/>`)
		device.send(`<Response Type="DeviceState" Status="Okay"><Attr ID="AC_FUN_POWER" Value="Off"/></Response>`)
	}()

	state, err := client.GetStatus(context.Background())
	if err != nil {
		t.Fatalf("GetStatus() = %v", err)
	}
	if state.Power {
		t.Error("Power = true, want false from second response")
	}
}

func TestClientSetPower(t *testing.T) {
	client, device := newTestClient(t)

	go func() {
		req := device.recv()
		want := `<Request Type="DeviceControl"><Control CommandID="cmd00000" DUID="AABBCCDDEEFF"><Attr ID="AC_FUN_POWER" Value="On" /></Control></Request>`
		if req != want {
			device.t.Errorf("request = %q, want %q", req, want)
		}
		device.send(`<Response Type="DeviceControl" Status="Okay"/>`)
	}()

	if err := client.SetPower(context.Background(), true); err != nil {
		t.Fatalf("SetPower() = %v", err)
	}
}

func TestClientControlRejectedTolerated(t *testing.T) {
	client, device := newTestClient(t)

	go func() {
		device.recv()
		device.send(`<Response Type="DeviceControl" Status="Fail"/>`)
	}()

	// A non-Okay ack is logged, not surfaced; reconciliation happens on
	// the next poll.
	if err := client.SetMode(context.Background(), "Heat"); err != nil {
		t.Fatalf("SetMode() = %v", err)
	}
}

func TestClientValidation(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	if err := client.SetTemperature(ctx, TempMax+1); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("SetTemperature(31) = %v, want ErrInvalidValue", err)
	}
	if err := client.SetTemperature(ctx, TempMin-1); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("SetTemperature(15) = %v, want ErrInvalidValue", err)
	}
	if err := client.SetSleepTimer(ctx, -1); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("SetSleepTimer(-1) = %v, want ErrInvalidValue", err)
	}
}

func TestClientNotAuthenticated(t *testing.T) {
	_, dialer := newFakeDevice(t)
	client := NewClient(ClientConfig{Host: "unit", Token: "t", DUID: "X", Dialer: dialer})

	if _, err := client.GetStatus(context.Background()); !errors.Is(err, ErrConnection) {
		t.Fatalf("GetStatus() unauthenticated = %v, want ErrConnection", err)
	}
}

func TestClientGetSWInfo(t *testing.T) {
	client, device := newTestClient(t)

	go func() {
		req := device.recv()
		if !strings.Contains(req, `Type="GetSWInfo"`) {
			device.t.Errorf("unexpected request %q", req)
		}
		device.send(`<Response Type="GetSWInfo" Status="Okay"><SwInfo><PannelInfo Version="141127"/><OutDoorInfo Version="141202"/></SwInfo></Response>`)
	}()

	info, err := client.GetSWInfo(context.Background())
	if err != nil {
		t.Fatalf("GetSWInfo() = %v", err)
	}
	if info.PanelVersion != "141127" || info.OutdoorVersion != "141202" {
		t.Errorf("GetSWInfo() = %+v", info)
	}
}

func TestClientGetSWInfoMalformed(t *testing.T) {
	client, device := newTestClient(t)

	go func() {
		device.recv()
		device.send(`<Response Type="GetSWInfo" Status="Okay"/>`)
	}()

	info, err := client.GetSWInfo(context.Background())
	if err != nil {
		t.Fatalf("GetSWInfo() = %v", err)
	}
	if info != (SWInfo{}) {
		t.Errorf("GetSWInfo() = %+v, want zero", info)
	}
}

func TestClientPowerLogging(t *testing.T) {
	client, device := newTestClient(t)

	go func() {
		req := device.recv()
		if !strings.Contains(req, `Type="GetPowerLoggingMode"`) {
			device.t.Errorf("unexpected request %q", req)
		}
		device.send(`<Response Type="GetPowerLoggingMode" Status="Okay" Mode="Enable"/>`)

		req = device.recv()
		if !strings.Contains(req, `Type="SetPowerLoggingMode"`) || !strings.Contains(req, `Mode="Disable"`) {
			device.t.Errorf("unexpected request %q", req)
		}
		device.send(`<Response Type="SetPowerLoggingMode" Status="Okay"/>`)

		req = device.recv()
		if !strings.Contains(req, `Type="ResetPowerLogging"`) {
			device.t.Errorf("unexpected request %q", req)
		}
		device.send(`<Response Type="ResetPowerLogging" Status="Okay"/>`)
	}()

	ctx := context.Background()
	mode, err := client.GetPowerLoggingMode(ctx)
	if err != nil {
		t.Fatalf("GetPowerLoggingMode() = %v", err)
	}
	if mode != "Enable" {
		t.Errorf("mode = %q, want Enable", mode)
	}
	if err := client.SetPowerLoggingMode(ctx, false); err != nil {
		t.Fatalf("SetPowerLoggingMode() = %v", err)
	}
	if err := client.ResetPowerLogging(ctx); err != nil {
		t.Fatalf("ResetPowerLogging() = %v", err)
	}
}

func TestClientGetPowerUsage(t *testing.T) {
	client, device := newTestClient(t)

	go func() {
		req := device.recv()
		if !strings.Contains(req, `StartDate="25-08-01 00:00"`) || !strings.Contains(req, `Unit="Day"`) {
			device.t.Errorf("unexpected request %q", req)
		}
		device.send(`<Response Type="GetPowerUsage" Status="Okay"><PowerUsage><Usage Date="25-08-01" Usage="1250" Time="340"/><Usage Date="25-08-02" Usage="bad" Time="0"/><Usage Date="25-08-03" Usage="900" Time="211"/></PowerUsage></Response>`)
	}()

	from := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 8, 3, 0, 0, 0, 0, time.UTC)
	samples, err := client.GetPowerUsage(context.Background(), from, to, "Day")
	if err != nil {
		t.Fatalf("GetPowerUsage() = %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("len(samples) = %d, want 2 (unparseable skipped)", len(samples))
	}
	if samples[0].Date != "25-08-01" || samples[0].Usage != 1250 {
		t.Errorf("samples[0] = %+v", samples[0])
	}
	if samples[1].Usage != 900 {
		t.Errorf("samples[1] = %+v", samples[1])
	}
}

func TestClientSendRawXML(t *testing.T) {
	client, device := newTestClient(t)

	go func() {
		req := device.recv()
		if req != `<Request Type="GetSWInfo" DUID="AABBCCDDEEFF"></Request>` {
			device.t.Errorf("unexpected request %q", req)
		}
		device.send(`<Response Type="GetSWInfo" Status="Okay"/>`)
	}()

	line, err := client.SendRawXML(context.Background(), `<Request Type="GetSWInfo" DUID="AABBCCDDEEFF"></Request>`)
	if err != nil {
		t.Fatalf("SendRawXML() = %v", err)
	}
	if !strings.Contains(line, `Type="GetSWInfo"`) {
		t.Errorf("SendRawXML() = %q", line)
	}
}
