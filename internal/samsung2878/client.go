package samsung2878

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"
)

// maxResponseLines bounds the demultiplexer's read loop per command.
// The device never interleaves more than a handful of pushes between a
// request and its response; after this many lines the response is
// treated as absent rather than blocking the session.
const maxResponseLines = 10

// SWInfo holds the firmware versions reported by GetSWInfo.
type SWInfo struct {
	PanelVersion   string `json:"panel_version"`
	OutdoorVersion string `json:"outdoor_version"`
}

// PowerUsage is one GetPowerUsage sample.
type PowerUsage struct {
	Date  string  `json:"date"`
	Usage float64 `json:"usage"`
	Time  string  `json:"time"`
}

// Client drives a single unit over an authenticated session.
//
// Thread Safety:
//   - All methods are safe for concurrent use; commands serialise on an
//     internal mutex so at most one request is in flight per session.
//
// Unsolicited pushes received while waiting for a response are never
// dropped: their attributes accumulate and merge into the next status
// snapshot, where they win over the polled values.
type Client struct {
	conn  *Conn
	duid  string
	token string

	mu          sync.Mutex
	pendingPush RawAttributes

	logger   Logger
	loggerMu sync.RWMutex
}

// ClientConfig holds everything needed to address one unit.
type ClientConfig struct {
	// Host is the unit's IP address or hostname.
	Host string

	// Port is the protocol port. Default: 2878.
	Port int

	// Token is the account token obtained during pairing.
	Token string

	// DUID is the unit identifier, usually DUIDFromMAC of the unit's
	// MAC address.
	DUID string

	// Dialer opens the transport. Use NewTLSDialer in production.
	Dialer Dialer
}

// NewClient builds a client for one unit. The session is not opened;
// call Connect then Authenticate.
func NewClient(cfg ClientConfig) *Client {
	return &Client{
		conn:        NewConn(cfg.Host, cfg.Port, cfg.Dialer),
		duid:        cfg.DUID,
		token:       cfg.Token,
		pendingPush: make(RawAttributes),
	}
}

// SetLogger sets the logger for this client and its session.
func (c *Client) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
	c.conn.SetLogger(logger)
}

// DUID returns the unit identifier this client addresses.
func (c *Client) DUID() string { return c.duid }

// Connect opens the transport.
func (c *Client) Connect(ctx context.Context) error {
	return c.conn.Connect(ctx)
}

// Authenticate runs the token handshake on the open transport.
func (c *Client) Authenticate(ctx context.Context) error {
	return c.conn.Authenticate(ctx, c.token)
}

// Disconnect closes the session.
func (c *Client) Disconnect() {
	c.conn.Disconnect()
}

// Connected reports whether the session is open and authenticated.
func (c *Client) Connected() bool {
	return c.conn.Authenticated()
}

// GetStatus requests a full state snapshot.
//
// Attributes pushed by the unit since the previous call merge over the
// polled snapshot: a push reflects a change that happened after the
// poll left the device, so the pushed value is the newer one.
func (c *Client) GetStatus(ctx context.Context) (DeviceState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	line, err := c.sendCommandLocked(ctx, deviceStateRequest(c.duid), "DeviceState")
	if err != nil {
		return DeviceState{}, err
	}

	attrs := DecodeAttributes(line)
	for k, v := range c.pendingPush {
		attrs[k] = v
	}
	c.pendingPush = make(RawAttributes)

	return DeriveState(attrs), nil
}

// SetPower turns the unit on or off.
func (c *Client) SetPower(ctx context.Context, on bool) error {
	return c.setControl(ctx, AttrPower, onOff(on))
}

// SetMode selects the operation mode (one of Modes).
func (c *Client) SetMode(ctx context.Context, mode string) error {
	return c.setControl(ctx, AttrMode, mode)
}

// SetTemperature sets the target temperature in whole degrees Celsius.
func (c *Client) SetTemperature(ctx context.Context, temp int) error {
	if temp < TempMin || temp > TempMax {
		return fmt.Errorf("%w: temperature %d out of range %d..%d", ErrInvalidValue, temp, TempMin, TempMax)
	}
	return c.setControl(ctx, AttrTargetTemp, strconv.Itoa(temp))
}

// SetFanMode selects the fan level (one of FanModes).
func (c *Client) SetFanMode(ctx context.Context, mode string) error {
	return c.setControl(ctx, AttrFanMode, mode)
}

// SetSwingMode selects the louvre direction (one of SwingModes).
func (c *Client) SetSwingMode(ctx context.Context, mode string) error {
	return c.setControl(ctx, AttrSwingMode, mode)
}

// SetPreset selects the convenience mode (one of Presets).
func (c *Client) SetPreset(ctx context.Context, preset string) error {
	return c.setControl(ctx, AttrPreset, preset)
}

// SetAutoClean enables or disables the auto-clean cycle.
func (c *Client) SetAutoClean(ctx context.Context, on bool) error {
	return c.setControl(ctx, AttrAutoClean, onOff(on))
}

// SetIonizer enables or disables the SPI ionizer.
func (c *Client) SetIonizer(ctx context.Context, on bool) error {
	return c.setControl(ctx, AttrIonizer, onOff(on))
}

// SetSleepTimer sets the sleep timer in minutes; zero cancels it.
func (c *Client) SetSleepTimer(ctx context.Context, minutes int) error {
	if minutes < 0 || minutes > SleepTimerMax {
		return fmt.Errorf("%w: sleep timer %d out of range 0..%d", ErrInvalidValue, minutes, SleepTimerMax)
	}
	return c.setControl(ctx, AttrSleepTimer, strconv.Itoa(minutes))
}

// setControl sends a single-attribute DeviceControl command.
//
// The firmware acknowledges controls lazily and a non-Okay status does
// not reliably mean the control failed, so a rejected status is logged
// rather than returned; the next poll reconciles the real state.
func (c *Client) setControl(ctx context.Context, id, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	req := deviceControlRequest(c.duid, RawAttributes{id: value})
	line, err := c.sendCommandLocked(ctx, req, "DeviceControl")
	if err != nil {
		return err
	}
	if line != "" {
		if msg := parseMessage(line); msg.status != "" && msg.status != "Okay" {
			c.logWarn("control not acknowledged", "attr", id, "value", value, "status", msg.status)
		}
	}
	return nil
}

// GetSWInfo requests the panel and outdoor unit firmware versions.
// A malformed or absent response yields a zero SWInfo.
func (c *Client) GetSWInfo(ctx context.Context) (SWInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	line, err := c.sendCommandLocked(ctx, swInfoRequest(c.duid), "GetSWInfo")
	if err != nil {
		return SWInfo{}, err
	}
	return parseSWInfo(line), nil
}

// GetPowerLoggingMode reports whether power logging is enabled,
// returning the raw mode string ("Enable" or "Disable").
func (c *Client) GetPowerLoggingMode(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	line, err := c.sendCommandLocked(ctx, getPowerLoggingModeRequest(c.duid), "GetPowerLoggingMode")
	if err != nil {
		return "", err
	}
	return parseMessageAttr(line, "Mode"), nil
}

// SetPowerLoggingMode enables or disables on-device power logging.
func (c *Client) SetPowerLoggingMode(ctx context.Context, enable bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.sendCommandLocked(ctx, setPowerLoggingModeRequest(c.duid, enable), "SetPowerLoggingMode")
	return err
}

// ResetPowerLogging clears the on-device power usage counters.
func (c *Client) ResetPowerLogging(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.sendCommandLocked(ctx, resetPowerLoggingRequest(c.duid), "ResetPowerLogging")
	return err
}

// GetPowerUsage fetches logged power samples between from and to at the
// given resolution ("Hour" or "Day"). Samples with unparseable usage
// values are skipped.
func (c *Client) GetPowerUsage(ctx context.Context, from, to time.Time, unit string) ([]PowerUsage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	line, err := c.sendCommandLocked(ctx, getPowerUsageRequest(c.duid, from, to, unit), "GetPowerUsage")
	if err != nil {
		return nil, err
	}
	return parsePowerUsage(line), nil
}

// SendRawXML writes an arbitrary request line and returns the first
// Response line. Intended for diagnostics; no attribute bookkeeping is
// applied beyond the usual push capture.
func (c *Client) SendRawXML(ctx context.Context, request string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.sendCommandLocked(ctx, request, "")
}

// sendCommandLocked writes a request and reads lines until a matching
// Response arrives. Update lines seen along the way fold into the
// pending push set, later values winning. At most maxResponseLines are
// consumed; exhausting the budget returns an empty line and nil error,
// since for most commands the response carries no information.
//
// Callers must hold c.mu.
func (c *Client) sendCommandLocked(ctx context.Context, request, expectType string) (string, error) {
	if !c.conn.Authenticated() {
		return "", fmt.Errorf("%w: not authenticated", ErrConnection)
	}

	if err := c.conn.WriteLine(ctx, request); err != nil {
		return "", err
	}

	for i := 0; i < maxResponseLines; i++ {
		line, err := c.conn.ReadLine(ctx)
		if err != nil {
			return "", err
		}

		msg := parseMessage(line)
		switch msg.kind {
		case kindUpdate:
			for k, v := range DecodeAttributes(line) {
				c.pendingPush[k] = v
			}
		case kindResponse:
			if expectType == "" || msg.typ == expectType {
				return line, nil
			}
			c.logDebug("skipping response of other type", "want", expectType, "got", msg.typ)
		default:
			c.logDebug("skipping unrecognised line", "line", line)
		}
	}

	c.logWarn("no matching response", "type", expectType)
	return "", nil
}

func onOff(on bool) string {
	if on {
		return "On"
	}
	return "Off"
}

// parseSWInfo extracts panel and outdoor versions from a GetSWInfo
// response line.
func parseSWInfo(line string) SWInfo {
	var info SWInfo
	dec := xml.NewDecoder(strings.NewReader(line))
	dec.Strict = false

	for {
		tok, err := dec.Token()
		if err != nil {
			return info
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case "PannelInfo":
			info.PanelVersion = elementAttr(start, "Version")
		case "OutDoorInfo":
			info.OutdoorVersion = elementAttr(start, "Version")
		}
	}
}

// parsePowerUsage extracts Usage samples from a GetPowerUsage response.
func parsePowerUsage(line string) []PowerUsage {
	var out []PowerUsage
	dec := xml.NewDecoder(strings.NewReader(line))
	dec.Strict = false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return out
		}
		if err != nil {
			return out
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "Usage" {
			continue
		}

		usage, err := strconv.ParseFloat(elementAttr(start, "Usage"), 64)
		if err != nil {
			continue
		}
		out = append(out, PowerUsage{
			Date:  elementAttr(start, "Date"),
			Usage: usage,
			Time:  elementAttr(start, "Time"),
		})
	}
}

// parseMessageAttr returns the named attribute of a line's root
// element, or "" when absent or unparseable.
func parseMessageAttr(line, name string) string {
	dec := xml.NewDecoder(strings.NewReader(line))
	dec.Strict = false

	for {
		tok, err := dec.Token()
		if err != nil {
			return ""
		}
		if start, ok := tok.(xml.StartElement); ok {
			return elementAttr(start, name)
		}
	}
}

func elementAttr(start xml.StartElement, name string) string {
	for _, a := range start.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func (c *Client) logDebug(msg string, keysAndValues ...any) {
	if l := c.getLogger(); l != nil {
		l.Debug(msg, keysAndValues...)
	}
}

func (c *Client) logWarn(msg string, keysAndValues ...any) {
	if l := c.getLogger(); l != nil {
		l.Warn(msg, keysAndValues...)
	}
}

func (c *Client) getLogger() Logger {
	c.loggerMu.RLock()
	defer c.loggerMu.RUnlock()
	return c.logger
}
