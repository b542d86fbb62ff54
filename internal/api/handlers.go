package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nerrad567/samsung2878/internal/samsung2878"
)

// statusResponse is the payload for GET /api/v1/status.
type statusResponse struct {
	DUID      string                   `json:"duid"`
	Session   string                   `json:"session"`
	LastError string                   `json:"last_error,omitempty"`
	State     *samsung2878.DeviceState `json:"state"`
}

// handleStatus returns the session status and the cached device snapshot.
// It never talks to the device; the refresh loop owns that.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	resp := statusResponse{
		DUID:    s.duid,
		Session: string(s.state.Status()),
	}
	if err := s.state.LastError(); err != nil {
		resp.LastError = err.Error()
	}
	if snapshot, ok := s.state.Snapshot(); ok {
		resp.State = &snapshot
	}
	writeJSON(w, http.StatusOK, resp)
}

// commandRequest is the payload for POST /api/v1/command.
type commandRequest struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

// handleCommand decodes a command, runs it against the device through
// the reconciliation loop, and returns the patched snapshot.
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body: "+err.Error())
		return
	}

	op, patch, err := s.buildCommand(req)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := s.state.SendCommand(r.Context(), op, patch); err != nil {
		writeUnavailable(w, err.Error())
		return
	}

	snapshot, _ := s.state.Snapshot()
	writeJSON(w, http.StatusOK, snapshot)
}

// buildCommand maps a command request onto a device operation and the
// optimistic snapshot patch it implies.
//
//nolint:gocognit // flat dispatch table, one case per command
func (s *Server) buildCommand(req commandRequest) (func(context.Context) error, func(*samsung2878.DeviceState), error) {
	switch req.Name {
	case "power":
		v, err := decodeBool(req.Value)
		if err != nil {
			return nil, nil, err
		}
		return func(ctx context.Context) error { return s.device.SetPower(ctx, v) },
			func(st *samsung2878.DeviceState) { st.Power = v }, nil

	case "mode":
		v, err := decodeEnum(req.Value, samsung2878.Modes)
		if err != nil {
			return nil, nil, err
		}
		return func(ctx context.Context) error { return s.device.SetMode(ctx, v) },
			func(st *samsung2878.DeviceState) { st.Mode = v }, nil

	case "temperature":
		v, err := decodeInt(req.Value)
		if err != nil {
			return nil, nil, err
		}
		return func(ctx context.Context) error { return s.device.SetTemperature(ctx, v) },
			func(st *samsung2878.DeviceState) { st.TargetTemp = v }, nil

	case "fan_mode":
		v, err := decodeEnum(req.Value, samsung2878.FanModes)
		if err != nil {
			return nil, nil, err
		}
		return func(ctx context.Context) error { return s.device.SetFanMode(ctx, v) },
			func(st *samsung2878.DeviceState) { st.FanMode = v }, nil

	case "swing_mode":
		v, err := decodeEnum(req.Value, samsung2878.SwingModes)
		if err != nil {
			return nil, nil, err
		}
		return func(ctx context.Context) error { return s.device.SetSwingMode(ctx, v) },
			func(st *samsung2878.DeviceState) { st.SwingMode = v }, nil

	case "preset":
		v, err := decodeEnum(req.Value, samsung2878.Presets)
		if err != nil {
			return nil, nil, err
		}
		return func(ctx context.Context) error { return s.device.SetPreset(ctx, v) },
			func(st *samsung2878.DeviceState) { st.Preset = v }, nil

	case "auto_clean":
		v, err := decodeBool(req.Value)
		if err != nil {
			return nil, nil, err
		}
		return func(ctx context.Context) error { return s.device.SetAutoClean(ctx, v) },
			func(st *samsung2878.DeviceState) { st.AutoClean = v }, nil

	case "ionizer":
		v, err := decodeBool(req.Value)
		if err != nil {
			return nil, nil, err
		}
		return func(ctx context.Context) error { return s.device.SetIonizer(ctx, v) },
			func(st *samsung2878.DeviceState) { st.Ionizer = v }, nil

	case "sleep_timer":
		v, err := decodeInt(req.Value)
		if err != nil {
			return nil, nil, err
		}
		return func(ctx context.Context) error { return s.device.SetSleepTimer(ctx, v) },
			func(st *samsung2878.DeviceState) { st.SleepTimerMinutes = v }, nil

	default:
		return nil, nil, fmt.Errorf("unknown command %q", req.Name)
	}
}

// handleSWInfo queries panel and outdoor unit firmware versions.
func (s *Server) handleSWInfo(w http.ResponseWriter, r *http.Request) {
	var info samsung2878.SWInfo
	err := s.state.SendCommand(r.Context(), func(ctx context.Context) error {
		var opErr error
		info, opErr = s.device.GetSWInfo(ctx)
		return opErr
	}, nil)
	if err != nil {
		writeUnavailable(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// handleGetPowerLogging returns the device power logging mode.
func (s *Server) handleGetPowerLogging(w http.ResponseWriter, r *http.Request) {
	var mode string
	err := s.state.SendCommand(r.Context(), func(ctx context.Context) error {
		var opErr error
		mode, opErr = s.device.GetPowerLoggingMode(ctx)
		return opErr
	}, nil)
	if err != nil {
		writeUnavailable(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"mode": mode})
}

// handleSetPowerLogging enables or disables power logging.
func (s *Server) handleSetPowerLogging(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body: "+err.Error())
		return
	}

	err := s.state.SendCommand(r.Context(), func(ctx context.Context) error {
		return s.device.SetPowerLoggingMode(ctx, req.Enabled)
	}, nil)
	if err != nil {
		writeUnavailable(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": req.Enabled})
}

// handleResetPowerLogging clears the device's accumulated usage counters.
func (s *Server) handleResetPowerLogging(w http.ResponseWriter, r *http.Request) {
	err := s.state.SendCommand(r.Context(), func(ctx context.Context) error {
		return s.device.ResetPowerLogging(ctx)
	}, nil)
	if err != nil {
		writeUnavailable(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// powerUsageDayFormat is the date layout for power usage query parameters.
const powerUsageDayFormat = "2006-01-02"

// handlePowerUsage queries historical usage between two dates.
// Query parameters: start and end (YYYY-MM-DD, both required),
// unit (optional, defaults to Day).
func (s *Server) handlePowerUsage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	start, err := time.Parse(powerUsageDayFormat, q.Get("start"))
	if err != nil {
		writeBadRequest(w, "start must be YYYY-MM-DD")
		return
	}
	end, err := time.Parse(powerUsageDayFormat, q.Get("end"))
	if err != nil {
		writeBadRequest(w, "end must be YYYY-MM-DD")
		return
	}
	unit := q.Get("unit")
	if unit == "" {
		unit = "Day"
	}

	var usage []samsung2878.PowerUsage
	err = s.state.SendCommand(r.Context(), func(ctx context.Context) error {
		var opErr error
		usage, opErr = s.device.GetPowerUsage(ctx, start, end, unit)
		return opErr
	}, nil)
	if err != nil {
		writeUnavailable(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"unit":  unit,
		"usage": usage,
	})
}

// rawRequest is the payload for POST /api/v1/raw.
type rawRequest struct {
	Request string `json:"request"`
}

// handleRaw sends one raw XML line to the device and returns the first
// response line. Intended for protocol exploration.
func (s *Server) handleRaw(w http.ResponseWriter, r *http.Request) {
	var req rawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Request) == "" {
		writeBadRequest(w, "request must not be empty")
		return
	}

	var response string
	err := s.state.SendCommand(r.Context(), func(ctx context.Context) error {
		var opErr error
		response, opErr = s.device.SendRawXML(ctx, req.Request)
		return opErr
	}, nil)
	if err != nil {
		writeUnavailable(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"response": response})
}

// decodeBool decodes a JSON boolean command value.
func decodeBool(raw json.RawMessage) (bool, error) {
	var v bool
	if err := json.Unmarshal(raw, &v); err != nil {
		return false, fmt.Errorf("value must be a boolean")
	}
	return v, nil
}

// decodeInt decodes a JSON integer command value.
func decodeInt(raw json.RawMessage) (int, error) {
	var v int
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, fmt.Errorf("value must be an integer")
	}
	return v, nil
}

// decodeEnum decodes a JSON string command value and matches it against
// the accepted values, case-insensitively.
func decodeEnum(raw json.RawMessage, accepted []string) (string, error) {
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", fmt.Errorf("value must be a string")
	}
	for _, a := range accepted {
		if strings.EqualFold(v, a) {
			return a, nil
		}
	}
	return "", fmt.Errorf("invalid value %q (accepted: %s)", v, strings.Join(accepted, ", "))
}
