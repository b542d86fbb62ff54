package samsung2878

import (
	"strconv"
	"strings"
)

// Protocol attribute identifiers.
const (
	AttrPower           = "AC_FUN_POWER"
	AttrMode            = "AC_FUN_OPMODE"
	AttrFanMode         = "AC_FUN_WINDLEVEL"
	AttrSwingMode       = "AC_FUN_DIRECTION"
	AttrPreset          = "AC_FUN_COMODE"
	AttrCurrentTemp     = "AC_FUN_TEMPNOW"
	AttrTargetTemp      = "AC_FUN_TEMPSET"
	AttrError           = "AC_FUN_ERROR"
	AttrSleepTimer      = "AC_FUN_SLEEP"
	AttrAutoClean       = "AC_ADD_AUTOCLEAN"
	AttrIonizer         = "AC_ADD_SPI"
	AttrOutdoorTemp     = "AC_OUTDOOR_TEMP"
	AttrEnergyUsed      = "AC_ADD2_USEDWATT"
	AttrLifetimeEnergy  = "AC_ADD2_USEDPOWER"
	AttrLifetimeRun     = "AC_ADD2_USEDTIME"
	AttrFilterUse       = "AC_ADD2_FILTER_USE_TIME"
	AttrFilterThreshold = "AC_ADD2_FILTERTIME"
	AttrCoolCapability  = "AC_COOL_CAPABILITY"
	AttrWarmCapability  = "AC_WARM_CAPABILITY"
	AttrPanelVersion    = "AC_ADD2_PANEL_VERSION"
	AttrOutdoorVersion  = "AC_ADD2_OUT_VERSION"
)

// Device limits and defaults observed on 2878-family units.
const (
	DefaultPort         = 2878
	DefaultPollInterval = 30 // seconds

	TempMin = 16
	TempMax = 30

	SleepTimerMax = 420 // minutes

	defaultTargetTemp = 24

	// outdoorTempOffset is added by the firmware to the reported outdoor
	// temperature; the true value is Celsius = raw - 55.
	outdoorTempOffset = 55.0
)

// Accepted values for the enumerated control attributes.
var (
	Modes      = []string{"Auto", "Cool", "Heat", "Dry", "Wind"}
	FanModes   = []string{"Auto", "Low", "Mid", "High", "Turbo"}
	SwingModes = []string{
		"Off", "Fixed", "SwingUD", "SwingLR", "Rotation",
		"Indirect", "Direct", "Center", "Wide", "Left", "Right", "Long",
	}
	Presets = []string{"Off", "Quiet", "Sleep", "Smart", "SoftCool"}
)

// DeviceState is an immutable snapshot of the unit's reported state.
// Every typed field is a deterministic pure function of the Raw mapping
// it was built from; unmodeled attributes pass through in Raw.
type DeviceState struct {
	Power       bool    `json:"power"`
	Mode        string  `json:"mode"`
	FanMode     string  `json:"fan_mode"`
	SwingMode   string  `json:"swing_mode"`
	Preset      string  `json:"preset"`
	CurrentTemp float64 `json:"current_temp"`
	TargetTemp  int     `json:"target_temp"`

	OutdoorTemp *float64 `json:"outdoor_temp,omitempty"`

	// Error is the firmware error code, empty when the unit reports no
	// error in any of its spellings.
	Error string `json:"error"`

	AutoClean         bool `json:"auto_clean"`
	Ionizer           bool `json:"ionizer"`
	SleepTimerMinutes int  `json:"sleep_timer_minutes"`

	EnergyUsedKwh        *float64 `json:"energy_used_kwh,omitempty"`
	LifetimeEnergyKwh    *int     `json:"lifetime_energy_kwh,omitempty"`
	LifetimeRunHours     *int     `json:"lifetime_run_hours,omitempty"`
	FilterUseHours       *int     `json:"filter_use_hours,omitempty"`
	FilterThresholdHours *int     `json:"filter_threshold_hours,omitempty"`
	CoolCapability       *int     `json:"cool_capability,omitempty"`
	WarmCapability       *int     `json:"warm_capability,omitempty"`

	PanelVersion   string `json:"panel_version,omitempty"`
	OutdoorVersion string `json:"outdoor_version,omitempty"`

	Raw RawAttributes `json:"raw"`
}

// Clone returns a deep copy of the snapshot, safe to mutate independently.
func (s DeviceState) Clone() DeviceState {
	out := s
	out.Raw = s.Raw.Clone()
	if s.OutdoorTemp != nil {
		v := *s.OutdoorTemp
		out.OutdoorTemp = &v
	}
	if s.EnergyUsedKwh != nil {
		v := *s.EnergyUsedKwh
		out.EnergyUsedKwh = &v
	}
	out.LifetimeEnergyKwh = cloneInt(s.LifetimeEnergyKwh)
	out.LifetimeRunHours = cloneInt(s.LifetimeRunHours)
	out.FilterUseHours = cloneInt(s.FilterUseHours)
	out.FilterThresholdHours = cloneInt(s.FilterThresholdHours)
	out.CoolCapability = cloneInt(s.CoolCapability)
	out.WarmCapability = cloneInt(s.WarmCapability)
	return out
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// DeriveState builds a DeviceState snapshot from a raw attribute mapping.
//
// The function is total: it never fails, whatever the mapping contains.
// The firmware occasionally emits malformed or placeholder values, so
// every numeric parse failure falls back to a documented default or nil
// rather than surfacing. The numeric quirks (target-temperature
// sentinels, the outdoor offset, the error-code spellings) reproduce
// observed device behaviour.
func DeriveState(attrs RawAttributes) DeviceState {
	state := DeviceState{
		Power:     attrValue(attrs, AttrPower, "Off") == "On",
		Mode:      attrValue(attrs, AttrMode, "Auto"),
		FanMode:   attrValue(attrs, AttrFanMode, "Auto"),
		SwingMode: attrValue(attrs, AttrSwingMode, "Off"),
		Preset:    attrValue(attrs, AttrPreset, "Off"),
		AutoClean: attrValue(attrs, AttrAutoClean, "Off") == "On",
		Ionizer:   attrValue(attrs, AttrIonizer, "Off") == "On",
		Raw:       attrs,
	}

	if v, err := strconv.ParseFloat(attrValue(attrs, AttrCurrentTemp, "0"), 64); err == nil {
		state.CurrentTemp = v
	}

	// Target temperature: 0 is the firmware's "unset" sentinel and maps
	// to 24; other values below 8 are placeholder readings mapped to 16.
	state.TargetTemp = defaultTargetTemp
	if v, err := strconv.Atoi(attrValue(attrs, AttrTargetTemp, strconv.Itoa(defaultTargetTemp))); err == nil {
		switch {
		case v == 0:
			state.TargetTemp = defaultTargetTemp
		case v < 8:
			state.TargetTemp = 16
		default:
			state.TargetTemp = v
		}
	}

	if raw, ok := attrs[AttrOutdoorTemp]; ok {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			outdoor := v - outdoorTempOffset
			state.OutdoorTemp = &outdoor
		}
	}

	switch errCode := attrValue(attrs, AttrError, ""); errCode {
	case "00000", "", "00", "0":
		state.Error = ""
	default:
		state.Error = errCode
	}

	if v, err := strconv.Atoi(attrValue(attrs, AttrSleepTimer, "0")); err == nil {
		state.SleepTimerMinutes = v
	}

	if raw, ok := attrs[AttrEnergyUsed]; ok {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			kwh := v / 10.0
			state.EnergyUsedKwh = &kwh
		}
	}

	state.LifetimeEnergyKwh = optionalInt(attrs, AttrLifetimeEnergy)
	state.LifetimeRunHours = optionalInt(attrs, AttrLifetimeRun)
	state.FilterUseHours = optionalInt(attrs, AttrFilterUse)
	state.FilterThresholdHours = optionalInt(attrs, AttrFilterThreshold)
	state.CoolCapability = optionalInt(attrs, AttrCoolCapability)
	state.WarmCapability = optionalInt(attrs, AttrWarmCapability)

	state.PanelVersion = attrs[AttrPanelVersion]
	state.OutdoorVersion = attrs[AttrOutdoorVersion]

	return state
}

// attrValue returns the attribute value or fallback when absent.
func attrValue(attrs RawAttributes, key, fallback string) string {
	if v, ok := attrs[key]; ok {
		return v
	}
	return fallback
}

// optionalInt parses an optional integer attribute; absence and parse
// failure both yield nil.
func optionalInt(attrs RawAttributes, key string) *int {
	raw, ok := attrs[key]
	if !ok {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &v
}

// DUIDFromMAC derives the device unique identifier from the unit's MAC
// address: separators stripped, uppercased.
func DUIDFromMAC(mac string) string {
	r := strings.NewReplacer(":", "", "-", "")
	return strings.ToUpper(r.Replace(strings.TrimSpace(mac)))
}
