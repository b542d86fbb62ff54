package samsung2878

import (
	"reflect"
	"testing"
)

func TestDeriveStateTargetTemp(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"unset sentinel", "0", 24},
		{"placeholder low", "5", 16},
		{"boundary low", "8", 8},
		{"normal", "20", 20},
		{"garbage", "abc", 24},
		{"empty", "", 24},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := DeriveState(RawAttributes{AttrTargetTemp: tt.raw})
			if state.TargetTemp != tt.want {
				t.Errorf("TargetTemp = %d, want %d", state.TargetTemp, tt.want)
			}
		})
	}

	if got := DeriveState(RawAttributes{}).TargetTemp; got != 24 {
		t.Errorf("absent TargetTemp = %d, want 24", got)
	}
}

func TestDeriveStateError(t *testing.T) {
	for _, code := range []string{"00000", "", "00", "0"} {
		state := DeriveState(RawAttributes{AttrError: code})
		if state.Error != "" {
			t.Errorf("error code %q normalised to %q, want empty", code, state.Error)
		}
	}

	state := DeriveState(RawAttributes{AttrError: "E101"})
	if state.Error != "E101" {
		t.Errorf("error code E101 = %q, want E101", state.Error)
	}

	if got := DeriveState(RawAttributes{}).Error; got != "" {
		t.Errorf("absent error = %q, want empty", got)
	}
}

func TestDeriveStateOutdoorTemp(t *testing.T) {
	state := DeriveState(RawAttributes{AttrOutdoorTemp: "60"})
	if state.OutdoorTemp == nil || *state.OutdoorTemp != 5.0 {
		t.Errorf("OutdoorTemp = %v, want 5.0", state.OutdoorTemp)
	}

	if got := DeriveState(RawAttributes{}).OutdoorTemp; got != nil {
		t.Errorf("absent OutdoorTemp = %v, want nil", got)
	}

	if got := DeriveState(RawAttributes{AttrOutdoorTemp: "??"}).OutdoorTemp; got != nil {
		t.Errorf("garbage OutdoorTemp = %v, want nil", got)
	}
}

func TestDeriveStateEnergy(t *testing.T) {
	state := DeriveState(RawAttributes{AttrEnergyUsed: "372"})
	if state.EnergyUsedKwh == nil || *state.EnergyUsedKwh != 37.2 {
		t.Errorf("EnergyUsedKwh = %v, want 37.2", state.EnergyUsedKwh)
	}

	if got := DeriveState(RawAttributes{}).EnergyUsedKwh; got != nil {
		t.Errorf("absent EnergyUsedKwh = %v, want nil", got)
	}
}

func TestDeriveStateFull(t *testing.T) {
	attrs := RawAttributes{
		AttrPower:           "On",
		AttrMode:            "Cool",
		AttrFanMode:         "High",
		AttrSwingMode:       "SwingUD",
		AttrPreset:          "Quiet",
		AttrCurrentTemp:     "23",
		AttrTargetTemp:      "21",
		AttrOutdoorTemp:     "85",
		AttrError:           "00000",
		AttrAutoClean:       "On",
		AttrIonizer:         "Off",
		AttrSleepTimer:      "60",
		AttrLifetimeEnergy:  "1234",
		AttrLifetimeRun:     "5678",
		AttrFilterUse:       "300",
		AttrFilterThreshold: "500",
		AttrCoolCapability:  "35",
		AttrWarmCapability:  "40",
		AttrPanelVersion:    "141127",
		AttrOutdoorVersion:  "141202",
		"AC_SG_VENDER01":    "Extra",
	}

	state := DeriveState(attrs)

	if !state.Power {
		t.Error("Power = false, want true")
	}
	if state.Mode != "Cool" || state.FanMode != "High" || state.SwingMode != "SwingUD" || state.Preset != "Quiet" {
		t.Errorf("enum fields = %q/%q/%q/%q", state.Mode, state.FanMode, state.SwingMode, state.Preset)
	}
	if state.CurrentTemp != 23 || state.TargetTemp != 21 {
		t.Errorf("temps = %v/%d, want 23/21", state.CurrentTemp, state.TargetTemp)
	}
	if state.OutdoorTemp == nil || *state.OutdoorTemp != 30.0 {
		t.Errorf("OutdoorTemp = %v, want 30.0", state.OutdoorTemp)
	}
	if !state.AutoClean || state.Ionizer {
		t.Errorf("AutoClean/Ionizer = %v/%v, want true/false", state.AutoClean, state.Ionizer)
	}
	if state.SleepTimerMinutes != 60 {
		t.Errorf("SleepTimerMinutes = %d, want 60", state.SleepTimerMinutes)
	}
	if state.LifetimeEnergyKwh == nil || *state.LifetimeEnergyKwh != 1234 {
		t.Errorf("LifetimeEnergyKwh = %v, want 1234", state.LifetimeEnergyKwh)
	}
	if state.CoolCapability == nil || *state.CoolCapability != 35 {
		t.Errorf("CoolCapability = %v, want 35", state.CoolCapability)
	}
	if state.PanelVersion != "141127" || state.OutdoorVersion != "141202" {
		t.Errorf("versions = %q/%q", state.PanelVersion, state.OutdoorVersion)
	}
	if state.Raw["AC_SG_VENDER01"] != "Extra" {
		t.Error("unmodeled attribute missing from Raw")
	}
}

func TestDeriveStateDefaults(t *testing.T) {
	state := DeriveState(RawAttributes{})

	if state.Power {
		t.Error("Power default = true, want false")
	}
	if state.Mode != "Auto" || state.FanMode != "Auto" || state.SwingMode != "Off" || state.Preset != "Off" {
		t.Errorf("enum defaults = %q/%q/%q/%q", state.Mode, state.FanMode, state.SwingMode, state.Preset)
	}
	if state.CurrentTemp != 0 || state.TargetTemp != 24 {
		t.Errorf("temp defaults = %v/%d, want 0/24", state.CurrentTemp, state.TargetTemp)
	}
}

func TestDeriveStateDeterministic(t *testing.T) {
	attrs := RawAttributes{
		AttrPower:      "On",
		AttrTargetTemp: "19",
		AttrError:      "E422",
	}
	a := DeriveState(attrs)
	b := DeriveState(attrs)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("DeriveState not deterministic: %+v vs %+v", a, b)
	}
}

func TestDeviceStateClone(t *testing.T) {
	outdoor := 12.5
	state := DeviceState{
		Power:       true,
		OutdoorTemp: &outdoor,
		Raw:         RawAttributes{AttrPower: "On"},
	}

	clone := state.Clone()
	*clone.OutdoorTemp = 99
	clone.Raw[AttrPower] = "Off"

	if *state.OutdoorTemp != 12.5 {
		t.Error("Clone() shares OutdoorTemp pointer")
	}
	if state.Raw[AttrPower] != "On" {
		t.Error("Clone() shares Raw map")
	}
}

func TestDUIDFromMAC(t *testing.T) {
	tests := []struct {
		mac  string
		want string
	}{
		{"f8:04:2e:ab:cd:ef", "F8042EABCDEF"},
		{"F8-04-2E-AB-CD-EF", "F8042EABCDEF"},
		{" F8042EABCDEF ", "F8042EABCDEF"},
	}

	for _, tt := range tests {
		if got := DUIDFromMAC(tt.mac); got != tt.want {
			t.Errorf("DUIDFromMAC(%q) = %q, want %q", tt.mac, got, tt.want)
		}
	}
}
