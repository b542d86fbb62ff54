package mqtt

import "fmt"

// DefaultTopicPrefix is the base of the topic hierarchy when the
// configuration does not override it.
const DefaultTopicPrefix = "samsungac"

// Topics provides builders for the daemon's MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
// The hierarchy is {prefix}/{duid}/{category}:
//
//	topics := mqtt.Topics{}
//	stateTopic := topics.State("F8042EABCDEF")
//	// Returns: "samsungac/F8042EABCDEF/state"
type Topics struct {
	// Prefix overrides DefaultTopicPrefix when non-empty.
	Prefix string
}

func (t Topics) prefix() string {
	if t.Prefix != "" {
		return t.Prefix
	}
	return DefaultTopicPrefix
}

// State returns the retained state topic for a unit.
//
// Example: samsungac/F8042EABCDEF/state
func (t Topics) State(duid string) string {
	return fmt.Sprintf("%s/%s/state", t.prefix(), duid)
}

// Availability returns the retained availability topic for a unit.
// Payloads are "online" and "offline".
//
// Example: samsungac/F8042EABCDEF/availability
func (t Topics) Availability(duid string) string {
	return fmt.Sprintf("%s/%s/availability", t.prefix(), duid)
}

// Command returns the topic for one named command to a unit.
//
// Example: samsungac/F8042EABCDEF/command/power
func (t Topics) Command(duid, name string) string {
	return fmt.Sprintf("%s/%s/command/%s", t.prefix(), duid, name)
}

// AllCommands returns a pattern matching every command to a unit.
//
// Pattern: samsungac/F8042EABCDEF/command/+
func (t Topics) AllCommands(duid string) string {
	return fmt.Sprintf("%s/%s/command/+", t.prefix(), duid)
}

// AllStates returns a pattern matching state updates from every unit.
//
// Pattern: samsungac/+/state
func (t Topics) AllStates() string {
	return fmt.Sprintf("%s/+/state", t.prefix())
}

// SystemStatus returns the daemon status topic, used for the Last Will
// and the online/offline announcements.
//
// Example: samsungac/system/status
func (t Topics) SystemStatus() string {
	return fmt.Sprintf("%s/system/status", t.prefix())
}
