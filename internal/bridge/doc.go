// Package bridge exposes one air conditioner over MQTT.
//
// The bridge publishes a retained JSON state document and a retained
// availability flag per unit, and consumes commands from the unit's
// command topics. Any MQTT-speaking controller (Home Assistant,
// Node-RED, a wall panel) can then drive the unit without knowing its
// native port-2878 protocol.
//
// # Topics
//
//	{prefix}/{duid}/state               retained state JSON
//	{prefix}/{duid}/availability        retained "online"/"offline"
//	{prefix}/{duid}/command/{name}      inbound commands
//
// Command payloads are single JSON values: booleans for switches
// (power, auto_clean, ionizer), strings for enumerations (mode,
// fan_mode, swing_mode, preset), numbers for temperature and
// sleep_timer. Bare unquoted words are accepted for the string and
// boolean forms, since hand-typed mosquitto_pub payloads rarely carry
// quotes.
package bridge
