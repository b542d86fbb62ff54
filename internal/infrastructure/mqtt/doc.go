// Package mqtt provides MQTT client connectivity for the daemon.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// MQTT is the daemon's integration surface for home-automation
// platforms: the bridge publishes retained state and availability per
// unit and consumes commands, so any MQTT-speaking controller can drive
// the air conditioner without knowing its native protocol.
//
//	controller ↔ MQTT broker ↔ samsungacd ↔ unit (port 2878)
//
// # Security Considerations
//
//   - TLS is recommended for non-local brokers (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Subscribe to all commands for a unit
//	topics := client.Topics()
//	err = client.Subscribe(topics.AllCommands(duid), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	// Publish retained state
//	client.PublishRetained(topics.State(duid), stateJSON)
package mqtt
