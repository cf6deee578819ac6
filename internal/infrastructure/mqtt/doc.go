// Package mqtt provides MQTT client connectivity for Marketcore.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Reading publication with QoS guarantees
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// Marketcore uses MQTT as the outbound data plane: sensor readings that
// pass validation are published to per-device stream topics where
// collectors and subscriber-facing consumers pick them up. The service
// only publishes; device state is pull-based, so there is no inbound
// subscription path.
//
//	Marketcore → MQTT Broker → Stream Consumers
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
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
//	topic := mqtt.Topics{}.DeviceReading("weather_station", deviceAddr)
//	client.Publish(topic, payload, 1, false)
package mqtt
