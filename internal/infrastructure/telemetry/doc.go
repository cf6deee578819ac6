// Package telemetry provides InfluxDB connectivity for Marketcore.
//
// This package manages:
//   - Connection to InfluxDB v2 with token authentication
//   - Non-blocking, batched reading writes
//   - Per-device stats queries (data-point counts, last published, uptime)
//   - Connection health monitoring
//
// # Architecture
//
// Telemetry is an optional enrichment layer. Validated sensor readings are
// recorded as points in the device_readings measurement, tagged by device
// address and type. The discovery engine queries those points back to
// attach stats to hydrated device records. When telemetry is disabled or
// unreachable, the rest of the service runs without it.
//
//	Publisher → RecordReading → InfluxDB ← DeviceStats ← Discovery Engine
//
// # Usage
//
//	client, err := telemetry.Connect(cfg.Telemetry)
//	if errors.Is(err, telemetry.ErrDisabled) {
//	    // Continue without stats
//	}
//	defer client.Close()
package telemetry
