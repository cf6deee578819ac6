package telemetry

import "errors"

// Sentinel errors for telemetry operations.
//
// These errors can be checked using errors.Is() for specific handling:
//
//	if errors.Is(err, telemetry.ErrDisabled) {
//	    // Run without reading history
//	}
var (
	// ErrNotConnected indicates the client is not connected to InfluxDB.
	ErrNotConnected = errors.New("telemetry: not connected")

	// ErrConnectionFailed indicates the initial connection attempt failed.
	ErrConnectionFailed = errors.New("telemetry: connection failed")

	// ErrQueryFailed indicates a stats query failed.
	ErrQueryFailed = errors.New("telemetry: query failed")

	// ErrDisabled indicates telemetry integration is disabled in config.
	ErrDisabled = errors.New("telemetry: disabled in configuration")
)
