// Package sensordata validates raw sensor readings against physically
// plausible bounds before they are published against a device's pricing
// contract.
//
// Validation is pure and per-field: every violated constraint is collected
// in fixed rule order rather than stopping at the first. Three payload
// shapes are supported, matching the registry device types: GPS tracker,
// weather station, and air quality monitor.
//
// Publisher wraps validation with the publish-side plumbing: it resolves
// the device record, refuses inactive devices and shape mismatches, then
// emits the reading to the message bus and, best-effort, the time-series
// store.
package sensordata
