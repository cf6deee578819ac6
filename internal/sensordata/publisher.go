package sensordata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/somniastreams/marketcore/internal/registry"
)

// Publisher errors.
var (
	// ErrInvalidReading is returned when a reading fails bounds validation.
	ErrInvalidReading = errors.New("sensordata: invalid reading")

	// ErrDeviceInactive is returned when publishing against a deactivated device.
	ErrDeviceInactive = errors.New("sensordata: device is inactive")

	// ErrTypeMismatch is returned when the reading shape does not match the
	// device's registered type.
	ErrTypeMismatch = errors.New("sensordata: reading does not match device type")
)

// Reading is one validated sensor payload shape.
type Reading interface {
	// Validate collects all bounds violations in fixed rule order.
	Validate() ValidationResult

	// DeviceType is the registry type this payload shape belongs to.
	DeviceType() registry.DeviceType

	// Fields returns the parseable numeric fields for telemetry recording.
	Fields() map[string]float64
}

// Validate implements Reading.
func (r GPSReading) Validate() ValidationResult { return ValidateGPS(r) }

// DeviceType implements Reading.
func (r GPSReading) DeviceType() registry.DeviceType { return registry.DeviceTypeGPSTracker }

// Fields implements Reading.
func (r GPSReading) Fields() map[string]float64 {
	return numericFields(map[string]string{
		"latitude":  r.Latitude,
		"longitude": r.Longitude,
		"altitude":  r.Altitude,
		"accuracy":  r.Accuracy,
		"speed":     r.Speed,
		"heading":   r.Heading,
	})
}

// Validate implements Reading.
func (r WeatherReading) Validate() ValidationResult { return ValidateWeather(r) }

// DeviceType implements Reading.
func (r WeatherReading) DeviceType() registry.DeviceType { return registry.DeviceTypeWeatherStation }

// Fields implements Reading.
func (r WeatherReading) Fields() map[string]float64 {
	return numericFields(map[string]string{
		"temperature":    r.Temperature,
		"humidity":       r.Humidity,
		"pressure":       r.Pressure,
		"wind_speed":     r.WindSpeed,
		"wind_direction": r.WindDirection,
		"rainfall":       r.Rainfall,
	})
}

// Validate implements Reading.
func (r AirQualityReading) Validate() ValidationResult { return ValidateAirQuality(r) }

// DeviceType implements Reading.
func (r AirQualityReading) DeviceType() registry.DeviceType {
	return registry.DeviceTypeAirQualityMonitor
}

// Fields implements Reading.
func (r AirQualityReading) Fields() map[string]float64 {
	return numericFields(map[string]string{
		"pm25": r.PM25,
		"pm10": r.PM10,
		"co2":  r.CO2,
		"no2":  r.NO2,
		"o3":   r.O3,
		"aqi":  r.AQI,
	})
}

func numericFields(raw map[string]string) map[string]float64 {
	fields := make(map[string]float64, len(raw))
	for name, value := range raw {
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			fields[name] = v
		}
	}
	return fields
}

// Broker publishes validated readings to the message bus.
type Broker interface {
	PublishReading(ctx context.Context, deviceType, deviceAddress string, payload []byte) error
}

// Recorder writes validated readings into the time-series store.
type Recorder interface {
	RecordReading(ctx context.Context, deviceAddress string, deviceType string, fields map[string]float64, at time.Time) error
}

// Logger is the minimal logging interface the publisher needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Publisher gates sensor readings on validation and device state before
// they reach the message bus and the time-series store. A reading is only
// published for a registered, active device of the matching type.
type Publisher struct {
	client   registry.Client
	broker   Broker
	recorder Recorder
	logger   Logger

	now func() time.Time
}

// NewPublisher creates a publisher. The broker is required; the recorder is
// optional and best-effort.
func NewPublisher(client registry.Client, broker Broker) *Publisher {
	return &Publisher{
		client: client,
		broker: broker,
		logger: noopLogger{},
		now:    time.Now,
	}
}

// SetRecorder attaches a time-series recorder.
func (p *Publisher) SetRecorder(recorder Recorder) {
	p.recorder = recorder
}

// SetLogger sets the logger for publish operations.
func (p *Publisher) SetLogger(logger Logger) {
	if logger != nil {
		p.logger = logger
	}
}

// readingEnvelope is the wire shape published to the broker.
type readingEnvelope struct {
	Device     string      `json:"device"`
	DeviceType string      `json:"device_type"`
	Reading    interface{} `json:"reading"`
	Timestamp  int64       `json:"timestamp"`
}

// Publish validates a reading and, if it passes, publishes it against the
// device's data stream and records it in the time-series store.
//
// Validation failures return ErrInvalidReading with all violations joined;
// nothing is published on failure.
func (p *Publisher) Publish(ctx context.Context, device common.Address, reading Reading) error {
	record, err := p.client.Device(ctx, device)
	if err != nil {
		return fmt.Errorf("resolving device %s: %w", device.Hex(), err)
	}
	if record.DeviceType != reading.DeviceType() {
		return fmt.Errorf("%w: device is %s, reading is %s",
			ErrTypeMismatch, record.DeviceType, reading.DeviceType())
	}
	if !record.Active {
		return fmt.Errorf("%w: %s", ErrDeviceInactive, device.Hex())
	}

	if result := reading.Validate(); !result.Valid {
		return fmt.Errorf("%w: %s", ErrInvalidReading, FormatErrors(result.Errors))
	}

	now := p.now()
	payload, err := json.Marshal(readingEnvelope{
		Device:     device.Hex(),
		DeviceType: string(record.DeviceType),
		Reading:    reading,
		Timestamp:  now.Unix(),
	})
	if err != nil {
		return fmt.Errorf("encoding reading: %w", err)
	}

	if err := p.broker.PublishReading(ctx, string(record.DeviceType), device.Hex(), payload); err != nil {
		return fmt.Errorf("publishing reading: %w", err)
	}

	if p.recorder != nil {
		if err := p.recorder.RecordReading(ctx, device.Hex(), string(record.DeviceType), reading.Fields(), now); err != nil {
			// Telemetry is enrichment; the publish already succeeded.
			p.logger.Warn("reading published but telemetry write failed",
				"device", device.Hex(),
				"error", err)
		}
	}

	p.logger.Debug("reading published",
		"device", device.Hex(),
		"type", string(record.DeviceType))
	return nil
}
