package telemetry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// RecordReading writes a validated sensor reading to InfluxDB.
//
// This satisfies the recorder interface the sensor publisher expects: each
// numeric field of the reading becomes an InfluxDB field on a single point
// tagged with the device address and type. The write is non-blocking; data
// is batched and sent asynchronously, so failures surface via the error
// callback, not here.
//
// Parameters:
//   - deviceAddress: Hex address of the publishing device (any case)
//   - deviceType: Device type tag (e.g. "weather_station")
//   - fields: Numeric reading fields (e.g. "temperature": 21.5)
//   - at: Timestamp of the reading
func (c *Client) RecordReading(ctx context.Context, deviceAddress string, deviceType string, fields map[string]float64, at time.Time) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("telemetry write: %w", ctx.Err())
	default:
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}
	if len(fields) == 0 {
		return fmt.Errorf("telemetry write: reading has no numeric fields")
	}

	pointFields := make(map[string]interface{}, len(fields))
	for name, value := range fields {
		pointFields[name] = value
	}

	point := write.NewPoint(
		measurementReadings,
		map[string]string{
			"device":      strings.ToLower(deviceAddress),
			"device_type": deviceType,
		},
		pointFields,
		at,
	)

	c.writeAPI.WritePoint(point)
	return nil
}
