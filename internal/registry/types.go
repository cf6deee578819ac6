package registry

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// DeviceType tags a device with its sensor payload shape.
type DeviceType string

// Supported device types.
const (
	DeviceTypeGPSTracker        DeviceType = "gps_tracker"
	DeviceTypeWeatherStation    DeviceType = "weather_station"
	DeviceTypeAirQualityMonitor DeviceType = "air_quality_monitor"
)

// Valid returns true if the device type is one of the supported types.
func (t DeviceType) Valid() bool {
	switch t {
	case DeviceTypeGPSTracker, DeviceTypeWeatherStation, DeviceTypeAirQualityMonitor:
		return true
	}
	return false
}

// DeviceRecord is the authoritative on-chain entry for one device.
//
// Address uniquely identifies a record. Owner is set at registration and is
// immutable. PricePerDataPoint is an integer base-unit amount; it is never
// touched by floating-point arithmetic before display conversion.
type DeviceRecord struct {
	Address              common.Address `json:"address"`
	Owner                common.Address `json:"owner"`
	Name                 string         `json:"name"`
	DeviceType           DeviceType     `json:"device_type"`
	Location             string         `json:"location"`
	PricePerDataPoint    *big.Int       `json:"price_per_data_point"`
	SubscriptionDuration time.Duration  `json:"subscription_duration"`
	MetadataURI          string         `json:"metadata_uri"`
	Active               bool           `json:"active"`
	RegisteredAt         time.Time      `json:"registered_at"`
}

// Copy returns an independent copy of the record. The big.Int price is
// cloned so callers cannot mutate shared state.
func (d *DeviceRecord) Copy() DeviceRecord {
	out := *d
	if d.PricePerDataPoint != nil {
		out.PricePerDataPoint = new(big.Int).Set(d.PricePerDataPoint)
	}
	return out
}

// RegisterParams carries the writable fields for register and update calls.
type RegisterParams struct {
	DeviceAddress        common.Address `json:"device_address"`
	Name                 string         `json:"name"`
	DeviceType           DeviceType     `json:"device_type"`
	Location             string         `json:"location"`
	PricePerDataPoint    *big.Int       `json:"price_per_data_point"`
	SubscriptionDuration time.Duration  `json:"subscription_duration"`
	MetadataURI          string         `json:"metadata_uri"`
}

// Validate checks the parameters before they are sent to the chain.
func (p *RegisterParams) Validate() error {
	if p.DeviceAddress == (common.Address{}) {
		return fmt.Errorf("%w: device address is required", ErrInvalidAddress)
	}
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidParams)
	}
	if !p.DeviceType.Valid() {
		return fmt.Errorf("%w: unknown device type %q", ErrInvalidParams, p.DeviceType)
	}
	if p.PricePerDataPoint == nil || p.PricePerDataPoint.Sign() < 0 {
		return fmt.Errorf("%w: price per data point must be non-negative", ErrInvalidParams)
	}
	if p.SubscriptionDuration <= 0 {
		return fmt.Errorf("%w: subscription duration must be positive", ErrInvalidParams)
	}
	return nil
}

// AccessGrant is the authoritative record of a subscriber's paid access
// window to a device's data stream. Expiry is only ever extended by a new
// purchase, never decreased. A zero Expiry means access was never purchased.
type AccessGrant struct {
	Subscriber common.Address `json:"subscriber"`
	Device     common.Address `json:"device"`
	Expiry     time.Time      `json:"expiry"`
	TotalPaid  *big.Int       `json:"total_paid"`
}
