package discovery

import (
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/somniastreams/marketcore/internal/registry"
)

// Hint is a best-effort local pointer to a candidate device address. It is
// advisory only: the address may no longer resolve to a device record, and
// reconciliation must tolerate that.
type Hint struct {
	DeviceAddress common.Address `json:"device_address"`
	OwnerAddress  common.Address `json:"owner_address"`
}

// DeviceStats carries telemetry-derived metrics for one device. These come
// from the time-series store, not the chain.
type DeviceStats struct {
	QualityScore      float64   `json:"quality_score"`
	TotalDataPoints   int64     `json:"total_data_points"`
	TotalEarnings     string    `json:"total_earnings"`
	ActiveSubscribers int       `json:"active_subscribers"`
	UptimePercent     float64   `json:"uptime_percent"`
	LastPublishedAt   time.Time `json:"last_published_at"`
}

// HydratedDevice is the union of an authoritative device record with
// telemetry-derived stats. Stats is nil when no telemetry source produced
// metrics; derived fields are never fabricated.
type HydratedDevice struct {
	ID string `json:"id"`
	registry.DeviceRecord
	Stats *DeviceStats `json:"stats,omitempty"`
}

// deviceID derives a short display identifier from a device address.
// "0x1a2b3c4d..." becomes "device-1a2b3c4d".
func deviceID(address common.Address) string {
	hex := strings.ToLower(address.Hex())
	return "device-" + hex[2:10]
}
