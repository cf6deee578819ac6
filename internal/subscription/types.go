package subscription

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Overlay is the locally mutable state layered over an authoritative access
// grant: the auto-renewal preference, consumption bookkeeping, and local
// cancellation. Mutating an overlay never performs chain calls.
type Overlay struct {
	Subscriber         common.Address `json:"subscriber"`
	Device             common.Address `json:"device"`
	AutoRenewal        bool           `json:"auto_renewal"`
	DataPointsConsumed int64          `json:"data_points_consumed"`
	Cancelled          bool           `json:"cancelled"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// View is the presentation-level subscription state: the confirmed on-chain
// grant merged with the local overlay, plus derived fields. Status and
// DaysRemaining are recomputed from the authoritative expiry on every read
// so they never drift.
type View struct {
	Subscriber         common.Address `json:"subscriber"`
	Device             common.Address `json:"device"`
	DeviceName         string         `json:"device_name"`
	DeviceType         string         `json:"device_type"`
	Status             Status         `json:"status"`
	Expiry             time.Time      `json:"expiry"`
	DaysRemaining      int            `json:"days_remaining"`
	AutoRenewal        bool           `json:"auto_renewal"`
	DataPointsConsumed int64          `json:"data_points_consumed"`
	PricePerDataPoint  *big.Int       `json:"price_per_data_point"`
	TotalPaid          *big.Int       `json:"total_paid"`
	RemainingBalance   *big.Int       `json:"remaining_balance"`
	Cancelled          bool           `json:"cancelled"`
}
