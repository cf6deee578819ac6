package subscription

import (
	"math/big"
	"time"
)

// Status classifies a subscription relative to its access expiry.
type Status string

// Subscription statuses. The boundary is exclusive on expiry: a
// subscription whose expiry equals the current instant is already expired.
const (
	StatusActive  Status = "ACTIVE"
	StatusExpired Status = "EXPIRED"
)

const day = 24 * time.Hour

// DeriveStatus computes the status for an access expiry at a given instant.
// The zero expiry (never purchased) is expired.
func DeriveStatus(now, expiry time.Time) Status {
	if now.Before(expiry) {
		return StatusActive
	}
	return StatusExpired
}

// DaysRemaining computes ceil((expiry-now)/24h), floored at 0. The
// arithmetic is integer only: one second past expiry-minus-a-day still
// counts as a full day, and an expired subscription has zero days.
func DaysRemaining(now, expiry time.Time) int {
	if !now.Before(expiry) {
		return 0
	}
	remaining := expiry.Sub(now)
	return int((remaining + day - time.Nanosecond) / day)
}

// RemainingBalance computes totalPaid minus the cost of consumed data
// points, floored at zero. All values are integer base units; no floating
// point touches them.
func RemainingBalance(totalPaid, pricePerDataPoint *big.Int, consumed int64) *big.Int {
	if totalPaid == nil {
		return big.NewInt(0)
	}

	spent := big.NewInt(0)
	if pricePerDataPoint != nil && consumed > 0 {
		spent = new(big.Int).Mul(pricePerDataPoint, big.NewInt(consumed))
	}

	balance := new(big.Int).Sub(totalPaid, spent)
	if balance.Sign() < 0 {
		return big.NewInt(0)
	}
	return balance
}
