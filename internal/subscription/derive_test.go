package subscription

import (
	"math/big"
	"testing"
	"time"
)

var baseTime = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name   string
		expiry time.Time
		want   Status
	}{
		{name: "future expiry is active", expiry: baseTime.Add(time.Hour), want: StatusActive},
		{name: "one second ahead is active", expiry: baseTime.Add(time.Second), want: StatusActive},
		{name: "exact equality is expired", expiry: baseTime, want: StatusExpired},
		{name: "past expiry is expired", expiry: baseTime.Add(-time.Hour), want: StatusExpired},
		{name: "zero expiry is expired", expiry: time.Time{}, want: StatusExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveStatus(baseTime, tt.expiry); got != tt.want {
				t.Errorf("DeriveStatus() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDaysRemaining(t *testing.T) {
	tests := []struct {
		name   string
		expiry time.Time
		want   int
	}{
		{name: "one second rounds up to a day", expiry: baseTime.Add(time.Second), want: 1},
		{name: "exactly one day", expiry: baseTime.Add(24 * time.Hour), want: 1},
		{name: "a day and a second rounds to two", expiry: baseTime.Add(24*time.Hour + time.Second), want: 2},
		{name: "thirty days", expiry: baseTime.Add(30 * 24 * time.Hour), want: 30},
		{name: "expired is zero", expiry: baseTime.Add(-time.Second), want: 0},
		{name: "boundary is zero", expiry: baseTime, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysRemaining(baseTime, tt.expiry); got != tt.want {
				t.Errorf("DaysRemaining() = %d, want %d", got, tt.want)
			}
		})
	}
}

// TestSubscriptionClockScenario walks the purchase-then-expire sequence on a
// simulated clock.
func TestSubscriptionClockScenario(t *testing.T) {
	expiry := baseTime.Add(30 * 24 * time.Hour)

	// Immediately after purchase.
	if got := DeriveStatus(baseTime, expiry); got != StatusActive {
		t.Errorf("status at purchase = %s, want %s", got, StatusActive)
	}
	if got := DaysRemaining(baseTime, expiry); got != 30 {
		t.Errorf("days at purchase = %d, want 30", got)
	}

	// 31 days later.
	later := baseTime.Add(31 * 24 * time.Hour)
	if got := DeriveStatus(later, expiry); got != StatusExpired {
		t.Errorf("status after 31 days = %s, want %s", got, StatusExpired)
	}
	if got := DaysRemaining(later, expiry); got != 0 {
		t.Errorf("days after 31 days = %d, want 0", got)
	}
}

func TestRemainingBalance(t *testing.T) {
	price := big.NewInt(1000000000000000) // 0.001 per data point

	tests := []struct {
		name      string
		totalPaid *big.Int
		consumed  int64
		want      string
	}{
		{name: "nothing consumed", totalPaid: big.NewInt(5000000000000000), consumed: 0, want: "5000000000000000"},
		{name: "partial consumption", totalPaid: big.NewInt(5000000000000000), consumed: 2, want: "3000000000000000"},
		{name: "exact consumption", totalPaid: big.NewInt(5000000000000000), consumed: 5, want: "0"},
		{name: "overconsumption floors at zero", totalPaid: big.NewInt(5000000000000000), consumed: 9, want: "0"},
		{name: "nil total paid", totalPaid: nil, consumed: 3, want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RemainingBalance(tt.totalPaid, price, tt.consumed)
			if got.String() != tt.want {
				t.Errorf("RemainingBalance() = %s, want %s", got.String(), tt.want)
			}
		})
	}
}
