package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/somniastreams/marketcore/internal/infrastructure/config"
)

func TestConnect_Disabled(t *testing.T) {
	_, err := Connect(config.TelemetryConfig{Enabled: false})
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestRecordReading_NotConnected(t *testing.T) {
	c := &Client{}

	err := c.RecordReading(context.Background(), "0xabc", "gps_tracker",
		map[string]float64{"latitude": 51.5}, time.Now())
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("RecordReading() error = %v, want ErrNotConnected", err)
	}
}

func TestRecordReading_CancelledContext(t *testing.T) {
	c := &Client{connected: true}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.RecordReading(ctx, "0xabc", "gps_tracker",
		map[string]float64{"latitude": 51.5}, time.Now())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("RecordReading() error = %v, want context.Canceled", err)
	}
}

func TestUptimeFromWindows(t *testing.T) {
	tests := []struct {
		name   string
		counts []int64
		want   float64
	}{
		{
			name:   "no windows",
			counts: nil,
			want:   0,
		},
		{
			name:   "all empty",
			counts: []int64{0, 0, 0, 0},
			want:   0,
		},
		{
			name:   "half active",
			counts: []int64{3, 0, 1, 0},
			want:   50,
		},
		{
			name:   "fully active",
			counts: []int64{1, 1, 1, 1},
			want:   100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := uptimeFromWindows(tt.counts); got != tt.want {
				t.Errorf("uptimeFromWindows() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHealthCheck_NotConnected(t *testing.T) {
	c := &Client{}

	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
}
