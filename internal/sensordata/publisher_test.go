package sensordata

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/somniastreams/marketcore/internal/registry"
)

var (
	pubOwner  = common.HexToAddress("0x1111111111111111111111111111111111111111")
	pubDevice = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

// fakeBroker captures published payloads.
type fakeBroker struct {
	published [][]byte
	types     []string
	err       error
}

func (b *fakeBroker) PublishReading(_ context.Context, deviceType, _ string, payload []byte) error {
	if b.err != nil {
		return b.err
	}
	b.types = append(b.types, deviceType)
	b.published = append(b.published, payload)
	return nil
}

// fakeRecorder captures telemetry writes.
type fakeRecorder struct {
	writes int
	fields map[string]float64
	err    error
}

func (r *fakeRecorder) RecordReading(_ context.Context, _, _ string, fields map[string]float64, _ time.Time) error {
	if r.err != nil {
		return r.err
	}
	r.writes++
	r.fields = fields
	return nil
}

func newTestPublisher(t *testing.T, deviceType registry.DeviceType) (*Publisher, *fakeBroker, *registry.MemoryClient) {
	t.Helper()

	client := registry.NewMemoryClient()
	params := registry.RegisterParams{
		DeviceAddress:        pubDevice,
		Name:                 "Test Device",
		DeviceType:           deviceType,
		Location:             "Test Site",
		PricePerDataPoint:    big.NewInt(1000),
		SubscriptionDuration: 24 * time.Hour,
	}
	if _, err := client.Register(context.Background(), pubOwner, params); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	broker := &fakeBroker{}
	return NewPublisher(client, broker), broker, client
}

func TestPublisher_Publish(t *testing.T) {
	ctx := context.Background()

	t.Run("valid reading is published", func(t *testing.T) {
		pub, broker, _ := newTestPublisher(t, registry.DeviceTypeGPSTracker)

		if err := pub.Publish(ctx, pubDevice, validGPS()); err != nil {
			t.Fatalf("Publish() error = %v", err)
		}
		if len(broker.published) != 1 {
			t.Fatalf("published %d payloads, want 1", len(broker.published))
		}
		if broker.types[0] != string(registry.DeviceTypeGPSTracker) {
			t.Errorf("published type = %s, want %s", broker.types[0], registry.DeviceTypeGPSTracker)
		}
	})

	t.Run("invalid reading is rejected and not published", func(t *testing.T) {
		pub, broker, _ := newTestPublisher(t, registry.DeviceTypeGPSTracker)

		reading := validGPS()
		reading.Latitude = "91"

		err := pub.Publish(ctx, pubDevice, reading)
		if !errors.Is(err, ErrInvalidReading) {
			t.Errorf("error = %v, want ErrInvalidReading", err)
		}
		if len(broker.published) != 0 {
			t.Error("invalid reading must not reach the broker")
		}
	})

	t.Run("type mismatch is rejected", func(t *testing.T) {
		pub, _, _ := newTestPublisher(t, registry.DeviceTypeWeatherStation)

		err := pub.Publish(ctx, pubDevice, validGPS())
		if !errors.Is(err, ErrTypeMismatch) {
			t.Errorf("error = %v, want ErrTypeMismatch", err)
		}
	})

	t.Run("inactive device is rejected", func(t *testing.T) {
		pub, _, client := newTestPublisher(t, registry.DeviceTypeGPSTracker)
		if _, err := client.SetActive(ctx, pubOwner, pubDevice, false); err != nil {
			t.Fatalf("SetActive() error = %v", err)
		}

		err := pub.Publish(ctx, pubDevice, validGPS())
		if !errors.Is(err, ErrDeviceInactive) {
			t.Errorf("error = %v, want ErrDeviceInactive", err)
		}
	})

	t.Run("unregistered device propagates not found", func(t *testing.T) {
		pub, _, _ := newTestPublisher(t, registry.DeviceTypeGPSTracker)

		unknown := common.HexToAddress("0x9999999999999999999999999999999999999999")
		err := pub.Publish(ctx, unknown, validGPS())
		if !errors.Is(err, registry.ErrNotFound) {
			t.Errorf("error = %v, want registry.ErrNotFound", err)
		}
	})

	t.Run("recorder receives numeric fields", func(t *testing.T) {
		pub, _, _ := newTestPublisher(t, registry.DeviceTypeWeatherStation)
		recorder := &fakeRecorder{}
		pub.SetRecorder(recorder)

		if err := pub.Publish(ctx, pubDevice, validWeather()); err != nil {
			t.Fatalf("Publish() error = %v", err)
		}
		if recorder.writes != 1 {
			t.Fatalf("recorder writes = %d, want 1", recorder.writes)
		}
		if recorder.fields["temperature"] != 72.5 {
			t.Errorf("temperature field = %v, want 72.5", recorder.fields["temperature"])
		}
	})

	t.Run("recorder failure does not fail the publish", func(t *testing.T) {
		pub, broker, _ := newTestPublisher(t, registry.DeviceTypeWeatherStation)
		pub.SetRecorder(&fakeRecorder{err: errors.New("tsdb down")})

		if err := pub.Publish(ctx, pubDevice, validWeather()); err != nil {
			t.Fatalf("Publish() error = %v", err)
		}
		if len(broker.published) != 1 {
			t.Error("publish should succeed despite recorder failure")
		}
	})

	t.Run("broker failure propagates", func(t *testing.T) {
		pub, broker, _ := newTestPublisher(t, registry.DeviceTypeGPSTracker)
		broker.err = errors.New("broker unreachable")

		if err := pub.Publish(ctx, pubDevice, validGPS()); err == nil {
			t.Error("expected broker failure to propagate")
		}
	})
}
