package discovery

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/somniastreams/marketcore/internal/registry"
)

var (
	testOwner = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testOther = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

// memHintStore is an in-memory HintStore for engine tests.
type memHintStore struct {
	mu     sync.Mutex
	scopes map[string][]Hint
}

func newMemHintStore() *memHintStore {
	return &memHintStore{scopes: make(map[string][]Hint)}
}

func (s *memHintStore) Add(_ context.Context, scope string, hint Hint) error {
	if scope == "" {
		return ErrInvalidScope
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.scopes[scope] {
		if existing.DeviceAddress == hint.DeviceAddress {
			return nil
		}
	}
	s.scopes[scope] = append(s.scopes[scope], hint)
	return nil
}

func (s *memHintStore) List(_ context.Context, scope string, limit int) ([]Hint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hints := s.scopes[scope]
	if limit > 0 && limit < len(hints) {
		hints = hints[:limit]
	}
	out := make([]Hint, len(hints))
	copy(out, hints)
	return out, nil
}

func (s *memHintStore) Count(_ context.Context, scope string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.scopes[scope]), nil
}

// fakeStats returns fixed stats for every address.
type fakeStats struct {
	stats *DeviceStats
	err   error
}

func (f *fakeStats) DeviceStats(_ context.Context, _ common.Address) (*DeviceStats, error) {
	return f.stats, f.err
}

func deviceAddr(b byte) common.Address {
	var a common.Address
	for i := range a {
		a[i] = b
	}
	return a
}

func registerDevices(t *testing.T, client *registry.MemoryClient, owner common.Address, addrs ...common.Address) {
	t.Helper()
	for i, addr := range addrs {
		params := registry.RegisterParams{
			DeviceAddress:        addr,
			Name:                 "Device " + addr.Hex()[:10],
			DeviceType:           registry.DeviceTypeGPSTracker,
			Location:             "Test Site",
			PricePerDataPoint:    big.NewInt(int64(i+1) * 1000),
			SubscriptionDuration: 30 * 24 * time.Hour,
			MetadataURI:          "ipfs://test",
		}
		if _, err := client.Register(context.Background(), owner, params); err != nil {
			t.Fatalf("Register(%s) error = %v", addr.Hex(), err)
		}
	}
}

func TestEngine_LoadOwnerDevices(t *testing.T) {
	ctx := context.Background()

	t.Run("skips failed candidates and preserves order", func(t *testing.T) {
		client := registry.NewMemoryClient()
		d1, d2, d3 := deviceAddr(0xa1), deviceAddr(0xa2), deviceAddr(0xa3)
		registerDevices(t, client, testOwner, d1, d2, d3)

		unknown := deviceAddr(0xff)
		candidates := []common.Address{d1, unknown, d2, d3}

		engine := NewEngine(client, newMemHintStore(), 4)
		devices, err := engine.LoadOwnerDevices(ctx, testOwner, candidates)
		if err != nil {
			t.Fatalf("LoadOwnerDevices() error = %v", err)
		}

		if len(devices) != 3 {
			t.Fatalf("hydrated %d devices, want 3", len(devices))
		}
		want := []common.Address{d1, d2, d3}
		for i, device := range devices {
			if device.Address != want[i] {
				t.Errorf("devices[%d].Address = %s, want %s",
					i, device.Address.Hex(), want[i].Hex())
			}
		}
	})

	t.Run("fetches candidates when none given", func(t *testing.T) {
		client := registry.NewMemoryClient()
		d1, d2 := deviceAddr(0xb1), deviceAddr(0xb2)
		registerDevices(t, client, testOwner, d1, d2)
		registerDevices(t, client, testOther, deviceAddr(0xb3))

		engine := NewEngine(client, newMemHintStore(), 4)
		devices, err := engine.LoadOwnerDevices(ctx, testOwner, nil)
		if err != nil {
			t.Fatalf("LoadOwnerDevices() error = %v", err)
		}
		if len(devices) != 2 {
			t.Fatalf("hydrated %d devices, want 2", len(devices))
		}
		for _, device := range devices {
			if device.Owner != testOwner {
				t.Errorf("device %s owned by %s, want %s",
					device.Address.Hex(), device.Owner.Hex(), testOwner.Hex())
			}
		}
	})

	t.Run("stats attached when source configured", func(t *testing.T) {
		client := registry.NewMemoryClient()
		d1 := deviceAddr(0xc1)
		registerDevices(t, client, testOwner, d1)

		engine := NewEngine(client, newMemHintStore(), 1)
		engine.SetStatsSource(&fakeStats{stats: &DeviceStats{TotalDataPoints: 42}})

		devices, err := engine.LoadOwnerDevices(ctx, testOwner, nil)
		if err != nil {
			t.Fatalf("LoadOwnerDevices() error = %v", err)
		}
		if devices[0].Stats == nil || devices[0].Stats.TotalDataPoints != 42 {
			t.Errorf("Stats = %+v, want TotalDataPoints 42", devices[0].Stats)
		}
	})

	t.Run("stats failure leaves record intact", func(t *testing.T) {
		client := registry.NewMemoryClient()
		d1 := deviceAddr(0xc2)
		registerDevices(t, client, testOwner, d1)

		engine := NewEngine(client, newMemHintStore(), 1)
		engine.SetStatsSource(&fakeStats{err: errors.New("tsdb down")})

		devices, err := engine.LoadOwnerDevices(ctx, testOwner, nil)
		if err != nil {
			t.Fatalf("LoadOwnerDevices() error = %v", err)
		}
		if len(devices) != 1 {
			t.Fatalf("hydrated %d devices, want 1", len(devices))
		}
		if devices[0].Stats != nil {
			t.Error("Stats should stay nil when the source fails")
		}
	})
}

func TestEngine_DiscoverMarketplace(t *testing.T) {
	ctx := context.Background()

	t.Run("empty hint store yields empty slice", func(t *testing.T) {
		engine := NewEngine(registry.NewMemoryClient(), newMemHintStore(), 2)

		devices, err := engine.DiscoverMarketplace(ctx, 10)
		if err != nil {
			t.Fatalf("DiscoverMarketplace() error = %v", err)
		}
		if devices == nil {
			t.Fatal("expected empty slice, got nil")
		}
		if len(devices) != 0 {
			t.Errorf("len = %d, want 0", len(devices))
		}
	})

	t.Run("stale hints are skipped", func(t *testing.T) {
		client := registry.NewMemoryClient()
		hints := newMemHintStore()
		d1, d2 := deviceAddr(0xd1), deviceAddr(0xd2)
		registerDevices(t, client, testOwner, d1, d2)

		engine := NewEngine(client, hints, 2)
		for _, addr := range []common.Address{d1, deviceAddr(0xde), d2} {
			hint := Hint{DeviceAddress: addr, OwnerAddress: testOwner}
			if err := engine.RememberDevice(ctx, hint); err != nil {
				t.Fatalf("RememberDevice() error = %v", err)
			}
		}

		devices, err := engine.DiscoverMarketplace(ctx, 10)
		if err != nil {
			t.Fatalf("DiscoverMarketplace() error = %v", err)
		}
		if len(devices) != 2 {
			t.Fatalf("hydrated %d devices, want 2", len(devices))
		}
		if devices[0].Address != d1 || devices[1].Address != d2 {
			t.Errorf("order = [%s %s], want [%s %s]",
				devices[0].Address.Hex(), devices[1].Address.Hex(), d1.Hex(), d2.Hex())
		}
	})

	t.Run("limit caps resolved hints", func(t *testing.T) {
		client := registry.NewMemoryClient()
		hints := newMemHintStore()
		addrs := []common.Address{deviceAddr(0xe1), deviceAddr(0xe2), deviceAddr(0xe3)}
		registerDevices(t, client, testOwner, addrs...)

		engine := NewEngine(client, hints, 2)
		for _, addr := range addrs {
			if err := engine.RememberDevice(ctx, Hint{DeviceAddress: addr, OwnerAddress: testOwner}); err != nil {
				t.Fatalf("RememberDevice() error = %v", err)
			}
		}

		devices, err := engine.DiscoverMarketplace(ctx, 2)
		if err != nil {
			t.Fatalf("DiscoverMarketplace() error = %v", err)
		}
		if len(devices) != 2 {
			t.Errorf("len = %d, want 2", len(devices))
		}
	})
}

func TestEngine_RememberDevice_Idempotent(t *testing.T) {
	ctx := context.Background()
	hints := newMemHintStore()
	engine := NewEngine(registry.NewMemoryClient(), hints, 2)

	hint := Hint{DeviceAddress: deviceAddr(0xf1), OwnerAddress: testOwner}
	for i := 0; i < 2; i++ {
		if err := engine.RememberDevice(ctx, hint); err != nil {
			t.Fatalf("RememberDevice() #%d error = %v", i+1, err)
		}
	}

	count, err := hints.Count(ctx, MarketplaceScope)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Errorf("marketplace hint count = %d, want 1", count)
	}

	count, _ = hints.Count(ctx, OwnerScope(testOwner))
	if count != 1 {
		t.Errorf("owner hint count = %d, want 1", count)
	}
}

func TestEngine_RegisterDevice(t *testing.T) {
	ctx := context.Background()
	client := registry.NewMemoryClient()
	hints := newMemHintStore()
	engine := NewEngine(client, hints, 2)

	addr := deviceAddr(0xf2)
	params := registry.RegisterParams{
		DeviceAddress:        addr,
		Name:                 "Air Monitor",
		DeviceType:           registry.DeviceTypeAirQualityMonitor,
		Location:             "Berlin, DE",
		PricePerDataPoint:    big.NewInt(5000),
		SubscriptionDuration: 7 * 24 * time.Hour,
	}

	txHash, err := engine.RegisterDevice(ctx, testOwner, params)
	if err != nil {
		t.Fatalf("RegisterDevice() error = %v", err)
	}
	if txHash == (common.Hash{}) {
		t.Error("expected a transaction hash")
	}

	exists, _ := client.Exists(ctx, addr)
	if !exists {
		t.Error("device should exist on chain after registration")
	}

	marketplace, _ := hints.List(ctx, MarketplaceScope, 0)
	if len(marketplace) != 1 || marketplace[0].DeviceAddress != addr {
		t.Errorf("marketplace hints = %v, want the registered device", marketplace)
	}

	// A failed on-chain registration must not leave hints behind.
	if _, err := engine.RegisterDevice(ctx, testOther, params); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
	marketplace, _ = hints.List(ctx, MarketplaceScope, 0)
	if len(marketplace) != 1 {
		t.Errorf("hint count after failed registration = %d, want 1", len(marketplace))
	}
}

func TestDeviceID(t *testing.T) {
	addr := common.HexToAddress("0x1A2B3C4D5E6F00000000000000000000000000AA")
	if got := deviceID(addr); got != "device-1a2b3c4d" {
		t.Errorf("deviceID = %q, want %q", got, "device-1a2b3c4d")
	}
}
