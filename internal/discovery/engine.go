package discovery

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/somniastreams/marketcore/internal/registry"
)

// Logger is the minimal logging interface the engine needs.
// This allows the engine to work with any logger implementation.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// StatsSource supplies telemetry-derived metrics for hydrated devices.
// A nil result with a nil error means no metrics exist yet.
type StatsSource interface {
	DeviceStats(ctx context.Context, address common.Address) (*DeviceStats, error)
}

// defaultConcurrency bounds the hydration fan-out when none is configured.
const defaultConcurrency = 8

// Engine reconciles locally stored discovery hints with authoritative
// on-chain device records.
//
// Hydration of a candidate list fans out concurrently; each address writes
// only its own output slot, a failure never cancels the rest of the batch,
// and output order follows input order with failed entries removed.
type Engine struct {
	client      registry.Client
	hints       HintStore
	stats       StatsSource
	logger      Logger
	concurrency int
}

// NewEngine creates a reconciliation engine. Concurrency bounds the number
// of in-flight hydration calls; values below 1 fall back to the default.
func NewEngine(client registry.Client, hints HintStore, concurrency int) *Engine {
	if concurrency < 1 {
		concurrency = defaultConcurrency
	}
	return &Engine{
		client:      client,
		hints:       hints,
		logger:      noopLogger{},
		concurrency: concurrency,
	}
}

// SetLogger sets the logger for engine operations.
func (e *Engine) SetLogger(logger Logger) {
	if logger != nil {
		e.logger = logger
	}
}

// SetStatsSource attaches a telemetry stats source. Without one, hydrated
// devices carry nil stats rather than fabricated numbers.
func (e *Engine) SetStatsSource(stats StatsSource) {
	e.stats = stats
}

// LoadOwnerDevices hydrates the owner's device addresses. When candidates
// is nil the authoritative owner list is fetched first; passing an explicit
// candidate list skips that read.
//
// Per-address failures are logged and skipped; the returned slice preserves
// the relative order of the addresses that hydrated successfully.
func (e *Engine) LoadOwnerDevices(ctx context.Context, owner common.Address, candidates []common.Address) ([]HydratedDevice, error) {
	if candidates == nil {
		addrs, err := e.client.DevicesByOwner(ctx, owner)
		if err != nil {
			return nil, fmt.Errorf("listing devices for owner %s: %w", owner.Hex(), err)
		}
		candidates = addrs
	}
	return e.hydrate(ctx, candidates), nil
}

// DiscoverMarketplace resolves up to limit marketplace hints into hydrated
// devices. An empty hint store is a valid state and yields an empty slice,
// not an error. Stale hints that no longer resolve are skipped.
func (e *Engine) DiscoverMarketplace(ctx context.Context, limit int) ([]HydratedDevice, error) {
	hints, err := e.hints.List(ctx, MarketplaceScope, limit)
	if err != nil {
		return nil, fmt.Errorf("listing marketplace hints: %w", err)
	}
	if len(hints) == 0 {
		return []HydratedDevice{}, nil
	}

	candidates := make([]common.Address, len(hints))
	for i, h := range hints {
		candidates[i] = h.DeviceAddress
	}
	return e.hydrate(ctx, candidates), nil
}

// RememberDevice records a device in the owner's hint scope and the global
// marketplace scope. Both writes are idempotent.
func (e *Engine) RememberDevice(ctx context.Context, hint Hint) error {
	if err := e.hints.Add(ctx, OwnerScope(hint.OwnerAddress), hint); err != nil {
		return fmt.Errorf("adding owner hint: %w", err)
	}
	if err := e.hints.Add(ctx, MarketplaceScope, hint); err != nil {
		return fmt.Errorf("adding marketplace hint: %w", err)
	}
	return nil
}

// RegisterDevice submits an on-chain registration and, once accepted,
// records discovery hints for the new device.
func (e *Engine) RegisterDevice(ctx context.Context, caller common.Address, params registry.RegisterParams) (common.Hash, error) {
	txHash, err := e.client.Register(ctx, caller, params)
	if err != nil {
		return common.Hash{}, err
	}

	hint := Hint{DeviceAddress: params.DeviceAddress, OwnerAddress: caller}
	if err := e.RememberDevice(ctx, hint); err != nil {
		// The registration is already on chain; a failed hint write only
		// delays local discoverability.
		e.logger.Warn("device registered but hint write failed",
			"device", params.DeviceAddress.Hex(),
			"error", err)
	}

	e.logger.Info("device registered",
		"device", params.DeviceAddress.Hex(),
		"owner", caller.Hex(),
		"tx", txHash.Hex())
	return txHash, nil
}

// hydrate resolves candidate addresses into device records with a bounded
// concurrent fan-out. Each goroutine writes only its own slot; failures
// leave the slot nil and are compacted out afterwards, preserving input
// order for the survivors.
func (e *Engine) hydrate(ctx context.Context, candidates []common.Address) []HydratedDevice {
	if len(candidates) == 0 {
		return []HydratedDevice{}
	}

	slots := make([]*HydratedDevice, len(candidates))
	sem := make(chan struct{}, e.concurrency)

	var wg sync.WaitGroup
	for i, addr := range candidates {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, addr common.Address) {
			defer wg.Done()
			defer func() { <-sem }()

			device, err := e.hydrateOne(ctx, addr)
			if err != nil {
				e.logger.Warn("skipping device that failed to hydrate",
					"device", addr.Hex(),
					"error", err)
				return
			}
			slots[i] = device
		}(i, addr)
	}
	wg.Wait()

	devices := make([]HydratedDevice, 0, len(candidates))
	skipped := 0
	for _, slot := range slots {
		if slot == nil {
			skipped++
			continue
		}
		devices = append(devices, *slot)
	}
	if skipped > 0 {
		e.logger.Debug("hydration batch completed with skips",
			"candidates", len(candidates),
			"hydrated", len(devices),
			"skipped", skipped)
	}
	return devices
}

// hydrateOne resolves one address into a hydrated device, attaching stats
// best-effort when a stats source is configured.
func (e *Engine) hydrateOne(ctx context.Context, addr common.Address) (*HydratedDevice, error) {
	record, err := e.client.Device(ctx, addr)
	if err != nil {
		return nil, err
	}

	device := &HydratedDevice{
		ID:           deviceID(addr),
		DeviceRecord: record,
	}

	if e.stats != nil {
		stats, err := e.stats.DeviceStats(ctx, addr)
		if err != nil {
			// Stats are enrichment only; the record stands without them.
			e.logger.Debug("stats lookup failed",
				"device", addr.Hex(),
				"error", err)
		} else {
			device.Stats = stats
		}
	}
	return device, nil
}
