package subscription

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/somniastreams/marketcore/internal/registry"
)

// Logger is the minimal logging interface the service needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Service merges authoritative access grants with local overlay state into
// presentation-level subscription views, and routes lifecycle actions.
//
// Only Purchase touches the chain. Auto-renewal toggles and cancellation
// mutate the local overlay exclusively; in particular, cancellation does
// not revoke the on-chain grant (see Cancel).
type Service struct {
	client   registry.Client
	overlays OverlayRepository
	logger   Logger

	// now is injectable for deterministic tests.
	now func() time.Time
}

// NewService creates a subscription service.
func NewService(client registry.Client, overlays OverlayRepository) *Service {
	return &Service{
		client:   client,
		overlays: overlays,
		logger:   noopLogger{},
		now:      time.Now,
	}
}

// SetLogger sets the logger for service operations.
func (s *Service) SetLogger(logger Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// SetClock overrides the time source. Intended for tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Purchase pays for one subscription period on a device and ensures an
// overlay row exists for the pair. A repeat purchase on a locally cancelled
// subscription reactivates it.
func (s *Service) Purchase(ctx context.Context, subscriber, device common.Address, value *big.Int) (common.Hash, error) {
	txHash, err := s.client.PurchaseAccess(ctx, subscriber, device, value)
	if err != nil {
		return common.Hash{}, err
	}

	overlay, err := s.overlays.Get(ctx, subscriber, device)
	if err != nil {
		// The payment is already on chain; overlay bookkeeping catches up
		// on the next write.
		s.logger.Warn("purchase accepted but overlay read failed",
			"subscriber", subscriber.Hex(),
			"device", device.Hex(),
			"error", err)
		return txHash, nil
	}
	overlay.Cancelled = false
	if err := s.overlays.Upsert(ctx, overlay); err != nil {
		s.logger.Warn("purchase accepted but overlay write failed",
			"subscriber", subscriber.Hex(),
			"device", device.Hex(),
			"error", err)
	}

	s.logger.Info("access purchased",
		"subscriber", subscriber.Hex(),
		"device", device.Hex(),
		"tx", txHash.Hex())
	return txHash, nil
}

// View builds the subscription view for one subscriber/device pair.
// Returns ErrNoSubscription if access was never purchased.
func (s *Service) View(ctx context.Context, subscriber, device common.Address) (View, error) {
	expiry, err := s.client.AccessExpiry(ctx, subscriber, device)
	if err != nil {
		return View{}, fmt.Errorf("reading access expiry: %w", err)
	}
	if expiry.IsZero() {
		return View{}, fmt.Errorf("%w: %s on %s", ErrNoSubscription, subscriber.Hex(), device.Hex())
	}

	totalPaid, err := s.client.TotalPaid(ctx, subscriber, device)
	if err != nil {
		return View{}, fmt.Errorf("reading total paid: %w", err)
	}

	record, err := s.client.Device(ctx, device)
	if err != nil {
		return View{}, fmt.Errorf("reading device record: %w", err)
	}

	overlay, err := s.overlays.Get(ctx, subscriber, device)
	if err != nil {
		return View{}, err
	}

	now := s.now()
	return View{
		Subscriber:         subscriber,
		Device:             device,
		DeviceName:         record.Name,
		DeviceType:         string(record.DeviceType),
		Status:             DeriveStatus(now, expiry),
		Expiry:             expiry,
		DaysRemaining:      DaysRemaining(now, expiry),
		AutoRenewal:        overlay.AutoRenewal,
		DataPointsConsumed: overlay.DataPointsConsumed,
		PricePerDataPoint:  record.PricePerDataPoint,
		TotalPaid:          totalPaid,
		RemainingBalance:   RemainingBalance(totalPaid, record.PricePerDataPoint, overlay.DataPointsConsumed),
		Cancelled:          overlay.Cancelled,
	}, nil
}

// Views builds the locally visible subscription list for one subscriber.
// Cancelled overlays are excluded, and pairs whose authoritative state
// cannot be read are skipped rather than failing the whole list.
func (s *Service) Views(ctx context.Context, subscriber common.Address) ([]View, error) {
	overlays, err := s.overlays.ListBySubscriber(ctx, subscriber)
	if err != nil {
		return nil, err
	}

	views := make([]View, 0, len(overlays))
	for _, overlay := range overlays {
		if overlay.Cancelled {
			continue
		}
		view, err := s.View(ctx, subscriber, overlay.Device)
		if err != nil {
			s.logger.Warn("skipping subscription that failed to resolve",
				"subscriber", subscriber.Hex(),
				"device", overlay.Device.Hex(),
				"error", err)
			continue
		}
		views = append(views, view)
	}
	return views, nil
}

// SetAutoRenewal toggles the local auto-renewal preference. The flag is
// read by an external renewal process at expiry time; toggling it never
// performs a purchase.
func (s *Service) SetAutoRenewal(ctx context.Context, subscriber, device common.Address, enabled bool) error {
	overlay, err := s.overlays.Get(ctx, subscriber, device)
	if err != nil {
		return err
	}
	overlay.AutoRenewal = enabled
	return s.overlays.Upsert(ctx, overlay)
}

// RecordConsumption adds delivered data points to the local bookkeeping.
func (s *Service) RecordConsumption(ctx context.Context, subscriber, device common.Address, points int64) error {
	if points <= 0 {
		return nil
	}
	overlay, err := s.overlays.Get(ctx, subscriber, device)
	if err != nil {
		return err
	}
	overlay.DataPointsConsumed += points
	return s.overlays.Upsert(ctx, overlay)
}

// Cancel removes the subscription from the locally visible active set and
// returns the refund for unused data points: the remaining balance at
// cancellation time, floored at zero.
//
// The on-chain grant keeps its expiry; cancellation is a local presentation
// concept and does not erase payment history.
func (s *Service) Cancel(ctx context.Context, subscriber, device common.Address) (*big.Int, error) {
	view, err := s.View(ctx, subscriber, device)
	if err != nil {
		return nil, err
	}
	if view.Cancelled {
		return nil, fmt.Errorf("%w: %s on %s", ErrCancelled, subscriber.Hex(), device.Hex())
	}

	refund := view.RemainingBalance

	overlay, err := s.overlays.Get(ctx, subscriber, device)
	if err != nil {
		return nil, err
	}
	overlay.Cancelled = true
	if err := s.overlays.Upsert(ctx, overlay); err != nil {
		return nil, err
	}

	s.logger.Info("subscription cancelled locally",
		"subscriber", subscriber.Hex(),
		"device", device.Hex(),
		"refund", refund.String())
	return refund, nil
}
