package subscription

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/somniastreams/marketcore/internal/infrastructure/database"
)

// OverlayRepository is the persistence port for subscription overlays.
//
// Get returns a default overlay (all flags false, zero consumption) when no
// row exists; absence is not an error.
type OverlayRepository interface {
	Get(ctx context.Context, subscriber, device common.Address) (Overlay, error)
	Upsert(ctx context.Context, overlay Overlay) error
	ListBySubscriber(ctx context.Context, subscriber common.Address) ([]Overlay, error)
}

// SQLiteOverlayRepository implements OverlayRepository on the local SQLite
// database. Addresses are stored as lowercase hex.
type SQLiteOverlayRepository struct {
	db *database.DB
}

// NewSQLiteOverlayRepository creates a repository backed by the given
// database. The subscription_overlays table must exist.
func NewSQLiteOverlayRepository(db *database.DB) *SQLiteOverlayRepository {
	return &SQLiteOverlayRepository{db: db}
}

// Get returns the overlay for one subscriber/device pair, or a default
// overlay when none has been written yet.
func (r *SQLiteOverlayRepository) Get(ctx context.Context, subscriber, device common.Address) (Overlay, error) {
	overlay := Overlay{Subscriber: subscriber, Device: device}

	var updatedAt string
	err := r.db.QueryRowContext(ctx, `
		SELECT auto_renewal, data_points_consumed, cancelled, updated_at
		FROM subscription_overlays
		WHERE subscriber_address = ? AND device_address = ?
	`,
		strings.ToLower(subscriber.Hex()),
		strings.ToLower(device.Hex()),
	).Scan(&overlay.AutoRenewal, &overlay.DataPointsConsumed, &overlay.Cancelled, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return overlay, nil
	}
	if err != nil {
		return Overlay{}, fmt.Errorf("querying subscription overlay: %w", err)
	}

	overlay.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // Format is controlled
	return overlay, nil
}

// Upsert writes the overlay, replacing any existing row for the pair.
func (r *SQLiteOverlayRepository) Upsert(ctx context.Context, overlay Overlay) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO subscription_overlays
			(subscriber_address, device_address, auto_renewal, data_points_consumed, cancelled, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (subscriber_address, device_address) DO UPDATE SET
			auto_renewal = excluded.auto_renewal,
			data_points_consumed = excluded.data_points_consumed,
			cancelled = excluded.cancelled,
			updated_at = excluded.updated_at
	`,
		strings.ToLower(overlay.Subscriber.Hex()),
		strings.ToLower(overlay.Device.Hex()),
		overlay.AutoRenewal,
		overlay.DataPointsConsumed,
		overlay.Cancelled,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting subscription overlay: %w", err)
	}
	return nil
}

// ListBySubscriber returns all overlay rows for one subscriber in insertion
// order.
func (r *SQLiteOverlayRepository) ListBySubscriber(ctx context.Context, subscriber common.Address) ([]Overlay, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT device_address, auto_renewal, data_points_consumed, cancelled, updated_at
		FROM subscription_overlays
		WHERE subscriber_address = ?
		ORDER BY rowid
	`, strings.ToLower(subscriber.Hex()))
	if err != nil {
		return nil, fmt.Errorf("listing subscription overlays: %w", err)
	}
	defer rows.Close()

	var overlays []Overlay
	for rows.Next() {
		overlay := Overlay{Subscriber: subscriber}
		var device, updatedAt string
		if err := rows.Scan(&device, &overlay.AutoRenewal, &overlay.DataPointsConsumed, &overlay.Cancelled, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning subscription overlay: %w", err)
		}
		overlay.Device = common.HexToAddress(device)
		overlay.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // Format is controlled
		overlays = append(overlays, overlay)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating subscription overlays: %w", err)
	}
	return overlays, nil
}
