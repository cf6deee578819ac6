package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/somniastreams/marketcore/internal/infrastructure/database"
)

// SQLiteHintStore implements HintStore on the local SQLite database.
// Addresses are stored as lowercase hex so scope and membership lookups are
// case-insensitive.
type SQLiteHintStore struct {
	db *database.DB
}

// NewSQLiteHintStore creates a hint store backed by the given database.
// The discovery_hints table must exist (created by migrations).
func NewSQLiteHintStore(db *database.DB) *SQLiteHintStore {
	return &SQLiteHintStore{db: db}
}

// Add inserts a hint into a scope. Inserting an address already present in
// the scope is a no-op; the UNIQUE constraint enforces set semantics
// atomically, so concurrent adds of the same address are safe.
func (s *SQLiteHintStore) Add(ctx context.Context, scope string, hint Hint) error {
	if scope == "" {
		return ErrInvalidScope
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO discovery_hints (scope, device_address, owner_address, created_at)
		VALUES (?, ?, ?, ?)
	`,
		scope,
		strings.ToLower(hint.DeviceAddress.Hex()),
		strings.ToLower(hint.OwnerAddress.Hex()),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting discovery hint: %w", err)
	}
	return nil
}

// List returns up to limit hints from a scope in insertion order.
// An absent scope yields an empty slice. A non-positive limit means no cap.
func (s *SQLiteHintStore) List(ctx context.Context, scope string, limit int) ([]Hint, error) {
	if scope == "" {
		return nil, ErrInvalidScope
	}
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT device_address, owner_address
		FROM discovery_hints
		WHERE scope = ?
		ORDER BY id
		LIMIT ?
	`, scope, limit)
	if err != nil {
		return nil, fmt.Errorf("querying discovery hints: %w", err)
	}
	defer rows.Close()

	var hints []Hint
	for rows.Next() {
		var device, owner string
		if err := rows.Scan(&device, &owner); err != nil {
			return nil, fmt.Errorf("scanning discovery hint: %w", err)
		}
		hints = append(hints, Hint{
			DeviceAddress: common.HexToAddress(device),
			OwnerAddress:  common.HexToAddress(owner),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating discovery hints: %w", err)
	}
	return hints, nil
}

// Count returns the number of hints in a scope.
func (s *SQLiteHintStore) Count(ctx context.Context, scope string) (int, error) {
	if scope == "" {
		return 0, ErrInvalidScope
	}

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM discovery_hints WHERE scope = ?",
		scope,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting discovery hints: %w", err)
	}
	return count, nil
}
