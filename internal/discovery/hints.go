package discovery

import (
	"context"
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// MarketplaceScope is the scope key for the global marketplace hint list.
const MarketplaceScope = "marketplace"

// ErrInvalidScope is returned when a scope key is empty.
var ErrInvalidScope = errors.New("discovery: invalid scope")

// HintStore is the persistence port for discovery hints: an ordered,
// owner-scoped set of candidate device addresses.
//
// Add is idempotent (set semantics over an ordered backing store).
// List returns hints in insertion order; an absent scope yields an empty
// list, never an error.
type HintStore interface {
	Add(ctx context.Context, scope string, hint Hint) error
	List(ctx context.Context, scope string, limit int) ([]Hint, error)
	Count(ctx context.Context, scope string) (int, error)
}

// OwnerScope derives the scope key for one owner's hint list.
func OwnerScope(owner common.Address) string {
	return "owner:" + strings.ToLower(owner.Hex())
}
