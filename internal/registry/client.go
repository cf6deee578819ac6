package registry

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Client is the read/write surface of the authoritative device registry.
//
// All monetary values cross this boundary as *big.Int base units; all
// timestamps cross as time.Time converted from integer chain seconds at this
// boundary and nowhere else. Implementations: ContractClient (on-chain via an
// RPC backend) and MemoryClient (in-process, for dev mode and tests).
type Client interface {
	// AllDeviceAddresses returns every registered device address in
	// registration order. No pagination guarantee beyond what the backing
	// store provides.
	AllDeviceAddresses(ctx context.Context) ([]common.Address, error)

	// DevicesByOwner returns the addresses registered by one owner,
	// in registration order.
	DevicesByOwner(ctx context.Context, owner common.Address) ([]common.Address, error)

	// Device returns the record for one address.
	// Returns ErrNotFound if the address was never registered.
	Device(ctx context.Context, address common.Address) (DeviceRecord, error)

	// Register creates a new device record owned by caller.
	// Returns ErrAlreadyRegistered if the address is taken.
	Register(ctx context.Context, caller common.Address, params RegisterParams) (common.Hash, error)

	// Update rewrites the mutable fields of an existing record.
	// Returns ErrUnauthorized if caller is not the stored owner.
	Update(ctx context.Context, caller common.Address, params RegisterParams) (common.Hash, error)

	// SetActive toggles the device's active flag (soft delete / restore).
	// Returns ErrUnauthorized if caller is not the stored owner.
	SetActive(ctx context.Context, caller common.Address, address common.Address, active bool) (common.Hash, error)

	// PurchaseAccess pays for one subscription period on a device. The
	// payment value is in base units. Returns ErrInsufficientFunds if the
	// value does not cover the device's price.
	PurchaseAccess(ctx context.Context, caller common.Address, address common.Address, value *big.Int) (common.Hash, error)

	// AccessExpiry returns the subscriber's access expiry for a device.
	// The zero time means access was never purchased.
	AccessExpiry(ctx context.Context, subscriber, address common.Address) (time.Time, error)

	// TotalPaid returns the cumulative base-unit amount the subscriber has
	// paid for access to a device.
	TotalPaid(ctx context.Context, subscriber, address common.Address) (*big.Int, error)

	// Exists reports whether an address has a device record.
	Exists(ctx context.Context, address common.Address) (bool, error)
}
