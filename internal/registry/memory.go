package registry

import (
	"context"
	"encoding/binary"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// grantKey identifies one subscriber's access to one device.
type grantKey struct {
	subscriber common.Address
	device     common.Address
}

// memoryGrant holds the authoritative access state for one grant key.
type memoryGrant struct {
	expiry    time.Time
	totalPaid *big.Int
}

// MemoryClient is an in-process implementation of Client for dev mode and
// tests. It enforces the same rules the contract does: owner checks on
// mutations, price adequacy on purchase, and monotonic expiry extension.
type MemoryClient struct {
	mu sync.Mutex

	devices    map[common.Address]*DeviceRecord
	order      []common.Address
	ownerOrder map[common.Address][]common.Address
	grants     map[grantKey]*memoryGrant

	txCounter uint64

	// now is injectable for deterministic tests.
	now func() time.Time
}

// NewMemoryClient creates an empty in-memory registry.
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{
		devices:    make(map[common.Address]*DeviceRecord),
		ownerOrder: make(map[common.Address][]common.Address),
		grants:     make(map[grantKey]*memoryGrant),
		now:        time.Now,
	}
}

// SetClock overrides the time source. Intended for tests.
func (m *MemoryClient) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// AllDeviceAddresses returns every registered address in registration order.
func (m *MemoryClient) AllDeviceAddresses(_ context.Context) ([]common.Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]common.Address, len(m.order))
	copy(out, m.order)
	return out, nil
}

// DevicesByOwner returns the owner's addresses in registration order.
func (m *MemoryClient) DevicesByOwner(_ context.Context, owner common.Address) ([]common.Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	addrs := m.ownerOrder[owner]
	out := make([]common.Address, len(addrs))
	copy(out, addrs)
	return out, nil
}

// Device returns the record for one address.
func (m *MemoryClient) Device(_ context.Context, address common.Address) (DeviceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.devices[address]
	if !ok {
		return DeviceRecord{}, fmt.Errorf("%w: %s", ErrNotFound, address.Hex())
	}
	return rec.Copy(), nil
}

// Register creates a new device record owned by caller.
func (m *MemoryClient) Register(_ context.Context, caller common.Address, params RegisterParams) (common.Hash, error) {
	if err := params.Validate(); err != nil {
		return common.Hash{}, err
	}
	if caller == (common.Address{}) {
		return common.Hash{}, fmt.Errorf("%w: caller is required", ErrInvalidAddress)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.devices[params.DeviceAddress]; ok {
		return common.Hash{}, fmt.Errorf("%w: %s", ErrAlreadyRegistered, params.DeviceAddress.Hex())
	}

	rec := &DeviceRecord{
		Address:              params.DeviceAddress,
		Owner:                caller,
		Name:                 params.Name,
		DeviceType:           params.DeviceType,
		Location:             params.Location,
		PricePerDataPoint:    new(big.Int).Set(params.PricePerDataPoint),
		SubscriptionDuration: params.SubscriptionDuration,
		MetadataURI:          params.MetadataURI,
		Active:               true,
		RegisteredAt:         m.now().UTC(),
	}
	m.devices[params.DeviceAddress] = rec
	m.order = append(m.order, params.DeviceAddress)
	m.ownerOrder[caller] = append(m.ownerOrder[caller], params.DeviceAddress)

	return m.nextTxHash(params.DeviceAddress), nil
}

// Update rewrites the mutable fields of an existing record. Owner and
// registration timestamp are immutable.
func (m *MemoryClient) Update(_ context.Context, caller common.Address, params RegisterParams) (common.Hash, error) {
	if err := params.Validate(); err != nil {
		return common.Hash{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.devices[params.DeviceAddress]
	if !ok {
		return common.Hash{}, fmt.Errorf("%w: %s", ErrNotFound, params.DeviceAddress.Hex())
	}
	if rec.Owner != caller {
		return common.Hash{}, fmt.Errorf("%w: %s", ErrUnauthorized, caller.Hex())
	}

	rec.Name = params.Name
	rec.DeviceType = params.DeviceType
	rec.Location = params.Location
	rec.PricePerDataPoint = new(big.Int).Set(params.PricePerDataPoint)
	rec.SubscriptionDuration = params.SubscriptionDuration
	rec.MetadataURI = params.MetadataURI

	return m.nextTxHash(params.DeviceAddress), nil
}

// SetActive toggles the device's active flag.
func (m *MemoryClient) SetActive(_ context.Context, caller common.Address, address common.Address, active bool) (common.Hash, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.devices[address]
	if !ok {
		return common.Hash{}, fmt.Errorf("%w: %s", ErrNotFound, address.Hex())
	}
	if rec.Owner != caller {
		return common.Hash{}, fmt.Errorf("%w: %s", ErrUnauthorized, caller.Hex())
	}

	rec.Active = active
	return m.nextTxHash(address), nil
}

// PurchaseAccess pays for one subscription period. The payment must cover
// the device's price per data point. Expiry extends from the later of now
// and the current expiry, so back-to-back purchases stack.
func (m *MemoryClient) PurchaseAccess(_ context.Context, caller common.Address, address common.Address, value *big.Int) (common.Hash, error) {
	if caller == (common.Address{}) {
		return common.Hash{}, fmt.Errorf("%w: caller is required", ErrInvalidAddress)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.devices[address]
	if !ok {
		return common.Hash{}, fmt.Errorf("%w: %s", ErrNotFound, address.Hex())
	}
	if !rec.Active {
		return common.Hash{}, fmt.Errorf("%w: device %s is inactive", ErrReverted, address.Hex())
	}
	if value == nil || value.Cmp(rec.PricePerDataPoint) < 0 {
		return common.Hash{}, fmt.Errorf("%w: payment below price per data point", ErrInsufficientFunds)
	}

	key := grantKey{subscriber: caller, device: address}
	g, ok := m.grants[key]
	if !ok {
		g = &memoryGrant{totalPaid: big.NewInt(0)}
		m.grants[key] = g
	}

	base := m.now().UTC()
	if g.expiry.After(base) {
		base = g.expiry
	}
	g.expiry = base.Add(rec.SubscriptionDuration)
	g.totalPaid.Add(g.totalPaid, value)

	return m.nextTxHash(address), nil
}

// AccessExpiry returns the subscriber's expiry, or the zero time if access
// was never purchased.
func (m *MemoryClient) AccessExpiry(_ context.Context, subscriber, address common.Address) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.grants[grantKey{subscriber: subscriber, device: address}]
	if !ok {
		return time.Time{}, nil
	}
	return g.expiry, nil
}

// TotalPaid returns the cumulative amount paid by the subscriber.
func (m *MemoryClient) TotalPaid(_ context.Context, subscriber, address common.Address) (*big.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.grants[grantKey{subscriber: subscriber, device: address}]
	if !ok {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(g.totalPaid), nil
}

// Exists reports whether an address has a device record.
func (m *MemoryClient) Exists(_ context.Context, address common.Address) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.devices[address]
	return ok, nil
}

// nextTxHash fabricates a unique transaction hash for an accepted write.
// Callers must hold m.mu.
func (m *MemoryClient) nextTxHash(address common.Address) common.Hash {
	m.txCounter++
	var counter [8]byte
	binary.BigEndian.PutUint64(counter[:], m.txCounter)
	return crypto.Keccak256Hash(address.Bytes(), counter[:])
}
