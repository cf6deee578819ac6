package registry

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Backend is the subset of the chain transport used by ContractClient.
// *ethclient.Client satisfies it; tests supply a fake.
type Backend interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	ChainID(ctx context.Context) (*big.Int, error)
}

// contractDevice mirrors the getDevice tuple layout for ABI decoding.
type contractDevice struct {
	Owner                common.Address
	Name                 string
	DeviceType           string
	Location             string
	PricePerDataPoint    *big.Int
	SubscriptionDuration *big.Int
	MetadataURI          string
	IsActive             bool
	RegisteredAt         *big.Int
}

// ContractClient implements Client against the on-chain DeviceRegistry
// contract. Reads go through eth_call; writes are signed locally with the
// configured key and submitted as legacy transactions.
type ContractClient struct {
	backend    Backend
	contract   common.Address
	key        *ecdsa.PrivateKey
	signerAddr common.Address
	parsed     abi.ABI
}

// NewContractClient creates a client bound to one registry contract.
// The signer key is optional: a nil key produces a read-only client whose
// write operations fail with ErrSignerUnset.
func NewContractClient(backend Backend, contract common.Address, key *ecdsa.PrivateKey) (*ContractClient, error) {
	if contract == (common.Address{}) {
		return nil, fmt.Errorf("%w: contract address is required", ErrInvalidAddress)
	}
	parsed, err := registryABI()
	if err != nil {
		return nil, fmt.Errorf("parsing registry ABI: %w", err)
	}

	c := &ContractClient{
		backend:  backend,
		contract: contract,
		key:      key,
		parsed:   parsed,
	}
	if key != nil {
		c.signerAddr = crypto.PubkeyToAddress(key.PublicKey)
	}
	return c, nil
}

// call performs an eth_call against the registry contract and returns the
// raw return data.
func (c *ContractClient) call(ctx context.Context, method string, args ...interface{}) ([]byte, error) {
	data, err := c.parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("packing %s: %w", method, err)
	}

	out, err := c.backend.CallContract(ctx, ethereum.CallMsg{
		To:   &c.contract,
		Data: data,
	}, nil)
	if err != nil {
		return nil, classifyBackendError(method, err)
	}
	return out, nil
}

// classifyBackendError maps a transport error onto the package sentinels.
// Reverts surface from eth nodes as error strings; anything else is treated
// as a network fault.
func classifyBackendError(method string, err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "execution reverted"):
		return fmt.Errorf("%w: %s: %s", ErrReverted, method, err.Error())
	case strings.Contains(msg, "insufficient funds"):
		return fmt.Errorf("%w: %s: %s", ErrInsufficientFunds, method, err.Error())
	default:
		return fmt.Errorf("%w: %s: %s", ErrNetwork, method, err.Error())
	}
}

// AllDeviceAddresses returns every registered device address.
func (c *ContractClient) AllDeviceAddresses(ctx context.Context) ([]common.Address, error) {
	out, err := c.call(ctx, "getAllDevices")
	if err != nil {
		return nil, err
	}
	return c.unpackAddresses("getAllDevices", out)
}

// DevicesByOwner returns the addresses registered by one owner.
func (c *ContractClient) DevicesByOwner(ctx context.Context, owner common.Address) ([]common.Address, error) {
	out, err := c.call(ctx, "getDevicesByOwner", owner)
	if err != nil {
		return nil, err
	}
	return c.unpackAddresses("getDevicesByOwner", out)
}

func (c *ContractClient) unpackAddresses(method string, data []byte) ([]common.Address, error) {
	results, err := c.parsed.Unpack(method, data)
	if err != nil {
		return nil, fmt.Errorf("unpacking %s: %w", method, err)
	}
	addrs := *abi.ConvertType(results[0], new([]common.Address)).(*[]common.Address)
	return addrs, nil
}

// Device returns the record for one address. An unregistered address makes
// the contract revert, which maps to ErrNotFound.
func (c *ContractClient) Device(ctx context.Context, address common.Address) (DeviceRecord, error) {
	out, err := c.call(ctx, "getDevice", address)
	if err != nil {
		if strings.Contains(err.Error(), "execution reverted") {
			return DeviceRecord{}, fmt.Errorf("%w: %s", ErrNotFound, address.Hex())
		}
		return DeviceRecord{}, err
	}

	results, err := c.parsed.Unpack("getDevice", out)
	if err != nil {
		return DeviceRecord{}, fmt.Errorf("unpacking getDevice: %w", err)
	}
	raw := *abi.ConvertType(results[0], new(contractDevice)).(*contractDevice)

	// An all-zero tuple also means "never registered" on contracts that
	// return defaults instead of reverting.
	if raw.Owner == (common.Address{}) {
		return DeviceRecord{}, fmt.Errorf("%w: %s", ErrNotFound, address.Hex())
	}

	return DeviceRecord{
		Address:              address,
		Owner:                raw.Owner,
		Name:                 raw.Name,
		DeviceType:           DeviceType(raw.DeviceType),
		Location:             raw.Location,
		PricePerDataPoint:    raw.PricePerDataPoint,
		SubscriptionDuration: time.Duration(raw.SubscriptionDuration.Int64()) * time.Second,
		MetadataURI:          raw.MetadataURI,
		Active:               raw.IsActive,
		RegisteredAt:         time.Unix(raw.RegisteredAt.Int64(), 0).UTC(),
	}, nil
}

// Register creates a new device record owned by the caller.
func (c *ContractClient) Register(ctx context.Context, caller common.Address, params RegisterParams) (common.Hash, error) {
	if err := params.Validate(); err != nil {
		return common.Hash{}, err
	}
	return c.transact(ctx, caller, nil, "registerDevice",
		params.DeviceAddress,
		params.Name,
		string(params.DeviceType),
		params.Location,
		params.PricePerDataPoint,
		big.NewInt(int64(params.SubscriptionDuration/time.Second)),
		params.MetadataURI,
	)
}

// Update rewrites the mutable fields of an existing record. Ownership is
// enforced by the contract; a revert maps to ErrReverted.
func (c *ContractClient) Update(ctx context.Context, caller common.Address, params RegisterParams) (common.Hash, error) {
	if err := params.Validate(); err != nil {
		return common.Hash{}, err
	}
	return c.transact(ctx, caller, nil, "updateDevice",
		params.DeviceAddress,
		params.Name,
		string(params.DeviceType),
		params.Location,
		params.PricePerDataPoint,
		big.NewInt(int64(params.SubscriptionDuration/time.Second)),
		params.MetadataURI,
	)
}

// SetActive toggles the device's active flag.
func (c *ContractClient) SetActive(ctx context.Context, caller common.Address, address common.Address, active bool) (common.Hash, error) {
	return c.transact(ctx, caller, nil, "setDeviceActive", address, active)
}

// PurchaseAccess pays for one subscription period on a device.
func (c *ContractClient) PurchaseAccess(ctx context.Context, caller common.Address, address common.Address, value *big.Int) (common.Hash, error) {
	if value == nil || value.Sign() <= 0 {
		return common.Hash{}, fmt.Errorf("%w: payment value must be positive", ErrInvalidParams)
	}
	return c.transact(ctx, caller, value, "purchaseAccess", address)
}

// AccessExpiry returns the subscriber's access expiry for a device.
// The chain stores expiry as integer seconds; zero means never purchased
// and is returned as the zero time.
func (c *ContractClient) AccessExpiry(ctx context.Context, subscriber, address common.Address) (time.Time, error) {
	out, err := c.call(ctx, "getAccessExpiry", subscriber, address)
	if err != nil {
		return time.Time{}, err
	}
	results, err := c.parsed.Unpack("getAccessExpiry", out)
	if err != nil {
		return time.Time{}, fmt.Errorf("unpacking getAccessExpiry: %w", err)
	}
	expiry := *abi.ConvertType(results[0], new(*big.Int)).(**big.Int)
	if expiry.Sign() == 0 {
		return time.Time{}, nil
	}
	return time.Unix(expiry.Int64(), 0).UTC(), nil
}

// TotalPaid returns the cumulative base-unit amount paid by the subscriber.
func (c *ContractClient) TotalPaid(ctx context.Context, subscriber, address common.Address) (*big.Int, error) {
	out, err := c.call(ctx, "totalPaid", subscriber, address)
	if err != nil {
		return nil, err
	}
	results, err := c.parsed.Unpack("totalPaid", out)
	if err != nil {
		return nil, fmt.Errorf("unpacking totalPaid: %w", err)
	}
	paid := *abi.ConvertType(results[0], new(*big.Int)).(**big.Int)
	return paid, nil
}

// Exists reports whether an address has a device record.
func (c *ContractClient) Exists(ctx context.Context, address common.Address) (bool, error) {
	out, err := c.call(ctx, "deviceExists", address)
	if err != nil {
		return false, err
	}
	results, err := c.parsed.Unpack("deviceExists", out)
	if err != nil {
		return false, fmt.Errorf("unpacking deviceExists: %w", err)
	}
	exists := *abi.ConvertType(results[0], new(bool)).(*bool)
	return exists, nil
}

// transact builds, signs, and submits a contract write as a legacy
// transaction. The caller must match the configured signing key.
func (c *ContractClient) transact(ctx context.Context, caller common.Address, value *big.Int, method string, args ...interface{}) (common.Hash, error) {
	if c.key == nil {
		return common.Hash{}, ErrSignerUnset
	}
	if caller != c.signerAddr {
		return common.Hash{}, fmt.Errorf("%w: caller %s, signer %s",
			ErrSignerMismatch, caller.Hex(), c.signerAddr.Hex())
	}

	data, err := c.parsed.Pack(method, args...)
	if err != nil {
		return common.Hash{}, fmt.Errorf("packing %s: %w", method, err)
	}

	nonce, err := c.backend.PendingNonceAt(ctx, c.signerAddr)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: fetching nonce: %s", ErrNetwork, err.Error())
	}
	gasPrice, err := c.backend.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: fetching gas price: %s", ErrNetwork, err.Error())
	}

	msg := ethereum.CallMsg{
		From:     c.signerAddr,
		To:       &c.contract,
		Value:    value,
		Data:     data,
		GasPrice: gasPrice,
	}
	gasLimit, err := c.backend.EstimateGas(ctx, msg)
	if err != nil {
		low := strings.ToLower(err.Error())
		switch {
		case strings.Contains(low, "insufficient funds"):
			return common.Hash{}, fmt.Errorf("%w: %s", ErrInsufficientFunds, err.Error())
		case strings.Contains(low, "execution reverted"):
			return common.Hash{}, fmt.Errorf("%w: %s: %s", ErrReverted, method, err.Error())
		default:
			return common.Hash{}, fmt.Errorf("%w: %s: %s", ErrGasEstimation, method, err.Error())
		}
	}

	chainID, err := c.backend.ChainID(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: fetching chain id: %s", ErrNetwork, err.Error())
	}

	tx := types.NewTransaction(nonce, c.contract, value, gasLimit, gasPrice, data)
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), c.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("signing %s: %w", method, err)
	}

	if err := c.backend.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, classifyBackendError(method, err)
	}
	return signed.Hash(), nil
}
