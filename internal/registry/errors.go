package registry

import "errors"

// Domain errors for the registry package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, registry.ErrNotFound) {
//	    // handle unregistered address
//	}
var (
	// ErrNotFound is returned when a device address was never registered.
	ErrNotFound = errors.New("registry: device not found")

	// ErrAlreadyRegistered is returned when registering an address that
	// already has a device record.
	ErrAlreadyRegistered = errors.New("registry: device already registered")

	// ErrUnauthorized is returned when the caller is not the stored owner.
	ErrUnauthorized = errors.New("registry: caller is not the device owner")

	// ErrInsufficientFunds is returned when a purchase payment does not
	// cover the device's price per data point.
	ErrInsufficientFunds = errors.New("registry: insufficient funds")

	// ErrReverted is returned when the contract rejects an operation.
	ErrReverted = errors.New("registry: execution reverted")

	// ErrGasEstimation is returned when gas estimation for a write fails.
	ErrGasEstimation = errors.New("registry: gas estimation failed")

	// ErrNetwork is returned when the chain transport fails.
	ErrNetwork = errors.New("registry: network error")

	// ErrSignerUnset is returned when a write is attempted without a
	// configured signing key.
	ErrSignerUnset = errors.New("registry: signer key not configured")

	// ErrSignerMismatch is returned when the caller address does not match
	// the configured signing key.
	ErrSignerMismatch = errors.New("registry: caller does not match signer")

	// ErrWalletRejected is returned when the signer refuses a transaction.
	ErrWalletRejected = errors.New("registry: transaction rejected by signer")

	// ErrWalletPending is returned when a signer request is already in flight.
	ErrWalletPending = errors.New("registry: signer request already pending")

	// ErrInvalidAddress is returned when an address parameter is the zero address.
	ErrInvalidAddress = errors.New("registry: invalid address")

	// ErrInvalidParams is returned when registration parameters fail validation.
	ErrInvalidParams = errors.New("registry: invalid parameters")
)
