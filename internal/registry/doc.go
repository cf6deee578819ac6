// Package registry provides read/write access to the authoritative on-chain
// device registry: device records, ownership, pricing, and time-bounded
// subscriber access grants.
//
// # Implementations
//
// ContractClient talks to the DeviceRegistry contract through a chain RPC
// backend (ethclient). MemoryClient keeps the same authoritative rules in
// process for development mode and tests: owner checks on mutations, price
// adequacy on purchase, and monotonic expiry extension.
//
// # Unit Boundaries
//
// Monetary values are *big.Int base units everywhere inside this package and
// its callers; FormatBaseUnits and ParseDecimalUnits convert exactly at the
// presentation boundary (10^18, no floating point). Chain timestamps arrive
// as integer seconds and leave this package as time.Time.
//
// # Errors
//
// Operations return sentinel errors (ErrNotFound, ErrUnauthorized,
// ErrInsufficientFunds, ...) wrapped with context. Check them with
// errors.Is; the apperr package maps them onto the user-facing taxonomy.
package registry
