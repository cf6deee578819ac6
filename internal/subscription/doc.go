// Package subscription derives presentation-level subscription state from
// authoritative on-chain access grants plus a locally persisted overlay.
//
// Status and days-remaining are pure functions of the grant's expiry and
// the current instant, recomputed on every read so they cannot drift from
// chain state. The boundary is exclusive: a subscription expiring exactly
// now is expired.
//
// The overlay holds what the chain does not yet record: the auto-renewal
// preference, consumption bookkeeping, and local cancellation. Overlay
// mutations never call the chain. Cancellation in particular only hides the
// subscription locally and computes a refund projection; the underlying
// grant keeps its expiry and payment history.
package subscription
