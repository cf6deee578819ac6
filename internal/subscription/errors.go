package subscription

import "errors"

var (
	// ErrNoSubscription is returned when the subscriber never purchased
	// access to the device.
	ErrNoSubscription = errors.New("subscription: no access grant")

	// ErrCancelled is returned when an operation targets a locally
	// cancelled subscription.
	ErrCancelled = errors.New("subscription: cancelled")
)
