package apperr

import "fmt"

// Kind is the closed error taxonomy. Every failure surfaced to a caller is
// assigned exactly one kind by Classify.
type Kind string

// Error kinds.
const (
	KindNetwork    Kind = "NETWORK_ERROR"
	KindWallet     Kind = "WALLET_ERROR"
	KindValidation Kind = "VALIDATION_ERROR"
	KindBlockchain Kind = "BLOCKCHAIN_ERROR"
	KindUnknown    Kind = "UNKNOWN_ERROR"
)

// AppError is a classified failure with a user-facing message.
type AppError struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Code    string `json:"code,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

// Title returns a short user-facing heading for the error kind.
func (e *AppError) Title() string {
	switch e.Kind {
	case KindNetwork:
		return "Network Error"
	case KindWallet:
		return "Wallet Error"
	case KindValidation:
		return "Validation Error"
	case KindBlockchain:
		return "Transaction Error"
	default:
		return "Error"
	}
}

// NewValidationError creates a validation-kind error that passes through
// Classify unchanged.
func NewValidationError(message, details string) *AppError {
	return &AppError{
		Kind:    KindValidation,
		Message: message,
		Details: details,
	}
}

// IsRecoverable reports whether the user may simply retry the operation.
// Network faults and unknown faults are retryable; everything else needs
// caller or user correction first.
func IsRecoverable(e *AppError) bool {
	if e == nil {
		return false
	}
	return e.Kind == KindNetwork || e.Kind == KindUnknown
}

// IsUserActionError reports whether the failure was user-initiated (a
// wallet rejection). These are presented softly rather than as faults.
func IsUserActionError(e *AppError) bool {
	if e == nil || e.Kind != KindWallet {
		return false
	}
	return containsAny(e.Message, "rejected", "denied") ||
		containsAny(e.Details, "rejected", "denied")
}
