package apperr

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/somniastreams/marketcore/internal/registry"
)

// Coder is implemented by upstream errors that carry a provider error code
// (JSON-RPC codes, ethers-style string codes). Codes are matched before
// message substrings.
type Coder interface {
	ErrorCode() string
}

// Classify normalises any failure into an AppError with exactly one kind.
//
// Matching is priority ordered and deterministic:
//  1. An *AppError input passes through unchanged.
//  2. Typed faults: package sentinels and net/context timeouts, checked
//     with errors.Is/As.
//  3. Provider error codes, in fixed order: NETWORK_ERROR, 4001, -32002,
//     INSUFFICIENT_FUNDS, CALL_EXCEPTION, UNPREDICTABLE_GAS_LIMIT, TIMEOUT.
//  4. Message substrings as a last resort for opaque upstream errors, in
//     fixed order: network/fetch, rejected/denied, already processing,
//     insufficient funds, execution reverted, gas, timeout.
//
// First match wins at every stage, so an error carrying both a rejection
// code and a "network" substring classifies as a wallet rejection.
func Classify(err error) *AppError {
	if err == nil {
		return nil
	}

	var app *AppError
	if errors.As(err, &app) {
		return app
	}

	if app := classifyTyped(err); app != nil {
		return app
	}

	var coder Coder
	if errors.As(err, &coder) {
		if app := classifyCode(coder.ErrorCode(), err); app != nil {
			return app
		}
	}

	if app := classifyMessage(err); app != nil {
		return app
	}

	return &AppError{
		Kind:    KindUnknown,
		Message: err.Error(),
		Details: "Please try again or contact support if the problem persists.",
	}
}

// classifyTyped maps known sentinel errors and typed transport faults.
func classifyTyped(err error) *AppError {
	switch {
	case errors.Is(err, registry.ErrWalletRejected):
		return rejectedError()
	case errors.Is(err, registry.ErrWalletPending):
		return pendingError()
	case errors.Is(err, registry.ErrInsufficientFunds):
		return fundsError()
	case errors.Is(err, registry.ErrSignerUnset), errors.Is(err, registry.ErrSignerMismatch):
		return &AppError{
			Kind:    KindWallet,
			Message: "Signer unavailable",
			Details: err.Error(),
		}
	case errors.Is(err, registry.ErrInvalidParams), errors.Is(err, registry.ErrInvalidAddress):
		return &AppError{
			Kind:    KindValidation,
			Message: "Validation error",
			Details: err.Error(),
		}
	case errors.Is(err, registry.ErrGasEstimation):
		return gasError()
	case errors.Is(err, registry.ErrReverted),
		errors.Is(err, registry.ErrNotFound),
		errors.Is(err, registry.ErrAlreadyRegistered),
		errors.Is(err, registry.ErrUnauthorized):
		return &AppError{
			Kind:    KindBlockchain,
			Message: "Transaction failed",
			Details: err.Error(),
		}
	case errors.Is(err, registry.ErrNetwork):
		return networkError(err.Error(), "")
	case errors.Is(err, context.DeadlineExceeded):
		return timeoutError()
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return timeoutError()
		}
		return networkError(err.Error(), "")
	}

	return nil
}

// classifyCode maps provider error codes in priority order.
func classifyCode(code string, err error) *AppError {
	switch code {
	case "NETWORK_ERROR":
		return networkError(err.Error(), code)
	case "4001":
		return rejectedError()
	case "-32002":
		return pendingError()
	case "INSUFFICIENT_FUNDS":
		return fundsError()
	case "CALL_EXCEPTION":
		return &AppError{
			Kind:    KindBlockchain,
			Message: "Transaction failed",
			Details: err.Error(),
			Code:    code,
		}
	case "UNPREDICTABLE_GAS_LIMIT":
		return gasError()
	case "TIMEOUT":
		return timeoutError()
	}
	return nil
}

// classifyMessage is the substring fallback for opaque upstream errors.
func classifyMessage(err error) *AppError {
	msg := err.Error()
	switch {
	case containsAny(msg, "network", "fetch"):
		return networkError(msg, "")
	case containsAny(msg, "User rejected", "denied"):
		return rejectedError()
	case containsAny(msg, "already processing"):
		return pendingError()
	case containsAny(msg, "insufficient funds"):
		return fundsError()
	case containsAny(msg, "execution reverted"):
		return &AppError{
			Kind:    KindBlockchain,
			Message: "Transaction failed",
			Details: msg,
		}
	case containsAny(msg, "gas"):
		return gasError()
	case containsAny(msg, "timeout"):
		return timeoutError()
	}
	return nil
}

func networkError(details, code string) *AppError {
	if details == "" {
		details = "Unable to connect to the blockchain network. Please check your internet connection."
	}
	return &AppError{
		Kind:    KindNetwork,
		Message: "Network connection error",
		Details: details,
		Code:    code,
	}
}

func rejectedError() *AppError {
	return &AppError{
		Kind:    KindWallet,
		Message: "Transaction rejected",
		Details: "You rejected the transaction in your wallet.",
	}
}

func pendingError() *AppError {
	return &AppError{
		Kind:    KindWallet,
		Message: "Request already pending",
		Details: "Please check your wallet - a request is already pending.",
	}
}

func fundsError() *AppError {
	return &AppError{
		Kind:    KindWallet,
		Message: "Insufficient funds",
		Details: "You do not have enough funds to complete this transaction. Please add more funds to your wallet.",
	}
}

func gasError() *AppError {
	return &AppError{
		Kind:    KindBlockchain,
		Message: "Gas estimation failed",
		Details: "Unable to estimate gas for this transaction. Please try again or check the transaction details.",
	}
}

func timeoutError() *AppError {
	return &AppError{
		Kind:    KindNetwork,
		Message: "Request timeout",
		Details: "The request took too long to complete. Please try again.",
	}
}

// containsAny reports whether s contains any of the substrings,
// case-insensitively.
func containsAny(s string, subs ...string) bool {
	lower := strings.ToLower(s)
	for _, sub := range subs {
		if strings.Contains(lower, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}
