package apperr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/somniastreams/marketcore/internal/registry"
)

// codedError fakes an upstream provider error carrying a code.
type codedError struct {
	code string
	msg  string
}

func (e *codedError) Error() string     { return e.msg }
func (e *codedError) ErrorCode() string { return e.code }

func TestClassify_Nil(t *testing.T) {
	if got := Classify(nil); got != nil {
		t.Errorf("Classify(nil) = %v, want nil", got)
	}
}

func TestClassify_Passthrough(t *testing.T) {
	original := NewValidationError("Latitude must be between -90 and 90", "")

	got := Classify(original)
	if got != original {
		t.Errorf("Classify should pass an existing AppError through unchanged")
	}
	if got.Kind != KindValidation {
		t.Errorf("Kind = %s, want %s", got.Kind, KindValidation)
	}
}

func TestClassify_TypedSentinels(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "wallet rejected", err: registry.ErrWalletRejected, want: KindWallet},
		{name: "wallet pending", err: registry.ErrWalletPending, want: KindWallet},
		{name: "insufficient funds", err: registry.ErrInsufficientFunds, want: KindWallet},
		{name: "signer unset", err: registry.ErrSignerUnset, want: KindWallet},
		{name: "invalid params", err: registry.ErrInvalidParams, want: KindValidation},
		{name: "gas estimation", err: registry.ErrGasEstimation, want: KindBlockchain},
		{name: "reverted", err: registry.ErrReverted, want: KindBlockchain},
		{name: "not found", err: registry.ErrNotFound, want: KindBlockchain},
		{name: "unauthorized", err: registry.ErrUnauthorized, want: KindBlockchain},
		{name: "network sentinel", err: registry.ErrNetwork, want: KindNetwork},
		{name: "deadline exceeded", err: context.DeadlineExceeded, want: KindNetwork},
		{
			name: "wrapped sentinel",
			err:  fmt.Errorf("purchase: %w", registry.ErrInsufficientFunds),
			want: KindWallet,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			if got.Kind != tt.want {
				t.Errorf("Classify(%v).Kind = %s, want %s", tt.err, got.Kind, tt.want)
			}
		})
	}
}

func TestClassify_Codes(t *testing.T) {
	tests := []struct {
		name string
		code string
		want Kind
	}{
		{name: "network code", code: "NETWORK_ERROR", want: KindNetwork},
		{name: "user rejection code", code: "4001", want: KindWallet},
		{name: "pending request code", code: "-32002", want: KindWallet},
		{name: "insufficient funds code", code: "INSUFFICIENT_FUNDS", want: KindWallet},
		{name: "call exception code", code: "CALL_EXCEPTION", want: KindBlockchain},
		{name: "gas limit code", code: "UNPREDICTABLE_GAS_LIMIT", want: KindBlockchain},
		{name: "timeout code", code: "TIMEOUT", want: KindNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(&codedError{code: tt.code, msg: "upstream failure"})
			if got.Kind != tt.want {
				t.Errorf("Classify(code %s).Kind = %s, want %s", tt.code, got.Kind, tt.want)
			}
		})
	}
}

func TestClassify_Substrings(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		want Kind
	}{
		{name: "network keyword", msg: "could not reach network endpoint", want: KindNetwork},
		{name: "fetch keyword", msg: "failed to fetch", want: KindNetwork},
		{name: "user rejected", msg: "MetaMask Tx Signature: User rejected the request", want: KindWallet},
		{name: "denied", msg: "request denied by user", want: KindWallet},
		{name: "already processing", msg: "Request of type wallet_requestPermissions already processing", want: KindWallet},
		{name: "insufficient funds", msg: "insufficient funds for gas * price + value", want: KindWallet},
		{name: "execution reverted", msg: "execution reverted: not owner", want: KindBlockchain},
		{name: "gas", msg: "cannot estimate gas for call", want: KindBlockchain},
		{name: "timeout", msg: "request timeout after 30s", want: KindNetwork},
		{name: "opaque", msg: "something odd happened", want: KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(errors.New(tt.msg))
			if got.Kind != tt.want {
				t.Errorf("Classify(%q).Kind = %s, want %s", tt.msg, got.Kind, tt.want)
			}
		})
	}
}

// TestClassify_Precedence pins the documented ordering: a rejection code
// beats a network substring, and the network substring beats a gas
// substring within the fallback pass.
func TestClassify_Precedence(t *testing.T) {
	t.Run("rejection code beats network substring", func(t *testing.T) {
		err := &codedError{code: "4001", msg: "network request was cancelled"}
		got := Classify(err)
		if got.Kind != KindWallet {
			t.Errorf("Kind = %s, want %s", got.Kind, KindWallet)
		}
		if !IsUserActionError(got) {
			t.Error("rejection should read as a user action error")
		}
	})

	t.Run("network substring beats gas substring", func(t *testing.T) {
		got := Classify(errors.New("network error while estimating gas"))
		if got.Kind != KindNetwork {
			t.Errorf("Kind = %s, want %s", got.Kind, KindNetwork)
		}
	})

	t.Run("typed sentinel beats message content", func(t *testing.T) {
		err := fmt.Errorf("network glitch: %w", registry.ErrInsufficientFunds)
		got := Classify(err)
		if got.Kind != KindWallet {
			t.Errorf("Kind = %s, want %s", got.Kind, KindWallet)
		}
	})
}

func TestIsRecoverable(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		want bool
	}{
		{name: "network", kind: KindNetwork, want: true},
		{name: "unknown", kind: KindUnknown, want: true},
		{name: "wallet", kind: KindWallet, want: false},
		{name: "validation", kind: KindValidation, want: false},
		{name: "blockchain", kind: KindBlockchain, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRecoverable(&AppError{Kind: tt.kind}); got != tt.want {
				t.Errorf("IsRecoverable(%s) = %v, want %v", tt.kind, got, tt.want)
			}
		})
	}

	if IsRecoverable(nil) {
		t.Error("IsRecoverable(nil) = true, want false")
	}
}

func TestIsUserActionError(t *testing.T) {
	if !IsUserActionError(Classify(registry.ErrWalletRejected)) {
		t.Error("wallet rejection should be a user action error")
	}
	if IsUserActionError(Classify(registry.ErrInsufficientFunds)) {
		t.Error("insufficient funds is not user-initiated")
	}
	if IsUserActionError(Classify(registry.ErrNetwork)) {
		t.Error("network errors are not user action errors")
	}
}

func TestTitle(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{kind: KindNetwork, want: "Network Error"},
		{kind: KindWallet, want: "Wallet Error"},
		{kind: KindValidation, want: "Validation Error"},
		{kind: KindBlockchain, want: "Transaction Error"},
		{kind: KindUnknown, want: "Error"},
	}

	for _, tt := range tests {
		e := &AppError{Kind: tt.kind}
		if got := e.Title(); got != tt.want {
			t.Errorf("Title(%s) = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
