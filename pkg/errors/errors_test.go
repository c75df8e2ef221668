package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New("CUSTOM_CODE", "something broke")
	if err.Code != "CUSTOM_CODE" {
		t.Errorf("Code = %q, want CUSTOM_CODE", err.Code)
	}
	if err.Message != "something broke" {
		t.Errorf("Message = %q", err.Message)
	}
	if err.ExitCode != ExitGeneral {
		t.Errorf("ExitCode = %d, want %d", err.ExitCode, ExitGeneral)
	}
}

func TestWrapPreservesSentinel(t *testing.T) {
	wrapped := Wrap(ErrInvalidPassword, "unlocking ring %q", "slot1-operational")
	if !Is(wrapped, ErrInvalidPassword) {
		t.Error("wrapped error should match ErrInvalidPassword")
	}
	if !errors.Is(wrapped, ErrInvalidPassword) {
		t.Error("stdlib errors.Is should also match")
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, "context") != nil {
		t.Error("wrapping nil should return nil")
	}
}

func TestWithDetails(t *testing.T) {
	err := WithDetails(ErrProviderRejected, map[string]string{
		"method": "requestSignTx",
		"reason": "user declined",
	})

	var be *BridgeError
	if !errors.As(err, &be) {
		t.Fatal("expected a BridgeError")
	}
	if be.Details["method"] != "requestSignTx" {
		t.Errorf("Details[method] = %q", be.Details["method"])
	}
	if be.Code != ErrProviderRejected.Code {
		t.Errorf("Code = %q, want %q", be.Code, ErrProviderRejected.Code)
	}
	if !Is(err, ErrProviderRejected) {
		t.Error("details should not break sentinel matching")
	}
}

func TestWithSuggestion(t *testing.T) {
	err := WithSuggestion(ErrUnsupportedWallet, "did you mean cloud?")

	var be *BridgeError
	if !errors.As(err, &be) {
		t.Fatal("expected a BridgeError")
	}
	if be.Suggestion != "did you mean cloud?" {
		t.Errorf("Suggestion = %q", be.Suggestion)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"invalid input", ErrInvalidInput, ExitInput},
		{"auth expired", ErrAuthExpired, ExitAuth},
		{"not found", ErrWalletNotFound, ExitNotFound},
		{"provider unavailable", ErrProviderUnavailable, ExitUnavail},
		{"prompt cancelled", ErrPromptCancelled, ExitCancelled},
		{"wrapped", Wrap(ErrInvalidPassword, "context"), ErrInvalidPassword.ExitCode},
		{"plain error", fmt.Errorf("boom"), ExitGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestCode(t *testing.T) {
	if got := Code(ErrKeyNotRegistered); got != "KEY_NOT_REGISTERED" {
		t.Errorf("Code = %q", got)
	}
	if got := Code(fmt.Errorf("plain")); got != "GENERAL_ERROR" {
		t.Errorf("Code for plain error = %q", got)
	}
}

func TestErrorString(t *testing.T) {
	cause := fmt.Errorf("underlying")
	err := Wrap(cause, "loading wallet")
	if err.Error() == "" {
		t.Error("error string should not be empty")
	}
	if !errors.Is(err, cause) {
		t.Error("cause should be reachable via errors.Is")
	}
}

func TestSentinelCodesDistinct(t *testing.T) {
	sentinels := []*BridgeError{
		ErrGeneral, ErrInvalidInput, ErrNotFound, ErrNetworkError,
		ErrProviderUnavailable, ErrProviderRejected, ErrUnsupportedWallet,
		ErrInvalidPassword, ErrAuthExpired, ErrKeyNotRegistered,
		ErrWalletNotUnlocked, ErrDecryptionFailed, ErrPromptCancelled,
		ErrWalletNotFound, ErrWalletExists, ErrConfigNotFound, ErrConfigInvalid,
	}

	seen := make(map[string]bool, len(sentinels))
	for _, s := range sentinels {
		if seen[s.Code] {
			t.Errorf("duplicate sentinel code %q", s.Code)
		}
		seen[s.Code] = true
	}
}
