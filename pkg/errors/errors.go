// Package errors provides structured error handling for hivebridge.
// It defines sentinel errors, exit codes, and helpers for adding
// context, details, and suggestions to errors.
//
//nolint:revive // Package name intentionally shadows stdlib for domain-specific error handling
package errors

import (
	"errors"
	"fmt"
	"sort"
)

// Exit codes.
const (
	ExitSuccess    = 0 // Successful execution
	ExitGeneral    = 1 // General/unknown error
	ExitInput      = 2 // Invalid input
	ExitAuth       = 3 // Authentication failed
	ExitNotFound   = 4 // Resource not found
	ExitUnavail    = 5 // Provider or channel unavailable
	ExitCancelled  = 6 // User cancelled a prompt
	ExitPermission = 7 // Operation declined
)

// BridgeError is the structured error type for hivebridge.
type BridgeError struct {
	Code       string            // Machine-readable error code
	Message    string            // Human-readable message
	Details    map[string]string // Additional context
	Suggestion string            // Actionable suggestion for user
	Cause      error             // Underlying error
	ExitCode   int               // Exit code for CLI
}

func (e *BridgeError) Error() string {
	msg := e.Message

	// Include details in error message (sorted for deterministic output)
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			msg = fmt.Sprintf("%s (%s: %s)", msg, k, e.Details[k])
		}
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *BridgeError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for BridgeError.
func (e *BridgeError) Is(target error) bool {
	var t *BridgeError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Sentinel errors.
var (
	ErrGeneral = &BridgeError{
		Code:     "GENERAL_ERROR",
		Message:  "an error occurred",
		ExitCode: ExitGeneral,
	}

	ErrInvalidInput = &BridgeError{
		Code:     "INVALID_INPUT",
		Message:  "invalid input",
		ExitCode: ExitInput,
	}

	ErrNotFound = &BridgeError{
		Code:     "NOT_FOUND",
		Message:  "resource not found",
		ExitCode: ExitNotFound,
	}

	ErrNetworkError = &BridgeError{
		Code:     "NETWORK_ERROR",
		Message:  "network communication failed",
		ExitCode: ExitGeneral,
	}

	// Provider errors.
	ErrProviderUnavailable = &BridgeError{
		Code:     "PROVIDER_UNAVAILABLE",
		Message:  "signing provider is not available",
		ExitCode: ExitUnavail,
	}

	ErrProviderRejected = &BridgeError{
		Code:     "PROVIDER_REJECTED",
		Message:  "signing provider declined the request",
		ExitCode: ExitPermission,
	}

	ErrUnsupportedWallet = &BridgeError{
		Code:     "UNSUPPORTED_WALLET",
		Message:  "unsupported wallet kind",
		ExitCode: ExitInput,
	}

	// Credential errors.
	ErrInvalidPassword = &BridgeError{
		Code:     "INVALID_PASSWORD",
		Message:  "unlock failed - wrong password",
		ExitCode: ExitAuth,
	}

	ErrAuthExpired = &BridgeError{
		Code:     "AUTH_EXPIRED",
		Message:  "cloud session expired - re-authentication required",
		ExitCode: ExitAuth,
	}

	ErrKeyNotRegistered = &BridgeError{
		Code:     "KEY_NOT_REGISTERED",
		Message:  "public key is not registered for this account",
		ExitCode: ExitAuth,
	}

	ErrWalletNotUnlocked = &BridgeError{
		Code:     "WALLET_NOT_UNLOCKED",
		Message:  "required wallet is not unlocked",
		ExitCode: ExitAuth,
	}

	ErrDecryptionFailed = &BridgeError{
		Code:     "DECRYPTION_FAILED",
		Message:  "decryption failed - wrong key or corrupted data",
		ExitCode: ExitAuth,
	}

	// Prompt errors.
	ErrPromptCancelled = &BridgeError{
		Code:     "PROMPT_CANCELLED",
		Message:  "prompt dismissed by user",
		ExitCode: ExitCancelled,
	}

	// Wallet-file errors.
	ErrWalletNotFound = &BridgeError{
		Code:     "WALLET_NOT_FOUND",
		Message:  "wallet not found",
		ExitCode: ExitNotFound,
	}

	ErrWalletExists = &BridgeError{
		Code:     "WALLET_EXISTS",
		Message:  "wallet already exists",
		ExitCode: ExitInput,
	}

	// Config-specific errors.
	ErrConfigNotFound = &BridgeError{
		Code:     "CONFIG_NOT_FOUND",
		Message:  "configuration file not found",
		ExitCode: ExitNotFound,
	}

	ErrConfigInvalid = &BridgeError{
		Code:     "CONFIG_INVALID",
		Message:  "configuration file is invalid",
		ExitCode: ExitInput,
	}
)

// New creates a new BridgeError with the given code and message.
func New(code, message string) *BridgeError {
	return &BridgeError{
		Code:     code,
		Message:  message,
		ExitCode: ExitGeneral,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}

	msg := fmt.Sprintf(format, args...)

	var be *BridgeError
	if errors.As(err, &be) {
		return &BridgeError{
			Code:       be.Code,
			Message:    fmt.Sprintf("%s: %s", msg, be.Message),
			Details:    be.Details,
			Suggestion: be.Suggestion,
			Cause:      err,
			ExitCode:   be.ExitCode,
		}
	}

	return &BridgeError{
		Code:     "GENERAL_ERROR",
		Message:  msg,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithDetails adds details to an error.
func WithDetails(err error, details map[string]string) error {
	if err == nil {
		return nil
	}

	var be *BridgeError
	if errors.As(err, &be) {
		return &BridgeError{
			Code:       be.Code,
			Message:    be.Message,
			Details:    details,
			Suggestion: be.Suggestion,
			Cause:      be.Cause,
			ExitCode:   be.ExitCode,
		}
	}

	return &BridgeError{
		Code:     "GENERAL_ERROR",
		Message:  err.Error(),
		Details:  details,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithSuggestion adds a suggestion to an error.
func WithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}

	var be *BridgeError
	if errors.As(err, &be) {
		return &BridgeError{
			Code:       be.Code,
			Message:    be.Message,
			Details:    be.Details,
			Suggestion: suggestion,
			Cause:      be.Cause,
			ExitCode:   be.ExitCode,
		}
	}

	return &BridgeError{
		Code:       "GENERAL_ERROR",
		Message:    err.Error(),
		Suggestion: suggestion,
		Cause:      err,
		ExitCode:   ExitGeneral,
	}
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var be *BridgeError
	if errors.As(err, &be) {
		return be.ExitCode
	}

	return ExitGeneral
}

// Code returns the error code for an error.
func Code(err error) string {
	var be *BridgeError
	if errors.As(err, &be) {
		return be.Code
	}
	return "GENERAL_ERROR"
}

// Is wraps errors.Is for convenience.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience.
func As(err error, target any) bool {
	return errors.As(err, target)
}
