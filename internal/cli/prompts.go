package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/hivebridge-io/hivebridge/internal/keys"
	"github.com/hivebridge-io/hivebridge/internal/prompt"
	hberr "github.com/hivebridge-io/hivebridge/pkg/errors"
)

// out is a helper for CLI output that ignores write errors (standard pattern for CLI tools).
//
//nolint:errcheck // CLI output writes to stdout are intentionally unchecked
func out(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, format, args...)
}

// outln is a helper for CLI output with newline.
//
//nolint:errcheck // CLI output writes to stdout are intentionally unchecked
func outln(w io.Writer, args ...interface{}) {
	fmt.Fprintln(w, args...)
}

// promptPassword prompts for a password with hidden input.
// The caller is responsible for zeroing the returned bytes after use.
func promptPassword(label string) ([]byte, error) {
	out(os.Stderr, "%s", label)

	password, err := term.ReadPassword(syscall.Stdin)
	outln(os.Stderr) // Add newline after hidden input

	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}

	return password, nil
}

// promptNewPassword prompts for a new password with confirmation.
// The caller is responsible for zeroing the returned bytes after use.
func promptNewPassword() ([]byte, error) {
	password, err := promptPassword("Enter recovery password: ")
	if err != nil {
		return nil, err
	}

	if len(password) < 8 {
		keys.ZeroBytes(password)
		return nil, hberr.WithSuggestion(
			hberr.ErrInvalidInput,
			"password must be at least 8 characters",
		)
	}

	confirm, err := promptPassword("Confirm password: ")
	if err != nil {
		keys.ZeroBytes(password)
		return nil, err
	}
	defer keys.ZeroBytes(confirm)

	if string(password) != string(confirm) {
		keys.ZeroBytes(password)
		return nil, hberr.WithSuggestion(
			hberr.ErrInvalidInput,
			"passwords do not match",
		)
	}

	return password, nil
}

// promptAccountName prompts for an account name on the terminal.
func promptAccountName() (string, error) {
	out(os.Stderr, "Account name: ")

	var name string
	if _, err := fmt.Scanln(&name); err != nil {
		return "", hberr.WithSuggestion(hberr.ErrInvalidInput, "no account name provided")
	}
	return strings.TrimSpace(name), nil
}

// StartPromptResponder drains prompt requests on the terminal until ctx is
// cancelled. Providers suspend in the bridge while the user types; this loop
// is the dialog side. Run it before invoking any operation that may prompt.
func StartPromptResponder(ctx context.Context, bridge *prompt.Bridge) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-bridge.Notify():
			}

			// Signals coalesce; drain everything pending.
			for {
				kind, ok := bridge.Oldest()
				if !ok {
					break
				}
				respondOne(bridge, kind)
			}
		}
	}()
}

// respondOne settles the oldest pending request by asking the user.
func respondOne(bridge *prompt.Bridge, kind prompt.Kind) {
	switch kind {
	case prompt.KindPassword:
		pw, err := promptPassword("Wallet password: ")
		if err != nil {
			bridge.Cancel()
			return
		}
		bridge.Submit(string(pw))
		keys.ZeroBytes(pw)

	case prompt.KindNewPassword:
		pw, err := promptNewPassword()
		if err != nil {
			bridge.Cancel()
			return
		}
		bridge.Submit(string(pw))
		keys.ZeroBytes(pw)

	case prompt.KindAccountName:
		name, err := promptAccountName()
		if err != nil || name == "" {
			bridge.Cancel()
			return
		}
		bridge.Submit(name)

	default:
		bridge.Cancel()
	}
}
