package cli

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/hivebridge-io/hivebridge/internal/wallet"
	hberr "github.com/hivebridge-io/hivebridge/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	// signRole is the role to sign with.
	signRole string
	// signTxPath is the transaction JSON file, "-" for stdin.
	signTxPath string
)

// signCmd signs a transaction with the connected provider.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "Sign a transaction",
	Long: `Sign a transaction JSON with the key for the given role.

Uses the saved provider selection; run "hivebridge connect" first.

Example:
  hivebridge sign --role posting --tx tx.json
  cat tx.json | hivebridge sign --role active --tx -`,
	RunE: runSign,
}

func runSign(cmd *cobra.Command, _ []string) error {
	role, err := wallet.ParseRole(signRole)
	if err != nil {
		return err
	}

	raw, err := readInput(signTxPath)
	if err != nil {
		return err
	}

	tx, err := wallet.NewJSONTransaction(raw)
	if err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(cmd, app.ConnectTimeout())
	defer cancel()

	StartPromptResponder(ctx, app.Prompts)

	w, err := activeWallet(ctx, role)
	if err != nil {
		return err
	}

	sigs, err := w.SignTransaction(ctx, tx, role)
	if err != nil {
		return err
	}

	return formatter.Print(map[string]any{
		"role":       role.String(),
		"signatures": sigs,
	})
}

// activeWallet returns the connected wallet, reconnecting from the saved
// selection record when the process has none in memory.
func activeWallet(ctx context.Context, role wallet.Role) (wallet.Wallet, error) {
	if w, ok := app.Manager.ActiveWallet(); ok {
		return w, nil
	}

	st, err := app.Settings.Load()
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, hberr.WithSuggestion(hberr.ErrNotFound,
			"no provider selected; run \"hivebridge connect <kind>\" first")
	}

	if err := app.Manager.Connect(ctx, st, role); err != nil {
		return nil, err
	}
	w, ok := app.Manager.ActiveWallet()
	if !ok {
		return nil, hberr.ErrProviderUnavailable
	}
	return w, nil
}

// readInput reads a file, or stdin when path is "-".
func readInput(path string) ([]byte, error) {
	if path == "" {
		return nil, hberr.WithSuggestion(hberr.ErrInvalidInput, "provide --tx <file> or --tx -")
	}
	if path == "-" {
		return io.ReadAll(io.LimitReader(os.Stdin, 1<<20))
	}
	// #nosec G304 -- transaction file path comes from the --tx flag
	return os.ReadFile(path)
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	signCmd.Flags().StringVar(&signRole, "role", "posting", "role to sign with: posting, active, owner")
	signCmd.Flags().StringVar(&signTxPath, "tx", "", "transaction JSON file (- for stdin)")

	rootCmd.AddCommand(signCmd)
}
