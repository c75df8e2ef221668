package cli

import (
	"github.com/spf13/cobra"

	"github.com/hivebridge-io/hivebridge/internal/wallet"
	hberr "github.com/hivebridge-io/hivebridge/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	// memoRecipient is the recipient public key for memo encryption.
	memoRecipient string
)

// memoCmd is the parent command for memo operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var memoCmd = &cobra.Command{
	Use:   "memo",
	Short: "Encrypt and decrypt private memos",
}

// memoEncryptCmd encrypts a memo to a recipient key.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var memoEncryptCmd = &cobra.Command{
	Use:   "encrypt <plaintext>",
	Short: "Encrypt a memo to a recipient public key",
	Long: `Encrypt a memo so only the holder of the recipient key can read it.

Example:
  hivebridge memo encrypt --to PUB6MRy... "meet at noon"`,
	Args: cobra.ExactArgs(1),
	RunE: runMemoEncrypt,
}

// memoDecryptCmd decrypts a memo addressed to the connected wallet.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var memoDecryptCmd = &cobra.Command{
	Use:   "decrypt <ciphertext>",
	Short: "Decrypt a memo addressed to this wallet",
	Args:  cobra.ExactArgs(1),
	RunE:  runMemoDecrypt,
}

func runMemoEncrypt(cmd *cobra.Command, args []string) error {
	if memoRecipient == "" {
		return hberr.WithSuggestion(hberr.ErrInvalidInput, "provide --to <recipient public key>")
	}

	ctx, cancel := contextWithTimeout(cmd, app.ConnectTimeout())
	defer cancel()

	StartPromptResponder(ctx, app.Prompts)

	w, err := activeWallet(ctx, wallet.RoleMemo)
	if err != nil {
		return err
	}

	plaintext := wallet.EnsureMemoMarker(args[0])
	ciphertext, err := w.Encrypt(ctx, plaintext, memoRecipient)
	if err != nil {
		return err
	}

	return formatter.Print(ciphertext)
}

func runMemoDecrypt(cmd *cobra.Command, args []string) error {
	ctx, cancel := contextWithTimeout(cmd, app.ConnectTimeout())
	defer cancel()

	StartPromptResponder(ctx, app.Prompts)

	w, err := activeWallet(ctx, wallet.RoleMemo)
	if err != nil {
		return err
	}

	plaintext, err := w.Decrypt(ctx, args[0])
	if err != nil {
		return err
	}

	return formatter.Print(wallet.StripMemoMarker(plaintext))
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	memoEncryptCmd.Flags().StringVar(&memoRecipient, "to", "", "recipient public key")

	memoCmd.AddCommand(memoEncryptCmd)
	memoCmd.AddCommand(memoDecryptCmd)
	rootCmd.AddCommand(memoCmd)
}
