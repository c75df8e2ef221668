package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hivebridge-io/hivebridge/internal/keys"
	"github.com/hivebridge-io/hivebridge/internal/output"
	hberr "github.com/hivebridge-io/hivebridge/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	// sessionOperationalWIF is the posting-tier key for a new local wallet.
	sessionOperationalWIF string
	// sessionManagementWIF is the optional owner-tier key for a new local wallet.
	sessionManagementWIF string
	// sessionMnemonic derives both ring keys from a BIP39 phrase.
	sessionMnemonic string
	// sessionGenerateMnemonic creates a fresh phrase and derives from it.
	sessionGenerateMnemonic bool
	// sessionMnemonicWords is the word count for a generated phrase.
	sessionMnemonicWords int
	// sessionForce skips the destroy confirmation.
	sessionForce bool
)

// sessionCmd is the parent command for the local encrypted key rings.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage locally stored key rings",
	Long: `Manage the local key rings: encrypted key files unlocked per session
with a password. The operational ring holds the day-to-day key; the
management ring, when present, holds the owner-tier key.`,
}

// sessionCreateCmd creates the local rings.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var sessionCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create local key rings",
	Long: `Create encrypted local key rings protected by a password.

Without --operational-wif a fresh key is generated and its WIF printed
once. The management ring is created only when --management-wif is given.

With --mnemonic or --generate-mnemonic both ring keys are derived from a
BIP39 phrase instead: the operational key at hardened index 0, the
management key at hardened index 1. The same phrase always recovers the
same rings.

Example:
  hivebridge session create
  hivebridge session create --operational-wif 5J... --management-wif 5K...
  hivebridge session create --generate-mnemonic --words 24
  hivebridge session create --mnemonic "abandon abandon ... about"`,
	RunE: runSessionCreate,
}

// sessionLoginCmd unlocks the rings for this process.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var sessionLoginCmd = &cobra.Command{
	Use:   "login <account>",
	Short: "Unlock the local key rings",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionLogin,
}

// sessionLogoutCmd locks the rings.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var sessionLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Lock the local key rings",
	RunE:  runSessionLogout,
}

// sessionDestroyCmd tears the in-memory session down permanently.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var sessionDestroyCmd = &cobra.Command{
	Use:   "destroy",
	Short: "Destroy the session permanently",
	Long: `Lock the rings and mark the session destroyed; no further login is
possible in this process. The encrypted ring files stay on disk.`,
	RunE: runSessionDestroy,
}

func runSessionCreate(_ *cobra.Command, _ []string) error {
	operational := sessionOperationalWIF
	management := sessionManagementWIF
	mnemonic := sessionMnemonic

	useMnemonic := mnemonic != "" || sessionGenerateMnemonic
	if useMnemonic && (operational != "" || management != "") {
		return hberr.WithSuggestion(hberr.ErrInvalidInput,
			"a mnemonic derives both ring keys; drop --operational-wif and --management-wif")
	}

	result := map[string]any{}
	switch {
	case useMnemonic:
		if mnemonic == "" {
			var err error
			if mnemonic, err = keys.GenerateMnemonic(sessionMnemonicWords); err != nil {
				return hberr.Wrap(err, "generating mnemonic")
			}
			result["mnemonic"] = mnemonic
			output.Warn("store this mnemonic securely; it is shown only once")
		}
		var err error
		if operational, management, err = deriveRingWIFs(mnemonic); err != nil {
			return err
		}

	case operational == "":
		key, err := keys.Generate()
		if err != nil {
			return err
		}
		operational = key.WIF()
		key.Zero()
		result["operational_wif"] = operational
		output.Warn("store this WIF securely; it is shown only once")
	}

	password, err := promptNewPassword()
	if err != nil {
		return err
	}
	defer keys.ZeroBytes(password)

	slot, err := app.Sessions.CreateWallet(string(password), operational, management)
	if err != nil {
		return err
	}

	result["slot"] = slot
	return formatter.Print(result)
}

// deriveRingWIFs derives the operational and management ring keys from one
// BIP39 phrase at their fixed hardened indexes.
func deriveRingWIFs(mnemonic string) (operational, management string, err error) {
	opKey, err := keys.DeriveKey(mnemonic, "", keys.IndexOperational)
	if err != nil {
		return "", "", hberr.Wrap(hberr.ErrInvalidInput, "deriving operational key: %v", err)
	}
	defer opKey.Zero()

	mgmtKey, err := keys.DeriveKey(mnemonic, "", keys.IndexManagement)
	if err != nil {
		return "", "", hberr.Wrap(hberr.ErrInvalidInput, "deriving management key: %v", err)
	}
	defer mgmtKey.Zero()

	return opKey.WIF(), mgmtKey.WIF(), nil
}

func runSessionLogin(_ *cobra.Command, args []string) error {
	password, err := promptPassword("Session password: ")
	if err != nil {
		return err
	}
	defer keys.ZeroBytes(password)

	if err := app.Sessions.Login(args[0], string(password)); err != nil {
		return err
	}
	return output.FormatSuccess(formatter.Writer(), "session unlocked", formatter.Format())
}

func runSessionLogout(_ *cobra.Command, _ []string) error {
	app.Sessions.Logout()
	return output.FormatSuccess(formatter.Writer(), "session locked", formatter.Format())
}

func runSessionDestroy(_ *cobra.Command, _ []string) error {
	if !sessionForce && !confirmDestroy() {
		return nil
	}

	app.Sessions.Destroy()
	return output.FormatSuccess(formatter.Writer(), "session destroyed", formatter.Format())
}

func confirmDestroy() bool {
	out(os.Stderr, "Destroy the session? No further login is possible in this process. [y/N]: ")

	var response string
	if _, err := fmt.Scanln(&response); err != nil {
		return false
	}

	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes"
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	sessionCreateCmd.Flags().StringVar(&sessionOperationalWIF, "operational-wif", "", "posting-tier key in WIF (generated when omitted)")
	sessionCreateCmd.Flags().StringVar(&sessionManagementWIF, "management-wif", "", "owner-tier key in WIF (optional)")
	sessionCreateCmd.Flags().StringVar(&sessionMnemonic, "mnemonic", "", "BIP39 phrase to derive both ring keys from")
	sessionCreateCmd.Flags().BoolVar(&sessionGenerateMnemonic, "generate-mnemonic", false, "generate a fresh BIP39 phrase and derive from it")
	sessionCreateCmd.Flags().IntVar(&sessionMnemonicWords, "words", 12, "word count for a generated phrase (12 or 24)")
	sessionDestroyCmd.Flags().BoolVar(&sessionForce, "force", false, "skip confirmation")

	sessionCmd.AddCommand(sessionCreateCmd)
	sessionCmd.AddCommand(sessionLoginCmd)
	sessionCmd.AddCommand(sessionLogoutCmd)
	sessionCmd.AddCommand(sessionDestroyCmd)
	rootCmd.AddCommand(sessionCmd)
}
