package cli

import (
	"github.com/spf13/cobra"

	"github.com/hivebridge-io/hivebridge/internal/keys"
	"github.com/hivebridge-io/hivebridge/internal/output"
	"github.com/hivebridge-io/hivebridge/internal/wallet"
	hberr "github.com/hivebridge-io/hivebridge/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	// cloudRole selects the key role for cloud wallet operations.
	cloudRole string
	// cloudWIF imports an existing private key instead of generating one.
	cloudWIF string
)

// cloudCmd is the parent command for cloud-custody wallet operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var cloudCmd = &cobra.Command{
	Use:   "cloud",
	Short: "Manage the cloud-custody wallet",
	Long: `Manage the encrypted wallet file stored on the user's own cloud storage.

Keys in the file are encrypted with a key derived from a recovery password;
the derived key is cached in the OS keyring so routine use does not prompt.`,
}

// cloudCreateCmd creates the remote wallet file.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var cloudCreateCmd = &cobra.Command{
	Use:   "create <account>",
	Short: "Create the cloud wallet file",
	Long: `Create the encrypted wallet file with an initial key for the given role.

Without --wif a fresh key is generated and its WIF printed once; store it
securely. You will be prompted for a recovery password.

Example:
  hivebridge cloud create alice --role posting
  hivebridge cloud create alice --role active --wif 5J...`,
	Args: cobra.ExactArgs(1),
	RunE: runCloudCreate,
}

// cloudInfoCmd shows remote wallet state for an account and role.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var cloudInfoCmd = &cobra.Command{
	Use:   "info <account>",
	Short: "Show cloud wallet state",
	Args:  cobra.ExactArgs(1),
	RunE:  runCloudInfo,
}

// cloudRolesCmd lists roles with keys in the wallet file.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var cloudRolesCmd = &cobra.Command{
	Use:   "roles <account>",
	Short: "List roles configured in the cloud wallet",
	Args:  cobra.ExactArgs(1),
	RunE:  runCloudRoles,
}

// cloudAddKeyCmd adds a key for another role to the wallet file.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var cloudAddKeyCmd = &cobra.Command{
	Use:   "add-key <account>",
	Short: "Add a role key to the cloud wallet",
	Args:  cobra.ExactArgs(1),
	RunE:  runCloudAddKey,
}

// cloudLogoutCmd ends the cloud session and clears the cached key.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var cloudLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out of the cloud session",
	RunE:  runCloudLogout,
}

func runCloudCreate(cmd *cobra.Command, args []string) error {
	account := args[0]

	role, err := wallet.ParseRole(cloudRole)
	if err != nil {
		return err
	}

	wif := cloudWIF
	generated := false
	if wif == "" {
		key, keyErr := keys.Generate()
		if keyErr != nil {
			return keyErr
		}
		wif = key.WIF()
		generated = true
		key.Zero()
	}

	// The password is collected here and passed down explicitly; the
	// provider never prompts during creation.
	password, err := promptNewPassword()
	if err != nil {
		return err
	}
	defer keys.ZeroBytes(password)

	ctx, cancel := contextWithTimeout(cmd, app.ConnectTimeout())
	defer cancel()

	info, err := app.Cloud.CreateWallet(ctx, account, wif, role, string(password))
	if err != nil {
		return err
	}

	result := map[string]string{
		"account":    info.AccountName,
		"role":       info.Role.String(),
		"public_key": info.PublicKey,
	}
	if generated {
		result["wif"] = wif
		output.Warn("store this WIF securely; it is shown only once")
	}
	return formatter.Print(result)
}

func runCloudInfo(cmd *cobra.Command, args []string) error {
	role, err := wallet.ParseRole(cloudRole)
	if err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(cmd, app.ConnectTimeout())
	defer cancel()

	StartPromptResponder(ctx, app.Prompts)

	info, err := app.Cloud.GetWalletInfo(ctx, args[0], role)
	if err != nil {
		return err
	}

	if !info.Exists {
		return formatter.Print(map[string]any{"exists": false})
	}
	return formatter.Print(map[string]any{
		"exists":     true,
		"account":    info.Wallet.AccountName,
		"role":       info.Wallet.Role.String(),
		"public_key": info.Wallet.PublicKey,
	})
}

func runCloudRoles(cmd *cobra.Command, args []string) error {
	ctx, cancel := contextWithTimeout(cmd, app.ConnectTimeout())
	defer cancel()

	StartPromptResponder(ctx, app.Prompts)

	roles, err := app.Cloud.GetAllConfiguredRoles(ctx, args[0])
	if err != nil {
		return err
	}

	if formatter.IsJSON() {
		names := make([]string, 0, len(roles))
		for _, r := range roles {
			names = append(names, r.String())
		}
		return formatter.Print(map[string]any{"account": args[0], "roles": names})
	}

	table := output.NewTable("ROLE")
	for _, r := range roles {
		table.AddRow(r.String())
	}
	return table.Render(formatter.Writer())
}

func runCloudAddKey(cmd *cobra.Command, args []string) error {
	role, err := wallet.ParseRole(cloudRole)
	if err != nil {
		return err
	}
	if cloudWIF == "" {
		return hberr.WithSuggestion(hberr.ErrInvalidInput, "provide --wif <private key>")
	}

	ctx, cancel := contextWithTimeout(cmd, app.ConnectTimeout())
	defer cancel()

	StartPromptResponder(ctx, app.Prompts)

	pub, err := app.Cloud.AddKey(ctx, args[0], role, cloudWIF)
	if err != nil {
		return err
	}

	return formatter.Print(map[string]string{
		"account":    args[0],
		"role":       role.String(),
		"public_key": pub,
	})
}

func runCloudLogout(cmd *cobra.Command, _ []string) error {
	ctx, cancel := contextWithTimeout(cmd, app.ConnectTimeout())
	defer cancel()

	if err := app.Cloud.Logout(ctx); err != nil {
		return err
	}
	return output.FormatSuccess(formatter.Writer(), "logged out", formatter.Format())
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	cloudCmd.PersistentFlags().StringVar(&cloudRole, "role", "posting", "key role: posting, active, owner, memo")
	cloudCmd.PersistentFlags().StringVar(&cloudWIF, "wif", "", "private key in WIF (generated when omitted)")

	cloudCmd.AddCommand(cloudCreateCmd)
	cloudCmd.AddCommand(cloudInfoCmd)
	cloudCmd.AddCommand(cloudRolesCmd)
	cloudCmd.AddCommand(cloudAddKeyCmd)
	cloudCmd.AddCommand(cloudLogoutCmd)
	rootCmd.AddCommand(cloudCmd)
}
