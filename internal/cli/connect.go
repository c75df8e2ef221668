package cli

import (
	"github.com/spf13/cobra"

	"github.com/hivebridge-io/hivebridge/internal/output"
	"github.com/hivebridge-io/hivebridge/internal/settings"
	"github.com/hivebridge-io/hivebridge/internal/wallet"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	// connectAccount is the account name to connect as.
	connectAccount string
	// connectRole is the role the connection is for.
	connectRole string
)

// connectCmd establishes a wallet connection for a provider kind.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var connectCmd = &cobra.Command{
	Use:   "connect <kind>",
	Short: "Connect a signing provider",
	Long: `Connect a signing provider of the given kind and persist the selection.

Supported kinds: keychain, vault, snap, cloud.

The cloud kind may prompt for the account name and the recovery password.

Example:
  hivebridge connect cloud --account alice
  hivebridge connect cloud --account alice --role active`,
	Args: cobra.ExactArgs(1),
	RunE: runConnect,
}

// statusCmd shows connection state and provider availability.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show connection status",
	RunE:  runStatus,
}

// disconnectCmd drops the active wallet and clears the saved selection.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var disconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Disconnect and forget the saved provider selection",
	RunE:  runDisconnect,
}

func runConnect(cmd *cobra.Command, args []string) error {
	kind, err := settings.ParseKind(args[0])
	if err != nil {
		return err
	}

	role := wallet.RolePosting
	if connectRole != "" {
		if role, err = wallet.ParseRole(connectRole); err != nil {
			return err
		}
	}

	ctx, cancel := contextWithTimeout(cmd, app.ConnectTimeout())
	defer cancel()

	StartPromptResponder(ctx, app.Prompts)

	st := &settings.Settings{
		WalletKind:  kind,
		AccountName: connectAccount,
	}

	app.Manager.OpenSelect()
	if err := app.Manager.Connect(ctx, st, role); err != nil {
		app.Manager.CloseSelect()
		return err
	}
	app.Manager.CloseSelect()

	if err := app.Manager.WaitConnected(ctx); err != nil {
		return err
	}

	return formatter.Print(map[string]string{
		"state":   app.Manager.State().String(),
		"kind":    string(kind),
		"account": st.AccountName,
	})
}

func runStatus(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	st, err := app.Settings.Load()
	if err != nil {
		return err
	}

	result := map[string]any{
		"state": app.Manager.State().String(),
	}
	if st != nil {
		result["kind"] = string(st.WalletKind)
		result["account"] = st.AccountName
	}
	result["cloud_authenticated"] = app.Cloud.IsAuthenticated(ctx)
	result["session_unlocked"] = app.Sessions.LoggedIn()

	if formatter.IsJSON() {
		return formatter.Print(result)
	}

	table := output.NewTable("FIELD", "VALUE")
	table.AddRow("state", app.Manager.State().String())
	if st != nil {
		table.AddRow("kind", string(st.WalletKind))
		table.AddRow("account", st.AccountName)
	}
	if result["cloud_authenticated"].(bool) {
		table.AddRow("cloud auth", "yes")
	} else {
		table.AddRow("cloud auth", "no")
	}
	if app.Sessions.LoggedIn() {
		table.AddRow("session", "unlocked")
	} else {
		table.AddRow("session", "locked")
	}
	return table.Render(formatter.Writer())
}

func runDisconnect(_ *cobra.Command, _ []string) error {
	if err := app.Manager.Logout(); err != nil {
		return err
	}
	return output.FormatSuccess(formatter.Writer(), "disconnected", formatter.Format())
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	connectCmd.Flags().StringVar(&connectAccount, "account", "", "account name to connect as")
	connectCmd.Flags().StringVar(&connectRole, "role", "", "role to connect for (default: posting)")

	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(disconnectCmd)
}
