package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/hivebridge-io/hivebridge/internal/output"
	versionpkg "github.com/hivebridge-io/hivebridge/internal/version"
)

// buildVersion is set at build time via -ldflags.
//
//nolint:gochecknoglobals // Build-time injection point
var buildVersion = "dev"

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	// versionCheck also queries the latest published release.
	versionCheck bool
)

// versionCmd prints version information.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE:  runVersion,
}

func runVersion(cmd *cobra.Command, _ []string) error {
	result := map[string]string{"version": buildVersion}

	if versionCheck {
		ctx, cancel := contextWithTimeout(cmd, 30*time.Second)
		defer cancel()

		latest, err := versionpkg.NewChecker(nil).Latest(ctx)
		if err != nil {
			return err
		}

		result["latest"] = latest
		if versionpkg.IsNewer(buildVersion, latest) {
			output.Warnf("a newer version is available: %s -> %s", buildVersion, latest)
		}
	}

	return formatter.Print(result)
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	versionCmd.Flags().BoolVar(&versionCheck, "check", false, "check for a newer release")

	rootCmd.AddCommand(versionCmd)
}
