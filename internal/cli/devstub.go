package cli

import (
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/hivebridge-io/hivebridge/internal/devstub"
	"github.com/hivebridge-io/hivebridge/internal/output"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	// devstubAddr is the listen address for the stub server.
	devstubAddr string
)

// devstubCmd runs the in-memory collaborator stub.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var devstubCmd = &cobra.Command{
	Use:   "devstub",
	Short: "Run an in-memory collaborator stub for local development",
	Long: `Run a local server that stands in for the auth collaborator and the
cloud storage API. Point the client at it with:

  HIVEBRIDGE_AUTH_BASE=http://localhost:3000/api/auth
  HIVEBRIDGE_DRIVE_BASE=http://localhost:3000/drive/v3

POST /control/login and /control/logout flip the stub session state.`,
	RunE: runDevstub,
}

func runDevstub(cmd *cobra.Command, _ []string) error {
	stub := devstub.NewServer()

	srv := &http.Server{
		Addr:              devstubAddr,
		Handler:           stub.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-cmd.Context().Done()
		_ = srv.Close()
	}()

	output.Infof("devstub listening on %s", devstubAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	devstubCmd.Flags().StringVar(&devstubAddr, "addr", "localhost:3000", "listen address")

	rootCmd.AddCommand(devstubCmd)
}
