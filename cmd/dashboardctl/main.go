// dashboardctl runs maintenance jobs against the dashboard database.
//
// Usage (same DB_* env as the API server):
//
//	go run ./cmd/dashboardctl migrate
//	go run ./cmd/dashboardctl seed-admin --username tech --password secret
//	go run ./cmd/dashboardctl reinvite 12
//	go run ./cmd/dashboardctl export-activity --limit 500 --output activity.xlsx
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dashboardctl",
		Short: "Operator tooling for the gang dashboard backend",
		Long: `dashboardctl runs one-off jobs that should not go through the HTTP API:
schema migration, bootstrapping the first Techniker account, issuing a fresh
invitation link and exporting the activity log.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedAdminCmd())
	rootCmd.AddCommand(reinviteCmd())
	rootCmd.AddCommand(exportActivityCmd())

	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
