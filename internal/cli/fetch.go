package cli

import (
	"github.com/spf13/cobra"

	"lockstep.dev/lockstep/internal/provider"
)

// newFetchCmd creates the fetch command
func newFetchCmd() *cobra.Command {
	var updateStatus bool

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch from origin and refresh the lock table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, err := getRuntime(cmd)
			if err != nil {
				return err
			}

			op := provider.Operation{Name: "Fetch", UpdateStatus: updateStatus}
			if updateStatus {
				op.Files = ctx.Settings.GetContentDirs()
			}
			return runOp(cmd, ctx, op)
		},
	}

	cmd.Flags().BoolVar(&updateStatus, "status", false, "Also refresh the status of the content directories")

	return cmd
}
