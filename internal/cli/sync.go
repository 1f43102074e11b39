package cli

import (
	"github.com/spf13/cobra"

	"lockstep.dev/lockstep/internal/provider"
)

// newSyncCmd creates the sync command
func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Fetch and rebase onto the upstream branch",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, err := getRuntime(cmd)
			if err != nil {
				return err
			}

			if err := runOp(cmd, ctx, provider.Operation{Name: "Sync"}); err != nil {
				return err
			}

			id, summary := ctx.Provider.CommitInfo()
			if id != "" {
				ctx.Splog.Info("Now at %s: %s", id[:8], summary)
			}
			return nil
		},
	}
}
