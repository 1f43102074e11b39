package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root cobra command
func NewRootCmd(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "lockstep",
		Short: "Lockstep drives git and git-lfs for binary-asset workflows",
		Long: `Lockstep drives git and git-lfs for projects built around large binary
assets: exclusive file locking, staged/working changelists, and status that
tracks what the rest of the team has pushed.`,
		Version: fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
	}

	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newCheckoutCmd())
	rootCmd.AddCommand(newCheckinCmd())
	rootCmd.AddCommand(newRevertCmd())
	rootCmd.AddCommand(newSyncCmd())
	rootCmd.AddCommand(newFetchCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newResolveCmd())
	rootCmd.AddCommand(newAddCmd())
	rootCmd.AddCommand(newDeleteCmd())
	rootCmd.AddCommand(newStageCmd())
	rootCmd.AddCommand(newUnstageCmd())
	rootCmd.AddCommand(newLocksCmd())
	rootCmd.AddCommand(newConnectCmd())
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newCatCmd())

	return rootCmd
}
