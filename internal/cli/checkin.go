package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"lockstep.dev/lockstep/internal/provider"
)

// newCheckinCmd creates the checkin command
func newCheckinCmd() *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "checkin <files...>",
		Short: "Commit files and push the branch",
		Long: `Commit the given files and push the current branch. A push rejected
because the remote moved is retried once after a rebase pull. Locks on the
pushed files are released only after the push lands.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if message == "" {
				return fmt.Errorf("a commit message is required (-m)")
			}

			ctx, err := getRuntime(cmd)
			if err != nil {
				return err
			}

			if err := runOp(cmd, ctx, provider.Operation{Name: "CheckIn", Files: args, Message: message}); err != nil {
				return err
			}

			id, summary := ctx.Provider.CommitInfo()
			if id != "" {
				ctx.Splog.Info("Checked in as %s: %s", id[:8], summary)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "Commit message")

	return cmd
}
