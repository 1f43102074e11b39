package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"lockstep.dev/lockstep/internal/provider"
)

// newRevertCmd creates the revert command
func newRevertCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "revert [files...]",
		Short: "Discard local changes",
		Long: `Discard local changes to the given files, releasing any locks held on
them. With --all and no files, the entire working copy is reset and untracked
files are removed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := getRuntime(cmd)
			if err != nil {
				return err
			}

			if len(args) == 0 {
				if !all {
					return fmt.Errorf("pass files to revert, or --all to revert everything")
				}
				host := newTerminalHost(ctx.Splog)
				if !host.Confirm("Revert ALL local changes and delete untracked files?", "") {
					return fmt.Errorf("revert aborted")
				}
			}

			return runOp(cmd, ctx, provider.Operation{Name: "Revert", Files: args})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Revert the entire working copy")

	return cmd
}
