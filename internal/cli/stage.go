package cli

import (
	"github.com/spf13/cobra"

	"lockstep.dev/lockstep/internal/provider"
	"lockstep.dev/lockstep/internal/state"
)

// newStageCmd creates the stage command
func newStageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stage <files...>",
		Short: "Move files to the staged changelist",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			return runOp(cmd, ctx, provider.Operation{
				Name:       "MoveToChangelist",
				Files:      args,
				Changelist: state.ChangelistStaged,
			})
		},
	}
}

// newUnstageCmd creates the unstage command
func newUnstageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unstage <files...>",
		Short: "Move files back to the working changelist",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			return runOp(cmd, ctx, provider.Operation{
				Name:       "MoveToChangelist",
				Files:      args,
				Changelist: state.ChangelistWorking,
			})
		},
	}
}
