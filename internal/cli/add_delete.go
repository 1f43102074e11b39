package cli

import (
	"github.com/spf13/cobra"

	"lockstep.dev/lockstep/internal/provider"
)

// newAddCmd creates the add command
func newAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <files...>",
		Short: "Mark new files for add",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			return runOp(cmd, ctx, provider.Operation{Name: "MarkForAdd", Files: args})
		},
	}
}

// newDeleteCmd creates the delete command
func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <files...>",
		Short: "Mark files for delete",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			return runOp(cmd, ctx, provider.Operation{Name: "Delete", Files: args})
		},
	}
}
