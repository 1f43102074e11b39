package cli

import (
	"github.com/spf13/cobra"

	"lockstep.dev/lockstep/internal/provider"
)

// newResolveCmd creates the resolve command
func newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <files...>",
		Short: "Accept the working-tree content of conflicted files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			return runOp(cmd, ctx, provider.Operation{Name: "Resolve", Files: args})
		},
	}
}
