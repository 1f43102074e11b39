package cli

import (
	"github.com/spf13/cobra"

	"lockstep.dev/lockstep/internal/provider"
)

// newCheckoutCmd creates the checkout command
func newCheckoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checkout <files...>",
		Short: "Take exclusive LFS locks on files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			if err := runOp(cmd, ctx, provider.Operation{Name: "CheckOut", Files: args}); err != nil {
				return err
			}
			ctx.Splog.Info("Locked %d file(s).", len(args))
			return nil
		},
	}
}
