package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"lockstep.dev/lockstep/internal/provider"
	"lockstep.dev/lockstep/internal/runtime"
	"lockstep.dev/lockstep/internal/state"
)

// newStatusCmd creates the status command
func newStatusCmd() *cobra.Command {
	var changelists bool

	cmd := &cobra.Command{
		Use:   "status [files...]",
		Short: "Show the composite state of files",
		Long: `Show the composite state of files: working-tree status, lock ownership,
and whether the remote has newer versions. With no arguments the configured
content directories are scanned.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := getRuntime(cmd)
			if err != nil {
				return err
			}

			if err := runOp(cmd, ctx, provider.Operation{Name: "UpdateStatus", Files: args}); err != nil {
				return err
			}

			if changelists {
				if err := runOp(cmd, ctx, provider.Operation{Name: "UpdateChangelistsStatus"}); err != nil {
					return err
				}
				printChangelists(ctx)
				return nil
			}

			paths := args
			if len(paths) == 0 {
				paths = ctx.Provider.States.Paths()
				sort.Strings(paths)
			}

			states, err := ctx.Provider.GetState(cmd.Context(), paths, false)
			if err != nil {
				return err
			}
			for _, s := range states {
				if len(args) == 0 && s.Presentation() == state.PresentationUnmodified {
					continue
				}
				ctx.Splog.Page(fmt.Sprintf("%-12s %s", ctx.Provider.StatusText(s), ctx.Provider.RelativePath(s.Path)))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&changelists, "changelists", false, "Group output by staged/working changelist")

	return cmd
}

func printChangelists(ctx *runtime.Context) {
	for _, list := range []state.Changelist{state.ChangelistStaged, state.ChangelistWorking} {
		files := ctx.Provider.Changelists.Files(list)
		if len(files) == 0 {
			continue
		}
		ctx.Splog.Page(list.String() + ":")
		for _, f := range files {
			ctx.Splog.Page("  " + ctx.Provider.RelativePath(f))
		}
	}
}
