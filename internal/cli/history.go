package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"lockstep.dev/lockstep/internal/git"
	"lockstep.dev/lockstep/internal/provider"
)

// newHistoryCmd creates the history command
func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <file>",
		Short: "Show the revision history of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := getRuntime(cmd)
			if err != nil {
				return err
			}

			op := provider.Operation{Name: "UpdateStatus", Files: args, WithHistory: true}
			if err := runOp(cmd, ctx, op); err != nil {
				return err
			}

			abs := git.AbsoluteFilenames(args, ctx.RepoRoot)[0]
			s, ok := ctx.Provider.States.Lookup(abs)
			if !ok || len(s.History) == 0 {
				ctx.Splog.Info("No history for %s.", args[0])
				return nil
			}

			for _, rev := range s.History {
				ctx.Splog.Page(fmt.Sprintf("#%d  %s  %s  %s  %s",
					rev.RevisionNumber,
					rev.ShortCommitID,
					rev.Date.Format("2006-01-02 15:04"),
					rev.UserName,
					rev.Action))
				if rev.Description != "" {
					ctx.Splog.Page("    " + rev.Description)
				}
				if rev.BranchSource != nil {
					ctx.Splog.Page("    renamed from " + rev.BranchSource.Filename)
				}
			}
			return nil
		},
	}
}
