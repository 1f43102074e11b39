package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"lockstep.dev/lockstep/internal/git"
	"lockstep.dev/lockstep/internal/provider"
)

// newCatCmd creates the cat command
func newCatCmd() *cobra.Command {
	var rev string

	cmd := &cobra.Command{
		Use:   "cat <file>",
		Short: "Print a past revision of a file, LFS content included",
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
				return fmt.Errorf("no history for %s", args[0])
			}

			revision := s.History[0]
			if rev != "" {
				revision = nil
				for _, r := range s.History {
					if strings.HasPrefix(r.CommitID, rev) {
						revision = r
						break
					}
				}
				if revision == nil {
					return fmt.Errorf("no revision of %s matching %q", args[0], rev)
				}
			}

			diffDir := filepath.Join(ctx.RepoRoot, ".git", "lockstep-diff")
			path, err := revision.Get(cmd.Context(), ctx.Provider.Client, diffDir)
			if err != nil {
				return err
			}

			content, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(content)
			return err
		},
	}

	cmd.Flags().StringVar(&rev, "rev", "", "Commit sha (or prefix) to read; defaults to the newest revision")

	return cmd
}
