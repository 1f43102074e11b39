package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"lockstep.dev/lockstep/internal/output"
)

// newLocksCmd creates the locks command
func newLocksCmd() *cobra.Command {
	var ours bool
	var force bool

	cmd := &cobra.Command{
		Use:   "locks",
		Short: "List the LFS locks held on the repository",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, err := getRuntime(cmd)
			if err != nil {
				return err
			}

			locks, err := ctx.Provider.Locks.GetAllLocks(cmd.Context(), force)
			if err != nil {
				return fmt.Errorf("failed to query locks: %w", err)
			}

			lockUser := ctx.Provider.Client.Repo.LockUser
			paths := make([]string, 0, len(locks))
			for path := range locks {
				paths = append(paths, path)
			}
			sort.Strings(paths)

			for _, path := range paths {
				owner := locks[path]
				if ours && owner != lockUser {
					continue
				}
				style := output.StyleLockedOther
				if owner == lockUser {
					style = output.StyleLocked
				}
				ctx.Splog.Page(fmt.Sprintf("%-20s %s", output.Colorize(style, owner), ctx.Provider.RelativePath(path)))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&ours, "ours", false, "Show only locks held by the configured lock user")
	cmd.Flags().BoolVar(&force, "force", false, "Bypass the lock cache and query the server")

	return cmd
}
