package cli

import (
	"github.com/spf13/cobra"

	"lockstep.dev/lockstep/internal/provider"
)

// newConnectCmd creates the connect command
func newConnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "connect",
		Short: "Verify the remote is reachable and prime the lock state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, err := getRuntime(cmd)
			if err != nil {
				return err
			}

			if err := runOp(cmd, ctx, provider.Operation{Name: "Connect"}); err != nil {
				return err
			}

			ctx.Splog.Info("Connected. git %s at %s", ctx.Provider.Version, ctx.RepoRoot)
			if url, ok := ctx.Provider.Client.GetRemoteURL(cmd.Context()); ok {
				ctx.Splog.Info("Remote: %s", url)
			}
			if ctx.Settings.GetUsingGitLfsLocking() {
				ctx.Splog.Info("LFS locking enabled as %q; lockable suffixes: %v",
					ctx.Provider.Client.Repo.LockUser,
					ctx.Provider.Client.Repo.Lockable.Suffixes())
			}
			return nil
		},
	}
}
