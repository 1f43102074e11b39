package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lockstep.dev/lockstep/internal/config"
	"lockstep.dev/lockstep/internal/git"
	"lockstep.dev/lockstep/internal/output"
)

// newInitCmd creates the init command
func newInitCmd() *cobra.Command {
	var (
		url            string
		lfsLocking     bool
		lfsUser        string
		contentDirs    []string
		statusBranches []string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a repository for lockstep",
		Long: `Initialize a git repository in the current directory, install the LFS
hooks, and write the lockstep settings. Safe to run on an existing
repository.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			splog := output.NewSplog()

			cwd, err := os.Getwd()
			if err != nil {
				return err
			}

			binary := git.FindGitBinary()
			if binary == "" {
				return fmt.Errorf("no git executable found")
			}

			repoCtx := &git.RepoContext{
				BinaryPath:     binary,
				RepositoryRoot: cwd,
				GitRoot:        cwd,
				Lockable:       git.NewSuffixSet(),
			}
			client := git.NewClient(git.NewDriver(), repoCtx, splog)

			if _, statErr := os.Stat(".git"); os.IsNotExist(statErr) {
				if err := client.Init(cmd.Context()); err != nil {
					return fmt.Errorf("git init failed: %w", err)
				}
				splog.Info("Initialized empty repository in %s", cwd)
			}

			if url != "" {
				if err := client.AddOrigin(cmd.Context(), url); err != nil {
					return fmt.Errorf("adding origin failed: %w", err)
				}
			}

			if lfsLocking {
				if err := client.LFSInstall(cmd.Context()); err != nil {
					return fmt.Errorf("git lfs install failed: %w", err)
				}
			}

			settings := &config.Settings{
				BinaryPath:           &binary,
				UsingGitLfsLocking:   &lfsLocking,
				StatusBranchPatterns: statusBranches,
				ContentDirs:          contentDirs,
			}
			if lfsUser != "" {
				settings.LfsUserName = &lfsUser
			}
			if err := config.SaveSettings(cwd, settings); err != nil {
				return err
			}

			splog.Info("Wrote settings. LFS locking: %v", lfsLocking)
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "Remote origin URL")
	cmd.Flags().BoolVar(&lfsLocking, "lfs", false, "Enable Git LFS file locking")
	cmd.Flags().StringVar(&lfsUser, "lfs-user", "", "User name locks are held under (defaults to git user.name)")
	cmd.Flags().StringSliceVar(&contentDirs, "content-dir", nil, "Directory tracked for status (repeatable)")
	cmd.Flags().StringSliceVar(&statusBranches, "status-branch", nil, "Remote branch pattern checked for newer versions (repeatable)")

	return cmd
}
