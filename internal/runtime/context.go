package runtime

import (
	"context"
	"os"

	"lockstep.dev/lockstep/internal/config"
	"lockstep.dev/lockstep/internal/git"
	"lockstep.dev/lockstep/internal/host"
	"lockstep.dev/lockstep/internal/output"
	"lockstep.dev/lockstep/internal/provider"
)

// Context provides access to the provider and output for commands.
type Context struct {
	Provider *provider.Provider
	Splog    *output.Splog
	Settings *config.Settings
	RepoRoot string
}

// GetContext builds the runtime context for the repository containing the
// current working directory.
func GetContext(ctx context.Context, h host.Host) (*Context, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return GetContextAt(ctx, cwd, h)
}

// GetContextAt builds the runtime context for the repository containing dir.
func GetContextAt(ctx context.Context, dir string, h host.Host) (*Context, error) {
	splog := output.NewSplog()

	repo, err := git.OpenRepository(dir)
	if err != nil {
		return nil, err
	}

	settings, err := config.GetSettings(repo.Root())
	if err != nil {
		return nil, err
	}

	p, err := provider.New(ctx, repo.Root(), settings, h, splog)
	if err != nil {
		return nil, err
	}
	p.RegisterStatusBranches(settings.GetStatusBranchPatterns())

	return &Context{
		Provider: p,
		Splog:    splog,
		Settings: settings,
		RepoRoot: p.Client.Repo.RepositoryRoot,
	}, nil
}
