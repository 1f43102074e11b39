package git

import (
	"fmt"
	"path/filepath"
	"sync"

	gogit "github.com/go-git/go-git/v5"
	gogitconfig "github.com/go-git/go-git/v5/config"
)

// goGitMu synchronizes go-git operations to prevent concurrent packfile access
var goGitMu sync.Mutex

// Repository wraps a go-git repository, used for in-process reads that need
// no subprocess: root discovery and user identity.
type Repository struct {
	*gogit.Repository
	root string
}

// OpenRepository opens the repository containing path, walking up to find
// the .git directory.
func OpenRepository(path string) (*Repository, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	goGitMu.Lock()
	defer goGitMu.Unlock()

	repo, err := gogit.PlainOpenWithOptions(absPath, &gogit.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}

	root := absPath
	if wt, err := repo.Worktree(); err == nil {
		root = wt.Filesystem.Root()
	}

	return &Repository{
		Repository: repo,
		root:       root,
	}, nil
}

// Root returns the working-copy root directory.
func (r *Repository) Root() string {
	return r.root
}

// UserIdentity returns the configured user.name and user.email, merging
// repository config over the global one.
func (r *Repository) UserIdentity() (name, email string, err error) {
	goGitMu.Lock()
	defer goGitMu.Unlock()

	cfg, err := r.ConfigScoped(gogitconfig.SystemScope)
	if err != nil {
		return "", "", fmt.Errorf("failed to read config: %w", err)
	}
	return cfg.User.Name, cfg.User.Email, nil
}

// CurrentBranch returns the short name of the checked-out branch.
func (r *Repository) CurrentBranch() (string, error) {
	goGitMu.Lock()
	defer goGitMu.Unlock()

	head, err := r.Head()
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		return "", fmt.Errorf("HEAD is not on a branch")
	}
	return head.Name().Short(), nil
}
