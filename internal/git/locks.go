package git

import (
	"context"
	"path/filepath"
	"strings"

	lockerrors "lockstep.dev/lockstep/internal/errors"
)

// Lock is one held LFS lock.
type Lock struct {
	// Path is absolute
	Path  string
	Owner string
}

// ParseLockLine parses one line of `git lfs locks` output. Fields are
// tab-separated: path, owner, id. The cached and local listings omit the
// owner (or emit the id in its place), in which case the querying user owns
// the lock.
func ParseLockLine(root, line string, lockUser string) (Lock, bool) {
	fields := strings.Split(line, "\t")
	if len(fields) == 0 || strings.TrimSpace(fields[0]) == "" {
		return Lock{}, false
	}

	lock := Lock{Path: filepath.Join(root, strings.TrimSpace(fields[0]))}
	if len(fields) > 1 {
		lock.Owner = strings.TrimSpace(fields[1])
	}
	if lock.Owner == "" || strings.HasPrefix(lock.Owner, "ID:") {
		lock.Owner = lockUser
	}
	return lock, true
}

// GetLocks queries LFS locks with the given parameters and returns a map of
// absolute path to owner. With filterUser set, only that user's locks are
// returned.
func (c *Client) GetLocks(ctx context.Context, params []string, filterUser string) (map[string]string, error) {
	res, err := c.Driver.RunLFS(ctx, c.Repo, "locks", params, nil)
	if err != nil {
		return nil, &lockerrors.LockQueryError{Params: params, Message: strings.Join(res.Stderr, "\n")}
	}

	root := c.Repo.GitRoot
	if root == "" {
		root = c.Repo.RepositoryRoot
	}

	locks := map[string]string{}
	for _, line := range res.Stdout {
		lock, ok := ParseLockLine(root, line, c.Repo.LockUser)
		if !ok {
			continue
		}
		if filterUser != "" && lock.Owner != filterUser {
			continue
		}
		locks[lock.Path] = lock.Owner
	}
	return locks, nil
}

// LockFiles takes LFS locks on the given repo-relative files.
func (c *Client) LockFiles(ctx context.Context, files []string) error {
	if len(files) == 0 {
		return nil
	}
	_, err := c.Driver.RunLFS(ctx, c.Repo, "lock", nil, files)
	return err
}

// UnlockFiles releases LFS locks one file at a time and returns the absolute
// paths that were actually released. Success is judged per call: one failed
// unlock does not poison the rest, and earlier calls never influence later
// ones.
func (c *Client) UnlockFiles(ctx context.Context, files []string, force bool) ([]string, error) {
	root := c.Repo.GitRoot
	if root == "" {
		root = c.Repo.RepositoryRoot
	}

	var params []string
	if force {
		params = append(params, "--force")
	}

	var unlocked []string
	var firstErr error
	for _, file := range files {
		rel := file
		if filepath.IsAbs(file) {
			rel = RelativeFilenames([]string{file}, root)[0]
		}
		if _, err := c.Driver.RunLFS(ctx, c.Repo, "unlock", params, []string{rel}); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		abs := file
		if !filepath.IsAbs(file) {
			abs = filepath.Join(root, file)
		}
		unlocked = append(unlocked, abs)
	}
	return unlocked, firstErr
}
