package git

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"lockstep.dev/lockstep/internal/output"
)

// Client is the typed helper surface over the driver, one method per verb.
type Client struct {
	Driver *Driver
	Repo   *RepoContext
	Log    *output.Splog

	mu               sync.Mutex
	branchName       string
	remoteBranchName string
	warnedNoUpstream bool
	warnedNoBranches map[string]bool
}

// NewClient creates a client for a repository context.
func NewClient(driver *Driver, repo *RepoContext, log *output.Splog) *Client {
	return &Client{
		Driver:           driver,
		Repo:             repo,
		Log:              log,
		warnedNoBranches: map[string]bool{},
	}
}

// GetConfig reads a git config key from local+global config, returning ""
// when unset.
func (c *Client) GetConfig(ctx context.Context, key string) string {
	res, err := c.Driver.Run(ctx, c.Repo, "config", []string{key}, nil)
	if err != nil || len(res.Stdout) == 0 {
		return ""
	}
	return res.Stdout[0]
}

// GetBranchName returns the current branch. On a detached HEAD it returns
// "HEAD detached at <sha>" and false; callers must check the bool, never the
// string alone.
func (c *Client) GetBranchName(ctx context.Context) (string, bool) {
	c.mu.Lock()
	if c.branchName != "" {
		name := c.branchName
		c.mu.Unlock()
		return name, true
	}
	c.mu.Unlock()

	res, err := c.Driver.Run(ctx, c.Repo, "symbolic-ref", []string{"--short", "--quiet", "HEAD"}, nil)
	if err == nil && len(res.Stdout) > 0 {
		c.mu.Lock()
		c.branchName = res.Stdout[0]
		c.mu.Unlock()
		return res.Stdout[0], true
	}

	res, err = c.GetLogResult(ctx, []string{"-1", "--format=%h"}, nil)
	if err == nil && len(res.Stdout) > 0 {
		return "HEAD detached at " + res.Stdout[0], false
	}

	return "", false
}

// GetRemoteBranchName returns the upstream of the current branch. Warns
// exactly once per client lifetime when there is none.
func (c *Client) GetRemoteBranchName(ctx context.Context) (string, bool) {
	c.mu.Lock()
	if c.remoteBranchName != "" {
		name := c.remoteBranchName
		c.mu.Unlock()
		return name, true
	}
	c.mu.Unlock()

	res, err := c.Driver.Run(ctx, c.Repo, "rev-parse", []string{"--abbrev-ref", "--symbolic-full-name", "@{u}"}, nil)
	if err == nil && len(res.Stdout) > 0 {
		c.mu.Lock()
		c.remoteBranchName = res.Stdout[0]
		c.mu.Unlock()
		return res.Stdout[0], true
	}

	c.mu.Lock()
	warned := c.warnedNoUpstream
	c.warnedNoUpstream = true
	c.mu.Unlock()
	if !warned && c.Log != nil {
		c.Log.Warn("Upstream branch not found for the current branch, skipping current branch for remote check. Please push a remote branch.")
	}

	return "", false
}

// InvalidateBranchCache clears the cached branch names, for use after
// checkout or pull operations that may move HEAD.
func (c *Client) InvalidateBranchCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.branchName = ""
	c.remoteBranchName = ""
}

// GetRemoteURL returns the origin URL.
func (c *Client) GetRemoteURL(ctx context.Context) (string, bool) {
	res, err := c.Driver.Run(ctx, c.Repo, "remote", []string{"get-url", "origin"}, nil)
	if err != nil || len(res.Stdout) == 0 {
		return "", false
	}
	return res.Stdout[0], true
}

// GetRemoteBranchesWildcard resolves a status-branch pattern to concrete
// remote branches. Warns once per pattern when nothing matches.
func (c *Client) GetRemoteBranchesWildcard(ctx context.Context, pattern string) []string {
	res, err := c.Driver.Run(ctx, c.Repo, "branch", []string{"--remotes", "--list"}, []string{pattern})
	if err == nil && len(res.Stdout) > 0 {
		branches := make([]string, 0, len(res.Stdout))
		for _, line := range res.Stdout {
			branches = append(branches, strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "*")))
		}
		return branches
	}

	c.mu.Lock()
	warned := c.warnedNoBranches[pattern]
	c.warnedNoBranches[pattern] = true
	c.mu.Unlock()
	if !warned && c.Log != nil {
		c.Log.Warn("No remote branches matching pattern %q were found.", pattern)
	}
	return nil
}

// GetCommitInfo returns the sha and summary of the HEAD commit.
func (c *Client) GetCommitInfo(ctx context.Context) (string, string, error) {
	res, err := c.GetLogResult(ctx, []string{"-1", "--format=%H %s"}, nil)
	if err != nil {
		return "", "", err
	}
	if len(res.Stdout) == 0 {
		return "", "", fmt.Errorf("empty log output")
	}
	line := res.Stdout[0]
	if len(line) <= 41 {
		return line, "", nil
	}
	return line[:40], line[41:], nil
}

// GetLog runs `git log` with the given parameters and files and returns the
// output lines.
func (c *Client) GetLog(ctx context.Context, params, files []string) ([]string, error) {
	res, err := c.GetLogResult(ctx, params, files)
	if err != nil {
		return nil, err
	}
	return res.Stdout, nil
}

// GetLogResult is GetLog returning the full result.
func (c *Client) GetLogResult(ctx context.Context, params, files []string) (*Result, error) {
	if len(files) > 0 {
		params = append(append([]string{}, params...), "--")
		return c.Driver.Run(ctx, c.Repo, "log", params, files)
	}
	return c.Driver.Run(ctx, c.Repo, "log", params, nil)
}

// StatusNoLocks runs a read-only porcelain status. The --no-optional-locks
// flag is mandatory: status must never take the index lock when only querying.
func (c *Client) StatusNoLocks(ctx context.Context, all bool, files []string) ([]string, error) {
	params := []string{"--porcelain"}
	if all {
		params = append(params, "-uall")
	}
	res, err := c.Driver.Run(ctx, c.Repo, "--no-optional-locks status", params, files)
	if err != nil {
		return nil, err
	}
	return res.Stdout, nil
}

// FetchRemote fetches from origin without tags, pruning deleted refs.
func (c *Client) FetchRemote(ctx context.Context) error {
	_, err := c.Driver.Run(ctx, c.Repo, "fetch", []string{"--no-tags", "--prune"}, nil)
	return err
}

// Pull rebases local work onto the upstream, autostashing local edits.
func (c *Client) Pull(ctx context.Context) error {
	_, err := c.Driver.Run(ctx, c.Repo, "pull", []string{"--rebase", "--autostash"}, nil)
	return err
}

// LsRemote asks the remote for its refs; used as a connectivity probe.
func (c *Client) LsRemote(ctx context.Context, printURL, headsOnly bool) error {
	var params []string
	if !printURL {
		params = append(params, "-q")
	}
	if headsOnly {
		params = append(params, "-h")
	}
	_, err := c.Driver.Run(ctx, c.Repo, "ls-remote", params, nil)
	return err
}

// Add stages files; with all, stages everything.
func (c *Client) Add(ctx context.Context, all bool, files []string) error {
	if len(files) == 0 && !all {
		return nil
	}
	var params []string
	if all {
		params = append(params, "-A")
	}
	_, err := c.Driver.Run(ctx, c.Repo, "add", params, files)
	return err
}

// Remove marks files for delete.
func (c *Client) Remove(ctx context.Context, files []string) error {
	if len(files) == 0 {
		return nil
	}
	_, err := c.Driver.Run(ctx, c.Repo, "rm", nil, files)
	return err
}

// Commit records the staged snapshot with the message read from msgFile.
func (c *Client) Commit(ctx context.Context, msgFile string) (*Result, error) {
	abs, err := filepath.Abs(msgFile)
	if err != nil {
		abs = msgFile
	}
	return c.Driver.Run(ctx, c.Repo, "commit", []string{"--file=" + abs}, nil)
}

// Push pushes with the given parameters, returning the raw result so callers
// can classify rejections.
func (c *Client) Push(ctx context.Context, params []string) (*Result, error) {
	return c.Driver.Run(ctx, c.Repo, "push", params, nil)
}

// Reset unstages everything; with hard, also discards working-tree changes.
func (c *Client) Reset(ctx context.Context, hard bool) error {
	var params []string
	if hard {
		params = append(params, "--hard")
	}
	_, err := c.Driver.Run(ctx, c.Repo, "reset", params, nil)
	return err
}

// Clean removes untracked files; with dirs, untracked directories too.
func (c *Client) Clean(ctx context.Context, force, dirs bool) error {
	var params []string
	if force {
		params = append(params, "-f")
	}
	if dirs {
		params = append(params, "-d")
	}
	_, err := c.Driver.Run(ctx, c.Repo, "clean", params, nil)
	return err
}

// Checkout restores files from the index.
func (c *Client) Checkout(ctx context.Context, files []string) error {
	if len(files) == 0 {
		return nil
	}
	_, err := c.Driver.Run(ctx, c.Repo, "checkout", nil, files)
	return err
}

// Restore restores working-tree files; with staged, unstages them instead.
func (c *Client) Restore(ctx context.Context, staged bool, files []string) error {
	if len(files) == 0 {
		return nil
	}
	var params []string
	if staged {
		params = append(params, "--staged")
	}
	_, err := c.Driver.Run(ctx, c.Repo, "restore", params, files)
	return err
}

// Diff runs `git diff` with raw parameters and returns the output lines.
func (c *Client) Diff(ctx context.Context, params []string) ([]string, error) {
	res, err := c.Driver.Run(ctx, c.Repo, "diff", params, nil)
	if err != nil {
		return nil, err
	}
	return res.Stdout, nil
}

// LsFiles lists tracked files under path; with unmerged, lists conflict
// stages instead.
func (c *Client) LsFiles(ctx context.Context, unmerged bool, path string) ([]string, error) {
	var params []string
	if unmerged {
		params = append(params, "--unmerged")
	}
	var files []string
	if path != "" {
		files = []string{path}
	}
	res, err := c.Driver.Run(ctx, c.Repo, "ls-files", params, files)
	if err != nil {
		return nil, err
	}
	return res.Stdout, nil
}

// LsTree lists tree objects for a file at a revision.
func (c *Client) LsTree(ctx context.Context, params []string, file string) ([]string, error) {
	res, err := c.Driver.Run(ctx, c.Repo, "ls-tree", params, []string{file})
	if err != nil {
		return nil, err
	}
	return res.Stdout, nil
}

// Stash saves or pops the working-tree stash.
func (c *Client) Stash(ctx context.Context, save bool) error {
	var params []string
	if save {
		params = []string{"save", "Stashed by lockstep"}
	} else {
		params = []string{"pop"}
	}
	_, err := c.Driver.Run(ctx, c.Repo, "stash", params, nil)
	return err
}

// Init initializes a repository at the repository root.
func (c *Client) Init(ctx context.Context) error {
	_, err := c.Driver.Run(ctx, c.Repo, "init", nil, nil)
	return err
}

// AddOrigin registers the origin remote.
func (c *Client) AddOrigin(ctx context.Context, url string) error {
	_, err := c.Driver.Run(ctx, c.Repo, "remote", []string{"add", "origin", url}, nil)
	return err
}

// LFSInstall installs the LFS hooks into the repository.
func (c *Client) LFSInstall(ctx context.Context) error {
	_, err := c.Driver.RunLFS(ctx, c.Repo, "install", nil, nil)
	return err
}

// CheckIgnore reports whether a file is ignored.
func (c *Client) CheckIgnore(ctx context.Context, file string) bool {
	_, err := c.Driver.Run(ctx, c.Repo, "check-ignore", nil, []string{file})
	return err == nil
}

// RemoveIgnoredFiles partitions files into kept and ignored. One invocation
// per file on purpose: ignored files are rare and batching changes semantics.
func (c *Client) RemoveIgnoredFiles(ctx context.Context, files []string) (kept, ignored []string) {
	for _, file := range files {
		if c.CheckIgnore(ctx, file) {
			ignored = append(ignored, file)
		} else {
			kept = append(kept, file)
		}
	}
	return kept, ignored
}

// CheckLFSLockable probes the lockable attribute for the given wildcard
// patterns and registers matching suffixes on the repository context.
func (c *Client) CheckLFSLockable(ctx context.Context, patterns []string) error {
	if len(patterns) == 0 {
		return nil
	}
	res, err := c.Driver.Run(ctx, c.Repo, "check-attr", []string{"lockable"}, patterns)
	if err != nil {
		return err
	}
	for i, pattern := range patterns {
		if i < len(res.Stdout) && strings.HasSuffix(res.Stdout[i], "set") && !strings.HasSuffix(res.Stdout[i], "unset") {
			c.Repo.Lockable.AddPattern(pattern)
		}
	}
	return nil
}

// DumpToFile writes `<rev>:<file>` blob content, with LFS filters applied,
// to outPath. LFS progress is redirected away from stdout so it cannot
// corrupt the blob; a leading "Downloading" line is stripped if one slips
// through anyway.
func (c *Client) DumpToFile(ctx context.Context, revSpec, outPath, repoRootOverride string) error {
	repo := c.Repo
	if repoRootOverride != "" {
		repo = c.Repo.Snapshot()
		repo.RepositoryRoot = repoRootOverride
	}

	env := []string{"GIT_LFS_PROGRESS=" + os.DevNull}
	res, err := c.Driver.RunWithEnv(ctx, repo, env, "cat-file", []string{"--filters"}, []string{revSpec})
	if err != nil {
		return err
	}

	raw := res.Raw
	if strings.HasPrefix(raw, "Downloading ") {
		if idx := strings.IndexByte(raw, '\n'); idx >= 0 {
			raw = raw[idx+1:]
		}
	}

	return os.WriteFile(outPath, []byte(raw), 0600)
}
