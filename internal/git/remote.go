package git

import (
	"context"
	"path/filepath"
	"strings"

	"lockstep.dev/lockstep/internal/state"
)

// binaryArtifactPrefixes are the non-lockable paths whose remote changes mean
// the running host must restart to pick up new binaries.
var binaryArtifactPrefixes = []string{"Binaries/", "Plugins/"}

// CheckRemote diffs the local HEAD against the current upstream and every
// configured status branch, marking files in onto that have newer remote
// versions. Only files already present in onto are touched: remote-only
// knowledge about files nobody asked for is dropped.
//
// The returned pendingRestart is true when the current upstream carries new
// binary artifacts (checksum file, Binaries, Plugins).
func (c *Client) CheckRemote(ctx context.Context, statusBranchPatterns, contentDirs []string, onto map[string]state.Delta) (bool, error) {
	currentUpstream, hasUpstream := c.GetRemoteBranchName(ctx)

	var branches []string
	seen := map[string]bool{}
	for _, pattern := range statusBranchPatterns {
		for _, branch := range c.GetRemoteBranchesWildcard(ctx, pattern) {
			if !seen[branch] {
				seen[branch] = true
				branches = append(branches, branch)
			}
		}
	}
	if hasUpstream && !seen[currentUpstream] {
		branches = append(branches, currentUpstream)
	}
	if len(branches) == 0 {
		return false, nil
	}

	root := c.Repo.RepositoryRoot
	filesToDiff := make([]string, 0, len(contentDirs)+3)
	for _, dir := range contentDirs {
		filesToDiff = append(filesToDiff, AbsoluteFilenames([]string{dir}, root)[0])
	}
	filesToDiff = append(filesToDiff, ".checksum", "Binaries/", "Plugins/")

	pendingRestart := false
	newerFiles := map[string]string{}
	var firstErr error

	for _, branch := range branches {
		lines, err := c.GetLog(ctx, []string{"--pretty=", "--name-only", ".." + branch}, filesToDiff)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		onCurrent := hasUpstream && branch == currentUpstream
		for _, rel := range lines {
			abs := filepath.Join(root, filepath.FromSlash(rel))
			if c.Repo.IsLockable(abs) {
				// The current upstream wins over other status branches
				if _, exists := newerFiles[abs]; !exists || onCurrent {
					newerFiles[abs] = branch
				}
				continue
			}
			if onCurrent && isBinaryArtifact(rel) {
				pendingRestart = true
			}
		}
	}

	for abs, branch := range newerFiles {
		delta, ok := onto[abs]
		if !ok {
			continue
		}
		if hasUpstream && branch == currentUpstream {
			delta.Remote = state.RemoteNotAtHead
		} else {
			delta.Remote = state.RemoteNotLatest
		}
		delta.HeadBranch = branch
		onto[abs] = delta
	}

	return pendingRestart, firstErr
}

func isBinaryArtifact(rel string) bool {
	lower := strings.ToLower(filepath.ToSlash(rel))
	if strings.HasSuffix(lower, ".checksum") {
		return true
	}
	for _, prefix := range binaryArtifactPrefixes {
		if strings.HasPrefix(lower, strings.ToLower(prefix)) {
			return true
		}
	}
	return false
}
