package git

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"lockstep.dev/lockstep/internal/state"
)

// PorcelainLine is one parsed line of `status --porcelain` output: the index
// column, the working-tree column, and the filename.
type PorcelainLine struct {
	Index    byte
	Work     byte
	Filename string
}

// ParsePorcelainLine splits a porcelain status line into its two status
// columns and the filename.
func ParsePorcelainLine(line string) (PorcelainLine, bool) {
	if len(line) < 4 {
		return PorcelainLine{}, false
	}
	return PorcelainLine{
		Index:    line[0],
		Work:     line[1],
		Filename: FilenameFromGitStatus(line),
	}, true
}

// FilenameFromGitStatus extracts the filename from a porcelain status line,
// taking the rename target when the line carries one.
func FilenameFromGitStatus(line string) string {
	var name string
	if idx := strings.LastIndexByte(line, '>'); idx >= 0 {
		name = line[idx+2:]
	} else {
		name = line[3:]
	}
	name = strings.TrimSpace(name)
	name = strings.Trim(name, `"`)
	return filepath.ToSlash(name)
}

// ParseGitStatus maps the two porcelain status columns to file and tree
// states. A TreeUnset result means the line did not determine the tree
// dimension and the cached value must stand.
func ParseGitStatus(index, work byte) (state.FileState, state.TreeState) {
	// Conflicts first: either column U, or both-added / both-deleted
	if index == 'U' || work == 'U' || (index == 'A' && work == 'A') || (index == 'D' && work == 'D') {
		return state.FileUnmerged, state.TreeWorking
	}

	tree := state.TreeUnset
	if index == ' ' {
		tree = state.TreeWorking
	} else if work == ' ' {
		tree = state.TreeStaged
	}

	switch {
	case index == '?' || work == '?':
		return state.FileUnknown, state.TreeUntracked
	case index == '!' || work == '!':
		return state.FileUnknown, state.TreeIgnored
	case index == 'A':
		return state.FileAdded, tree
	case index == 'D':
		return state.FileDeleted, tree
	case work == 'D':
		return state.FileMissing, tree
	case index == 'M' || work == 'M':
		return state.FileModified, tree
	case index == 'R':
		return state.FileRenamed, tree
	case index == 'C':
		return state.FileCopied, tree
	default:
		return state.FileUnknown, tree
	}
}

// LockProvider supplies the full lock table lazily; the status parser calls
// it at most once and only when a lockable file actually needs enrichment.
type LockProvider func(ctx context.Context) (map[string]string, error)

// ParseFileStatusResult builds state deltas for explicitly requested files.
// Files absent from the porcelain output are probed on disk: present means
// clean, missing means not in the repository. Lockable files are enriched
// with lock ownership.
func (c *Client) ParseFileStatusResult(ctx context.Context, files, lines []string, getLocks LockProvider) map[string]state.Delta {
	root := c.Repo.RepositoryRoot
	byRel := porcelainByFilename(lines)

	var locks map[string]string
	locksLoaded := false

	results := make(map[string]state.Delta, len(files))
	for _, abs := range files {
		rel := filepath.ToSlash(RelativeFilenames([]string{abs}, root)[0])
		delta := state.Delta{}

		if entry, ok := byRel[rel]; ok {
			delta.File, delta.Tree = ParseGitStatus(entry.Index, entry.Work)
			if delta.File == state.FileUnmerged {
				if info := c.pendingResolveInfo(ctx, rel); info != nil {
					delta.PendingResolve = info
				}
			}
		} else if _, err := os.Stat(abs); err == nil {
			delta.File, delta.Tree = state.FileUnknown, state.TreeUnmodified
		} else {
			delta.File, delta.Tree = state.FileUnknown, state.TreeNotInRepo
		}

		if c.Repo.UsesLFSLocking && c.Repo.IsLockable(abs) && getLocks != nil {
			if !locksLoaded {
				locks, _ = getLocks(ctx)
				locksLoaded = true
			}
			if owner, ok := locks[abs]; ok {
				if owner == c.Repo.LockUser {
					delta.Lock = state.LockLocked
				} else {
					delta.Lock = state.LockLockedOther
				}
				delta.LockOwner = owner
			} else {
				delta.Lock = state.LockNotLocked
			}
		} else {
			delta.Lock = state.LockUnlockable
		}

		results[abs] = delta
	}
	return results
}

// ParseDirectoryStatusResult builds deltas from a directory status query.
// Only deleted, missing, and untracked entries are interesting here: the
// caller did not name these files, so clean ones carry no new information.
func (c *Client) ParseDirectoryStatusResult(lines []string) map[string]state.Delta {
	root := c.Repo.RepositoryRoot
	results := map[string]state.Delta{}
	for _, line := range lines {
		entry, ok := ParsePorcelainLine(line)
		if !ok {
			continue
		}
		file, tree := ParseGitStatus(entry.Index, entry.Work)
		if file != state.FileDeleted && file != state.FileMissing && tree != state.TreeUntracked {
			continue
		}
		abs := filepath.Join(root, filepath.FromSlash(entry.Filename))
		results[abs] = state.Delta{File: file, Tree: tree, Lock: state.LockUnset}
	}
	return results
}

// pendingResolveInfo reads the conflict stages for one file. Three unmerged
// entries mean a regular three-way conflict: stage 1 is the common base,
// stage 3 the remote side.
func (c *Client) pendingResolveInfo(ctx context.Context, rel string) *state.PendingResolveInfo {
	lines, err := c.LsFiles(ctx, true, rel)
	if err != nil || len(lines) != 3 {
		return nil
	}

	info := &state.PendingResolveInfo{}
	for _, line := range lines {
		tabIdx := strings.IndexByte(line, '\t')
		if tabIdx < 0 {
			continue
		}
		fields := strings.Fields(line[:tabIdx])
		if len(fields) != 3 {
			continue
		}
		path := line[tabIdx+1:]
		switch fields[2] {
		case "1":
			info.BaseFile = path
			info.BaseHash = fields[1]
		case "3":
			info.RemoteFile = path
			info.RemoteHash = fields[1]
		}
	}
	if info.BaseHash == "" && info.RemoteHash == "" {
		return nil
	}
	return info
}

func porcelainByFilename(lines []string) map[string]PorcelainLine {
	byRel := make(map[string]PorcelainLine, len(lines))
	for _, line := range lines {
		entry, ok := ParsePorcelainLine(line)
		if !ok {
			continue
		}
		byRel[entry.Filename] = entry
	}
	return byRel
}
