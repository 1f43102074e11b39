package git

import (
	"path/filepath"
	"strings"
	"sync"
)

// RepoContext is the immutable-per-operation snapshot every command runs
// against. The provider populates it at command creation; commands may
// promote RepositoryRoot to a submodule root when all input files live
// under one.
type RepoContext struct {
	// BinaryPath is the git executable; empty means "git" from PATH
	BinaryPath string

	// LFSBinaryPath is a bundled git-lfs executable. When empty, lfs verbs
	// dispatch through `git lfs`.
	LFSBinaryPath string

	// RepositoryRoot is the working-copy root
	RepositoryRoot string

	// GitRoot is the directory containing .git, possibly a parent of
	// RepositoryRoot in submodule setups
	GitRoot string

	UsesLFSLocking bool

	// LockUser is the name locks are held under
	LockUser string

	// Lockable is the set of suffixes whose git attribute `lockable` is set
	Lockable *SuffixSet
}

// Snapshot returns a copy sharing the lockable set.
func (c *RepoContext) Snapshot() *RepoContext {
	cp := *c
	return &cp
}

// IsLockable reports whether the file's suffix carries the lockable attribute.
func (c *RepoContext) IsLockable(file string) bool {
	return c.Lockable != nil && c.Lockable.Matches(file)
}

// SuffixSet is a concurrency-safe set of filename suffixes, filled from
// `check-attr lockable` probes at connect time.
type SuffixSet struct {
	mu       sync.RWMutex
	suffixes map[string]struct{}
}

// NewSuffixSet creates an empty suffix set.
func NewSuffixSet() *SuffixSet {
	return &SuffixSet{suffixes: map[string]struct{}{}}
}

// AddPattern registers a suffix from a wildcard pattern: "*.uasset" becomes
// ".uasset". Patterns without a leading "*" are added verbatim.
func (s *SuffixSet) AddPattern(pattern string) {
	suffix := strings.TrimPrefix(pattern, "*")
	if suffix == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suffixes[suffix] = struct{}{}
}

// Matches reports whether the file ends with a registered suffix.
func (s *SuffixSet) Matches(file string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for suffix := range s.suffixes {
		if strings.HasSuffix(file, suffix) {
			return true
		}
	}
	return false
}

// Suffixes returns the registered suffixes.
func (s *SuffixSet) Suffixes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.suffixes))
	for suffix := range s.suffixes {
		out = append(out, suffix)
	}
	return out
}

// AbsoluteFilenames resolves repo-relative paths against root.
func AbsoluteFilenames(files []string, root string) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		if filepath.IsAbs(f) {
			out = append(out, filepath.Clean(f))
		} else {
			out = append(out, filepath.Join(root, f))
		}
	}
	return out
}

// RelativeFilenames converts absolute paths to paths relative to root. Files
// outside root are passed through unchanged.
func RelativeFilenames(files []string, root string) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		rel, err := filepath.Rel(root, f)
		if err != nil || strings.HasPrefix(rel, "..") {
			out = append(out, f)
			continue
		}
		out = append(out, rel)
	}
	return out
}
