package state

import (
	"sort"
	"sync"
)

// Changelist identifies one of the two fixed pending-change buckets derived
// from the git index/working-tree split.
type Changelist int

const (
	ChangelistNone Changelist = iota
	ChangelistStaged
	ChangelistWorking
)

func (c Changelist) String() string {
	switch c {
	case ChangelistStaged:
		return "Staged"
	case ChangelistWorking:
		return "Working"
	default:
		return "None"
	}
}

// Changelists holds the Staged and Working buckets. They are rebuilt wholesale
// from porcelain status output; membership is by absolute path.
type Changelists struct {
	mu      sync.RWMutex
	staged  map[string]struct{}
	working map[string]struct{}
	byPath  map[string]Changelist
}

// NewChangelists creates empty buckets.
func NewChangelists() *Changelists {
	c := &Changelists{}
	c.reset()
	return c
}

func (c *Changelists) reset() {
	c.staged = map[string]struct{}{}
	c.working = map[string]struct{}{}
	c.byPath = map[string]Changelist{}
}

// Rebuild replaces both buckets from porcelain lines already resolved to
// absolute paths. Column X (index) wins over column Y (working tree) when a
// file shows in both; the losing bucket drops the file. Returns the paths
// assigned to Staged so the caller can restage saved files.
func (c *Changelists) Rebuild(entries []PorcelainEntry) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.reset()

	var staged []string
	for _, e := range entries {
		// Staged check
		if e.IndexStatus != ' ' {
			delete(c.working, e.Path)
			c.staged[e.Path] = struct{}{}
			c.byPath[e.Path] = ChangelistStaged
			staged = append(staged, e.Path)
			continue
		}
		// Working check
		if e.WorkStatus != ' ' {
			delete(c.staged, e.Path)
			c.working[e.Path] = struct{}{}
			c.byPath[e.Path] = ChangelistWorking
		}
	}
	return staged
}

// PorcelainEntry is one pre-parsed `status --porcelain` line.
type PorcelainEntry struct {
	IndexStatus byte
	WorkStatus  byte
	Path        string
}

// Move reassigns a path to a bucket, dropping it from the other.
func (c *Changelists) Move(path string, list Changelist) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.staged, path)
	delete(c.working, path)
	delete(c.byPath, path)

	switch list {
	case ChangelistStaged:
		c.staged[path] = struct{}{}
		c.byPath[path] = ChangelistStaged
	case ChangelistWorking:
		c.working[path] = struct{}{}
		c.byPath[path] = ChangelistWorking
	}
}

// Of returns the changelist a path currently belongs to.
func (c *Changelists) Of(path string) Changelist {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.byPath[path]
}

// Files returns the sorted members of a bucket.
func (c *Changelists) Files(list Changelist) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var bucket map[string]struct{}
	switch list {
	case ChangelistStaged:
		bucket = c.staged
	case ChangelistWorking:
		bucket = c.working
	default:
		return nil
	}

	files := make([]string, 0, len(bucket))
	for f := range bucket {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}
