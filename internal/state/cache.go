package state

import (
	"sync"
	"time"
)

// Delta is a partial state update staged by a worker. Dimensions left at
// their Unset zero value are not applied.
type Delta struct {
	File   FileState
	Tree   TreeState
	Lock   LockState
	Remote RemoteState

	LockOwner  string
	HeadBranch string
	HeadAction string

	PendingResolve *PendingResolveInfo
	History        []*Revision
}

// Cache maps absolute paths to their composite state. Mutation happens on the
// foreground tick only; reads may come from any goroutine and must treat the
// returned states as snapshots.
type Cache struct {
	mu          sync.RWMutex
	states      map[string]*State
	ignoreForce map[string]struct{}
	now         func() time.Time
}

// NewCache creates an empty state cache.
func NewCache() *Cache {
	return &Cache{
		states:      map[string]*State{},
		ignoreForce: map[string]struct{}{},
		now:         time.Now,
	}
}

// SetClock overrides the cache clock, for tests.
func (c *Cache) SetClock(now func() time.Time) {
	c.now = now
}

// Get returns the state for a path, creating a default entry on first query.
func (c *Cache) Get(path string) *State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getLocked(path)
}

func (c *Cache) getLocked(path string) *State {
	if s, ok := c.states[path]; ok {
		return s
	}
	s := NewState(path)
	c.states[path] = s
	return s
}

// Lookup returns the state for a path without creating one.
func (c *Cache) Lookup(path string) (*State, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.states[path]
	return s, ok
}

// Remove drops a path from the cache.
func (c *Cache) Remove(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.states, path)
}

// Paths returns the cached paths.
func (c *Cache) Paths() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	paths := make([]string, 0, len(c.states))
	for p := range c.states {
		paths = append(paths, p)
	}
	return paths
}

// Update merges a batch of deltas into the cache. Unset dimensions are left
// untouched. An Added delta for a file that is neither unknown nor addable is
// dropped: the transition is invalid and usually means a stale status line.
// Updated paths are added to the ignore-force set so the next forced refresh
// does not redo work just done.
func (c *Cache) Update(deltas map[string]Delta) bool {
	if len(deltas) == 0 {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for path, delta := range deltas {
		s := c.getLocked(path)

		if delta.File != FileUnset {
			// Invalid transition
			if delta.File == FileAdded && !s.IsUnknown() && !s.CanAdd() {
				continue
			}
			s.File = delta.File
		}

		if delta.Tree != TreeUnset {
			s.Tree = delta.Tree
		}

		// When updating lock state, also update the owner
		if delta.Lock != LockUnset {
			s.Lock = delta.Lock
			s.LockOwner = delta.LockOwner
		}

		if delta.Remote != RemoteUnset {
			s.Remote = delta.Remote
			if delta.Remote == RemoteUpToDate {
				s.HeadBranch = ""
				s.HeadAction = ""
			} else {
				s.HeadBranch = delta.HeadBranch
				s.HeadAction = delta.HeadAction
			}
		}

		if delta.PendingResolve != nil {
			s.PendingResolve = *delta.PendingResolve
		}

		if delta.History != nil {
			s.History = delta.History
		}

		s.TimeStamp = now

		// State was just refreshed, the next forced status run can skip it.
		c.ignoreForce[path] = struct{}{}
	}

	return true
}

// AddIgnoreForce marks a path so the next forced refresh skips it.
func (c *Cache) AddIgnoreForce(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ignoreForce[path] = struct{}{}
}

// ConsumeIgnoreForce reports whether the path was marked to skip a forced
// refresh, removing the mark.
func (c *Cache) ConsumeIgnoreForce(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.ignoreForce[path]; ok {
		delete(c.ignoreForce, path)
		return true
	}
	return false
}
