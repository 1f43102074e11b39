// Package locks caches LFS lock ownership so status refreshes do not hit the
// lock server on every query.
package locks

import (
	"context"
	"os"
	"sync"
	"time"

	"lockstep.dev/lockstep/internal/git"
	"lockstep.dev/lockstep/internal/output"
)

// CacheTTL is how long a lock query stays fresh.
const CacheTTL = 30 * time.Second

// Cache holds the last known lock table. Queries within the TTL are served
// from memory; a failed remote refresh falls back to git-lfs's own cached
// listings, and as a last resort to the stale table.
type Cache struct {
	Client *git.Client
	Log    *output.Splog

	mu        sync.Mutex
	locks     map[string]string
	lastQuery time.Time
	valid     bool
	now       func() time.Time
}

// NewCache creates an empty cache.
func NewCache(client *git.Client, log *output.Splog) *Cache {
	return &Cache{
		Client: client,
		Log:    log,
		locks:  map[string]string{},
		now:    time.Now,
	}
}

// SetClock overrides the time source.
func (c *Cache) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Invalidate forces the next GetAllLocks to query the server.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.valid = false
}

// GetAllLocks returns the lock table, absolute path to owner. With force, or
// after the TTL, the server is queried; otherwise the cached table is
// returned as-is.
func (c *Cache) GetAllLocks(ctx context.Context, force bool) (map[string]string, error) {
	c.mu.Lock()
	fresh := c.valid && c.now().Sub(c.lastQuery) < CacheTTL
	if fresh && !force {
		snapshot := copyLocks(c.locks)
		c.mu.Unlock()
		return snapshot, nil
	}
	c.mu.Unlock()

	locks, err := c.Client.GetLocks(ctx, nil, "")
	if err == nil {
		c.mu.Lock()
		c.setLockedFiles(locks)
		c.lastQuery = c.now()
		c.valid = true
		snapshot := copyLocks(c.locks)
		c.mu.Unlock()
		return snapshot, nil
	}

	if c.Log != nil {
		c.Log.Debug("lock server query failed, falling back to local listings: %v", err)
	}

	// The server is unreachable. git-lfs still knows which locks WE hold
	// from its own cache; other users' locks keep their last known value.
	lockUser := c.Client.Repo.LockUser
	ours, cachedErr := c.Client.GetLocks(ctx, []string{"--cached"}, lockUser)
	if cachedErr != nil {
		ours, cachedErr = c.Client.GetLocks(ctx, []string{"--local"}, lockUser)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if cachedErr == nil {
		merged := copyLocks(c.locks)
		for path, owner := range merged {
			if owner == lockUser {
				delete(merged, path)
			}
		}
		for path, owner := range ours {
			merged[path] = owner
		}
		c.setLockedFiles(merged)
		c.lastQuery = c.now()
		c.valid = true
		return copyLocks(c.locks), nil
	}

	if len(c.locks) > 0 {
		// Stale beats nothing
		return copyLocks(c.locks), nil
	}
	return nil, err
}

// setLockedFiles replaces the lock table, flipping the read-only attribute
// of any of OUR locks that appeared or disappeared in the transition. Other
// users' locks never touch the working copy. Caller holds c.mu.
func (c *Cache) setLockedFiles(locks map[string]string) {
	lockUser := c.Client.Repo.LockUser

	for path, owner := range c.locks {
		if owner != lockUser {
			continue
		}
		if newOwner, ok := locks[path]; !ok || newOwner != lockUser {
			setReadOnly(path, true)
		}
	}
	for path, owner := range locks {
		if owner != lockUser {
			continue
		}
		if oldOwner, ok := c.locks[path]; !ok || oldOwner != lockUser {
			setReadOnly(path, false)
		}
	}

	c.locks = locks
}

// AddLockedFile records a newly taken lock. When we are the owner the file
// is made writable.
func (c *Cache) AddLockedFile(path, owner string) {
	c.mu.Lock()
	c.locks[path] = owner
	c.mu.Unlock()

	if owner == c.Client.Repo.LockUser {
		setReadOnly(path, false)
	}
}

// RemoveLockedFile records a released lock. A file we owned goes back to
// read-only; other users' releases never touch the working copy.
func (c *Cache) RemoveLockedFile(path string) {
	c.mu.Lock()
	owner, ok := c.locks[path]
	delete(c.locks, path)
	c.mu.Unlock()

	if ok && owner == c.Client.Repo.LockUser {
		setReadOnly(path, true)
	}
}

func copyLocks(locks map[string]string) map[string]string {
	out := make(map[string]string, len(locks))
	for path, owner := range locks {
		out[path] = owner
	}
	return out
}

func setReadOnly(path string, readOnly bool) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	mode := info.Mode()
	if readOnly {
		mode &^= 0222
	} else {
		mode |= 0200
	}
	_ = os.Chmod(path, mode)
}
