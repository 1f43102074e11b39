package locks

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"lockstep.dev/lockstep/internal/output"
	"lockstep.dev/lockstep/testhelpers"
)

func newTestCache(t *testing.T, f *testhelpers.FakeExec) *Cache {
	t.Helper()
	client := testhelpers.NewTestClient(f, "/work/project")
	return NewCache(client, output.NewSplog())
}

func TestGetAllLocksServedFromCacheWithinTTL(t *testing.T) {
	f := testhelpers.NewFakeExec().
		On("lfs locks", testhelpers.Response{Stdout: "Content/Hero.uasset\talice\tID:1\n"})
	c := newTestCache(t, f)

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c.SetClock(func() time.Time { return now })

	locks, err := c.GetAllLocks(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, "alice", locks[filepath.Join("/work/project", "Content/Hero.uasset")])
	require.Len(t, f.CallsMatching("lfs locks"), 1)

	// Within the TTL the table is served from memory
	now = now.Add(CacheTTL - time.Second)
	_, err = c.GetAllLocks(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, f.CallsMatching("lfs locks"), 1)

	// Past the TTL the server is queried again
	now = now.Add(2 * time.Second)
	_, err = c.GetAllLocks(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, f.CallsMatching("lfs locks"), 2)
}

func TestGetAllLocksForceBypassesCache(t *testing.T) {
	f := testhelpers.NewFakeExec()
	c := newTestCache(t, f)

	_, err := c.GetAllLocks(context.Background(), false)
	require.NoError(t, err)
	_, err = c.GetAllLocks(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, f.CallsMatching("lfs locks"), 2)
}

func TestInvalidateForcesNextQuery(t *testing.T) {
	f := testhelpers.NewFakeExec()
	c := newTestCache(t, f)

	_, err := c.GetAllLocks(context.Background(), false)
	require.NoError(t, err)

	c.Invalidate()
	_, err = c.GetAllLocks(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, f.CallsMatching("lfs locks"), 2)
}

func TestGetAllLocksFallsBackToCachedListing(t *testing.T) {
	f := testhelpers.NewFakeExec().
		On("locks --cached", testhelpers.Response{Stdout: "Content/Hero.uasset\tID:7\n"}).
		On("lfs locks", testhelpers.Response{Stderr: "server unreachable", Code: 1})
	c := newTestCache(t, f)

	locks, err := c.GetAllLocks(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, "alice", locks[filepath.Join("/work/project", "Content/Hero.uasset")])
	require.NotEmpty(t, f.CallsMatching("locks --cached"))
}

func TestGetAllLocksFallbackKeepsOtherUsersLocks(t *testing.T) {
	f := testhelpers.NewFakeExec().
		On("lfs locks", testhelpers.Response{
			Stdout: "Content/Hero.uasset\talice\tID:1\nContent/Level.umap\tbob\tID:2\n",
		})
	c := newTestCache(t, f)

	_, err := c.GetAllLocks(context.Background(), false)
	require.NoError(t, err)

	// Server goes away; the local listing only knows our own locks
	f.Reset()
	f2 := testhelpers.NewFakeExec().
		On("locks --cached", testhelpers.Response{Stdout: "Content/Hero.uasset\tID:1\n"}).
		On("lfs locks", testhelpers.Response{Stderr: "server unreachable", Code: 1})
	c.Client.Driver.Exec = f2.Func()
	c.Invalidate()

	locks, err := c.GetAllLocks(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, "alice", locks[filepath.Join("/work/project", "Content/Hero.uasset")])
	require.Equal(t, "bob", locks[filepath.Join("/work/project", "Content/Level.umap")])
}

func TestGetAllLocksStaleBeatsNothing(t *testing.T) {
	f := testhelpers.NewFakeExec().
		On("lfs locks", testhelpers.Response{Stdout: "Content/Hero.uasset\tbob\tID:1\n"})
	c := newTestCache(t, f)

	_, err := c.GetAllLocks(context.Background(), false)
	require.NoError(t, err)

	// Every query path now fails; the stale table is still returned
	f2 := testhelpers.NewFakeExec().
		On("lfs locks", testhelpers.Response{Stderr: "server unreachable", Code: 1})
	c.Client.Driver.Exec = f2.Func()
	c.Invalidate()

	locks, err := c.GetAllLocks(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, "bob", locks[filepath.Join("/work/project", "Content/Hero.uasset")])
}

func TestGetAllLocksErrorWhenNothingKnown(t *testing.T) {
	f := testhelpers.NewFakeExec().
		On("lfs locks", testhelpers.Response{Stderr: "server unreachable", Code: 1})
	c := newTestCache(t, f)

	_, err := c.GetAllLocks(context.Background(), false)
	require.Error(t, err)
}

func TestRefreshFlipsReadOnlyWhenOwnLockAppears(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Hero.uasset")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0600))
	require.NoError(t, os.Chmod(path, 0400))

	f := testhelpers.NewFakeExec().
		On("lfs locks", testhelpers.Response{Stdout: "Hero.uasset\talice\tID:1\n"})
	c := NewCache(testhelpers.NewTestClient(f, dir), output.NewSplog())

	// A lock taken elsewhere (another client, the CLI) shows up on refresh
	// and the working copy follows: our own lock means writable.
	locks, err := c.GetAllLocks(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, "alice", locks[path])

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NotZero(t, info.Mode()&0200)
}

func TestRefreshFlipsReadOnlyWhenOwnLockDisappears(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Hero.uasset")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0600))

	f := testhelpers.NewFakeExec().
		On("lfs locks", testhelpers.Response{Stdout: "Hero.uasset\talice\tID:1\n"})
	c := NewCache(testhelpers.NewTestClient(f, dir), output.NewSplog())

	_, err := c.GetAllLocks(context.Background(), false)
	require.NoError(t, err)

	// The lock is released elsewhere: the next refresh returns an empty
	// table and the file goes back to read-only.
	f2 := testhelpers.NewFakeExec()
	c.Client.Driver.Exec = f2.Func()
	c.Invalidate()

	locks, err := c.GetAllLocks(context.Background(), false)
	require.NoError(t, err)
	require.Empty(t, locks)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Zero(t, info.Mode()&0222)
}

func TestRefreshLeavesOtherUsersFilesAlone(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Level.umap")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0600))
	require.NoError(t, os.Chmod(path, 0400))

	f := testhelpers.NewFakeExec().
		On("lfs locks", testhelpers.Response{Stdout: "Level.umap\tbob\tID:2\n"})
	c := NewCache(testhelpers.NewTestClient(f, dir), output.NewSplog())

	_, err := c.GetAllLocks(context.Background(), false)
	require.NoError(t, err)

	f2 := testhelpers.NewFakeExec()
	c.Client.Driver.Exec = f2.Func()
	c.Invalidate()

	_, err = c.GetAllLocks(context.Background(), false)
	require.NoError(t, err)

	// bob's lock came and went without touching the working copy
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Zero(t, info.Mode()&0200)
}

func TestAddLockedFileMakesOwnFileWritable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Hero.uasset")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0600))
	require.NoError(t, os.Chmod(path, 0400))

	c := newTestCache(t, testhelpers.NewFakeExec())
	c.AddLockedFile(path, "alice")

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NotZero(t, info.Mode()&0200)

	c.RemoveLockedFile(path)
	info, err = os.Stat(path)
	require.NoError(t, err)
	require.Zero(t, info.Mode()&0222)
}

func TestAddLockedFileLeavesOtherUsersFilesAlone(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Level.umap")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0600))
	require.NoError(t, os.Chmod(path, 0400))

	c := newTestCache(t, testhelpers.NewFakeExec())
	c.AddLockedFile(path, "bob")

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Zero(t, info.Mode()&0200)

	c.RemoveLockedFile(path)
	info, err = os.Stat(path)
	require.NoError(t, err)
	require.Zero(t, info.Mode()&0200)
}
