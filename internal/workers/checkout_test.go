package workers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"lockstep.dev/lockstep/internal/queue"
	"lockstep.dev/lockstep/internal/state"
	"lockstep.dev/lockstep/testhelpers"
)

func TestCheckOutLocksLockableFiles(t *testing.T) {
	f := testhelpers.NewFakeExec()
	deps, _ := newTestDeps(t, f)
	w := &CheckOutWorker{Deps: deps}

	hero := abs("Content/Hero.uasset")
	readme := abs("readme.md")
	cmd := queue.NewCommand("CheckOut", w, w.Client.Repo, []string{hero, readme})
	require.True(t, w.Execute(context.Background(), cmd))

	locksCalls := f.CallsMatching("lfs lock ")
	require.Len(t, locksCalls, 1)
	require.Contains(t, locksCalls[0].Argv(), "Content/Hero.uasset")
	require.NotContains(t, locksCalls[0].Argv(), "readme.md")

	require.Equal(t, state.LockLocked, cmd.Deltas[hero].Lock)
	require.Equal(t, "alice", cmd.Deltas[hero].LockOwner)
	_, hasReadme := cmd.Deltas[readme]
	require.False(t, hasReadme)
}

func TestCheckOutRequiresLFSLocking(t *testing.T) {
	f := testhelpers.NewFakeExec()
	deps, _ := newTestDeps(t, f)
	deps.Client.Repo.UsesLFSLocking = false
	w := &CheckOutWorker{Deps: deps}

	cmd := queue.NewCommand("CheckOut", w, w.Client.Repo, []string{abs("Content/Hero.uasset")})
	require.False(t, w.Execute(context.Background(), cmd))
	require.Empty(t, f.CallsMatching("lfs lock"))
}

func TestCheckOutNothingLockableIsANoOp(t *testing.T) {
	f := testhelpers.NewFakeExec()
	deps, _ := newTestDeps(t, f)
	w := &CheckOutWorker{Deps: deps}

	cmd := queue.NewCommand("CheckOut", w, w.Client.Repo, []string{abs("readme.md")})
	require.True(t, w.Execute(context.Background(), cmd))
	require.Empty(t, f.CallsMatching("lfs lock "))
	require.Empty(t, cmd.Errors())
}

func TestCheckOutEmptyFileListIsANoOp(t *testing.T) {
	f := testhelpers.NewFakeExec()
	deps, _ := newTestDeps(t, f)
	w := &CheckOutWorker{Deps: deps}

	cmd := queue.NewCommand("CheckOut", w, w.Client.Repo, nil)
	require.True(t, w.Execute(context.Background(), cmd))
	require.Empty(t, f.CallsMatching("lfs lock "))
}

func TestCheckOutSkipsFilesWeAlreadyLocked(t *testing.T) {
	f := testhelpers.NewFakeExec().
		On("lfs locks", testhelpers.Response{Stdout: "Content/Hero.uasset\talice\tID:1\n"})
	deps, _ := newTestDeps(t, f)
	w := &CheckOutWorker{Deps: deps}

	hero := abs("Content/Hero.uasset")
	cmd := queue.NewCommand("CheckOut", w, w.Client.Repo, []string{hero})
	require.True(t, w.Execute(context.Background(), cmd))

	// The lock is already ours: no second `lfs lock`, but the delta still
	// records the held lock.
	require.Empty(t, f.CallsMatching("lfs lock "))
	require.Equal(t, state.LockLocked, cmd.Deltas[hero].Lock)
	require.Equal(t, "alice", cmd.Deltas[hero].LockOwner)
}

func TestCheckOutLockFailure(t *testing.T) {
	f := testhelpers.NewFakeExec().
		On("lfs lock ", testhelpers.Response{Stderr: "lock already exists", Code: 1})
	deps, _ := newTestDeps(t, f)
	w := &CheckOutWorker{Deps: deps}

	hero := abs("Content/Hero.uasset")
	cmd := queue.NewCommand("CheckOut", w, w.Client.Repo, []string{hero})
	require.False(t, w.Execute(context.Background(), cmd))
	require.Empty(t, cmd.Deltas)
}
