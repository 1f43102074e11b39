package workers

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"lockstep.dev/lockstep/internal/queue"
	"lockstep.dev/lockstep/internal/state"
	"lockstep.dev/lockstep/testhelpers"
)

func TestUpdateStatusNeverTakesTheIndexLock(t *testing.T) {
	f := testhelpers.NewFakeExec().
		On("status --porcelain", testhelpers.Response{Stdout: " M Content/Hero.uasset\n"})
	deps, _ := newTestDeps(t, f)
	w := &UpdateStatusWorker{Deps: deps}

	cmd := queue.NewCommand("UpdateStatus", w, w.Client.Repo, []string{abs("Content/Hero.uasset")})
	require.True(t, w.Execute(context.Background(), cmd))

	statusCalls := f.CallsMatching("status --porcelain")
	require.NotEmpty(t, statusCalls)
	for _, call := range statusCalls {
		require.True(t, strings.Contains(call.Argv(), "--no-optional-locks status"),
			"status must always run with --no-optional-locks: %s", call.Argv())
	}
}

func TestUpdateStatusProducesDeltas(t *testing.T) {
	f := testhelpers.NewFakeExec().
		On("status --porcelain", testhelpers.Response{Stdout: " M Content/Hero.uasset\n"}).
		On("lfs locks", testhelpers.Response{Stdout: "Content/Hero.uasset\tbob\tID:9\n"})
	deps, _ := newTestDeps(t, f)
	w := &UpdateStatusWorker{Deps: deps}

	hero := abs("Content/Hero.uasset")
	cmd := queue.NewCommand("UpdateStatus", w, w.Client.Repo, []string{hero})
	require.True(t, w.Execute(context.Background(), cmd))

	delta := cmd.Deltas[hero]
	require.Equal(t, state.FileModified, delta.File)
	require.Equal(t, state.TreeWorking, delta.Tree)
	require.Equal(t, state.LockLockedOther, delta.Lock)
	require.Equal(t, "bob", delta.LockOwner)
	require.Equal(t, state.RemoteUpToDate, delta.Remote)
}

func TestUpdateStatusRecordsCommitInfo(t *testing.T) {
	f := testhelpers.NewFakeExec().
		On("status --porcelain", testhelpers.Response{Stdout: " M Content/Hero.uasset\n"}).
		On("--format=%H %s", testhelpers.Response{Stdout: testSHA + " Update hero mesh\n"})
	deps, _ := newTestDeps(t, f)
	w := &UpdateStatusWorker{Deps: deps}

	cmd := queue.NewCommand("UpdateStatus", w, w.Client.Repo, []string{abs("Content/Hero.uasset")})
	require.True(t, w.Execute(context.Background(), cmd))

	require.Equal(t, testSHA, cmd.CommitID)
	require.Equal(t, "Update hero mesh", cmd.CommitSummary)
}

func TestUpdateStatusSetsPendingRestart(t *testing.T) {
	f := testhelpers.NewFakeExec().
		On("--symbolic-full-name", testhelpers.Response{Stdout: "origin/main\n"}).
		On("..origin/main", testhelpers.Response{Stdout: "Binaries/Win64/Game.dll\n"})
	deps, _ := newTestDeps(t, f)
	w := &UpdateStatusWorker{Deps: deps}

	cmd := queue.NewCommand("UpdateStatus", w, w.Client.Repo, []string{abs("Content/Hero.uasset")})
	require.True(t, w.Execute(context.Background(), cmd))
	require.True(t, deps.PendingRestart.Load())
}

func TestFetchRefreshesLocksBeforeFetching(t *testing.T) {
	f := testhelpers.NewFakeExec()
	deps, _ := newTestDeps(t, f)
	w := &FetchWorker{Deps: deps}

	cmd := queue.NewCommand("Fetch", w, w.Client.Repo, nil)
	require.True(t, w.Execute(context.Background(), cmd))

	require.NotEmpty(t, f.CallsMatching("lfs locks"))
	require.NotEmpty(t, f.CallsMatching("fetch --no-tags --prune"))
	// Without UpdateStatus no porcelain status runs
	require.Empty(t, f.CallsMatching("status --porcelain"))
}

func TestFetchWithUpdateStatus(t *testing.T) {
	f := testhelpers.NewFakeExec()
	deps, _ := newTestDeps(t, f)
	w := &FetchWorker{Deps: deps, UpdateStatus: true}

	cmd := queue.NewCommand("Fetch", w, w.Client.Repo, []string{abs("Content/Hero.uasset")})
	require.True(t, w.Execute(context.Background(), cmd))
	require.NotEmpty(t, f.CallsMatching("status --porcelain"))
}
