package workers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"lockstep.dev/lockstep/internal/queue"
	"lockstep.dev/lockstep/internal/state"
	"lockstep.dev/lockstep/testhelpers"
)

func TestMoveToStagedAddsFiles(t *testing.T) {
	f := testhelpers.NewFakeExec()
	deps, _ := newTestDeps(t, f)
	w := &MoveToChangelistWorker{Deps: deps}

	hero := abs("Content/Hero.uasset")
	cmd := queue.NewCommand("MoveToChangelist", w, w.Client.Repo, []string{hero})
	cmd.Changelist = state.ChangelistStaged

	require.True(t, w.Execute(context.Background(), cmd))
	require.NotEmpty(t, f.CallsMatching(" add "))

	w.ApplyDeltas(cmd)
	require.Equal(t, state.ChangelistStaged, deps.Changelists.Of(hero))
}

func TestMoveToWorkingUnstagesFiles(t *testing.T) {
	f := testhelpers.NewFakeExec()
	deps, _ := newTestDeps(t, f)
	w := &MoveToChangelistWorker{Deps: deps}

	hero := abs("Content/Hero.uasset")
	cmd := queue.NewCommand("MoveToChangelist", w, w.Client.Repo, []string{hero})
	cmd.Changelist = state.ChangelistWorking

	require.True(t, w.Execute(context.Background(), cmd))
	require.NotEmpty(t, f.CallsMatching("restore --staged"))
}

func TestMoveToUnknownChangelistFails(t *testing.T) {
	f := testhelpers.NewFakeExec()
	deps, _ := newTestDeps(t, f)
	w := &MoveToChangelistWorker{Deps: deps}

	cmd := queue.NewCommand("MoveToChangelist", w, w.Client.Repo, []string{abs("Content/Hero.uasset")})
	cmd.Changelist = state.ChangelistNone

	require.False(t, w.Execute(context.Background(), cmd))
	require.Empty(t, f.Calls())
}

func TestUpdateChangelistsStatusRestagesSavedFiles(t *testing.T) {
	f := testhelpers.NewFakeExec().
		On("status --porcelain", testhelpers.Response{
			Stdout: "M  Content/Hero.uasset\n M Content/Level.umap\n",
		})
	deps, _ := newTestDeps(t, f)

	hero := abs("Content/Hero.uasset")
	level := abs("Content/Level.umap")
	w := &UpdateChangelistsStatusWorker{Deps: deps, SavedFiles: []string{hero, level}}

	cmd := queue.NewCommand("UpdateChangelistsStatus", w, w.Client.Repo, nil)
	require.True(t, w.Execute(context.Background(), cmd))

	require.Equal(t, state.ChangelistStaged, deps.Changelists.Of(hero))
	require.Equal(t, state.ChangelistWorking, deps.Changelists.Of(level))

	// Only the staged saved file is re-added; the working one stays put
	adds := f.CallsMatching(" add ")
	require.Len(t, adds, 1)
	require.Contains(t, adds[0].Argv(), "Content/Hero.uasset")
	require.NotContains(t, adds[0].Argv(), "Content/Level.umap")
}

func TestResolveStagesConflictedFiles(t *testing.T) {
	f := testhelpers.NewFakeExec()
	deps, _ := newTestDeps(t, f)
	w := &ResolveWorker{Deps: deps}

	hero := abs("Content/Hero.uasset")
	cmd := queue.NewCommand("Resolve", w, w.Client.Repo, []string{hero})
	require.True(t, w.Execute(context.Background(), cmd))
	require.NotEmpty(t, f.CallsMatching(" add "))
}
