package workers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"lockstep.dev/lockstep/internal/queue"
	"lockstep.dev/lockstep/internal/state"
	"lockstep.dev/lockstep/testhelpers"
)

func TestMarkForAddSkipsIgnoredFiles(t *testing.T) {
	f := testhelpers.NewFakeExec().
		On("check-ignore Content/Hero.uasset", testhelpers.Response{Code: 1}).
		On("check-ignore Saved/Autosave.uasset", testhelpers.Response{}).
		On("check-ignore", testhelpers.Response{Code: 1})
	deps, _ := newTestDeps(t, f)
	w := &MarkForAddWorker{Deps: deps}

	hero := abs("Content/Hero.uasset")
	ignored := abs("Saved/Autosave.uasset")
	cmd := queue.NewCommand("MarkForAdd", w, w.Client.Repo, []string{hero, ignored})
	require.True(t, w.Execute(context.Background(), cmd))

	require.Equal(t, []string{ignored}, cmd.IgnoredFiles)
	require.Equal(t, state.Delta{File: state.FileAdded, Tree: state.TreeStaged}, cmd.Deltas[hero])
	_, hasIgnored := cmd.Deltas[ignored]
	require.False(t, hasIgnored)

	adds := f.CallsMatching(" add ")
	require.Len(t, adds, 1)
	require.NotContains(t, adds[0].Argv(), "Saved/Autosave.uasset")
}

func TestMarkForAddAllIgnored(t *testing.T) {
	f := testhelpers.NewFakeExec().
		On("check-ignore", testhelpers.Response{})
	deps, _ := newTestDeps(t, f)
	w := &MarkForAddWorker{Deps: deps}

	cmd := queue.NewCommand("MarkForAdd", w, w.Client.Repo, []string{abs("Saved/Autosave.uasset")})
	require.True(t, w.Execute(context.Background(), cmd))
	require.Empty(t, f.CallsMatching(" add "))
}

func TestMarkForAddReconcilesOnFailure(t *testing.T) {
	f := testhelpers.NewFakeExec().
		On("check-ignore", testhelpers.Response{Code: 1}).
		On(" add ", testhelpers.Response{Stderr: "fatal: index locked", Code: 1})
	deps, _ := newTestDeps(t, f)
	w := &MarkForAddWorker{Deps: deps}

	cmd := queue.NewCommand("MarkForAdd", w, w.Client.Repo, []string{abs("Content/Hero.uasset")})
	require.False(t, w.Execute(context.Background(), cmd))

	// The failure path re-runs status to pick up any partial staging
	require.NotEmpty(t, f.CallsMatching("status --porcelain"))
	require.NotEmpty(t, cmd.Errors())
}

func TestDeleteMarksFilesDeleted(t *testing.T) {
	f := testhelpers.NewFakeExec().
		On("check-ignore", testhelpers.Response{Code: 1})
	deps, _ := newTestDeps(t, f)
	w := &DeleteWorker{Deps: deps}

	hero := abs("Content/Hero.uasset")
	cmd := queue.NewCommand("Delete", w, w.Client.Repo, []string{hero})
	require.True(t, w.Execute(context.Background(), cmd))

	require.NotEmpty(t, f.CallsMatching(" rm "))
	require.Equal(t, state.Delta{File: state.FileDeleted, Tree: state.TreeStaged}, cmd.Deltas[hero])
}

func TestCopyStagesDestination(t *testing.T) {
	f := testhelpers.NewFakeExec()
	deps, _ := newTestDeps(t, f)
	w := &CopyWorker{Deps: deps}

	dest := abs("Content/HeroCopy.uasset")
	cmd := queue.NewCommand("Copy", w, w.Client.Repo, []string{dest})
	require.True(t, w.Execute(context.Background(), cmd))

	require.NotEmpty(t, f.CallsMatching(" add "))
	require.Equal(t, state.Delta{File: state.FileAdded, Tree: state.TreeStaged}, cmd.Deltas[dest])
}
