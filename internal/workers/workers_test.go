package workers

import (
	"path/filepath"
	"sync/atomic"
	"testing"

	"lockstep.dev/lockstep/internal/host"
	"lockstep.dev/lockstep/internal/locks"
	"lockstep.dev/lockstep/internal/output"
	"lockstep.dev/lockstep/internal/state"
	"lockstep.dev/lockstep/testhelpers"
)

const testRoot = "/work/project"

// recordingHost captures reloads and notifications.
type recordingHost struct {
	host.Noop

	reloads [][]string
	notices []string
}

func (h *recordingHost) Reload(paths []string) {
	h.reloads = append(h.reloads, paths)
}

func (h *recordingHost) Notify(_ host.Level, text string) {
	h.notices = append(h.notices, text)
}

func newTestDeps(t *testing.T, f *testhelpers.FakeExec) (Deps, *recordingHost) {
	t.Helper()
	return newTestDepsAt(t, f, testRoot)
}

func newTestDepsAt(t *testing.T, f *testhelpers.FakeExec, root string) (Deps, *recordingHost) {
	t.Helper()

	client := testhelpers.NewTestClient(f, root)
	h := &recordingHost{}
	return Deps{
		Client:         client,
		Locks:          locks.NewCache(client, output.NewSplog()),
		States:         state.NewCache(),
		Changelists:    state.NewChangelists(),
		Host:           h,
		Log:            output.NewSplog(),
		PendingRestart: &atomic.Bool{},
		ContentDirs:    []string{"Content"},
	}, h
}

func abs(rel string) string {
	return filepath.Join(testRoot, filepath.FromSlash(rel))
}
