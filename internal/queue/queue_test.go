package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"lockstep.dev/lockstep/internal/output"
)

type scriptedWorker struct {
	name    string
	execute func(cmd *Command) bool

	mu      sync.Mutex
	applied []*Command
}

func (w *scriptedWorker) Name() string { return w.name }

func (w *scriptedWorker) Execute(_ context.Context, cmd *Command) bool {
	if w.execute != nil {
		return w.execute(cmd)
	}
	return true
}

func (w *scriptedWorker) ApplyDeltas(cmd *Command) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.applied = append(w.applied, cmd)
	return true
}

func (w *scriptedWorker) appliedCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.applied)
}

func TestIssueSynchronousAppliesInline(t *testing.T) {
	q := NewQueue(output.NewSplog())
	w := &scriptedWorker{name: "UpdateStatus"}
	cmd := NewCommand("UpdateStatus", w, nil, nil)
	cmd.Concurrency = Synchronous

	res := q.Issue(context.Background(), cmd)
	require.Equal(t, ResultSucceeded, res)
	require.Equal(t, 1, w.appliedCount())
	require.False(t, q.Busy())
}

func TestIssueSynchronousFailure(t *testing.T) {
	q := NewQueue(output.NewSplog())
	w := &scriptedWorker{name: "CheckIn", execute: func(cmd *Command) bool {
		cmd.ReportError("boom")
		return false
	}}
	cmd := NewCommand("CheckIn", w, nil, nil)
	cmd.Concurrency = Synchronous

	res := q.Issue(context.Background(), cmd)
	require.Equal(t, ResultFailed, res)
	// Failed commands still apply their deltas
	require.Equal(t, 1, w.appliedCount())
}

func TestTickAppliesOneCommandPerCall(t *testing.T) {
	q := NewQueue(output.NewSplog())
	w := &scriptedWorker{name: "UpdateStatus"}

	var cmds []*Command
	for i := 0; i < 3; i++ {
		cmd := NewCommand("UpdateStatus", w, nil, nil)
		cmd.Concurrency = Asynchronous
		cmds = append(cmds, cmd)
		q.Issue(context.Background(), cmd)
	}

	waitFor(t, func() bool {
		for _, cmd := range cmds {
			if !cmd.Executed() {
				return false
			}
		}
		return true
	})

	require.Equal(t, 0, w.appliedCount())
	require.True(t, q.Tick())
	require.Equal(t, 1, w.appliedCount())
	require.True(t, q.Tick())
	require.True(t, q.Tick())
	require.Equal(t, 3, w.appliedCount())
	require.False(t, q.Tick())
	require.False(t, q.Busy())
}

func TestExecuteSyncBlocksUntilApplied(t *testing.T) {
	q := NewQueue(output.NewSplog())
	w := &scriptedWorker{name: "Sync", execute: func(cmd *Command) bool {
		time.Sleep(20 * time.Millisecond)
		return true
	}}
	cmd := NewCommand("Sync", w, nil, nil)
	cmd.Concurrency = Asynchronous

	res := q.ExecuteSync(context.Background(), cmd)
	require.Equal(t, ResultSucceeded, res)
	require.Equal(t, 1, w.appliedCount())
	require.False(t, q.Busy())
}

func TestCancelledCommandSkipsApplyDeltas(t *testing.T) {
	q := NewQueue(output.NewSplog())
	w := &scriptedWorker{name: "Fetch"}
	cmd := NewCommand("Fetch", w, nil, nil)
	cmd.Concurrency = Asynchronous

	q.Issue(context.Background(), cmd)
	waitFor(t, func() bool { return cmd.Executed() })

	q.CancelAll()
	require.True(t, q.Tick())
	require.Equal(t, 0, w.appliedCount())
}

func TestCallbackRunsOnTick(t *testing.T) {
	q := NewQueue(output.NewSplog())
	w := &scriptedWorker{name: "UpdateStatus"}
	cmd := NewCommand("UpdateStatus", w, nil, nil)
	cmd.Concurrency = Asynchronous

	var got Result
	called := 0
	cmd.Callback = func(_ *Command, result Result) {
		called++
		got = result
	}

	q.Issue(context.Background(), cmd)
	waitFor(t, func() bool { return cmd.Executed() })
	q.Tick()

	require.Equal(t, 1, called)
	require.Equal(t, ResultSucceeded, got)
}

func TestDemoteHarmlessErrors(t *testing.T) {
	w := &scriptedWorker{name: "MarkForAdd"}
	cmd := NewCommand("MarkForAdd", w, nil, nil)
	cmd.ReportError("fatal: '/other/repo/file.txt' is outside repository at '/work/project'")
	cmd.markExecuted(false)

	cmd.DemoteOutsideRepositoryErrors()
	require.True(t, cmd.Successful())
	require.Empty(t, cmd.Errors())
	require.NotEmpty(t, cmd.Infos())
}

func TestDemoteLeavesRealErrors(t *testing.T) {
	w := &scriptedWorker{name: "MarkForAdd"}
	cmd := NewCommand("MarkForAdd", w, nil, nil)
	cmd.ReportError("fatal: '/other/repo/file.txt' is outside repository at '/work/project'")
	cmd.ReportError("fatal: index locked")
	cmd.markExecuted(false)

	cmd.DemoteOutsideRepositoryErrors()
	require.False(t, cmd.Successful())
	require.Equal(t, []string{"fatal: index locked"}, cmd.Errors())
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition never became true")
}
