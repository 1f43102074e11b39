package workers

import (
	"context"

	"lockstep.dev/lockstep/internal/queue"
)

// UpdateStatusWorker refreshes the composite state of the command's files.
type UpdateStatusWorker struct {
	Deps

	// WithHistory also fetches each file's revision log
	WithHistory bool
}

func (w *UpdateStatusWorker) Name() string { return "UpdateStatus" }

func (w *UpdateStatusWorker) Execute(ctx context.Context, cmd *queue.Command) bool {
	ok := w.runStatus(ctx, cmd, cmd.Files, w.WithHistory)
	w.recordCommitInfo(ctx, cmd)
	return ok
}

func (w *UpdateStatusWorker) ApplyDeltas(cmd *queue.Command) bool {
	return w.applyDeltas(cmd)
}

// FetchWorker fetches from origin, refreshing the lock table first so lock
// changes made elsewhere become visible, then optionally re-runs status.
type FetchWorker struct {
	Deps

	UpdateStatus bool
}

func (w *FetchWorker) Name() string { return "Fetch" }

func (w *FetchWorker) Execute(ctx context.Context, cmd *queue.Command) bool {
	if cmd.Repo.UsesLFSLocking {
		if _, err := w.Locks.GetAllLocks(ctx, true); err != nil {
			cmd.ReportInfo(err.Error())
		}
	}

	if err := w.Client.FetchRemote(ctx); err != nil {
		reportGitError(cmd, err)
		return false
	}

	if w.UpdateStatus && len(cmd.Files) > 0 {
		return w.runStatus(ctx, cmd, cmd.Files, false)
	}
	return true
}

func (w *FetchWorker) ApplyDeltas(cmd *queue.Command) bool {
	return w.applyDeltas(cmd)
}
