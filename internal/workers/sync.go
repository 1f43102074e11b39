package workers

import (
	"context"

	"lockstep.dev/lockstep/internal/git"
	"lockstep.dev/lockstep/internal/host"
	"lockstep.dev/lockstep/internal/queue"
)

// SyncWorker brings the working copy up to date with the upstream branch.
type SyncWorker struct {
	Deps
}

func (w *SyncWorker) Name() string { return "Sync" }

func (w *SyncWorker) Execute(ctx context.Context, cmd *queue.Command) bool {
	if err := w.Client.FetchRemote(ctx); err != nil {
		reportGitError(cmd, err)
		return false
	}

	pulled, ok := w.pullOrigin(ctx, cmd)
	if !ok {
		return false
	}

	refresh := dedupe(append(append([]string{}, cmd.Files...), pulled...))
	if len(refresh) > 0 {
		w.runStatus(ctx, cmd, refresh, false)
	}
	w.recordCommitInfo(ctx, cmd)
	return true
}

func (w *SyncWorker) ApplyDeltas(cmd *queue.Command) bool {
	return w.applyDeltas(cmd)
}

// pullOrigin rebases the working copy onto the upstream and returns the
// absolute paths the pull changed. It refuses to run once a restart is
// pending: pulling new binaries under a live host corrupts its state.
func (d *Deps) pullOrigin(ctx context.Context, cmd *queue.Command) ([]string, bool) {
	if d.PendingRestart != nil && d.PendingRestart.Load() {
		msg := "Newer binaries were fetched from the remote. Restart before syncing again."
		cmd.ReportError(msg)
		if d.Host != nil {
			d.Host.Notify(host.LevelError, msg)
		}
		return nil, false
	}

	oldHead, _, _ := d.Client.GetCommitInfo(ctx)

	if err := d.Client.Pull(ctx); err != nil {
		reportGitError(cmd, err)
		return nil, false
	}
	d.Client.InvalidateBranchCache()

	newHead, _, err := d.Client.GetCommitInfo(ctx)
	if err != nil || oldHead == "" || newHead == oldHead {
		return nil, true
	}

	lines, err := d.Client.Diff(ctx, []string{"--name-only", oldHead + ".." + newHead})
	if err != nil {
		return nil, true
	}

	pulled := git.AbsoluteFilenames(lines, cmd.Repo.RepositoryRoot)
	if len(pulled) > 0 && d.Host != nil {
		d.Host.Reload(pulled)
	}
	return pulled, true
}
