package workers

import (
	"context"

	"lockstep.dev/lockstep/internal/git"
	"lockstep.dev/lockstep/internal/queue"
)

// ResolveWorker accepts the current working-tree content of conflicted files
// as their resolution. Staging a conflicted file is git's resolution idiom.
type ResolveWorker struct {
	Deps
}

func (w *ResolveWorker) Name() string { return "Resolve" }

func (w *ResolveWorker) Execute(ctx context.Context, cmd *queue.Command) bool {
	root := cmd.Repo.RepositoryRoot
	if err := w.Client.Add(ctx, false, git.RelativeFilenames(cmd.Files, root)); err != nil {
		reportGitError(cmd, err)
		return false
	}
	return w.runStatus(ctx, cmd, cmd.Files, false)
}

func (w *ResolveWorker) ApplyDeltas(cmd *queue.Command) bool {
	return w.applyDeltas(cmd)
}
