package workers

import (
	"context"

	"lockstep.dev/lockstep/internal/git"
	"lockstep.dev/lockstep/internal/queue"
	"lockstep.dev/lockstep/internal/state"
)

// MarkForAddWorker stages new files. Ignored files are skipped and reported
// rather than failed: hosts routinely pass whole directories.
type MarkForAddWorker struct {
	Deps
}

func (w *MarkForAddWorker) Name() string { return "MarkForAdd" }

func (w *MarkForAddWorker) Execute(ctx context.Context, cmd *queue.Command) bool {
	root := cmd.Repo.RepositoryRoot
	kept, ignored := w.Client.RemoveIgnoredFiles(ctx, git.RelativeFilenames(cmd.Files, root))
	cmd.IgnoredFiles = git.AbsoluteFilenames(ignored, root)
	for _, abs := range cmd.IgnoredFiles {
		cmd.ReportInfo(abs + " is ignored and was not added.")
	}

	if len(kept) == 0 {
		return true
	}

	if err := w.Client.Add(ctx, false, kept); err != nil {
		reportGitError(cmd, err)
		// Reconcile: some of the batch may have been staged before the
		// failure.
		w.runStatus(ctx, cmd, git.AbsoluteFilenames(kept, root), false)
		cmd.DemoteOutsideRepositoryErrors()
		return false
	}

	for _, abs := range git.AbsoluteFilenames(kept, root) {
		cmd.Deltas[abs] = state.Delta{File: state.FileAdded, Tree: state.TreeStaged}
	}
	cmd.DemoteOutsideRepositoryErrors()
	return true
}

func (w *MarkForAddWorker) ApplyDeltas(cmd *queue.Command) bool {
	return w.applyDeltas(cmd)
}

// DeleteWorker marks files for delete in the index.
type DeleteWorker struct {
	Deps
}

func (w *DeleteWorker) Name() string { return "Delete" }

func (w *DeleteWorker) Execute(ctx context.Context, cmd *queue.Command) bool {
	root := cmd.Repo.RepositoryRoot
	kept, ignored := w.Client.RemoveIgnoredFiles(ctx, git.RelativeFilenames(cmd.Files, root))
	cmd.IgnoredFiles = git.AbsoluteFilenames(ignored, root)

	if len(kept) == 0 {
		return true
	}

	if err := w.Client.Remove(ctx, kept); err != nil {
		reportGitError(cmd, err)
		cmd.DemoteOutsideRepositoryErrors()
		return false
	}

	for _, abs := range git.AbsoluteFilenames(kept, root) {
		cmd.Deltas[abs] = state.Delta{File: state.FileDeleted, Tree: state.TreeStaged}
	}
	cmd.DemoteOutsideRepositoryErrors()
	return true
}

func (w *DeleteWorker) ApplyDeltas(cmd *queue.Command) bool {
	return w.applyDeltas(cmd)
}

// CopyWorker accepts a host-initiated move: git has no copy verb, the
// destination is simply a new file to stage.
type CopyWorker struct {
	Deps
}

func (w *CopyWorker) Name() string { return "Copy" }

func (w *CopyWorker) Execute(ctx context.Context, cmd *queue.Command) bool {
	root := cmd.Repo.RepositoryRoot
	if err := w.Client.Add(ctx, false, git.RelativeFilenames(cmd.Files, root)); err != nil {
		reportGitError(cmd, err)
		return false
	}
	for _, abs := range cmd.Files {
		cmd.Deltas[abs] = state.Delta{File: state.FileAdded, Tree: state.TreeStaged}
	}
	return true
}

func (w *CopyWorker) ApplyDeltas(cmd *queue.Command) bool {
	return w.applyDeltas(cmd)
}
