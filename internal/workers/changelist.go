package workers

import (
	"context"

	"lockstep.dev/lockstep/internal/git"
	"lockstep.dev/lockstep/internal/queue"
	"lockstep.dev/lockstep/internal/state"
)

// MoveToChangelistWorker moves files between the staged and working buckets
// by staging or unstaging them.
type MoveToChangelistWorker struct {
	Deps
}

func (w *MoveToChangelistWorker) Name() string { return "MoveToChangelist" }

func (w *MoveToChangelistWorker) Execute(ctx context.Context, cmd *queue.Command) bool {
	root := cmd.Repo.RepositoryRoot
	rel := git.RelativeFilenames(cmd.Files, root)

	switch cmd.Changelist {
	case state.ChangelistStaged:
		if err := w.Client.Add(ctx, false, rel); err != nil {
			reportGitError(cmd, err)
			return false
		}
	case state.ChangelistWorking:
		if err := w.Client.Restore(ctx, true, rel); err != nil {
			reportGitError(cmd, err)
			return false
		}
	default:
		cmd.ReportError("Files can only be moved to the staged or working changelist.")
		return false
	}

	return w.runStatus(ctx, cmd, cmd.Files, false)
}

func (w *MoveToChangelistWorker) ApplyDeltas(cmd *queue.Command) bool {
	changed := w.applyDeltas(cmd)
	for _, abs := range cmd.Files {
		w.Changelists.Move(abs, cmd.Changelist)
	}
	return changed
}

// UpdateChangelistsStatusWorker rebuilds the staged/working buckets from a
// porcelain status over the content directories. Files a host just saved
// while staged are restaged so the staged bucket keeps the saved content.
type UpdateChangelistsStatusWorker struct {
	Deps

	// SavedFiles are paths the host reports as just written to disk
	SavedFiles []string
}

func (w *UpdateChangelistsStatusWorker) Name() string { return "UpdateChangelistsStatus" }

func (w *UpdateChangelistsStatusWorker) Execute(ctx context.Context, cmd *queue.Command) bool {
	root := cmd.Repo.RepositoryRoot

	lines, err := w.Client.StatusNoLocks(ctx, false, git.RelativeFilenames(git.AbsoluteFilenames(w.ContentDirs, root), root))
	if err != nil {
		reportGitError(cmd, err)
		return false
	}

	var entries []state.PorcelainEntry
	for _, line := range lines {
		parsed, ok := git.ParsePorcelainLine(line)
		if !ok {
			continue
		}
		entries = append(entries, state.PorcelainEntry{
			IndexStatus: parsed.Index,
			WorkStatus:  parsed.Work,
			Path:        git.AbsoluteFilenames([]string{parsed.Filename}, root)[0],
		})
	}

	restage := w.Changelists.Rebuild(entries)

	// Re-add saved files that sit in the staged bucket so the index holds
	// what is on disk, not the pre-save content.
	var toRestage []string
	saved := make(map[string]struct{}, len(w.SavedFiles))
	for _, f := range w.SavedFiles {
		saved[f] = struct{}{}
	}
	for _, abs := range restage {
		if _, ok := saved[abs]; ok {
			toRestage = append(toRestage, abs)
		}
	}
	if len(toRestage) > 0 {
		if err := w.Client.Add(ctx, false, git.RelativeFilenames(toRestage, root)); err != nil {
			cmd.ReportInfo(err.Error())
		}
	}

	return true
}

func (w *UpdateChangelistsStatusWorker) ApplyDeltas(cmd *queue.Command) bool {
	return w.applyDeltas(cmd)
}
