package workers

import (
	"context"
	"os"
	"time"

	"lockstep.dev/lockstep/internal/git"
	"lockstep.dev/lockstep/internal/queue"
)

const (
	checkoutRetries    = 10
	checkoutRetryDelay = 100 * time.Millisecond
)

// RevertWorker discards local changes. With no files it reverts the whole
// working copy; otherwise inputs are partitioned by their cached state and
// each group gets the minimal git invocation that undoes it.
type RevertWorker struct {
	Deps
}

func (w *RevertWorker) Name() string { return "Revert" }

func (w *RevertWorker) Execute(ctx context.Context, cmd *queue.Command) bool {
	root := cmd.Repo.RepositoryRoot

	if len(cmd.Files) == 0 {
		if err := w.Client.Reset(ctx, true); err != nil {
			reportGitError(cmd, err)
			return false
		}
		if err := w.Client.Clean(ctx, true, true); err != nil {
			reportGitError(cmd, err)
			return false
		}
		return w.runStatus(ctx, cmd, nil, false)
	}

	var missing, addedExisting, present []string
	for _, abs := range cmd.Files {
		s, ok := w.States.Lookup(abs)
		_, statErr := os.Stat(abs)
		gone := statErr != nil

		switch {
		case ok && gone && s.IsSourceControlled() && !s.IsDeleted():
			missing = append(missing, abs)
		case ok && !gone && s.IsAdded():
			addedExisting = append(addedExisting, abs)
		case !gone:
			present = append(present, abs)
		}
	}

	success := true

	if len(missing) > 0 {
		if err := w.Client.Remove(ctx, git.RelativeFilenames(missing, root)); err != nil {
			reportGitError(cmd, err)
			success = false
		}
	}

	if len(addedExisting) > 0 {
		rel := git.RelativeFilenames(addedExisting, root)
		if err := w.Client.Restore(ctx, true, rel); err != nil {
			reportGitError(cmd, err)
			success = false
		}
		if err := w.Client.Checkout(ctx, rel); err != nil {
			reportGitError(cmd, err)
			success = false
		}
	}

	if len(present) > 0 {
		if err := w.checkoutWithRetry(ctx, git.RelativeFilenames(present, root)); err != nil {
			reportGitError(cmd, err)
			success = false
		}
	}

	if cmd.Repo.UsesLFSLocking {
		w.releaseRevertedLocks(ctx, cmd)
	}

	union := dedupe(append(append(append([]string{}, missing...), addedExisting...), present...))
	w.runStatus(ctx, cmd, union, false)

	if w.Host != nil {
		w.Host.Reload(union)
	}
	return success
}

func (w *RevertWorker) ApplyDeltas(cmd *queue.Command) bool {
	return w.applyDeltas(cmd)
}

// checkoutWithRetry retries the checkout because the host may briefly hold
// handles on the files being restored.
func (w *RevertWorker) checkoutWithRetry(ctx context.Context, rel []string) error {
	var err error
	for attempt := 0; attempt < checkoutRetries; attempt++ {
		if err = w.Client.Checkout(ctx, rel); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(checkoutRetryDelay):
		}
	}
	return err
}

func (w *RevertWorker) releaseRevertedLocks(ctx context.Context, cmd *queue.Command) {
	var locked []string
	for _, abs := range cmd.Files {
		if s, ok := w.States.Lookup(abs); ok && s.IsCheckedOut() {
			locked = append(locked, abs)
		}
	}
	if len(locked) == 0 {
		return
	}

	unlocked, err := w.Client.UnlockFiles(ctx, locked, false)
	if err != nil {
		cmd.ReportInfo("Some locks could not be released: " + err.Error())
	}
	for _, abs := range unlocked {
		w.Locks.RemoveLockedFile(abs)
	}
}
