package workers

import (
	"context"
	"errors"
	"os"
	"strings"

	lockerrors "lockstep.dev/lockstep/internal/errors"
	"lockstep.dev/lockstep/internal/git"
	"lockstep.dev/lockstep/internal/host"
	"lockstep.dev/lockstep/internal/queue"
)

// CheckInWorker commits the command's files and pushes the branch. A push
// rejected because the remote moved is retried once after a rebase pull;
// locks are only released once the push lands.
type CheckInWorker struct {
	Deps
}

func (w *CheckInWorker) Name() string { return "CheckIn" }

func (w *CheckInWorker) Execute(ctx context.Context, cmd *queue.Command) bool {
	root := cmd.Repo.RepositoryRoot

	if len(cmd.Files) > 0 {
		msgFile, err := writeCommitMessage(cmd.Message)
		if err != nil {
			cmd.ReportError("Failed to write the commit message: " + err.Error())
			return false
		}
		defer os.Remove(msgFile)

		if err := w.Client.Add(ctx, false, git.RelativeFilenames(cmd.Files, root)); err != nil {
			reportGitError(cmd, err)
			return false
		}
		if res, err := w.Client.Commit(ctx, msgFile); err != nil {
			// An empty commit is not fatal: earlier commits may still be
			// waiting for a push.
			if !isEmptyCommit(res) {
				reportGitError(cmd, err)
				return false
			}
			cmd.ReportInfo("Nothing to commit; pushing existing local commits.")
		} else if id, summary, err := w.Client.GetCommitInfo(ctx); err == nil {
			cmd.CommitID = id
			cmd.CommitSummary = summary
		}
	}

	committed, diffOK := w.unpushedFiles(ctx, cmd)

	// Push only when something is waiting, or when the enumeration failed
	// and we cannot tell. A clean diff with nothing unpushed means the
	// remote already has every local commit.
	var pulled []string
	if !diffOK || len(committed) > 0 {
		var ok bool
		pulled, ok = w.pushWithRetry(ctx, cmd)
		if !ok {
			cmd.DemoteOutsideRepositoryErrors()
			return false
		}
	} else {
		cmd.ReportInfo("Nothing to push; the remote already has every local commit.")
	}

	// The push landed, the server now owns these versions: release our locks
	// on everything that went out.
	if cmd.Repo.UsesLFSLocking {
		w.releaseLocks(ctx, cmd, append(append([]string{}, committed...), cmd.Files...))
	}

	refresh := dedupe(append(append(committed, pulled...), cmd.Files...))
	w.runStatus(ctx, cmd, refresh, false)

	cmd.DemoteOutsideRepositoryErrors()
	return true
}

func (w *CheckInWorker) ApplyDeltas(cmd *queue.Command) bool {
	// Committed deletes leave the cache entirely: the file is gone from
	// both the working copy and the index.
	for _, abs := range cmd.Files {
		if s, ok := w.States.Lookup(abs); ok && s.IsDeleted() {
			w.States.Remove(abs)
			delete(cmd.Deltas, abs)
		}
	}
	return w.applyDeltas(cmd)
}

// unpushedFiles enumerates the files touched by commits the remote has not
// seen yet, so lock release covers earlier local commits too. The bool is
// false when the enumeration itself failed.
func (w *CheckInWorker) unpushedFiles(ctx context.Context, cmd *queue.Command) ([]string, bool) {
	root := cmd.Repo.RepositoryRoot

	var lines []string
	var err error
	if upstream, ok := w.Client.GetRemoteBranchName(ctx); ok {
		lines, err = w.Client.GetLog(ctx, []string{"--pretty=", "--name-only", upstream + "..HEAD"}, nil)
	} else {
		lines, err = w.Client.GetLog(ctx, []string{"--branches", "--not", "--remotes", "--pretty=", "--name-only"}, nil)
	}
	if err != nil {
		return nil, false
	}

	return git.AbsoluteFilenames(dedupe(lines), root), true
}

// pushWithRetry pushes HEAD; on a stale rejection it pulls with rebase and
// pushes once more. Returns the files the pull brought in.
func (w *CheckInWorker) pushWithRetry(ctx context.Context, cmd *queue.Command) ([]string, bool) {
	res, err := w.Client.Push(ctx, []string{"-u", "origin", "HEAD"})
	if err == nil {
		return nil, true
	}

	if res == nil || !lockerrors.IsStalePushRejection(res.Raw+"\n"+strings.Join(res.Stderr, "\n")) {
		reportGitError(cmd, err)
		return nil, false
	}

	cmd.ReportInfo("Push rejected because the remote branch moved; rebasing and retrying.")
	cmd.ReportResult(res, false)

	if err := w.Client.FetchRemote(ctx); err != nil {
		reportGitError(cmd, err)
		return nil, false
	}

	pulled, ok := w.pullOrigin(ctx, cmd)
	if !ok {
		w.surfacePullRequired(cmd)
		return nil, false
	}

	if _, err := w.Client.Push(ctx, []string{"-u", "origin", "HEAD"}); err != nil {
		branch, _ := w.Client.GetBranchName(ctx)
		cmd.ReportError(lockerrors.NewPushRejectedError(branch, "the remote moved again").Error())
		w.surfacePullRequired(cmd)
		return pulled, false
	}
	return pulled, true
}

// surfacePullRequired reports the terminal checkin failure and raises it to
// the host. A pending restart already produced its own notification.
func (w *CheckInWorker) surfacePullRequired(cmd *queue.Command) {
	const msg = "Checkin aborted: a pull is required before your commit can be pushed."
	cmd.ReportError(msg)
	if w.Host != nil && (w.PendingRestart == nil || !w.PendingRestart.Load()) {
		w.Host.Notify(host.LevelError, msg)
	}
}

func (w *CheckInWorker) releaseLocks(ctx context.Context, cmd *queue.Command, candidates []string) {
	var lockable []string
	for _, abs := range dedupe(candidates) {
		if cmd.Repo.IsLockable(abs) {
			lockable = append(lockable, abs)
		}
	}
	if len(lockable) == 0 {
		return
	}

	unlocked, err := w.Client.UnlockFiles(ctx, lockable, false)
	if err != nil && !errors.Is(err, lockerrors.ErrLockQueryFailed) {
		cmd.ReportInfo("Some locks could not be released: " + err.Error())
	}
	for _, abs := range unlocked {
		w.Locks.RemoveLockedFile(abs)
	}
}

func writeCommitMessage(message string) (string, error) {
	f, err := os.CreateTemp("", "lockstep-commit-*.txt")
	if err != nil {
		return "", err
	}
	if _, err := f.WriteString(message); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func isEmptyCommit(res *git.Result) bool {
	if res == nil {
		return false
	}
	out := res.Raw + "\n" + strings.Join(res.Stderr, "\n")
	return strings.Contains(out, "nothing to commit") ||
		strings.Contains(out, "nothing added to commit")
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
