package workers

import (
	"context"

	"lockstep.dev/lockstep/internal/git"
	"lockstep.dev/lockstep/internal/queue"
	"lockstep.dev/lockstep/internal/state"
)

// CheckOutWorker takes LFS locks on the command's files. Checkout only
// exists under LFS locking; without it there is nothing to reserve.
type CheckOutWorker struct {
	Deps
}

func (w *CheckOutWorker) Name() string { return "CheckOut" }

func (w *CheckOutWorker) Execute(ctx context.Context, cmd *queue.Command) bool {
	if !cmd.Repo.UsesLFSLocking {
		cmd.ReportError("Checkout requires Git LFS file locking to be enabled.")
		return false
	}

	held, err := w.Locks.GetAllLocks(ctx, false)
	if err != nil {
		cmd.ReportInfo(err.Error())
	}

	var lockable []string
	for _, abs := range cmd.Files {
		switch {
		case !cmd.Repo.IsLockable(abs):
			cmd.ReportInfo(abs + " is not lockable and was skipped.")
		case held[abs] == cmd.Repo.LockUser:
			// Already ours; locking again would fail with "lock exists".
			cmd.Deltas[abs] = state.Delta{
				Lock:      state.LockLocked,
				LockOwner: cmd.Repo.LockUser,
			}
		default:
			lockable = append(lockable, abs)
		}
	}
	if len(lockable) == 0 {
		return true
	}

	root := cmd.Repo.GitRoot
	if root == "" {
		root = cmd.Repo.RepositoryRoot
	}
	if err := w.Client.LockFiles(ctx, git.RelativeFilenames(lockable, root)); err != nil {
		reportGitError(cmd, err)
		return false
	}

	for _, abs := range lockable {
		w.Locks.AddLockedFile(abs, cmd.Repo.LockUser)
		cmd.Deltas[abs] = state.Delta{
			Lock:      state.LockLocked,
			LockOwner: cmd.Repo.LockUser,
		}
	}
	return true
}

func (w *CheckOutWorker) ApplyDeltas(cmd *queue.Command) bool {
	return w.applyDeltas(cmd)
}
