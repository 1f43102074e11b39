package workers

import (
	"context"

	"lockstep.dev/lockstep/internal/queue"
)

// ConnectWorker verifies the remote is reachable and primes the lockable
// suffix set and the lock cache.
type ConnectWorker struct {
	Deps

	// LockablePatterns are the wildcard patterns probed for the lockable
	// attribute, e.g. "*.uasset"
	LockablePatterns []string
}

func (w *ConnectWorker) Name() string { return "Connect" }

func (w *ConnectWorker) Execute(ctx context.Context, cmd *queue.Command) bool {
	// Hosts probe connectivity opportunistically on the foreground; answer
	// those without touching the network.
	if cmd.Concurrency == queue.Synchronous {
		return true
	}

	if err := w.Client.LsRemote(ctx, false, true); err != nil {
		cmd.ReportError("Failed to connect to the remote repository. Check your network connection and credentials.")
		reportGitError(cmd, err)
		return false
	}

	if cmd.Repo.UsesLFSLocking {
		if err := w.Client.CheckLFSLockable(ctx, w.LockablePatterns); err != nil {
			reportGitError(cmd, err)
		}
		w.Locks.Invalidate()
	}

	return true
}

func (w *ConnectWorker) ApplyDeltas(cmd *queue.Command) bool {
	return w.applyDeltas(cmd)
}
