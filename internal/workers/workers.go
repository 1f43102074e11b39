// Package workers implements the operations the queue can run: connect,
// status refresh, checkout/checkin, add/delete, revert, sync, resolve, and
// changelist maintenance.
package workers

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"lockstep.dev/lockstep/internal/git"
	"lockstep.dev/lockstep/internal/host"
	"lockstep.dev/lockstep/internal/locks"
	"lockstep.dev/lockstep/internal/output"
	"lockstep.dev/lockstep/internal/queue"
	"lockstep.dev/lockstep/internal/state"
)

// Deps is everything a worker needs. Workers embed it and stay stateless
// beyond their own options, so one worker value can serve many commands.
type Deps struct {
	Client      *git.Client
	Locks       *locks.Cache
	States      *state.Cache
	Changelists *state.Changelists
	Host        host.Host
	Log         *output.Splog

	// PendingRestart is set when the remote carries new binary artifacts;
	// once set, sync operations refuse to run until the host restarts
	PendingRestart *atomic.Bool

	StatusBranches []string
	ContentDirs    []string
}

func (d *Deps) lockProvider() git.LockProvider {
	if d.Locks == nil {
		return nil
	}
	return func(ctx context.Context) (map[string]string, error) {
		return d.Locks.GetAllLocks(ctx, false)
	}
}

// runStatus refreshes the composite state of the given absolute paths:
// porcelain status, disk probes for unreported files, lock enrichment, and
// the remote branch check. Directories expand to their changed contents.
// With withHistory, each file's revision log is fetched too.
func (d *Deps) runStatus(ctx context.Context, cmd *queue.Command, files []string, withHistory bool) bool {
	root := cmd.Repo.RepositoryRoot

	if len(files) == 0 {
		files = git.AbsoluteFilenames(d.ContentDirs, root)
	}

	var plainFiles, dirs []string
	for _, f := range files {
		if info, err := os.Stat(f); err == nil && info.IsDir() {
			dirs = append(dirs, f)
		} else {
			plainFiles = append(plainFiles, f)
		}
	}

	lines, err := d.Client.StatusNoLocks(ctx, true, git.RelativeFilenames(files, root))
	if err != nil {
		cmd.ReportError(err.Error())
		return false
	}

	deltas := d.Client.ParseFileStatusResult(ctx, plainFiles, lines, d.lockProvider())
	if len(dirs) > 0 {
		for path, delta := range d.Client.ParseDirectoryStatusResult(lines) {
			if _, seen := deltas[path]; seen || !underAny(path, dirs) {
				continue
			}
			deltas[path] = delta
		}
	}

	// A fresh status starts from up to date; the remote check below marks
	// the files that are not.
	for path, delta := range deltas {
		if delta.Remote == state.RemoteUnset {
			delta.Remote = state.RemoteUpToDate
			deltas[path] = delta
		}
	}

	pendingRestart, remoteErr := d.Client.CheckRemote(ctx, d.StatusBranches, d.ContentDirs, deltas)
	if remoteErr != nil {
		cmd.ReportInfo(remoteErr.Error())
	}
	if pendingRestart && d.PendingRestart != nil {
		d.PendingRestart.Store(true)
	}

	if withHistory {
		for _, abs := range plainFiles {
			rel := git.RelativeFilenames([]string{abs}, root)[0]
			conflicted := deltas[abs].File == state.FileUnmerged
			revs, err := d.Client.GetHistory(ctx, filepath.ToSlash(rel), conflicted)
			if err != nil {
				cmd.ReportInfo(err.Error())
				continue
			}
			delta := deltas[abs]
			delta.History = revs
			deltas[abs] = delta
		}
	}

	mergeDeltas(cmd.Deltas, deltas)
	return true
}

// recordCommitInfo snapshots the current HEAD onto the command so the
// provider can surface "now at <sha>" after the tick.
func (d *Deps) recordCommitInfo(ctx context.Context, cmd *queue.Command) {
	if id, summary, err := d.Client.GetCommitInfo(ctx); err == nil {
		cmd.CommitID = id
		cmd.CommitSummary = summary
	}
}

// applyDeltas merges the command's deltas into the shared cache; the queue
// guarantees this runs on the ticking goroutine.
func (d *Deps) applyDeltas(cmd *queue.Command) bool {
	return d.States.Update(cmd.Deltas)
}

func mergeDeltas(dst, src map[string]state.Delta) {
	for path, delta := range src {
		dst[path] = delta
	}
}

func underAny(path string, dirs []string) bool {
	for _, dir := range dirs {
		rel, err := filepath.Rel(dir, path)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// reportGitError records a failed git invocation on the command, splitting
// multi-line stderr into individual messages.
func reportGitError(cmd *queue.Command, err error) {
	if err == nil {
		return
	}
	for _, line := range strings.Split(err.Error(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			cmd.ReportError(line)
		}
	}
}
