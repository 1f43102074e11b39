// Package queue runs version-control commands: synchronously inline, or on
// background goroutines whose results are applied one per tick on the
// caller's thread.
package queue

import (
	"context"
	"sync"
	"sync/atomic"

	lockerrors "lockstep.dev/lockstep/internal/errors"
	"lockstep.dev/lockstep/internal/git"
	"lockstep.dev/lockstep/internal/state"
)

// Concurrency selects how a command runs.
type Concurrency int

const (
	// Synchronous commands execute inline on the calling goroutine
	Synchronous Concurrency = iota
	// Asynchronous commands execute on a background goroutine and surface
	// their results through Queue.Tick
	Asynchronous
)

// Result is the terminal outcome of a command.
type Result int

const (
	ResultFailed Result = iota
	ResultSucceeded
	ResultCancelled
)

// Worker executes one operation. Execute runs on whichever goroutine the
// queue chose; ApplyDeltas always runs on the ticking goroutine and is the
// only place shared caches may be written.
type Worker interface {
	Name() string
	Execute(ctx context.Context, cmd *Command) bool
	ApplyDeltas(cmd *Command) bool
}

// Callback is invoked on the ticking goroutine once a command completes.
type Callback func(cmd *Command, result Result)

// Command is one queued operation: its inputs, the repository snapshot it
// runs against, and the results its worker produced.
type Command struct {
	Operation string
	Worker    Worker

	// Repo is snapshotted at creation so concurrent setting changes cannot
	// affect a command mid-flight
	Repo *git.RepoContext

	// Files are absolute paths
	Files        []string
	IgnoredFiles []string

	// Changelist is the target for staging moves
	Changelist state.Changelist

	// Message is the checkin description
	Message string

	Concurrency Concurrency
	Callback    Callback

	// Results, written by Execute and read by ApplyDeltas
	Deltas        map[string]state.Delta
	Histories     map[string][]*state.Revision
	CommitID      string
	CommitSummary string

	mu         sync.Mutex
	infos      []string
	errors     []string
	successful bool
	executed   atomic.Bool
	cancelled  atomic.Bool
}

// NewCommand creates a command for a worker over a repository snapshot.
func NewCommand(operation string, worker Worker, repo *git.RepoContext, files []string) *Command {
	return &Command{
		Operation: operation,
		Worker:    worker,
		Repo:      repo,
		Files:     files,
		Deltas:    map[string]state.Delta{},
		Histories: map[string][]*state.Revision{},
	}
}

// ReportInfo records an informational message.
func (c *Command) ReportInfo(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.infos = append(c.infos, msg)
}

// ReportError records an error message.
func (c *Command) ReportError(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors = append(c.errors, msg)
}

// ReportResult records every output line of a git result as info or error.
func (c *Command) ReportResult(res *git.Result, asError bool) {
	if res == nil {
		return
	}
	for _, line := range append(append([]string{}, res.Stdout...), res.Stderr...) {
		if asError {
			c.ReportError(line)
		} else {
			c.ReportInfo(line)
		}
	}
}

// Infos returns the collected informational messages.
func (c *Command) Infos() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string{}, c.infos...)
}

// Errors returns the collected error messages.
func (c *Command) Errors() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string{}, c.errors...)
}

// Successful reports whether Execute succeeded.
func (c *Command) Successful() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.successful
}

// Executed reports whether Execute has finished.
func (c *Command) Executed() bool {
	return c.executed.Load()
}

// Cancel requests cancellation. Execute may still run to completion; the
// queue discards its deltas either way.
func (c *Command) Cancel() {
	c.cancelled.Store(true)
}

// Cancelled reports whether the command was cancelled.
func (c *Command) Cancelled() bool {
	return c.cancelled.Load()
}

func (c *Command) markExecuted(success bool) {
	c.mu.Lock()
	c.successful = success
	c.mu.Unlock()
	c.executed.Store(true)
}

// DemoteHarmlessErrors moves error messages matching a known-harmless
// pattern to the info list. A command whose every error was harmless is
// flipped to successful: the operation did all the work that was possible.
func (c *Command) DemoteHarmlessErrors(match func(string) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var remaining []string
	demoted := false
	for _, msg := range c.errors {
		if match(msg) {
			c.infos = append(c.infos, msg)
			demoted = true
			continue
		}
		remaining = append(remaining, msg)
	}
	c.errors = remaining

	if demoted && len(c.errors) == 0 && !c.successful {
		c.successful = true
	}
}

// DemoteOutsideRepositoryErrors demotes the errors git emits for files that
// live outside the repository, which are expected when a workspace spans
// multiple repositories.
func (c *Command) DemoteOutsideRepositoryErrors() {
	c.DemoteHarmlessErrors(lockerrors.IsOutsideRepository)
}
