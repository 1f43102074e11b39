package queue

import (
	"context"
	"sync"
	"time"

	"lockstep.dev/lockstep/internal/output"
)

// tickPoll is how long ExecuteSync sleeps between ticks while waiting for an
// asynchronous command to surface.
const tickPoll = 10 * time.Millisecond

// Queue runs commands and hands their results back one per tick, so a
// burst of background completions can never stall the ticking thread.
type Queue struct {
	Log *output.Splog

	mu        sync.Mutex
	completed []*Command
	inFlight  int
}

// NewQueue creates an empty queue.
func NewQueue(log *output.Splog) *Queue {
	return &Queue{Log: log}
}

// Issue runs a command. Synchronous commands execute inline and are fully
// applied before Issue returns. Asynchronous commands return immediately and
// complete through Tick.
func (q *Queue) Issue(ctx context.Context, cmd *Command) Result {
	if cmd.Concurrency == Synchronous {
		success := cmd.Worker.Execute(ctx, cmd)
		cmd.markExecuted(success)
		return q.finish(cmd)
	}

	q.mu.Lock()
	q.inFlight++
	q.mu.Unlock()

	go func() {
		success := cmd.Worker.Execute(ctx, cmd)
		cmd.markExecuted(success)

		q.mu.Lock()
		q.inFlight--
		q.completed = append(q.completed, cmd)
		q.mu.Unlock()
	}()

	return ResultSucceeded
}

// ExecuteSync issues a command and spins the queue until it completes,
// ticking other finished commands along the way.
func (q *Queue) ExecuteSync(ctx context.Context, cmd *Command) Result {
	if cmd.Concurrency == Synchronous {
		return q.Issue(ctx, cmd)
	}

	q.Issue(ctx, cmd)
	for {
		q.Tick()
		if cmd.Executed() && q.isDrained(cmd) {
			break
		}
		time.Sleep(tickPoll)
	}

	if cmd.Cancelled() {
		return ResultCancelled
	}
	if cmd.Successful() {
		return ResultSucceeded
	}
	return ResultFailed
}

// Tick applies at most one completed command and reports whether it did.
func (q *Queue) Tick() bool {
	q.mu.Lock()
	if len(q.completed) == 0 {
		q.mu.Unlock()
		return false
	}
	cmd := q.completed[0]
	q.completed = q.completed[1:]
	q.mu.Unlock()

	q.finish(cmd)
	return true
}

// Busy reports whether any command is running or awaiting application.
func (q *Queue) Busy() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.inFlight > 0 || len(q.completed) > 0
}

// CancelAll flags every pending command; their deltas will be discarded.
func (q *Queue) CancelAll() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, cmd := range q.completed {
		cmd.Cancel()
	}
}

func (q *Queue) finish(cmd *Command) Result {
	result := ResultFailed
	switch {
	case cmd.Cancelled():
		// A cancelled command's view of the repository is not trusted
		result = ResultCancelled
	case cmd.Successful():
		result = ResultSucceeded
	}

	if result != ResultCancelled {
		if ok := cmd.Worker.ApplyDeltas(cmd); !ok && q.Log != nil {
			q.Log.Debug("applying %s deltas changed nothing", cmd.Operation)
		}
	}

	if q.Log != nil {
		for _, line := range cmd.Infos() {
			q.Log.Debug("%s: %s", cmd.Operation, line)
		}
		for _, line := range cmd.Errors() {
			q.Log.Error("%s: %s", cmd.Operation, line)
		}
	}

	if cmd.Callback != nil {
		cmd.Callback(cmd, result)
	}
	return result
}

// isDrained reports whether cmd has left the completed list.
func (q *Queue) isDrained(cmd *Command) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, pending := range q.completed {
		if pending == cmd {
			return false
		}
	}
	return true
}
