package provider

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"lockstep.dev/lockstep/internal/queue"
)

// RefreshInterval is how often the background runner enqueues a fetch.
const RefreshInterval = 30 * time.Second

// runnerToken lets a completion callback tell whether the runner that issued
// it still exists. A refresh can outlive its runner; the callback must not
// touch a dead runner's flags.
type runnerToken struct {
	alive atomic.Bool
}

// BackgroundRunner periodically refreshes the repository state: every
// interval it enqueues an asynchronous fetch-and-update-status, skipping the
// round when the previous one has not drained yet.
type BackgroundRunner struct {
	Provider *Provider
	Interval time.Duration

	token     *runnerToken
	inFlight  atomic.Bool
	stop      chan struct{}
	stopOnce  sync.Once
	done      chan struct{}
	startOnce sync.Once
}

// NewBackgroundRunner creates a stopped runner.
func NewBackgroundRunner(p *Provider) *BackgroundRunner {
	r := &BackgroundRunner{
		Provider: p,
		Interval: RefreshInterval,
		token:    &runnerToken{},
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	r.token.alive.Store(true)
	return r
}

// Start launches the refresh loop.
func (r *BackgroundRunner) Start(ctx context.Context) {
	r.startOnce.Do(func() {
		go r.loop(ctx)
	})
}

// Stop shuts the loop down and invalidates the token so an in-flight
// refresh completes without touching the runner.
func (r *BackgroundRunner) Stop() {
	r.stopOnce.Do(func() {
		r.token.alive.Store(false)
		close(r.stop)
	})
	<-r.done
}

func (r *BackgroundRunner) loop(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

func (r *BackgroundRunner) refresh(ctx context.Context) {
	if !r.inFlight.CompareAndSwap(false, true) {
		// The previous refresh has not drained; skip this round
		return
	}

	token := r.token
	err := r.Provider.ExecuteAsync(ctx, Operation{
		Name:         "Fetch",
		UpdateStatus: true,
		Files:        r.Provider.Settings.GetContentDirs(),
	}, func(*queue.Command, queue.Result) {
		if token.alive.Load() {
			r.inFlight.Store(false)
		}
	})
	if err != nil {
		r.inFlight.Store(false)
	}
}
