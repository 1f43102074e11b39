// Package provider is the façade over the version-control core: it owns the
// repository context, the caches, the work queue, and the workers, and
// exposes the operation surface hosts call.
package provider

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"

	"lockstep.dev/lockstep/internal/config"
	lockerrors "lockstep.dev/lockstep/internal/errors"
	"lockstep.dev/lockstep/internal/git"
	"lockstep.dev/lockstep/internal/host"
	"lockstep.dev/lockstep/internal/locks"
	"lockstep.dev/lockstep/internal/output"
	"lockstep.dev/lockstep/internal/queue"
	"lockstep.dev/lockstep/internal/state"
	"lockstep.dev/lockstep/internal/workers"
)

// Operation describes one request against the provider.
type Operation struct {
	Name       string
	Files      []string
	Message    string
	Changelist state.Changelist

	// WithHistory asks UpdateStatus to also fetch revision logs
	WithHistory bool
	// UpdateStatus asks Fetch to refresh status afterwards
	UpdateStatus bool
	// SavedFiles are host-reported just-saved paths for changelist refresh
	SavedFiles []string
}

// StateListener is notified on the ticking goroutine with the paths whose
// state changed.
type StateListener func(paths []string)

// Provider wires the core together for one repository.
type Provider struct {
	Client      *git.Client
	Locks       *locks.Cache
	States      *state.Cache
	Changelists *state.Changelists
	Queue       *queue.Queue
	Host        host.Host
	Log         *output.Splog
	Settings    *config.Settings
	Version     *git.Version

	pendingRestart atomic.Bool

	mu             sync.Mutex
	lastErrors     []string
	commitID       string
	commitSummary  string
	statusBranches []string
	listeners      []StateListener
	available      bool
}

// New builds a provider for the repository containing dir. The git binary
// is taken from settings or discovered; the lock user falls back to the
// configured git identity.
func New(ctx context.Context, dir string, settings *config.Settings, h host.Host, log *output.Splog) (*Provider, error) {
	binary := settings.GetBinaryPath()
	if binary == "" {
		binary = git.FindGitBinary()
	}
	if binary == "" {
		return nil, lockerrors.ErrGitNotFound
	}

	repo, err := git.OpenRepository(dir)
	if err != nil {
		return nil, err
	}

	lockUser := settings.GetLfsUserName()
	userName, _, idErr := repo.UserIdentity()
	if lockUser == "" {
		if idErr != nil || userName == "" {
			return nil, fmt.Errorf("no LFS user name configured and no git user.name set")
		}
		lockUser = userName
	}

	repoCtx := &git.RepoContext{
		BinaryPath:     binary,
		RepositoryRoot: repo.Root(),
		GitRoot:        repo.Root(),
		UsesLFSLocking: settings.GetUsingGitLfsLocking(),
		LockUser:       lockUser,
		Lockable:       git.NewSuffixSet(),
	}

	client := git.NewClient(git.NewDriver(), repoCtx, log)

	version, err := client.GetGitVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", lockerrors.ErrGitNotFound, err)
	}

	p := &Provider{
		Client:      client,
		Locks:       locks.NewCache(client, log),
		States:      state.NewCache(),
		Changelists: state.NewChangelists(),
		Queue:       queue.NewQueue(log),
		Host:        h,
		Log:         log,
		Settings:    settings,
		Version:     version,
	}
	return p, nil
}

// RegisterStatusBranches sets the branch patterns checked for newer remote
// versions. Write-once at registration; later calls are ignored.
func (p *Provider) RegisterStatusBranches(patterns []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.statusBranches == nil {
		p.statusBranches = append([]string{}, patterns...)
	}
}

// RegisterStateListener adds a callback fired after any state change.
func (p *Provider) RegisterStateListener(l StateListener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, l)
}

// Available reports whether a Connect succeeded since startup.
func (p *Provider) Available() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.available
}

// PendingRestart reports whether newer binaries were seen on the upstream.
func (p *Provider) PendingRestart() bool {
	return p.pendingRestart.Load()
}

// LastErrors returns the error lines of the most recent failed command.
func (p *Provider) LastErrors() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string{}, p.lastErrors...)
}

// CommitInfo returns the sha and summary recorded by the last checkin or
// status refresh.
func (p *Provider) CommitInfo() (string, string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.commitID, p.commitSummary
}

// Tick drains at most one completed background command.
func (p *Provider) Tick() bool {
	return p.Queue.Tick()
}

func (p *Provider) deps() workers.Deps {
	p.mu.Lock()
	branches := append([]string{}, p.statusBranches...)
	p.mu.Unlock()

	return workers.Deps{
		Client:         p.Client,
		Locks:          p.Locks,
		States:         p.States,
		Changelists:    p.Changelists,
		Host:           p.Host,
		Log:            p.Log,
		PendingRestart: &p.pendingRestart,
		StatusBranches: branches,
		ContentDirs:    p.Settings.GetContentDirs(),
	}
}

func (p *Provider) workerFor(op Operation) (queue.Worker, error) {
	deps := p.deps()
	switch op.Name {
	case "Connect":
		return &workers.ConnectWorker{Deps: deps, LockablePatterns: p.Settings.GetLockablePatterns()}, nil
	case "UpdateStatus":
		return &workers.UpdateStatusWorker{Deps: deps, WithHistory: op.WithHistory}, nil
	case "Fetch":
		return &workers.FetchWorker{Deps: deps, UpdateStatus: op.UpdateStatus}, nil
	case "CheckOut":
		return &workers.CheckOutWorker{Deps: deps}, nil
	case "CheckIn":
		return &workers.CheckInWorker{Deps: deps}, nil
	case "MarkForAdd":
		return &workers.MarkForAddWorker{Deps: deps}, nil
	case "Delete":
		return &workers.DeleteWorker{Deps: deps}, nil
	case "Copy":
		return &workers.CopyWorker{Deps: deps}, nil
	case "Resolve":
		return &workers.ResolveWorker{Deps: deps}, nil
	case "Revert":
		return &workers.RevertWorker{Deps: deps}, nil
	case "Sync":
		return &workers.SyncWorker{Deps: deps}, nil
	case "MoveToChangelist":
		return &workers.MoveToChangelistWorker{Deps: deps}, nil
	case "UpdateChangelistsStatus":
		return &workers.UpdateChangelistsStatusWorker{Deps: deps, SavedFiles: op.SavedFiles}, nil
	default:
		return nil, fmt.Errorf("unknown operation %q", op.Name)
	}
}

// Execute runs an operation. Synchronous execution returns once the deltas
// are applied; asynchronous execution completes through Tick.
func (p *Provider) Execute(ctx context.Context, op Operation, concurrency queue.Concurrency, cb queue.Callback) (queue.Result, error) {
	worker, err := p.workerFor(op)
	if err != nil {
		return queue.ResultFailed, err
	}

	files := make([]string, 0, len(op.Files))
	for _, f := range op.Files {
		files = append(files, git.AbsoluteFilenames([]string{f}, p.Client.Repo.RepositoryRoot)[0])
	}

	cmd := queue.NewCommand(op.Name, worker, p.Client.Repo.Snapshot(), files)
	cmd.Message = op.Message
	cmd.Changelist = op.Changelist
	cmd.Concurrency = concurrency
	cmd.Callback = func(c *queue.Command, result queue.Result) {
		p.onComplete(c, result)
		if cb != nil {
			cb(c, result)
		}
	}

	if concurrency == queue.Synchronous {
		return p.Queue.Issue(ctx, cmd), nil
	}
	return p.Queue.ExecuteSync(ctx, cmd), nil
}

// ExecuteAsync submits an operation without waiting; completion surfaces on
// a later Tick.
func (p *Provider) ExecuteAsync(ctx context.Context, op Operation, cb queue.Callback) error {
	worker, err := p.workerFor(op)
	if err != nil {
		return err
	}

	cmd := queue.NewCommand(op.Name, worker, p.Client.Repo.Snapshot(), git.AbsoluteFilenames(op.Files, p.Client.Repo.RepositoryRoot))
	cmd.Message = op.Message
	cmd.Changelist = op.Changelist
	cmd.Concurrency = queue.Asynchronous
	cmd.Callback = func(c *queue.Command, result queue.Result) {
		p.onComplete(c, result)
		if cb != nil {
			cb(c, result)
		}
	}

	p.Queue.Issue(ctx, cmd)
	return nil
}

// onComplete runs on the ticking goroutine after deltas were applied.
func (p *Provider) onComplete(cmd *queue.Command, result queue.Result) {
	p.mu.Lock()
	if result == queue.ResultFailed {
		p.lastErrors = cmd.Errors()
	} else if result == queue.ResultSucceeded {
		p.lastErrors = nil
		if cmd.Operation == "Connect" {
			p.available = true
		}
		if cmd.CommitID != "" {
			p.commitID = cmd.CommitID
			p.commitSummary = cmd.CommitSummary
		}
	}
	listeners := append([]StateListener{}, p.listeners...)
	p.mu.Unlock()

	if result == queue.ResultSucceeded && len(cmd.Deltas) > 0 {
		paths := make([]string, 0, len(cmd.Deltas))
		for path := range cmd.Deltas {
			paths = append(paths, path)
		}
		for _, l := range listeners {
			l(paths)
		}
	}
}

// GetState returns the composite state of each path. With force, paths not
// marked ignore-force are refreshed synchronously first; the ignore-force
// mark is consumed either way.
func (p *Provider) GetState(ctx context.Context, paths []string, force bool) ([]*state.State, error) {
	abs := git.AbsoluteFilenames(paths, p.Client.Repo.RepositoryRoot)

	if force {
		var toRefresh []string
		for _, path := range abs {
			if !p.States.ConsumeIgnoreForce(path) {
				toRefresh = append(toRefresh, path)
			}
		}
		if len(toRefresh) > 0 {
			if _, err := p.Execute(ctx, Operation{Name: "UpdateStatus", Files: toRefresh}, queue.Asynchronous, nil); err != nil {
				return nil, err
			}
		}
	}

	states := make([]*state.State, 0, len(abs))
	for _, path := range abs {
		states = append(states, p.States.Get(path))
	}
	return states, nil
}

// StatusText renders a one-line, color-coded status for a path.
func (p *Provider) StatusText(s *state.State) string {
	presentation := s.Presentation()
	text := presentation.String()

	switch presentation {
	case state.PresentationCheckedOut, state.PresentationLockable:
		return output.Colorize(output.StyleLocked, text)
	case state.PresentationLockedOther:
		other := text
		if s.LockOwner != "" {
			other = fmt.Sprintf("%s (%s)", text, s.LockOwner)
		}
		return output.Colorize(output.StyleLockedOther, other)
	case state.PresentationModified:
		return output.Colorize(output.StyleModified, text)
	case state.PresentationAdded:
		return output.Colorize(output.StyleAdded, text)
	case state.PresentationDeleted:
		return output.Colorize(output.StyleDeleted, text)
	case state.PresentationUnmerged:
		return output.Colorize(output.StyleConflicted, text)
	case state.PresentationNotAtHead, state.PresentationNotLatest:
		branch := text
		if s.HeadBranch != "" {
			branch = fmt.Sprintf("%s (%s)", text, s.HeadBranch)
		}
		return output.Colorize(output.StyleNotAtHead, branch)
	case state.PresentationUntracked, state.PresentationIgnored:
		return output.Colorize(output.StyleUntracked, text)
	default:
		return text
	}
}

// RelativePath renders a path relative to the repository root for display.
func (p *Provider) RelativePath(abs string) string {
	rel, err := filepath.Rel(p.Client.Repo.RepositoryRoot, abs)
	if err != nil {
		return abs
	}
	return rel
}
