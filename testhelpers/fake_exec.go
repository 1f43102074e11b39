// Package testhelpers provides fixtures for driving the git layer without
// spawning real subprocesses: a scripted exec function that records every
// invocation, and builders for repository contexts and clients.
package testhelpers

import (
	"context"
	"strings"
	"sync"

	"lockstep.dev/lockstep/internal/git"
	"lockstep.dev/lockstep/internal/output"
)

// Call is one recorded subprocess invocation.
type Call struct {
	Bin  string
	Args []string
	Dir  string
	Env  []string
}

// Argv returns the invocation as a single space-joined string, convenient
// for substring assertions.
func (c Call) Argv() string {
	return c.Bin + " " + strings.Join(c.Args, " ")
}

// Response is a scripted subprocess outcome.
type Response struct {
	Stdout string
	Stderr string
	Code   int
	Err    error
}

// FakeExec is a scripted git.ExecFunc. Rules are matched against the joined
// argv in registration order; the first substring match wins. Unmatched
// invocations succeed with empty output.
type FakeExec struct {
	mu    sync.Mutex
	rules []rule
	calls []Call
}

type rule struct {
	contains string
	response Response
}

// NewFakeExec creates an empty fake.
func NewFakeExec() *FakeExec {
	return &FakeExec{}
}

// On registers a response for invocations whose argv contains the substring.
func (f *FakeExec) On(contains string, response Response) *FakeExec {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, rule{contains: contains, response: response})
	return f
}

// Func returns the git.ExecFunc to install on a driver.
func (f *FakeExec) Func() git.ExecFunc {
	return func(_ context.Context, bin string, args []string, dir string, env []string) ([]byte, []byte, int, error) {
		call := Call{Bin: bin, Args: append([]string{}, args...), Dir: dir, Env: env}

		f.mu.Lock()
		f.calls = append(f.calls, call)
		rules := append([]rule{}, f.rules...)
		f.mu.Unlock()

		argv := call.Argv()
		for _, r := range rules {
			if strings.Contains(argv, r.contains) {
				return []byte(r.response.Stdout), []byte(r.response.Stderr), r.response.Code, r.response.Err
			}
		}
		return nil, nil, 0, nil
	}
}

// Calls returns every recorded invocation.
func (f *FakeExec) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call{}, f.calls...)
}

// CallsMatching returns the recorded invocations whose argv contains the
// substring.
func (f *FakeExec) CallsMatching(contains string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if strings.Contains(c.Argv(), contains) {
			out = append(out, c)
		}
	}
	return out
}

// Reset clears the recorded invocations but keeps the rules.
func (f *FakeExec) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

// NewTestClient builds a client over the fake for a repository rooted at
// root, with LFS locking on and user "alice" by default.
func NewTestClient(f *FakeExec, root string) *git.Client {
	repo := &git.RepoContext{
		RepositoryRoot: root,
		GitRoot:        root,
		UsesLFSLocking: true,
		LockUser:       "alice",
		Lockable:       git.NewSuffixSet(),
	}
	repo.Lockable.AddPattern("*.uasset")
	repo.Lockable.AddPattern("*.umap")

	driver := &git.Driver{Exec: f.Func()}
	return git.NewClient(driver, repo, output.NewSplog())
}
