package git

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	lockerrors "lockstep.dev/lockstep/internal/errors"
)

// DefaultCommandTimeout is the default timeout for git commands
const DefaultCommandTimeout = 5 * time.Minute

// MaxFilesPerBatch is the largest file list passed to a single invocation.
// Longer lists are split and their successes AND-reduced.
const MaxFilesPerBatch = 50

// ExecFunc runs a binary and captures its output. The returned error covers
// spawn failures only; a non-zero exit is reported through code.
type ExecFunc func(ctx context.Context, bin string, args []string, dir string, env []string) (stdout, stderr []byte, code int, err error)

// Result is the captured outcome of one driver run.
type Result struct {
	Code   int
	Stdout []string
	Stderr []string
	Raw    string
}

// Driver assembles argv, runs the subprocess, and captures output. It never
// panics; failure is a Result plus a GitCommandError.
type Driver struct {
	Exec ExecFunc
}

// NewDriver creates a driver running real subprocesses.
func NewDriver() *Driver {
	return &Driver{Exec: runProcess}
}

func runProcess(ctx context.Context, bin string, args []string, dir string, env []string) ([]byte, []byte, int, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	// If no timeout/deadline is set in the context, add the default one
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultCommandTimeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	if dir != "" {
		cmd.Dir = dir
	}
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	code := 0
	if exitErr, ok := err.(*exec.ExitError); ok {
		code = exitErr.ExitCode()
		err = nil
	}
	return stdout.Bytes(), stderr.Bytes(), code, err
}

// Run executes a git verb expecting return code 0.
func (d *Driver) Run(ctx context.Context, repo *RepoContext, verb string, params, files []string) (*Result, error) {
	return d.RunExpecting(ctx, repo, verb, params, files, 0)
}

// RunExpecting executes a git verb. Success means the return code equals
// expected. File lists longer than MaxFilesPerBatch are split across
// invocations, preserving order, and the batch successes are AND-reduced.
func (d *Driver) RunExpecting(ctx context.Context, repo *RepoContext, verb string, params, files []string, expected int) (*Result, error) {
	if len(files) <= MaxFilesPerBatch {
		return d.runOnce(ctx, repo, verb, params, files, expected, nil)
	}

	combined := &Result{Code: expected}
	var firstErr error
	for start := 0; start < len(files); start += MaxFilesPerBatch {
		end := start + MaxFilesPerBatch
		if end > len(files) {
			end = len(files)
		}
		res, err := d.runOnce(ctx, repo, verb, params, files[start:end], expected, nil)
		combined.Stdout = append(combined.Stdout, res.Stdout...)
		combined.Stderr = append(combined.Stderr, res.Stderr...)
		combined.Raw += res.Raw
		if err != nil {
			combined.Code = res.Code
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return combined, firstErr
}

// RunLFS executes a git-lfs verb, dispatching to the bundled binary when one
// is configured and to `git lfs` otherwise.
func (d *Driver) RunLFS(ctx context.Context, repo *RepoContext, verb string, params, files []string) (*Result, error) {
	return d.RunLFSExpecting(ctx, repo, verb, params, files, 0)
}

// RunLFSExpecting is RunLFS with an explicit expected return code.
func (d *Driver) RunLFSExpecting(ctx context.Context, repo *RepoContext, verb string, params, files []string, expected int) (*Result, error) {
	if repo.LFSBinaryPath == "" {
		return d.RunExpecting(ctx, repo, "lfs "+verb, params, files, expected)
	}

	args := append(strings.Fields(verb), params...)
	args = append(args, files...)
	return d.invoke(ctx, repo.LFSBinaryPath, args, repo.RepositoryRoot, nil, expected)
}

// RunWithEnv executes a git verb with extra environment variables.
func (d *Driver) RunWithEnv(ctx context.Context, repo *RepoContext, env []string, verb string, params, files []string) (*Result, error) {
	return d.runOnce(ctx, repo, verb, params, files, 0, env)
}

func (d *Driver) runOnce(ctx context.Context, repo *RepoContext, verb string, params, files []string, expected int, env []string) (*Result, error) {
	workDir := repo.RepositoryRoot

	// Migrate case: the first file is absolute and outside the repository.
	// Substitute the working directory for this invocation only.
	if len(files) > 0 && workDir != "" && filepath.IsAbs(files[0]) &&
		!isWithin(filepath.Clean(files[0]), filepath.Clean(workDir)) {
		if root := findGitMarker(filepath.Dir(files[0])); root != "" {
			workDir = root
		}
	}

	var args []string
	if workDir != "" {
		args = append(args, "-C", workDir)
	}
	args = append(args, strings.Fields(verb)...)
	for _, p := range params {
		if p != "" {
			args = append(args, p)
		}
	}
	args = append(args, files...)

	bin := repo.BinaryPath
	if bin == "" {
		bin = "git"
	}

	// On macOS desktop launches PATH lacks the git directory, which breaks
	// locating the sibling git-lfs binary. Re-invoke via /usr/bin/env with
	// PATH augmented.
	if runtime.GOOS == "darwin" && filepath.IsAbs(bin) {
		binDir := filepath.Dir(bin)
		if !strings.Contains(os.Getenv("PATH"), binDir) {
			args = append([]string{"PATH=" + os.Getenv("PATH") + ":" + binDir, bin}, args...)
			bin = "/usr/bin/env"
		}
	}

	return d.invoke(ctx, bin, args, "", env, expected)
}

func (d *Driver) invoke(ctx context.Context, bin string, args []string, dir string, env []string, expected int) (*Result, error) {
	stdout, stderr, code, err := d.Exec(ctx, bin, args, dir, env)

	res := &Result{
		Code:   code,
		Stdout: splitLines(stdout),
		Stderr: splitLines(stderr),
		Raw:    string(stdout),
	}

	if err == nil && code == expected {
		// git reports progress on stderr; on success promote it to stdout
		if len(res.Stderr) > 0 {
			res.Stdout = append(res.Stdout, res.Stderr...)
			res.Stderr = nil
		}
		return res, nil
	}

	return res, lockerrors.NewGitCommandError(bin, args, string(stdout), string(stderr), err)
}

// findGitMarker walks up from dir looking for a .git entry and returns the
// containing directory, or "".
// isWithin reports whether the cleaned path sits at or below the cleaned
// root. A plain prefix test is not enough: /work/project2 is a sibling of
// /work/project, not a child.
func isWithin(path, root string) bool {
	return path == root || strings.HasPrefix(path, root+string(filepath.Separator))
}

func findGitMarker(dir string) string {
	for {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func splitLines(raw []byte) []string {
	if len(raw) == 0 {
		return nil
	}
	var lines []string
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimRight(line, "\r")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
