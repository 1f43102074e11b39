// Package errors provides sentinel errors and custom error types for the lockstep core.
// Use errors.Is() and errors.As() to check for specific error types.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common conditions
var (
	// ErrGitNotFound indicates that no usable git binary could be located
	ErrGitNotFound = errors.New("git binary not found")

	// ErrPushRejected indicates that a push was rejected because the remote advanced
	ErrPushRejected = errors.New("push rejected")

	// ErrLockQueryFailed indicates that the LFS lock server could not be queried
	ErrLockQueryFailed = errors.New("lfs lock query failed")
)

// GitCommandError represents an error from a git or git-lfs command execution
type GitCommandError struct {
	Command string
	Args    []string
	Stdout  string
	Stderr  string
	Err     error
}

func (e *GitCommandError) Error() string {
	msg := fmt.Sprintf("git command failed: %s", e.Command)
	if len(e.Args) > 0 {
		msg += fmt.Sprintf(" %v", e.Args)
	}
	if e.Stderr != "" {
		msg += fmt.Sprintf("\nstderr: %s", e.Stderr)
	}
	if e.Stdout != "" {
		msg += fmt.Sprintf("\nstdout: %s", e.Stdout)
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n%v", e.Err)
	}
	return msg
}

func (e *GitCommandError) Unwrap() error {
	return e.Err
}

// NewGitCommandError creates a new GitCommandError
func NewGitCommandError(command string, args []string, stdout, stderr string, err error) *GitCommandError {
	return &GitCommandError{
		Command: command,
		Args:    args,
		Stdout:  stdout,
		Stderr:  stderr,
		Err:     err,
	}
}

// PushRejectedError represents a push refused because the remote has newer commits
type PushRejectedError struct {
	Branch  string
	Message string
}

func (e *PushRejectedError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("push of %s rejected: %s", e.Branch, e.Message)
	}
	return fmt.Sprintf("push of %s rejected", e.Branch)
}

// Is returns true if the target error is ErrPushRejected
func (e *PushRejectedError) Is(target error) bool {
	return target == ErrPushRejected
}

// NewPushRejectedError creates a new PushRejectedError
func NewPushRejectedError(branch, message string) *PushRejectedError {
	return &PushRejectedError{Branch: branch, Message: message}
}

// LockQueryError represents a failed git-lfs locks invocation
type LockQueryError struct {
	Params  []string
	Message string
}

func (e *LockQueryError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("lfs locks %s failed: %s", strings.Join(e.Params, " "), e.Message)
	}
	return fmt.Sprintf("lfs locks %s failed", strings.Join(e.Params, " "))
}

// Is returns true if the target error is ErrLockQueryFailed
func (e *LockQueryError) Is(target error) bool {
	return target == ErrLockQueryFailed
}

// NewLockQueryError creates a new LockQueryError
func NewLockQueryError(params []string, message string) *LockQueryError {
	return &LockQueryError{Params: params, Message: message}
}

// IsStalePushRejection reports whether raw push output describes a
// rejected-for-staleness push that a fetch+pull can recover from.
func IsStalePushRejection(out string) bool {
	if strings.Contains(out, "[rejected]") &&
		(strings.Contains(out, "non-fast-forward") || strings.Contains(out, "fetch first")) {
		return true
	}
	return strings.Contains(out, "cannot lock ref")
}

// outsideRepositoryMarker is the fragment git prints when a pathspec falls
// outside the working copy. It is expected during file migrations between
// projects and gets demoted from error to info.
const outsideRepositoryMarker = "' is outside repository"

// IsOutsideRepository reports whether a git message is the well-known
// "outside repository" complaint.
func IsOutsideRepository(msg string) bool {
	return strings.Contains(msg, outsideRepositoryMarker)
}
