package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsStalePushRejection(t *testing.T) {
	tests := []struct {
		name string
		out  string
		want bool
	}{
		{"non-fast-forward", "! [rejected] main -> main (non-fast-forward)", true},
		{"fetch first", "! [rejected] main -> main (fetch first)", true},
		{"cannot lock ref", "error: cannot lock ref 'refs/heads/main'", true},
		{"rejected for another reason", "! [rejected] main -> main (hook declined)", false},
		{"permission denied", "remote: permission denied", false},
		{"empty", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, IsStalePushRejection(tc.out))
		})
	}
}

func TestIsOutsideRepository(t *testing.T) {
	require.True(t, IsOutsideRepository("fatal: /elsewhere/a.txt: '/elsewhere/a.txt' is outside repository at '/work'"))
	require.False(t, IsOutsideRepository("fatal: pathspec 'a.txt' did not match any files"))
}

func TestGitCommandErrorMessage(t *testing.T) {
	err := NewGitCommandError("git", []string{"push"}, "out", "err", nil)
	require.Contains(t, err.Error(), "git command failed: git")
	require.Contains(t, err.Error(), "stderr: err")
	require.Contains(t, err.Error(), "stdout: out")
}

func TestSentinelMatching(t *testing.T) {
	var lockErr error = NewLockQueryError([]string{"--cached"}, "boom")
	require.True(t, errors.Is(lockErr, ErrLockQueryFailed))

	var pushErr error = NewPushRejectedError("main", "stale")
	require.True(t, errors.Is(pushErr, ErrPushRejected))
	require.Contains(t, pushErr.Error(), "push of main rejected: stale")
}
