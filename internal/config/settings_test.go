package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newRepoDir(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0750))
	return root
}

func TestGetSettingsDefaults(t *testing.T) {
	root := newRepoDir(t)

	settings, err := GetSettings(root)
	require.NoError(t, err)
	require.Empty(t, settings.GetBinaryPath())
	require.False(t, settings.GetUsingGitLfsLocking())
	require.Empty(t, settings.GetLfsUserName())
	require.Equal(t, []string{"Content"}, settings.GetContentDirs())
	require.Equal(t, []string{"*.uasset", "*.umap"}, settings.GetLockablePatterns())
}

func TestSettingsRoundTrip(t *testing.T) {
	root := newRepoDir(t)

	require.NoError(t, SetUsingGitLfsLocking(root, true))
	require.NoError(t, SetLfsUserName(root, "alice"))
	require.NoError(t, SetBinaryPath(root, "/usr/local/bin/git"))

	settings, err := GetSettings(root)
	require.NoError(t, err)
	require.True(t, settings.GetUsingGitLfsLocking())
	require.Equal(t, "alice", settings.GetLfsUserName())
	require.Equal(t, "/usr/local/bin/git", settings.GetBinaryPath())

	// The file lives inside .git so it never appears as an untracked file
	_, statErr := os.Stat(filepath.Join(root, ".git", configFileName))
	require.NoError(t, statErr)
}

func TestSettingsPartialUpdatesPreserveOthers(t *testing.T) {
	root := newRepoDir(t)

	require.NoError(t, SetLfsUserName(root, "alice"))
	require.NoError(t, SetUsingGitLfsLocking(root, true))

	name, err := GetLfsUserName(root)
	require.NoError(t, err)
	require.Equal(t, "alice", name)

	locking, err := GetUsingGitLfsLocking(root)
	require.NoError(t, err)
	require.True(t, locking)
}

func TestGetSettingsRejectsMalformedFile(t *testing.T) {
	root := newRepoDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, ".git", configFileName), []byte("{not json"), 0600))

	_, err := GetSettings(root)
	require.Error(t, err)
}
