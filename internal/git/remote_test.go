package git

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"lockstep.dev/lockstep/internal/state"
)

func TestCheckRemoteMarksNewerFiles(t *testing.T) {
	root := "/work/project"
	hero := filepath.Join(root, "Content", "Hero.uasset")
	level := filepath.Join(root, "Content", "Level.umap")

	c := newStatusClient(t, root, map[string]string{
		"rev-parse --abbrev-ref": "origin/main\n",
		"..origin/main":          "Content/Hero.uasset\n",
		"branch --remotes":       "origin/release\n",
		"..origin/release":       "Content/Hero.uasset\nContent/Level.umap\n",
	})
	c.Repo.Lockable.AddPattern("*.umap")

	onto := map[string]state.Delta{
		hero:  {Remote: state.RemoteUpToDate},
		level: {Remote: state.RemoteUpToDate},
	}

	pendingRestart, err := c.CheckRemote(context.Background(), []string{"origin/release*"}, []string{"Content"}, onto)
	require.NoError(t, err)
	require.False(t, pendingRestart)

	// The current upstream wins over other status branches
	require.Equal(t, state.RemoteNotAtHead, onto[hero].Remote)
	require.Equal(t, "origin/main", onto[hero].HeadBranch)

	require.Equal(t, state.RemoteNotLatest, onto[level].Remote)
	require.Equal(t, "origin/release", onto[level].HeadBranch)
}

func TestCheckRemoteOnlyTouchesKnownFiles(t *testing.T) {
	root := "/work/project"
	c := newStatusClient(t, root, map[string]string{
		"rev-parse --abbrev-ref": "origin/main\n",
		"..origin/main":          "Content/Stranger.uasset\n",
	})

	onto := map[string]state.Delta{}
	_, err := c.CheckRemote(context.Background(), nil, []string{"Content"}, onto)
	require.NoError(t, err)
	require.Empty(t, onto)
}

func TestCheckRemotePendingRestart(t *testing.T) {
	root := "/work/project"
	c := newStatusClient(t, root, map[string]string{
		"rev-parse --abbrev-ref": "origin/main\n",
		"..origin/main":          "Binaries/Win64/Game.dll\n",
	})

	pendingRestart, err := c.CheckRemote(context.Background(), nil, []string{"Content"}, map[string]state.Delta{})
	require.NoError(t, err)
	require.True(t, pendingRestart)
}

func TestCheckRemoteNoBranches(t *testing.T) {
	root := "/work/project"
	c := newStatusClient(t, root, map[string]string{
		"rev-parse --abbrev-ref": "",
	})

	pendingRestart, err := c.CheckRemote(context.Background(), nil, []string{"Content"}, map[string]state.Delta{})
	require.NoError(t, err)
	require.False(t, pendingRestart)
}
