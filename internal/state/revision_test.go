package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeDumper struct {
	calls []string
}

func (d *fakeDumper) DumpToFile(_ context.Context, revSpec, outPath, _ string) error {
	d.calls = append(d.calls, revSpec)
	return os.WriteFile(outPath, []byte("blob"), 0600)
}

func TestRevisionGet(t *testing.T) {
	dir := t.TempDir()
	diffDir := filepath.Join(dir, "diffs")
	dumper := &fakeDumper{}

	r := &Revision{
		Filename: "Content/Hero.uasset",
		CommitID: "abc123",
	}

	path, err := r.Get(context.Background(), dumper, diffDir)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(diffDir, "temp-abc123-Hero.uasset"), path)
	require.Equal(t, []string{"abc123:Content/Hero.uasset"}, dumper.calls)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "blob", string(data))

	// A second Get reuses the materialized file without another dump
	again, err := r.Get(context.Background(), dumper, diffDir)
	require.NoError(t, err)
	require.Equal(t, path, again)
	require.Len(t, dumper.calls, 1)
}

func TestCleanFilename(t *testing.T) {
	require.Equal(t, "Hero.uasset", cleanFilename("Content/Maps/Hero.uasset"))
	require.Equal(t, "a-b_c-1.bin", cleanFilename("dir/a b_c%1.bin"))
}
