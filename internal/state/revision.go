package state

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Revision is an immutable record of a file at a commit, parsed from
// `log --name-status` output and enriched from `ls-tree --long`.
type Revision struct {
	// Filename is the path relative to the repository root
	Filename string

	// CommitID is the full commit sha, ShortCommitID its abbreviation
	CommitID       string
	ShortCommitID  string
	CommitIDNumber int

	// RevisionNumber orders the history: the oldest revision is 1
	RevisionNumber int

	Description string
	UserName    string
	UserEmail   string
	Date        time.Time

	// Action is one of unmodified, modified, add, delete, branch,
	// type changed, unmerged, unknown, broked pairing
	Action string

	// FileHash is the blob sha of the file at this revision
	FileHash string
	FileSize int64

	// BranchSource links a rename ("branch") action to its origin revision
	BranchSource *Revision

	// RepoRootOverride makes blob retrieval run against another working
	// copy root, used when showing history across a migrated file.
	RepoRootOverride string
}

// BlobDumper fetches `<rev>:<file>` blob content (with LFS filters applied)
// into a local file.
type BlobDumper interface {
	DumpToFile(ctx context.Context, revSpec, outPath, repoRootOverride string) error
}

// Get materializes this revision's content under diffDir and returns the
// path. An already-materialized file is reused.
func (r *Revision) Get(ctx context.Context, dumper BlobDumper, diffDir string) (string, error) {
	tempFileName := fmt.Sprintf("temp-%s-%s", r.CommitID, cleanFilename(r.Filename))
	outPath := filepath.Join(diffDir, tempFileName)

	if _, err := os.Stat(outPath); err == nil {
		return outPath, nil
	}

	if err := os.MkdirAll(diffDir, 0750); err != nil {
		return "", fmt.Errorf("failed to create diff directory: %w", err)
	}

	revSpec := fmt.Sprintf("%s:%s", r.CommitID, r.Filename)
	if err := dumper.DumpToFile(ctx, revSpec, outPath, r.RepoRootOverride); err != nil {
		return "", err
	}

	return outPath, nil
}

// cleanFilename reduces a repo-relative path to a flat, filesystem-safe name.
func cleanFilename(path string) string {
	base := filepath.Base(path)
	var b strings.Builder
	for _, c := range base {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '.', c == '_', c == '-':
			b.WriteRune(c)
		default:
			b.WriteRune('-')
		}
	}
	return b.String()
}
