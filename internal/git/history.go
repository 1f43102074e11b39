package git

import (
	"context"
	"strconv"
	"strings"
	"time"

	"lockstep.dev/lockstep/internal/state"
)

// historyLimit caps non-conflict history queries.
const historyLimit = 250

// ParseLogResults turns `log --name-status --pretty=medium --date=raw`
// output into revisions, newest first. Rename and copy entries get the
// "branch" action and are linked to the next (older) revision as their
// source.
func ParseLogResults(lines []string) []*state.Revision {
	var revisions []*state.Revision
	var current *state.Revision

	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "commit "):
			current = &state.Revision{CommitID: strings.TrimSpace(line[7:])}
			if len(current.CommitID) >= 8 {
				current.ShortCommitID = current.CommitID[:8]
				if n, err := strconv.ParseInt(current.ShortCommitID, 16, 64); err == nil {
					current.CommitIDNumber = int(n)
				}
			}
			revisions = append(revisions, current)

		case current == nil:
			continue

		case strings.HasPrefix(line, "Author: "):
			author := line[8:]
			if lt := strings.LastIndexByte(author, '<'); lt >= 0 {
				current.UserName = strings.TrimSpace(author[:lt])
				current.UserEmail = strings.TrimSuffix(strings.TrimSpace(author[lt+1:]), ">")
			} else {
				current.UserName = strings.TrimSpace(author)
			}

		case strings.HasPrefix(line, "Date:   "):
			fields := strings.Fields(line[8:])
			if len(fields) > 0 {
				if secs, err := strconv.ParseInt(fields[0], 10, 64); err == nil {
					current.Date = time.Unix(secs, 0)
				}
			}

		case strings.HasPrefix(line, "    "):
			current.Description += line[4:] + "\n"

		case len(line) > 0:
			current.Action = logActionName(line[0])
			if tab := strings.LastIndexByte(line, '\t'); tab >= 0 {
				current.Filename = line[tab+1:]
			}
		}
	}

	for i, rev := range revisions {
		rev.RevisionNumber = len(revisions) - i
		if rev.Action == "branch" && i+1 < len(revisions) {
			rev.BranchSource = revisions[i+1]
		}
	}
	return revisions
}

func logActionName(status byte) string {
	switch status {
	case ' ':
		return "unmodified"
	case 'M':
		return "modified"
	case 'A':
		return "add"
	case 'D':
		return "delete"
	case 'R', 'C':
		return "branch"
	case 'T':
		return "type changed"
	case 'U':
		return "unmerged"
	case 'X':
		return "unknown"
	default:
		return "broked pairing"
	}
}

// ParseLSTreeLine extracts the blob sha and size from one line of
// `ls-tree --long` output. The format is fixed-width up to the size column.
func ParseLSTreeLine(line string) (hash string, size int64, ok bool) {
	tab := strings.IndexByte(line, '\t')
	if tab < 53 || len(line) < 53 {
		return "", 0, false
	}
	hash = line[12:52]
	size, err := strconv.ParseInt(strings.TrimSpace(line[53:tab]), 10, 64)
	if err != nil {
		return "", 0, false
	}
	return hash, size, true
}

// GetHistory returns the revision history of one repo-relative file, newest
// first. For a conflicted file the merge source revision (the MERGE_HEAD
// tip) is fetched first so the resolve tooling can diff against it, followed
// by the regular log.
func (c *Client) GetHistory(ctx context.Context, file string, conflicted bool) ([]*state.Revision, error) {
	base := []string{"--follow", "--date=raw", "--name-status", "--pretty=medium"}

	var revisions []*state.Revision
	if conflicted {
		params := append(append([]string{}, base...), "MERGE_HEAD", "--max-count", "1")
		if merge, err := c.fetchRevisions(ctx, params, file); err == nil {
			revisions = merge
		}
	}

	params := append(append([]string{}, base...), "--max-count", strconv.Itoa(historyLimit))
	head, err := c.fetchRevisions(ctx, params, file)
	if err != nil {
		if len(revisions) > 0 {
			return revisions, nil
		}
		return nil, err
	}
	return append(revisions, head...), nil
}

func (c *Client) fetchRevisions(ctx context.Context, params []string, file string) ([]*state.Revision, error) {
	lines, err := c.GetLog(ctx, params, []string{file})
	if err != nil {
		return nil, err
	}

	revisions := ParseLogResults(lines)
	for _, rev := range revisions {
		rev.RepoRootOverride = c.Repo.RepositoryRoot
		name := rev.Filename
		if name == "" {
			name = file
		}
		treeLines, err := c.LsTree(ctx, []string{"--long", rev.CommitID}, name)
		if err != nil || len(treeLines) == 0 {
			continue
		}
		if hash, size, ok := ParseLSTreeLine(treeLines[0]); ok {
			rev.FileHash = hash
			rev.FileSize = size
		}
	}
	return revisions, nil
}
