package git

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Version is a parsed `git version` response. Forked builds (git for
// windows, Apple git, VFS builds) carry their fork identity after the
// upstream version triple.
type Version struct {
	Major int
	Minor int
	Patch int

	Fork      string
	ForkMajor int
	ForkMinor int
}

// IsFork reports whether this is a vendor build rather than upstream git.
func (v *Version) IsFork() bool {
	return v.Fork != ""
}

func (v *Version) String() string {
	if v.IsFork() {
		return fmt.Sprintf("%d.%d.%d (%s %d.%d)", v.Major, v.Minor, v.Patch, v.Fork, v.ForkMajor, v.ForkMinor)
	}
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// ParseGitVersion parses one line of `git version` output.
func ParseGitVersion(line string) (*Version, bool) {
	const prefix = "git version "
	if !strings.HasPrefix(line, prefix) {
		return nil, false
	}

	fields := strings.Fields(line[len(prefix):])
	if len(fields) == 0 {
		return nil, false
	}

	parts := strings.Split(fields[0], ".")
	if len(parts) < 3 {
		return nil, false
	}

	v := &Version{}
	var err error
	if v.Major, err = strconv.Atoi(parts[0]); err != nil {
		return nil, false
	}
	if v.Minor, err = strconv.Atoi(parts[1]); err != nil {
		return nil, false
	}
	if v.Patch, err = strconv.Atoi(parts[2]); err != nil {
		return nil, false
	}

	// git for windows style: 2.31.1.windows.1
	if len(parts) >= 5 {
		if _, err := strconv.Atoi(parts[3]); err != nil {
			v.Fork = parts[3]
			v.ForkMajor, _ = strconv.Atoi(parts[4])
			if len(parts) >= 6 {
				v.ForkMinor, _ = strconv.Atoi(parts[5])
			}
		}
	}

	// Apple style: git version 2.24.1 (Apple Git-126)
	if v.Fork == "" && len(fields) >= 2 && strings.HasPrefix(fields[1], "(") {
		v.Fork = strings.Trim(strings.Join(fields[1:], " "), "()")
	}

	return v, true
}

// GetGitVersion asks the configured binary for its version.
func (c *Client) GetGitVersion(ctx context.Context) (*Version, error) {
	res, err := c.Driver.Run(ctx, c.Repo, "version", nil, nil)
	if err != nil {
		return nil, err
	}
	if len(res.Stdout) == 0 {
		return nil, fmt.Errorf("empty version output")
	}
	v, ok := ParseGitVersion(res.Stdout[0])
	if !ok {
		return nil, fmt.Errorf("unrecognized version output: %q", res.Stdout[0])
	}
	return v, nil
}
