package internal

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// CommitInfo is the slice of git metadata the window needs.
type CommitInfo struct {
	Hash           string
	CommittedAt    time.Time
	PreviousHash   string
	PreviousCommit time.Time // zero for a root commit
}

// CommitWindow reads the commit time of rev and of its first parent.
func CommitWindow(ctx context.Context, repoDir, rev string) (*CommitInfo, error) {
	if rev == "" {
		rev = "HEAD"
	}

	cmd := exec.CommandContext(ctx, "git", "log", "-2", "--first-parent", "--format=%H%x09%cI", rev, "--")
	cmd.Dir = repoDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git log %s failed: %w: %s", rev, err, strings.TrimSpace(stderr.String()))
	}

	return parseCommitLog(stdout.String())
}

func parseCommitLog(out string) (*CommitInfo, error) {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) == 0 || lines[0] == "" {
		return nil, fmt.Errorf("git log returned no commits")
	}

	hash, at, err := parseCommitLine(lines[0])
	if err != nil {
		return nil, err
	}
	info := &CommitInfo{Hash: hash, CommittedAt: at}

	if len(lines) > 1 {
		prevHash, prevAt, err := parseCommitLine(lines[1])
		if err != nil {
			return nil, err
		}
		info.PreviousHash = prevHash
		info.PreviousCommit = prevAt
	}
	return info, nil
}

func parseCommitLine(line string) (string, time.Time, error) {
	parts := strings.SplitN(strings.TrimSpace(line), "\t", 2)
	if len(parts) != 2 {
		return "", time.Time{}, fmt.Errorf("unexpected git log line: %q", line)
	}
	at, err := time.Parse(time.RFC3339, parts[1])
	if err != nil {
		return "", time.Time{}, fmt.Errorf("invalid commit time %q: %w", parts[1], err)
	}
	return parts[0], at, nil
}
