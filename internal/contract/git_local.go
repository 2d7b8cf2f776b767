package contract

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/gitrisk/hotspot/schema"
)

// headerPrefix marks the first line of every commit entry in the log output.
const headerPrefix = "--"

// logFormat yields "--<hash>|<parents>|<author name>|<author epoch>".
const logFormat = "--format=" + headerPrefix + "%H|%P|%an|%at"

// LocalGitClient implements the GitClient interface by executing the
// local 'git' binary installed on the machine.
type LocalGitClient struct{}

var _ GitClient = &LocalGitClient{} // Compile-time check

// NewLocalGitClient creates a new instance of the local Git client.
func NewLocalGitClient() *LocalGitClient {
	return &LocalGitClient{}
}

// Run executes a git command and returns its stdout output.
func (c *LocalGitClient) Run(ctx context.Context, repoPath string, args ...string) ([]byte, error) {
	fullArgs := append([]string{"-C", repoPath}, args...)
	cmd := exec.CommandContext(ctx, "git", fullArgs...)
	out, err := cmd.Output()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		stderr := strings.TrimSpace(string(exitErr.Stderr))
		return nil, fmt.Errorf("git command failed in %q: %s. If this is not a Git repository, verify the path or run 'git init'", repoPath, stderr)
	} else if err != nil {
		return nil, fmt.Errorf("git command failed: %w. Ensure Git is installed and available on your PATH", err)
	}
	return out, nil
}

// GetRepoHash implements the GitClient interface.
func (c *LocalGitClient) GetRepoHash(ctx context.Context, repoPath string) (string, error) {
	out, err := c.Run(ctx, repoPath, "rev-parse", "--verify", "-q", "HEAD")
	if err != nil {
		// rev-parse -q exits non-zero without output on an unborn HEAD.
		if _, rootErr := c.GetRepoRoot(ctx, repoPath); rootErr == nil {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// GetRepoRoot implements the GitClient interface.
func (c *LocalGitClient) GetRepoRoot(ctx context.Context, contextPath string) (string, error) {
	out, err := c.Run(ctx, contextPath, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", &RepositoryOpenError{Path: contextPath, Err: err}
	}
	return strings.TrimSpace(string(out)), nil
}

// OpenHistory implements the GitClient interface.
func (c *LocalGitClient) OpenHistory(ctx context.Context, repoPath string) (History, error) {
	root, err := c.GetRepoRoot(ctx, repoPath)
	if err != nil {
		return nil, err
	}
	return &localHistory{client: c, repoPath: root}, nil
}

// localHistory streams `git log -m --numstat`, which repeats a merge commit
// once per parent, each followed by the numstat of that parent comparison.
type localHistory struct {
	client   *LocalGitClient
	repoPath string

	// current holds the per-parent changes of the commit handed to the walk callback.
	current     string
	currentDiff [][]schema.ChangeRecord
}

var _ History = &localHistory{} // Compile-time check

// logEntry is one header block of the log output.
type logEntry struct {
	commit  schema.Commit
	changes []schema.ChangeRecord
}

// Walk implements the History interface.
func (h *localHistory) Walk(ctx context.Context, fn func(schema.Commit) error) error {
	hash, err := h.client.GetRepoHash(ctx, h.repoPath)
	if err != nil {
		return &CommitReadError{Err: err}
	}
	if hash == "" {
		return nil
	}

	args := []string{
		"-C", h.repoPath,
		"-c", "core.quotePath=false",
		"log", "-m", "--numstat", "--no-renames", "--no-color", logFormat, "HEAD",
	}
	cmd := exec.CommandContext(ctx, "git", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return &CommitReadError{Err: err}
	}
	if err := cmd.Start(); err != nil {
		return &CommitReadError{Err: fmt.Errorf("git log failed to start: %w. Ensure Git is installed and available on your PATH", err)}
	}

	walkErr := h.consume(stdout, fn)
	if walkErr != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return walkErr
	}
	if err := cmd.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &CommitReadError{Err: fmt.Errorf("git log failed in %q: %s", h.repoPath, strings.TrimSpace(stderr.String()))}
	}
	return nil
}

// consume groups consecutive entries of the same commit and hands each commit to fn.
func (h *localHistory) consume(r io.Reader, fn func(schema.Commit) error) error {
	var pending []logEntry
	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		c := pending[0].commit
		h.current = c.Hash
		h.currentDiff = make([][]schema.ChangeRecord, len(pending))
		for i, e := range pending {
			h.currentDiff[i] = e.changes
		}
		pending = pending[:0]
		return fn(c)
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, headerPrefix) {
			c, err := parseLogHeader(line)
			if err != nil {
				return err
			}
			if len(pending) > 0 && pending[0].commit.Hash != c.Hash {
				if err := flush(); err != nil {
					return err
				}
			}
			pending = append(pending, logEntry{commit: c})
			continue
		}
		if len(pending) == 0 {
			continue
		}
		if rec, ok := parseNumstatLine(line); ok {
			last := &pending[len(pending)-1]
			last.changes = append(last.changes, rec)
		}
	}
	if err := scanner.Err(); err != nil {
		return &CommitReadError{Err: err}
	}
	return flush()
}

// Diff implements the History interface. It only answers for the commit
// currently being visited by Walk.
func (h *localHistory) Diff(_ context.Context, c schema.Commit, parent int) ([]schema.ChangeRecord, error) {
	if c.Hash != h.current {
		return nil, fmt.Errorf("commit %s is not the current walk position", c.Hash)
	}
	if parent < 0 || parent >= len(c.Parents) {
		return nil, fmt.Errorf("commit %s has no parent %d", c.Hash, parent)
	}
	// A parent comparison with no file changes prints no entry of its own.
	if parent >= len(h.currentDiff) {
		return nil, nil
	}
	return h.currentDiff[parent], nil
}

// Close implements the History interface.
func (h *localHistory) Close() error {
	h.current = ""
	h.currentDiff = nil
	return nil
}

// parseLogHeader parses "--<hash>|<parents>|<author>|<epoch>".
func parseLogHeader(line string) (schema.Commit, error) {
	body := strings.TrimPrefix(line, headerPrefix)
	hash, rest, ok := strings.Cut(body, "|")
	if !ok {
		return schema.Commit{}, &CommitReadError{Err: fmt.Errorf("malformed log header %q", line)}
	}
	parents, rest, ok := strings.Cut(rest, "|")
	if !ok {
		return schema.Commit{}, &CommitReadError{Commit: hash, Err: fmt.Errorf("malformed log header %q", line)}
	}
	// Author names may contain '|', the epoch never does.
	sep := strings.LastIndex(rest, "|")
	if sep < 0 {
		return schema.Commit{}, &CommitReadError{Commit: hash, Err: fmt.Errorf("malformed log header %q", line)}
	}
	author, epochStr := rest[:sep], rest[sep+1:]
	epoch, err := strconv.ParseInt(strings.TrimSpace(epochStr), 10, 64)
	if err != nil {
		return schema.Commit{}, &CommitReadError{Commit: hash, Err: fmt.Errorf("invalid author time %q: %w", epochStr, err)}
	}
	return schema.Commit{
		Hash:    hash,
		When:    time.Unix(epoch, 0).UTC(),
		Author:  AuthorName(author),
		Parents: strings.Fields(parents),
	}, nil
}

// parseNumstatLine parses "<added>\t<removed>\t<path>". Binary entries use
// "-" for both counts and are reported as not ok, as are entries with no
// changed lines. Paths that git C-quotes
// (those with '"', '\\' or control characters) are unquoted.
func parseNumstatLine(line string) (schema.ChangeRecord, bool) {
	parts := strings.SplitN(line, "\t", 3)
	if len(parts) != 3 {
		return schema.ChangeRecord{}, false
	}
	added, err := strconv.Atoi(parts[0])
	if err != nil {
		return schema.ChangeRecord{}, false
	}
	removed, err := strconv.Atoi(parts[1])
	if err != nil || added+removed == 0 {
		return schema.ChangeRecord{}, false
	}
	return schema.ChangeRecord{Path: unquotePath(parts[2]), Added: added, Removed: removed}, true
}

func unquotePath(p string) string {
	if len(p) < 2 || p[0] != '"' || p[len(p)-1] != '"' {
		return p
	}
	if u, err := strconv.Unquote(p); err == nil {
		return u
	}
	return p
}
