// Package hosttool wraps invocations of the host's git binary: export,
// import, reset, clone, log and the handful of plumbing/porcelain
// commands the submodule-materializing driver needs.
package hosttool

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// CommandError carries the argv and captured stderr of a failing
// subprocess invocation (a git command, or an external blob filter run
// via RunFilter).
type CommandError struct {
	Argv   []string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	msg := strings.Join(e.Argv, " ") + ": " + e.Err.Error()
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return ErrHostToolFailed
}

// run executes `git argv...` in dir, feeding stdin if non-nil and
// returning captured stdout.
func run(ctx context.Context, dir string, argv []string, stdin io.Reader) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", argv...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if stdin != nil {
		cmd.Stdin = stdin
	}

	if err := cmd.Run(); err != nil {
		return nil, errors.WithStack(&CommandError{
			Argv:   append([]string{"git"}, argv...),
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    err,
		})
	}
	return stdout.Bytes(), nil
}

// FastExport runs `git fast-export --all` (plus --show-original-ids when
// requested) in repoDir and returns the raw stream.
func FastExport(ctx context.Context, repoDir string, showOriginalOIDs bool) ([]byte, error) {
	argv := []string{"fast-export", "--all"}
	if showOriginalOIDs {
		argv = append(argv, "--show-original-ids")
	}
	return run(ctx, repoDir, argv, nil)
}

// Init runs `git init repoDir`, creating it if necessary.
func Init(ctx context.Context, repoDir string) error {
	_, err := run(ctx, "", []string{"init", repoDir}, nil)
	return err
}

// FastImport feeds stream to `git fast-import` in repoDir.
func FastImport(ctx context.Context, repoDir string, stream io.Reader) error {
	_, err := run(ctx, repoDir, []string{"fast-import"}, stream)
	return err
}

// ResetHard runs `git reset --hard <branch>` in repoDir, pointing the
// working tree at the freshly imported history.
func ResetHard(ctx context.Context, repoDir, branch string) error {
	_, err := run(ctx, repoDir, []string{"reset", "--hard", branch}, nil)
	return err
}

// Clone runs `git clone url dest`.
func Clone(ctx context.Context, url, dest string) error {
	_, err := run(ctx, "", []string{"clone", url, dest}, nil)
	return err
}

// LogEntry is one commit as reported by Log.
type LogEntry struct {
	Hash    string
	Subject string
}

// Log runs `git log --format=<hash><TAB><subject>` on branch in repoDir.
func Log(ctx context.Context, repoDir, branch string) ([]LogEntry, error) {
	out, err := run(ctx, repoDir, []string{"log", "--format=%H\t%s", branch}, nil)
	if err != nil {
		return nil, err
	}
	var entries []LogEntry
	for _, line := range strings.Split(strings.TrimRight(string(out), "\n"), "\n") {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "\t", 2)
		e := LogEntry{Hash: parts[0]}
		if len(parts) == 2 {
			e.Subject = parts[1]
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// TimedLogEntry is one commit on a first-parent chain, carrying its
// committer time for cross-repository chronological merging.
type TimedLogEntry struct {
	Hash    string
	Time    int64
	Subject string
}

// FirstParentLog runs `git log --first-parent` on branch in repoDir,
// oldest commit first, for replaying a repository's mainline history
// commit-by-commit into another tree.
func FirstParentLog(ctx context.Context, repoDir, branch string) ([]TimedLogEntry, error) {
	out, err := run(ctx, repoDir, []string{"log", "--first-parent", "--pretty=format:%H %ct %s", branch}, nil)
	if err != nil {
		return nil, err
	}
	var entries []TimedLogEntry
	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := lines[i]
		if line == "" {
			continue
		}
		sep1 := strings.IndexByte(line, ' ')
		if sep1 < 0 {
			continue
		}
		sep2 := strings.IndexByte(line[sep1+1:], ' ')
		if sep2 < 0 {
			continue
		}
		sep2 += sep1 + 1
		t, err := strconv.ParseInt(line[sep1+1:sep2], 10, 64)
		if err != nil {
			continue
		}
		entries = append(entries, TimedLogEntry{
			Hash:    line[:sep1],
			Time:    t,
			Subject: line[sep2+1:],
		})
	}
	return entries, nil
}

// CheckoutNewBranch runs `git checkout -b branch` in repoDir.
func CheckoutNewBranch(ctx context.Context, repoDir, branch string) error {
	_, err := run(ctx, repoDir, []string{"checkout", "-b", branch}, nil)
	return err
}

// SubmoduleAdd runs `git submodule add url path` in repoDir.
func SubmoduleAdd(ctx context.Context, repoDir, url, path string) error {
	_, err := run(ctx, repoDir, []string{"submodule", "add", url, path}, nil)
	return err
}

// Checkout runs `git checkout ref` in repoDir.
func Checkout(ctx context.Context, repoDir, ref string) error {
	_, err := run(ctx, repoDir, []string{"checkout", ref}, nil)
	return err
}

// Add runs `git add <paths...>` in repoDir.
func Add(ctx context.Context, repoDir string, paths ...string) error {
	_, err := run(ctx, repoDir, append([]string{"add"}, paths...), nil)
	return err
}

// CommitWithDates runs `git commit` in repoDir with explicit author and
// committer dates, for replaying a commit's original timestamps onto a
// materialized submodule commit.
func CommitWithDates(ctx context.Context, repoDir, message string, authorDate, committerDate time.Time) error {
	argv := []string{
		"commit",
		"--message", message,
		"--date", "@" + strconv.FormatInt(authorDate.Unix(), 10) + " +0000",
	}
	cmd := exec.CommandContext(ctx, "git", argv...)
	cmd.Dir = repoDir
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("GIT_AUTHOR_DATE=@%d +0000", authorDate.Unix()),
		fmt.Sprintf("GIT_COMMITTER_DATE=@%d +0000", committerDate.Unix()),
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return errors.WithStack(&CommandError{
			Argv:   append([]string{"git"}, argv...),
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    err,
		})
	}
	return nil
}
