package hosttool

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available on PATH")
	}
}

func TestInitAndLogRoundTrip(t *testing.T) {
	requireGit(t)
	ctx := context.Background()
	dir := t.TempDir()

	require.NoError(t, Init(ctx, dir))

	_, err := run(ctx, dir, []string{"config", "user.email", "you@example.com"}, nil)
	require.NoError(t, err)
	_, err = run(ctx, dir, []string{"config", "user.name", "tester"}, nil)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "file1"), []byte("hello\n"), 0644))
	require.NoError(t, Add(ctx, dir, "file1"))
	require.NoError(t, CommitWithDates(ctx, dir, "initial", time.Unix(1000, 0), time.Unix(1000, 0)))

	entries, err := Log(ctx, dir, "HEAD")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "initial", entries[0].Subject)
}

func TestFirstParentLogReturnsOldestFirst(t *testing.T) {
	requireGit(t)
	ctx := context.Background()
	dir := t.TempDir()

	require.NoError(t, Init(ctx, dir))
	_, err := run(ctx, dir, []string{"config", "user.email", "you@example.com"}, nil)
	require.NoError(t, err)
	_, err = run(ctx, dir, []string{"config", "user.name", "tester"}, nil)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "file1"), []byte("a\n"), 0644))
	require.NoError(t, Add(ctx, dir, "file1"))
	require.NoError(t, CommitWithDates(ctx, dir, "first", time.Unix(1000, 0), time.Unix(1000, 0)))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "file1"), []byte("b\n"), 0644))
	require.NoError(t, Add(ctx, dir, "file1"))
	require.NoError(t, CommitWithDates(ctx, dir, "second", time.Unix(2000, 0), time.Unix(2000, 0)))

	entries, err := FirstParentLog(ctx, dir, "HEAD")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "first", entries[0].Subject)
	assert.Equal(t, int64(1000), entries[0].Time)
	assert.Equal(t, "second", entries[1].Subject)
	assert.Equal(t, int64(2000), entries[1].Time)
}

func TestRunWrapsFailureAsCommandError(t *testing.T) {
	requireGit(t)
	ctx := context.Background()
	dir := t.TempDir()

	_, err := run(ctx, dir, []string{"log"}, nil)
	require.Error(t, err)

	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, []string{"git", "log"}, cmdErr.Argv)
	assert.ErrorIs(t, err, ErrHostToolFailed)
}
