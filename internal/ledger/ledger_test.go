package ledger

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anetsop/rosterlab/internal/dispatch"
	"github.com/anetsop/rosterlab/internal/family"
	"github.com/anetsop/rosterlab/pkg/models"
)

func outcome(dir string, fl string, status models.InvocationStatus) dispatch.Outcome {
	cfg := models.Configuration{Family: "multiCSO", Params: []models.Param{{Name: "FL", Text: fl}}}
	inv := dispatch.NewInvocation(family.MultiCSO, cfg, "42", 45, dispatch.Settings{ArtifactDir: dir})
	now := time.Now()
	return dispatch.Outcome{Invocation: inv, Status: status, Attempts: 1, StartedAt: now, FinishedAt: now.Add(time.Second)}
}

func TestOpenCreatesDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "rosterlab.db")
	l, err := Open(context.Background(), path)
	require.NoError(t, err)
	defer l.Close()

	assert.FileExists(t, path)
	assert.Equal(t, path, l.Path())
}

func TestRecordAndSucceeded(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	l, err := Open(ctx, filepath.Join(dir, "ledger.db"))
	require.NoError(t, err)
	defer l.Close()

	ok := outcome(dir, "0.5", models.InvocationSucceeded)
	require.NoError(t, os.WriteFile(ok.Invocation.ArtifactPath, []byte("x"), 0o644))
	require.NoError(t, l.Record(ctx, "batch-1", ok))

	done, err := l.Succeeded(ctx, ok.Invocation.OutputName)
	require.NoError(t, err)
	assert.True(t, done)

	// a succeeded record whose artifact vanished must run again
	require.NoError(t, os.Remove(ok.Invocation.ArtifactPath))
	done, err = l.Succeeded(ctx, ok.Invocation.OutputName)
	require.NoError(t, err)
	assert.False(t, done)

	done, err = l.Succeeded(ctx, "never-recorded.xlsx")
	require.NoError(t, err)
	assert.False(t, done)
}

func TestRecordFollowsMovedArtifactDir(t *testing.T) {
	ctx := context.Background()
	oldDir := t.TempDir()
	newDir := t.TempDir()
	l, err := Open(ctx, filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	defer l.Close()

	first := outcome(oldDir, "1.0", models.InvocationSucceeded)
	require.NoError(t, os.WriteFile(first.Invocation.ArtifactPath, []byte("x"), 0o644))
	require.NoError(t, l.Record(ctx, "batch-1", first))

	second := outcome(newDir, "1.0", models.InvocationSucceeded)
	require.Equal(t, first.Invocation.OutputName, second.Invocation.OutputName)
	require.NoError(t, l.Record(ctx, "batch-2", second))

	e, err := l.Get(ctx, second.Invocation.OutputName)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, second.Invocation.ArtifactPath, e.ArtifactPath)

	// the artifact only exists under the old directory
	done, err := l.Succeeded(ctx, second.Invocation.OutputName)
	require.NoError(t, err)
	assert.False(t, done)
}

func TestRecordOverwritesAndFailures(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	l, err := Open(ctx, filepath.Join(dir, "ledger.db"))
	require.NoError(t, err)
	defer l.Close()

	failed := outcome(dir, "0.1", models.InvocationFailed)
	code := 3
	failed.ExitCode = &code
	failed.Stderr = "boom"
	failed.Err = errors.New("exited with code 3")
	require.NoError(t, l.Record(ctx, "b1", failed))
	require.NoError(t, l.Record(ctx, "b1", outcome(dir, "0.2", models.InvocationTimedOut)))
	require.NoError(t, l.Record(ctx, "b1", outcome(dir, "0.3", models.InvocationSucceeded)))

	failures, err := l.Failures(ctx)
	require.NoError(t, err)
	require.Len(t, failures, 2)

	e, err := l.Get(ctx, failed.Invocation.OutputName)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, models.InvocationFailed, e.Status)
	require.NotNil(t, e.ExitCode)
	assert.Equal(t, 3, *e.ExitCode)
	assert.Equal(t, "boom", e.Stderr)
	assert.Equal(t, "FL=0.1", e.Params)
	assert.Equal(t, models.Seed("42"), e.Seed)

	// a later success replaces the failure
	require.NoError(t, l.Record(ctx, "b2", outcome(dir, "0.1", models.InvocationSucceeded)))
	failures, err = l.Failures(ctx)
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, models.InvocationTimedOut, failures[0].Status)
	assert.Nil(t, failures[0].ExitCode)
}

func TestNilLedger(t *testing.T) {
	var l *Ledger
	ctx := context.Background()

	assert.NoError(t, l.Record(ctx, "b", outcome(t.TempDir(), "1", models.InvocationFailed)))
	done, err := l.Succeeded(ctx, "x")
	assert.NoError(t, err)
	assert.False(t, done)
	failures, err := l.Failures(ctx)
	assert.NoError(t, err)
	assert.Empty(t, failures)
	assert.NoError(t, l.Close())
	assert.Empty(t, l.Path())
}

func TestReopenKeepsEntries(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.db")

	l, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, l.Record(ctx, "b", outcome(dir, "1.0", models.InvocationFailed)))
	require.NoError(t, l.Close())

	l, err = Open(ctx, path)
	require.NoError(t, err)
	defer l.Close()
	failures, err := l.Failures(ctx)
	require.NoError(t, err)
	assert.Len(t, failures, 1)
}
