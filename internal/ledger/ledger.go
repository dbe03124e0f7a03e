// Package ledger persists invocation outcomes in SQLite so an interrupted
// sweep can be resumed without re-running finished configurations.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/anetsop/rosterlab/internal/dispatch"
	"github.com/anetsop/rosterlab/pkg/models"

	_ "modernc.org/sqlite" // SQLite driver
)

// Entry is one recorded invocation
type Entry struct {
	Name         string
	Batch        string
	Family       string
	Seed         models.Seed
	Params       string
	ArtifactPath string
	Status       models.InvocationStatus
	ExitCode     *int
	Stderr       string
	Error        string
	Attempts     int
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Ledger records invocation outcomes. A nil *Ledger is valid and records
// nothing, which is how a run without a ledger file is modelled.
type Ledger struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// Open opens or creates the ledger database at path
func Open(ctx context.Context, path string) (*Ledger, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite works best with single writer

	if err := InitSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize ledger %s: %w", path, err)
	}
	return &Ledger{db: db, path: path}, nil
}

// Path returns the database file path
func (l *Ledger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Close closes the database
func (l *Ledger) Close() error {
	if l == nil {
		return nil
	}
	return l.db.Close()
}

// Record upserts the outcome of one invocation
func (l *Ledger) Record(ctx context.Context, batch string, out dispatch.Outcome) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	inv := out.Invocation
	var exitCode sql.NullInt64
	if out.ExitCode != nil {
		exitCode = sql.NullInt64{Int64: int64(*out.ExitCode), Valid: true}
	}
	errText := ""
	if out.Err != nil {
		errText = out.Err.Error()
	}

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO invocations (name, batch, family, seed, params, artifact_path, status, exit_code, stderr, error, attempts, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			batch = excluded.batch,
			params = excluded.params,
			artifact_path = excluded.artifact_path,
			status = excluded.status,
			exit_code = excluded.exit_code,
			stderr = excluded.stderr,
			error = excluded.error,
			attempts = excluded.attempts,
			started_at = excluded.started_at,
			finished_at = excluded.finished_at`,
		inv.OutputName, batch, inv.Family.Name, string(inv.Seed), inv.Config.String(), inv.ArtifactPath,
		string(out.Status), exitCode, out.Stderr, errText, out.Attempts,
		out.StartedAt.UTC().Format(time.RFC3339Nano), out.FinishedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to record invocation %s: %w", inv.OutputName, err)
	}
	return nil
}

// Get returns the entry for an output name, or nil if none was recorded
func (l *Ledger) Get(ctx context.Context, name string) (*Entry, error) {
	if l == nil {
		return nil, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	row := l.db.QueryRowContext(ctx, selectEntry+` WHERE name = ?`, name)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read invocation %s: %w", name, err)
	}
	return e, nil
}

// Succeeded reports whether the last recorded attempt for name succeeded
// and its artifact is still on disk.
func (l *Ledger) Succeeded(ctx context.Context, name string) (bool, error) {
	e, err := l.Get(ctx, name)
	if err != nil || e == nil {
		return false, err
	}
	if e.Status != models.InvocationSucceeded {
		return false, nil
	}
	if _, err := os.Stat(e.ArtifactPath); err != nil {
		return false, nil
	}
	return true, nil
}

// Failures returns every invocation whose last outcome was not usable
func (l *Ledger) Failures(ctx context.Context) ([]Entry, error) {
	if l == nil {
		return nil, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	rows, err := l.db.QueryContext(ctx, selectEntry+` WHERE status NOT IN (?, ?) ORDER BY started_at, name`,
		string(models.InvocationSucceeded), string(models.InvocationSkipped))
	if err != nil {
		return nil, fmt.Errorf("failed to query failures: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invocation: %w", err)
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate failures: %w", err)
	}
	return out, nil
}

const selectEntry = `SELECT name, batch, family, seed, params, artifact_path, status, exit_code, stderr, error, attempts, started_at, finished_at FROM invocations`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*Entry, error) {
	var (
		e                 Entry
		seed, status      string
		exitCode          sql.NullInt64
		stderr, errText   sql.NullString
		started, finished string
	)
	if err := s.Scan(&e.Name, &e.Batch, &e.Family, &seed, &e.Params, &e.ArtifactPath, &status,
		&exitCode, &stderr, &errText, &e.Attempts, &started, &finished); err != nil {
		return nil, err
	}
	e.Seed = models.Seed(seed)
	e.Status = models.InvocationStatus(status)
	if exitCode.Valid {
		code := int(exitCode.Int64)
		e.ExitCode = &code
	}
	e.Stderr = stderr.String
	e.Error = errText.String
	e.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
	e.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
	return &e, nil
}
