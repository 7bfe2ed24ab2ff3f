// Package journal keeps a SQLite history of emotion transitions.
package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/teslashibe/reachy-eyes/internal/log"
	"github.com/teslashibe/reachy-eyes/pkg/emotion"
)

// Limits for Recent.
const (
	DefaultLimit = 50
	MaxLimit     = 1000

	dirPermissions = 0o755
)

// MemoryPath opens a private in-memory journal.
const MemoryPath = ":memory:"

// ErrClosed is returned after Close.
var ErrClosed = errors.New("journal: closed")

//go:embed migrations.sql
var migrations string

// Entry is one recorded transition.
type Entry struct {
	ID     uuid.UUID     `json:"id"`
	From   emotion.State `json:"from"`
	To     emotion.State `json:"to"`
	Forced bool          `json:"forced"`
	Source string        `json:"source"`
	At     time.Time     `json:"at"`
}

// FromTransition converts a coordinator transition into a new entry.
func FromTransition(t emotion.Transition) Entry {
	return Entry{
		ID:     uuid.New(),
		From:   t.From,
		To:     t.To,
		Forced: t.Forced,
		Source: t.Source,
		At:     t.At,
	}
}

// Journal is a transition log backed by SQLite. Safe for concurrent use.
type Journal struct {
	db     *sql.DB
	logger *slog.Logger
	closed atomic.Bool
}

// Open opens or creates the journal at path, creating parent directories and
// applying the schema.
func Open(path string, logger *slog.Logger) (*Journal, error) {
	logger = log.Component(logger, "journal")
	if path == "" {
		return nil, fmt.Errorf("journal path not set")
	}

	if path != MemoryPath {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, dirPermissions); err != nil {
			return nil, fmt.Errorf("create journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	// SQLite serializes writers anyway, and each :memory: connection would
	// otherwise be its own database.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping journal: %w", err)
	}
	if _, err := db.Exec(migrations); err != nil {
		db.Close()
		return nil, fmt.Errorf("run journal migrations: %w", err)
	}
	logger.Debug("journal opened", "path", path)

	return &Journal{db: db, logger: logger}, nil
}

// Record appends e. A zero ID is replaced with a fresh one.
func (j *Journal) Record(ctx context.Context, e Entry) (Entry, error) {
	if j.closed.Load() {
		return e, ErrClosed
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO transitions (id, from_state, to_state, forced, source, at_unix_ns) VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID.String(), e.From.String(), e.To.String(), e.Forced, e.Source, e.At.UnixNano())
	if err != nil {
		return e, fmt.Errorf("insert transition %s: %w", e.ID, err)
	}
	return e, nil
}

// Recent returns up to limit entries, newest first. A non-positive limit
// uses DefaultLimit; larger than MaxLimit is capped.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if j.closed.Load() {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)

	rows, err := j.db.QueryContext(ctx,
		`SELECT id, from_state, to_state, forced, source, at_unix_ns FROM transitions ORDER BY at_unix_ns DESC, seq DESC LIMIT ?`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("query transitions: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var (
			id, from, to string
			e            Entry
			at           int64
		)
		if err := rows.Scan(&id, &from, &to, &e.Forced, &e.Source, &at); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		if e.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("transition id %q: %w", id, err)
		}
		if e.From, err = emotion.ParseState(from); err != nil {
			return nil, err
		}
		if e.To, err = emotion.ParseState(to); err != nil {
			return nil, err
		}
		e.At = time.Unix(0, at)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transitions: %w", err)
	}
	return entries, nil
}

// Count returns the number of recorded transitions.
func (j *Journal) Count(ctx context.Context) (int, error) {
	var n int
	if err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transitions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transitions: %w", err)
	}
	return n, nil
}

// Hook returns a coordinator transition listener that records every
// transition. Failures are logged.
func (j *Journal) Hook() func(emotion.Transition) {
	return func(t emotion.Transition) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if _, err := j.Record(ctx, FromTransition(t)); err != nil {
			j.logger.Warn("failed to record transition", "from", t.From, "to", t.To, "error", err)
		}
	}
}

// Close closes the database.
func (j *Journal) Close() error {
	if j.closed.Swap(true) {
		return nil
	}
	return j.db.Close()
}
