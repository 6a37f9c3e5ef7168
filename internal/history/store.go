// Package history journals completed renames in a SQLite database so a
// project keeps an audit trail across sessions.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	xerrors "github.com/morozRed/xmlref/internal/errors"
	"github.com/morozRed/xmlref/internal/logging"
)

// DefaultFile is the journal location relative to the project root.
const DefaultFile = ".xmlref/history.db"

// Entry is one ChangeLog line of a recorded run.
type Entry struct {
	Kind     string `json:"kind"`
	Document string `json:"document,omitempty"`
	Tag      string `json:"tag,omitempty"`
	Attr     string `json:"attr,omitempty"`
	Old      string `json:"old,omitempty"`
	New      string `json:"new,omitempty"`
	Message  string `json:"message,omitempty"`
	Line     string `json:"line"`
}

// Run is one recorded rename.
type Run struct {
	ID        string    `json:"id"`
	Old       string    `json:"old"`
	New       string    `json:"new"`
	CreatedAt time.Time `json:"created_at"`
	Documents []string  `json:"documents"`
	Entries   []Entry   `json:"entries,omitempty"`
}

// Store provides persistence for rename runs.
type Store struct {
	conn   *sql.DB
	logger *slog.Logger
	dbPath string
}

// Open opens or creates the journal at dbPath.
func Open(dbPath string, logger *slog.Logger) (*Store, error) {
	logger = logging.OrDiscard(logger)
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	store := &Store{conn: conn, logger: logger, dbPath: dbPath}
	if err := store.initializeSchema(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}
	logger.Debug("history opened", "path", dbPath)
	return store, nil
}

func (s *Store) initializeSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			old_id TEXT NOT NULL,
			new_id TEXT NOT NULL,
			created_at TEXT NOT NULL,
			documents TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);

		CREATE TABLE IF NOT EXISTS run_entries (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			kind TEXT NOT NULL,
			document TEXT,
			tag TEXT,
			attr TEXT,
			old_value TEXT,
			new_value TEXT,
			message TEXT,
			line TEXT NOT NULL,
			PRIMARY KEY (run_id, seq)
		);

		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);
		INSERT OR REPLACE INTO schema_version (version) VALUES (1);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// Record stores a run and its entries in one transaction.
func (s *Store) Record(ctx context.Context, run Run) error {
	if run.ID == "" {
		return fmt.Errorf("run id is required")
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, old_id, new_id, created_at, documents) VALUES (?, ?, ?, ?, ?)`,
		run.ID,
		run.Old,
		run.New,
		run.CreatedAt.UTC().Format(time.RFC3339Nano),
		strings.Join(run.Documents, "\n"),
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	for i, entry := range run.Entries {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO run_entries (run_id, seq, kind, document, tag, attr, old_value, new_value, message, line)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			run.ID, i, entry.Kind,
			nullString(entry.Document), nullString(entry.Tag), nullString(entry.Attr),
			nullString(entry.Old), nullString(entry.New), nullString(entry.Message),
			entry.Line,
		)
		if err != nil {
			return fmt.Errorf("failed to record entry %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	s.logger.Debug("recorded run", "id", run.ID, "entries", len(run.Entries))
	return nil
}

// List returns the most recent runs without their entries, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, old_id, new_id, created_at, documents
		FROM runs
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	runs := make([]Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

// Get returns one run with its entries. A unique id prefix is accepted.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	run, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	entries, err := s.entries(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	run.Entries = entries
	return &run, nil
}

func (s *Store) lookup(ctx context.Context, id string) (Run, error) {
	row := s.conn.QueryRowContext(ctx, `
		SELECT id, old_id, new_id, created_at, documents
		FROM runs WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if err == nil || !xerrors.Is(err, xerrors.NotFound) {
		return run, err
	}

	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, old_id, new_id, created_at, documents
		FROM runs WHERE id LIKE ?
		LIMIT 2
	`, stripWildcards(id)+"%")
	if err != nil {
		return Run{}, fmt.Errorf("failed to get run: %w", err)
	}
	defer func() { _ = rows.Close() }()

	matches := make([]Run, 0, 2)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return Run{}, err
		}
		matches = append(matches, run)
	}
	if err := rows.Err(); err != nil {
		return Run{}, fmt.Errorf("error iterating runs: %w", err)
	}

	switch len(matches) {
	case 0:
		return Run{}, xerrors.Newf(xerrors.NotFound, "no recorded run %q", id)
	case 1:
		return matches[0], nil
	default:
		return Run{}, xerrors.Newf(xerrors.Ambiguous, "run id prefix %q matches several runs", id)
	}
}

func (s *Store) entries(ctx context.Context, runID string) ([]Entry, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT kind, document, tag, attr, old_value, new_value, message, line
		FROM run_entries WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := make([]Entry, 0)
	for rows.Next() {
		var entry Entry
		var document, tag, attr, oldValue, newValue, message sql.NullString
		if err := rows.Scan(&entry.Kind, &document, &tag, &attr, &oldValue, &newValue, &message, &entry.Line); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entry.Document = document.String
		entry.Tag = tag.String
		entry.Attr = attr.String
		entry.Old = oldValue.String
		entry.New = newValue.String
		entry.Message = message.String
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (Run, error) {
	var run Run
	var createdAt, documents string
	if err := row.Scan(&run.ID, &run.Old, &run.New, &createdAt, &documents); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, xerrors.Newf(xerrors.NotFound, "run not found")
		}
		return Run{}, fmt.Errorf("failed to scan run: %w", err)
	}
	parsed, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Run{}, fmt.Errorf("invalid created_at %q: %w", createdAt, err)
	}
	run.CreatedAt = parsed
	run.Documents = make([]string, 0)
	if documents != "" {
		run.Documents = strings.Split(documents, "\n")
	}
	return run, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func stripWildcards(s string) string {
	return strings.NewReplacer(`%`, ``, `_`, ``).Replace(s)
}
