// Package provenance records how datasets were produced: a history line
// stamped into each dataset header, and an optional SQLite ledger of every
// dataset written by every run.
package provenance

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/user"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Stamp builds a history line for a dataset produced by program with args
func Stamp(program string, args []string, now time.Time) string {
	who := "unknown"
	if u, err := user.Current(); err == nil {
		who = u.Username
	}
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}

	cmd := program
	if len(args) > 0 {
		cmd += " " + strings.Join(args, " ")
	}
	return fmt.Sprintf("[%s@%s: %s] %s", who, host, now.Format(time.RFC1123), cmd)
}

// timeLayout sorts lexically in creation order
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Entry is one dataset written by a run
type Entry struct {
	ID        string
	RunID     string
	Dataset   string
	Kind      string
	Command   string
	CreatedAt time.Time
}

// Store is a SQLite ledger of written datasets
type Store struct {
	db *sql.DB
}

// Open opens or creates the ledger at dbPath
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	PRAGMA busy_timeout = 5000;

	CREATE TABLE IF NOT EXISTS history (
		id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		dataset TEXT NOT NULL,
		kind TEXT NOT NULL,
		command TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_history_dataset ON history(dataset);
	CREATE INDEX IF NOT EXISTS idx_history_run ON history(run_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Record adds e to the ledger, assigning an ID when e has none
func (s *Store) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO history (id, run_id, dataset, kind, command, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.ID, e.RunID, e.Dataset, e.Kind, e.Command, e.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return Entry{}, fmt.Errorf("failed to record history: %w", err)
	}

	return e, nil
}

// History returns every entry for dataset, oldest first
func (s *Store) History(ctx context.Context, dataset string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_id, dataset, kind, command, created_at
		FROM history
		WHERE dataset = ?
		ORDER BY created_at, id
	`, dataset)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			created string
		)
		if err := rows.Scan(&e.ID, &e.RunID, &e.Dataset, &e.Kind, &e.Command, &created); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		e.CreatedAt, err = time.Parse(timeLayout, created)
		if err != nil {
			return nil, fmt.Errorf("failed to parse history time: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history: %w", err)
	}

	return entries, nil
}
