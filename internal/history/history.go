// ABOUTME: SQLite-backed log of relayed messages shown on the settings page.
// ABOUTME: Keeps at most the configured number of rows, pruning the oldest on insert.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/runegard/runegard/internal/listener"
	"github.com/runegard/runegard/internal/logging"
)

//go:embed schema.sql
var schema string

const opTimeout = 5 * time.Second

// Store records messages in a SQLite database.
type Store struct {
	db    *sql.DB
	limit int
}

// Open opens (or creates) the database at path. limit is the number of
// messages kept; it must be positive.
func Open(path string, limit int) (*Store, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("history limit must be positive, got %d", limit)
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	// one writer; also keeps a :memory: database on a single connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}

	logging.Debug("[history] opened %s (limit %d)", path, limit)
	return &Store{db: db, limit: limit}, nil
}

// Record stores msg and prunes entries beyond the limit.
func (s *Store) Record(msg listener.Message) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin history transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO messages (id, received_at, remote, body) VALUES (?, ?, ?, ?)`,
		msg.ID, msg.ReceivedAt.UnixNano(), msg.Remote, msg.Body,
	); err != nil {
		return fmt.Errorf("failed to record message: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM messages WHERE seq NOT IN (SELECT seq FROM messages ORDER BY seq DESC LIMIT ?)`,
		s.limit,
	); err != nil {
		return fmt.Errorf("failed to prune history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit history: %w", err)
	}
	return nil
}

// Recent returns up to n messages, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]listener.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, received_at, remote, body FROM messages ORDER BY seq DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var out []listener.Message
	for rows.Next() {
		var (
			m  listener.Message
			ns int64
		)
		if err := rows.Scan(&m.ID, &ns, &m.Remote, &m.Body); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		m.ReceivedAt = time.Unix(0, ns)
		out = append(out, m)
	}
	return out, rows.Err()
}

// Count returns the number of stored messages.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count history: %w", err)
	}
	return n, nil
}

// Clear deletes all stored messages.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM messages`); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
