package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure Go driver, no CGO

	"github.com/user/listing-monitor/internal/entity"
)

const schema = `
CREATE TABLE IF NOT EXISTS monitored_targets (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	title        TEXT NOT NULL,
	url          TEXT NOT NULL,
	last_updated DATETIME
);

CREATE TABLE IF NOT EXISTS items (
	id          INTEGER PRIMARY KEY,
	url         TEXT NOT NULL,
	upload_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	parent_id   INTEGER NOT NULL REFERENCES monitored_targets (id) ON DELETE CASCADE
);
`

// Store implements repository.Store on an embedded SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database file. ":memory:" gives a private
// in-memory database.
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	// One writer at a time; also keeps a :memory: database on a single connection.
	db.SetMaxOpenConns(1)

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	return &Store{db: db}, nil
}

// EnsureSchema creates the tables when they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() {
	s.db.Close()
}

func (s *Store) ListTargets(ctx context.Context) ([]*entity.MonitoredTarget, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, url, last_updated FROM monitored_targets ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var targets []*entity.MonitoredTarget
	for rows.Next() {
		var (
			t           entity.MonitoredTarget
			lastUpdated sql.NullTime
		)
		if err := rows.Scan(&t.ID, &t.Title, &t.URL, &lastUpdated); err != nil {
			return nil, err
		}
		if lastUpdated.Valid {
			at := lastUpdated.Time
			t.LastUpdated = &at
		}
		targets = append(targets, &t)
	}
	return targets, rows.Err()
}

func (s *Store) InsertTarget(ctx context.Context, title, url string, lastUpdated *time.Time) (int64, error) {
	var at sql.NullTime
	if lastUpdated != nil {
		at = sql.NullTime{Time: lastUpdated.UTC(), Valid: true}
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO monitored_targets (title, url, last_updated) VALUES (?, ?, ?)`,
		title, url, at)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) MarkChecked(ctx context.Context, id int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE monitored_targets SET last_updated = ? WHERE id = ?`, at.UTC(), id)
	return err
}

func (s *Store) ItemExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM items WHERE id = ?)`, id).Scan(&exists)
	return exists, err
}

// InsertItem stores a discovered item. A second insert of the same id does nothing.
func (s *Store) InsertItem(ctx context.Context, item *entity.Item) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO items (id, url, upload_date, parent_id) VALUES (?, ?, ?, ?) ON CONFLICT (id) DO NOTHING`,
		item.ID, item.URL, item.UploadTimestamp.UTC(), item.ParentTargetID)
	return err
}
