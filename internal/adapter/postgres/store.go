package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS monitored_targets (
	id           BIGSERIAL PRIMARY KEY,
	title        TEXT NOT NULL,
	url          TEXT NOT NULL,
	last_updated TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS items (
	id          BIGINT PRIMARY KEY,
	url         TEXT NOT NULL,
	upload_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	parent_id   BIGINT NOT NULL REFERENCES monitored_targets (id) ON DELETE CASCADE
);
`

// Store implements repository.Store on PostgreSQL.
type Store struct {
	*TargetRepoImpl
	*ItemRepoImpl
	db *pgxpool.Pool
}

// NewStore connects to PostgreSQL and verifies the connection.
func NewStore(ctx context.Context, connStr string) (*Store, error) {
	db, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}
	return &Store{
		TargetRepoImpl: NewTargetRepo(db),
		ItemRepoImpl:   NewItemRepo(db),
		db:             db,
	}, nil
}

// EnsureSchema creates the tables when they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schema)
	return err
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *Store) Close() {
	s.db.Close()
}
