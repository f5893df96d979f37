package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/listing-monitor/internal/entity"
)

// TargetRepoImpl provides a concrete implementation for the TargetRepository interface using PostgreSQL.
type TargetRepoImpl struct {
	db *pgxpool.Pool
}

// NewTargetRepo creates a new instance of TargetRepoImpl.
func NewTargetRepo(db *pgxpool.Pool) *TargetRepoImpl {
	return &TargetRepoImpl{db: db}
}

// ListTargets retrieves every monitored target.
func (r *TargetRepoImpl) ListTargets(ctx context.Context) ([]*entity.MonitoredTarget, error) {
	query := `
		SELECT id, title, url, last_updated
		FROM monitored_targets
		ORDER BY id ASC;
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var targets []*entity.MonitoredTarget
	for rows.Next() {
		var t entity.MonitoredTarget
		if err := rows.Scan(&t.ID, &t.Title, &t.URL, &t.LastUpdated); err != nil {
			return nil, err
		}
		targets = append(targets, &t)
	}

	return targets, rows.Err()
}

// InsertTarget stores a target and returns the id assigned by the sequence.
func (r *TargetRepoImpl) InsertTarget(ctx context.Context, title, url string, lastUpdated *time.Time) (int64, error) {
	query := `
		INSERT INTO monitored_targets (title, url, last_updated)
		VALUES ($1, $2, $3)
		RETURNING id;
	`
	var id int64
	err := r.db.QueryRow(ctx, query, title, url, lastUpdated).Scan(&id)
	return id, err
}

// MarkChecked records when the target was last checked successfully.
func (r *TargetRepoImpl) MarkChecked(ctx context.Context, id int64, at time.Time) error {
	query := `UPDATE monitored_targets SET last_updated = $2 WHERE id = $1;`
	_, err := r.db.Exec(ctx, query, id, at)
	return err
}
