package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/listing-monitor/internal/entity"
)

// ItemRepoImpl provides a concrete implementation for the ItemRepository interface using PostgreSQL.
type ItemRepoImpl struct {
	db *pgxpool.Pool
}

// NewItemRepo creates a new instance of ItemRepoImpl.
func NewItemRepo(db *pgxpool.Pool) *ItemRepoImpl {
	return &ItemRepoImpl{db: db}
}

// ItemExists checks whether the site-assigned id is already stored.
func (r *ItemRepoImpl) ItemExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM items WHERE id = $1);`, id).Scan(&exists)
	return exists, err
}

// InsertItem stores a discovered item. A second insert of the same id does nothing.
func (r *ItemRepoImpl) InsertItem(ctx context.Context, item *entity.Item) error {
	query := `
		INSERT INTO items (id, url, upload_date, parent_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING;
	`
	_, err := r.db.Exec(ctx, query,
		item.ID,
		item.URL,
		item.UploadTimestamp,
		item.ParentTargetID,
	)
	return err
}
