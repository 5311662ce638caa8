package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ezedinff/AAIDC/internal/domain"
)

// ProgressRepositoryPG implements domain.ProgressRepository backed by PostgreSQL.
type ProgressRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewProgressRepository creates a new progress repository.
func NewProgressRepository(pool *pgxpool.Pool) *ProgressRepositoryPG {
	return &ProgressRepositoryPG{pool: pool}
}

// Append writes one audit entry. Entries are write-once.
func (r *ProgressRepositoryPG) Append(ctx context.Context, entry *domain.ProgressEntry) error {
	query := `
INSERT INTO video_progress (video_id, step, status, message)
VALUES ($1, $2, $3, $4)
RETURNING id, timestamp;
`
	row := r.pool.QueryRow(ctx, query, entry.VideoID, entry.Step, entry.Status, entry.Message)
	if err := row.Scan(&entry.ID, &entry.Timestamp); err != nil {
		return fmt.Errorf("%w: append progress: %v", domain.ErrStorage, err)
	}
	return nil
}

// ListByVideoID returns all entries for a video ordered by timestamp ascending.
func (r *ProgressRepositoryPG) ListByVideoID(ctx context.Context, videoID string) ([]domain.ProgressEntry, error) {
	query := `
SELECT id, video_id, step, status, message, timestamp
FROM video_progress
WHERE video_id = $1
ORDER BY timestamp ASC, id ASC;
`
	rows, err := r.pool.Query(ctx, query, videoID)
	if err != nil {
		return nil, fmt.Errorf("%w: list progress: %v", domain.ErrStorage, err)
	}
	defer rows.Close()

	var entries []domain.ProgressEntry
	for rows.Next() {
		var e domain.ProgressEntry
		if err := rows.Scan(&e.ID, &e.VideoID, &e.Step, &e.Status, &e.Message, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("%w: scan progress: %v", domain.ErrStorage, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list progress: %v", domain.ErrStorage, err)
	}
	return entries, nil
}
