package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ezedinff/AAIDC/internal/domain"
)

// VideoRepositoryPG implements domain.VideoRepository backed by PostgreSQL.
type VideoRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewVideoRepository creates a new video repository.
func NewVideoRepository(pool *pgxpool.Pool) *VideoRepositoryPG {
	return &VideoRepositoryPG{pool: pool}
}

const videoColumns = `id, title, description, user_input, status, current_step, progress_percent,
raw_scenes, improved_scenes, audio_files, file_path, duration, error_message, created_at, updated_at`

// Create inserts a new video record.
func (r *VideoRepositoryPG) Create(ctx context.Context, video *domain.Video) error {
	query := `
INSERT INTO videos (id, title, description, user_input, status, current_step, progress_percent,
                    raw_scenes, improved_scenes, audio_files)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
`
	_, err := r.pool.Exec(ctx, query,
		video.ID,
		video.Title,
		video.Description,
		video.UserInput,
		video.Status,
		video.CurrentStep,
		video.ProgressPercent,
		mustJSON(video.RawScenes),
		mustJSON(video.ImprovedScenes),
		mustJSON(video.AudioFiles),
	)
	if err != nil {
		return fmt.Errorf("%w: insert video: %v", domain.ErrStorage, err)
	}
	return nil
}

// GetByID fetches a video by its identifier.
func (r *VideoRepositoryPG) GetByID(ctx context.Context, videoID string) (*domain.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE id = $1;`
	row := r.pool.QueryRow(ctx, query, videoID)
	video, err := scanVideo(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: select video: %v", domain.ErrStorage, err)
	}
	return video, nil
}

// List returns all videos ordered by creation date descending.
func (r *VideoRepositoryPG) List(ctx context.Context) ([]domain.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos ORDER BY created_at DESC;`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: list videos: %v", domain.ErrStorage, err)
	}
	defer rows.Close()

	var videos []domain.Video
	for rows.Next() {
		video, err := scanVideo(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("%w: scan video: %v", domain.ErrStorage, err)
		}
		videos = append(videos, *video)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list videos: %v", domain.ErrStorage, err)
	}
	return videos, nil
}

// Update applies a partial field set atomically. Terminal records reject
// further updates.
func (r *VideoRepositoryPG) Update(ctx context.Context, videoID string, update domain.VideoUpdate) error {
	query := `
UPDATE videos
SET status = COALESCE($2, status),
    current_step = COALESCE($3, current_step),
    progress_percent = COALESCE($4, progress_percent),
    raw_scenes = COALESCE($5, raw_scenes),
    improved_scenes = COALESCE($6, improved_scenes),
    audio_files = COALESCE($7, audio_files),
    file_path = COALESCE($8, file_path),
    duration = COALESCE($9, duration),
    error_message = COALESCE($10, error_message),
    updated_at = NOW()
WHERE id = $1 AND status NOT IN ('completed', 'failed');
`
	tag, err := r.pool.Exec(ctx, query, videoID,
		update.Status,
		update.CurrentStep,
		update.ProgressPercent,
		nullableJSON(update.RawScenes),
		nullableJSON(update.ImprovedScenes),
		nullableJSON(update.AudioFiles),
		update.FilePath,
		update.Duration,
		update.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("%w: update video: %v", domain.ErrStorage, err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, videoID); err != nil {
			return err
		}
		return domain.ErrJobTerminal
	}
	return nil
}

// Delete removes a video and cascades its progress entries in one transaction.
func (r *VideoRepositoryPG) Delete(ctx context.Context, videoID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin delete: %v", domain.ErrStorage, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM video_progress WHERE video_id = $1;`, videoID); err != nil {
		return fmt.Errorf("%w: delete progress: %v", domain.ErrStorage, err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM videos WHERE id = $1;`, videoID)
	if err != nil {
		return fmt.Errorf("%w: delete video: %v", domain.ErrStorage, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit delete: %v", domain.ErrStorage, err)
	}
	return nil
}

func scanVideo(scan func(dest ...any) error) (*domain.Video, error) {
	var (
		video        domain.Video
		rawJSON      []byte
		improvedJSON []byte
		audioJSON    []byte
		filePath     *string
		duration     *float64
		errorMessage *string
	)
	if err := scan(
		&video.ID,
		&video.Title,
		&video.Description,
		&video.UserInput,
		&video.Status,
		&video.CurrentStep,
		&video.ProgressPercent,
		&rawJSON,
		&improvedJSON,
		&audioJSON,
		&filePath,
		&duration,
		&errorMessage,
		&video.CreatedAt,
		&video.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(rawJSON) > 0 {
		_ = json.Unmarshal(rawJSON, &video.RawScenes)
	}
	if len(improvedJSON) > 0 {
		_ = json.Unmarshal(improvedJSON, &video.ImprovedScenes)
	}
	if len(audioJSON) > 0 {
		_ = json.Unmarshal(audioJSON, &video.AudioFiles)
	}
	if filePath != nil {
		video.FilePath = *filePath
	}
	if duration != nil {
		video.Duration = *duration
	}
	if errorMessage != nil {
		video.ErrorMessage = *errorMessage
	}
	return &video, nil
}

func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		return []byte("null")
	}
	return b
}

func nullableJSON(v any) []byte {
	switch t := v.(type) {
	case []domain.Scene:
		if t == nil {
			return nil
		}
	case []string:
		if t == nil {
			return nil
		}
	}
	return mustJSON(v)
}
