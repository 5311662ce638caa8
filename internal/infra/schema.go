package infra

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS videos (
	id               TEXT PRIMARY KEY,
	title            TEXT NOT NULL,
	description      TEXT NOT NULL DEFAULT '',
	user_input       TEXT NOT NULL,
	status           TEXT NOT NULL DEFAULT 'pending',
	current_step     TEXT NOT NULL DEFAULT 'pending',
	progress_percent INT  NOT NULL DEFAULT 0,
	raw_scenes       JSONB,
	improved_scenes  JSONB,
	audio_files      JSONB,
	file_path        TEXT NOT NULL DEFAULT '',
	duration         DOUBLE PRECISION NOT NULL DEFAULT 0,
	error_message    TEXT NOT NULL DEFAULT '',
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE TABLE IF NOT EXISTS video_progress (
	id        BIGSERIAL PRIMARY KEY,
	video_id  TEXT NOT NULL REFERENCES videos(id) ON DELETE CASCADE,
	step      TEXT NOT NULL,
	status    TEXT NOT NULL,
	message   TEXT NOT NULL DEFAULT '',
	timestamp TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE INDEX IF NOT EXISTS idx_videos_created_at ON videos (created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_video_progress_video_id ON video_progress (video_id, timestamp)`,
}

// EnsureSchema creates the tables the service needs if they do not exist.
// Statements are idempotent so repeated startups are safe.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("infra: ensure schema: %w", err)
		}
	}
	return nil
}
