package domain

import "context"

// VideoRepository defines persistence for video records. Updates are applied
// atomically as a unit; a terminal record rejects further updates.
type VideoRepository interface {
	Create(ctx context.Context, video *Video) error
	GetByID(ctx context.Context, videoID string) (*Video, error)
	List(ctx context.Context) ([]Video, error)
	Update(ctx context.Context, videoID string, update VideoUpdate) error
	Delete(ctx context.Context, videoID string) error
}

// ProgressRepository is the append-only audit trail of generation runs.
// Entries are removed only through VideoRepository.Delete's cascade.
type ProgressRepository interface {
	Append(ctx context.Context, entry *ProgressEntry) error
	ListByVideoID(ctx context.Context, videoID string) ([]ProgressEntry, error)
}
