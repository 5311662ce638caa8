package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ezedinff/AAIDC/internal/domain"
)

// MemoryStore is an in-process implementation of domain.VideoRepository and
// domain.ProgressRepository. It is intended for development and test
// environments where a PostgreSQL instance is not available; it enforces the
// same contract as the SQL repositories, including terminal immutability and
// the cascading delete.
type MemoryStore struct {
	mu       sync.RWMutex
	videos   map[string]*domain.Video
	progress []domain.ProgressEntry
	nextID   int64
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{videos: make(map[string]*domain.Video), nextID: 1}
}

// Create inserts a new video record.
func (s *MemoryStore) Create(ctx context.Context, video *domain.Video) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	stored := cloneVideo(video)
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.videos[video.ID] = stored
	video.CreatedAt = now
	video.UpdatedAt = now
	return nil
}

// GetByID fetches a copy of the stored record.
func (s *MemoryStore) GetByID(ctx context.Context, videoID string) (*domain.Video, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	video, ok := s.videos[videoID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneVideo(video), nil
}

// List returns all videos ordered by creation date descending.
func (s *MemoryStore) List(ctx context.Context) ([]domain.Video, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	videos := make([]domain.Video, 0, len(s.videos))
	for _, v := range s.videos {
		videos = append(videos, *cloneVideo(v))
	}
	sort.Slice(videos, func(i, j int) bool {
		return videos[i].CreatedAt.After(videos[j].CreatedAt)
	})
	return videos, nil
}

// Update applies a partial field set atomically under the store lock.
func (s *MemoryStore) Update(ctx context.Context, videoID string, update domain.VideoUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.videos[videoID]
	if !ok {
		return domain.ErrNotFound
	}
	if video.Status.Terminal() {
		return domain.ErrJobTerminal
	}
	if update.Status != nil {
		video.Status = *update.Status
	}
	if update.CurrentStep != nil {
		video.CurrentStep = *update.CurrentStep
	}
	if update.ProgressPercent != nil {
		video.ProgressPercent = *update.ProgressPercent
	}
	if update.RawScenes != nil {
		video.RawScenes = append([]domain.Scene(nil), update.RawScenes...)
	}
	if update.ImprovedScenes != nil {
		video.ImprovedScenes = append([]domain.Scene(nil), update.ImprovedScenes...)
	}
	if update.AudioFiles != nil {
		video.AudioFiles = append([]string(nil), update.AudioFiles...)
	}
	if update.FilePath != nil {
		video.FilePath = *update.FilePath
	}
	if update.Duration != nil {
		video.Duration = *update.Duration
	}
	if update.ErrorMessage != nil {
		video.ErrorMessage = *update.ErrorMessage
	}
	video.UpdatedAt = time.Now().UTC()
	return nil
}

// Delete removes the video and cascades its progress entries.
func (s *MemoryStore) Delete(ctx context.Context, videoID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.videos[videoID]; !ok {
		return domain.ErrNotFound
	}
	delete(s.videos, videoID)
	kept := s.progress[:0]
	for _, e := range s.progress {
		if e.VideoID != videoID {
			kept = append(kept, e)
		}
	}
	s.progress = kept
	return nil
}

// Append writes one audit entry.
func (s *MemoryStore) Append(ctx context.Context, entry *domain.ProgressEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.ID = s.nextID
	s.nextID++
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	s.progress = append(s.progress, *entry)
	return nil
}

// ListByVideoID returns entries for a video ordered by timestamp ascending.
func (s *MemoryStore) ListByVideoID(ctx context.Context, videoID string) ([]domain.ProgressEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var entries []domain.ProgressEntry
	for _, e := range s.progress {
		if e.VideoID == videoID {
			entries = append(entries, e)
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Timestamp.Equal(entries[j].Timestamp) {
			return entries[i].ID < entries[j].ID
		}
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})
	return entries, nil
}

func cloneVideo(v *domain.Video) *domain.Video {
	c := *v
	c.RawScenes = append([]domain.Scene(nil), v.RawScenes...)
	c.ImprovedScenes = append([]domain.Scene(nil), v.ImprovedScenes...)
	c.AudioFiles = append([]string(nil), v.AudioFiles...)
	return &c
}
