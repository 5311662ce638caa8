package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezedinff/AAIDC/internal/domain"
)

func newStoredVideo(t *testing.T, store *MemoryStore, id string) *domain.Video {
	t.Helper()
	video := &domain.Video{
		ID:          id,
		Title:       "Test Video",
		UserInput:   "a story about a lighthouse keeper",
		Status:      domain.StatusPending,
		CurrentStep: domain.StepPending,
	}
	require.NoError(t, store.Create(context.Background(), video))
	return video
}

func TestMemoryStoreCreateAndGet(t *testing.T) {
	store := NewMemoryStore()
	created := newStoredVideo(t, store, "vid-1")

	got, err := store.GetByID(context.Background(), "vid-1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, domain.StatusPending, got.Status)
	assert.False(t, got.CreatedAt.IsZero())

	_, err = store.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	newStoredVideo(t, store, "vid-1")

	first, err := store.GetByID(context.Background(), "vid-1")
	require.NoError(t, err)
	first.Title = "mutated"
	first.RawScenes = append(first.RawScenes, domain.Scene{Description: "injected"})

	second, err := store.GetByID(context.Background(), "vid-1")
	require.NoError(t, err)
	assert.Equal(t, "Test Video", second.Title)
	assert.Empty(t, second.RawScenes)
}

func TestMemoryStorePartialUpdate(t *testing.T) {
	store := NewMemoryStore()
	newStoredVideo(t, store, "vid-1")

	status := domain.StatusProcessing
	step := domain.StepSceneGeneration
	percent := 25
	require.NoError(t, store.Update(context.Background(), "vid-1", domain.VideoUpdate{
		Status:          &status,
		CurrentStep:     &step,
		ProgressPercent: &percent,
	}))

	scenes := []domain.Scene{{Description: "opening shot", CaptionText: "Dawn breaks", DurationSeconds: 10}}
	require.NoError(t, store.Update(context.Background(), "vid-1", domain.VideoUpdate{RawScenes: scenes}))

	got, err := store.GetByID(context.Background(), "vid-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, got.Status)
	assert.Equal(t, domain.StepSceneGeneration, got.CurrentStep)
	assert.Equal(t, 25, got.ProgressPercent)
	assert.Len(t, got.RawScenes, 1)
}

func TestMemoryStoreTerminalRecordRejectsUpdates(t *testing.T) {
	store := NewMemoryStore()
	newStoredVideo(t, store, "vid-1")

	status := domain.StatusCompleted
	require.NoError(t, store.Update(context.Background(), "vid-1", domain.VideoUpdate{Status: &status}))

	percent := 50
	err := store.Update(context.Background(), "vid-1", domain.VideoUpdate{ProgressPercent: &percent})
	assert.ErrorIs(t, err, domain.ErrJobTerminal)
}

func TestMemoryStoreDeleteCascadesProgress(t *testing.T) {
	store := NewMemoryStore()
	newStoredVideo(t, store, "vid-1")
	newStoredVideo(t, store, "vid-2")

	for _, id := range []string{"vid-1", "vid-1", "vid-2"} {
		require.NoError(t, store.Append(context.Background(), &domain.ProgressEntry{
			VideoID: id,
			Step:    domain.StepInitializing,
			Status:  domain.ProgressStarted,
			Message: "Starting",
		}))
	}

	require.NoError(t, store.Delete(context.Background(), "vid-1"))

	_, err := store.GetByID(context.Background(), "vid-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	gone, err := store.ListByVideoID(context.Background(), "vid-1")
	require.NoError(t, err)
	assert.Empty(t, gone)

	kept, err := store.ListByVideoID(context.Background(), "vid-2")
	require.NoError(t, err)
	assert.Len(t, kept, 1)

	assert.ErrorIs(t, store.Delete(context.Background(), "vid-1"), domain.ErrNotFound)
}

func TestMemoryStoreProgressOrderingAndIDs(t *testing.T) {
	store := NewMemoryStore()
	newStoredVideo(t, store, "vid-1")

	messages := []string{"first", "second", "third"}
	for _, msg := range messages {
		require.NoError(t, store.Append(context.Background(), &domain.ProgressEntry{
			VideoID: "vid-1",
			Step:    domain.StepSceneGeneration,
			Status:  domain.ProgressStarted,
			Message: msg,
		}))
	}

	entries, err := store.ListByVideoID(context.Background(), "vid-1")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for i, e := range entries {
		assert.Equal(t, messages[i], e.Message)
		if i > 0 {
			assert.Greater(t, e.ID, entries[i-1].ID)
		}
	}
}
