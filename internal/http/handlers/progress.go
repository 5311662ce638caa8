package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ezedinff/AAIDC/internal/domain"
)

// VideosProgress returns the full audit trail for a video in chronological
// order. An unknown video yields an empty list rather than 404, matching the
// durable-log contract: the trail exists independently of live streams.
func (a *App) VideosProgress(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "video_id")
	entries, err := a.Progress.ListByVideoID(r.Context(), videoID)
	if err != nil {
		a.Logger.Error().Err(err).Str("video_id", videoID).Msg("list progress")
		a.error(w, http.StatusInternalServerError, "failed to load progress")
		return
	}
	if entries == nil {
		entries = []domain.ProgressEntry{}
	}
	a.json(w, http.StatusOK, map[string]any{"success": true, "progress": entries})
}
