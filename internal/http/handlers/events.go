package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ezedinff/AAIDC/internal/domain"
)

// VideosEvents streams generation updates over Server-Sent Events. The
// subscription is opened before the snapshot read so no event published
// between the two can be missed; duplicates across that boundary are
// possible and clients reconcile with the snapshot.
func (a *App) VideosEvents(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "video_id")

	video, err := a.Videos.GetByID(r.Context(), videoID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "Video not found")
			return
		}
		a.Logger.Error().Err(err).Str("video_id", videoID).Msg("load video for events")
		a.error(w, http.StatusInternalServerError, "failed to load video")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		a.error(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	sub := a.Hub.Subscribe(videoID)
	defer sub.Close()

	// Re-read after subscribing; the first read only validated existence.
	if fresh, err := a.Videos.GetByID(r.Context(), videoID); err == nil {
		video = fresh
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	writeFrame := func(v any) bool {
		payload, err := json.Marshal(v)
		if err != nil {
			return false
		}
		if _, err := w.Write([]byte("data: " + string(payload) + "\n\n")); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	if !writeFrame(domain.Event{Type: domain.EventStatus, Data: video}) {
		return
	}

	// A subscriber arriving after the run ended gets the terminal frame
	// immediately; the result is not lost with the live stream.
	if video.Status.Terminal() {
		terminal := domain.Event{Type: domain.EventComplete, Progress: video.ProgressPercent, Data: video}
		if video.Status == domain.StatusFailed {
			terminal = domain.Event{Type: domain.EventError, Progress: video.ProgressPercent, Message: video.ErrorMessage}
		}
		writeFrame(terminal)
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			if event.Type == domain.EventComplete && event.Data == nil {
				if snapshot, err := a.Videos.GetByID(r.Context(), videoID); err == nil {
					event.Data = snapshot
				}
			}
			if !writeFrame(event) {
				return
			}
			if event.Terminal() {
				return
			}
		}
	}
}
