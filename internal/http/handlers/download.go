package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ezedinff/AAIDC/internal/domain"
)

// VideosDownload serves the assembled artifact. Only completed videos have
// one; the stored path must resolve inside the output root before anything
// is read.
func (a *App) VideosDownload(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "video_id")
	video, err := a.Videos.GetByID(r.Context(), videoID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "Video not found")
			return
		}
		a.Logger.Error().Err(err).Str("video_id", videoID).Msg("load video for download")
		a.error(w, http.StatusInternalServerError, "failed to load video")
		return
	}
	if video.FilePath == "" || video.Status != domain.StatusCompleted {
		a.error(w, http.StatusNotFound, "Video file not available")
		return
	}

	path, err := a.Files.Resolve(video.FilePath)
	if err != nil {
		a.error(w, http.StatusBadRequest, "Invalid file path")
		return
	}
	f, err := a.Files.Open(r.Context(), path)
	if err != nil {
		a.error(w, http.StatusNotFound, "Video file not found on disk")
		return
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		a.error(w, http.StatusInternalServerError, "failed to read video file")
		return
	}

	inline := r.URL.Query().Get("inline")
	disposition := "attachment"
	if inline == "1" || inline == "true" || inline == "yes" {
		disposition = "inline"
	}
	name := strings.ReplaceAll(video.Title, `"`, "")
	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`%s; filename="%s.mp4"`, disposition, name))

	http.ServeContent(w, r, name+".mp4", stat.ModTime(), f)
}
