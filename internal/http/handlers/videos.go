package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ezedinff/AAIDC/internal/domain"
	"github.com/ezedinff/AAIDC/internal/sanitize"
)

const (
	maxTitleLen     = 255
	maxDescLen      = 2000
	maxUserInputLen = 4000
)

type createVideoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	UserInput   string `json:"user_input"`
}

// VideosCreate accepts a story prompt, creates the pending record and starts
// the generation run in the background. The 201 response returns immediately
// with the snapshot; progress flows through the event stream.
func (a *App) VideosCreate(w http.ResponseWriter, r *http.Request) {
	if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		a.error(w, http.StatusBadRequest, "Content-Type must be application/json")
		return
	}
	var req createVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	userInput := sanitize.Clean(req.UserInput, maxUserInputLen)
	if userInput == "" {
		a.error(w, http.StatusBadRequest, "user_input is required")
		return
	}
	title := sanitize.Clean(req.Title, maxTitleLen)
	if title == "" {
		title = fmt.Sprintf("Video - %s", time.Now().Format("2006-01-02 15:04"))
	}
	description := sanitize.Clean(req.Description, maxDescLen)

	if a.Moderator.Flagged(r.Context(), title+" "+description+" "+userInput) {
		a.error(w, http.StatusUnprocessableEntity, "Content violates policy")
		return
	}

	video := &domain.Video{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		UserInput:   userInput,
		Status:      domain.StatusPending,
		CurrentStep: domain.StepPending,
	}
	if err := a.Videos.Create(r.Context(), video); err != nil {
		a.Logger.Error().Err(err).Msg("create video record")
		a.error(w, http.StatusInternalServerError, "failed to create video")
		return
	}

	if err := a.Engine.Start(video.ID, userInput); err != nil {
		a.Logger.Error().Err(err).Str("video_id", video.ID).Msg("start generation run")
		a.error(w, http.StatusInternalServerError, "failed to start video generation")
		return
	}

	snapshot, err := a.Videos.GetByID(r.Context(), video.ID)
	if err != nil {
		snapshot = video
	}
	a.json(w, http.StatusCreated, map[string]any{
		"success": true,
		"video":   snapshot,
		"message": "Video generation started",
	})
}

func (a *App) VideosList(w http.ResponseWriter, r *http.Request) {
	videos, err := a.Videos.List(r.Context())
	if err != nil {
		a.Logger.Error().Err(err).Msg("list videos")
		a.error(w, http.StatusInternalServerError, "failed to list videos")
		return
	}
	if videos == nil {
		videos = []domain.Video{}
	}
	a.json(w, http.StatusOK, map[string]any{"success": true, "videos": videos})
}

func (a *App) VideosGet(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "video_id")
	video, err := a.Videos.GetByID(r.Context(), videoID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "Video not found")
			return
		}
		a.Logger.Error().Err(err).Str("video_id", videoID).Msg("get video")
		a.error(w, http.StatusInternalServerError, "failed to load video")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"success": true, "video": video})
}

// VideosDelete removes the record, its progress trail and any artifact on
// disk. A running generation is cancelled cooperatively; its next store write
// will find the record gone and abandon the run.
func (a *App) VideosDelete(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "video_id")
	video, err := a.Videos.GetByID(r.Context(), videoID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "Video not found")
			return
		}
		a.Logger.Error().Err(err).Str("video_id", videoID).Msg("load video for delete")
		a.error(w, http.StatusInternalServerError, "failed to load video")
		return
	}

	a.Engine.Cancel(videoID)

	if video.FilePath != "" {
		if err := a.Files.Remove(r.Context(), video.FilePath); err != nil {
			a.Logger.Warn().Err(err).Str("video_id", videoID).Msg("remove video artifact")
		}
	}

	if err := a.Videos.Delete(r.Context(), videoID); err != nil {
		a.Logger.Error().Err(err).Str("video_id", videoID).Msg("delete video")
		a.error(w, http.StatusInternalServerError, "failed to delete video")
		return
	}

	// Closes any live event streams for the deleted video.
	a.Hub.Publish(videoID, domain.Event{Type: domain.EventError, Message: "video deleted"})

	a.json(w, http.StatusOK, map[string]any{"success": true, "message": "Video deleted successfully"})
}
