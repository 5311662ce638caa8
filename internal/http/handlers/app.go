// Package handlers exposes the video generation API. Every JSON response
// carries a success flag so clients can branch without inspecting status
// codes.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/ezedinff/AAIDC/internal/domain"
	"github.com/ezedinff/AAIDC/internal/events"
	"github.com/ezedinff/AAIDC/internal/infra"
	"github.com/ezedinff/AAIDC/internal/metrics"
	"github.com/ezedinff/AAIDC/internal/moderation"
	"github.com/ezedinff/AAIDC/internal/storage"
	"github.com/ezedinff/AAIDC/internal/workflow"
)

// App bundles the dependencies the handlers share. Pool is nil when the
// service runs on the in-memory store.
type App struct {
	Videos    domain.VideoRepository
	Progress  domain.ProgressRepository
	Hub       *events.Hub
	Engine    *workflow.Engine
	Moderator moderation.Moderator
	Files     *storage.FileStore
	Metrics   *metrics.Metrics
	Pool      *pgxpool.Pool
	Config    infra.Config
	Logger    zerolog.Logger
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, message string) {
	a.json(w, code, map[string]any{"success": false, "error": message})
}
