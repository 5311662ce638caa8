package handlers

import "net/http"

// Stats summarizes stored videos by status. Prometheus metrics live on
// /metrics; this endpoint exists for the dashboard's lightweight polling.
func (a *App) Stats(w http.ResponseWriter, r *http.Request) {
	videos, err := a.Videos.List(r.Context())
	if err != nil {
		a.Logger.Error().Err(err).Msg("list videos for stats")
		a.error(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}
	counts := map[string]int{}
	for _, v := range videos {
		counts[string(v.Status)]++
	}
	a.json(w, http.StatusOK, map[string]any{
		"success": true,
		"counts":  counts,
		"total":   len(videos),
	})
}
