package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/ezedinff/AAIDC/internal/http/handlers"
	"github.com/ezedinff/AAIDC/internal/middleware"
)

// NewRouter assembles the API surface. Only video creation is rate limited;
// reads and event streams are cheap enough to leave open.
func NewRouter(app *handlers.App) http.Handler {
	r := chi.NewRouter()

	r.Use(
		chimw.RealIP,
		chimw.Recoverer,
		middleware.RequestID,
		middleware.Logger(app.Logger),
		middleware.CORS(app.Config.CORSOrigins),
	)

	limitCreate := middleware.RateLimit(app.Config.RateLimitPerMin, time.Minute)

	r.Route("/api", func(r chi.Router) {
		r.Route("/videos", func(r chi.Router) {
			r.Get("/", app.VideosList)
			r.With(limitCreate).Post("/", app.VideosCreate)
			r.Route("/{video_id}", func(r chi.Router) {
				r.Get("/", app.VideosGet)
				r.Delete("/", app.VideosDelete)
				r.Get("/progress", app.VideosProgress)
				r.Get("/events", app.VideosEvents)
				r.Get("/download", app.VideosDownload)
			})
		})
		r.Get("/health", app.Health)
		r.Get("/metrics", app.Stats)
	})

	if app.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", app.Metrics.Handler())
	}

	return r
}
