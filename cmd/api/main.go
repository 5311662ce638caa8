package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/ezedinff/AAIDC/internal/adapter/repo"
	"github.com/ezedinff/AAIDC/internal/domain"
	"github.com/ezedinff/AAIDC/internal/events"
	"github.com/ezedinff/AAIDC/internal/http/handlers"
	httpapi "github.com/ezedinff/AAIDC/internal/http/httpapi"
	"github.com/ezedinff/AAIDC/internal/infra"
	"github.com/ezedinff/AAIDC/internal/metrics"
	"github.com/ezedinff/AAIDC/internal/moderation"
	"github.com/ezedinff/AAIDC/internal/providers/audio"
	"github.com/ezedinff/AAIDC/internal/providers/openai"
	"github.com/ezedinff/AAIDC/internal/providers/scenes"
	videoprovider "github.com/ezedinff/AAIDC/internal/providers/video"
	"github.com/ezedinff/AAIDC/internal/storage"
	"github.com/ezedinff/AAIDC/internal/workflow"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()

	// Store selection: Postgres when DATABASE_URL is set, otherwise the
	// in-memory store for local development and demos.
	var (
		videos   domain.VideoRepository
		progress domain.ProgressRepository
		pool     *pgxpool.Pool
	)
	if cfg.DatabaseURL != "" {
		pool, err = infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer pool.Close()
		if err := infra.EnsureSchema(ctx, pool); err != nil {
			logger.Fatal().Err(err).Msg("failed to ensure schema")
		}
		videos = repo.NewVideoRepository(pool)
		progress = repo.NewProgressRepository(pool)
		logger.Info().Msg("using postgres store")
	} else {
		store := repo.NewMemoryStore()
		videos = store
		progress = store
		logger.Warn().Msg("DATABASE_URL not set, using in-memory store")
	}

	files, err := storage.NewFileStore(cfg.OutputDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare output directory")
	}
	if err := os.MkdirAll(cfg.TempDir, 0o755); err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare temp directory")
	}

	m := metrics.New()
	hub := events.NewHub(logger,
		events.WithBuffer(cfg.SubscriberBuffer),
		events.WithHeartbeat(cfg.HeartbeatEvery),
		events.WithMetrics(m),
	)

	caps, moderator := buildCapabilities(cfg, logger)

	engine := workflow.NewEngine(videos, progress, hub, caps, workflow.Config{
		MaxCritiqueRetries: cfg.MaxRetries,
		StepTimeout:        cfg.StepTimeout,
	}, logger, m)

	app := &handlers.App{
		Videos:    videos,
		Progress:  progress,
		Hub:       hub,
		Engine:    engine,
		Moderator: moderator,
		Files:     files,
		Metrics:   m,
		Pool:      pool,
		Config:    *cfg,
		Logger:    logger,
	}

	server := infra.NewHTTPServer(cfg, httpapi.NewRouter(app))

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	hub.Shutdown()
	engine.Wait()
	logger.Info().Msg("server stopped")
}

// buildCapabilities selects the agent implementations. Mock mode and a
// missing API key both fall back to deterministic local providers so the
// full pipeline stays runnable without credentials.
func buildCapabilities(cfg *infra.Config, logger infra.Logger) (workflow.Capabilities, moderation.Moderator) {
	if cfg.MockMode || cfg.OpenAIAPIKey == "" {
		if !cfg.MockMode {
			logger.Warn().Msg("OPENAI_API_KEY not set, running with mock providers")
		}
		return workflow.Capabilities{
			Scenes: &scenes.MockGenerator{SceneCount: cfg.SceneCount, VideoDuration: cfg.VideoDurationSeconds},
			Critic: &scenes.MockCritic{},
			Audio:  &audio.MockSynthesizer{TempDir: cfg.TempDir},
			Video:  &videoprovider.MockAssembler{OutputDir: cfg.OutputDir},
		}, moderation.AllowAll{}
	}

	client, err := openai.NewClient(openai.Options{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.OpenAIModel,
		Logger:  &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build openai client")
	}

	caps := workflow.Capabilities{
		Scenes: scenes.NewOpenAIGenerator(client, cfg.SceneCount, cfg.VideoDurationSeconds, logger),
		Critic: scenes.NewOpenAICritic(client, cfg.VideoDurationSeconds, logger),
		Audio:  audio.NewOpenAISynthesizer(client, cfg.AudioVoice, cfg.TempDir, logger),
		Video:  videoprovider.NewFFmpegAssembler(cfg.OutputDir, cfg.TempDir, cfg.VideoResolution, logger),
	}
	return caps, moderation.NewOpenAIModerator(client, 0, logger)
}
