// Package workflow drives a video generation request through the fixed step
// pipeline: scene generation, critique with a bounded retry loop, narration
// synthesis and final assembly. One goroutine runs per active job; the job
// store, progress log and event hub are the only shared state.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ezedinff/AAIDC/internal/domain"
	"github.com/ezedinff/AAIDC/internal/events"
	"github.com/ezedinff/AAIDC/internal/media"
	"github.com/ezedinff/AAIDC/internal/metrics"
	"github.com/ezedinff/AAIDC/internal/providers/audio"
	"github.com/ezedinff/AAIDC/internal/providers/scenes"
	"github.com/ezedinff/AAIDC/internal/providers/video"
)

// Fixed percent checkpoints per step. The retry checkpoint is the one
// sanctioned regression of a job's progress.
const (
	percentInitializing  = 5
	percentSceneGenStart = 25
	percentSceneGenDone  = 35
	percentCritiqueStart = 45
	percentCritiqueDone  = 55
	percentCritiqueRetry = 40
	percentAudioStart    = 65
	percentAudioDone     = 80
	percentAssembly      = 90
	percentCompleted     = 100

	percentSceneGenFailed = 35
	percentCritiqueFailed = 50
	percentAudioFailed    = 75
	percentAssemblyFailed = 95
)

// Capabilities are the external agents the orchestrator invokes. Each is an
// opaque call with an explicit error contract.
type Capabilities struct {
	Scenes scenes.Generator
	Critic scenes.Critic
	Audio  audio.Synthesizer
	Video  video.Assembler
}

// Config bounds the orchestrator's behavior.
type Config struct {
	// MaxCritiqueRetries caps the critique retry loop. When the limit is
	// reached the workflow proceeds with the latest scenes regardless of
	// verdict, guaranteeing termination.
	MaxCritiqueRetries int
	// StepTimeout bounds each capability invocation. Exceeding it is
	// treated identically to a capability failure.
	StepTimeout time.Duration
	// Probe reads the duration of the assembled artifact; it defaults to
	// the ffprobe wrapper and exists as a seam for tests.
	Probe func(ctx context.Context, path string) float64
}

// Engine is the workflow orchestrator. It is the exclusive writer of a
// video's mutable fields while a run is active; no two runs may exist for
// the same video identity.
type Engine struct {
	videos   domain.VideoRepository
	progress domain.ProgressRepository
	hub      *events.Hub
	caps     Capabilities
	cfg      Config
	logger   zerolog.Logger
	metrics  *metrics.Metrics

	mu      sync.Mutex
	running map[string]*run
	wg      sync.WaitGroup
}

type run struct {
	cancelled chan struct{}
	once      sync.Once
}

func (r *run) cancel() {
	r.once.Do(func() { close(r.cancelled) })
}

// NewEngine wires an orchestrator.
func NewEngine(videos domain.VideoRepository, progress domain.ProgressRepository, hub *events.Hub,
	caps Capabilities, cfg Config, logger zerolog.Logger, m *metrics.Metrics) *Engine {
	if cfg.MaxCritiqueRetries <= 0 {
		cfg.MaxCritiqueRetries = 3
	}
	if cfg.StepTimeout <= 0 {
		cfg.StepTimeout = 5 * time.Minute
	}
	if cfg.Probe == nil {
		cfg.Probe = media.DurationSeconds
	}
	return &Engine{
		videos:   videos,
		progress: progress,
		hub:      hub,
		caps:     caps,
		cfg:      cfg,
		logger:   logger,
		metrics:  m,
		running:  make(map[string]*run),
	}
}

// Start launches the generation run for a pending video as an independent
// background task. A second Start for the same identity is rejected.
func (e *Engine) Start(videoID, userInput string) error {
	e.mu.Lock()
	if _, ok := e.running[videoID]; ok {
		e.mu.Unlock()
		return domain.ErrJobRunning
	}
	r := &run{cancelled: make(chan struct{})}
	e.running[videoID] = r
	e.mu.Unlock()

	e.metrics.JobStarted()
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer e.unregister(videoID)
		e.execute(videoID, userInput, r)
	}()
	return nil
}

// Cancel requests cooperative cancellation. The flag takes effect between
// steps; an in-flight capability call runs to completion first.
func (e *Engine) Cancel(videoID string) {
	e.mu.Lock()
	r, ok := e.running[videoID]
	e.mu.Unlock()
	if ok {
		r.cancel()
	}
}

// Running reports whether a run is active for the video.
func (e *Engine) Running(videoID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.running[videoID]
	return ok
}

// Wait blocks until every active run has finished. Used on shutdown and in
// tests.
func (e *Engine) Wait() {
	e.wg.Wait()
}

func (e *Engine) unregister(videoID string) {
	e.mu.Lock()
	delete(e.running, videoID)
	e.mu.Unlock()
}

func (e *Engine) execute(videoID, userInput string, r *run) {
	log := e.logger.With().Str("video_id", videoID).Logger()
	log.Info().Msg("workflow: run started")

	cur := domain.StepPending
	if err := e.mark(videoID, &cur, domain.StepInitializing, percentInitializing,
		"Starting video generation...", nil); err != nil {
		e.abort(log, videoID, cur, err)
		return
	}

	var (
		raw      []domain.Scene
		improved []domain.Scene
		attempt  int
		feedback string
	)

	for {
		if e.interrupted(log, videoID, r, cur) {
			return
		}
		if err := e.mark(videoID, &cur, domain.StepSceneGeneration, percentSceneGenStart,
			fmt.Sprintf("AI is generating video scenes (attempt %d)...", attempt+1), nil); err != nil {
			e.abort(log, videoID, cur, err)
			return
		}
		generated, err := e.generateScenes(userInput, feedback)
		if err != nil {
			e.fail(log, videoID, domain.StepSceneGeneration, percentSceneGenFailed,
				fmt.Sprintf("Scene generation failed: %v", err))
			return
		}
		raw = generated
		if err := e.mark(videoID, &cur, domain.StepSceneGeneration, percentSceneGenDone,
			fmt.Sprintf("Generated %d video scenes", len(raw)), func(u *domain.VideoUpdate) {
				u.RawScenes = raw
			}); err != nil {
			e.abort(log, videoID, cur, err)
			return
		}

		if e.interrupted(log, videoID, r, cur) {
			return
		}
		if err := e.mark(videoID, &cur, domain.StepSceneCritique, percentCritiqueStart,
			fmt.Sprintf("AI is reviewing and improving scenes (attempt %d)...", attempt+1), nil); err != nil {
			e.abort(log, videoID, cur, err)
			return
		}
		review, err := e.reviewScenes(raw, attempt)
		if err != nil {
			// A critique failure is not fatal: continue with the raw scenes.
			log.Warn().Err(err).Msg("workflow: scene critique failed, using original scenes")
			improved = raw
			if err := e.mark(videoID, &cur, domain.StepSceneCritique, percentCritiqueDone,
				"Scene critique failed, continuing with original scenes", func(u *domain.VideoUpdate) {
					u.ImprovedScenes = improved
				}); err != nil {
				e.abort(log, videoID, cur, err)
				return
			}
			break
		}
		improved = review.Scenes
		if len(improved) == 0 {
			improved = raw
		}
		if review.Verdict == scenes.VerdictNeedsImprovement && attempt < e.cfg.MaxCritiqueRetries {
			attempt++
			feedback = review.Feedback
			e.metrics.CritiqueRetry()
			if err := e.mark(videoID, &cur, domain.StepSceneCritiqueRetry, percentCritiqueRetry,
				fmt.Sprintf("Scenes need improvement, retrying (%d/%d)...", attempt, e.cfg.MaxCritiqueRetries),
				func(u *domain.VideoUpdate) {
					u.ImprovedScenes = improved
				}); err != nil {
				e.abort(log, videoID, cur, err)
				return
			}
			continue
		}
		message := fmt.Sprintf("Scenes approved after %d retries", attempt)
		if review.Verdict == scenes.VerdictNeedsImprovement {
			message = fmt.Sprintf("Retry limit reached after %d attempts, proceeding with latest scenes", attempt)
		}
		if err := e.mark(videoID, &cur, domain.StepSceneCritique, percentCritiqueDone,
			message, func(u *domain.VideoUpdate) {
				u.ImprovedScenes = improved
			}); err != nil {
			e.abort(log, videoID, cur, err)
			return
		}
		break
	}

	if e.interrupted(log, videoID, r, cur) {
		return
	}
	if err := e.mark(videoID, &cur, domain.StepAudioGeneration, percentAudioStart,
		"AI is generating high-quality audio narration...", nil); err != nil {
		e.abort(log, videoID, cur, err)
		return
	}
	audioFiles, err := e.synthesize(improved)
	if err != nil {
		e.fail(log, videoID, domain.StepAudioGeneration, percentAudioFailed,
			fmt.Sprintf("Audio generation failed: %v", err))
		return
	}
	if err := e.mark(videoID, &cur, domain.StepAudioGeneration, percentAudioDone,
		fmt.Sprintf("Generated %d audio files successfully", len(audioFiles)), func(u *domain.VideoUpdate) {
			u.AudioFiles = audioFiles
		}); err != nil {
		e.abort(log, videoID, cur, err)
		return
	}

	if e.interrupted(log, videoID, r, cur) {
		return
	}
	if err := e.mark(videoID, &cur, domain.StepVideoAssembly, percentAssembly,
		"AI is assembling the final video...", nil); err != nil {
		e.abort(log, videoID, cur, err)
		return
	}
	result, err := e.assemble(videoID, improved, audioFiles)
	if err != nil {
		e.fail(log, videoID, domain.StepVideoAssembly, percentAssemblyFailed,
			fmt.Sprintf("Video assembly failed: %v", err))
		return
	}

	duration := result.Duration
	if duration <= 0 {
		probeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		duration = e.cfg.Probe(probeCtx, result.Path)
		cancel()
	}
	if duration <= 0 {
		for _, s := range improved {
			duration += s.DurationSeconds
		}
	}

	e.complete(log, videoID, &cur, result.Path, duration)
}

// mark applies one step transition as a unit: store update, audit entry,
// progress event — in that order, all committed before the next step begins.
func (e *Engine) mark(videoID string, cur *domain.Step, next domain.Step, percent int,
	message string, extra func(*domain.VideoUpdate)) error {
	if next != *cur && !domain.CanTransition(*cur, next) {
		return fmt.Errorf("workflow: illegal transition %s -> %s", *cur, next)
	}
	status := domain.StatusProcessing
	update := domain.VideoUpdate{Status: &status, CurrentStep: &next, ProgressPercent: &percent}
	if extra != nil {
		extra(&update)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.videos.Update(ctx, videoID, update); err != nil {
		return err
	}
	if err := e.progress.Append(ctx, &domain.ProgressEntry{
		VideoID: videoID,
		Step:    next,
		Status:  domain.ProgressStarted,
		Message: message,
	}); err != nil {
		return err
	}
	*cur = next
	e.hub.Publish(videoID, domain.Event{
		Type:     domain.EventProgress,
		Progress: percent,
		Message:  message,
	})
	if extra != nil {
		// Fields beyond the percent changed; push the fresh snapshot.
		if snapshot, err := e.videos.GetByID(ctx, videoID); err == nil {
			e.hub.Publish(videoID, domain.Event{Type: domain.EventUpdate, Progress: percent, Data: snapshot})
		}
	}
	return nil
}

func (e *Engine) generateScenes(userInput, feedback string) ([]domain.Scene, error) {
	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.StepTimeout)
	defer cancel()
	start := time.Now()
	out, err := e.caps.Scenes.Generate(ctx, userInput, feedback)
	e.metrics.ObserveStep(string(domain.StepSceneGeneration), time.Since(start).Seconds())
	if err != nil {
		return nil, timeoutAsAgentError(ctx, err)
	}
	return out, nil
}

func (e *Engine) reviewScenes(in []domain.Scene, attempt int) (scenes.Review, error) {
	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.StepTimeout)
	defer cancel()
	start := time.Now()
	review, err := e.caps.Critic.Review(ctx, in, attempt)
	e.metrics.ObserveStep(string(domain.StepSceneCritique), time.Since(start).Seconds())
	if err != nil {
		return scenes.Review{}, timeoutAsAgentError(ctx, err)
	}
	return review, nil
}

func (e *Engine) synthesize(in []domain.Scene) ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.StepTimeout)
	defer cancel()
	start := time.Now()
	out, err := e.caps.Audio.Synthesize(ctx, in)
	e.metrics.ObserveStep(string(domain.StepAudioGeneration), time.Since(start).Seconds())
	if err != nil {
		return nil, timeoutAsAgentError(ctx, err)
	}
	return out, nil
}

func (e *Engine) assemble(videoID string, in []domain.Scene, audioFiles []string) (video.Result, error) {
	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.StepTimeout)
	defer cancel()
	start := time.Now()
	result, err := e.caps.Video.Assemble(ctx, videoID, in, audioFiles)
	e.metrics.ObserveStep(string(domain.StepVideoAssembly), time.Since(start).Seconds())
	if err != nil {
		return video.Result{}, timeoutAsAgentError(ctx, err)
	}
	return result, nil
}

func (e *Engine) complete(log zerolog.Logger, videoID string, cur *domain.Step, filePath string, duration float64) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	status := domain.StatusCompleted
	step := domain.StepCompleted
	percent := percentCompleted
	update := domain.VideoUpdate{
		Status:          &status,
		CurrentStep:     &step,
		ProgressPercent: &percent,
		FilePath:        &filePath,
		Duration:        &duration,
	}
	if err := e.videos.Update(ctx, videoID, update); err != nil {
		e.abort(log, videoID, *cur, err)
		return
	}
	if err := e.progress.Append(ctx, &domain.ProgressEntry{
		VideoID: videoID,
		Step:    domain.StepCompleted,
		Status:  domain.ProgressCompleted,
		Message: "Video generation completed successfully!",
	}); err != nil {
		log.Error().Err(err).Msg("workflow: completion audit entry failed")
	}
	snapshot, err := e.videos.GetByID(ctx, videoID)
	event := domain.Event{
		Type:     domain.EventComplete,
		Progress: percentCompleted,
		Message:  "Video generation completed successfully!",
	}
	if err == nil {
		event.Data = snapshot
	}
	e.hub.Publish(videoID, event)
	e.metrics.JobCompleted()
	log.Info().Float64("duration", duration).Msg("workflow: run completed")
}

// fail resolves a capability failure into the job's terminal failed state.
// The progress percent stays at the failing step's checkpoint; it never
// reaches 100 on this path.
func (e *Engine) fail(log zerolog.Logger, videoID string, step domain.Step, percent int, message string) {
	log.Error().Str("step", string(step)).Msg("workflow: " + message)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	status := domain.StatusFailed
	update := domain.VideoUpdate{
		Status:          &status,
		CurrentStep:     &step,
		ProgressPercent: &percent,
		ErrorMessage:    &message,
	}
	if err := e.videos.Update(ctx, videoID, update); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// The record was deleted out from under the run; nothing to record.
			return
		}
		log.Error().Err(err).Msg("workflow: failed-state update failed")
	}
	if err := e.progress.Append(ctx, &domain.ProgressEntry{
		VideoID: videoID,
		Step:    step,
		Status:  domain.ProgressError,
		Message: message,
	}); err != nil {
		log.Error().Err(err).Msg("workflow: failure audit entry failed")
	}
	e.hub.Publish(videoID, domain.Event{
		Type:     domain.EventError,
		Progress: percent,
		Message:  message,
	})
	e.metrics.JobFailed()
}

// abort handles storage failures: fatal to the job, best-effort terminal
// bookkeeping, never fatal to the process.
func (e *Engine) abort(log zerolog.Logger, videoID string, step domain.Step, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		log.Info().Msg("workflow: record deleted, run abandoned")
		e.hub.Publish(videoID, domain.Event{Type: domain.EventError, Message: "video deleted"})
		return
	}
	log.Error().Err(err).Msg("workflow: storage failure, aborting run")
	e.fail(log, videoID, step, percentSceneGenFailed, fmt.Sprintf("Storage failure: %v", err))
}

func (e *Engine) interrupted(log zerolog.Logger, videoID string, r *run, cur domain.Step) bool {
	select {
	case <-r.cancelled:
	default:
		return false
	}
	log.Info().Msg("workflow: cancellation requested, stopping between steps")
	e.fail(log, videoID, cur, percentForCancel(cur), "Video generation cancelled")
	return true
}

func percentForCancel(step domain.Step) int {
	switch step {
	case domain.StepPending, domain.StepInitializing:
		return percentInitializing
	case domain.StepSceneGeneration:
		return percentSceneGenDone
	case domain.StepSceneCritique, domain.StepSceneCritiqueRetry:
		return percentCritiqueDone
	case domain.StepAudioGeneration:
		return percentAudioDone
	case domain.StepVideoAssembly:
		return percentAssembly
	default:
		return percentInitializing
	}
}

func timeoutAsAgentError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: step timed out", domain.ErrAgentFailure)
	}
	return err
}
