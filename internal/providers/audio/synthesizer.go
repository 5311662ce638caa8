// Package audio provides the narration synthesis capability.
package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/ezedinff/AAIDC/internal/domain"
	"github.com/ezedinff/AAIDC/internal/providers/openai"
)

// Synthesizer turns scenes into per-scene narration audio files and returns
// their paths, in scene order.
type Synthesizer interface {
	Synthesize(ctx context.Context, scenes []domain.Scene) ([]string, error)
}

// OpenAISynthesizer renders narration with the OpenAI speech endpoint. A
// failed scene falls back to an empty placeholder file so one bad narration
// does not sink the whole job.
type OpenAISynthesizer struct {
	client  *openai.Client
	voice   string
	tempDir string
	logger  zerolog.Logger
}

// NewOpenAISynthesizer builds a synthesizer writing mp3 files under tempDir.
func NewOpenAISynthesizer(client *openai.Client, voice, tempDir string, logger zerolog.Logger) *OpenAISynthesizer {
	if voice == "" {
		voice = "alloy"
	}
	return &OpenAISynthesizer{client: client, voice: voice, tempDir: tempDir, logger: logger}
}

// Synthesize generates one narration file per scene.
func (s *OpenAISynthesizer) Synthesize(ctx context.Context, scenes []domain.Scene) ([]string, error) {
	if len(scenes) == 0 {
		return nil, fmt.Errorf("%w: no scenes for audio generation", domain.ErrValidation)
	}
	if err := os.MkdirAll(s.tempDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: ensure temp dir: %v", domain.ErrStorage, err)
	}
	paths := make([]string, 0, len(scenes))
	for i, scene := range scenes {
		path := filepath.Join(s.tempDir, fmt.Sprintf("scene_%d_audio.mp3", i+1))
		data, err := s.client.Speech(ctx, s.voice, narrationText(scene))
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: audio generation: %v", domain.ErrAgentFailure, ctx.Err())
			}
			s.logger.Warn().Err(err).Int("scene", i+1).Msg("audio: synthesis failed, writing silent placeholder")
			data = nil
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, fmt.Errorf("%w: write narration: %v", domain.ErrStorage, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func narrationText(scene domain.Scene) string {
	if scene.Description != "" {
		return scene.Description
	}
	return scene.CaptionText
}

// MockSynthesizer writes empty placeholder files, one per scene.
type MockSynthesizer struct {
	TempDir string
}

func (m *MockSynthesizer) Synthesize(ctx context.Context, scenes []domain.Scene) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(scenes) == 0 {
		return nil, fmt.Errorf("%w: no scenes for audio generation", domain.ErrValidation)
	}
	if err := os.MkdirAll(m.TempDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: ensure temp dir: %v", domain.ErrStorage, err)
	}
	paths := make([]string, 0, len(scenes))
	for i := range scenes {
		path := filepath.Join(m.TempDir, fmt.Sprintf("scene_%d_audio.mp3", i+1))
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			return nil, fmt.Errorf("%w: write narration: %v", domain.ErrStorage, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
