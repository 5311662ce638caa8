package scenes

import (
	"context"
	"fmt"

	"github.com/ezedinff/AAIDC/internal/domain"
)

// MockGenerator produces deterministic scenes without calling any model. It
// backs MOCK_MODE so the full pipeline can run offline.
type MockGenerator struct {
	SceneCount    int
	VideoDuration int
}

func (m *MockGenerator) Generate(ctx context.Context, userInput, feedback string) ([]domain.Scene, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	count := m.SceneCount
	if count <= 0 {
		count = 3
	}
	total := m.VideoDuration
	if total <= 0 {
		total = 30
	}
	per := float64(total) / float64(count)
	out := make([]domain.Scene, count)
	for i := range out {
		out[i] = domain.Scene{
			Description:     fmt.Sprintf("Mock scene %d for input %q", i+1, userInput),
			CaptionText:     fmt.Sprintf("Mock caption number %d", i+1),
			DurationSeconds: per,
		}
	}
	return out, nil
}

// MockCritic approves whatever it is given.
type MockCritic struct{}

func (MockCritic) Review(ctx context.Context, in []domain.Scene, attempt int) (Review, error) {
	if err := ctx.Err(); err != nil {
		return Review{}, err
	}
	return Review{Verdict: VerdictAcceptable, Scenes: in}, nil
}
