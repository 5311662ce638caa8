// Package moderation pre-filters create-time content before a job starts.
package moderation

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ezedinff/AAIDC/internal/providers/openai"
)

// Moderator judges whether text violates content policy.
type Moderator interface {
	Flagged(ctx context.Context, text string) bool
}

// OpenAIModerator uses the OpenAI moderation endpoint. It fails open: a
// moderation outage must not block job creation.
type OpenAIModerator struct {
	client   *openai.Client
	minScore float64
	logger   zerolog.Logger
}

// NewOpenAIModerator builds a moderator. minScore is the category-score
// threshold above which content is rejected even if not flagged outright.
func NewOpenAIModerator(client *openai.Client, minScore float64, logger zerolog.Logger) *OpenAIModerator {
	if minScore <= 0 {
		minScore = 0.08
	}
	return &OpenAIModerator{client: client, minScore: minScore, logger: logger}
}

func (m *OpenAIModerator) Flagged(ctx context.Context, text string) bool {
	flagged, maxScore, err := m.client.Moderate(ctx, text)
	if err != nil {
		m.logger.Warn().Err(err).Msg("moderation: check failed, allowing content")
		return false
	}
	return flagged || maxScore >= m.minScore
}

// AllowAll never flags anything; used in mock mode.
type AllowAll struct{}

func (AllowAll) Flagged(ctx context.Context, text string) bool {
	return false
}
