package scenes

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ezedinff/AAIDC/internal/domain"
	"github.com/ezedinff/AAIDC/internal/providers/openai"
)

const (
	minCaptionLen = 10
	maxCaptionLen = 150
)

// OpenAICritic revises scenes with a chat completion and judges whether the
// result needs another generation pass.
type OpenAICritic struct {
	client        *openai.Client
	videoDuration int
	logger        zerolog.Logger
}

// NewOpenAICritic builds a critic. videoDuration is the target total duration
// in seconds carried into the critique prompt.
func NewOpenAICritic(client *openai.Client, videoDuration int, logger zerolog.Logger) *OpenAICritic {
	if videoDuration <= 0 {
		videoDuration = 30
	}
	return &OpenAICritic{client: client, videoDuration: videoDuration, logger: logger}
}

// Review improves the scenes and returns a verdict. A model or parse failure
// is an error; the caller decides the fallback policy.
func (c *OpenAICritic) Review(ctx context.Context, in []domain.Scene, attempt int) (Review, error) {
	if len(in) == 0 {
		return Review{}, fmt.Errorf("%w: no scenes to critique", domain.ErrValidation)
	}
	content, err := c.client.Chat(ctx, c.buildPrompt(in), 0.5)
	if err != nil {
		return Review{}, fmt.Errorf("%w: scene critique: %v", domain.ErrAgentFailure, err)
	}
	improved, err := ParseSceneJSON(content)
	if err != nil {
		// Keep the input scenes when the revision is unusable.
		c.logger.Warn().Err(err).Msg("scenes: unparseable critique output, keeping originals")
		improved = in
	}
	verdict, feedback := EvaluateQuality(improved, attempt)
	return Review{Verdict: verdict, Scenes: improved, Feedback: feedback}, nil
}

func (c *OpenAICritic) buildPrompt(in []domain.Scene) string {
	var b strings.Builder
	b.WriteString("Review and improve these video scenes:\n\n")
	for i, scene := range in {
		fmt.Fprintf(&b, "Scene %d: %s\nCaption: %s\nDuration: %.0fs\n\n",
			i+1, scene.Description, scene.CaptionText, scene.DurationSeconds)
	}
	b.WriteString("Please improve them for:\n")
	b.WriteString("- Better clarity and readability of captions\n")
	b.WriteString("- Smoother narrative flow between scenes\n")
	b.WriteString("- More engaging descriptions\n")
	b.WriteString("- Appropriate timing and pacing\n\n")
	b.WriteString("Keep the same JSON structure with description, caption_text, and duration fields.\n")
	fmt.Fprintf(&b, "Total duration should remain approximately %d seconds.\n", c.videoDuration)
	b.WriteString("Return the improved scenes as a JSON array.")
	return b.String()
}

// EvaluateQuality applies the scene quality rules: required fields, caption
// length bounds and caption variety. Judgement is lenient from the first
// retry onward so the loop converges.
func EvaluateQuality(in []domain.Scene, attempt int) (Verdict, string) {
	if len(in) == 0 {
		return VerdictNeedsImprovement, "no scenes were produced"
	}
	for i, scene := range in {
		if strings.TrimSpace(scene.CaptionText) == "" || strings.TrimSpace(scene.Description) == "" {
			return VerdictNeedsImprovement, fmt.Sprintf("scene %d is missing a caption or description", i+1)
		}
		if n := len(scene.CaptionText); n > maxCaptionLen {
			return VerdictNeedsImprovement, fmt.Sprintf("scene %d caption is too long (%d characters)", i+1, n)
		} else if n < minCaptionLen {
			return VerdictNeedsImprovement, fmt.Sprintf("scene %d caption is too short (%d characters)", i+1, n)
		}
	}
	if attempt >= 1 {
		return VerdictAcceptable, ""
	}
	seen := make(map[string]struct{}, len(in))
	for _, scene := range in {
		seen[scene.CaptionText] = struct{}{}
	}
	if float64(len(seen)) < float64(len(in))*0.8 {
		return VerdictNeedsImprovement, "scenes lack variety, too many similar captions"
	}
	return VerdictAcceptable, ""
}
