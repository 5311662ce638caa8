package scenes

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ezedinff/AAIDC/internal/domain"
	"github.com/ezedinff/AAIDC/internal/providers/openai"
)

// OpenAIGenerator generates scenes with a chat completion.
type OpenAIGenerator struct {
	client        *openai.Client
	sceneCount    int
	videoDuration int
	logger        zerolog.Logger
}

// NewOpenAIGenerator builds a generator targeting the given scene count and
// approximate total duration in seconds.
func NewOpenAIGenerator(client *openai.Client, sceneCount, videoDuration int, logger zerolog.Logger) *OpenAIGenerator {
	if sceneCount <= 0 {
		sceneCount = 3
	}
	if videoDuration <= 0 {
		videoDuration = 30
	}
	return &OpenAIGenerator{client: client, sceneCount: sceneCount, videoDuration: videoDuration, logger: logger}
}

// Generate produces scenes from the user input, folding in critique feedback
// from a previous attempt when present.
func (g *OpenAIGenerator) Generate(ctx context.Context, userInput, feedback string) ([]domain.Scene, error) {
	if strings.TrimSpace(userInput) == "" {
		return nil, fmt.Errorf("%w: no user input provided", domain.ErrValidation)
	}
	prompt := g.buildPrompt(userInput, feedback)
	content, err := g.client.Chat(ctx, prompt, 0.7)
	if err != nil {
		return nil, fmt.Errorf("%w: scene generation: %v", domain.ErrAgentFailure, err)
	}
	parsed, err := ParseSceneJSON(content)
	if err != nil {
		g.logger.Warn().Err(err).Msg("scenes: unparseable model output, using fallback scenes")
		return FallbackScenes(g.sceneCount, g.videoDuration), nil
	}
	return parsed, nil
}

func (g *OpenAIGenerator) buildPrompt(userInput, feedback string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create %d engaging video scenes based on this input: %q\n\n", g.sceneCount, userInput)
	b.WriteString("Each scene should have:\n")
	b.WriteString("- description: a detailed description of what happens in the scene\n")
	b.WriteString("- caption_text: the text that will appear on screen (concise and readable)\n")
	b.WriteString("- duration: how long the scene should last in seconds\n\n")
	fmt.Fprintf(&b, "Total video duration should be approximately %d seconds.\n", g.videoDuration)
	if feedback != "" {
		fmt.Fprintf(&b, "\nA previous attempt was rejected with this feedback; address it:\n%s\n", feedback)
	}
	b.WriteString("\nFormat your response as a JSON array of objects with these fields.\n")
	b.WriteString("Make sure the text is clear and suitable for voice narration.")
	return b.String()
}

// ParseSceneJSON extracts the first JSON array from model output and decodes
// it into scenes.
func ParseSceneJSON(content string) ([]domain.Scene, error) {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON array in model output")
	}
	var parsed []domain.Scene
	if err := json.Unmarshal([]byte(content[start:end+1]), &parsed); err != nil {
		return nil, fmt.Errorf("decode scenes: %w", err)
	}
	if len(parsed) == 0 {
		return nil, fmt.Errorf("model returned no scenes")
	}
	return parsed, nil
}

// FallbackScenes returns deterministic placeholder scenes used when the model
// output cannot be parsed.
func FallbackScenes(count, totalDuration int) []domain.Scene {
	if count <= 0 {
		count = 3
	}
	per := float64(totalDuration) / float64(count)
	out := make([]domain.Scene, count)
	for i := range out {
		out[i] = domain.Scene{
			Description:     fmt.Sprintf("Scene %d content", i+1),
			CaptionText:     fmt.Sprintf("Scene %d", i+1),
			DurationSeconds: per,
		}
	}
	return out
}
