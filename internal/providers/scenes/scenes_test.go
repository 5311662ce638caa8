package scenes

import (
	"context"
	"strings"
	"testing"

	"github.com/ezedinff/AAIDC/internal/domain"
)

func TestParseSceneJSON(t *testing.T) {
	content := `Here are your scenes:
[
  {"description": "A lighthouse at dawn", "caption_text": "The keeper wakes", "duration": 10},
  {"description": "Waves on the rocks", "caption_text": "The storm arrives", "duration": 12}
]
Hope you like them!`

	parsed, err := ParseSceneJSON(content)
	if err != nil {
		t.Fatalf("ParseSceneJSON() error = %v", err)
	}
	if len(parsed) != 2 {
		t.Fatalf("got %d scenes, want 2", len(parsed))
	}
	if parsed[0].CaptionText != "The keeper wakes" {
		t.Fatalf("caption = %q", parsed[0].CaptionText)
	}
	if parsed[1].DurationSeconds != 12 {
		t.Fatalf("duration = %v, want 12", parsed[1].DurationSeconds)
	}
}

func TestParseSceneJSONErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no array", "the model rambled instead of answering"},
		{"malformed json", `[{"description": }]`},
		{"empty array", "[]"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseSceneJSON(tc.content); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestFallbackScenes(t *testing.T) {
	out := FallbackScenes(3, 30)
	if len(out) != 3 {
		t.Fatalf("got %d scenes, want 3", len(out))
	}
	var total float64
	for _, s := range out {
		if s.Description == "" || s.CaptionText == "" {
			t.Fatal("fallback scenes must have content")
		}
		total += s.DurationSeconds
	}
	if total != 30 {
		t.Fatalf("total duration = %v, want 30", total)
	}
}

func TestEvaluateQuality(t *testing.T) {
	good := []domain.Scene{
		{Description: "A lighthouse at dawn", CaptionText: "The keeper wakes up", DurationSeconds: 10},
		{Description: "Waves on the rocks", CaptionText: "The storm rolls in", DurationSeconds: 10},
	}

	tests := []struct {
		name    string
		scenes  []domain.Scene
		attempt int
		want    Verdict
	}{
		{"good scenes pass", good, 0, VerdictAcceptable},
		{"empty set fails", nil, 0, VerdictNeedsImprovement},
		{
			"missing caption fails",
			[]domain.Scene{{Description: "something happens"}},
			0, VerdictNeedsImprovement,
		},
		{
			"short caption fails",
			[]domain.Scene{{Description: "something happens", CaptionText: "hi"}},
			0, VerdictNeedsImprovement,
		},
		{
			"long caption fails",
			[]domain.Scene{{Description: "something", CaptionText: strings.Repeat("x", 151)}},
			0, VerdictNeedsImprovement,
		},
		{
			"duplicate captions fail on first attempt",
			[]domain.Scene{
				{Description: "a", CaptionText: "The same caption"},
				{Description: "b", CaptionText: "The same caption"},
				{Description: "c", CaptionText: "The same caption"},
			},
			0, VerdictNeedsImprovement,
		},
		{
			"duplicate captions tolerated on retry",
			[]domain.Scene{
				{Description: "a", CaptionText: "The same caption"},
				{Description: "b", CaptionText: "The same caption"},
				{Description: "c", CaptionText: "The same caption"},
			},
			1, VerdictAcceptable,
		},
		{
			"hard limits still apply on retry",
			[]domain.Scene{{Description: "something happens", CaptionText: "hi"}},
			2, VerdictNeedsImprovement,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, feedback := EvaluateQuality(tc.scenes, tc.attempt)
			if got != tc.want {
				t.Fatalf("EvaluateQuality() = %s (%q), want %s", got, feedback, tc.want)
			}
			if got == VerdictNeedsImprovement && feedback == "" {
				t.Fatal("needs_improvement must carry feedback")
			}
		})
	}
}

func TestMockGeneratorAndCritic(t *testing.T) {
	gen := &MockGenerator{SceneCount: 3, VideoDuration: 30}
	scenes, err := gen.Generate(context.Background(), "a story", "")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(scenes) != 3 {
		t.Fatalf("got %d scenes, want 3", len(scenes))
	}

	critic := &MockCritic{}
	review, err := critic.Review(context.Background(), scenes, 0)
	if err != nil {
		t.Fatalf("Review() error = %v", err)
	}
	if review.Verdict != VerdictAcceptable {
		t.Fatalf("verdict = %s, want acceptable", review.Verdict)
	}
	if len(review.Scenes) != len(scenes) {
		t.Fatalf("review must echo the scenes")
	}
}
