// Package scenes provides the scene generation and critique capabilities of
// the workflow.
package scenes

import (
	"context"

	"github.com/ezedinff/AAIDC/internal/domain"
)

// Verdict is the critique capability's judgment on a set of scenes.
type Verdict string

const (
	VerdictAcceptable       Verdict = "acceptable"
	VerdictNeedsImprovement Verdict = "needs_improvement"
)

// Review is the outcome of one critique pass: the verdict, the possibly
// revised scenes, and feedback to fold into the next generation attempt.
type Review struct {
	Verdict  Verdict
	Scenes   []domain.Scene
	Feedback string
}

// Generator produces scenes from the user's input. A non-empty feedback
// argument carries critique notes from a previous attempt.
type Generator interface {
	Generate(ctx context.Context, userInput, feedback string) ([]domain.Scene, error)
}

// Critic reviews generated scenes. The attempt argument is the zero-based
// retry counter of the critique loop; implementations may judge more
// leniently on later attempts.
type Critic interface {
	Review(ctx context.Context, scenes []domain.Scene, attempt int) (Review, error)
}
