package domain

import "time"

// Status enumerates video lifecycle states.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Step enumerates the stages of the generation pipeline.
type Step string

const (
	StepPending            Step = "pending"
	StepInitializing       Step = "initializing"
	StepSceneGeneration    Step = "scene_generation"
	StepSceneCritique      Step = "scene_critique"
	StepSceneCritiqueRetry Step = "scene_critique_retry"
	StepAudioGeneration    Step = "audio_generation"
	StepVideoAssembly      Step = "video_assembly"
	StepCompleted          Step = "completed"
)

// stepTransitions is the closed transition table for the pipeline. A step may
// only move to one of its listed successors; every non-terminal step may also
// fail, which is a status change rather than a step transition.
var stepTransitions = map[Step][]Step{
	StepPending:            {StepInitializing},
	StepInitializing:       {StepSceneGeneration},
	StepSceneGeneration:    {StepSceneCritique},
	StepSceneCritique:      {StepSceneCritiqueRetry, StepAudioGeneration},
	StepSceneCritiqueRetry: {StepSceneGeneration},
	StepAudioGeneration:    {StepVideoAssembly},
	StepVideoAssembly:      {StepCompleted},
	StepCompleted:          nil,
}

// CanTransition reports whether the pipeline allows moving from one step to
// another.
func CanTransition(from, to Step) bool {
	for _, next := range stepTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidStep reports whether s is part of the declared step enumeration.
func ValidStep(s Step) bool {
	_, ok := stepTransitions[s]
	return ok
}

// Scene is a single segment of the generated video.
type Scene struct {
	Description     string  `json:"description"`
	CaptionText     string  `json:"caption_text"`
	DurationSeconds float64 `json:"duration"`
}

// Video is one generation request and its full lifecycle record. The JSON
// shape is the snapshot served to clients and mirrored into status/update
// events; scene and narration internals stay server-side.
type Video struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	UserInput       string    `json:"user_input"`
	Status          Status    `json:"status"`
	CurrentStep     Step      `json:"current_step"`
	ProgressPercent int       `json:"progress_percent"`
	RawScenes       []Scene   `json:"-"`
	ImprovedScenes  []Scene   `json:"-"`
	AudioFiles      []string  `json:"-"`
	FilePath        string    `json:"file_path"`
	Duration        float64   `json:"duration"`
	ErrorMessage    string    `json:"error_message"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// VideoUpdate is a partial field set applied atomically to a video record.
// Nil pointers and nil slices leave the stored value untouched.
type VideoUpdate struct {
	Status          *Status
	CurrentStep     *Step
	ProgressPercent *int
	RawScenes       []Scene
	ImprovedScenes  []Scene
	AudioFiles      []string
	FilePath        *string
	Duration        *float64
	ErrorMessage    *string
}
