package domain

import "time"

// ProgressStatus enumerates the outcome recorded for a progress log entry.
type ProgressStatus string

const (
	ProgressStarted   ProgressStatus = "started"
	ProgressCompleted ProgressStatus = "completed"
	ProgressError     ProgressStatus = "error"
)

// ProgressEntry is one append-only audit record of a video's generation run.
// Entries are never mutated; they are removed only by cascading deletion of
// the owning video.
type ProgressEntry struct {
	ID        int64          `json:"id"`
	VideoID   string         `json:"video_id"`
	Step      Step           `json:"step"`
	Status    ProgressStatus `json:"status"`
	Message   string         `json:"message"`
	Timestamp time.Time      `json:"timestamp"`
}
