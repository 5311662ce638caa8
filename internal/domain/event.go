package domain

// EventType enumerates live notification kinds delivered to subscribers.
type EventType string

const (
	EventStatus    EventType = "status"
	EventProgress  EventType = "progress"
	EventUpdate    EventType = "update"
	EventComplete  EventType = "complete"
	EventError     EventType = "error"
	EventHeartbeat EventType = "heartbeat"
)

// Event is an ephemeral progress notification. Events are delivered to live
// subscribers only; the video record remains the durable source of truth.
type Event struct {
	Type     EventType `json:"type"`
	VideoID  string    `json:"-"`
	Seq      uint64    `json:"seq"`
	Progress int       `json:"progress,omitempty"`
	Message  string    `json:"message,omitempty"`
	Data     any       `json:"data,omitempty"`
}

// Terminal reports whether the event ends its subscribers' streams.
func (e Event) Terminal() bool {
	return e.Type == EventComplete || e.Type == EventError
}
