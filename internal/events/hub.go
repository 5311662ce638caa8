// Package events routes live generation progress to per-video subscriber
// streams. Delivery is at-most-once per live subscription: a subscriber
// connecting mid-job sees only events from its connection point forward and
// is expected to fetch the current video snapshot first.
package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ezedinff/AAIDC/internal/domain"
	"github.com/ezedinff/AAIDC/internal/metrics"
)

const defaultBuffer = 16

// Hub fans events out to every current subscriber of a video. Publishing
// never blocks: a full subscriber buffer drops its oldest event instead of
// stalling the publisher.
type Hub struct {
	logger  zerolog.Logger
	metrics *metrics.Metrics
	buffer  int

	mu     sync.Mutex
	topics map[string]*topic
	seqs   map[string]uint64
	closed bool
	done   chan struct{}
}

type topic struct {
	subs map[*Subscription]struct{}
}

// Subscription is one caller's stream of events scoped to a single video.
type Subscription struct {
	videoID string
	ch      chan domain.Event
	hub     *Hub
	once    sync.Once
}

// Events returns the receive channel. It is closed when the caller
// unsubscribes, a terminal event has been delivered, or the hub shuts down.
func (s *Subscription) Events() <-chan domain.Event {
	return s.ch
}

// Close unsubscribes and releases the stream.
func (s *Subscription) Close() {
	s.hub.unsubscribe(s)
}

// Option configures a Hub.
type Option func(*Hub)

// WithBuffer sets the per-subscriber delivery buffer size.
func WithBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.buffer = n
		}
	}
}

// WithHeartbeat starts a ticker that delivers a heartbeat event to every
// live subscription at the given interval.
func WithHeartbeat(every time.Duration) Option {
	return func(h *Hub) {
		if every > 0 {
			go h.heartbeatLoop(every)
		}
	}
}

// WithMetrics wires the hub's publish/drop/subscriber counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Hub) { h.metrics = m }
}

// NewHub creates a hub ready for subscriptions.
func NewHub(logger zerolog.Logger, opts ...Option) *Hub {
	h := &Hub{
		logger: logger,
		buffer: defaultBuffer,
		topics: make(map[string]*topic),
		seqs:   make(map[string]uint64),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe opens a new stream for the given video. Multiple concurrent
// subscribers per video are supported.
func (h *Hub) Subscribe(videoID string) *Subscription {
	sub := &Subscription{videoID: videoID, ch: make(chan domain.Event, h.buffer), hub: h}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(sub.ch)
		return sub
	}
	t, ok := h.topics[videoID]
	if !ok {
		t = &topic{subs: make(map[*Subscription]struct{})}
		h.topics[videoID] = t
	}
	t.subs[sub] = struct{}{}
	h.metrics.SubscriberAdded()
	return sub
}

// Publish delivers the event to every current subscriber of the video,
// stamping the next per-video sequence number. Terminal events close the
// video's subscriptions after delivery.
func (h *Hub) Publish(videoID string, event domain.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.deliverLocked(videoID, event)
	if event.Terminal() {
		h.closeJobLocked(videoID)
	}
}

// Shutdown closes every subscription and stops accepting publishes.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	close(h.done)
	for videoID := range h.topics {
		h.closeJobLocked(videoID)
	}
}

func (h *Hub) deliverLocked(videoID string, event domain.Event) {
	h.seqs[videoID]++
	event.Seq = h.seqs[videoID]
	event.VideoID = videoID
	h.metrics.EventPublished(string(event.Type))

	t, ok := h.topics[videoID]
	if !ok {
		// No live subscribers; the video record remains the durable truth
		// for late joiners.
		return
	}
	for sub := range t.subs {
		select {
		case sub.ch <- event:
		default:
			// Buffer full: drop the oldest buffered event, never the publisher.
			select {
			case dropped := <-sub.ch:
				h.metrics.EventDropped()
				h.logger.Warn().
					Str("video_id", videoID).
					Str("type", string(dropped.Type)).
					Uint64("seq", dropped.Seq).
					Msg("events: slow subscriber, dropped oldest event")
			default:
			}
			select {
			case sub.ch <- event:
			default:
			}
		}
	}
}

func (h *Hub) closeJobLocked(videoID string) {
	if t, ok := h.topics[videoID]; ok {
		for sub := range t.subs {
			sub.once.Do(func() { close(sub.ch) })
			h.metrics.SubscriberRemoved()
		}
		delete(h.topics, videoID)
	}
	delete(h.seqs, videoID)
}

func (h *Hub) unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	t, ok := h.topics[sub.videoID]
	if ok {
		if _, member := t.subs[sub]; member {
			delete(t.subs, sub)
			h.metrics.SubscriberRemoved()
			if len(t.subs) == 0 {
				delete(h.topics, sub.videoID)
			}
		}
	}
	sub.once.Do(func() { close(sub.ch) })
}

func (h *Hub) heartbeatLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
			h.mu.Lock()
			for videoID := range h.topics {
				h.deliverLocked(videoID, domain.Event{
					Type:    domain.EventHeartbeat,
					Message: time.Now().UTC().Format(time.RFC3339),
				})
			}
			h.mu.Unlock()
		}
	}
}
