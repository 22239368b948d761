package events

import (
	"log/slog"
	"sync"

	"subgrab/internal/logging"
	"subgrab/internal/metrics"
)

// DefaultBuffer is the per-subscriber queue length.
const DefaultBuffer = 64

// Hub fans messages out to subscribers. Publish never blocks; a subscriber
// whose queue is full misses the message.
type Hub struct {
	mu      sync.RWMutex
	subs    map[*Subscription]struct{}
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Subscription receives published messages until closed.
type Subscription struct {
	hub  *Hub
	ch   chan Message
	once sync.Once
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger, m *metrics.Metrics) *Hub {
	return &Hub{
		subs:    make(map[*Subscription]struct{}),
		logger:  logging.NewComponentLogger(logger, "events"),
		metrics: m,
	}
}

// Subscribe registers a subscriber with the given queue length.
func (h *Hub) Subscribe(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	sub := &Subscription{hub: h, ch: make(chan Message, buffer)}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

// Publish delivers msg to every subscriber that has room.
func (h *Hub) Publish(msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs {
		select {
		case sub.ch <- msg:
		default:
			h.metrics.EventDropped()
			h.logger.Debug("subscriber queue full; message dropped",
				logging.String(logging.FieldEventType, "event_dropped"),
				logging.String("message_type", string(msg.Type)),
			)
		}
	}
}

// Subscribers returns the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// C returns the receive channel. It is closed by Close.
func (s *Subscription) C() <-chan Message {
	return s.ch
}

// Close unregisters the subscription. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s)
		s.hub.mu.Unlock()
		close(s.ch)
	})
}
