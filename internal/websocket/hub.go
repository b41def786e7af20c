package websocket

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-quiz-client/internal/model"
)

const subscriberBuffer = 8

// Hub fans rendered views out to websocket subscribers. A slow subscriber
// loses its oldest queued views, never the newest.
type Hub struct {
	mu          sync.Mutex
	subscribers map[uuid.UUID]chan model.QuizView
	log         zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		subscribers: make(map[uuid.UUID]chan model.QuizView),
		log:         log.With().Str("component", "ws_hub").Logger(),
	}
}

// Subscribe registers a subscriber. The channel is closed by Unsubscribe.
func (h *Hub) Subscribe() (uuid.UUID, <-chan model.QuizView) {
	id := uuid.New()
	ch := make(chan model.QuizView, subscriberBuffer)

	h.mu.Lock()
	h.subscribers[id] = ch
	h.mu.Unlock()

	h.log.Debug().Str("subscriber", id.String()).Msg("Subscribed")
	return id, ch
}

func (h *Hub) Unsubscribe(id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.subscribers[id]; ok {
		delete(h.subscribers, id)
		close(ch)
		h.log.Debug().Str("subscriber", id.String()).Msg("Unsubscribed")
	}
}

// Publish implements service.Notifier. It never blocks.
func (h *Hub) Publish(view model.QuizView) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.subscribers {
		select {
		case ch <- view:
			continue
		default:
		}

		// Full: only Publish sends, and it holds mu, so one receive makes room.
		select {
		case <-ch:
			h.log.Warn().Str("subscriber", id.String()).Msg("Subscriber lagging, dropped a view")
		default:
		}
		select {
		case ch <- view:
		default:
		}
	}
}

// Count returns the number of subscribers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}
