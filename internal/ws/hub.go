// Package ws pushes submission events to connected admin dashboards.
package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/zaqqye/tg_contact_form/internal/logger"
	"github.com/zaqqye/tg_contact_form/internal/metrics"
)

const (
	EventSubmissionCreated = "submission.created"
	EventSubmissionDeleted = "submission.deleted"
)

type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
	At   time.Time   `json:"at"`
}

// SubmissionHub owns the set of live feed clients. Only Run touches the
// client map; everything else talks to it over channels.
type SubmissionHub struct {
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	clients    map[*client]struct{}
	done       chan struct{}
	log        logger.Logger
}

func NewSubmissionHub(log logger.Logger) *SubmissionHub {
	return &SubmissionHub{
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 256),
		clients:    make(map[*client]struct{}),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run serves the hub until ctx is cancelled, then disconnects every client.
func (h *SubmissionHub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
			metrics.LiveFeedClients.Set(float64(len(h.clients)))
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.drop(c)
			}
		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// slow consumer
					h.drop(c)
				}
			}
		}
	}
}

func (h *SubmissionHub) join(c *client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *SubmissionHub) leave(c *client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *SubmissionHub) drop(c *client) {
	delete(h.clients, c)
	close(c.send)
	c.conn.Close()
	metrics.LiveFeedClients.Set(float64(len(h.clients)))
}

// Publish never blocks the request path; events are dropped when the
// buffer is full.
func (h *SubmissionHub) Publish(eventType string, data interface{}) {
	if h == nil {
		return
	}
	payload, err := json.Marshal(Event{Type: eventType, Data: data, At: time.Now().UTC()})
	if err != nil {
		h.log.WithError(err).Error("ws: failed to marshal event", nil)
		return
	}
	select {
	case h.broadcast <- payload:
	default:
		h.log.Warn("ws: live feed buffer full, event dropped", map[string]interface{}{"type": eventType})
	}
}
