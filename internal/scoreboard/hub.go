// Package scoreboard pushes live standings to WebSocket spectators of a match.
package scoreboard

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/truco/internal/models"
	"github.com/sirupsen/logrus"
)

// Sender is the part of *websocket.Conn the hub writes through.
type Sender interface {
	Write(ctx context.Context, typ websocket.MessageType, p []byte) error
}

// Hub tracks the spectators of every match. It implements truco.Notifier.
type Hub struct {
	mu   sync.Mutex
	subs map[uuid.UUID]map[*subscriber]struct{}

	logger       *logrus.Logger
	writeTimeout time.Duration
}

type subscriber struct {
	conn Sender
}

func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		subs:         make(map[uuid.UUID]map[*subscriber]struct{}),
		logger:       logger,
		writeTimeout: 3 * time.Second,
	}
}

// Subscribe registers conn for events of matchID. The returned function
// removes it again and is safe to call more than once.
func (h *Hub) Subscribe(matchID uuid.UUID, conn Sender) func() {
	sub := &subscriber{conn: conn}
	h.mu.Lock()
	if h.subs[matchID] == nil {
		h.subs[matchID] = make(map[*subscriber]struct{})
	}
	h.subs[matchID][sub] = struct{}{}
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if set, ok := h.subs[matchID]; ok {
			delete(set, sub)
			if len(set) == 0 {
				delete(h.subs, matchID)
			}
		}
	}
}

// Count returns the number of spectators of matchID.
func (h *Hub) Count(matchID uuid.UUID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[matchID])
}

// Publish sends ev to every spectator of its match. Writes happen outside the
// lock; a spectator whose write fails is dropped. Once a match is deleted all
// its spectators are released.
func (h *Hub) Publish(ctx context.Context, ev models.ScoreEvent) error {
	h.mu.Lock()
	targets := make([]*subscriber, 0, len(h.subs[ev.MatchID]))
	for sub := range h.subs[ev.MatchID] {
		targets = append(targets, sub)
	}
	if ev.Kind == models.EventMatchDeleted {
		delete(h.subs, ev.MatchID)
	}
	h.mu.Unlock()

	if len(targets) == 0 {
		return nil
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	for _, sub := range targets {
		wctx, cancel := context.WithTimeout(ctx, h.writeTimeout)
		err := sub.conn.Write(wctx, websocket.MessageText, data)
		cancel()
		if err != nil {
			h.logger.WithFields(logrus.Fields{
				"match_id": ev.MatchID,
				"kind":     ev.Kind,
			}).WithError(err).Warn("dropping scoreboard spectator after failed write")
			h.drop(ev.MatchID, sub)
		}
	}
	return nil
}

func (h *Hub) drop(matchID uuid.UUID, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.subs[matchID]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, matchID)
		}
	}
}
