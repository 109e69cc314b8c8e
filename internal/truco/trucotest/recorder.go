package trucotest

import (
	"context"
	"sync"

	"github.com/jason-s-yu/truco/internal/models"
)

// Recorder is a truco.Notifier that keeps every event it receives.
type Recorder struct {
	mu     sync.Mutex
	events []models.ScoreEvent
	Err    error // returned from Publish when set
}

func (r *Recorder) Publish(_ context.Context, ev models.ScoreEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.Err
}

// Events returns a copy of the received events in order.
func (r *Recorder) Events() []models.ScoreEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.ScoreEvent(nil), r.events...)
}

// Kinds returns the kinds of the received events in order.
func (r *Recorder) Kinds() []models.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.EventKind, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Kind
	}
	return out
}
