// internal/database/event.go
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/truco/internal/models"
)

// InsertEvents appends a batch of score events to match_events in a single
// transaction. Each row keeps the full event as its payload.
func (s *Store) InsertEvents(ctx context.Context, events []models.ScoreEvent) error {
	if len(events) == 0 {
		return nil
	}
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, ev := range events {
			payload, err := json.Marshal(ev)
			if err != nil {
				return fmt.Errorf("marshal event: %w", err)
			}
			occurred := time.UnixMilli(ev.Timestamp)
			if ev.Timestamp == 0 {
				occurred = time.Now()
			}
			_, err = tx.Exec(ctx, `
				INSERT INTO match_events (match_id, kind, round_id, payload, occurred_at)
				VALUES ($1, $2, $3, $4, $5)
			`, ev.MatchID, string(ev.Kind), ev.RoundID, payload, occurred)
			if err != nil {
				return fmt.Errorf("insert %s event for match %v: %w", ev.Kind, ev.MatchID, err)
			}
		}
		return nil
	})
}
