// internal/models/event.go
package models

import "github.com/google/uuid"

// EventKind names a committed change to a match.
type EventKind string

const (
	EventMatchCreated  EventKind = "match_created"
	EventRoundRecorded EventKind = "round_recorded"
	EventScoreAdded    EventKind = "score_added"
	EventRoundEdited   EventKind = "round_edited"
	EventRoundDeleted  EventKind = "round_deleted"
	EventMatchFinished EventKind = "match_finished"
	EventMatchDeleted  EventKind = "match_deleted"

	// EventSnapshot is sent to a scoreboard spectator when it connects.
	EventSnapshot EventKind = "snapshot"
)

// ScoreEvent is emitted after a change to a match has been committed.
// Scores holds the standings after the change (nil once the match is deleted).
type ScoreEvent struct {
	MatchID     uuid.UUID         `json:"match_id"`
	Kind        EventKind         `json:"kind"`
	RoundID     *uuid.UUID        `json:"round_id,omitempty"`
	RoundNumber int               `json:"round_number,omitempty"`
	Scores      map[uuid.UUID]int `json:"scores,omitempty"`
	HasWinner   bool              `json:"has_winner"`
	Timestamp   int64             `json:"timestamp"` // epoch millis
}
