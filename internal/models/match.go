// internal/models/match.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// MatchStatus is either in_progress or finished. A finished match is never reopened.
type MatchStatus string

const (
	MatchInProgress MatchStatus = "in_progress"
	MatchFinished   MatchStatus = "finished"
)

// WinThreshold is the score that wins a match.
const WinThreshold = 30

// Match represents a row in the matches table.
type Match struct {
	ID                uuid.UUID   `json:"id"`
	Name              string      `json:"name"`
	CreatedAt         time.Time   `json:"created_at"`
	PlayersCount      int         `json:"players_count"`
	PicaPicaEnabled   bool        `json:"pica_pica_enabled"`
	PicaPicaEndPoints int         `json:"pica_pica_end_points"`
	StartingDealerID  uuid.UUID   `json:"starting_dealer_id"`
	Status            MatchStatus `json:"status"`

	// TeamIDs holds the two assigned teams in slot order.
	TeamIDs []uuid.UUID `json:"team_ids"`
}

// IsFinished reports whether the match status is terminal.
func (m Match) IsFinished() bool {
	return m.Status == MatchFinished
}
