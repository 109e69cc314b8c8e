// internal/models/round.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// RoundType selects how a round is scored.
type RoundType string

const (
	// Redondo rounds are scored team against team.
	Redondo RoundType = "redondo"
	// PicaPica rounds split a 6-player table into three 1v1 sub-rounds.
	PicaPica RoundType = "pica-pica"
)

// Valid reports whether t is a known round type.
func (t RoundType) Valid() bool {
	return t == Redondo || t == PicaPica
}

// Round is one hand of a match. RoundNumber is assigned once and never reused
// for a surviving round; deleting a round leaves a gap.
type Round struct {
	ID             uuid.UUID `json:"id"`
	MatchID        uuid.UUID `json:"match_id"`
	RoundNumber    int       `json:"round_number"`
	RoundType      RoundType `json:"round_type"`
	DealerPosition int       `json:"dealer_position"`
	CreatedAt      time.Time `json:"created_at"`
}

// RedondoScore records the team-level outcomes of a redondo round.
// A nil winner means the contest was not played; its points are then zero.
type RedondoScore struct {
	ID                 uuid.UUID  `json:"id"`
	RoundID            uuid.UUID  `json:"round_id"`
	TrucoWinnerTeamID  *uuid.UUID `json:"truco_winner_team_id"`
	TrucoPoints        int        `json:"truco_points"`
	EnvidoWinnerTeamID *uuid.UUID `json:"envido_winner_team_id"`
	EnvidoPoints       int        `json:"envido_points"`

	// resolved for display by the history query
	TrucoWinnerName  string `json:"truco_winner_name,omitempty"`
	EnvidoWinnerName string `json:"envido_winner_name,omitempty"`
}

// PicaPicaScore records one sub-round of a pica-pica round. Winners are players.
type PicaPicaScore struct {
	ID             uuid.UUID  `json:"id"`
	RoundID        uuid.UUID  `json:"round_id"`
	SubRound       int        `json:"sub_round"`
	TrucoWinnerID  *uuid.UUID `json:"truco_winner_id"`
	TrucoPoints    int        `json:"truco_points"`
	EnvidoWinnerID *uuid.UUID `json:"envido_winner_id"`
	EnvidoPoints   int        `json:"envido_points"`

	TrucoWinnerName  string `json:"truco_winner_name,omitempty"`
	EnvidoWinnerName string `json:"envido_winner_name,omitempty"`
}

// RoundRecord is a round with its scores, as shown in the match history.
type RoundRecord struct {
	Round
	DealerName string          `json:"dealer_name"`
	Redondo    []RedondoScore  `json:"redondo_scores,omitempty"`
	PicaPica   []PicaPicaScore `json:"pica_pica_scores,omitempty"`
}
