package models

import "github.com/google/uuid"

// SeatedPlayer is a player's seat at the virtual table of one match.
// Positions run 0..players_count-1 and alternate between the two teams.
type SeatedPlayer struct {
	PlayerID uuid.UUID `json:"player_id"`
	Position int       `json:"position"`
	Nickname string    `json:"nickname"`
}
