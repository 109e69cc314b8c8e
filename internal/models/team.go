package models

import (
	"time"

	"github.com/google/uuid"
)

// Team is identified by its member set; the name is display only.
type Team struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	MemberIDs []uuid.UUID `json:"member_ids"`
	CreatedAt time.Time   `json:"created_at"`
}

// HasMember reports whether playerID belongs to the team.
func (t Team) HasMember(playerID uuid.UUID) bool {
	for _, id := range t.MemberIDs {
		if id == playerID {
			return true
		}
	}
	return false
}

// TeamWithPlayers is a match team plus its members' nicknames, in member order.
type TeamWithPlayers struct {
	Team
	PlayerNames []string `json:"player_names"`
}
