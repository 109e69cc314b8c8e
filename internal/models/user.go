package models

import "github.com/google/uuid"

// User is a registered player. Nicknames are unique and never change.
type User struct {
	ID       uuid.UUID `json:"id"`
	Nickname string    `json:"nickname"`
}
