package scoring

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/truco/internal/models"
)

// PicaPicaStartPoints is the leading score from which pica-pica rounds begin.
const PicaPicaStartPoints = 5

// PicaPicaPlayers is the only table size that plays pica-pica.
const PicaPicaPlayers = 6

// History is the part of a match's state the round format depends on.
type History struct {
	PlayersCount      int
	PicaPicaEnabled   bool
	PicaPicaEndPoints int

	// RoundCount is the number of rounds recorded so far.
	RoundCount int
	// LastRoundType is the type of the round with the highest round number.
	LastRoundType models.RoundType
	// Scores are the current team totals.
	Scores map[uuid.UUID]int
}

// NextRoundType decides the format of the next round. It is evaluated fresh
// before every round and never persisted.
//
// Pica-pica never follows pica-pica: once the leader reaches
// PicaPicaStartPoints the match alternates redondo / pica-pica until the
// leader reaches PicaPicaEndPoints, after which it stays redondo.
func NextRoundType(h History) models.RoundType {
	if h.PlayersCount != PicaPicaPlayers {
		return models.Redondo
	}
	if h.RoundCount == 0 {
		return models.Redondo
	}
	if h.LastRoundType == models.PicaPica {
		return models.Redondo
	}

	top := MaxScore(h.Scores)
	if top >= PicaPicaStartPoints && top < h.PicaPicaEndPoints && h.PicaPicaEnabled {
		return models.PicaPica
	}
	return models.Redondo
}
