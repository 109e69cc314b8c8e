package scoring

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/truco/internal/models"
)

const (
	// FaltaFloorBelow is the leading score under which a redondo falta envido
	// is worth the whole match.
	FaltaFloorBelow = 15
	// PicaPicaFalta is the fixed falta envido stake in pica-pica sub-rounds.
	PicaPicaFalta = 6
)

// FaltaEnvidoValue returns the points a falta envido is worth right now.
//
// In redondo rounds it is the leader's distance to WinThreshold, applied to
// whichever team wins the envido, except that while both teams are under 15
// it awards the full 30. In pica-pica it is always 6.
func FaltaEnvidoValue(scores map[uuid.UUID]int, roundType models.RoundType) int {
	if roundType == models.PicaPica {
		return PicaPicaFalta
	}
	top := MaxScore(scores)
	if top < FaltaFloorBelow {
		return models.WinThreshold
	}
	return models.WinThreshold - top
}
