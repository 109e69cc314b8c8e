package scoring

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/truco/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestFormatRoundSummaryRedondo(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	rec := models.RoundRecord{
		Round:      models.Round{RoundNumber: 3, RoundType: models.Redondo},
		DealerName: "Ana",
		Redondo: []models.RedondoScore{{
			TrucoWinnerTeamID: &a, TrucoPoints: 2, TrucoWinnerName: "Los Pibes",
			EnvidoWinnerTeamID: &b, EnvidoPoints: 4, EnvidoWinnerName: "Las Chicas",
		}},
	}
	assert.Equal(t, "Ronda 3 - Redondo (Pie: Ana)\n  Los Pibes: Truco 2\n  Las Chicas: Envido 4", FormatRoundSummary(rec))

	rec.Redondo[0].EnvidoWinnerTeamID = &a
	rec.Redondo[0].EnvidoWinnerName = "Los Pibes"
	assert.Equal(t, "Ronda 3 - Redondo (Pie: Ana)\n  Los Pibes: Truco 2, Envido 4", FormatRoundSummary(rec))
}

func TestFormatRoundSummaryPicaPica(t *testing.T) {
	x, y, z := uuid.New(), uuid.New(), uuid.New()
	rec := models.RoundRecord{
		Round:      models.Round{RoundNumber: 4, RoundType: models.PicaPica},
		DealerName: "Beto",
		PicaPica: []models.PicaPicaScore{
			{SubRound: 2, TrucoWinnerID: &z, TrucoPoints: 1, TrucoWinnerName: "Zoe"},
			{SubRound: 1, TrucoWinnerID: &x, TrucoPoints: 2, TrucoWinnerName: "Xime", EnvidoWinnerID: &y, EnvidoPoints: 6, EnvidoWinnerName: "Yago"},
		},
	}
	assert.Equal(t,
		"Ronda 4 - Pica-Pica (Pie: Beto)\n  Sub-ronda 1: Xime 2, Yago 6\n  Sub-ronda 2: Zoe 1",
		FormatRoundSummary(rec))
}
