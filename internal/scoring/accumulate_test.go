package scoring

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/truco/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(id uuid.UUID) *uuid.UUID { return &id }

func TestTeamScoresEmptyHistory(t *testing.T) {
	teams := []models.Team{{ID: uuid.New()}, {ID: uuid.New()}}
	scores := TeamScores(teams, nil, nil)
	require.Len(t, scores, 2)
	for _, team := range teams {
		assert.Equal(t, 0, scores[team.ID])
	}
}

func TestTeamScoresMixedFormats(t *testing.T) {
	p := make([]uuid.UUID, 6)
	for i := range p {
		p[i] = uuid.New()
	}
	a := models.Team{ID: uuid.New(), MemberIDs: []uuid.UUID{p[0], p[2], p[4]}}
	b := models.Team{ID: uuid.New(), MemberIDs: []uuid.UUID{p[1], p[3], p[5]}}
	outsider := uuid.New()

	redondo := []models.RedondoScore{
		{TrucoWinnerTeamID: ptr(a.ID), TrucoPoints: 2, EnvidoWinnerTeamID: ptr(b.ID), EnvidoPoints: 4},
		{TrucoWinnerTeamID: ptr(a.ID), TrucoPoints: 1, EnvidoWinnerTeamID: ptr(a.ID), EnvidoPoints: 2},
		{EnvidoWinnerTeamID: ptr(b.ID), EnvidoPoints: 1},
		{TrucoWinnerTeamID: ptr(uuid.New()), TrucoPoints: 3},
	}
	picaPica := []models.PicaPicaScore{
		{SubRound: 1, TrucoWinnerID: ptr(p[1]), TrucoPoints: 3, EnvidoWinnerID: ptr(p[4]), EnvidoPoints: 6},
		{SubRound: 2, TrucoWinnerID: ptr(p[2]), TrucoPoints: 1},
		{SubRound: 3, TrucoWinnerID: ptr(outsider), TrucoPoints: 4},
	}

	scores := TeamScores([]models.Team{a, b}, redondo, picaPica)
	assert.Equal(t, 2+1+2+6+1, scores[a.ID])
	assert.Equal(t, 4+1+3, scores[b.ID])
	assert.Len(t, scores, 2)

	again := TeamScores([]models.Team{a, b}, redondo, picaPica)
	assert.Equal(t, scores, again, "recomputing without new rows is idempotent")
}

func TestTeamScoresOnlyPicaPica(t *testing.T) {
	x, y := uuid.New(), uuid.New()
	a := models.Team{ID: uuid.New(), MemberIDs: []uuid.UUID{x}}
	b := models.Team{ID: uuid.New(), MemberIDs: []uuid.UUID{y}}
	scores := TeamScores([]models.Team{a, b}, nil, []models.PicaPicaScore{
		{SubRound: 1, TrucoWinnerID: ptr(y), TrucoPoints: 2},
	})
	assert.Equal(t, 0, scores[a.ID])
	assert.Equal(t, 2, scores[b.ID])
}

func TestIsFinishedAndWinner(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	order := []uuid.UUID{a, b}

	finished := map[uuid.UUID]int{a: 30, b: 22}
	assert.True(t, IsFinished(finished))
	w, ok := Winner(finished, order)
	require.True(t, ok)
	assert.Equal(t, a, w)

	open := map[uuid.UUID]int{a: 29, b: 29}
	assert.False(t, IsFinished(open))
	_, ok = Winner(open, order)
	assert.False(t, ok)

	both := map[uuid.UUID]int{a: 31, b: 34}
	w, ok = Winner(both, order)
	require.True(t, ok)
	assert.Equal(t, b, w)
}
