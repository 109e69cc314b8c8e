// internal/database/store_test.go
package database_test

import (
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/truco/internal/database"
	"github.com/jason-s-yu/truco/internal/models"
	"github.com/jason-s-yu/truco/internal/scoring"
	"github.com/jason-s-yu/truco/internal/truco"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newStore connects to the database named by TRUCO_TEST_DATABASE_URL and
// migrates it. The tests only add rows with fresh ids and nicknames.
func newStore(t *testing.T) *database.Store {
	t.Helper()
	url := os.Getenv("TRUCO_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TRUCO_TEST_DATABASE_URL not set")
	}
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	pool, err := database.ConnectDB(context.Background(), url, logger)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, database.Migrate(pool))
	return database.NewStore(pool)
}

func nick(name string) string {
	return name + "-" + uuid.NewString()[:8]
}

func TestUsersAndTeams(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	ana := models.User{Nickname: nick("Ana")}
	require.NoError(t, s.CreateUser(ctx, &ana))
	dup := models.User{Nickname: ana.Nickname}
	assert.ErrorIs(t, s.CreateUser(ctx, &dup), database.ErrDuplicate)

	beto := models.User{Nickname: nick("Beto")}
	require.NoError(t, s.CreateUser(ctx, &beto))

	users, err := s.GetUsers(ctx, []uuid.UUID{ana.ID, beto.ID})
	require.NoError(t, err)
	assert.Len(t, users, 2)

	key, _ := scoring.MemberKey([]uuid.UUID{beto.ID, ana.ID})
	team := models.Team{Name: "Nosotros", MemberIDs: []uuid.UUID{ana.ID, beto.ID}}
	created, err := s.FindOrCreateTeam(ctx, key, &team)
	require.NoError(t, err)
	assert.True(t, created)

	again := models.Team{Name: "Otro", MemberIDs: []uuid.UUID{ana.ID, beto.ID}}
	created, err = s.FindOrCreateTeam(ctx, key, &again)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, team.ID, again.ID)
	assert.Equal(t, "Nosotros", again.Name)

	teams, err := s.GetTeams(ctx, []uuid.UUID{team.ID, uuid.New()})
	require.NoError(t, err)
	require.Len(t, teams, 1)
	assert.Equal(t, team.ID, teams[0].ID)
	assert.Equal(t, []uuid.UUID{ana.ID, beto.ID}, teams[0].MemberIDs)
}

func TestMatchThroughEngine(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	e := truco.NewEngine(s, logger)

	ana, err := e.AddUser(ctx, nick("Ana"))
	require.NoError(t, err)
	beto, err := e.AddUser(ctx, nick("Beto"))
	require.NoError(t, err)

	m, err := e.NewMatch(ctx, truco.NewMatchParams{
		Team1Players:   []uuid.UUID{ana.ID},
		Team2Players:   []uuid.UUID{beto.ID},
		StartingDealer: ana.ID,
	})
	require.NoError(t, err)
	nosotros, ellos := m.TeamIDs[0], m.TeamIDs[1]

	got, err := s.GetMatch(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.TeamIDs, got.TeamIDs)
	assert.Equal(t, models.MatchInProgress, got.Status)

	res, err := e.RecordRedondoRound(ctx, m.ID, truco.RedondoInput{
		TrucoWinnerTeamID:  &nosotros,
		TrucoPoints:        3,
		EnvidoWinnerTeamID: &ellos,
		EnvidoPoints:       2,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Round.RoundNumber)
	assert.Equal(t, 3, res.Scores[nosotros])

	second, err := e.AddRound(ctx, m.ID, models.Redondo, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, second.RoundNumber)

	// A stale round number is refused rather than renumbered.
	stale := models.Round{MatchID: m.ID, RoundNumber: 2, RoundType: models.Redondo}
	assert.ErrorIs(t, s.InsertRound(ctx, &stale, nil, nil), database.ErrConflict)

	require.NoError(t, e.DeleteRound(ctx, res.Round.ID))
	rounds, err := s.MatchRounds(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, rounds, 1)
	assert.Equal(t, 2, rounds[0].RoundNumber)

	n, err := s.CountMatchesSince(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 1)

	require.NoError(t, s.InsertEvents(ctx, []models.ScoreEvent{{
		MatchID:   m.ID,
		Kind:      models.EventRoundRecorded,
		RoundID:   &second.ID,
		Timestamp: time.Now().UnixMilli(),
	}}))
	var events int
	require.NoError(t, s.Pool().QueryRow(ctx,
		`SELECT COUNT(*) FROM match_events WHERE match_id = $1`, m.ID).Scan(&events))
	assert.Equal(t, 1, events)

	require.NoError(t, e.DeleteMatch(ctx, m.ID))
	_, err = s.GetMatch(ctx, m.ID)
	assert.ErrorIs(t, err, database.ErrNotFound)
	assert.ErrorIs(t, s.DeleteMatch(ctx, m.ID), database.ErrNotFound)
}
