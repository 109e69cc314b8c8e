package truco

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/truco/internal/models"
	"github.com/jason-s-yu/truco/internal/truco/trucotest"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, time.March, 7, 18, 30, 0, 0, time.Local)

type fixture struct {
	engine *Engine
	store  *trucotest.Store
	events *trucotest.Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := trucotest.NewStore()
	store.Now = func() time.Time { return testNow }
	events := &trucotest.Recorder{}
	e := NewEngine(store, logger,
		WithNotifier(events),
		WithClock(func() time.Time { return testNow }),
		WithPicker(func(int) int { return 0 }),
	)
	return &fixture{engine: e, store: store, events: events}
}

func (f *fixture) players(t *testing.T, names ...string) []uuid.UUID {
	t.Helper()
	ids := make([]uuid.UUID, len(names))
	for i, n := range names {
		u, err := f.engine.AddUser(context.Background(), n)
		require.NoError(t, err)
		ids[i] = u.ID
	}
	return ids
}

// match creates a match of the given size with the first half of the players
// on team 1 and the starting dealer at seat 0.
func (f *fixture) match(t *testing.T, size, endPoints int) (models.Match, []uuid.UUID) {
	t.Helper()
	names := []string{"Ana", "Beto", "Caro", "Dani", "Eli", "Fede"}[:size]
	ids := f.players(t, names...)
	m, err := f.engine.NewMatch(context.Background(), NewMatchParams{
		Team1Name:         "Nosotros",
		Team1Players:      ids[:size/2],
		Team2Name:         "Ellos",
		Team2Players:      ids[size/2:],
		PicaPicaEndPoints: endPoints,
		StartingDealer:    ids[0],
	})
	require.NoError(t, err)
	return m, ids
}

func ptr(id uuid.UUID) *uuid.UUID { return &id }

func TestAddUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.engine.AddUser(ctx, "  Ana ")
	require.NoError(t, err)
	assert.Equal(t, "Ana", u.Nickname)
	assert.NotEqual(t, uuid.Nil, u.ID)

	_, err = f.engine.AddUser(ctx, "Ana")
	require.ErrorIs(t, err, ErrDuplicateNickname)

	_, err = f.engine.AddUser(ctx, "   ")
	require.ErrorIs(t, err, ErrValidation)

	_, err = f.engine.AddUser(ctx, "Beto")
	require.NoError(t, err)
	users, err := f.engine.GetUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "Ana", users[0].Nickname)
	assert.Equal(t, "Beto", users[1].Nickname)
}

func TestResolveTeamIsCanonical(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ids := f.players(t, "Ana", "Beto")

	first, err := f.engine.ResolveTeam(ctx, "", ids)
	require.NoError(t, err)
	assert.Equal(t, "Ana y Beto", first.Name)

	again, err := f.engine.ResolveTeam(ctx, "Otro nombre", ids)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, "Ana y Beto", again.Name)

	reordered, err := f.engine.ResolveTeam(ctx, "", []uuid.UUID{ids[1], ids[0], ids[1]})
	require.NoError(t, err)
	assert.Equal(t, first.ID, reordered.ID)

	teams, err := f.engine.ListTeams(ctx)
	require.NoError(t, err)
	require.Len(t, teams, 1)
	assert.ElementsMatch(t, []string{"Ana", "Beto"}, teams[0].PlayerNames)
}

func TestResolveTeamRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.ResolveTeam(ctx, "x", nil)
	require.ErrorIs(t, err, ErrValidation)

	_, err = f.engine.ResolveTeam(ctx, "x", []uuid.UUID{uuid.New()})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCreateMatchValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ids := f.players(t, "Ana", "Beto", "Caro", "Dani")
	t1, err := f.engine.ResolveTeam(ctx, "", ids[:2])
	require.NoError(t, err)
	t2, err := f.engine.ResolveTeam(ctx, "", ids[2:])
	require.NoError(t, err)

	valid := CreateMatchParams{
		PlayersCount:   4,
		Seats:          []uuid.UUID{ids[0], ids[2], ids[1], ids[3]},
		StartingDealer: ids[0],
		TeamIDs:        []uuid.UUID{t1.ID, t2.ID},
	}

	cases := []struct {
		name   string
		mutate func(p *CreateMatchParams)
		want   error
	}{
		{"player count", func(p *CreateMatchParams) { p.PlayersCount = 3 }, ErrValidation},
		{"seat count", func(p *CreateMatchParams) { p.Seats = p.Seats[:3] }, ErrValidation},
		{"seated twice", func(p *CreateMatchParams) { p.Seats = []uuid.UUID{ids[0], ids[2], ids[0], ids[3]} }, ErrValidation},
		{"dealer not seated", func(p *CreateMatchParams) { p.StartingDealer = uuid.New() }, ErrValidation},
		{"one team", func(p *CreateMatchParams) { p.TeamIDs = []uuid.UUID{t1.ID, t1.ID} }, ErrIntegrity},
		{"unknown team", func(p *CreateMatchParams) { p.TeamIDs = []uuid.UUID{t1.ID, uuid.New()} }, ErrNotFound},
		{"teammates adjacent", func(p *CreateMatchParams) { p.Seats = []uuid.UUID{ids[0], ids[1], ids[2], ids[3]} }, ErrIntegrity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := valid
			p.Seats = append([]uuid.UUID(nil), valid.Seats...)
			tc.mutate(&p)
			_, err := f.engine.CreateMatch(ctx, p)
			require.ErrorIs(t, err, tc.want)
		})
	}

	m, err := f.engine.CreateMatch(ctx, valid)
	require.NoError(t, err)
	assert.Equal(t, "0703-ACBD-01", m.Name)
	assert.False(t, m.PicaPicaEnabled)
	assert.Equal(t, 0, m.PicaPicaEndPoints)
	assert.Equal(t, models.MatchInProgress, m.Status)

	second, err := f.engine.CreateMatch(ctx, valid)
	require.NoError(t, err)
	assert.Equal(t, "0703-ACBD-02", second.Name)
}

func TestCreateMatchSixPlayersNeedsEndPoints(t *testing.T) {
	f := newFixture(t)
	ids := f.players(t, "Ana", "Beto", "Caro", "Dani", "Eli", "Fede")
	_, err := f.engine.NewMatch(context.Background(), NewMatchParams{
		Team1Players:      ids[:3],
		Team2Players:      ids[3:],
		PicaPicaEndPoints: 15,
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestNewMatchSeatsTeamsAlternately(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m, ids := f.match(t, 6, 20)

	assert.True(t, m.PicaPicaEnabled)
	assert.Equal(t, 20, m.PicaPicaEndPoints)

	players, err := f.engine.GetMatchPlayers(ctx, m.ID)
	require.NoError(t, err)
	want := []uuid.UUID{ids[0], ids[3], ids[1], ids[4], ids[2], ids[5]}
	for i, p := range players {
		assert.Equal(t, i, p.Position)
		assert.Equal(t, want[i], p.PlayerID)
	}

	teams, err := f.engine.GetMatchTeamsWithPlayers(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, teams, 2)
	assert.Equal(t, "Nosotros", teams[0].Name)
	assert.ElementsMatch(t, []string{"Ana", "Beto", "Caro"}, teams[0].PlayerNames)
	assert.Equal(t, "Ellos", teams[1].Name)
}

func TestNewMatchPicksDealerWhenMissing(t *testing.T) {
	f := newFixture(t)
	f.engine.pick = func(n int) int { return n - 1 }
	ids := f.players(t, "Ana", "Beto", "Caro", "Dani")

	m, err := f.engine.NewMatch(context.Background(), NewMatchParams{
		Team1Players: ids[:2],
		Team2Players: ids[2:],
	})
	require.NoError(t, err)
	// seats are Ana, Caro, Beto, Dani
	assert.Equal(t, ids[3], m.StartingDealerID)
}

func TestNewMatchRejectsUnevenTeams(t *testing.T) {
	f := newFixture(t)
	ids := f.players(t, "Ana", "Beto", "Caro")
	_, err := f.engine.NewMatch(context.Background(), NewMatchParams{
		Team1Players: ids[:2],
		Team2Players: ids[2:],
	})
	require.ErrorIs(t, err, ErrValidation)

	_, err = f.engine.NewMatch(context.Background(), NewMatchParams{
		Team1Players: ids[:1],
		Team2Players: ids[:1],
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestFreshMatchStandings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m, _ := f.match(t, 4, 0)

	scores, err := f.engine.GetTeamScores(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]int{m.TeamIDs[0]: 0, m.TeamIDs[1]: 0}, scores)

	again, err := f.engine.GetTeamScores(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, scores, again)

	finished, err := f.engine.IsMatchFinished(ctx, m.ID)
	require.NoError(t, err)
	assert.False(t, finished)

	rt, err := f.engine.DetermineRoundType(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Redondo, rt)

	_, err = f.engine.GetTeamScores(ctx, uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRecordRedondoRoundRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m, _ := f.match(t, 4, 0)
	t1, t2 := m.TeamIDs[0], m.TeamIDs[1]

	res, err := f.engine.RecordRedondoRound(ctx, m.ID, RedondoInput{
		TrucoWinnerTeamID:  ptr(t1),
		TrucoPoints:        2,
		EnvidoWinnerTeamID: ptr(t2),
		EnvidoPoints:       4,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Round.RoundNumber)
	assert.Equal(t, 0, res.Round.DealerPosition)
	assert.Equal(t, map[uuid.UUID]int{t1: 2, t2: 4}, res.Scores)
	assert.False(t, res.HasWinner)

	rounds, err := f.engine.GetMatchRounds(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, rounds, 1)
	require.Len(t, rounds[0].Redondo, 1)
	sc := rounds[0].Redondo[0]
	assert.Equal(t, t1, *sc.TrucoWinnerTeamID)
	assert.Equal(t, 2, sc.TrucoPoints)
	assert.Equal(t, t2, *sc.EnvidoWinnerTeamID)
	assert.Equal(t, 4, sc.EnvidoPoints)
	assert.Equal(t, "Ana", rounds[0].DealerName)

	assert.Equal(t,
		"Ronda 1 - Redondo (Pie: Ana)\n  Nosotros: Truco 2\n  Ellos: Envido 4",
		f.engine.FormatRoundSummary(rounds[0]))

	plan, err := f.engine.NextRound(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, plan.RoundNumber)
	assert.Equal(t, 1, plan.DealerPosition)
	assert.Equal(t, "Caro", plan.Dealer.Nickname)

	last := f.events.Events()[len(f.events.Events())-1]
	assert.Equal(t, models.EventRoundRecorded, last.Kind)
	assert.Equal(t, 1, last.RoundNumber)
	assert.Equal(t, 4, last.Scores[t2])
}

func TestRecordRedondoRoundValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m, _ := f.match(t, 2, 0)

	_, err := f.engine.RecordRedondoRound(ctx, m.ID, RedondoInput{})
	require.ErrorIs(t, err, ErrValidation)

	_, err = f.engine.RecordRedondoRound(ctx, m.ID, RedondoInput{TrucoWinnerTeamID: ptr(uuid.New()), TrucoPoints: 1})
	require.ErrorIs(t, err, ErrValidation)

	_, err = f.engine.RecordRedondoRound(ctx, m.ID, RedondoInput{TrucoWinnerTeamID: ptr(m.TeamIDs[0]), TrucoPoints: 5})
	require.ErrorIs(t, err, ErrValidation)

	_, err = f.engine.RecordPicaPicaRound(ctx, m.ID, nil)
	require.ErrorIs(t, err, ErrValidation)

	rounds, err := f.engine.GetMatchRounds(ctx, m.ID)
	require.NoError(t, err)
	assert.Empty(t, rounds)
}

func TestFaltaEnvidoAndFinish(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m, _ := f.match(t, 4, 0)
	t1 := m.TeamIDs[0]

	falta, err := f.engine.FaltaEnvido(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, falta)

	_, err = f.engine.FinishMatch(ctx, m.ID)
	require.ErrorIs(t, err, ErrValidation)

	for _, truco := range []int{4, 2} {
		_, err := f.engine.RecordRedondoRound(ctx, m.ID, RedondoInput{
			TrucoWinnerTeamID:  ptr(t1),
			TrucoPoints:        truco,
			EnvidoWinnerTeamID: ptr(t1),
			EnvidoPoints:       7,
		})
		require.NoError(t, err)
	}
	falta, err = f.engine.FaltaEnvido(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, falta)

	res, err := f.engine.RecordRedondoRound(ctx, m.ID, RedondoInput{
		EnvidoWinnerTeamID: ptr(t1),
		FaltaEnvido:        true,
	})
	require.NoError(t, err)
	assert.Equal(t, 30, res.Scores[t1])
	assert.True(t, res.HasWinner)
	require.NotNil(t, res.Winner)
	assert.Equal(t, t1, *res.Winner)

	finished, err := f.engine.IsMatchFinished(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, finished)

	_, err = f.engine.RecordRedondoRound(ctx, m.ID, RedondoInput{TrucoWinnerTeamID: ptr(t1), TrucoPoints: 1})
	require.ErrorIs(t, err, ErrMatchFinished)

	done, err := f.engine.FinishMatch(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchFinished, done.Status)

	again, err := f.engine.FinishMatch(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchFinished, again.Status)

	rounds, err := f.engine.GetMatchRounds(ctx, m.ID)
	require.NoError(t, err)
	require.ErrorIs(t, f.engine.DeleteRound(ctx, rounds[0].ID), ErrMatchFinished)

	active, err := f.engine.ListMatches(ctx, models.MatchInProgress)
	require.NoError(t, err)
	assert.Empty(t, active)
	all, err := f.engine.ListMatches(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestFaltaEnvidoBelowFifteenWinsOutright(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m, _ := f.match(t, 2, 0)
	t2 := m.TeamIDs[1]

	res, err := f.engine.RecordRedondoRound(ctx, m.ID, RedondoInput{
		TrucoWinnerTeamID:  ptr(m.TeamIDs[0]),
		TrucoPoints:        1,
		EnvidoWinnerTeamID: ptr(t2),
		FaltaEnvido:        true,
	})
	require.NoError(t, err)
	assert.Equal(t, 30, res.Scores[t2])
	assert.True(t, res.HasWinner)
}

func TestSixPlayerRoundSequence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m, ids := f.match(t, 6, 20)
	t1, t2 := m.TeamIDs[0], m.TeamIDs[1]

	_, err := f.engine.RecordPicaPicaRound(ctx, m.ID, nil)
	require.ErrorIs(t, err, ErrValidation, "first round is always redondo")

	_, err = f.engine.RecordRedondoRound(ctx, m.ID, RedondoInput{
		TrucoWinnerTeamID:  ptr(t1),
		TrucoPoints:        2,
		EnvidoWinnerTeamID: ptr(t1),
		EnvidoPoints:       4,
	})
	require.NoError(t, err)

	plan, err := f.engine.NextRound(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PicaPica, plan.RoundType)
	assert.Equal(t, 6, plan.FaltaEnvido)
	assert.Equal(t, 1, plan.DealerPosition)
	// seats: 0 Ana, 1 Dani, 2 Beto, 3 Eli, 4 Caro, 5 Fede
	require.Len(t, plan.Pairings, 3)
	assert.Equal(t, ids[1], plan.Pairings[0].Player1.PlayerID)
	assert.Equal(t, ids[5], plan.Pairings[0].Player2.PlayerID)
	assert.Equal(t, ids[4], plan.Pairings[1].Player1.PlayerID)
	assert.Equal(t, ids[0], plan.Pairings[1].Player2.PlayerID)
	assert.Equal(t, ids[2], plan.Pairings[2].Player1.PlayerID)
	assert.Equal(t, ids[3], plan.Pairings[2].Player2.PlayerID)

	_, err = f.engine.RecordRedondoRound(ctx, m.ID, RedondoInput{TrucoWinnerTeamID: ptr(t1), TrucoPoints: 1})
	require.ErrorIs(t, err, ErrValidation, "round 2 must be pica-pica")

	_, err = f.engine.RecordPicaPicaRound(ctx, m.ID, []PicaPicaInput{
		{SubRound: 1, TrucoWinnerID: ptr(ids[1]), TrucoPoints: 1},
		{SubRound: 2, TrucoWinnerID: ptr(ids[1]), TrucoPoints: 1},
		{SubRound: 3, TrucoWinnerID: ptr(ids[2]), TrucoPoints: 1},
	})
	require.ErrorIs(t, err, ErrValidation, "winner outside the pairing")

	_, err = f.engine.RecordPicaPicaRound(ctx, m.ID, []PicaPicaInput{
		{SubRound: 1, TrucoWinnerID: ptr(ids[1]), TrucoPoints: 1},
		{SubRound: 2, EnvidoWinnerID: ptr(ids[4]), EnvidoPoints: 2},
		{SubRound: 3, TrucoWinnerID: ptr(ids[2]), TrucoPoints: 1},
	})
	require.ErrorIs(t, err, ErrValidation, "missing truco winner")

	_, err = f.engine.RecordPicaPicaRound(ctx, m.ID, []PicaPicaInput{
		{SubRound: 1, TrucoWinnerID: ptr(ids[1]), TrucoPoints: 1},
	})
	require.ErrorIs(t, err, ErrValidation, "too few sub-rounds")

	res, err := f.engine.RecordPicaPicaRound(ctx, m.ID, []PicaPicaInput{
		{SubRound: 1, TrucoWinnerID: ptr(ids[1]), TrucoPoints: 1},
		{SubRound: 2, TrucoWinnerID: ptr(ids[4]), TrucoPoints: 2, EnvidoWinnerID: ptr(ids[4]), FaltaEnvido: true},
		{SubRound: 3, TrucoWinnerID: ptr(ids[2]), TrucoPoints: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Round.RoundNumber)
	assert.Equal(t, models.PicaPica, res.Round.RoundType)
	assert.Equal(t, map[uuid.UUID]int{t1: 8, t2: 8}, res.Scores)

	rt, err := f.engine.DetermineRoundType(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Redondo, rt, "pica-pica never repeats")

	rounds, err := f.engine.GetMatchRounds(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, rounds, 2)
	assert.Equal(t, 2, rounds[0].RoundNumber)
	assert.Equal(t, "Dani", rounds[0].DealerName)
	require.Len(t, rounds[0].PicaPica, 3)
	assert.Equal(t, 6, rounds[0].PicaPica[1].EnvidoPoints)
	assert.Equal(t, "Eli", rounds[0].PicaPica[1].TrucoWinnerName)

	require.ErrorIs(t, editErr(ctx, f, rounds[0].ID), ErrValidation)
}

func editErr(ctx context.Context, f *fixture, roundID uuid.UUID) error {
	_, err := f.engine.EditRedondoRound(ctx, roundID, RedondoInput{})
	return err
}

func TestEditRedondoRound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m, _ := f.match(t, 4, 0)
	t1, t2 := m.TeamIDs[0], m.TeamIDs[1]

	first, err := f.engine.RecordRedondoRound(ctx, m.ID, RedondoInput{TrucoWinnerTeamID: ptr(t1), TrucoPoints: 4, EnvidoWinnerTeamID: ptr(t1), EnvidoPoints: 7})
	require.NoError(t, err)
	second, err := f.engine.RecordRedondoRound(ctx, m.ID, RedondoInput{TrucoWinnerTeamID: ptr(t1), TrucoPoints: 4, EnvidoWinnerTeamID: ptr(t1), EnvidoPoints: 7})
	require.NoError(t, err)
	assert.Equal(t, 22, second.Scores[t1])
	third, err := f.engine.RecordRedondoRound(ctx, m.ID, RedondoInput{TrucoWinnerTeamID: ptr(t1), TrucoPoints: 4})
	require.NoError(t, err)
	assert.Equal(t, 26, third.Scores[t1])

	// falta on the first round is valued without the first round itself:
	// t1 stands on 15 there, so the falta is worth 30-15.
	sc, err := f.engine.EditRedondoRound(ctx, first.Round.ID, RedondoInput{
		TrucoWinnerTeamID:  ptr(t2),
		TrucoPoints:        3,
		EnvidoWinnerTeamID: ptr(t2),
		FaltaEnvido:        true,
	})
	require.NoError(t, err)
	assert.Equal(t, 15, sc.EnvidoPoints)

	scores, err := f.engine.GetTeamScores(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]int{t1: 15, t2: 18}, scores)
	assert.Equal(t, 1, f.store.ScoreRows(first.Round.ID))

	// Without the second round the leader is t2 on 18.
	sc, err = f.engine.EditRedondoRound(ctx, second.Round.ID, RedondoInput{
		EnvidoWinnerTeamID: ptr(t2),
		FaltaEnvido:        true,
	})
	require.NoError(t, err)
	assert.Equal(t, 12, sc.EnvidoPoints)

	scores, err = f.engine.GetTeamScores(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]int{t1: 4, t2: 30}, scores)

	_, err = f.engine.EditRedondoRound(ctx, first.Round.ID, RedondoInput{})
	require.ErrorIs(t, err, ErrValidation)

	_, err = f.engine.EditRedondoRound(ctx, uuid.New(), RedondoInput{TrucoWinnerTeamID: ptr(t1), TrucoPoints: 1})
	require.ErrorIs(t, err, ErrNotFound)

	assert.Contains(t, f.events.Kinds(), models.EventRoundEdited)
}

// teamCountingStore counts full team listings.
type teamCountingStore struct {
	*trucotest.Store
	listTeams int
}

func (s *teamCountingStore) ListTeams(ctx context.Context) ([]models.Team, error) {
	s.listTeams++
	return s.Store.ListTeams(ctx)
}

func TestCreateMatchLooksUpOnlyItsTeams(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ids := f.players(t, "Ana", "Beto")
	t1, err := f.engine.ResolveTeam(ctx, "", ids[:1])
	require.NoError(t, err)
	t2, err := f.engine.ResolveTeam(ctx, "", ids[1:])
	require.NoError(t, err)
	_, err = f.engine.ResolveTeam(ctx, "", ids)
	require.NoError(t, err)

	store := &teamCountingStore{Store: f.store}
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	e := NewEngine(store, logger, WithClock(func() time.Time { return testNow }))

	m, err := e.CreateMatch(ctx, CreateMatchParams{
		PlayersCount:   2,
		Seats:          []uuid.UUID{ids[1], ids[0]},
		StartingDealer: ids[1],
		TeamIDs:        []uuid.UUID{t2.ID, t1.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{t2.ID, t1.ID}, m.TeamIDs)
	assert.Zero(t, store.listTeams)
}

func TestEditRedondoRoundFaltaBelowFifteen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m, _ := f.match(t, 4, 0)
	t1, t2 := m.TeamIDs[0], m.TeamIDs[1]

	won := RedondoInput{TrucoWinnerTeamID: ptr(t1), TrucoPoints: 4, EnvidoWinnerTeamID: ptr(t1), EnvidoPoints: 7}
	first, err := f.engine.RecordRedondoRound(ctx, m.ID, won)
	require.NoError(t, err)
	_, err = f.engine.RecordRedondoRound(ctx, m.ID, won)
	require.NoError(t, err)

	// t1 has 11 once the edited round is left out.
	sc, err := f.engine.EditRedondoRound(ctx, first.Round.ID, RedondoInput{
		TrucoWinnerTeamID:  ptr(t2),
		TrucoPoints:        3,
		EnvidoWinnerTeamID: ptr(t2),
		FaltaEnvido:        true,
	})
	require.NoError(t, err)
	assert.Equal(t, 30, sc.EnvidoPoints)

	scores, err := f.engine.GetTeamScores(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]int{t1: 11, t2: 33}, scores)
}

func TestDeleteRoundKeepsNumbers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m, _ := f.match(t, 4, 0)
	t1 := m.TeamIDs[0]

	first, err := f.engine.RecordRedondoRound(ctx, m.ID, RedondoInput{TrucoWinnerTeamID: ptr(t1), TrucoPoints: 2})
	require.NoError(t, err)
	_, err = f.engine.RecordRedondoRound(ctx, m.ID, RedondoInput{TrucoWinnerTeamID: ptr(t1), TrucoPoints: 3})
	require.NoError(t, err)

	require.NoError(t, f.engine.DeleteRound(ctx, first.Round.ID))
	assert.Zero(t, f.store.ScoreRows(first.Round.ID))

	rounds, err := f.engine.GetMatchRounds(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, rounds, 1)
	assert.Equal(t, 2, rounds[0].RoundNumber)

	scores, err := f.engine.GetTeamScores(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, scores[t1])

	plan, err := f.engine.NextRound(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, plan.RoundNumber)
	assert.Equal(t, 2, plan.DealerPosition)

	require.ErrorIs(t, f.engine.DeleteRound(ctx, first.Round.ID), ErrNotFound)
}

func TestPrimitiveRoundOperations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m, ids := f.match(t, 6, 25)

	_, err := f.engine.AddRound(ctx, m.ID, "flor", 0)
	require.ErrorIs(t, err, ErrValidation)
	_, err = f.engine.AddRound(ctx, m.ID, models.Redondo, 6)
	require.ErrorIs(t, err, ErrValidation)

	r, err := f.engine.AddRound(ctx, m.ID, models.Redondo, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, r.RoundNumber)

	_, err = f.engine.AddRedondoScore(ctx, r.ID, RedondoInput{})
	require.ErrorIs(t, err, ErrValidation)
	_, err = f.engine.AddRedondoScore(ctx, r.ID, RedondoInput{TrucoWinnerTeamID: ptr(m.TeamIDs[1]), TrucoPoints: 3})
	require.NoError(t, err)
	_, err = f.engine.AddRedondoScore(ctx, r.ID, RedondoInput{TrucoWinnerTeamID: ptr(m.TeamIDs[1]), TrucoPoints: 3})
	require.ErrorIs(t, err, ErrValidation)

	pp, err := f.engine.AddRound(ctx, m.ID, models.PicaPica, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, pp.RoundNumber)

	_, err = f.engine.AddRedondoScore(ctx, pp.ID, RedondoInput{TrucoWinnerTeamID: ptr(m.TeamIDs[1]), TrucoPoints: 1})
	require.ErrorIs(t, err, ErrValidation)

	// dealt from seat 1, sub-round 1 pairs seat 2 (Beto) with seat 5 (Fede)
	_, err = f.engine.AddPicaPicaScore(ctx, pp.ID, PicaPicaInput{SubRound: 1, TrucoWinnerID: ptr(ids[5]), TrucoPoints: 2})
	require.NoError(t, err)
	_, err = f.engine.AddPicaPicaScore(ctx, pp.ID, PicaPicaInput{SubRound: 1, TrucoWinnerID: ptr(ids[1]), TrucoPoints: 1})
	require.ErrorIs(t, err, ErrValidation)
	_, err = f.engine.AddPicaPicaScore(ctx, pp.ID, PicaPicaInput{SubRound: 4, TrucoWinnerID: ptr(ids[1]), TrucoPoints: 1})
	require.ErrorIs(t, err, ErrValidation)
	_, err = f.engine.AddPicaPicaScore(ctx, r.ID, PicaPicaInput{SubRound: 1, TrucoWinnerID: ptr(ids[1]), TrucoPoints: 1})
	require.ErrorIs(t, err, ErrValidation)

	scores, err := f.engine.GetTeamScores(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]int{m.TeamIDs[0]: 0, m.TeamIDs[1]: 5}, scores)
}

func TestAddRoundPicaPicaNeedsSixPlayers(t *testing.T) {
	f := newFixture(t)
	m, _ := f.match(t, 4, 0)
	_, err := f.engine.AddRound(context.Background(), m.ID, models.PicaPica, 0)
	require.ErrorIs(t, err, ErrValidation)
}

func TestDeleteWorkflow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m, _ := f.match(t, 2, 0)
	_, err := f.engine.RecordRedondoRound(ctx, m.ID, RedondoInput{TrucoWinnerTeamID: ptr(m.TeamIDs[0]), TrucoPoints: 1})
	require.NoError(t, err)

	req, err := f.engine.RequestDelete(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.Name, req.MatchName)
	assert.Equal(t, 1, req.RoundCount)

	_, err = f.engine.GetMatchInfo(ctx, m.ID)
	require.NoError(t, err, "requesting a delete writes nothing")

	require.NoError(t, f.engine.ConfirmDelete(ctx, req))
	_, err = f.engine.GetMatchInfo(ctx, m.ID)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, models.EventMatchDeleted, f.events.Kinds()[len(f.events.Kinds())-1])

	require.ErrorIs(t, f.engine.ConfirmDelete(ctx, req), ErrNotFound)
	require.ErrorIs(t, f.engine.ConfirmDelete(ctx, DeleteRequest{}), ErrValidation)

	_, err = f.engine.RequestDelete(ctx, uuid.New())
	require.ErrorIs(t, err, ErrNotFound)

	teams, err := f.engine.ListTeams(ctx)
	require.NoError(t, err)
	assert.Len(t, teams, 2, "teams outlive their matches")
}

func TestNotifierFailureDoesNotFailAction(t *testing.T) {
	f := newFixture(t)
	f.events.Err = assert.AnError
	m, _ := f.match(t, 2, 0)

	_, err := f.engine.RecordRedondoRound(context.Background(), m.ID, RedondoInput{TrucoWinnerTeamID: ptr(m.TeamIDs[0]), TrucoPoints: 1})
	require.NoError(t, err)
	assert.Equal(t, []models.EventKind{models.EventMatchCreated, models.EventRoundRecorded}, f.events.Kinds())
}
