package truco

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/truco/internal/models"
	"github.com/jason-s-yu/truco/internal/scoring"
	"github.com/sirupsen/logrus"
)

// CreateMatchParams describes a match table. Seats lists the players in seat
// order starting at position 0; neighbours must belong to opposite teams.
type CreateMatchParams struct {
	PlayersCount      int         `json:"players_count"`
	PicaPicaEndPoints int         `json:"pica_pica_end_points"`
	Seats             []uuid.UUID `json:"seats"`
	StartingDealer    uuid.UUID   `json:"starting_dealer"`
	TeamIDs           []uuid.UUID `json:"team_ids"`
	DisablePicaPica   bool        `json:"disable_pica_pica"`
}

// NewMatchParams describes a match by its two rosters. Teams are resolved and
// seated alternately; a nil StartingDealer is drawn at random.
type NewMatchParams struct {
	Team1Name         string      `json:"team1_name"`
	Team1Players      []uuid.UUID `json:"team1_players"`
	Team2Name         string      `json:"team2_name"`
	Team2Players      []uuid.UUID `json:"team2_players"`
	PicaPicaEndPoints int         `json:"pica_pica_end_points"`
	StartingDealer    uuid.UUID   `json:"starting_dealer"`
	DisablePicaPica   bool        `json:"disable_pica_pica"`
}

// DeleteRequest is the first half of the two-step match deletion. The caller
// keeps it while asking for confirmation and hands it back to ConfirmDelete.
type DeleteRequest struct {
	MatchID     uuid.UUID `json:"match_id"`
	MatchName   string    `json:"match_name"`
	RoundCount  int       `json:"round_count"`
	RequestedAt time.Time `json:"requested_at"`
}

var validPlayerCounts = map[int]bool{2: true, 4: true, 6: true}

var validEndPoints = map[int]bool{20: true, 25: true}

// CreateMatch validates the table and stores a new in-progress match.
func (e *Engine) CreateMatch(ctx context.Context, p CreateMatchParams) (models.Match, error) {
	if !validPlayerCounts[p.PlayersCount] {
		return models.Match{}, fmt.Errorf("%w: players_count must be 2, 4 or 6, got %d", ErrValidation, p.PlayersCount)
	}
	if len(p.Seats) != p.PlayersCount {
		return models.Match{}, fmt.Errorf("%w: %d seats for %d players", ErrValidation, len(p.Seats), p.PlayersCount)
	}
	seated := make(map[uuid.UUID]int, len(p.Seats))
	for pos, id := range p.Seats {
		if id == uuid.Nil {
			return models.Match{}, fmt.Errorf("%w: seat %d is empty", ErrValidation, pos)
		}
		if _, dup := seated[id]; dup {
			return models.Match{}, fmt.Errorf("%w: player %v is seated twice", ErrValidation, id)
		}
		seated[id] = pos
	}
	if _, ok := seated[p.StartingDealer]; !ok {
		return models.Match{}, fmt.Errorf("%w: starting dealer must be seated", ErrValidation)
	}
	if len(p.TeamIDs) != 2 || p.TeamIDs[0] == p.TeamIDs[1] {
		return models.Match{}, fmt.Errorf("%w: a match needs exactly two distinct teams", ErrIntegrity)
	}

	endPoints := 0
	if p.PlayersCount == scoring.PicaPicaPlayers {
		if !validEndPoints[p.PicaPicaEndPoints] {
			return models.Match{}, fmt.Errorf("%w: pica_pica_end_points must be 20 or 25, got %d", ErrValidation, p.PicaPicaEndPoints)
		}
		endPoints = p.PicaPicaEndPoints
	}

	teams, err := e.teamsByID(ctx, p.TeamIDs)
	if err != nil {
		return models.Match{}, err
	}
	if err := checkSeating(p.Seats, teams); err != nil {
		return models.Match{}, err
	}

	users, err := e.lookupUsers(ctx, p.Seats)
	if err != nil {
		return models.Match{}, err
	}
	nicknames := make([]string, len(p.Seats))
	for i, id := range p.Seats {
		nicknames[i] = users[id].Nickname
	}

	now := e.now()
	today, err := e.store.CountMatchesSince(ctx, scoring.StartOfDay(now))
	if err != nil {
		return models.Match{}, fmt.Errorf("count matches: %w", err)
	}

	m := models.Match{
		Name:              scoring.MatchName(nicknames, now, today),
		PlayersCount:      p.PlayersCount,
		PicaPicaEnabled:   p.PlayersCount == scoring.PicaPicaPlayers && !p.DisablePicaPica,
		PicaPicaEndPoints: endPoints,
		StartingDealerID:  p.StartingDealer,
		Status:            models.MatchInProgress,
		TeamIDs:           []uuid.UUID{p.TeamIDs[0], p.TeamIDs[1]},
	}
	if err := e.store.CreateMatch(ctx, &m, p.Seats); err != nil {
		return models.Match{}, err
	}

	e.logger.WithFields(logrus.Fields{
		"match_id": m.ID,
		"name":     m.Name,
		"players":  m.PlayersCount,
	}).Info("created match")

	scores := map[uuid.UUID]int{m.TeamIDs[0]: 0, m.TeamIDs[1]: 0}
	e.publish(ctx, models.ScoreEvent{MatchID: m.ID, Kind: models.EventMatchCreated, Scores: scores})
	return m, nil
}

// teamsByID returns the requested teams in the requested order.
func (e *Engine) teamsByID(ctx context.Context, ids []uuid.UUID) ([]models.Team, error) {
	found, err := e.store.GetTeams(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.Team, len(found))
	for _, t := range found {
		byID[t.ID] = t
	}
	out := make([]models.Team, 0, len(ids))
	for _, id := range ids {
		t, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("team %v: %w", id, ErrNotFound)
		}
		out = append(out, t)
	}
	return out, nil
}

// checkSeating verifies that every seated player is on exactly one of the two
// teams, that every team member is seated, and that the teams alternate.
func checkSeating(seats []uuid.UUID, teams []models.Team) error {
	side := make([]int, len(seats))
	for i, id := range seats {
		in0, in1 := teams[0].HasMember(id), teams[1].HasMember(id)
		switch {
		case in0 && in1:
			return fmt.Errorf("%w: player %v is on both teams", ErrIntegrity, id)
		case in0:
			side[i] = 0
		case in1:
			side[i] = 1
		default:
			return fmt.Errorf("%w: player %v is on neither team", ErrIntegrity, id)
		}
	}
	for _, t := range teams {
		for _, id := range t.MemberIDs {
			if !slices.Contains(seats, id) {
				return fmt.Errorf("%w: %s member %v is not seated", ErrIntegrity, t.Name, id)
			}
		}
	}
	for i := range seats {
		next := (i + 1) % len(seats)
		if side[i] == side[next] {
			return fmt.Errorf("%w: seats %d and %d belong to the same team", ErrIntegrity, i, next)
		}
	}
	return nil
}

// NewMatch resolves both rosters into teams, seats them alternately and
// creates the match.
func (e *Engine) NewMatch(ctx context.Context, p NewMatchParams) (models.Match, error) {
	team1 := uniqueIDs(p.Team1Players)
	team2 := uniqueIDs(p.Team2Players)
	if len(team1) == 0 || len(team1) != len(team2) {
		return models.Match{}, fmt.Errorf("%w: teams must be non-empty and the same size", ErrValidation)
	}
	for _, id := range team1 {
		if slices.Contains(team2, id) {
			return models.Match{}, fmt.Errorf("%w: player %v is on both teams", ErrValidation, id)
		}
	}
	playersCount := len(team1) * 2
	if !validPlayerCounts[playersCount] {
		return models.Match{}, fmt.Errorf("%w: players_count must be 2, 4 or 6, got %d", ErrValidation, playersCount)
	}

	seats, err := scoring.ArrangeSeats(team1, team2)
	if err != nil {
		return models.Match{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	dealer := p.StartingDealer
	if dealer == uuid.Nil {
		dealer = seats[e.pick(len(seats))]
	}
	if !slices.Contains(seats, dealer) {
		return models.Match{}, fmt.Errorf("%w: starting dealer must be seated", ErrValidation)
	}
	if playersCount == scoring.PicaPicaPlayers && !validEndPoints[p.PicaPicaEndPoints] {
		return models.Match{}, fmt.Errorf("%w: pica_pica_end_points must be 20 or 25, got %d", ErrValidation, p.PicaPicaEndPoints)
	}

	t1, err := e.ResolveTeam(ctx, p.Team1Name, team1)
	if err != nil {
		return models.Match{}, err
	}
	t2, err := e.ResolveTeam(ctx, p.Team2Name, team2)
	if err != nil {
		return models.Match{}, err
	}

	return e.CreateMatch(ctx, CreateMatchParams{
		PlayersCount:      playersCount,
		PicaPicaEndPoints: p.PicaPicaEndPoints,
		Seats:             seats,
		StartingDealer:    dealer,
		TeamIDs:           []uuid.UUID{t1.ID, t2.ID},
		DisablePicaPica:   p.DisablePicaPica,
	})
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// GetMatchInfo returns the stored match.
func (e *Engine) GetMatchInfo(ctx context.Context, matchID uuid.UUID) (models.Match, error) {
	return e.store.GetMatch(ctx, matchID)
}

// GetMatchPlayers returns the seated players in seat order.
func (e *Engine) GetMatchPlayers(ctx context.Context, matchID uuid.UUID) ([]models.SeatedPlayer, error) {
	if _, err := e.store.GetMatch(ctx, matchID); err != nil {
		return nil, err
	}
	return e.store.MatchPlayers(ctx, matchID)
}

// GetMatchTeamsWithPlayers returns the two match teams, in slot order, with
// their members' nicknames.
func (e *Engine) GetMatchTeamsWithPlayers(ctx context.Context, matchID uuid.UUID) ([]models.TeamWithPlayers, error) {
	if _, err := e.store.GetMatch(ctx, matchID); err != nil {
		return nil, err
	}
	teams, err := e.store.MatchTeams(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if len(teams) != 2 {
		return nil, fmt.Errorf("%w: match %v has %d teams, want 2", ErrIntegrity, matchID, len(teams))
	}
	var ids []uuid.UUID
	for _, t := range teams {
		ids = append(ids, t.MemberIDs...)
	}
	users, err := e.store.GetUsers(ctx, ids)
	if err != nil {
		return nil, err
	}
	return withPlayerNames(teams, users), nil
}

// ListMatches returns matches newest first. An empty status lists all of them.
func (e *Engine) ListMatches(ctx context.Context, status models.MatchStatus) ([]models.Match, error) {
	if status != "" && status != models.MatchInProgress && status != models.MatchFinished {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	return e.store.ListMatches(ctx, status)
}

// GetTeamScores returns the current total of both match teams.
func (e *Engine) GetTeamScores(ctx context.Context, matchID uuid.UUID) (map[uuid.UUID]int, error) {
	st, err := e.loadMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	return st.scores, nil
}

// IsMatchFinished reports whether a team has reached the win threshold.
// It does not look at the stored status; see FinishMatch.
func (e *Engine) IsMatchFinished(ctx context.Context, matchID uuid.UUID) (bool, error) {
	scores, err := e.GetTeamScores(ctx, matchID)
	if err != nil {
		return false, err
	}
	return scoring.IsFinished(scores), nil
}

// FinishMatch marks a won match as finished. It fails with ErrValidation
// while no team has reached the win threshold; finishing twice is a no-op.
func (e *Engine) FinishMatch(ctx context.Context, matchID uuid.UUID) (models.Match, error) {
	st, err := e.loadMatch(ctx, matchID)
	if err != nil {
		return models.Match{}, err
	}
	if st.match.IsFinished() {
		return st.match, nil
	}
	winner, ok := scoring.Winner(st.scores, st.teamOrder())
	if !ok {
		return models.Match{}, fmt.Errorf("%w: no team has reached %d points", ErrValidation, models.WinThreshold)
	}
	if err := e.store.SetMatchStatus(ctx, matchID, models.MatchFinished); err != nil {
		return models.Match{}, err
	}
	st.match.Status = models.MatchFinished

	e.logger.WithFields(logrus.Fields{
		"match_id": matchID,
		"winner":   winner,
		"score":    st.scores[winner],
	}).Info("match finished")
	e.publish(ctx, models.ScoreEvent{
		MatchID:   matchID,
		Kind:      models.EventMatchFinished,
		Scores:    st.scores,
		HasWinner: true,
	})
	return st.match, nil
}

// RequestDelete checks that the match exists and describes what deleting it
// would remove. Nothing is written and the engine keeps no record of it.
func (e *Engine) RequestDelete(ctx context.Context, matchID uuid.UUID) (DeleteRequest, error) {
	m, err := e.store.GetMatch(ctx, matchID)
	if err != nil {
		return DeleteRequest{}, err
	}
	rounds, err := e.store.MatchRounds(ctx, matchID)
	if err != nil {
		return DeleteRequest{}, err
	}
	return DeleteRequest{
		MatchID:     m.ID,
		MatchName:   m.Name,
		RoundCount:  len(rounds),
		RequestedAt: e.now(),
	}, nil
}

// ConfirmDelete carries out a previously requested deletion.
func (e *Engine) ConfirmDelete(ctx context.Context, req DeleteRequest) error {
	if req.MatchID == uuid.Nil {
		return fmt.Errorf("%w: empty delete request", ErrValidation)
	}
	return e.DeleteMatch(ctx, req.MatchID)
}

// DeleteMatch removes a match with all its rounds and scores. Teams and
// players are kept.
func (e *Engine) DeleteMatch(ctx context.Context, matchID uuid.UUID) error {
	if err := e.store.DeleteMatch(ctx, matchID); err != nil {
		return err
	}
	e.logger.WithField("match_id", matchID).Info("deleted match")
	e.publish(ctx, models.ScoreEvent{MatchID: matchID, Kind: models.EventMatchDeleted})
	return nil
}
