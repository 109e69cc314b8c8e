package truco

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jason-s-yu/truco/internal/database"
	"github.com/jason-s-yu/truco/internal/models"
	"github.com/jason-s-yu/truco/internal/scoring"
	"github.com/sirupsen/logrus"
)

// RedondoInput is the outcome of a redondo round as entered by the players.
// A nil winner means the contest was not played. With FaltaEnvido set the
// envido is worth the falta value at the time of recording and EnvidoPoints
// is ignored.
type RedondoInput struct {
	TrucoWinnerTeamID  *uuid.UUID `json:"truco_winner_team_id"`
	TrucoPoints        int        `json:"truco_points"`
	EnvidoWinnerTeamID *uuid.UUID `json:"envido_winner_team_id"`
	EnvidoPoints       int        `json:"envido_points"`
	FaltaEnvido        bool       `json:"falta_envido"`
}

// PicaPicaInput is the outcome of one pica-pica sub-round.
type PicaPicaInput struct {
	SubRound       int        `json:"sub_round"`
	TrucoWinnerID  *uuid.UUID `json:"truco_winner_id"`
	TrucoPoints    int        `json:"truco_points"`
	EnvidoWinnerID *uuid.UUID `json:"envido_winner_id"`
	EnvidoPoints   int        `json:"envido_points"`
	FaltaEnvido    bool       `json:"falta_envido"`
}

// SubRoundPairing is a pica-pica matchup with its players resolved.
type SubRoundPairing struct {
	SubRound int                 `json:"sub_round"`
	Player1  models.SeatedPlayer `json:"player1"`
	Player2  models.SeatedPlayer `json:"player2"`
}

// RoundPlan is what the next round of a match looks like before it is played.
type RoundPlan struct {
	MatchID        uuid.UUID           `json:"match_id"`
	RoundNumber    int                 `json:"round_number"`
	RoundType      models.RoundType    `json:"round_type"`
	DealerPosition int                 `json:"dealer_position"`
	Dealer         models.SeatedPlayer `json:"dealer"`
	FaltaEnvido    int                 `json:"falta_envido"`
	Scores         map[uuid.UUID]int   `json:"scores"`
	Pairings       []SubRoundPairing   `json:"pairings,omitempty"`
	// MatchOver is set once a team has reached the win threshold; no further
	// rounds are accepted.
	MatchOver bool `json:"match_over"`
}

// RoundResult is a committed round and the standings it left behind.
type RoundResult struct {
	Round     models.Round      `json:"round"`
	Scores    map[uuid.UUID]int `json:"scores"`
	HasWinner bool              `json:"has_winner"`
	Winner    *uuid.UUID        `json:"winner,omitempty"`
}

// DetermineRoundType returns the format of the next round of a match.
func (e *Engine) DetermineRoundType(ctx context.Context, matchID uuid.UUID) (models.RoundType, error) {
	st, err := e.loadMatch(ctx, matchID)
	if err != nil {
		return "", err
	}
	return scoring.NextRoundType(st.history()), nil
}

// FaltaEnvido returns what a falta envido is worth in the next round.
func (e *Engine) FaltaEnvido(ctx context.Context, matchID uuid.UUID) (int, error) {
	st, err := e.loadMatch(ctx, matchID)
	if err != nil {
		return 0, err
	}
	return scoring.FaltaEnvidoValue(st.scores, scoring.NextRoundType(st.history())), nil
}

// NextRound plans the next round: its number, format, dealer, falta stake
// and, for pica-pica, the sub-round matchups.
func (e *Engine) NextRound(ctx context.Context, matchID uuid.UUID) (RoundPlan, error) {
	st, err := e.loadMatch(ctx, matchID)
	if err != nil {
		return RoundPlan{}, err
	}
	return st.plan()
}

func (s *matchState) plan() (RoundPlan, error) {
	dealerSeat, err := s.nextDealer()
	if err != nil {
		return RoundPlan{}, err
	}
	dealer, _ := scoring.PlayerAt(s.players, dealerSeat)
	rt := scoring.NextRoundType(s.history())

	p := RoundPlan{
		MatchID:        s.match.ID,
		RoundNumber:    1,
		RoundType:      rt,
		DealerPosition: dealerSeat,
		Dealer:         dealer,
		FaltaEnvido:    scoring.FaltaEnvidoValue(s.scores, rt),
		Scores:         s.scores,
		MatchOver:      s.match.IsFinished() || scoring.IsFinished(s.scores),
	}
	if last, ok := s.lastRound(); ok {
		p.RoundNumber = last.RoundNumber + 1
	}
	if rt == models.PicaPica {
		pairings, err := s.pairings(dealerSeat)
		if err != nil {
			return RoundPlan{}, err
		}
		p.Pairings = pairings
	}
	return p, nil
}

// pairings resolves the seat matchups of a pica-pica round dealt from dealerSeat.
func (s *matchState) pairings(dealerSeat int) ([]SubRoundPairing, error) {
	var out []SubRoundPairing
	for _, pr := range scoring.Pairings(dealerSeat, s.match.PlayersCount) {
		p1, ok1 := scoring.PlayerAt(s.players, pr.Seat1)
		p2, ok2 := scoring.PlayerAt(s.players, pr.Seat2)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("%w: match %v has an empty seat", ErrIntegrity, s.match.ID)
		}
		out = append(out, SubRoundPairing{SubRound: pr.SubRound, Player1: p1, Player2: p2})
	}
	return out, nil
}

// AddRound appends an empty round with an explicit type and dealer seat.
// Scores are added afterwards with AddRedondoScore or AddPicaPicaScore.
func (e *Engine) AddRound(ctx context.Context, matchID uuid.UUID, roundType models.RoundType, dealerPosition int) (models.Round, error) {
	st, err := e.loadMatch(ctx, matchID)
	if err != nil {
		return models.Round{}, err
	}
	if err := st.acceptsRounds(); err != nil {
		return models.Round{}, err
	}
	if err := st.checkRoundType(roundType); err != nil {
		return models.Round{}, err
	}
	if dealerPosition < 0 || dealerPosition >= st.match.PlayersCount {
		return models.Round{}, fmt.Errorf("%w: dealer position %d out of range", ErrValidation, dealerPosition)
	}

	r := models.Round{MatchID: matchID, RoundType: roundType, DealerPosition: dealerPosition}
	if err := e.store.InsertRound(ctx, &r, nil, nil); err != nil {
		return models.Round{}, err
	}
	e.logRound(r, "added round")
	return r, nil
}

func (s *matchState) checkRoundType(rt models.RoundType) error {
	if !rt.Valid() {
		return fmt.Errorf("%w: unknown round type %q", ErrValidation, rt)
	}
	if rt == models.PicaPica && s.match.PlayersCount != scoring.PicaPicaPlayers {
		return fmt.Errorf("%w: pica-pica needs %d players", ErrValidation, scoring.PicaPicaPlayers)
	}
	return nil
}

// AddRedondoScore records the outcome of a redondo round created with
// AddRound. A round holds a single outcome; use EditRedondoRound to change it.
func (e *Engine) AddRedondoScore(ctx context.Context, roundID uuid.UUID, in RedondoInput) (models.RedondoScore, error) {
	r, st, err := e.loadRound(ctx, roundID)
	if err != nil {
		return models.RedondoScore{}, err
	}
	if err := st.writable(); err != nil {
		return models.RedondoScore{}, err
	}
	if r.RoundType != models.Redondo {
		return models.RedondoScore{}, fmt.Errorf("%w: round %d is %s", ErrValidation, r.RoundNumber, r.RoundType)
	}
	for _, sc := range st.redondo {
		if sc.RoundID == r.ID {
			return models.RedondoScore{}, fmt.Errorf("%w: round %d already has a result", ErrValidation, r.RoundNumber)
		}
	}

	sc, err := st.redondoScore(in, st.scores)
	if err != nil {
		return models.RedondoScore{}, err
	}
	sc.RoundID = r.ID
	if err := e.store.InsertRedondoScore(ctx, &sc); err != nil {
		return models.RedondoScore{}, err
	}
	e.publishState(ctx, r.MatchID, models.EventScoreAdded, &r)
	return sc, nil
}

// AddPicaPicaScore records one sub-round of a pica-pica round created with
// AddRound. Winners must be one of the two players paired in that sub-round.
func (e *Engine) AddPicaPicaScore(ctx context.Context, roundID uuid.UUID, in PicaPicaInput) (models.PicaPicaScore, error) {
	r, st, err := e.loadRound(ctx, roundID)
	if err != nil {
		return models.PicaPicaScore{}, err
	}
	if err := st.writable(); err != nil {
		return models.PicaPicaScore{}, err
	}
	if r.RoundType != models.PicaPica {
		return models.PicaPicaScore{}, fmt.Errorf("%w: round %d is %s", ErrValidation, r.RoundNumber, r.RoundType)
	}
	pairings, err := st.pairings(r.DealerPosition)
	if err != nil {
		return models.PicaPicaScore{}, err
	}

	sc, err := picaPicaScore(in, pairings)
	if err != nil {
		return models.PicaPicaScore{}, err
	}
	sc.RoundID = r.ID
	if err := e.store.InsertPicaPicaScore(ctx, &sc); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return models.PicaPicaScore{}, fmt.Errorf("%w: sub-round %d already recorded", ErrValidation, sc.SubRound)
		}
		return models.PicaPicaScore{}, err
	}
	e.publishState(ctx, r.MatchID, models.EventScoreAdded, &r)
	return sc, nil
}

// RecordRedondoRound plays the next round of a match as redondo: the dealer
// comes from the seat rotation and the round and its result are stored
// together or not at all.
func (e *Engine) RecordRedondoRound(ctx context.Context, matchID uuid.UUID, in RedondoInput) (RoundResult, error) {
	st, plan, err := e.planFor(ctx, matchID, models.Redondo)
	if err != nil {
		return RoundResult{}, err
	}
	sc, err := st.redondoScore(in, st.scores)
	if err != nil {
		return RoundResult{}, err
	}

	r := models.Round{
		MatchID:        matchID,
		RoundNumber:    plan.RoundNumber,
		RoundType:      models.Redondo,
		DealerPosition: plan.DealerPosition,
	}
	if err := e.store.InsertRound(ctx, &r, []models.RedondoScore{sc}, nil); err != nil {
		return RoundResult{}, err
	}
	st.redondo = append(st.redondo, sc)
	return e.roundRecorded(ctx, st, r), nil
}

// RecordPicaPicaRound plays the next round of a match as pica-pica. subs must
// hold exactly one entry per sub-round, each with a truco winner.
func (e *Engine) RecordPicaPicaRound(ctx context.Context, matchID uuid.UUID, subs []PicaPicaInput) (RoundResult, error) {
	st, plan, err := e.planFor(ctx, matchID, models.PicaPica)
	if err != nil {
		return RoundResult{}, err
	}
	if len(subs) != len(plan.Pairings) {
		return RoundResult{}, fmt.Errorf("%w: expected %d sub-rounds, got %d", ErrValidation, len(plan.Pairings), len(subs))
	}

	seen := map[int]bool{}
	scores := make([]models.PicaPicaScore, 0, len(subs))
	for _, in := range subs {
		if seen[in.SubRound] {
			return RoundResult{}, fmt.Errorf("%w: sub-round %d given twice", ErrValidation, in.SubRound)
		}
		seen[in.SubRound] = true
		sc, err := picaPicaScore(in, plan.Pairings)
		if err != nil {
			return RoundResult{}, err
		}
		scores = append(scores, sc)
	}

	r := models.Round{
		MatchID:        matchID,
		RoundNumber:    plan.RoundNumber,
		RoundType:      models.PicaPica,
		DealerPosition: plan.DealerPosition,
	}
	if err := e.store.InsertRound(ctx, &r, nil, scores); err != nil {
		return RoundResult{}, err
	}
	st.picaPica = append(st.picaPica, scores...)
	return e.roundRecorded(ctx, st, r), nil
}

// planFor loads a match and plans its next round, which must be of type want.
func (e *Engine) planFor(ctx context.Context, matchID uuid.UUID, want models.RoundType) (*matchState, RoundPlan, error) {
	st, err := e.loadMatch(ctx, matchID)
	if err != nil {
		return nil, RoundPlan{}, err
	}
	if err := st.acceptsRounds(); err != nil {
		return nil, RoundPlan{}, err
	}
	plan, err := st.plan()
	if err != nil {
		return nil, RoundPlan{}, err
	}
	if plan.RoundType != want {
		return nil, RoundPlan{}, fmt.Errorf("%w: round %d must be %s", ErrValidation, plan.RoundNumber, plan.RoundType)
	}
	return st, plan, nil
}

func (e *Engine) roundRecorded(ctx context.Context, st *matchState, r models.Round) RoundResult {
	scores := scoring.TeamScores(st.teams, st.redondo, st.picaPica)
	res := RoundResult{Round: r, Scores: scores}
	if winner, ok := scoring.Winner(scores, st.teamOrder()); ok {
		res.HasWinner = true
		res.Winner = &winner
	}

	e.logRound(r, "recorded round")
	e.publish(ctx, models.ScoreEvent{
		MatchID:     r.MatchID,
		Kind:        models.EventRoundRecorded,
		RoundID:     &r.ID,
		RoundNumber: r.RoundNumber,
		Scores:      scores,
		HasWinner:   res.HasWinner,
	})
	return res
}

// redondoScore validates in against the match teams and returns the row to
// store. scores are the standings the falta envido is valued against.
func (s *matchState) redondoScore(in RedondoInput, scores map[uuid.UUID]int) (models.RedondoScore, error) {
	for _, id := range []*uuid.UUID{in.TrucoWinnerTeamID, in.EnvidoWinnerTeamID} {
		if id != nil && !s.hasTeam(*id) {
			return models.RedondoScore{}, fmt.Errorf("%w: team %v does not play this match", ErrValidation, *id)
		}
	}
	sc := models.RedondoScore{
		TrucoWinnerTeamID:  in.TrucoWinnerTeamID,
		TrucoPoints:        in.TrucoPoints,
		EnvidoWinnerTeamID: in.EnvidoWinnerTeamID,
		EnvidoPoints:       in.EnvidoPoints,
	}
	if in.FaltaEnvido && in.EnvidoWinnerTeamID != nil {
		sc.EnvidoPoints = scoring.FaltaEnvidoValue(scores, models.Redondo)
	}
	if err := scoring.CheckRedondo(&sc); err != nil {
		return models.RedondoScore{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return sc, nil
}

// picaPicaScore validates in against the sub-round matchups.
func picaPicaScore(in PicaPicaInput, pairings []SubRoundPairing) (models.PicaPicaScore, error) {
	if in.SubRound < 1 || in.SubRound > len(pairings) {
		return models.PicaPicaScore{}, fmt.Errorf("%w: sub-round %d out of range", ErrValidation, in.SubRound)
	}
	pr := pairings[in.SubRound-1]
	for _, id := range []*uuid.UUID{in.TrucoWinnerID, in.EnvidoWinnerID} {
		if id != nil && *id != pr.Player1.PlayerID && *id != pr.Player2.PlayerID {
			return models.PicaPicaScore{}, fmt.Errorf("%w: player %v is not in sub-round %d", ErrValidation, *id, in.SubRound)
		}
	}

	sc := models.PicaPicaScore{
		SubRound:       in.SubRound,
		TrucoWinnerID:  in.TrucoWinnerID,
		TrucoPoints:    in.TrucoPoints,
		EnvidoWinnerID: in.EnvidoWinnerID,
		EnvidoPoints:   in.EnvidoPoints,
	}
	if in.FaltaEnvido && in.EnvidoWinnerID != nil {
		sc.EnvidoPoints = scoring.PicaPicaFalta
	}
	if err := scoring.CheckPicaPica(&sc); err != nil {
		return models.PicaPicaScore{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return sc, nil
}

// EditRedondoRound replaces the result of a redondo round. A falta envido is
// valued against the standings without the round being edited. Pica-pica
// rounds cannot be edited.
func (e *Engine) EditRedondoRound(ctx context.Context, roundID uuid.UUID, in RedondoInput) (models.RedondoScore, error) {
	r, st, err := e.loadRound(ctx, roundID)
	if err != nil {
		return models.RedondoScore{}, err
	}
	if err := st.writable(); err != nil {
		return models.RedondoScore{}, err
	}
	if r.RoundType != models.Redondo {
		return models.RedondoScore{}, fmt.Errorf("%w: pica-pica rounds cannot be edited", ErrValidation)
	}

	var others []models.RedondoScore
	for _, sc := range st.redondo {
		if sc.RoundID != r.ID {
			others = append(others, sc)
		}
	}
	before := scoring.TeamScores(st.teams, others, st.picaPica)

	sc, err := st.redondoScore(in, before)
	if err != nil {
		return models.RedondoScore{}, err
	}
	if err := e.store.ReplaceRedondoScores(ctx, r.ID, &sc); err != nil {
		return models.RedondoScore{}, err
	}
	e.logRound(r, "edited round")
	e.publishState(ctx, r.MatchID, models.EventRoundEdited, &r)
	return sc, nil
}

// DeleteRound removes a round and its scores. Later rounds keep their numbers.
func (e *Engine) DeleteRound(ctx context.Context, roundID uuid.UUID) error {
	r, st, err := e.loadRound(ctx, roundID)
	if err != nil {
		return err
	}
	if err := st.writable(); err != nil {
		return err
	}
	if err := e.store.DeleteRound(ctx, roundID); err != nil {
		return err
	}
	e.logRound(r, "deleted round")
	e.publishState(ctx, r.MatchID, models.EventRoundDeleted, &r)
	return nil
}

// GetMatchRounds returns the played rounds, latest first, with the dealer's
// nickname and the scores of each round.
func (e *Engine) GetMatchRounds(ctx context.Context, matchID uuid.UUID) ([]models.RoundRecord, error) {
	st, err := e.loadMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	redondo := map[uuid.UUID][]models.RedondoScore{}
	for _, sc := range st.redondo {
		redondo[sc.RoundID] = append(redondo[sc.RoundID], sc)
	}
	picaPica := map[uuid.UUID][]models.PicaPicaScore{}
	for _, sc := range st.picaPica {
		picaPica[sc.RoundID] = append(picaPica[sc.RoundID], sc)
	}

	out := make([]models.RoundRecord, 0, len(st.rounds))
	for _, r := range st.rounds {
		rec := models.RoundRecord{Round: r, Redondo: redondo[r.ID], PicaPica: picaPica[r.ID]}
		if p, ok := scoring.PlayerAt(st.players, r.DealerPosition); ok {
			rec.DealerName = p.Nickname
		}
		out = append(out, rec)
	}
	return out, nil
}

// FormatRoundSummary renders one history entry as text.
func (e *Engine) FormatRoundSummary(rec models.RoundRecord) string {
	return scoring.FormatRoundSummary(rec)
}

func (e *Engine) loadRound(ctx context.Context, roundID uuid.UUID) (models.Round, *matchState, error) {
	r, err := e.store.GetRound(ctx, roundID)
	if err != nil {
		return models.Round{}, nil, err
	}
	st, err := e.loadMatch(ctx, r.MatchID)
	if err != nil {
		return models.Round{}, nil, err
	}
	return r, st, nil
}

func (e *Engine) logRound(r models.Round, msg string) {
	e.logger.WithFields(logrus.Fields{
		"match_id":     r.MatchID,
		"round_number": r.RoundNumber,
		"round_type":   r.RoundType,
	}).Info(msg)
}
