package truco

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/truco/internal/models"
	"github.com/jason-s-yu/truco/internal/scoring"
	"github.com/sirupsen/logrus"
)

// Engine is the scoring and match-progression core. It keeps no state between
// calls: every operation reloads what it needs from the Store, so one Engine
// may serve any number of matches concurrently.
type Engine struct {
	store     Store
	notifiers []Notifier
	logger    *logrus.Logger
	now       func() time.Time
	pick      func(n int) int
}

// Option customises an Engine.
type Option func(*Engine)

// WithNotifier registers a Notifier for committed match changes.
func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notifiers = append(e.notifiers, n) }
}

// WithClock replaces time.Now, for match naming and event timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithPicker replaces the random choice of a starting dealer.
func WithPicker(pick func(n int) int) Option {
	return func(e *Engine) { e.pick = pick }
}

func NewEngine(store Store, logger *logrus.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		logger: logger,
		now:    time.Now,
		pick:   rand.IntN,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// matchState is everything recorded about one match, loaded fresh per call.
type matchState struct {
	match    models.Match
	teams    []models.Team
	players  []models.SeatedPlayer
	rounds   []models.Round // latest first
	redondo  []models.RedondoScore
	picaPica []models.PicaPicaScore
	scores   map[uuid.UUID]int
}

func (e *Engine) loadMatch(ctx context.Context, matchID uuid.UUID) (*matchState, error) {
	m, err := e.store.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	teams, err := e.store.MatchTeams(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("load match teams: %w", err)
	}
	if len(teams) != 2 {
		return nil, fmt.Errorf("%w: match %v has %d teams, want 2", ErrIntegrity, matchID, len(teams))
	}
	players, err := e.store.MatchPlayers(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("load match players: %w", err)
	}
	if len(players) != m.PlayersCount {
		return nil, fmt.Errorf("%w: match %v seats %d players, want %d", ErrIntegrity, matchID, len(players), m.PlayersCount)
	}
	rounds, err := e.store.MatchRounds(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("load rounds: %w", err)
	}
	redondo, picaPica, err := e.store.MatchScores(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("load scores: %w", err)
	}

	return &matchState{
		match:    m,
		teams:    teams,
		players:  players,
		rounds:   rounds,
		redondo:  redondo,
		picaPica: picaPica,
		scores:   scoring.TeamScores(teams, redondo, picaPica),
	}, nil
}

// lastRound returns the round with the highest round number.
func (s *matchState) lastRound() (models.Round, bool) {
	if len(s.rounds) == 0 {
		return models.Round{}, false
	}
	return s.rounds[0], true
}

func (s *matchState) history() scoring.History {
	h := scoring.History{
		PlayersCount:      s.match.PlayersCount,
		PicaPicaEnabled:   s.match.PicaPicaEnabled,
		PicaPicaEndPoints: s.match.PicaPicaEndPoints,
		RoundCount:        len(s.rounds),
		Scores:            s.scores,
	}
	if last, ok := s.lastRound(); ok {
		h.LastRoundType = last.RoundType
	}
	return h
}

// nextDealer returns the seat that deals the next round.
func (s *matchState) nextDealer() (int, error) {
	start, ok := scoring.SeatOf(s.players, s.match.StartingDealerID)
	if !ok {
		return 0, fmt.Errorf("%w: starting dealer of match %v is not seated", ErrIntegrity, s.match.ID)
	}
	lastNumber := 0
	if last, ok := s.lastRound(); ok {
		lastNumber = last.RoundNumber
	}
	return scoring.DealerPosition(start, lastNumber, s.match.PlayersCount), nil
}

func (s *matchState) teamOrder() []uuid.UUID {
	ids := make([]uuid.UUID, len(s.teams))
	for i, t := range s.teams {
		ids[i] = t.ID
	}
	return ids
}

func (s *matchState) hasTeam(id uuid.UUID) bool {
	for _, t := range s.teams {
		if t.ID == id {
			return true
		}
	}
	return false
}

// writable rejects changes to a finished match.
func (s *matchState) writable() error {
	if s.match.IsFinished() {
		return fmt.Errorf("%w: %s", ErrMatchFinished, s.match.Name)
	}
	return nil
}

// acceptsRounds rejects new rounds once the match is finished or won.
func (s *matchState) acceptsRounds() error {
	if err := s.writable(); err != nil {
		return err
	}
	if scoring.IsFinished(s.scores) {
		return fmt.Errorf("%w: %s already has a winner", ErrMatchFinished, s.match.Name)
	}
	return nil
}

// publish fans ev out to every notifier. Delivery is best effort: the change
// is already committed, so failures are only logged.
func (e *Engine) publish(ctx context.Context, ev models.ScoreEvent) {
	ev.Timestamp = e.now().UnixMilli()
	for _, n := range e.notifiers {
		if err := n.Publish(ctx, ev); err != nil {
			e.logger.WithFields(logrus.Fields{
				"match_id": ev.MatchID,
				"kind":     ev.Kind,
			}).WithError(err).Warn("failed to publish score event")
		}
	}
}

// publishState reloads the match and publishes its standings under kind.
func (e *Engine) publishState(ctx context.Context, matchID uuid.UUID, kind models.EventKind, round *models.Round) {
	st, err := e.loadMatch(ctx, matchID)
	if err != nil {
		e.logger.WithField("match_id", matchID).WithError(err).Warn("failed to reload match for event")
		return
	}
	ev := models.ScoreEvent{
		MatchID:   matchID,
		Kind:      kind,
		Scores:    st.scores,
		HasWinner: scoring.IsFinished(st.scores),
	}
	if round != nil {
		ev.RoundID = &round.ID
		ev.RoundNumber = round.RoundNumber
	}
	e.publish(ctx, ev)
}
