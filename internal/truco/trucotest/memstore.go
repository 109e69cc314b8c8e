// Package trucotest provides an in-memory truco.Store for tests.
package trucotest

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/truco/internal/database"
	"github.com/jason-s-yu/truco/internal/models"
)

type team struct {
	models.Team
	key string
}

type seat struct {
	playerID uuid.UUID
	position int
}

// Store mirrors the semantics of database.Store, including its sentinel
// errors, cascading deletes and round numbering.
type Store struct {
	mu sync.Mutex

	users    map[uuid.UUID]models.User
	teams    []team
	matches  map[uuid.UUID]models.Match
	seats    map[uuid.UUID][]seat
	rounds   map[uuid.UUID]models.Round
	redondo  []models.RedondoScore
	picaPica []models.PicaPicaScore
	created  int

	// Now stamps created_at columns. Defaults to time.Now.
	Now func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:   map[uuid.UUID]models.User{},
		matches: map[uuid.UUID]models.Match{},
		seats:   map[uuid.UUID][]seat{},
		rounds:  map[uuid.UUID]models.Round{},
		Now:     time.Now,
	}
}

// tick returns a strictly increasing creation time so ordering by created_at
// is deterministic.
func (s *Store) tick() time.Time {
	s.created++
	return s.Now().Add(time.Duration(s.created) * time.Microsecond)
}

func (s *Store) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Nickname == u.Nickname {
			return fmt.Errorf("nickname %q: %w", u.Nickname, database.ErrDuplicate)
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	s.users[u.ID] = *u
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nickname < out[j].Nickname })
	return out, nil
}

func (s *Store) GetUsers(_ context.Context, ids []uuid.UUID) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.User
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *Store) FindOrCreateTeam(_ context.Context, key string, t *models.Team) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.teams {
		if existing.key == key {
			*t = cloneTeam(existing.Team)
			return false, nil
		}
	}
	for _, id := range t.MemberIDs {
		if _, ok := s.users[id]; !ok {
			return false, fmt.Errorf("team member %v: %w", id, database.ErrNotFound)
		}
	}
	t.ID = uuid.New()
	t.CreatedAt = s.tick()
	s.teams = append(s.teams, team{Team: cloneTeam(*t), key: key})
	return true, nil
}

func (s *Store) ListTeams(_ context.Context) ([]models.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Team, 0, len(s.teams))
	for _, t := range s.teams {
		out = append(out, cloneTeam(t.Team))
	}
	return out, nil
}

func (s *Store) GetTeams(_ context.Context, ids []uuid.UUID) ([]models.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Team
	for _, t := range s.teams {
		if slices.Contains(ids, t.ID) {
			out = append(out, cloneTeam(t.Team))
		}
	}
	return out, nil
}

func (s *Store) MatchTeams(_ context.Context, matchID uuid.UUID) ([]models.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[matchID]
	if !ok {
		return nil, nil
	}
	var out []models.Team
	for _, id := range m.TeamIDs {
		for _, t := range s.teams {
			if t.ID == id {
				out = append(out, cloneTeam(t.Team))
			}
		}
	}
	return out, nil
}

func (s *Store) CreateMatch(_ context.Context, m *models.Match, seats []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.Status == "" {
		m.Status = models.MatchInProgress
	}
	m.CreatedAt = s.tick()
	stored := *m
	stored.TeamIDs = slices.Clone(m.TeamIDs)
	s.matches[m.ID] = stored
	for pos, id := range seats {
		s.seats[m.ID] = append(s.seats[m.ID], seat{playerID: id, position: pos})
	}
	return nil
}

func (s *Store) GetMatch(_ context.Context, id uuid.UUID) (models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return models.Match{}, fmt.Errorf("match %v: %w", id, database.ErrNotFound)
	}
	m.TeamIDs = slices.Clone(m.TeamIDs)
	return m, nil
}

func (s *Store) ListMatches(_ context.Context, status models.MatchStatus) ([]models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Match
	for _, m := range s.matches {
		if status == "" || m.Status == status {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) CountMatchesSince(_ context.Context, since time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.matches {
		if !m.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (s *Store) SetMatchStatus(_ context.Context, id uuid.UUID, status models.MatchStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return fmt.Errorf("match %v: %w", id, database.ErrNotFound)
	}
	m.Status = status
	s.matches[id] = m
	return nil
}

func (s *Store) DeleteMatch(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.matches[id]; !ok {
		return fmt.Errorf("match %v: %w", id, database.ErrNotFound)
	}
	for rid, r := range s.rounds {
		if r.MatchID == id {
			s.deleteRoundLocked(rid)
		}
	}
	delete(s.matches, id)
	delete(s.seats, id)
	return nil
}

func (s *Store) MatchPlayers(_ context.Context, matchID uuid.UUID) ([]models.SeatedPlayer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.SeatedPlayer
	for _, st := range s.seats[matchID] {
		out = append(out, models.SeatedPlayer{
			PlayerID: st.playerID,
			Position: st.position,
			Nickname: s.users[st.playerID].Nickname,
		})
	}
	return out, nil
}

func (s *Store) MatchRounds(_ context.Context, matchID uuid.UUID) ([]models.Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.matchRoundsLocked(matchID), nil
}

func (s *Store) matchRoundsLocked(matchID uuid.UUID) []models.Round {
	var out []models.Round
	for _, r := range s.rounds {
		if r.MatchID == matchID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoundNumber > out[j].RoundNumber })
	return out
}

func (s *Store) GetRound(_ context.Context, id uuid.UUID) (models.Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rounds[id]
	if !ok {
		return models.Round{}, fmt.Errorf("round %v: %w", id, database.ErrNotFound)
	}
	return r, nil
}

func (s *Store) MatchScores(_ context.Context, matchID uuid.UUID) ([]models.RedondoScore, []models.PicaPicaScore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	number := func(roundID uuid.UUID) int { return s.rounds[roundID].RoundNumber }

	var redondo []models.RedondoScore
	for _, sc := range s.redondo {
		if s.rounds[sc.RoundID].MatchID != matchID {
			continue
		}
		sc.TrucoWinnerName = s.teamNameLocked(sc.TrucoWinnerTeamID)
		sc.EnvidoWinnerName = s.teamNameLocked(sc.EnvidoWinnerTeamID)
		redondo = append(redondo, sc)
	}
	sort.SliceStable(redondo, func(i, j int) bool { return number(redondo[i].RoundID) < number(redondo[j].RoundID) })

	var picaPica []models.PicaPicaScore
	for _, sc := range s.picaPica {
		if s.rounds[sc.RoundID].MatchID != matchID {
			continue
		}
		sc.TrucoWinnerName = s.nicknameLocked(sc.TrucoWinnerID)
		sc.EnvidoWinnerName = s.nicknameLocked(sc.EnvidoWinnerID)
		picaPica = append(picaPica, sc)
	}
	sort.SliceStable(picaPica, func(i, j int) bool {
		ni, nj := number(picaPica[i].RoundID), number(picaPica[j].RoundID)
		if ni != nj {
			return ni < nj
		}
		return picaPica[i].SubRound < picaPica[j].SubRound
	})
	return redondo, picaPica, nil
}

func (s *Store) InsertRound(_ context.Context, r *models.Round, redondo []models.RedondoScore, picaPica []models.PicaPicaScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[r.MatchID]
	if !ok {
		return fmt.Errorf("match %v: %w", r.MatchID, database.ErrNotFound)
	}
	if m.Status != models.MatchInProgress {
		return fmt.Errorf("match %v is %s: %w", r.MatchID, m.Status, database.ErrConflict)
	}
	next := 1
	if rounds := s.matchRoundsLocked(r.MatchID); len(rounds) > 0 {
		next = rounds[0].RoundNumber + 1
	}
	if r.RoundNumber != 0 && r.RoundNumber != next {
		return fmt.Errorf("expected round %d, next is %d: %w", r.RoundNumber, next, database.ErrConflict)
	}
	subs := map[int]bool{}
	for _, sc := range picaPica {
		if subs[sc.SubRound] {
			return fmt.Errorf("sub-round %d: %w", sc.SubRound, database.ErrDuplicate)
		}
		subs[sc.SubRound] = true
	}

	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	r.RoundNumber = next
	r.CreatedAt = s.tick()
	s.rounds[r.ID] = *r
	for i := range redondo {
		redondo[i].RoundID = r.ID
		if redondo[i].ID == uuid.Nil {
			redondo[i].ID = uuid.New()
		}
		s.redondo = append(s.redondo, redondo[i])
	}
	for i := range picaPica {
		picaPica[i].RoundID = r.ID
		if picaPica[i].ID == uuid.Nil {
			picaPica[i].ID = uuid.New()
		}
		s.picaPica = append(s.picaPica, picaPica[i])
	}
	return nil
}

func (s *Store) InsertRedondoScore(_ context.Context, sc *models.RedondoScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rounds[sc.RoundID]; !ok {
		return fmt.Errorf("round %v: %w", sc.RoundID, database.ErrNotFound)
	}
	if sc.ID == uuid.Nil {
		sc.ID = uuid.New()
	}
	s.redondo = append(s.redondo, *sc)
	return nil
}

func (s *Store) InsertPicaPicaScore(_ context.Context, sc *models.PicaPicaScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rounds[sc.RoundID]; !ok {
		return fmt.Errorf("round %v: %w", sc.RoundID, database.ErrNotFound)
	}
	for _, existing := range s.picaPica {
		if existing.RoundID == sc.RoundID && existing.SubRound == sc.SubRound {
			return fmt.Errorf("sub-round %d: %w", sc.SubRound, database.ErrDuplicate)
		}
	}
	if sc.ID == uuid.Nil {
		sc.ID = uuid.New()
	}
	s.picaPica = append(s.picaPica, *sc)
	return nil
}

func (s *Store) ReplaceRedondoScores(_ context.Context, roundID uuid.UUID, sc *models.RedondoScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rounds[roundID]; !ok {
		return fmt.Errorf("round %v: %w", roundID, database.ErrNotFound)
	}
	s.redondo = slices.DeleteFunc(s.redondo, func(x models.RedondoScore) bool { return x.RoundID == roundID })
	sc.RoundID = roundID
	if sc.ID == uuid.Nil {
		sc.ID = uuid.New()
	}
	s.redondo = append(s.redondo, *sc)
	return nil
}

func (s *Store) DeleteRound(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rounds[id]; !ok {
		return fmt.Errorf("round %v: %w", id, database.ErrNotFound)
	}
	s.deleteRoundLocked(id)
	return nil
}

// ScoreRows counts the stored score rows of a round.
func (s *Store) ScoreRows(roundID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, sc := range s.redondo {
		if sc.RoundID == roundID {
			n++
		}
	}
	for _, sc := range s.picaPica {
		if sc.RoundID == roundID {
			n++
		}
	}
	return n
}

func (s *Store) deleteRoundLocked(id uuid.UUID) {
	delete(s.rounds, id)
	s.redondo = slices.DeleteFunc(s.redondo, func(x models.RedondoScore) bool { return x.RoundID == id })
	s.picaPica = slices.DeleteFunc(s.picaPica, func(x models.PicaPicaScore) bool { return x.RoundID == id })
}

func (s *Store) teamNameLocked(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	for _, t := range s.teams {
		if t.ID == *id {
			return t.Name
		}
	}
	return ""
}

func (s *Store) nicknameLocked(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return s.users[*id].Nickname
}

func cloneTeam(t models.Team) models.Team {
	t.MemberIDs = slices.Clone(t.MemberIDs)
	return t
}
