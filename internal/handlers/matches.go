package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/jason-s-yu/truco/internal/models"
	"github.com/jason-s-yu/truco/internal/truco"
)

// createMatchRequest accepts either an explicit table (seats + team_ids) or
// two rosters (team1_players + team2_players) to be resolved and seated.
type createMatchRequest struct {
	PlayersCount      int         `json:"players_count"`
	Seats             []uuid.UUID `json:"seats"`
	TeamIDs           []uuid.UUID `json:"team_ids"`
	Team1Name         string      `json:"team1_name"`
	Team1Players      []uuid.UUID `json:"team1_players"`
	Team2Name         string      `json:"team2_name"`
	Team2Players      []uuid.UUID `json:"team2_players"`
	PicaPicaEndPoints int         `json:"pica_pica_end_points"`
	StartingDealer    uuid.UUID   `json:"starting_dealer"`
	DisablePicaPica   bool        `json:"disable_pica_pica"`
}

func (s *APIServer) createMatch(w http.ResponseWriter, r *http.Request) {
	var req createMatchRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	var (
		m   models.Match
		err error
	)
	if len(req.Seats) > 0 {
		m, err = s.engine.CreateMatch(r.Context(), truco.CreateMatchParams{
			PlayersCount:      req.PlayersCount,
			PicaPicaEndPoints: req.PicaPicaEndPoints,
			Seats:             req.Seats,
			StartingDealer:    req.StartingDealer,
			TeamIDs:           req.TeamIDs,
			DisablePicaPica:   req.DisablePicaPica,
		})
	} else {
		m, err = s.engine.NewMatch(r.Context(), truco.NewMatchParams{
			Team1Name:         req.Team1Name,
			Team1Players:      req.Team1Players,
			Team2Name:         req.Team2Name,
			Team2Players:      req.Team2Players,
			PicaPicaEndPoints: req.PicaPicaEndPoints,
			StartingDealer:    req.StartingDealer,
			DisablePicaPica:   req.DisablePicaPica,
		})
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, m)
}

// listMatches returns matches newest first, optionally filtered by ?status=.
func (s *APIServer) listMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := s.engine.ListMatches(r.Context(), models.MatchStatus(r.URL.Query().Get("status")))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if matches == nil {
		matches = []models.Match{}
	}
	s.writeJSON(w, http.StatusOK, matches)
}

type matchView struct {
	models.Match
	Players []models.SeatedPlayer    `json:"players"`
	Teams   []models.TeamWithPlayers `json:"teams"`
}

func (s *APIServer) getMatch(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	m, err := s.engine.GetMatchInfo(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	players, err := s.engine.GetMatchPlayers(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	teams, err := s.engine.GetMatchTeamsWithPlayers(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, matchView{Match: m, Players: players, Teams: teams})
}

type scoresView struct {
	Scores     map[uuid.UUID]int `json:"scores"`
	IsFinished bool              `json:"is_finished"`
}

func (s *APIServer) getScores(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	scores, err := s.engine.GetTeamScores(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	finished, err := s.engine.IsMatchFinished(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, scoresView{Scores: scores, IsFinished: finished})
}

func (s *APIServer) nextRound(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	plan, err := s.engine.NextRound(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, plan)
}

func (s *APIServer) finishMatch(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	m, err := s.engine.FinishMatch(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, m)
}

// requestDelete stores a deletion request until it is confirmed or expires.
func (s *APIServer) requestDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	req, err := s.engine.RequestDelete(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.deletes.Put(r.Context(), req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, req)
}

// confirmDelete deletes a match whose deletion was requested before.
func (s *APIServer) confirmDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	req, err := s.deletes.Take(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.engine.ConfirmDelete(r.Context(), req); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
