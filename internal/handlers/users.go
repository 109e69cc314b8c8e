package handlers

import (
	"net/http"

	"github.com/google/uuid"
)

type createUserRequest struct {
	Nickname string `json:"nickname"`
}

// createUser registers a player: POST /users {"nickname": "..."}.
func (s *APIServer) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	u, err := s.engine.AddUser(r.Context(), req.Nickname)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, u)
}

func (s *APIServer) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.engine.GetUsers(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, users)
}

type resolveTeamRequest struct {
	Name      string      `json:"name"`
	PlayerIDs []uuid.UUID `json:"player_ids"`
}

// resolveTeam finds or creates the team of exactly the given players.
func (s *APIServer) resolveTeam(w http.ResponseWriter, r *http.Request) {
	var req resolveTeamRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	team, err := s.engine.ResolveTeam(r.Context(), req.Name, req.PlayerIDs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, team)
}

func (s *APIServer) listTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := s.engine.ListTeams(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, teams)
}
