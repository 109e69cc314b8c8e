package handlers

import (
	"net/http"

	"github.com/jason-s-yu/truco/internal/models"
	"github.com/jason-s-yu/truco/internal/truco"
)

type roundView struct {
	models.RoundRecord
	Summary string `json:"summary"`
}

// listRounds returns the match history, latest round first.
func (s *APIServer) listRounds(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	records, err := s.engine.GetMatchRounds(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]roundView, 0, len(records))
	for _, rec := range records {
		out = append(out, roundView{RoundRecord: rec, Summary: s.engine.FormatRoundSummary(rec)})
	}
	s.writeJSON(w, http.StatusOK, out)
}

type addRoundRequest struct {
	RoundType      models.RoundType `json:"round_type"`
	DealerPosition int              `json:"dealer_position"`
}

// addRound appends an empty round; scores follow on /rounds/{id}/....
func (s *APIServer) addRound(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req addRoundRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	round, err := s.engine.AddRound(r.Context(), id, req.RoundType, req.DealerPosition)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, round)
}

func (s *APIServer) recordRedondo(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var in truco.RedondoInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.engine.RecordRedondoRound(r.Context(), id, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, res)
}

type picaPicaRequest struct {
	SubRounds []truco.PicaPicaInput `json:"sub_rounds"`
}

func (s *APIServer) recordPicaPica(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req picaPicaRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.engine.RecordPicaPicaRound(r.Context(), id, req.SubRounds)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, res)
}

func (s *APIServer) addRedondoScore(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var in truco.RedondoInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	sc, err := s.engine.AddRedondoScore(r.Context(), id, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, sc)
}

func (s *APIServer) addPicaPicaScore(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var in truco.PicaPicaInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	sc, err := s.engine.AddPicaPicaScore(r.Context(), id, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, sc)
}

// editRound replaces the result of a redondo round.
func (s *APIServer) editRound(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var in truco.RedondoInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	sc, err := s.engine.EditRedondoRound(r.Context(), id, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sc)
}

func (s *APIServer) deleteRound(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.engine.DeleteRound(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
