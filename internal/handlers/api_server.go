// internal/handlers/api_server.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/jason-s-yu/truco/internal/cache"
	"github.com/jason-s-yu/truco/internal/middleware"
	"github.com/jason-s-yu/truco/internal/scoreboard"
	"github.com/jason-s-yu/truco/internal/truco"
	"github.com/sirupsen/logrus"
)

// DeleteStore keeps match deletions that wait for confirmation.
// *cache.DeleteConfirmations implements it.
type DeleteStore interface {
	Put(ctx context.Context, req truco.DeleteRequest) error
	Take(ctx context.Context, matchID uuid.UUID) (truco.DeleteRequest, error)
}

// APIServer exposes the scoring engine over JSON and WebSocket.
type APIServer struct {
	engine  *truco.Engine
	deletes DeleteStore
	hub     *scoreboard.Hub
	logger  *logrus.Logger
}

func NewAPIServer(engine *truco.Engine, deletes DeleteStore, hub *scoreboard.Hub, logger *logrus.Logger) *APIServer {
	return &APIServer{engine: engine, deletes: deletes, hub: hub, logger: logger}
}

// Routes returns the request router wrapped in request logging.
func (s *APIServer) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /users", s.createUser)
	mux.HandleFunc("GET /users", s.listUsers)

	mux.HandleFunc("POST /teams/resolve", s.resolveTeam)
	mux.HandleFunc("GET /teams", s.listTeams)

	mux.HandleFunc("POST /matches", s.createMatch)
	mux.HandleFunc("GET /matches", s.listMatches)
	mux.HandleFunc("GET /matches/{id}", s.getMatch)
	mux.HandleFunc("GET /matches/{id}/scores", s.getScores)
	mux.HandleFunc("GET /matches/{id}/next", s.nextRound)
	mux.HandleFunc("POST /matches/{id}/finish", s.finishMatch)
	mux.HandleFunc("POST /matches/{id}/delete-request", s.requestDelete)
	mux.HandleFunc("POST /matches/{id}/delete-confirm", s.confirmDelete)

	mux.HandleFunc("GET /matches/{id}/rounds", s.listRounds)
	mux.HandleFunc("POST /matches/{id}/rounds", s.addRound)
	mux.HandleFunc("POST /matches/{id}/rounds/redondo", s.recordRedondo)
	mux.HandleFunc("POST /matches/{id}/rounds/pica-pica", s.recordPicaPica)
	mux.HandleFunc("POST /rounds/{id}/redondo", s.addRedondoScore)
	mux.HandleFunc("POST /rounds/{id}/pica-pica", s.addPicaPicaScore)
	mux.HandleFunc("PUT /rounds/{id}", s.editRound)
	mux.HandleFunc("DELETE /rounds/{id}", s.deleteRound)

	mux.HandleFunc("GET /matches/{id}/ws", s.scoreboardWS)

	return middleware.LogMiddleware(s.logger)(mux)
}

// writeJSON encodes v with the given status.
func (s *APIServer) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Warn("failed to encode response")
	}
}

// writeError maps engine errors to status codes.
func (s *APIServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, truco.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, truco.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, truco.ErrDuplicateNickname),
		errors.Is(err, truco.ErrMatchFinished),
		errors.Is(err, truco.ErrConflict),
		errors.Is(err, cache.ErrNoPendingDelete):
		status = http.StatusConflict
	case errors.Is(err, truco.ErrIntegrity):
		status = http.StatusUnprocessableEntity
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).WithError(err).Error("request failed")
		msg = "internal error"
	}
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", truco.ErrValidation, err)
	}
	return nil
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid id %q", truco.ErrValidation, r.PathValue("id"))
	}
	return id, nil
}
