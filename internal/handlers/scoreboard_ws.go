// internal/handlers/scoreboard_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/jason-s-yu/truco/internal/middleware"
	"github.com/jason-s-yu/truco/internal/models"
	"github.com/jason-s-yu/truco/internal/scoring"
)

// scoreboardWS streams the standings of a match to a spectator. The client
// must speak the "scoreboard" subprotocol. It first receives a snapshot,
// then one message per committed change; anything it sends is ignored. An
// event may arrive before the snapshot; its timestamp is then not newer.
func (s *APIServer) scoreboardWS(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if _, err := s.engine.GetMatchInfo(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   []string{"scoreboard"},
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.logger.WithError(err).Warnf("WebSocket accept error for match %s", id)
		return
	}
	defer c.Close(websocket.StatusInternalError, "unexpected handler exit")

	if c.Subprotocol() != "scoreboard" {
		c.Close(websocket.StatusPolicyViolation, "client must use the 'scoreboard' subprotocol")
		return
	}
	middleware.LogWebSocketConnect(s.logger, r.RemoteAddr, r.URL.Path)

	// Subscribe before reading the standings so no committed change falls
	// between the snapshot and the first event.
	unsubscribe := s.hub.Subscribe(id, c)
	defer unsubscribe()

	scores, err := s.engine.GetTeamScores(r.Context(), id)
	if err != nil {
		s.logger.WithError(err).Warnf("failed to load scoreboard for match %s", id)
		c.Close(websocket.StatusInternalError, "failed to load scores")
		return
	}
	snapshot, err := json.Marshal(models.ScoreEvent{
		MatchID:   id,
		Kind:      models.EventSnapshot,
		Scores:    scores,
		HasWinner: scoring.IsFinished(scores),
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		s.logger.WithError(err).Error("failed to marshal scoreboard snapshot")
		return
	}
	wctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	err = c.Write(wctx, websocket.MessageText, snapshot)
	cancel()
	if err != nil {
		middleware.LogWebSocketDisconnect(s.logger, r.RemoteAddr, r.URL.Path, err)
		return
	}

	// CloseRead discards client frames and cancels ctx once the peer closes.
	ctx := c.CloseRead(r.Context())
	<-ctx.Done()
	middleware.LogWebSocketDisconnect(s.logger, r.RemoteAddr, r.URL.Path, context.Cause(ctx))
	c.Close(websocket.StatusNormalClosure, "")
}
