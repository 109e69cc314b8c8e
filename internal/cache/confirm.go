package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/truco/internal/truco"
	"github.com/redis/go-redis/v9"
)

// ErrNoPendingDelete is returned when confirming a deletion that was never
// requested or whose request has expired.
var ErrNoPendingDelete = errors.New("no pending delete request")

// DeleteConfirmations holds requested match deletions until they are
// confirmed or expire.
type DeleteConfirmations struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewDeleteConfirmations(rdb *redis.Client, ttl time.Duration) *DeleteConfirmations {
	return &DeleteConfirmations{rdb: rdb, ttl: ttl}
}

func deleteKey(matchID uuid.UUID) string {
	return "truco:delete:" + matchID.String()
}

// Put stores req, replacing any earlier request for the same match.
func (d *DeleteConfirmations) Put(ctx context.Context, req truco.DeleteRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal delete request: %w", err)
	}
	if err := d.rdb.Set(ctx, deleteKey(req.MatchID), data, d.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store delete request: %w", err)
	}
	return nil
}

// Take removes and returns the pending request for matchID. A request can be
// taken only once.
func (d *DeleteConfirmations) Take(ctx context.Context, matchID uuid.UUID) (truco.DeleteRequest, error) {
	data, err := d.rdb.GetDel(ctx, deleteKey(matchID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return truco.DeleteRequest{}, ErrNoPendingDelete
	}
	if err != nil {
		return truco.DeleteRequest{}, fmt.Errorf("failed to read delete request: %w", err)
	}
	var req truco.DeleteRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return truco.DeleteRequest{}, fmt.Errorf("invalid delete request: %w", err)
	}
	return req, nil
}
