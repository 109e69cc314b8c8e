package truco

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jason-s-yu/truco/internal/database"
	"github.com/jason-s-yu/truco/internal/models"
	"github.com/sirupsen/logrus"
)

// AddUser registers a player under nickname. Nicknames are unique; a taken
// one yields ErrDuplicateNickname and nothing is written.
func (e *Engine) AddUser(ctx context.Context, nickname string) (models.User, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return models.User{}, fmt.Errorf("%w: nickname is required", ErrValidation)
	}

	u := models.User{Nickname: nickname}
	if err := e.store.CreateUser(ctx, &u); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return models.User{}, fmt.Errorf("%w: %q", ErrDuplicateNickname, nickname)
		}
		return models.User{}, err
	}

	e.logger.WithFields(logrus.Fields{
		"user_id":  u.ID,
		"nickname": u.Nickname,
	}).Info("registered player")
	return u, nil
}

// GetUsers returns every registered player ordered by nickname.
func (e *Engine) GetUsers(ctx context.Context) ([]models.User, error) {
	return e.store.ListUsers(ctx)
}

// lookupUsers returns the players with the given ids keyed by id, failing
// with ErrNotFound when any of them is unknown.
func (e *Engine) lookupUsers(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.User, error) {
	users, err := e.store.GetUsers(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return nil, fmt.Errorf("player %v: %w", id, ErrNotFound)
		}
	}
	return byID, nil
}
