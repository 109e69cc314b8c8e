package truco

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/truco/internal/models"
)

// Store is the persistence the engine needs. *database.Store implements it.
type Store interface {
	CreateUser(ctx context.Context, user *models.User) error
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUsers(ctx context.Context, ids []uuid.UUID) ([]models.User, error)

	FindOrCreateTeam(ctx context.Context, key string, team *models.Team) (bool, error)
	ListTeams(ctx context.Context) ([]models.Team, error)
	GetTeams(ctx context.Context, ids []uuid.UUID) ([]models.Team, error)
	MatchTeams(ctx context.Context, matchID uuid.UUID) ([]models.Team, error)

	CreateMatch(ctx context.Context, m *models.Match, seats []uuid.UUID) error
	GetMatch(ctx context.Context, id uuid.UUID) (models.Match, error)
	ListMatches(ctx context.Context, status models.MatchStatus) ([]models.Match, error)
	CountMatchesSince(ctx context.Context, since time.Time) (int, error)
	SetMatchStatus(ctx context.Context, id uuid.UUID, status models.MatchStatus) error
	DeleteMatch(ctx context.Context, id uuid.UUID) error
	MatchPlayers(ctx context.Context, matchID uuid.UUID) ([]models.SeatedPlayer, error)

	MatchRounds(ctx context.Context, matchID uuid.UUID) ([]models.Round, error)
	GetRound(ctx context.Context, id uuid.UUID) (models.Round, error)
	MatchScores(ctx context.Context, matchID uuid.UUID) ([]models.RedondoScore, []models.PicaPicaScore, error)
	InsertRound(ctx context.Context, r *models.Round, redondo []models.RedondoScore, picaPica []models.PicaPicaScore) error
	InsertRedondoScore(ctx context.Context, sc *models.RedondoScore) error
	InsertPicaPicaScore(ctx context.Context, sc *models.PicaPicaScore) error
	ReplaceRedondoScores(ctx context.Context, roundID uuid.UUID, sc *models.RedondoScore) error
	DeleteRound(ctx context.Context, id uuid.UUID) error
}

// Notifier receives an event after every committed change to a match.
type Notifier interface {
	Publish(ctx context.Context, ev models.ScoreEvent) error
}
