// internal/database/match.go
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/truco/internal/models"
)

const matchColumns = `id, name, created_at, players_count, pica_pica_enabled,
	pica_pica_end_points, starting_dealer_id, status`

// CreateMatch inserts the match, its team assignments and its seats in one
// transaction. m.TeamIDs are stored in slot order; seats[i] sits at position i.
func (s *Store) CreateMatch(ctx context.Context, m *models.Match, seats []uuid.UUID) error {
	if m.ID == uuid.Nil {
		id, err := uuid.NewRandom()
		if err != nil {
			return fmt.Errorf("failed to generate match id: %w", err)
		}
		m.ID = id
	}
	if m.Status == "" {
		m.Status = models.MatchInProgress
	}

	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
			INSERT INTO matches (id, name, players_count, pica_pica_enabled,
			                     pica_pica_end_points, starting_dealer_id, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING created_at
		`
		if err := tx.QueryRow(ctx, q,
			m.ID, m.Name, m.PlayersCount, m.PicaPicaEnabled,
			m.PicaPicaEndPoints, m.StartingDealerID, string(m.Status),
		).Scan(&m.CreatedAt); err != nil {
			return err
		}

		for slot, teamID := range m.TeamIDs {
			if _, err := tx.Exec(ctx,
				`INSERT INTO match_teams (match_id, team_id, slot) VALUES ($1, $2, $3)`,
				m.ID, teamID, slot,
			); err != nil {
				return err
			}
		}

		for pos, playerID := range seats {
			if _, err := tx.Exec(ctx,
				`INSERT INTO player_positions (match_id, player_id, position) VALUES ($1, $2, $3)`,
				m.ID, playerID, pos,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to insert match: %w", err)
	}
	return nil
}

// GetMatch fetches a match by id, including its team ids in slot order.
func (s *Store) GetMatch(ctx context.Context, id uuid.UUID) (models.Match, error) {
	m, err := scanMatch(s.pool.QueryRow(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = $1`, id))
	if err != nil {
		return models.Match{}, fmt.Errorf("match %v: %w", id, notFound(err))
	}

	rows, err := s.pool.Query(ctx, `SELECT team_id FROM match_teams WHERE match_id = $1 ORDER BY slot`, id)
	if err != nil {
		return models.Match{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var teamID uuid.UUID
		if err := rows.Scan(&teamID); err != nil {
			return models.Match{}, err
		}
		m.TeamIDs = append(m.TeamIDs, teamID)
	}
	return m, rows.Err()
}

// ListMatches returns matches newest first, filtered by status unless it is empty.
func (s *Store) ListMatches(ctx context.Context, status models.MatchStatus) ([]models.Match, error) {
	q := `SELECT ` + matchColumns + ` FROM matches WHERE ($1 = '' OR status = $1) ORDER BY created_at DESC`
	rows, err := s.pool.Query(ctx, q, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []models.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// CountMatchesSince counts matches created at or after since.
func (s *Store) CountMatchesSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM matches WHERE created_at >= $1`, since).Scan(&n)
	return n, err
}

// SetMatchStatus updates a match's status.
func (s *Store) SetMatchStatus(ctx context.Context, id uuid.UUID, status models.MatchStatus) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, `UPDATE matches SET status = $1 WHERE id = $2`, string(status), id)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return fmt.Errorf("match %v: %w", id, ErrNotFound)
		}
		return nil
	})
}

// DeleteMatch removes a match; rounds, scores, seats and team assignments
// cascade. Teams and players are kept.
func (s *Store) DeleteMatch(ctx context.Context, id uuid.UUID) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, `DELETE FROM matches WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return fmt.Errorf("match %v: %w", id, ErrNotFound)
		}
		return nil
	})
}

// MatchPlayers returns the seated players of a match ordered by position.
func (s *Store) MatchPlayers(ctx context.Context, matchID uuid.UUID) ([]models.SeatedPlayer, error) {
	q := `
		SELECT pp.player_id, pp.position, u.nickname
		FROM player_positions pp
		JOIN users u ON pp.player_id = u.id
		WHERE pp.match_id = $1
		ORDER BY pp.position
	`
	rows, err := s.pool.Query(ctx, q, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var players []models.SeatedPlayer
	for rows.Next() {
		var p models.SeatedPlayer
		if err := rows.Scan(&p.PlayerID, &p.Position, &p.Nickname); err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

func scanMatch(row pgx.Row) (models.Match, error) {
	var m models.Match
	var status string
	err := row.Scan(&m.ID, &m.Name, &m.CreatedAt, &m.PlayersCount, &m.PicaPicaEnabled,
		&m.PicaPicaEndPoints, &m.StartingDealerID, &status)
	m.Status = models.MatchStatus(status)
	return m, err
}
