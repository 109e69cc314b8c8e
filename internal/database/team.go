// internal/database/team.go
package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/truco/internal/models"
)

// FindOrCreateTeam returns the team whose member key is key, creating it with
// team's name and members when none exists. team is filled with the stored row.
// The unique member_key column makes concurrent resolutions of the same set
// converge on one row.
func (s *Store) FindOrCreateTeam(ctx context.Context, key string, team *models.Team) (bool, error) {
	created := false
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		id, err := uuid.NewRandom()
		if err != nil {
			return err
		}
		ins := `
			INSERT INTO teams (id, name, member_key)
			VALUES ($1, $2, $3)
			ON CONFLICT (member_key) DO NOTHING
		`
		ct, err := tx.Exec(ctx, ins, id, team.Name, key)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 1 {
			created = true
			for i, pid := range team.MemberIDs {
				q := `INSERT INTO team_members (team_id, player_id, member_order) VALUES ($1, $2, $3)`
				if _, err := tx.Exec(ctx, q, id, pid, i); err != nil {
					return err
				}
			}
		}

		sel := `SELECT id, name, created_at FROM teams WHERE member_key = $1`
		return tx.QueryRow(ctx, sel, key).Scan(&team.ID, &team.Name, &team.CreatedAt)
	})
	if err != nil {
		return false, fmt.Errorf("find or create team: %w", err)
	}
	return created, nil
}

// ListTeams returns every team with its members, oldest first.
func (s *Store) ListTeams(ctx context.Context) ([]models.Team, error) {
	q := `
		SELECT t.id, t.name, t.created_at,
		       COALESCE(array_agg(tm.player_id::text ORDER BY tm.member_order)
		                FILTER (WHERE tm.player_id IS NOT NULL), '{}')
		FROM teams t
		LEFT JOIN team_members tm ON tm.team_id = t.id
		GROUP BY t.id, t.name, t.created_at
		ORDER BY t.created_at, t.id
	`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTeams(rows)
}

// GetTeams returns the teams with the given ids and their members. Unknown
// ids are skipped.
func (s *Store) GetTeams(ctx context.Context, ids []uuid.UUID) ([]models.Team, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := `
		SELECT t.id, t.name, t.created_at,
		       COALESCE(array_agg(tm.player_id::text ORDER BY tm.member_order)
		                FILTER (WHERE tm.player_id IS NOT NULL), '{}')
		FROM teams t
		LEFT JOIN team_members tm ON tm.team_id = t.id
		WHERE t.id = ANY($1::uuid[])
		GROUP BY t.id, t.name, t.created_at
	`
	rows, err := s.pool.Query(ctx, q, uuidStrings(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTeams(rows)
}

// MatchTeams returns the two teams assigned to a match in slot order.
func (s *Store) MatchTeams(ctx context.Context, matchID uuid.UUID) ([]models.Team, error) {
	q := `
		SELECT t.id, t.name, t.created_at,
		       COALESCE(array_agg(tm.player_id::text ORDER BY tm.member_order)
		                FILTER (WHERE tm.player_id IS NOT NULL), '{}')
		FROM match_teams mt
		JOIN teams t ON t.id = mt.team_id
		LEFT JOIN team_members tm ON tm.team_id = t.id
		WHERE mt.match_id = $1
		GROUP BY t.id, t.name, t.created_at, mt.slot
		ORDER BY mt.slot
	`
	rows, err := s.pool.Query(ctx, q, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTeams(rows)
}

func scanTeams(rows pgx.Rows) ([]models.Team, error) {
	var teams []models.Team
	for rows.Next() {
		var t models.Team
		var members []string
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt, &members); err != nil {
			return nil, err
		}
		for _, m := range members {
			id, err := uuid.Parse(m)
			if err != nil {
				return nil, fmt.Errorf("team %v has malformed member id %q: %w", t.ID, m, err)
			}
			t.MemberIDs = append(t.MemberIDs, id)
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}
