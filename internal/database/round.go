// internal/database/round.go
package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/truco/internal/models"
)

// MatchRounds returns the rounds of a match, latest first.
func (s *Store) MatchRounds(ctx context.Context, matchID uuid.UUID) ([]models.Round, error) {
	q := `
		SELECT id, match_id, round_number, round_type, dealer_position, created_at
		FROM rounds
		WHERE match_id = $1
		ORDER BY round_number DESC
	`
	rows, err := s.pool.Query(ctx, q, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rounds []models.Round
	for rows.Next() {
		r, err := scanRound(rows)
		if err != nil {
			return nil, err
		}
		rounds = append(rounds, r)
	}
	return rounds, rows.Err()
}

// GetRound fetches a single round by id.
func (s *Store) GetRound(ctx context.Context, id uuid.UUID) (models.Round, error) {
	q := `
		SELECT id, match_id, round_number, round_type, dealer_position, created_at
		FROM rounds
		WHERE id = $1
	`
	r, err := scanRound(s.pool.QueryRow(ctx, q, id))
	if err != nil {
		return models.Round{}, fmt.Errorf("round %v: %w", id, notFound(err))
	}
	return r, nil
}

// MatchScores returns every score row recorded for a match, with winner names
// resolved, ordered by round then sub-round.
func (s *Store) MatchScores(ctx context.Context, matchID uuid.UUID) ([]models.RedondoScore, []models.PicaPicaScore, error) {
	rq := `
		SELECT rs.id, rs.round_id,
		       rs.truco_winner_team_id, rs.truco_points,
		       rs.envido_winner_team_id, rs.envido_points,
		       COALESCE(tt.name, ''), COALESCE(et.name, '')
		FROM redondo_scores rs
		JOIN rounds r ON r.id = rs.round_id
		LEFT JOIN teams tt ON tt.id = rs.truco_winner_team_id
		LEFT JOIN teams et ON et.id = rs.envido_winner_team_id
		WHERE r.match_id = $1
		ORDER BY r.round_number, rs.created_at
	`
	rows, err := s.pool.Query(ctx, rq, matchID)
	if err != nil {
		return nil, nil, err
	}
	var redondo []models.RedondoScore
	for rows.Next() {
		var sc models.RedondoScore
		if err := rows.Scan(&sc.ID, &sc.RoundID,
			&sc.TrucoWinnerTeamID, &sc.TrucoPoints,
			&sc.EnvidoWinnerTeamID, &sc.EnvidoPoints,
			&sc.TrucoWinnerName, &sc.EnvidoWinnerName,
		); err != nil {
			rows.Close()
			return nil, nil, err
		}
		redondo = append(redondo, sc)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	pq := `
		SELECT ps.id, ps.round_id, ps.sub_round,
		       ps.truco_winner_id, ps.truco_points,
		       ps.envido_winner_id, ps.envido_points,
		       COALESCE(tu.nickname, ''), COALESCE(eu.nickname, '')
		FROM pica_pica_scores ps
		JOIN rounds r ON r.id = ps.round_id
		LEFT JOIN users tu ON tu.id = ps.truco_winner_id
		LEFT JOIN users eu ON eu.id = ps.envido_winner_id
		WHERE r.match_id = $1
		ORDER BY r.round_number, ps.sub_round
	`
	rows, err = s.pool.Query(ctx, pq, matchID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()
	var picaPica []models.PicaPicaScore
	for rows.Next() {
		var sc models.PicaPicaScore
		if err := rows.Scan(&sc.ID, &sc.RoundID, &sc.SubRound,
			&sc.TrucoWinnerID, &sc.TrucoPoints,
			&sc.EnvidoWinnerID, &sc.EnvidoPoints,
			&sc.TrucoWinnerName, &sc.EnvidoWinnerName,
		); err != nil {
			return nil, nil, err
		}
		picaPica = append(picaPica, sc)
	}
	return redondo, picaPica, rows.Err()
}

// InsertRound appends a round and its score rows in one transaction.
//
// The match row is locked while the next round number is computed. If
// r.RoundNumber is set and differs from the number the database would assign,
// nothing is written and ErrConflict is returned. Rounds are never added to a
// finished match; that also yields ErrConflict.
func (s *Store) InsertRound(ctx context.Context, r *models.Round, redondo []models.RedondoScore, picaPica []models.PicaPicaScore) error {
	if r.ID == uuid.Nil {
		id, err := uuid.NewRandom()
		if err != nil {
			return fmt.Errorf("failed to generate round id: %w", err)
		}
		r.ID = id
	}

	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var status string
		if err := tx.QueryRow(ctx,
			`SELECT status FROM matches WHERE id = $1 FOR UPDATE`, r.MatchID,
		).Scan(&status); err != nil {
			return fmt.Errorf("match %v: %w", r.MatchID, notFound(err))
		}
		if status != string(models.MatchInProgress) {
			return fmt.Errorf("match %v is %s: %w", r.MatchID, status, ErrConflict)
		}

		var next int
		if err := tx.QueryRow(ctx,
			`SELECT COALESCE(MAX(round_number), 0) + 1 FROM rounds WHERE match_id = $1`, r.MatchID,
		).Scan(&next); err != nil {
			return err
		}
		if r.RoundNumber != 0 && r.RoundNumber != next {
			return fmt.Errorf("expected round %d, next is %d: %w", r.RoundNumber, next, ErrConflict)
		}
		r.RoundNumber = next

		q := `
			INSERT INTO rounds (id, match_id, round_number, round_type, dealer_position)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING created_at
		`
		if err := tx.QueryRow(ctx, q,
			r.ID, r.MatchID, r.RoundNumber, string(r.RoundType), r.DealerPosition,
		).Scan(&r.CreatedAt); err != nil {
			return err
		}

		for i := range redondo {
			redondo[i].RoundID = r.ID
			if err := insertRedondoTx(ctx, tx, &redondo[i]); err != nil {
				return err
			}
		}
		for i := range picaPica {
			picaPica[i].RoundID = r.ID
			if err := insertPicaPicaTx(ctx, tx, &picaPica[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("failed to insert round: %w", ErrDuplicate)
		}
		return fmt.Errorf("failed to insert round: %w", err)
	}
	return nil
}

// InsertRedondoScore adds a redondo score row to an existing round.
func (s *Store) InsertRedondoScore(ctx context.Context, sc *models.RedondoScore) error {
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return insertRedondoTx(ctx, tx, sc)
	})
	if err != nil {
		return fmt.Errorf("failed to insert redondo score: %w", err)
	}
	return nil
}

// InsertPicaPicaScore adds a pica-pica sub-round row to an existing round.
// A second row for the same sub-round yields ErrDuplicate.
func (s *Store) InsertPicaPicaScore(ctx context.Context, sc *models.PicaPicaScore) error {
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return insertPicaPicaTx(ctx, tx, sc)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("sub-round %d: %w", sc.SubRound, ErrDuplicate)
		}
		return fmt.Errorf("failed to insert pica-pica score: %w", err)
	}
	return nil
}

// ReplaceRedondoScores drops every score row of a round and stores sc instead.
func (s *Store) ReplaceRedondoScores(ctx context.Context, roundID uuid.UUID, sc *models.RedondoScore) error {
	sc.RoundID = roundID
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM redondo_scores WHERE round_id = $1`, roundID); err != nil {
			return err
		}
		return insertRedondoTx(ctx, tx, sc)
	})
	if err != nil {
		return fmt.Errorf("failed to replace redondo scores: %w", err)
	}
	return nil
}

// DeleteRound removes a round and its scores. Later rounds keep their numbers.
func (s *Store) DeleteRound(ctx context.Context, id uuid.UUID) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, `DELETE FROM rounds WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return fmt.Errorf("round %v: %w", id, ErrNotFound)
		}
		return nil
	})
}

func insertRedondoTx(ctx context.Context, tx pgx.Tx, sc *models.RedondoScore) error {
	if sc.ID == uuid.Nil {
		id, err := uuid.NewRandom()
		if err != nil {
			return err
		}
		sc.ID = id
	}
	q := `
		INSERT INTO redondo_scores (id, round_id, truco_winner_team_id, truco_points,
		                            envido_winner_team_id, envido_points)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := tx.Exec(ctx, q, sc.ID, sc.RoundID,
		sc.TrucoWinnerTeamID, sc.TrucoPoints, sc.EnvidoWinnerTeamID, sc.EnvidoPoints)
	return err
}

func insertPicaPicaTx(ctx context.Context, tx pgx.Tx, sc *models.PicaPicaScore) error {
	if sc.ID == uuid.Nil {
		id, err := uuid.NewRandom()
		if err != nil {
			return err
		}
		sc.ID = id
	}
	q := `
		INSERT INTO pica_pica_scores (id, round_id, sub_round, truco_winner_id, truco_points,
		                              envido_winner_id, envido_points)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := tx.Exec(ctx, q, sc.ID, sc.RoundID, sc.SubRound,
		sc.TrucoWinnerID, sc.TrucoPoints, sc.EnvidoWinnerID, sc.EnvidoPoints)
	return err
}

func scanRound(row pgx.Row) (models.Round, error) {
	var r models.Round
	var rt string
	err := row.Scan(&r.ID, &r.MatchID, &r.RoundNumber, &rt, &r.DealerPosition, &r.CreatedAt)
	r.RoundType = models.RoundType(rt)
	return r, err
}
