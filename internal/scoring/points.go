package scoring

import (
	"errors"
	"fmt"

	"github.com/jason-s-yu/truco/internal/models"
)

// TrucoOptions are the point values a truco contest can be won for.
var TrucoOptions = []int{1, 2, 3, 4}

// EnvidoOptions are the regular envido stakes. A falta envido may award any
// value up to the win threshold instead.
var EnvidoOptions = []int{1, 2, 4, 5, 7}

// ErrNoOutcome is returned for a redondo round with neither contest decided.
var ErrNoOutcome = errors.New("at least one team must win truco or envido")

// ErrNoTrucoWinner is returned for a pica-pica sub-round without a truco winner.
var ErrNoTrucoWinner = errors.New("missing truco winner")

// CheckTrucoPoints validates the points of a won truco contest.
func CheckTrucoPoints(points int) error {
	if points < TrucoOptions[0] || points > TrucoOptions[len(TrucoOptions)-1] {
		return fmt.Errorf("truco points must be between 1 and 4, got %d", points)
	}
	return nil
}

// CheckEnvidoPoints validates the points of a won envido contest.
func CheckEnvidoPoints(points int) error {
	if points < 1 || points > models.WinThreshold {
		return fmt.Errorf("envido points must be between 1 and %d, got %d", models.WinThreshold, points)
	}
	return nil
}

// CheckRedondo validates a redondo score row and zeroes the points of
// contests nobody won.
func CheckRedondo(s *models.RedondoScore) error {
	if s.TrucoWinnerTeamID == nil && s.EnvidoWinnerTeamID == nil {
		return ErrNoOutcome
	}
	if s.TrucoWinnerTeamID == nil {
		s.TrucoPoints = 0
	} else if err := CheckTrucoPoints(s.TrucoPoints); err != nil {
		return err
	}
	if s.EnvidoWinnerTeamID == nil {
		s.EnvidoPoints = 0
	} else if err := CheckEnvidoPoints(s.EnvidoPoints); err != nil {
		return err
	}
	return nil
}

// CheckPicaPica validates a pica-pica sub-round row and zeroes the envido
// points when envido was not played.
func CheckPicaPica(s *models.PicaPicaScore) error {
	if s.SubRound < 1 {
		return fmt.Errorf("sub_round must be 1-based, got %d", s.SubRound)
	}
	if s.TrucoWinnerID == nil {
		return fmt.Errorf("sub-round %d: %w", s.SubRound, ErrNoTrucoWinner)
	}
	if err := CheckTrucoPoints(s.TrucoPoints); err != nil {
		return fmt.Errorf("sub-round %d: %w", s.SubRound, err)
	}
	if s.EnvidoWinnerID == nil {
		s.EnvidoPoints = 0
	} else if err := CheckEnvidoPoints(s.EnvidoPoints); err != nil {
		return fmt.Errorf("sub-round %d: %w", s.SubRound, err)
	}
	return nil
}
