package scoring

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jason-s-yu/truco/internal/models"
)

// Pairing is one pica-pica sub-round: the player at Seat1 plays the player
// sitting directly across the table at Seat2.
type Pairing struct {
	SubRound int `json:"sub_round"` // 1-based
	Seat1    int `json:"seat1"`
	Seat2    int `json:"seat2"`
}

// DealerPosition returns the seat holding the pie for the next round. The pie
// moves one seat per round, counted from the starting dealer's seat by the
// highest round number recorded so far.
func DealerPosition(startSeat, lastRoundNumber, playersCount int) int {
	if playersCount <= 0 {
		return 0
	}
	return mod(startSeat+lastRoundNumber, playersCount)
}

// Pairings returns the pica-pica sub-round matchups for a round dealt from
// dealerSeat. The first sub-round starts at the seat after the dealer and each
// following one moves a seat further; every player faces the opponent
// playersCount/2 seats away.
func Pairings(dealerSeat, playersCount int) []Pairing {
	if playersCount <= 0 {
		return nil
	}
	half := playersCount / 2
	first := mod(dealerSeat+1, playersCount)

	out := make([]Pairing, 0, half)
	for k := 0; k < half; k++ {
		p1 := mod(first+k, playersCount)
		out = append(out, Pairing{
			SubRound: k + 1,
			Seat1:    p1,
			Seat2:    mod(p1+half, playersCount),
		})
	}
	return out
}

// SeatOf returns the position of playerID among the seated players.
func SeatOf(players []models.SeatedPlayer, playerID uuid.UUID) (int, bool) {
	for _, p := range players {
		if p.PlayerID == playerID {
			return p.Position, true
		}
	}
	return 0, false
}

// PlayerAt returns the player seated at position.
func PlayerAt(players []models.SeatedPlayer, position int) (models.SeatedPlayer, bool) {
	for _, p := range players {
		if p.Position == position {
			return p, true
		}
	}
	return models.SeatedPlayer{}, false
}

// ArrangeSeats interleaves two equally sized teams around the table so that
// adjacent seats always belong to opposite teams: t1[0], t2[0], t1[1], ...
func ArrangeSeats(team1, team2 []uuid.UUID) ([]uuid.UUID, error) {
	if len(team1) != len(team2) {
		return nil, fmt.Errorf("teams must be the same size, got %d and %d", len(team1), len(team2))
	}
	seats := make([]uuid.UUID, 0, len(team1)*2)
	for i := range team1 {
		seats = append(seats, team1[i], team2[i])
	}
	return seats, nil
}

func mod(a, n int) int {
	r := a % n
	if r < 0 {
		r += n
	}
	return r
}
