package scoring

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/truco/internal/models"
)

// TeamScores sums every recorded score row of a match into team totals.
//
// Every team in teams gets an entry, 0 when it has not scored. Redondo rows
// credit the winning teams directly. Pica-pica rows credit the winning
// player's points to the match team that player is a member of; winners who
// are on neither team are ignored.
func TeamScores(teams []models.Team, redondo []models.RedondoScore, picaPica []models.PicaPicaScore) map[uuid.UUID]int {
	scores := make(map[uuid.UUID]int, len(teams))
	for _, t := range teams {
		scores[t.ID] = 0
	}

	credit := func(teamID *uuid.UUID, points int) {
		if teamID == nil {
			return
		}
		if _, ok := scores[*teamID]; ok {
			scores[*teamID] += points
		}
	}

	for _, s := range redondo {
		credit(s.TrucoWinnerTeamID, s.TrucoPoints)
		credit(s.EnvidoWinnerTeamID, s.EnvidoPoints)
	}

	teamOf := PlayerTeams(teams)
	for _, s := range picaPica {
		if s.TrucoWinnerID != nil {
			if teamID, ok := teamOf[*s.TrucoWinnerID]; ok {
				scores[teamID] += s.TrucoPoints
			}
		}
		if s.EnvidoWinnerID != nil {
			if teamID, ok := teamOf[*s.EnvidoWinnerID]; ok {
				scores[teamID] += s.EnvidoPoints
			}
		}
	}
	return scores
}

// PlayerTeams maps each member of the given teams to their team.
// When a player appears in more than one team the first one wins.
func PlayerTeams(teams []models.Team) map[uuid.UUID]uuid.UUID {
	out := make(map[uuid.UUID]uuid.UUID)
	for _, t := range teams {
		for _, pid := range t.MemberIDs {
			if _, seen := out[pid]; !seen {
				out[pid] = t.ID
			}
		}
	}
	return out
}

// MaxScore returns the highest team total, or 0 for no teams.
func MaxScore(scores map[uuid.UUID]int) int {
	top := 0
	for _, s := range scores {
		if s > top {
			top = s
		}
	}
	return top
}

// IsFinished reports whether any team reached the win threshold.
func IsFinished(scores map[uuid.UUID]int) bool {
	return MaxScore(scores) >= models.WinThreshold
}

// Winner returns the team with the highest score at or above the win
// threshold. order breaks ties: the earlier team wins.
func Winner(scores map[uuid.UUID]int, order []uuid.UUID) (uuid.UUID, bool) {
	best := uuid.Nil
	bestScore := -1
	for _, id := range order {
		s, ok := scores[id]
		if !ok || s < models.WinThreshold {
			continue
		}
		if s > bestScore {
			best, bestScore = id, s
		}
	}
	return best, best != uuid.Nil
}
