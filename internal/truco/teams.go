package truco

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jason-s-yu/truco/internal/models"
	"github.com/jason-s-yu/truco/internal/scoring"
	"github.com/sirupsen/logrus"
)

// ResolveTeam returns the team made of exactly playerIDs, creating it with
// name when that set of players has never played together. Order and
// repetitions in playerIDs do not matter, and name is ignored for an existing
// team. An empty name defaults to the members' nicknames.
func (e *Engine) ResolveTeam(ctx context.Context, name string, playerIDs []uuid.UUID) (models.Team, error) {
	key, members := scoring.MemberKey(playerIDs)
	if len(members) == 0 {
		return models.Team{}, fmt.Errorf("%w: a team needs at least one player", ErrValidation)
	}
	for _, id := range members {
		if id == uuid.Nil {
			return models.Team{}, fmt.Errorf("%w: nil player id", ErrValidation)
		}
	}

	users, err := e.lookupUsers(ctx, members)
	if err != nil {
		return models.Team{}, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		nicks := make([]string, 0, len(playerIDs))
		seen := map[uuid.UUID]bool{}
		for _, id := range playerIDs {
			if !seen[id] {
				seen[id] = true
				nicks = append(nicks, users[id].Nickname)
			}
		}
		name = strings.Join(nicks, " y ")
	}

	team := models.Team{Name: name, MemberIDs: members}
	created, err := e.store.FindOrCreateTeam(ctx, key, &team)
	if err != nil {
		return models.Team{}, err
	}
	team.MemberIDs = members

	if created {
		e.logger.WithFields(logrus.Fields{
			"team_id": team.ID,
			"name":    team.Name,
			"members": len(members),
		}).Info("created team")
	}
	return team, nil
}

// ListTeams returns every known team with its members' nicknames.
func (e *Engine) ListTeams(ctx context.Context) ([]models.TeamWithPlayers, error) {
	teams, err := e.store.ListTeams(ctx)
	if err != nil {
		return nil, err
	}
	users, err := e.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	return withPlayerNames(teams, users), nil
}

func withPlayerNames(teams []models.Team, users []models.User) []models.TeamWithPlayers {
	nick := make(map[uuid.UUID]string, len(users))
	for _, u := range users {
		nick[u.ID] = u.Nickname
	}
	out := make([]models.TeamWithPlayers, 0, len(teams))
	for _, t := range teams {
		tw := models.TeamWithPlayers{Team: t}
		for _, id := range t.MemberIDs {
			tw.PlayerNames = append(tw.PlayerNames, nick[id])
		}
		out = append(out, tw)
	}
	return out
}
