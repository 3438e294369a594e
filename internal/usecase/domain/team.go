package domain

import (
	"context"
	"fmt"
	"strings"

	"advisory-tracker/internal/entities"
)

// UpsertTeam creates or replaces a team and its member list.
func (u *Usecase) UpsertTeam(ctx context.Context, team entities.Team) (*entities.Team, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	team.ID = strings.TrimSpace(team.ID)
	if team.ID == "" {
		u.log.Errorw("failed to save team: missing team_id")
		return nil, fmt.Errorf("%w: team_id is required", entities.ErrInvalidArgument)
	}
	if team.Name == "" {
		team.Name = team.ID
	}
	members := make([]string, 0, len(team.Members))
	for _, m := range team.Members {
		if m = strings.TrimSpace(m); m != "" {
			members = append(members, m)
		}
	}
	team.Members = members
	return u.repo.UpsertTeam(ctx, team)
}

// Team returns team by id.
func (u *Usecase) Team(ctx context.Context, teamID string) (*entities.Team, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	if teamID == "" {
		u.log.Errorw("failed to get team: missing team_id")
		return nil, fmt.Errorf("%w: team_id is required", entities.ErrInvalidArgument)
	}
	return u.repo.GetTeam(ctx, teamID)
}
