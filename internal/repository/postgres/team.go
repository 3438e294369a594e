package postgres

import (
	"context"
	"errors"
	"fmt"

	"advisory-tracker/internal/entities"

	"github.com/jackc/pgx/v5"
)

const (
	upsertTeamQuery = `
INSERT INTO teams(id, name, active) VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, active = EXCLUDED.active`
	deleteMembersQuery      = `DELETE FROM team_members WHERE team_id=$1`
	insertMemberQuery       = `INSERT INTO team_members(team_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	selectTeamQuery         = `SELECT id, name, active FROM teams WHERE id=$1`
	selectTeamMembersQuery  = `SELECT user_id FROM team_members WHERE team_id=$1 ORDER BY user_id`
	selectActiveTeamsQuery  = `SELECT id FROM teams WHERE active=true ORDER BY id`
	selectIsTeamMemberQuery = `SELECT EXISTS(SELECT 1 FROM team_members WHERE team_id=$1 AND user_id=$2)`
)

// UpsertTeam creates or updates a team and replaces its member list.
func (p *Postgres) UpsertTeam(ctx context.Context, team entities.Team) (*entities.Team, error) {
	tx, err := p.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, upsertTeamQuery, team.ID, team.Name, team.Active); err != nil {
		return nil, fmt.Errorf("upsert team: %w", err)
	}
	if _, err := tx.Exec(ctx, deleteMembersQuery, team.ID); err != nil {
		return nil, fmt.Errorf("reset members: %w", err)
	}
	for _, m := range team.Members {
		if _, err := tx.Exec(ctx, insertMemberQuery, team.ID, m); err != nil {
			return nil, fmt.Errorf("insert member: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	p.log.Infow("team saved", "team_id", team.ID, "members", len(team.Members))
	return p.GetTeam(ctx, team.ID)
}

// GetTeam fetches team with members by id.
func (p *Postgres) GetTeam(ctx context.Context, teamID string) (*entities.Team, error) {
	var t entities.Team
	if err := p.db.QueryRow(ctx, selectTeamQuery, teamID).Scan(&t.ID, &t.Name, &t.Active); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entities.ErrTeamNotFound
		}
		return nil, fmt.Errorf("get team: %w", err)
	}

	rows, err := p.db.Query(ctx, selectTeamMembersQuery, teamID)
	if err != nil {
		return nil, fmt.Errorf("get team members: %w", err)
	}
	members, err := collect(rows, scanString)
	if err != nil {
		return nil, fmt.Errorf("team members: %w", err)
	}
	t.Members = members
	return &t, nil
}

// ListActiveTeams returns every active team with its members.
func (p *Postgres) ListActiveTeams(ctx context.Context) ([]entities.Team, error) {
	rows, err := p.db.Query(ctx, selectActiveTeamsQuery)
	if err != nil {
		return nil, fmt.Errorf("list active teams: %w", err)
	}
	ids, err := collect(rows, scanString)
	if err != nil {
		return nil, err
	}

	teams := make([]entities.Team, 0, len(ids))
	for _, id := range ids {
		t, err := p.GetTeam(ctx, id)
		if err != nil {
			return nil, err
		}
		teams = append(teams, *t)
	}
	return teams, nil
}

// IsTeamMember reports whether userID is listed under teamID.
func (p *Postgres) IsTeamMember(ctx context.Context, teamID, userID string) (bool, error) {
	var ok bool
	if err := p.db.QueryRow(ctx, selectIsTeamMemberQuery, teamID, userID).Scan(&ok); err != nil {
		return false, fmt.Errorf("membership lookup: %w", err)
	}
	return ok, nil
}

func scanString(row rowScanner) (string, error) {
	var s string
	err := row.Scan(&s)
	return s, err
}
