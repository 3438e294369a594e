package sqlite

import (
	"context"
	"fmt"

	"advisory-tracker/internal/entities"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UpsertTeam creates or updates a team and replaces its member list.
func (s *SQLite) UpsertTeam(ctx context.Context, team entities.Team) (*entities.Team, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m := teamModel{ID: team.ID, Name: team.Name, Active: team.Active}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "active"}),
		}).Create(&m).Error; err != nil {
			return fmt.Errorf("upsert team: %w", err)
		}
		if err := tx.Where("team_id = ?", team.ID).Delete(&memberModel{}).Error; err != nil {
			return fmt.Errorf("reset members: %w", err)
		}
		if len(team.Members) == 0 {
			return nil
		}
		members := make([]memberModel, 0, len(team.Members))
		for _, u := range team.Members {
			members = append(members, memberModel{TeamID: team.ID, UserID: u})
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&members).Error; err != nil {
			return fmt.Errorf("insert members: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Infow("team saved", "team_id", team.ID, "members", len(team.Members))
	return s.GetTeam(ctx, team.ID)
}

// GetTeam fetches team with members by id.
func (s *SQLite) GetTeam(ctx context.Context, teamID string) (*entities.Team, error) {
	db := s.db.WithContext(ctx)
	var m teamModel
	if err := db.First(&m, "id = ?", teamID).Error; err != nil {
		if notFound(err) {
			return nil, entities.ErrTeamNotFound
		}
		return nil, fmt.Errorf("get team: %w", err)
	}
	return withMembers(db, m)
}

// ListActiveTeams returns every active team with its members.
func (s *SQLite) ListActiveTeams(ctx context.Context) ([]entities.Team, error) {
	db := s.db.WithContext(ctx)
	var rows []teamModel
	if err := db.Where("active = ?", true).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list active teams: %w", err)
	}
	teams := make([]entities.Team, 0, len(rows))
	for _, m := range rows {
		t, err := withMembers(db, m)
		if err != nil {
			return nil, err
		}
		teams = append(teams, *t)
	}
	return teams, nil
}

// IsTeamMember reports whether userID is listed under teamID.
func (s *SQLite) IsTeamMember(ctx context.Context, teamID, userID string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&memberModel{}).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("membership lookup: %w", err)
	}
	return n > 0, nil
}

func withMembers(db *gorm.DB, m teamModel) (*entities.Team, error) {
	members := make([]string, 0)
	if err := db.Model(&memberModel{}).Where("team_id = ?", m.ID).Order("user_id").Pluck("user_id", &members).Error; err != nil {
		return nil, fmt.Errorf("team members: %w", err)
	}
	return &entities.Team{ID: m.ID, Name: m.Name, Active: m.Active, Members: members}, nil
}

func teamNames(db *gorm.DB, ids []string) (map[string]string, error) {
	var rows []teamModel
	if err := db.Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("team names: %w", err)
	}
	names := make(map[string]string, len(rows))
	for _, r := range rows {
		names[r.ID] = r.Name
	}
	return names, nil
}
