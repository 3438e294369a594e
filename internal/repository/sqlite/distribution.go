package sqlite

import (
	"context"
	"fmt"
	"time"

	"advisory-tracker/internal/entities"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AssignTeam creates the team sheet for (sheetID, teamID) unless it exists.
// The bool result is true when a row was created by this call.
func (s *SQLite) AssignTeam(ctx context.Context, sheetID int64, teamID, actorID string, now time.Time) (*entities.TeamSheet, bool, error) {
	var (
		ts      *entities.TeamSheet
		created bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureSheet(tx, sheetID); err != nil {
			return err
		}
		var team teamModel
		if err := tx.First(&team, "id = ?", teamID).Error; err != nil {
			if notFound(err) {
				return entities.ErrTeamNotFound
			}
			return fmt.Errorf("team lookup: %w", err)
		}

		m := teamSheetModel{
			SheetID:    sheetID,
			TeamID:     teamID,
			Status:     string(entities.StatusAssigned),
			AssignedAt: now,
			AssignedBy: actorID,
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&m)
		if res.Error != nil {
			return fmt.Errorf("insert team sheet: %w", res.Error)
		}
		created = res.RowsAffected > 0

		var row teamSheetModel
		if err := tx.Where("sheet_id = ? AND team_id = ?", sheetID, teamID).First(&row).Error; err != nil {
			return fmt.Errorf("read team sheet: %w", err)
		}
		v := row.entity(team.Name)
		ts = &v
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		s.log.Infow("sheet assigned", "sheet_id", sheetID, "team_id", teamID, "actor", actorID)
	}
	return ts, created, nil
}

// GetTeamSheet fetches a team sheet by id.
func (s *SQLite) GetTeamSheet(ctx context.Context, teamSheetID int64) (*entities.TeamSheet, error) {
	return getTeamSheet(s.db.WithContext(ctx), teamSheetID)
}

// FindTeamSheet fetches the assignment of sheetID to teamID.
func (s *SQLite) FindTeamSheet(ctx context.Context, sheetID int64, teamID string) (*entities.TeamSheet, error) {
	db := s.db.WithContext(ctx)
	var m teamSheetModel
	if err := db.Where("sheet_id = ? AND team_id = ?", sheetID, teamID).First(&m).Error; err != nil {
		if notFound(err) {
			return nil, entities.ErrTeamSheetNotFound
		}
		return nil, fmt.Errorf("find team sheet: %w", err)
	}
	return named(db, m)
}

// ListTeamSheets returns every assignment of a sheet.
func (s *SQLite) ListTeamSheets(ctx context.Context, sheetID int64) ([]entities.TeamSheet, error) {
	db := s.db.WithContext(ctx)
	var rows []teamSheetModel
	if err := db.Where("sheet_id = ?", sheetID).Order("team_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list team sheets: %w", err)
	}
	return namedAll(db, rows)
}

func getTeamSheet(db *gorm.DB, teamSheetID int64) (*entities.TeamSheet, error) {
	var m teamSheetModel
	if err := db.First(&m, teamSheetID).Error; err != nil {
		if notFound(err) {
			return nil, entities.ErrTeamSheetNotFound
		}
		return nil, fmt.Errorf("get team sheet: %w", err)
	}
	return named(db, m)
}

func named(db *gorm.DB, m teamSheetModel) (*entities.TeamSheet, error) {
	all, err := namedAll(db, []teamSheetModel{m})
	if err != nil {
		return nil, err
	}
	return &all[0], nil
}

func namedAll(db *gorm.DB, rows []teamSheetModel) ([]entities.TeamSheet, error) {
	res := make([]entities.TeamSheet, 0, len(rows))
	if len(rows) == 0 {
		return res, nil
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.TeamID)
	}
	names, err := teamNames(db, ids)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		res = append(res, r.entity(names[r.TeamID]))
	}
	return res, nil
}
