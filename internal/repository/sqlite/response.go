package sqlite

import (
	"context"
	"fmt"
	"time"

	"advisory-tracker/internal/entities"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const responseBatchSize = 200

// InitializeResponses seeds one response per sheet entry unless the team sheet already has responses.
// The bool result is true when rows were created by this call.
func (s *SQLite) InitializeResponses(ctx context.Context, teamSheetID, sheetID int64, now time.Time) ([]entities.Response, bool, error) {
	var (
		res     []entities.Response
		created bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ts teamSheetModel
		if err := tx.First(&ts, teamSheetID).Error; err != nil {
			if notFound(err) {
				return entities.ErrTeamSheetNotFound
			}
			return fmt.Errorf("get team sheet: %w", err)
		}
		if ts.SheetID != sheetID {
			return fmt.Errorf("%w: team sheet %d belongs to sheet %d", entities.ErrInvalidArgument, teamSheetID, ts.SheetID)
		}

		var existing int64
		if err := tx.Model(&responseModel{}).Where("team_sheet_id = ?", teamSheetID).Count(&existing).Error; err != nil {
			return fmt.Errorf("count responses: %w", err)
		}
		if existing == 0 {
			var entries []entryModel
			if err := tx.Where("sheet_id = ?", sheetID).Order("id").Find(&entries).Error; err != nil {
				return fmt.Errorf("load entries: %w", err)
			}
			if len(entries) > 0 {
				rows := make([]responseModel, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, responseModel{
						TeamSheetID:     teamSheetID,
						OriginalEntryID: e.ID,
						TrackingColumns: e.TrackingColumns,
						CreatedAt:       now,
						UpdatedAt:       now,
					})
				}
				r := tx.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(rows, responseBatchSize)
				if r.Error != nil {
					return fmt.Errorf("seed responses: %w", r.Error)
				}
				created = r.RowsAffected > 0
			}
		}

		var err error
		res, err = listResponses(tx, teamSheetID)
		return err
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		s.log.Infow("responses initialized", "team_sheet_id", teamSheetID, "count", len(res))
	}
	return res, created, nil
}

// ListResponses returns a team sheet's responses ordered by original entry.
func (s *SQLite) ListResponses(ctx context.Context, teamSheetID int64) ([]entities.Response, error) {
	return listResponses(s.db.WithContext(ctx), teamSheetID)
}

// ResponseTeamSheet returns the team sheet owning a response.
func (s *SQLite) ResponseTeamSheet(ctx context.Context, responseID int64) (*entities.TeamSheet, error) {
	db := s.db.WithContext(ctx)
	m, err := getResponse(db, responseID)
	if err != nil {
		return nil, err
	}
	return getTeamSheet(db, m.TeamSheetID)
}

// UpdateResponse applies a member's fields and starts the team sheet on its first write.
func (s *SQLite) UpdateResponse(ctx context.Context, responseID int64, update entities.TrackingUpdate, userID string, now time.Time) (*entities.ResponseChange, error) {
	var change *entities.ResponseChange
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := getResponse(tx, responseID)
		if err != nil {
			return err
		}
		ts, err := getTeamSheet(tx, m.TeamSheetID)
		if err != nil {
			return err
		}

		change = &entities.ResponseChange{PreviousStatus: m.Status}
		if err := writeResponse(tx, m, update, userID, now); err != nil {
			return err
		}
		saved, err := getResponse(tx, responseID)
		if err != nil {
			return err
		}
		change.Response = saved.entity()

		if ts.Status == entities.StatusAssigned {
			r := tx.Model(&teamSheetModel{}).
				Where("id = ? AND status = ?", ts.ID, string(entities.StatusAssigned)).
				Updates(map[string]any{
					"status":     string(entities.StatusInProgress),
					"started_at": now,
					"started_by": userID,
				})
			if r.Error != nil {
				return fmt.Errorf("start team sheet: %w", r.Error)
			}
			if r.RowsAffected > 0 {
				change.Started = true
				if ts, err = getTeamSheet(tx, ts.ID); err != nil {
					return err
				}
			}
		}
		change.TeamSheet = *ts
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Infow("response updated", "response_id", responseID, "user_id", userID, "team_sheet_started", change.Started)
	return change, nil
}

// SubmitResponses upserts every item and completes the team sheet in one transaction.
func (s *SQLite) SubmitResponses(ctx context.Context, teamSheetID int64, items []entities.ResponseSubmission, userID string, now time.Time) (*entities.BatchResult, error) {
	res := &entities.BatchResult{Upserted: len(items)}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ts, err := getTeamSheet(tx, teamSheetID)
		if err != nil {
			return err
		}

		for _, item := range items {
			if err := upsertResponse(tx, ts, item, userID, now); err != nil {
				return err
			}
		}

		if res.Completed, err = completeTeamSheet(tx, teamSheetID, userID, now); err != nil {
			return err
		}
		if err := tx.Model(&responseModel{}).Where("team_sheet_id = ?", teamSheetID).Count(&res.ResponseCount).Error; err != nil {
			return fmt.Errorf("count responses: %w", err)
		}
		updated, err := getTeamSheet(tx, teamSheetID)
		if err != nil {
			return err
		}
		res.TeamSheet = *updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Infow("responses submitted", "team_sheet_id", teamSheetID, "items", len(items), "user_id", userID)
	return res, nil
}

// CompleteTeamSheet moves a team sheet to completed. The bool is false when it already was.
func (s *SQLite) CompleteTeamSheet(ctx context.Context, teamSheetID int64, userID string, now time.Time) (*entities.TeamSheet, bool, error) {
	var (
		ts           *entities.TeamSheet
		transitioned bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := getTeamSheet(tx, teamSheetID); err != nil {
			return err
		}
		var err error
		if transitioned, err = completeTeamSheet(tx, teamSheetID, userID, now); err != nil {
			return err
		}
		ts, err = getTeamSheet(tx, teamSheetID)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return ts, transitioned, nil
}

// CountResponses returns how many responses a team sheet holds.
func (s *SQLite) CountResponses(ctx context.Context, teamSheetID int64) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&responseModel{}).Where("team_sheet_id = ?", teamSheetID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count responses: %w", err)
	}
	return n, nil
}

type responseCount struct {
	TeamSheetID int64
	Total       int64
	Done        int64
}

// SummarizeSheet returns per-team response counts for a sheet.
func (s *SQLite) SummarizeSheet(ctx context.Context, sheetID int64) ([]entities.TeamSummary, error) {
	db := s.db.WithContext(ctx)
	if err := ensureSheet(db, sheetID); err != nil {
		return nil, err
	}
	var rows []teamSheetModel
	if err := db.Where("sheet_id = ?", sheetID).Order("team_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list team sheets: %w", err)
	}
	sheets, err := namedAll(db, rows)
	if err != nil {
		return nil, err
	}
	if len(sheets) == 0 {
		return []entities.TeamSummary{}, nil
	}

	ids := make([]int64, 0, len(sheets))
	for _, ts := range sheets {
		ids = append(ids, ts.ID)
	}
	var counts []responseCount
	err = db.Model(&responseModel{}).
		Select("team_sheet_id, COUNT(*) AS total, SUM(CASE WHEN LOWER(TRIM(status)) IN ? THEN 1 ELSE 0 END) AS done",
			entities.CompletedResponseStatuses).
		Where("team_sheet_id IN ?", ids).
		Group("team_sheet_id").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("summarize sheet: %w", err)
	}
	byID := make(map[int64]responseCount, len(counts))
	for _, c := range counts {
		byID[c.TeamSheetID] = c
	}

	res := make([]entities.TeamSummary, 0, len(sheets))
	for _, ts := range sheets {
		c := byID[ts.ID]
		res = append(res, entities.TeamSummary{
			TeamSheetID:        ts.ID,
			TeamID:             ts.TeamID,
			TeamName:           ts.TeamName,
			Status:             ts.Status,
			AssignedAt:         ts.AssignedAt,
			StartedAt:          ts.StartedAt,
			CompletedAt:        ts.CompletedAt,
			TotalResponses:     c.Total,
			CompletedResponses: c.Done,
		})
	}
	return res, nil
}

func listResponses(db *gorm.DB, teamSheetID int64) ([]entities.Response, error) {
	var rows []responseModel
	if err := db.Where("team_sheet_id = ?", teamSheetID).Order("original_entry_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	res := make([]entities.Response, 0, len(rows))
	for _, r := range rows {
		res = append(res, r.entity())
	}
	return res, nil
}

func getResponse(db *gorm.DB, responseID int64) (*responseModel, error) {
	var m responseModel
	if err := db.First(&m, responseID).Error; err != nil {
		if notFound(err) {
			return nil, entities.ErrResponseNotFound
		}
		return nil, fmt.Errorf("get response: %w", err)
	}
	return &m, nil
}

func writeResponse(db *gorm.DB, m *responseModel, update entities.TrackingUpdate, userID string, now time.Time) error {
	t := m.TrackingColumns.tracking()
	update.ApplyTo(&t)
	fields := fromTracking(t).updates()
	fields["updated_by"] = userID
	fields["updated_at"] = now
	if err := db.Model(&responseModel{}).Where("id = ?", m.ID).Updates(fields).Error; err != nil {
		return fmt.Errorf("update response %d: %w", m.ID, err)
	}
	return nil
}

func upsertResponse(db *gorm.DB, ts *entities.TeamSheet, item entities.ResponseSubmission, userID string, now time.Time) error {
	var m responseModel
	err := db.Where("team_sheet_id = ? AND original_entry_id = ?", ts.ID, item.EntryID).First(&m).Error
	if err == nil {
		return writeResponse(db, &m, item.Update, userID, now)
	}
	if !notFound(err) {
		return fmt.Errorf("find response for entry %d: %w", item.EntryID, err)
	}

	var e entryModel
	if err := db.Where("id = ? AND sheet_id = ?", item.EntryID, ts.SheetID).First(&e).Error; err != nil {
		if notFound(err) {
			return fmt.Errorf("%w: %d on sheet %d", entities.ErrEntryNotFound, item.EntryID, ts.SheetID)
		}
		return fmt.Errorf("seed entry %d: %w", item.EntryID, err)
	}
	t := e.TrackingColumns.tracking()
	item.Update.ApplyTo(&t)
	row := responseModel{
		TeamSheetID:     ts.ID,
		OriginalEntryID: item.EntryID,
		TrackingColumns: fromTracking(t),
		UpdatedBy:       &userID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := db.Create(&row).Error; err != nil {
		return fmt.Errorf("insert response for entry %d: %w", item.EntryID, err)
	}
	return nil
}

// completeTeamSheet keeps the first completion time and backfills the start when it was skipped.
func completeTeamSheet(db *gorm.DB, teamSheetID int64, userID string, now time.Time) (bool, error) {
	r := db.Model(&teamSheetModel{}).
		Where("id = ? AND status <> ?", teamSheetID, string(entities.StatusCompleted)).
		Updates(map[string]any{
			"status":       string(entities.StatusCompleted),
			"started_at":   gorm.Expr("COALESCE(started_at, ?)", now),
			"started_by":   gorm.Expr("COALESCE(started_by, ?)", userID),
			"completed_at": now,
			"completed_by": userID,
		})
	if r.Error != nil {
		return false, fmt.Errorf("complete team sheet: %w", r.Error)
	}
	return r.RowsAffected > 0, nil
}
