package sqlite

import (
	"context"
	"fmt"
	"time"

	"advisory-tracker/internal/entities"

	"gorm.io/gorm"
)

const entryBatchSize = 200

// CreateSheet inserts a sheet and its master entries in one transaction.
func (s *SQLite) CreateSheet(ctx context.Context, sheet entities.Sheet, entries []entities.Entry) (*entities.Sheet, error) {
	m := sheetModel{Title: sheet.Title, CreatedBy: sheet.CreatedBy, CreatedAt: time.Now().UTC()}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&m).Error; err != nil {
			return fmt.Errorf("insert sheet: %w", err)
		}
		if len(entries) == 0 {
			return nil
		}
		rows := make([]entryModel, 0, len(entries))
		for _, e := range entries {
			a := e.Advisory
			rows = append(rows, entryModel{
				SheetID:         m.ID,
				Product:         a.Product,
				Vendor:          a.Vendor,
				CVE:             a.CVE,
				RiskLevel:       a.RiskLevel,
				Title:           a.Title,
				Summary:         a.Summary,
				Reference:       a.Reference,
				TrackingColumns: fromTracking(e.Tracking),
			})
		}
		if err := tx.CreateInBatches(rows, entryBatchSize).Error; err != nil {
			return fmt.Errorf("insert entries: %w", err)
		}
		return nil
	})
	if err != nil {
		s.log.Errorw("failed to create sheet", "error", err, "title", sheet.Title)
		return nil, err
	}

	s.log.Infow("sheet created", "sheet_id", m.ID, "entries", len(entries))
	return &entities.Sheet{
		ID:         m.ID,
		Title:      m.Title,
		CreatedBy:  m.CreatedBy,
		CreatedAt:  m.CreatedAt,
		EntryCount: len(entries),
	}, nil
}

// GetSheet fetches a sheet with its entry count.
func (s *SQLite) GetSheet(ctx context.Context, sheetID int64) (*entities.Sheet, error) {
	db := s.db.WithContext(ctx)
	var m sheetModel
	if err := db.First(&m, sheetID).Error; err != nil {
		if notFound(err) {
			return nil, entities.ErrSheetNotFound
		}
		return nil, fmt.Errorf("get sheet: %w", err)
	}
	var n int64
	if err := db.Model(&entryModel{}).Where("sheet_id = ?", sheetID).Count(&n).Error; err != nil {
		return nil, fmt.Errorf("count entries: %w", err)
	}
	return &entities.Sheet{
		ID:         m.ID,
		Title:      m.Title,
		CreatedBy:  m.CreatedBy,
		CreatedAt:  m.CreatedAt.UTC(),
		EntryCount: int(n),
	}, nil
}

// DeleteSheet removes a sheet with its entries, team sheets and responses.
func (s *SQLite) DeleteSheet(ctx context.Context, sheetID int64) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureSheet(tx, sheetID); err != nil {
			return err
		}
		teamSheets := tx.Model(&teamSheetModel{}).Select("id").Where("sheet_id = ?", sheetID)
		if err := tx.Where("team_sheet_id IN (?)", teamSheets).Delete(&responseModel{}).Error; err != nil {
			return fmt.Errorf("delete responses: %w", err)
		}
		if err := tx.Where("sheet_id = ?", sheetID).Delete(&teamSheetModel{}).Error; err != nil {
			return fmt.Errorf("delete team sheets: %w", err)
		}
		if err := tx.Where("sheet_id = ?", sheetID).Delete(&entryModel{}).Error; err != nil {
			return fmt.Errorf("delete entries: %w", err)
		}
		if err := tx.Delete(&sheetModel{}, sheetID).Error; err != nil {
			return fmt.Errorf("delete sheet: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Infow("sheet deleted", "sheet_id", sheetID)
	return nil
}

// GetEntry fetches one master entry.
func (s *SQLite) GetEntry(ctx context.Context, entryID int64) (*entities.Entry, error) {
	return getEntry(s.db.WithContext(ctx), entryID)
}

// ListEntries returns the sheet's entries ordered by id.
func (s *SQLite) ListEntries(ctx context.Context, sheetID int64) ([]entities.Entry, error) {
	db := s.db.WithContext(ctx)
	if err := ensureSheet(db, sheetID); err != nil {
		return nil, err
	}
	var rows []entryModel
	if err := db.Where("sheet_id = ?", sheetID).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entriesOf(rows), nil
}

func getEntry(db *gorm.DB, entryID int64) (*entities.Entry, error) {
	var m entryModel
	if err := db.First(&m, entryID).Error; err != nil {
		if notFound(err) {
			return nil, entities.ErrEntryNotFound
		}
		return nil, fmt.Errorf("get entry: %w", err)
	}
	e := m.entity()
	return &e, nil
}

func ensureSheet(db *gorm.DB, sheetID int64) error {
	var n int64
	if err := db.Model(&sheetModel{}).Where("id = ?", sheetID).Count(&n).Error; err != nil {
		return fmt.Errorf("sheet lookup: %w", err)
	}
	if n == 0 {
		return entities.ErrSheetNotFound
	}
	return nil
}

func entriesOf(rows []entryModel) []entities.Entry {
	res := make([]entities.Entry, 0, len(rows))
	for _, r := range rows {
		res = append(res, r.entity())
	}
	return res
}
