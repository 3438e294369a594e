package domain

import (
	"context"
	"fmt"

	"advisory-tracker/internal/entities"
)

// CreateSheet stores a sheet with its master entries.
func (u *Usecase) CreateSheet(ctx context.Context, sheet entities.Sheet, entries []entities.Entry) (*entities.Sheet, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	if sheet.Title == "" {
		u.log.Errorw("failed to create sheet: missing title")
		return nil, fmt.Errorf("%w: title is required", entities.ErrInvalidArgument)
	}
	if err := requireUser(sheet.CreatedBy); err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Lease = entities.Lease{}
		entries[i].AssignedTeam = ""
		entries[i].Completed = false
	}
	return u.repo.CreateSheet(ctx, sheet, entries)
}

// Sheet returns a sheet by id.
func (u *Usecase) Sheet(ctx context.Context, sheetID int64) (*entities.Sheet, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	if err := requireID("sheet_id", sheetID); err != nil {
		return nil, err
	}
	return u.repo.GetSheet(ctx, sheetID)
}

// DeleteSheet removes a sheet with its entries, team sheets and responses.
func (u *Usecase) DeleteSheet(ctx context.Context, sheetID int64) error {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	if err := requireID("sheet_id", sheetID); err != nil {
		return err
	}
	return u.repo.DeleteSheet(ctx, sheetID)
}
