package handlers_fiber

import (
	"errors"
	"net/http"

	"advisory-tracker/internal/entities"
	"advisory-tracker/internal/mapper"
	"advisory-tracker/internal/transport/http/dto"

	"github.com/gofiber/fiber/v2"
)

// PostSheetTeams assigns a sheet to the listed teams.
func (h *Handler) PostSheetTeams(c *fiber.Ctx) error {
	sheetID, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var body dto.AssignRequest
	if err := c.BodyParser(&body); err != nil {
		return badBody(c)
	}

	res, err := h.uc.AssignSheetToTeams(c.Context(), sheetID, body.TeamIDs, caller(c))
	return h.assigned(c, res, err)
}

// PostSheetAllTeams assigns a sheet to every active team.
func (h *Handler) PostSheetAllTeams(c *fiber.Ctx) error {
	sheetID, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	res, err := h.uc.AssignToAllActiveTeams(c.Context(), sheetID, caller(c))
	return h.assigned(c, res, err)
}

// assigned answers 207 when only some teams could be assigned.
func (h *Handler) assigned(c *fiber.Ctx, res []entities.TeamSheet, err error) error {
	var distErr *entities.DistributionError
	switch {
	case err == nil:
		return c.Status(http.StatusOK).JSON(dto.AssignResponse{TeamSheets: mapper.ToTeamSheets(res)})
	case errors.As(err, &distErr) && len(res) > 0:
		h.log.Warnw("sheet partially assigned", "sheet_id", distErr.SheetID, "failed_teams", distErr.FailedTeams, "error", err)
		return c.Status(http.StatusMultiStatus).JSON(dto.AssignResponse{
			TeamSheets:  mapper.ToTeamSheets(res),
			FailedTeams: distErr.FailedTeams,
			Error:       distErr.Err.Error(),
		})
	default:
		return h.fail(c, err)
	}
}

// GetTeamEntries returns the team's projection of the sheet.
func (h *Handler) GetTeamEntries(c *fiber.Ctx) error {
	sheetID, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	list, err := h.uc.TeamEntries(c.Context(), sheetID, c.Params("team"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"entries": mapper.ToEntries(list, h.leaseTTL)})
}
