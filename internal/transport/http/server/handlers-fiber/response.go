package handlers_fiber

import (
	"net/http"

	"advisory-tracker/internal/entities"
	"advisory-tracker/internal/mapper"
	"advisory-tracker/internal/transport/http/dto"

	"github.com/gofiber/fiber/v2"
)

// PostInitResponses seeds the team sheet's responses.
func (h *Handler) PostInitResponses(c *fiber.Ctx) error {
	teamSheetID, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var body dto.InitResponsesRequest
	if err := c.BodyParser(&body); err != nil {
		return badBody(c)
	}

	list, err := h.uc.InitializeResponses(c.Context(), teamSheetID, body.SheetID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"responses": mapper.ToResponses(list)})
}

// GetTeamResponses returns the team's responses for a sheet.
func (h *Handler) GetTeamResponses(c *fiber.Ctx) error {
	sheetID, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	list, err := h.uc.TeamResponses(c.Context(), sheetID, c.Params("team"), caller(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"responses": mapper.ToResponses(list)})
}

// PatchResponse edits one response.
func (h *Handler) PatchResponse(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var body dto.TrackingFields
	if err := c.BodyParser(&body); err != nil {
		return badBody(c)
	}
	update, err := mapper.FromTrackingFields(body)
	if err != nil {
		return writeError(c, err)
	}

	r, err := h.uc.UpdateResponse(c.Context(), id, entities.ResponseUpdate{TrackingUpdate: update}, caller(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(http.StatusOK).JSON(mapper.ToResponse(*r))
}

// PostSubmitResponses upserts a batch and completes the team sheet.
func (h *Handler) PostSubmitResponses(c *fiber.Ctx) error {
	sheetID, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var body dto.SubmitRequest
	if err := c.BodyParser(&body); err != nil {
		return badBody(c)
	}
	items, err := mapper.FromSubmissions(body.Responses)
	if err != nil {
		return writeError(c, err)
	}

	if err := h.uc.SubmitBatch(c.Context(), sheetID, c.Params("team"), items, caller(c)); err != nil {
		return h.fail(c, err)
	}
	return c.Status(http.StatusOK).JSON(dto.Ack{Status: "submitted"})
}

// PostCompleteTeamSheet marks the team's sheet completed.
func (h *Handler) PostCompleteTeamSheet(c *fiber.Ctx) error {
	sheetID, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	ts, err := h.uc.MarkCompleted(c.Context(), sheetID, c.Params("team"), caller(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(http.StatusOK).JSON(mapper.ToTeamSheet(*ts))
}

// GetSheetSummary returns the per-team rollup of a sheet.
func (h *Handler) GetSheetSummary(c *fiber.Ctx) error {
	sheetID, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	s, err := h.uc.Summarize(c.Context(), sheetID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(http.StatusOK).JSON(s)
}
