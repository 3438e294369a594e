package handlers_fiber

import (
	"net/http"

	"advisory-tracker/internal/entities"
	"advisory-tracker/internal/mapper"
	"advisory-tracker/internal/transport/http/dto"

	"github.com/gofiber/fiber/v2"
)

// PostSheet stores an uploaded sheet.
func (h *Handler) PostSheet(c *fiber.Ctx) error {
	var body dto.CreateSheetRequest
	if err := c.BodyParser(&body); err != nil {
		return badBody(c)
	}
	entries, err := mapper.FromNewEntries(body.Entries)
	if err != nil {
		return writeError(c, err)
	}

	sheet, err := h.uc.CreateSheet(c.Context(), entities.Sheet{Title: body.Title, CreatedBy: caller(c)}, entries)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(http.StatusCreated).JSON(mapper.ToSheet(*sheet))
}

// GetSheet returns a sheet by id.
func (h *Handler) GetSheet(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	sheet, err := h.uc.Sheet(c.Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(http.StatusOK).JSON(mapper.ToSheet(*sheet))
}

// DeleteSheet removes a sheet and everything distributed from it.
func (h *Handler) DeleteSheet(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	if err := h.uc.DeleteSheet(c.Context(), id); err != nil {
		return h.fail(c, err)
	}
	return c.Status(http.StatusOK).JSON(dto.Ack{Status: "deleted"})
}
