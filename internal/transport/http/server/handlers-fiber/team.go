package handlers_fiber

import (
	"net/http"

	"advisory-tracker/internal/mapper"
	"advisory-tracker/internal/transport/http/dto"

	"github.com/gofiber/fiber/v2"
)

// PutTeam creates or replaces a team and its members.
func (h *Handler) PutTeam(c *fiber.Ctx) error {
	var body dto.Team
	if err := c.BodyParser(&body); err != nil {
		return badBody(c)
	}
	body.ID = c.Params("team")

	team, err := h.uc.UpsertTeam(c.Context(), mapper.FromTeam(body))
	if err != nil {
		return h.fail(c, err)
	}

	return c.Status(http.StatusOK).JSON(struct {
		Team dto.Team `json:"team"`
	}{Team: mapper.ToTeam(*team)})
}

// GetTeam returns team with members by id.
func (h *Handler) GetTeam(c *fiber.Ctx) error {
	team, err := h.uc.Team(c.Context(), c.Params("team"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(http.StatusOK).JSON(mapper.ToTeam(*team))
}
