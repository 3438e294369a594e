package handlers_fiber

import (
	"advisory-tracker/internal/transport/http/middleware"

	"github.com/gofiber/fiber/v2"
)

// RegisterHandlers mounts the API under /api/v1. Every route requires a caller identity.
func RegisterHandlers(router fiber.Router, h *Handler) {
	api := router.Group("/api/v1", middleware.Identity())

	api.Post("/sheets", h.PostSheet)
	api.Get("/sheets/:id", h.GetSheet)
	api.Delete("/sheets/:id", h.DeleteSheet)
	api.Put("/teams/:team", h.PutTeam)
	api.Get("/teams/:team", h.GetTeam)

	api.Post("/entries/:id/lock", h.PostEntryLock)
	api.Delete("/entries/:id/lock", h.DeleteEntryLock)
	api.Post("/entries/:id/complete", h.PostEntryComplete)
	api.Get("/sheets/:id/entries/available", h.GetAvailableEntries)
	api.Get("/users/me/locks", h.GetMyLocks)
	api.Post("/admin/locks/sweep", h.PostSweepLocks)

	api.Post("/sheets/:id/teams", h.PostSheetTeams)
	api.Post("/sheets/:id/teams/all", h.PostSheetAllTeams)
	api.Get("/sheets/:id/teams/:team/entries", h.GetTeamEntries)

	api.Post("/team-sheets/:id/responses/init", h.PostInitResponses)
	api.Get("/sheets/:id/teams/:team/responses", h.GetTeamResponses)
	api.Patch("/responses/:id", h.PatchResponse)
	api.Post("/sheets/:id/teams/:team/submit", h.PostSubmitResponses)
	api.Post("/sheets/:id/teams/:team/complete", h.PostCompleteTeamSheet)
	api.Get("/sheets/:id/summary", h.GetSheetSummary)
}
