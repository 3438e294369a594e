package handlers_fiber

import (
	"net/http"

	"advisory-tracker/internal/entities"
	"advisory-tracker/internal/mapper"
	"advisory-tracker/internal/transport/http/dto"

	"github.com/gofiber/fiber/v2"
)

// PostEntryLock leases an entry to the caller.
func (h *Handler) PostEntryLock(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	e, err := h.uc.Lock(c.Context(), id, caller(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(http.StatusOK).JSON(mapper.ToEntry(*e, h.leaseTTL))
}

// DeleteEntryLock releases the caller's lease.
func (h *Handler) DeleteEntryLock(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	if err := h.uc.Unlock(c.Context(), id, caller(c)); err != nil {
		return h.fail(c, err)
	}
	return c.Status(http.StatusOK).JSON(dto.Ack{Status: "unlocked"})
}

// PostEntryComplete stores the holder's fields and releases the lease.
func (h *Handler) PostEntryComplete(c *fiber.Ctx) error {
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

	e, err := h.uc.Complete(c.Context(), id, caller(c), entities.EntryCompletion{TrackingUpdate: update})
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(http.StatusOK).JSON(mapper.ToEntry(*e, h.leaseTTL))
}

// GetAvailableEntries lists the sheet entries the caller could lock.
func (h *Handler) GetAvailableEntries(c *fiber.Ctx) error {
	sheetID, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	list, err := h.uc.ListAvailable(c.Context(), sheetID, caller(c), c.Query("team_id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"entries": mapper.ToEntries(list, h.leaseTTL)})
}

// GetMyLocks lists the caller's valid leases.
func (h *Handler) GetMyLocks(c *fiber.Ctx) error {
	list, err := h.uc.ListHeldBy(c.Context(), caller(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"entries": mapper.ToEntries(list, h.leaseTTL)})
}

// PostSweepLocks releases every expired lease.
func (h *Handler) PostSweepLocks(c *fiber.Ctx) error {
	n, err := h.uc.SweepExpired(c.Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(http.StatusOK).JSON(dto.SweepResponse{Released: n})
}
