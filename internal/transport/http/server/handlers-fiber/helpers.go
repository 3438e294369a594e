package handlers_fiber

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"advisory-tracker/internal/entities"
	"advisory-tracker/internal/transport/http/dto"
	"advisory-tracker/internal/transport/http/middleware"

	"github.com/gofiber/fiber/v2"
)

func writeError(c *fiber.Ctx, err error) error {
	status := http.StatusInternalServerError
	code := dto.INTERNAL
	msg := "internal error"
	var details any

	var conflict *entities.LockConflictError
	switch {
	case errors.As(err, &conflict):
		status = http.StatusConflict
		code = dto.LOCKCONFLICT
		msg = "entry is locked by another user"
		details = dto.LockConflictDetails{EntryID: conflict.EntryID, HeldBy: conflict.HeldBy, ExpiresAt: conflict.ExpiresAt}
	case errors.Is(err, entities.ErrLockConflict):
		status = http.StatusConflict
		code = dto.LOCKCONFLICT
		msg = "entry is locked by another user"
	case errors.Is(err, entities.ErrInvalidArgument):
		status = http.StatusBadRequest
		code = dto.INVALIDARGUMENT
		msg = err.Error()
	case errors.Is(err, entities.ErrNotFound):
		status = http.StatusNotFound
		code = dto.NOTFOUND
		msg = err.Error()
	case errors.Is(err, entities.ErrForbidden):
		status = http.StatusForbidden
		code = dto.FORBIDDEN
		msg = err.Error()
	}

	return c.Status(status).JSON(errorResponse(code, msg, details))
}

func errorResponse(code dto.ErrorCode, msg string, details any) dto.ErrorResponse {
	return dto.ErrorResponse{Error: dto.ErrorBody{Code: code, Message: msg, Details: details}}
}

func isInternal(err error) bool {
	return !errors.Is(err, entities.ErrNotFound) &&
		!errors.Is(err, entities.ErrLockConflict) &&
		!errors.Is(err, entities.ErrForbidden) &&
		!errors.Is(err, entities.ErrInvalidArgument)
}

// fail logs internal errors with their cause before answering with an opaque message.
func (h *Handler) fail(c *fiber.Ctx, err error) error {
	if isInternal(err) {
		h.log.Errorw("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	}
	return writeError(c, err)
}

func badBody(c *fiber.Ctx) error {
	return c.Status(http.StatusBadRequest).JSON(errorResponse(dto.INVALIDARGUMENT, "invalid body", nil))
}

func pathID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", entities.ErrInvalidArgument, name)
	}
	return id, nil
}

func caller(c *fiber.Ctx) string {
	return middleware.UserID(c)
}
