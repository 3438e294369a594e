// Package handlers_fiber wires HTTP delivery components.
package handlers_fiber

import (
	"time"

	"advisory-tracker/internal/usecase"

	"go.uber.org/zap"
)

// Handler serves the coordination core over HTTP using usecase interfaces.
type Handler struct {
	log      *zap.SugaredLogger
	uc       usecase.InterfaceUsecase
	leaseTTL time.Duration
}

// NewHandler constructs an HTTP server with service dependencies.
// leaseTTL is only used to report lock expiry to callers.
func NewHandler(log *zap.SugaredLogger, usecase usecase.InterfaceUsecase, leaseTTL time.Duration) *Handler {
	return &Handler{
		log:      log,
		uc:       usecase,
		leaseTTL: leaseTTL,
	}
}
