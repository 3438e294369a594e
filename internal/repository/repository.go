// Package repository provides factory for repositories.
package repository

import (
	"context"
	"fmt"

	"advisory-tracker/config"
	"advisory-tracker/internal/repository/postgres"
	"advisory-tracker/internal/repository/sqlite"

	"go.uber.org/zap"
)

// Repository aggregates all persistence interfaces.
type Repository interface {
	LifecycleInterface
	SheetInterface
	TeamInterface
	LeaseInterface
	DistributionInterface
	ResponseInterface
}

// New constructs repository backend by name.
func New(ctx context.Context, name string, log *zap.SugaredLogger, cfg *config.Config) (Repository, error) {
	switch name {
	case "postgres":
		return postgres.New(ctx, log, cfg), nil
	case "sqlite":
		return sqlite.New(ctx, log, cfg), nil
	default:
		return nil, fmt.Errorf("unknown repo backend: %s", name)
	}
}
