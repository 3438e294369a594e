// Package sqlite implements the repository on an embedded SQLite file through gorm.
package sqlite

import (
	"context"
	"errors"
	"fmt"

	"advisory-tracker/config"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	// pure-Go driver registered as "sqlite"
	_ "modernc.org/sqlite"
)

// SQLite wraps a gorm handle over a single connection.
type SQLite struct {
	baseCtx context.Context
	log     *zap.SugaredLogger
	db      *gorm.DB
	dsn     string
}

// New creates a SQLite repository instance.
func New(ctx context.Context, log *zap.SugaredLogger, cfg *config.Config) *SQLite {
	return &SQLite{
		baseCtx: ctx,
		log:     log.Named("repo.sqlite"),
		dsn:     cfg.SQLite.DSN,
	}
}

// OnStart opens the database and migrates the schema.
func (s *SQLite) OnStart(_ context.Context) error {
	db, err := gorm.Open(sqlite.Dialector{DriverName: "sqlite", DSN: s.dsn}, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("sqlite handle: %w", err)
	}
	// One connection: writers serialize and ":memory:" keeps a single database.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := db.WithContext(s.baseCtx).AutoMigrate(models()...); err != nil {
		_ = sqlDB.Close()
		return fmt.Errorf("migrate sqlite: %w", err)
	}

	s.db = db
	s.log.Infow("sqlite ready", "dsn", s.dsn)
	return nil
}

// OnStop closes the database.
func (s *SQLite) OnStop(_ context.Context) error {
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func notFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
