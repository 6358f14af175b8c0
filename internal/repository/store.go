// Package repository persists memories, relationship snapshots and
// character state behind gorm.
package repository

import (
	"context"
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/easeaico/mnemosyne/internal/config"
)

// Store holds the DB pool and repositories.
type Store struct {
	db       *gorm.DB
	postgres bool

	Memories      *MemoryRepo
	Relationships *RelationshipRepo
	States        *CharacterStateRepo
}

// NewStore opens the configured database, runs migrations and wires the
// repositories. The postgres driver enables vector similarity search;
// sqlite is for local and test use.
func NewStore(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	var (
		db  *gorm.DB
		err error
	)
	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	switch cfg.Driver {
	case "postgres":
		db, err = gorm.Open(postgres.Open(cfg.DSN), gormCfg)
	case "sqlite":
		db, err = gorm.Open(sqlite.Open(cfg.SQLitePath), gormCfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := db.WithContext(ctx).AutoMigrate(
		&memoryModel{},
		&relationshipModel{},
		&characterStateModel{},
	); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	isPostgres := cfg.Driver == "postgres"
	store := &Store{
		db:            db,
		postgres:      isPostgres,
		Memories:      NewMemoryRepo(db, isPostgres),
		Relationships: NewRelationshipRepo(db),
		States:        NewCharacterStateRepo(db),
	}
	return store, nil
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) Close() {
	if s.db == nil {
		return
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return
	}
	_ = sqlDB.Close()
}
