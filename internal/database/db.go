package database

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/oreforge/oreforge-server/internal/core/models"
)

func Connect(ctx context.Context, dbURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dbURL), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	if err := db.WithContext(ctx).AutoMigrate(
		&models.Player{},
		&models.SourceSnapshot{},
		&models.CreditEvent{},
	); err != nil {
		return nil, fmt.Errorf("error migrating database: %w", err)
	}
	return db, nil
}
