package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oreforge/oreforge-server/internal/core/models"
	"github.com/oreforge/oreforge-server/internal/core/ports"
)

type SnapshotRepository struct {
	db *gorm.DB
}

func NewSnapshotRepository(db *gorm.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

func (r *SnapshotRepository) Get(ctx context.Context, playerID uuid.UUID, sourceName string) (*models.SourceSnapshot, error) {
	var snapshot models.SourceSnapshot
	err := r.db.WithContext(ctx).
		Where("player_id = ? AND source_name = ?", playerID, sourceName).
		First(&snapshot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ports.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (r *SnapshotRepository) Create(ctx context.Context, snapshot *models.SourceSnapshot) error {
	return r.db.WithContext(ctx).Create(snapshot).Error
}
