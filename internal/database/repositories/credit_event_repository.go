package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/oreforge/oreforge-server/internal/core/models"
	"github.com/oreforge/oreforge-server/internal/core/ports"
)

type CreditEventRepository struct {
	db *gorm.DB
}

func NewCreditEventRepository(db *gorm.DB) *CreditEventRepository {
	return &CreditEventRepository{db: db}
}

func (r *CreditEventRepository) Create(ctx context.Context, event *models.CreditEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *CreditEventRepository) List(ctx context.Context, filter ports.CreditEventFilter) ([]*models.CreditEvent, error) {
	var events []*models.CreditEvent
	query := r.db.WithContext(ctx).Model(&models.CreditEvent{})

	if filter.PlayerID != nil {
		query = query.Where("player_id = ?", *filter.PlayerID)
	}
	if filter.SourceName != "" {
		query = query.Where("source_name = ?", filter.SourceName)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	err := query.Order("created_at DESC").Find(&events).Error
	return events, err
}

func (r *CreditEventRepository) SumCredited(ctx context.Context, playerID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&models.CreditEvent{}).
		Select("COALESCE(SUM(credited_units), 0) as total").
		Where("player_id = ? AND status = ?", playerID, models.CreditEventStatusSuccess).
		Scan(&result).Error
	if err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}
