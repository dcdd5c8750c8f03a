package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/oreforge/oreforge-server/internal/core/models"
	"github.com/oreforge/oreforge-server/internal/core/ports"
)

type PlayerRepository struct {
	db *gorm.DB
}

func NewPlayerRepository(db *gorm.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

func (r *PlayerRepository) Create(ctx context.Context, player *models.Player) error {
	return r.db.WithContext(ctx).Create(player).Error
}

func (r *PlayerRepository) Update(ctx context.Context, player *models.Player) error {
	player.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Save(player).Error
}

func (r *PlayerRepository) GetByWallet(ctx context.Context, walletAddress string) (*models.Player, error) {
	var player models.Player
	err := r.db.WithContext(ctx).Where("wallet_address = ?", walletAddress).First(&player).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ports.ErrPlayerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &player, nil
}

func (r *PlayerRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	var player models.Player
	err := r.db.WithContext(ctx).First(&player, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ports.ErrPlayerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &player, nil
}

func (r *PlayerRepository) List(ctx context.Context, filter ports.PlayerFilter) ([]*models.Player, error) {
	var players []*models.Player
	query := r.db.WithContext(ctx).Model(&models.Player{})

	if filter.Verified != nil {
		query = query.Where("verified = ?", *filter.Verified)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	err := query.Order("created_at ASC").Find(&players).Error
	return players, err
}

func (r *PlayerRepository) ListPendingVerification(ctx context.Context) ([]*models.Player, error) {
	var players []*models.Player
	err := r.db.WithContext(ctx).
		Where("verified = ? AND challenge_amount IS NOT NULL", false).
		Order("verification_requested_at ASC").
		Find(&players).Error
	return players, err
}

func (r *PlayerRepository) ChallengeAmountInUse(ctx context.Context, amount decimal.Decimal, excludeID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Player{}).
		Where("challenge_amount = ? AND id <> ?", amount, excludeID).
		Count(&count).Error
	return count > 0, err
}
