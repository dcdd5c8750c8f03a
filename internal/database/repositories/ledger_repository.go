package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oreforge/oreforge-server/internal/core/models"
	"github.com/oreforge/oreforge-server/internal/core/ports"
)

// LedgerRepository commits the multi-row state changes of the credit and
// verification flows. Each method runs inside one transaction so a credit
// event row can never exist without its watermark advance and total bump,
// and vice versa.
type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) ApplyCredit(ctx context.Context, app ports.CreditApplication) error {
	now := time.Now().UTC()

	event := models.NewCreditEvent(app.Player.ID, app.SourceName, models.CreditEventStatusSuccess)
	event.DeltaAmount = app.Delta
	event.CreditedUnits = app.CreditedUnits
	event.EvidenceRef = app.EvidenceRef

	newTotal := app.Player.CreditedTotal.Add(app.CreditedUnits)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(event).Error; err != nil {
			return err
		}

		snapshot := models.SourceSnapshot{
			PlayerID:       app.Player.ID,
			SourceName:     app.SourceName,
			CumulativePaid: app.NewCumulative,
			ObservedAt:     app.ObservedAt,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "player_id"}, {Name: "source_name"}},
			DoUpdates: clause.AssignmentColumns([]string{"cumulative_paid", "observed_at"}),
		}).Create(&snapshot).Error; err != nil {
			return err
		}

		return tx.Model(&models.Player{}).
			Where("id = ?", app.Player.ID).
			Updates(map[string]interface{}{
				"credited_total": newTotal,
				"updated_at":     now,
			}).Error
	})
	if err != nil {
		return err
	}

	app.Player.CreditedTotal = newTotal
	app.Player.UpdatedAt = now
	return nil
}

func (r *LedgerRepository) CommitVerification(ctx context.Context, commit ports.VerificationCommit) error {
	now := time.Now().UTC()

	event := models.NewCreditEvent(commit.Player.ID, models.SourceVerification, models.CreditEventStatusSuccess)
	event.DeltaAmount = commit.Amount
	event.CreditedUnits = commit.CreditedUnits
	event.EvidenceRef = &commit.EvidenceRef

	newTotal := commit.Player.CreditedTotal.Add(commit.CreditedUnits)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(event).Error; err != nil {
			return err
		}

		return tx.Model(&models.Player{}).
			Where("id = ?", commit.Player.ID).
			Updates(map[string]interface{}{
				"verified":                  true,
				"challenge_amount":          nil,
				"verification_requested_at": nil,
				"verification_expires_at":   nil,
				"verification_tx_ref":       commit.EvidenceRef,
				"credited_total":            newTotal,
				"updated_at":                now,
			}).Error
	})
	if err != nil {
		return err
	}

	commit.Player.Verified = true
	commit.Player.ClearChallenge()
	commit.Player.VerificationTxRef = &commit.EvidenceRef
	commit.Player.CreditedTotal = newTotal
	commit.Player.UpdatedAt = now
	return nil
}

func (r *LedgerRepository) ExpireChallenge(ctx context.Context, player *models.Player) error {
	now := time.Now().UTC()

	event := models.NewCreditEvent(player.ID, models.SourceVerification, models.CreditEventStatusExpired)
	if player.ChallengeAmount != nil {
		event.DeltaAmount = *player.ChallengeAmount
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(event).Error; err != nil {
			return err
		}

		return tx.Model(&models.Player{}).
			Where("id = ?", player.ID).
			Updates(map[string]interface{}{
				"challenge_amount":          nil,
				"verification_requested_at": nil,
				"verification_expires_at":   nil,
				"updated_at":                now,
			}).Error
	})
	if err != nil {
		return err
	}

	player.ClearChallenge()
	player.UpdatedAt = now
	return nil
}
