package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type VerificationStatus string

const (
	VerificationStatusUnverified VerificationStatus = "unverified"
	VerificationStatusPending    VerificationStatus = "pending"
	VerificationStatusVerified   VerificationStatus = "verified"
)

// Player tracks one wallet and everything the game credits it for.
// CreditedTotal only ever grows through the ledger; the CreditEvent log is
// the authoritative record it can be rebuilt from.
type Player struct {
	ID                      uuid.UUID        `json:"id" gorm:"type:uuid;primaryKey"`
	WalletAddress           string           `json:"wallet_address" gorm:"type:varchar(128);uniqueIndex;not null"`
	Verified                bool             `json:"verified" gorm:"not null;default:false"`
	ChallengeAmount         *decimal.Decimal `json:"challenge_amount,omitempty" gorm:"type:decimal(30,12)"`
	VerificationRequestedAt *time.Time       `json:"verification_requested_at,omitempty" gorm:"type:timestamp"`
	VerificationExpiresAt   *time.Time       `json:"verification_expires_at,omitempty" gorm:"type:timestamp"`
	VerificationTxRef       *string          `json:"verification_tx_ref,omitempty" gorm:"type:varchar(255)"`
	CreditedTotal           decimal.Decimal  `json:"credited_total" gorm:"type:decimal(30,12);not null;default:0"`
	CreatedAt               time.Time        `json:"created_at" gorm:"type:timestamp"`
	UpdatedAt               time.Time        `json:"updated_at" gorm:"type:timestamp"`
}

func NewPlayer(walletAddress string) *Player {
	now := time.Now().UTC()
	return &Player{
		ID:            uuid.New(),
		WalletAddress: walletAddress,
		CreditedTotal: decimal.Zero,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// HasActiveChallenge reports whether a drawn challenge is still inside its
// expiry window at the given instant.
func (p *Player) HasActiveChallenge(now time.Time) bool {
	return p.ChallengeAmount != nil && p.VerificationExpiresAt != nil && now.Before(*p.VerificationExpiresAt)
}

// ChallengeExpired reports whether a drawn challenge has outlived its
// window without being matched.
func (p *Player) ChallengeExpired(now time.Time) bool {
	return p.ChallengeAmount != nil && p.VerificationExpiresAt != nil && !now.Before(*p.VerificationExpiresAt)
}

func (p *Player) Status(now time.Time) VerificationStatus {
	switch {
	case p.Verified:
		return VerificationStatusVerified
	case p.HasActiveChallenge(now):
		return VerificationStatusPending
	default:
		return VerificationStatusUnverified
	}
}

// ClearChallenge drops all pending-challenge fields; used on both expiry
// and successful verification.
func (p *Player) ClearChallenge() {
	p.ChallengeAmount = nil
	p.VerificationRequestedAt = nil
	p.VerificationExpiresAt = nil
}
