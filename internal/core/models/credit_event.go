package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreditEventStatus string

const (
	CreditEventStatusSuccess CreditEventStatus = "success"
	CreditEventStatusFailed  CreditEventStatus = "failed"
	CreditEventStatusExpired CreditEventStatus = "expired"
	CreditEventStatusError   CreditEventStatus = "error"
)

// SourceVerification is the pseudo-source name used for events produced by
// the wallet verification flow rather than a pool.
const SourceVerification = "verification"

// CreditEvent is one row of the append-only audit log. Rows are never
// updated or deleted; summing successful CreditedUnits per player must
// reproduce Player.CreditedTotal.
type CreditEvent struct {
	ID            uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey"`
	PlayerID      uuid.UUID         `json:"player_id" gorm:"type:uuid;index;not null"`
	SourceName    string            `json:"source_name" gorm:"type:varchar(64);index;not null"`
	DeltaAmount   decimal.Decimal   `json:"delta_amount" gorm:"type:decimal(30,12);not null"`
	CreditedUnits decimal.Decimal   `json:"credited_units" gorm:"type:decimal(30,12);not null"`
	Status        CreditEventStatus `json:"status" gorm:"type:varchar(16);index;not null"`
	EvidenceRef   *string           `json:"evidence_ref,omitempty" gorm:"type:varchar(255)"`
	ErrorMessage  *string           `json:"error_message,omitempty" gorm:"type:text"`
	CreatedAt     time.Time         `json:"created_at" gorm:"type:timestamp"`
}

func NewCreditEvent(playerID uuid.UUID, sourceName string, status CreditEventStatus) *CreditEvent {
	return &CreditEvent{
		ID:            uuid.New(),
		PlayerID:      playerID,
		SourceName:    sourceName,
		DeltaAmount:   decimal.Zero,
		CreditedUnits: decimal.Zero,
		Status:        status,
		CreatedAt:     time.Now().UTC(),
	}
}
