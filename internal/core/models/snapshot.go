package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SourceSnapshot is the per-(player, source) watermark: the highest
// cumulative-paid value ever durably observed. It is never lowered by the
// engine; a pool-side counter regression freezes it until an operator
// intervenes.
type SourceSnapshot struct {
	PlayerID       uuid.UUID       `json:"player_id" gorm:"type:uuid;primaryKey"`
	SourceName     string          `json:"source_name" gorm:"type:varchar(64);primaryKey"`
	CumulativePaid decimal.Decimal `json:"cumulative_paid" gorm:"type:decimal(30,12);not null"`
	ObservedAt     time.Time       `json:"observed_at" gorm:"type:timestamp;not null"`
}
