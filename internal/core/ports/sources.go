package ports

import (
	"context"

	"github.com/shopspring/decimal"
)

// NormalizedStats is the canonical record every pool adapter reduces its
// source-specific response to, already converted into credit units.
type NormalizedStats struct {
	CumulativePaid decimal.Decimal
	Balance        decimal.Decimal
	Hashrate       decimal.Decimal
}

type PoolSource interface {
	Name() string
	Fetch(ctx context.Context, walletAddress string) (*NormalizedStats, error)
}
