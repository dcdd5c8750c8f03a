package ports

import (
	"context"

	"github.com/shopspring/decimal"
)

type ProbeOutcome string

const (
	ProbeMatched     ProbeOutcome = "matched"
	ProbeNotFound    ProbeOutcome = "not_found"
	ProbeUnavailable ProbeOutcome = "unavailable"
)

// DonationQuery describes the inbound transaction a probe looks for: an
// exact-amount transfer to the donation address with enough confirmations.
type DonationQuery struct {
	DonationAddress  string
	Amount           decimal.Decimal
	MinConfirmations int64
}

type ProbeResult struct {
	Outcome ProbeOutcome
	// TxRef identifies the matched transaction; empty unless Outcome is
	// ProbeMatched.
	TxRef string
}

// EvidenceProbe is one independent way of finding the donation. Probes
// never mutate state; "unavailable" means the method could not answer and
// the next probe in the chain should be consulted.
type EvidenceProbe interface {
	Name() string
	FindDonation(ctx context.Context, query DonationQuery) ProbeResult
}
