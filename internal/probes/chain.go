package probes

import (
	"context"

	"github.com/oreforge/oreforge-server/internal/core/ports"
	"github.com/oreforge/oreforge-server/pkg/logger"
)

// Chain runs evidence probes in order and stops at the first positive
// match. "not_found" and "unavailable" both fall through: a probe that
// cannot answer must not veto a later one that can. Every attempt is
// logged, which is the main diagnostic for schema drift in the third-party
// APIs behind the probes.
type Chain struct {
	probes []ports.EvidenceProbe
}

func NewChain(probes ...ports.EvidenceProbe) *Chain {
	return &Chain{probes: probes}
}

func (c *Chain) Find(ctx context.Context, query ports.DonationQuery) ports.ProbeResult {
	log := logger.WithComponent("evidence_chain")

	for _, probe := range c.probes {
		result := probe.FindDonation(ctx, query)

		log.Info().
			Str("probe", probe.Name()).
			Str("outcome", string(result.Outcome)).
			Str("amount", query.Amount.String()).
			Msg("Evidence probe attempt")

		if result.Outcome == ports.ProbeMatched {
			return result
		}
		if ctx.Err() != nil {
			break
		}
	}

	return ports.ProbeResult{Outcome: ports.ProbeNotFound}
}
