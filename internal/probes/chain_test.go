package probes

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/oreforge/oreforge-server/internal/core/ports"
)

type stubProbe struct {
	name   string
	result ports.ProbeResult
	calls  int
}

func (p *stubProbe) Name() string {
	return p.name
}

func (p *stubProbe) FindDonation(_ context.Context, _ ports.DonationQuery) ports.ProbeResult {
	p.calls++
	return p.result
}

func testQuery() ports.DonationQuery {
	return ports.DonationQuery{
		DonationAddress:  "donation-addr",
		Amount:           decimal.RequireFromString("0.1234"),
		MinConfirmations: 6,
	}
}

func TestChainStopsAtFirstMatch(t *testing.T) {
	first := &stubProbe{name: "first", result: ports.ProbeResult{Outcome: ports.ProbeMatched, TxRef: "tx-1"}}
	second := &stubProbe{name: "second", result: ports.ProbeResult{Outcome: ports.ProbeMatched, TxRef: "tx-2"}}

	result := NewChain(first, second).Find(context.Background(), testQuery())

	assert.Equal(t, ports.ProbeMatched, result.Outcome)
	assert.Equal(t, "tx-1", result.TxRef)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 0, second.calls, "later probes must not run after a match")
}

func TestChainFallsThroughUnavailableProbe(t *testing.T) {
	down := &stubProbe{name: "down", result: ports.ProbeResult{Outcome: ports.ProbeUnavailable}}
	fallback := &stubProbe{name: "fallback", result: ports.ProbeResult{Outcome: ports.ProbeMatched, TxRef: "tx-fb"}}

	result := NewChain(down, fallback).Find(context.Background(), testQuery())

	assert.Equal(t, ports.ProbeMatched, result.Outcome)
	assert.Equal(t, "tx-fb", result.TxRef)
	assert.Equal(t, 1, down.calls)
	assert.Equal(t, 1, fallback.calls)
}

func TestChainFallsThroughNotFoundProbe(t *testing.T) {
	miss := &stubProbe{name: "miss", result: ports.ProbeResult{Outcome: ports.ProbeNotFound}}
	hit := &stubProbe{name: "hit", result: ports.ProbeResult{Outcome: ports.ProbeMatched, TxRef: "tx-hit"}}

	result := NewChain(miss, hit).Find(context.Background(), testQuery())

	assert.Equal(t, ports.ProbeMatched, result.Outcome)
	assert.Equal(t, "tx-hit", result.TxRef)
}

func TestChainAllMissesReportsNotFound(t *testing.T) {
	a := &stubProbe{name: "a", result: ports.ProbeResult{Outcome: ports.ProbeNotFound}}
	b := &stubProbe{name: "b", result: ports.ProbeResult{Outcome: ports.ProbeUnavailable}}

	result := NewChain(a, b).Find(context.Background(), testQuery())

	assert.Equal(t, ports.ProbeNotFound, result.Outcome)
	assert.Empty(t, result.TxRef)
}

func TestChainEmptyReportsNotFound(t *testing.T) {
	result := NewChain().Find(context.Background(), testQuery())
	assert.Equal(t, ports.ProbeNotFound, result.Outcome)
}

func TestChainStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	slow := &stubProbe{name: "slow", result: ports.ProbeResult{Outcome: ports.ProbeNotFound}}
	never := &stubProbe{name: "never", result: ports.ProbeResult{Outcome: ports.ProbeMatched, TxRef: "tx"}}

	result := NewChain(slow, never).Find(ctx, testQuery())

	assert.Equal(t, ports.ProbeNotFound, result.Outcome)
	assert.Equal(t, 0, never.calls, "cancellation must stop the walk")
}
