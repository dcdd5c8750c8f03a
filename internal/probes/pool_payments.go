package probes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oreforge/oreforge-server/internal/core/ports"
	"github.com/oreforge/oreforge-server/pkg/logger"
)

// PoolPaymentsProbe is the secondary evidence method: some pools expose a
// payment-history endpoint for an address, which sees the donation from
// the sender's side when the explorer is lagging or down.
type PoolPaymentsProbe struct {
	baseURL string
	client  *http.Client
}

type poolPayment struct {
	TxID          string          `json:"txid"`
	Amount        decimal.Decimal `json:"amount"`
	Confirmations int64           `json:"confirmations"`
	Confirmed     bool            `json:"confirmed"`
}

func NewPoolPaymentsProbe(baseURL string, timeout time.Duration) *PoolPaymentsProbe {
	return &PoolPaymentsProbe{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *PoolPaymentsProbe) Name() string {
	return "pool_payments"
}

func (p *PoolPaymentsProbe) FindDonation(ctx context.Context, query ports.DonationQuery) ports.ProbeResult {
	log := logger.WithComponent("pool_payments_probe")

	endpoint := fmt.Sprintf("%s/payments/%s", p.baseURL, url.PathEscape(query.DonationAddress))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return ports.ProbeResult{Outcome: ports.ProbeUnavailable}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		log.Warn().Err(err).Msg("Pool payments request failed")
		return ports.ProbeResult{Outcome: ports.ProbeUnavailable}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Msg("Pool payments returned non-OK status")
		return ports.ProbeResult{Outcome: ports.ProbeUnavailable}
	}

	var payments []poolPayment
	if err := json.NewDecoder(resp.Body).Decode(&payments); err != nil {
		log.Warn().Err(err).Msg("Pool payments response not decodable")
		return ports.ProbeResult{Outcome: ports.ProbeUnavailable}
	}

	for _, payment := range payments {
		if !payment.Amount.Equal(query.Amount) {
			continue
		}
		// Pools report confirmation depth inconsistently; a bare
		// confirmed flag counts as meeting the minimum.
		if payment.Confirmations < query.MinConfirmations && !payment.Confirmed {
			continue
		}
		return ports.ProbeResult{Outcome: ports.ProbeMatched, TxRef: payment.TxID}
	}

	return ports.ProbeResult{Outcome: ports.ProbeNotFound}
}
