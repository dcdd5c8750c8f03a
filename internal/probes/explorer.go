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

// ExplorerProbe is the primary evidence method: it lists recent inbound
// transactions for the donation address on a block-explorer API and looks
// for an exact amount match with enough confirmations.
type ExplorerProbe struct {
	baseURL string
	client  *http.Client
}

type explorerTransaction struct {
	Hash          string          `json:"hash"`
	Recipient     string          `json:"recipient"`
	Amount        decimal.Decimal `json:"amount"`
	Confirmations int64           `json:"confirmations"`
}

type explorerResponse struct {
	Transactions []explorerTransaction `json:"transactions"`
}

func NewExplorerProbe(baseURL string, timeout time.Duration) *ExplorerProbe {
	return &ExplorerProbe{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *ExplorerProbe) Name() string {
	return "explorer"
}

func (p *ExplorerProbe) FindDonation(ctx context.Context, query ports.DonationQuery) ports.ProbeResult {
	log := logger.WithComponent("explorer_probe")

	endpoint := fmt.Sprintf("%s/accounts/%s/transactions",
		p.baseURL, url.PathEscape(query.DonationAddress))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return ports.ProbeResult{Outcome: ports.ProbeUnavailable}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		log.Warn().Err(err).Msg("Explorer request failed")
		return ports.ProbeResult{Outcome: ports.ProbeUnavailable}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Msg("Explorer returned non-OK status")
		return ports.ProbeResult{Outcome: ports.ProbeUnavailable}
	}

	var payload explorerResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		log.Warn().Err(err).Msg("Explorer response not decodable")
		return ports.ProbeResult{Outcome: ports.ProbeUnavailable}
	}

	for _, tx := range payload.Transactions {
		if tx.Recipient != "" && !strings.EqualFold(tx.Recipient, query.DonationAddress) {
			continue
		}
		if !tx.Amount.Equal(query.Amount) {
			continue
		}
		if tx.Confirmations < query.MinConfirmations {
			log.Debug().
				Str("tx", tx.Hash).
				Int64("confirmations", tx.Confirmations).
				Int64("required", query.MinConfirmations).
				Msg("Amount matched but not yet confirmed")
			continue
		}
		return ports.ProbeResult{Outcome: ports.ProbeMatched, TxRef: tx.Hash}
	}

	return ports.ProbeResult{Outcome: ports.ProbeNotFound}
}
