package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oreforge/oreforge-server/internal/core/config"
	"github.com/oreforge/oreforge-server/internal/core/ports"
)

const walletPlaceholder = "{wallet}"

// PoolAdapter turns one pool's wallet-stats endpoint into the canonical
// NormalizedStats record. Everything source-specific lives in the config
// block: the URL shape, the ordered field candidates, and the unit
// conversion into credit units.
type PoolAdapter struct {
	name           string
	baseURL        string
	paidFields     []string
	balanceFields  []string
	hashrateFields []string
	conversionRate decimal.Decimal
	client         *http.Client
}

func NewPoolAdapter(cfg config.SourceConfig, timeout time.Duration) *PoolAdapter {
	return &PoolAdapter{
		name:           cfg.Name,
		baseURL:        cfg.BaseURL,
		paidFields:     cfg.PaidFields,
		balanceFields:  cfg.BalanceFields,
		hashrateFields: cfg.HashrateFields,
		conversionRate: decimal.NewFromFloat(cfg.ConversionRate),
		client:         &http.Client{Timeout: timeout},
	}
}

// FromConfigs builds one adapter per configured source.
func FromConfigs(cfgs []config.SourceConfig, timeout time.Duration) []ports.PoolSource {
	adapters := make([]ports.PoolSource, 0, len(cfgs))
	for _, cfg := range cfgs {
		adapters = append(adapters, NewPoolAdapter(cfg, timeout))
	}
	return adapters
}

func (a *PoolAdapter) Name() string {
	return a.name
}

func (a *PoolAdapter) statsURL(walletAddress string) string {
	escaped := url.PathEscape(walletAddress)
	if strings.Contains(a.baseURL, walletPlaceholder) {
		return strings.ReplaceAll(a.baseURL, walletPlaceholder, escaped)
	}
	return strings.TrimSuffix(a.baseURL, "/") + "/" + escaped
}

func (a *PoolAdapter) Fetch(ctx context.Context, walletAddress string) (*ports.NormalizedStats, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.statsURL(walletAddress), nil)
	if err != nil {
		return nil, &FetchError{Source: a.name, Kind: FailureMalformed, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		kind := FailureHTTP
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Timeout() {
			kind = FailureTimeout
		} else if errors.Is(err, context.DeadlineExceeded) {
			kind = FailureTimeout
		}
		return nil, &FetchError{Source: a.name, Kind: kind, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, &FetchError{Source: a.name, Kind: FailureNotFound, Err: fmt.Errorf("wallet not known to pool")}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, &FetchError{Source: a.name, Kind: FailureHTTP, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var root any
	if err := dec.Decode(&root); err != nil {
		return nil, &FetchError{Source: a.name, Kind: FailureMalformed, Err: err}
	}

	paid, ok := firstCandidate(root, a.paidFields)
	if !ok {
		return nil, &FetchError{
			Source: a.name,
			Kind:   FailureMalformed,
			Err:    fmt.Errorf("no cumulative-paid candidate matched (tried %s)", strings.Join(a.paidFields, ", ")),
		}
	}

	// Balance and hashrate are informational; a source that stops
	// reporting them still reconciles.
	balance, _ := firstCandidate(root, a.balanceFields)
	hashrate, _ := firstCandidate(root, a.hashrateFields)

	return &ports.NormalizedStats{
		CumulativePaid: paid.Mul(a.conversionRate),
		Balance:        balance.Mul(a.conversionRate),
		Hashrate:       hashrate,
	}, nil
}
