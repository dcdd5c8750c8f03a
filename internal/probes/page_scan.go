package probes

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/oreforge/oreforge-server/internal/core/ports"
	"github.com/oreforge/oreforge-server/pkg/logger"
)

// PageScanProbe is the last-resort evidence method: it fetches the
// explorer's rendered address page and scans the body for the formatted
// challenge amount. It cannot see confirmation depth, so it only fires for
// transactions old enough that the page lists them at all, and it yields a
// synthetic evidence reference.
type PageScanProbe struct {
	baseURL string
	client  *http.Client
}

const pageScanBodyLimit = 1 << 20

func NewPageScanProbe(baseURL string, timeout time.Duration) *PageScanProbe {
	return &PageScanProbe{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *PageScanProbe) Name() string {
	return "page_scan"
}

func (p *PageScanProbe) FindDonation(ctx context.Context, query ports.DonationQuery) ports.ProbeResult {
	log := logger.WithComponent("page_scan_probe")

	endpoint := fmt.Sprintf("%s/address/%s", p.baseURL, url.PathEscape(query.DonationAddress))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return ports.ProbeResult{Outcome: ports.ProbeUnavailable}
	}

	resp, err := p.client.Do(req)
	if err != nil {
		log.Warn().Err(err).Msg("Page fetch failed")
		return ports.ProbeResult{Outcome: ports.ProbeUnavailable}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Msg("Page fetch returned non-OK status")
		return ports.ProbeResult{Outcome: ports.ProbeUnavailable}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, pageScanBodyLimit))
	if err != nil {
		return ports.ProbeResult{Outcome: ports.ProbeUnavailable}
	}

	if amountPattern(query.Amount.String()).Match(body) {
		ref := fmt.Sprintf("page-scan:%s:%s", query.DonationAddress, query.Amount.String())
		return ports.ProbeResult{Outcome: ports.ProbeMatched, TxRef: ref}
	}

	return ports.ProbeResult{Outcome: ports.ProbeNotFound}
}

// amountPattern matches the formatted amount only as a standalone number.
// A bare substring check would let a challenge of 0.4567 fire inside an
// unrelated payment of 10.45678.
func amountPattern(amount string) *regexp.Regexp {
	return regexp.MustCompile(`(^|[^0-9.])` + regexp.QuoteMeta(amount) + `([^0-9]|$)`)
}
