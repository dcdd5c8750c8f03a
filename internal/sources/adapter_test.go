package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oreforge/oreforge-server/internal/core/config"
)

func newTestAdapter(baseURL string, paidFields []string) *PoolAdapter {
	return NewPoolAdapter(config.SourceConfig{
		Name:           "testpool",
		BaseURL:        baseURL,
		PaidFields:     paidFields,
		BalanceFields:  []string{"balance"},
		HashrateFields: []string{"hashrate"},
		ConversionRate: 1,
	}, 5*time.Second)
}

func TestFetchNestedSchema(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/wallet/miner-1", r.URL.Path)
		_, _ = w.Write([]byte(`{"result": {"total_paid": "123.456", "unknown": true}, "balance": 2, "hashrate": 500}`))
	}))
	defer srv.Close()

	adapter := newTestAdapter(srv.URL+"/api/wallet/{wallet}", []string{"result.total_paid"})
	stats, err := adapter.Fetch(context.Background(), "miner-1")
	require.NoError(t, err)

	assert.True(t, stats.CumulativePaid.Equal(decimal.RequireFromString("123.456")))
	assert.True(t, stats.Balance.Equal(decimal.RequireFromString("2")))
	assert.True(t, stats.Hashrate.Equal(decimal.RequireFromString("500")))
}

func TestFetchFallsBackThroughPaidCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"stats": {"paid_total": 88}}`))
	}))
	defer srv.Close()

	adapter := newTestAdapter(srv.URL, []string{"result.total_paid", "totalPaid", "stats.paid_total"})
	stats, err := adapter.Fetch(context.Background(), "miner-1")
	require.NoError(t, err)
	assert.True(t, stats.CumulativePaid.Equal(decimal.RequireFromString("88")))
}

func TestFetchAppendsWalletWithoutPlaceholder(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		_, _ = w.Write([]byte(`{"paid": 1}`))
	}))
	defer srv.Close()

	adapter := newTestAdapter(srv.URL+"/miners/", []string{"paid"})
	_, err := adapter.Fetch(context.Background(), "miner a/b")
	require.NoError(t, err)
	assert.Equal(t, "/miners/miner%20a%2Fb", gotPath, "wallet must be path escaped")
}

func TestFetchConversionRateScalesUnits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// Lamport-style base units.
		_, _ = w.Write([]byte(`{"paid": 2500000000, "balance": 1000000000}`))
	}))
	defer srv.Close()

	adapter := NewPoolAdapter(config.SourceConfig{
		Name:           "testpool",
		BaseURL:        srv.URL,
		PaidFields:     []string{"paid"},
		BalanceFields:  []string{"balance"},
		ConversionRate: 0.000000001,
	}, 5*time.Second)

	stats, err := adapter.Fetch(context.Background(), "miner-1")
	require.NoError(t, err)
	assert.True(t, stats.CumulativePaid.Equal(decimal.RequireFromString("2.5")))
	assert.True(t, stats.Balance.Equal(decimal.RequireFromString("1")))
}

func TestFetchClassifiesWalletNotKnown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	adapter := newTestAdapter(srv.URL, []string{"paid"})
	_, err := adapter.Fetch(context.Background(), "miner-1")
	require.Error(t, err)
	assert.Equal(t, FailureNotFound, KindOf(err))
}

func TestFetchClassifiesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	adapter := newTestAdapter(srv.URL, []string{"paid"})
	_, err := adapter.Fetch(context.Background(), "miner-1")
	require.Error(t, err)
	assert.Equal(t, FailureHTTP, KindOf(err))
}

func TestFetchClassifiesMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer srv.Close()

	adapter := newTestAdapter(srv.URL, []string{"paid"})
	_, err := adapter.Fetch(context.Background(), "miner-1")
	require.Error(t, err)
	assert.Equal(t, FailureMalformed, KindOf(err))
}

func TestFetchClassifiesMissingPaidField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"something_else": 1}`))
	}))
	defer srv.Close()

	adapter := newTestAdapter(srv.URL, []string{"result.total_paid", "paid"})
	_, err := adapter.Fetch(context.Background(), "miner-1")
	require.Error(t, err)
	assert.Equal(t, FailureMalformed, KindOf(err))
	assert.Contains(t, err.Error(), "result.total_paid")
}

func TestFetchClassifiesTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	adapter := newTestAdapter(srv.URL, []string{"paid"})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := adapter.Fetch(ctx, "miner-1")
	require.Error(t, err)
	assert.Equal(t, FailureTimeout, KindOf(err))
}

func TestFetchMissingBalanceIsTolerated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"paid": "9.9"}`))
	}))
	defer srv.Close()

	adapter := newTestAdapter(srv.URL, []string{"paid"})
	stats, err := adapter.Fetch(context.Background(), "miner-1")
	require.NoError(t, err)
	assert.True(t, stats.CumulativePaid.Equal(decimal.RequireFromString("9.9")))
	assert.True(t, stats.Balance.IsZero())
	assert.True(t, stats.Hashrate.IsZero())
}
