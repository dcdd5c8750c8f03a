package probes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/oreforge/oreforge-server/internal/core/ports"
)

func paymentsServer(t *testing.T, body string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payments/donation-addr", r.URL.Path)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func TestPoolPaymentsProbeMatchesByConfirmations(t *testing.T) {
	srv := paymentsServer(t, `[
		{"txid": "pay-1", "amount": "0.9", "confirmations": 30},
		{"txid": "pay-2", "amount": "0.1234", "confirmations": 8}
	]`, http.StatusOK)
	defer srv.Close()

	probe := NewPoolPaymentsProbe(srv.URL, time.Second)
	result := probe.FindDonation(context.Background(), testQuery())

	assert.Equal(t, ports.ProbeMatched, result.Outcome)
	assert.Equal(t, "pay-2", result.TxRef)
}

func TestPoolPaymentsProbeAcceptsConfirmedFlag(t *testing.T) {
	srv := paymentsServer(t, `[
		{"txid": "pay-flag", "amount": "0.1234", "confirmations": 0, "confirmed": true}
	]`, http.StatusOK)
	defer srv.Close()

	probe := NewPoolPaymentsProbe(srv.URL, time.Second)
	result := probe.FindDonation(context.Background(), testQuery())

	assert.Equal(t, ports.ProbeMatched, result.Outcome)
	assert.Equal(t, "pay-flag", result.TxRef)
}

func TestPoolPaymentsProbeIgnoresShallowUnconfirmed(t *testing.T) {
	srv := paymentsServer(t, `[
		{"txid": "pay-shallow", "amount": "0.1234", "confirmations": 1, "confirmed": false}
	]`, http.StatusOK)
	defer srv.Close()

	probe := NewPoolPaymentsProbe(srv.URL, time.Second)
	result := probe.FindDonation(context.Background(), testQuery())

	assert.Equal(t, ports.ProbeNotFound, result.Outcome)
}

func TestPoolPaymentsProbeUnavailableOnServerError(t *testing.T) {
	srv := paymentsServer(t, `[]`, http.StatusBadGateway)
	defer srv.Close()

	probe := NewPoolPaymentsProbe(srv.URL, time.Second)
	result := probe.FindDonation(context.Background(), testQuery())

	assert.Equal(t, ports.ProbeUnavailable, result.Outcome)
}
