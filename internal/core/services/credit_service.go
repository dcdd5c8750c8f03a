package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oreforge/oreforge-server/internal/core/models"
	"github.com/oreforge/oreforge-server/internal/core/ports"
	"github.com/oreforge/oreforge-server/internal/sources"
	"github.com/oreforge/oreforge-server/pkg/logger"
)

// CreditService turns observed pool payout growth into credited units.
// Observations are compared against the durable watermark, so re-running a
// cycle after a crash either sees its own committed writes reflected in
// the watermark or recomputes the same delta; credits are exactly-once per
// unit of observed payout.
type CreditService struct {
	locks     *PlayerLocks
	players   ports.PlayerRepository
	snapshots ports.SnapshotRepository
	events    ports.CreditEventRepository
	ledger    ports.LedgerRepository
	notifier  ports.Notifier
	rate      decimal.Decimal
	minDelta  decimal.Decimal
}

func NewCreditService(
	locks *PlayerLocks,
	players ports.PlayerRepository,
	snapshots ports.SnapshotRepository,
	events ports.CreditEventRepository,
	ledger ports.LedgerRepository,
	notifier ports.Notifier,
	rate decimal.Decimal,
	minDelta decimal.Decimal,
) *CreditService {
	return &CreditService{
		locks:     locks,
		players:   players,
		snapshots: snapshots,
		events:    events,
		ledger:    ledger,
		notifier:  notifier,
		rate:      rate,
		minDelta:  minDelta,
	}
}

// ReconcilePair fetches fresh stats for one (player, source) pair and
// applies the outcome. Convenience composition of a fetch and Apply for
// callers that do not need to overlap fetches.
func (s *CreditService) ReconcilePair(ctx context.Context, walletAddress string, source ports.PoolSource) error {
	stats, fetchErr := source.Fetch(ctx, walletAddress)
	return s.Apply(ctx, walletAddress, source.Name(), stats, fetchErr)
}

// Apply records the outcome of one fetch. Exactly one of stats and
// fetchErr is meaningful. The player row is reloaded under the per-player
// lock so concurrently completing fetches for other sources of the same
// wallet cannot interleave their total updates.
func (s *CreditService) Apply(ctx context.Context, walletAddress, sourceName string, stats *ports.NormalizedStats, fetchErr error) error {
	log := logger.WithComponent("credit_engine").With().
		Str("wallet", walletAddress).
		Str("source", sourceName).
		Logger()

	unlock := s.locks.Lock(walletAddress)
	defer unlock()

	player, err := s.players.GetByWallet(ctx, walletAddress)
	if err != nil {
		return fmt.Errorf("load player: %w", err)
	}

	if fetchErr != nil {
		kind := sources.KindOf(fetchErr)
		log.Warn().Err(fetchErr).Str("failure", string(kind)).Msg("Source fetch failed")

		event := models.NewCreditEvent(player.ID, sourceName, models.CreditEventStatusError)
		msg := fmt.Sprintf("%s: %v", kind, fetchErr)
		event.ErrorMessage = &msg
		if err := s.events.Create(ctx, event); err != nil {
			return fmt.Errorf("record fetch failure: %w", err)
		}
		return nil
	}

	snapshot, err := s.snapshots.Get(ctx, player.ID, sourceName)
	if errors.Is(err, ports.ErrSnapshotNotFound) {
		// First sighting establishes the baseline without crediting,
		// otherwise onboarding would award the wallet's whole
		// pre-existing payout history.
		log.Info().Str("cumulative_paid", stats.CumulativePaid.String()).Msg("Baseline watermark established")
		return s.snapshots.Create(ctx, &models.SourceSnapshot{
			PlayerID:       player.ID,
			SourceName:     sourceName,
			CumulativePaid: stats.CumulativePaid,
			ObservedAt:     time.Now().UTC(),
		})
	}
	if err != nil {
		return fmt.Errorf("load watermark: %w", err)
	}

	delta := stats.CumulativePaid.Sub(snapshot.CumulativePaid)

	if delta.IsNegative() {
		// Pool counter regression. The watermark stays put so a later
		// re-climb past it cannot double credit; clearing the snapshot
		// row is a manual operator action after review.
		log.Warn().
			Str("watermark", snapshot.CumulativePaid.String()).
			Str("observed", stats.CumulativePaid.String()).
			Msg("Negative payout delta, watermark frozen")

		event := models.NewCreditEvent(player.ID, sourceName, models.CreditEventStatusFailed)
		event.DeltaAmount = delta
		msg := fmt.Sprintf("negative delta: watermark %s, observed %s",
			snapshot.CumulativePaid.String(), stats.CumulativePaid.String())
		event.ErrorMessage = &msg
		if err := s.events.Create(ctx, event); err != nil {
			return fmt.Errorf("record anomaly: %w", err)
		}
		return nil
	}

	if delta.IsZero() || delta.LessThan(s.minDelta) {
		// A flat counter writes nothing, even with a zero threshold.
		// Below-threshold growth accumulates against the unchanged
		// watermark and is credited once it adds up.
		return nil
	}

	credited := delta.Mul(s.rate)
	if err := s.ledger.ApplyCredit(ctx, ports.CreditApplication{
		Player:        player,
		SourceName:    sourceName,
		NewCumulative: stats.CumulativePaid,
		Delta:         delta,
		CreditedUnits: credited,
		ObservedAt:    time.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("apply credit: %w", err)
	}

	log.Info().
		Str("delta", delta.String()).
		Str("credited", credited.String()).
		Str("credited_total", player.CreditedTotal.String()).
		Msg("Payout delta credited")

	total := player.CreditedTotal
	amount := credited
	s.notifier.Publish(models.Notification{
		Type:          models.NotificationCreditAwarded,
		Wallet:        player.WalletAddress,
		Amount:        &amount,
		CreditedTotal: &total,
		Timestamp:     time.Now().UTC(),
	})

	return nil
}

// LedgerTotal recomputes a player's credited total from the append-only
// event log, independently of the mutable player row.
func (s *CreditService) LedgerTotal(ctx context.Context, player *models.Player) (decimal.Decimal, error) {
	return s.events.SumCredited(ctx, player.ID)
}
