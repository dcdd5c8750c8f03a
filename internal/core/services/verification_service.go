package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oreforge/oreforge-server/internal/core/config"
	"github.com/oreforge/oreforge-server/internal/core/models"
	"github.com/oreforge/oreforge-server/internal/core/ports"
	"github.com/oreforge/oreforge-server/pkg/logger"
)

// EvidenceFinder is what the verification flow needs from the probe
// chain: one answer for one challenge.
type EvidenceFinder interface {
	Find(ctx context.Context, query ports.DonationQuery) ports.ProbeResult
}

const maxChallengeDraws = 50

// VerificationService runs the wallet-ownership challenge lifecycle. A
// registered wallet is asked to donate a uniquely drawn amount; because the
// payment rail has no memo field, the amount alone must identify the
// sender, which is why no two pending challenges may share a value.
type VerificationService struct {
	locks    *PlayerLocks
	players  ports.PlayerRepository
	ledger   ports.LedgerRepository
	events   ports.CreditEventRepository
	notifier ports.Notifier
	finder   EvidenceFinder
	cfg      config.VerificationConfig

	// drawMu serializes challenge issuance across wallets: the per-player
	// lock cannot stop two concurrent draws from both passing the
	// uniqueness check before either persists.
	drawMu sync.Mutex

	bonusRate decimal.Decimal
	window    time.Duration
}

func NewVerificationService(
	locks *PlayerLocks,
	players ports.PlayerRepository,
	ledger ports.LedgerRepository,
	events ports.CreditEventRepository,
	notifier ports.Notifier,
	finder EvidenceFinder,
	cfg config.VerificationConfig,
) (*VerificationService, error) {
	bonusRate, err := decimal.NewFromString(cfg.BonusRate)
	if err != nil {
		return nil, fmt.Errorf("invalid bonus rate %q: %w", cfg.BonusRate, err)
	}
	return &VerificationService{
		locks:     locks,
		players:   players,
		ledger:    ledger,
		events:    events,
		notifier:  notifier,
		finder:    finder,
		cfg:       cfg,
		bonusRate: bonusRate,
		window:    cfg.Window(),
	}, nil
}

// Register creates the player on first sight and issues a challenge.
// Verified players and players with a live challenge get their current
// state back unchanged.
func (s *VerificationService) Register(ctx context.Context, walletAddress string) (*models.Player, error) {
	log := logger.WithComponent("verification").With().Str("wallet", walletAddress).Logger()

	unlock := s.locks.Lock(walletAddress)
	defer unlock()

	player, err := s.players.GetByWallet(ctx, walletAddress)
	if errors.Is(err, ports.ErrPlayerNotFound) {
		player = models.NewPlayer(walletAddress)
		if err := s.players.Create(ctx, player); err != nil {
			return nil, fmt.Errorf("create player: %w", err)
		}
		log.Info().Msg("Player registered")
	} else if err != nil {
		return nil, fmt.Errorf("load player: %w", err)
	}

	now := time.Now().UTC()
	if player.Verified || player.HasActiveChallenge(now) {
		return player, nil
	}

	// A stale challenge is swept lazily here if the background sweep
	// has not reached it yet; re-registration must draw fresh.
	if player.ChallengeExpired(now) {
		if err := s.expire(ctx, player); err != nil {
			return nil, err
		}
	}

	if err := s.issueChallenge(ctx, player, now); err != nil {
		return nil, err
	}

	log.Info().
		Str("challenge_amount", player.ChallengeAmount.String()).
		Time("expires_at", *player.VerificationExpiresAt).
		Msg("Verification challenge issued")

	return player, nil
}

// issueChallenge draws a unique amount and persists the challenge. The
// uniqueness check and the write happen under one mutex so no two pending
// challenges can ever hold the same amount, whatever wallets register
// concurrently.
func (s *VerificationService) issueChallenge(ctx context.Context, player *models.Player, now time.Time) error {
	s.drawMu.Lock()
	defer s.drawMu.Unlock()

	amount, err := s.drawChallengeAmount(ctx, player)
	if err != nil {
		return err
	}

	expiresAt := now.Add(s.window)
	player.ChallengeAmount = &amount
	player.VerificationRequestedAt = &now
	player.VerificationExpiresAt = &expiresAt
	if err := s.players.Update(ctx, player); err != nil {
		return fmt.Errorf("store challenge: %w", err)
	}
	return nil
}

// drawChallengeAmount picks a uniformly random amount at the configured
// precision and redraws while another pending challenge holds the same
// value. Collisions resolve internally; callers never see them. Callers
// hold drawMu.
func (s *VerificationService) drawChallengeAmount(ctx context.Context, player *models.Player) (decimal.Decimal, error) {
	scale := decimal.New(1, s.cfg.AmountPrecision)
	minUnits := decimal.NewFromFloat(s.cfg.AmountMin).Mul(scale).IntPart()
	maxUnits := decimal.NewFromFloat(s.cfg.AmountMax).Mul(scale).IntPart()
	span := maxUnits - minUnits + 1

	for attempt := 0; attempt < maxChallengeDraws; attempt++ {
		n, err := rand.Int(rand.Reader, big.NewInt(span))
		if err != nil {
			return decimal.Zero, fmt.Errorf("draw challenge amount: %w", err)
		}
		amount := decimal.New(minUnits+n.Int64(), -s.cfg.AmountPrecision)

		inUse, err := s.players.ChallengeAmountInUse(ctx, amount, player.ID)
		if err != nil {
			return decimal.Zero, fmt.Errorf("check challenge uniqueness: %w", err)
		}
		if !inUse {
			return amount, nil
		}
	}
	return decimal.Zero, fmt.Errorf("no unique challenge amount after %d draws", maxChallengeDraws)
}

// CheckNow runs the evidence chain for one wallet immediately, outside the
// periodic sweep.
func (s *VerificationService) CheckNow(ctx context.Context, walletAddress string) (*models.Player, error) {
	unlock := s.locks.Lock(walletAddress)
	defer unlock()

	player, err := s.players.GetByWallet(ctx, walletAddress)
	if err != nil {
		return nil, err
	}

	if player.Verified {
		return player, nil
	}

	now := time.Now().UTC()
	if player.ChallengeExpired(now) {
		if err := s.expire(ctx, player); err != nil {
			return nil, err
		}
		return player, nil
	}
	if !player.HasActiveChallenge(now) {
		return player, nil
	}

	if _, err := s.checkEvidence(ctx, player); err != nil {
		return nil, err
	}
	return player, nil
}

// checkEvidence runs the probe chain for a pending player and commits the
// verification if a probe matched.
func (s *VerificationService) checkEvidence(ctx context.Context, player *models.Player) (bool, error) {
	result := s.finder.Find(ctx, ports.DonationQuery{
		DonationAddress:  s.cfg.DonationAddress,
		Amount:           *player.ChallengeAmount,
		MinConfirmations: s.cfg.MinConfirmations,
	})
	if result.Outcome != ports.ProbeMatched {
		return false, nil
	}
	return true, s.commit(ctx, player, *player.ChallengeAmount, result.TxRef)
}

// commit finalizes a verification: bonus credit, verified flag, challenge
// cleared, all in one transaction, then the notifier event.
func (s *VerificationService) commit(ctx context.Context, player *models.Player, amount decimal.Decimal, evidenceRef string) error {
	log := logger.WithComponent("verification").With().Str("wallet", player.WalletAddress).Logger()

	bonus := amount.Mul(s.bonusRate)
	if err := s.ledger.CommitVerification(ctx, ports.VerificationCommit{
		Player:        player,
		Amount:        amount,
		CreditedUnits: bonus,
		EvidenceRef:   evidenceRef,
	}); err != nil {
		return fmt.Errorf("commit verification: %w", err)
	}

	log.Info().
		Str("evidence_ref", evidenceRef).
		Str("bonus", bonus.String()).
		Msg("Wallet verified")

	total := player.CreditedTotal
	s.notifier.Publish(models.Notification{
		Type:          models.NotificationVerified,
		Wallet:        player.WalletAddress,
		Amount:        &bonus,
		CreditedTotal: &total,
		Timestamp:     time.Now().UTC(),
	})
	return nil
}

func (s *VerificationService) expire(ctx context.Context, player *models.Player) error {
	log := logger.WithComponent("verification").With().Str("wallet", player.WalletAddress).Logger()

	if err := s.ledger.ExpireChallenge(ctx, player); err != nil {
		return fmt.Errorf("expire challenge: %w", err)
	}

	log.Info().Msg("Verification challenge expired")

	s.notifier.Publish(models.Notification{
		Type:      models.NotificationExpired,
		Wallet:    player.WalletAddress,
		Timestamp: time.Now().UTC(),
	})
	return nil
}

// SweepPlayer is one unit of the periodic verification sweep: expire a
// stale challenge or probe a live one.
func (s *VerificationService) SweepPlayer(ctx context.Context, walletAddress string) error {
	unlock := s.locks.Lock(walletAddress)
	defer unlock()

	player, err := s.players.GetByWallet(ctx, walletAddress)
	if err != nil {
		return fmt.Errorf("load player: %w", err)
	}
	if player.Verified {
		return nil
	}

	now := time.Now().UTC()
	switch {
	case player.ChallengeExpired(now):
		return s.expire(ctx, player)
	case player.HasActiveChallenge(now):
		_, err := s.checkEvidence(ctx, player)
		return err
	default:
		return nil
	}
}

// AdminVerify is the operator override: it verifies the wallet without
// probing, recording the supplied reference (or a marker when none is
// given) as evidence. The bonus follows the normal rules when a challenge
// is live; a wallet without one is verified with no credit.
func (s *VerificationService) AdminVerify(ctx context.Context, walletAddress, evidenceRef string) (*models.Player, error) {
	unlock := s.locks.Lock(walletAddress)
	defer unlock()

	player, err := s.players.GetByWallet(ctx, walletAddress)
	if err != nil {
		return nil, err
	}
	if player.Verified {
		return player, nil
	}

	if evidenceRef == "" {
		evidenceRef = "admin-override"
	}

	amount := decimal.Zero
	if player.ChallengeAmount != nil {
		amount = *player.ChallengeAmount
	}
	if err := s.commit(ctx, player, amount, evidenceRef); err != nil {
		return nil, err
	}
	return player, nil
}
