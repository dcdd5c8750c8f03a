package ports

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oreforge/oreforge-server/internal/core/models"
)

var (
	ErrPlayerNotFound   = errors.New("player not found")
	ErrSnapshotNotFound = errors.New("source snapshot not found")
)

type PlayerRepository interface {
	Create(ctx context.Context, player *models.Player) error
	Update(ctx context.Context, player *models.Player) error
	GetByWallet(ctx context.Context, walletAddress string) (*models.Player, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Player, error)
	List(ctx context.Context, filter PlayerFilter) ([]*models.Player, error)
	ListPendingVerification(ctx context.Context) ([]*models.Player, error)
	// ChallengeAmountInUse reports whether any player other than excludeID
	// currently holds the given pending challenge amount.
	ChallengeAmountInUse(ctx context.Context, amount decimal.Decimal, excludeID uuid.UUID) (bool, error)
}

type PlayerFilter struct {
	Verified *bool
	Limit    int
	Offset   int
}

type SnapshotRepository interface {
	Get(ctx context.Context, playerID uuid.UUID, sourceName string) (*models.SourceSnapshot, error)
	Create(ctx context.Context, snapshot *models.SourceSnapshot) error
}

type CreditEventRepository interface {
	Create(ctx context.Context, event *models.CreditEvent) error
	List(ctx context.Context, filter CreditEventFilter) ([]*models.CreditEvent, error)
	// SumCredited totals the credited units of all successful events for a
	// player; used to audit CreditedTotal against the append-only log.
	SumCredited(ctx context.Context, playerID uuid.UUID) (decimal.Decimal, error)
}

type CreditEventFilter struct {
	PlayerID   *uuid.UUID
	SourceName string
	Status     models.CreditEventStatus
	Limit      int
	Offset     int
}

// CreditApplication is one exactly-once credit commit: the event row, the
// watermark advance, and the running-total bump land in one transaction.
type CreditApplication struct {
	Player        *models.Player
	SourceName    string
	NewCumulative decimal.Decimal
	Delta         decimal.Decimal
	CreditedUnits decimal.Decimal
	EvidenceRef   *string
	ObservedAt    time.Time
}

// VerificationCommit finalizes a matched or operator-approved challenge:
// the player flips to verified with challenge fields cleared, and the bonus
// is credited through the same atomic path as pool credits.
type VerificationCommit struct {
	Player        *models.Player
	Amount        decimal.Decimal
	CreditedUnits decimal.Decimal
	EvidenceRef   string
}

// LedgerRepository owns every multi-row mutation whose halves must not be
// observable separately.
type LedgerRepository interface {
	ApplyCredit(ctx context.Context, app CreditApplication) error
	CommitVerification(ctx context.Context, commit VerificationCommit) error
	ExpireChallenge(ctx context.Context, player *models.Player) error
}
