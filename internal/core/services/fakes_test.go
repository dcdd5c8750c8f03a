package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oreforge/oreforge-server/internal/core/models"
	"github.com/oreforge/oreforge-server/internal/core/ports"
)

type fakePlayerRepo struct {
	mu      sync.Mutex
	players map[string]*models.Player
}

func newFakePlayerRepo() *fakePlayerRepo {
	return &fakePlayerRepo{players: make(map[string]*models.Player)}
}

func (r *fakePlayerRepo) Create(_ context.Context, player *models.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.players[player.WalletAddress]; exists {
		return fmt.Errorf("duplicate wallet %s", player.WalletAddress)
	}
	clone := *player
	r.players[player.WalletAddress] = &clone
	return nil
}

func (r *fakePlayerRepo) Update(_ context.Context, player *models.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *player
	r.players[player.WalletAddress] = &clone
	return nil
}

func (r *fakePlayerRepo) GetByWallet(_ context.Context, walletAddress string) (*models.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	player, ok := r.players[walletAddress]
	if !ok {
		return nil, ports.ErrPlayerNotFound
	}
	clone := *player
	return &clone, nil
}

func (r *fakePlayerRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, player := range r.players {
		if player.ID == id {
			clone := *player
			return &clone, nil
		}
	}
	return nil, ports.ErrPlayerNotFound
}

func (r *fakePlayerRepo) List(_ context.Context, filter ports.PlayerFilter) ([]*models.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Player
	for _, player := range r.players {
		if filter.Verified != nil && player.Verified != *filter.Verified {
			continue
		}
		clone := *player
		out = append(out, &clone)
	}
	return out, nil
}

func (r *fakePlayerRepo) ListPendingVerification(_ context.Context) ([]*models.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Player
	for _, player := range r.players {
		if !player.Verified && player.ChallengeAmount != nil {
			clone := *player
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakePlayerRepo) ChallengeAmountInUse(_ context.Context, amount decimal.Decimal, excludeID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, player := range r.players {
		if player.ID == excludeID || player.ChallengeAmount == nil {
			continue
		}
		if player.ChallengeAmount.Equal(amount) {
			return true, nil
		}
	}
	return false, nil
}

type fakeSnapshotRepo struct {
	mu        sync.Mutex
	snapshots map[string]*models.SourceSnapshot
}

func newFakeSnapshotRepo() *fakeSnapshotRepo {
	return &fakeSnapshotRepo{snapshots: make(map[string]*models.SourceSnapshot)}
}

func snapshotKey(playerID uuid.UUID, sourceName string) string {
	return playerID.String() + "/" + sourceName
}

func (r *fakeSnapshotRepo) Get(_ context.Context, playerID uuid.UUID, sourceName string) (*models.SourceSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	snapshot, ok := r.snapshots[snapshotKey(playerID, sourceName)]
	if !ok {
		return nil, ports.ErrSnapshotNotFound
	}
	clone := *snapshot
	return &clone, nil
}

func (r *fakeSnapshotRepo) Create(_ context.Context, snapshot *models.SourceSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *snapshot
	r.snapshots[snapshotKey(snapshot.PlayerID, snapshot.SourceName)] = &clone
	return nil
}

func (r *fakeSnapshotRepo) put(snapshot *models.SourceSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *snapshot
	r.snapshots[snapshotKey(snapshot.PlayerID, snapshot.SourceName)] = &clone
}

type fakeEventRepo struct {
	mu     sync.Mutex
	events []*models.CreditEvent
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{}
}

func (r *fakeEventRepo) Create(_ context.Context, event *models.CreditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *event
	r.events = append(r.events, &clone)
	return nil
}

func (r *fakeEventRepo) List(_ context.Context, filter ports.CreditEventFilter) ([]*models.CreditEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.CreditEvent
	for _, event := range r.events {
		if filter.PlayerID != nil && event.PlayerID != *filter.PlayerID {
			continue
		}
		if filter.SourceName != "" && event.SourceName != filter.SourceName {
			continue
		}
		if filter.Status != "" && event.Status != filter.Status {
			continue
		}
		clone := *event
		out = append(out, &clone)
	}
	return out, nil
}

func (r *fakeEventRepo) SumCredited(_ context.Context, playerID uuid.UUID) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := decimal.Zero
	for _, event := range r.events {
		if event.PlayerID == playerID && event.Status == models.CreditEventStatusSuccess {
			total = total.Add(event.CreditedUnits)
		}
	}
	return total, nil
}

func (r *fakeEventRepo) byStatus(status models.CreditEventStatus) []*models.CreditEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.CreditEvent
	for _, event := range r.events {
		if event.Status == status {
			out = append(out, event)
		}
	}
	return out
}

// fakeLedger emulates the transactional repository against the in-memory
// fakes: all writes of one call land before it returns.
type fakeLedger struct {
	players   *fakePlayerRepo
	snapshots *fakeSnapshotRepo
	events    *fakeEventRepo
}

func newFakeLedger(players *fakePlayerRepo, snapshots *fakeSnapshotRepo, events *fakeEventRepo) *fakeLedger {
	return &fakeLedger{players: players, snapshots: snapshots, events: events}
}

func (l *fakeLedger) ApplyCredit(ctx context.Context, app ports.CreditApplication) error {
	event := models.NewCreditEvent(app.Player.ID, app.SourceName, models.CreditEventStatusSuccess)
	event.DeltaAmount = app.Delta
	event.CreditedUnits = app.CreditedUnits
	event.EvidenceRef = app.EvidenceRef
	if err := l.events.Create(ctx, event); err != nil {
		return err
	}

	l.snapshots.put(&models.SourceSnapshot{
		PlayerID:       app.Player.ID,
		SourceName:     app.SourceName,
		CumulativePaid: app.NewCumulative,
		ObservedAt:     app.ObservedAt,
	})

	app.Player.CreditedTotal = app.Player.CreditedTotal.Add(app.CreditedUnits)
	app.Player.UpdatedAt = time.Now().UTC()
	return l.players.Update(ctx, app.Player)
}

func (l *fakeLedger) CommitVerification(ctx context.Context, commit ports.VerificationCommit) error {
	event := models.NewCreditEvent(commit.Player.ID, models.SourceVerification, models.CreditEventStatusSuccess)
	event.DeltaAmount = commit.Amount
	event.CreditedUnits = commit.CreditedUnits
	event.EvidenceRef = &commit.EvidenceRef
	if err := l.events.Create(ctx, event); err != nil {
		return err
	}

	commit.Player.Verified = true
	commit.Player.ClearChallenge()
	commit.Player.VerificationTxRef = &commit.EvidenceRef
	commit.Player.CreditedTotal = commit.Player.CreditedTotal.Add(commit.CreditedUnits)
	return l.players.Update(ctx, commit.Player)
}

func (l *fakeLedger) ExpireChallenge(ctx context.Context, player *models.Player) error {
	event := models.NewCreditEvent(player.ID, models.SourceVerification, models.CreditEventStatusExpired)
	if player.ChallengeAmount != nil {
		event.DeltaAmount = *player.ChallengeAmount
	}
	if err := l.events.Create(ctx, event); err != nil {
		return err
	}

	player.ClearChallenge()
	return l.players.Update(ctx, player)
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []models.Notification
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{}
}

func (n *fakeNotifier) Publish(event models.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *fakeNotifier) byType(t models.NotificationType) []models.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []models.Notification
	for _, event := range n.events {
		if event.Type == t {
			out = append(out, event)
		}
	}
	return out
}

type fakeSource struct {
	name    string
	stats   *ports.NormalizedStats
	err     error
	fetches int
}

func (s *fakeSource) Name() string {
	return s.name
}

func (s *fakeSource) Fetch(_ context.Context, _ string) (*ports.NormalizedStats, error) {
	s.fetches++
	if s.err != nil {
		return nil, s.err
	}
	return s.stats, nil
}

type fakeFinder struct {
	result  ports.ProbeResult
	queries []ports.DonationQuery
}

func (f *fakeFinder) Find(_ context.Context, query ports.DonationQuery) ports.ProbeResult {
	f.queries = append(f.queries, query)
	return f.result
}
