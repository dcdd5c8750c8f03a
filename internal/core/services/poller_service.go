package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/go-co-op/gocron"

	"github.com/oreforge/oreforge-server/internal/core/config"
	"github.com/oreforge/oreforge-server/internal/core/ports"
	"github.com/oreforge/oreforge-server/pkg/logger"
)

// PollerService is the single periodic driver: one job reconciles pool
// payouts, the other sweeps pending verifications. Fetches inside a cycle
// run on a bounded worker pool; every (player, source) step commits
// durably on its own, so a crashed cycle needs no recovery beyond letting
// the next one run.
type PollerService struct {
	credit       *CreditService
	verification *VerificationService
	players      ports.PlayerRepository
	poolSources  []ports.PoolSource
	cfg          config.SchedulerConfig

	workers   pond.Pool
	scheduler *gocron.Scheduler
	mutex     sync.Mutex
	isRunning bool
	stopCh    chan struct{}

	poolCycles   atomic.Int64
	sweepCycles  atomic.Int64
	taskFailures atomic.Int64
}

func NewPollerService(
	credit *CreditService,
	verification *VerificationService,
	players ports.PlayerRepository,
	poolSources []ports.PoolSource,
	cfg config.SchedulerConfig,
) *PollerService {
	return &PollerService{
		credit:       credit,
		verification: verification,
		players:      players,
		poolSources:  poolSources,
		cfg:          cfg,
		workers:      pond.NewPool(cfg.WorkerPoolSize),
		stopCh:       make(chan struct{}),
	}
}

func (s *PollerService) Start() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.isRunning {
		return nil
	}

	log := logger.WithComponent("poller")
	log.Info().
		Dur("pool_poll_interval", s.cfg.PoolPollInterval()).
		Dur("verification_sweep_interval", s.cfg.VerificationSweepInterval()).
		Int("workers", s.cfg.WorkerPoolSize).
		Msg("Starting poll scheduler")

	s.scheduler = gocron.NewScheduler(time.UTC)
	s.stopCh = make(chan struct{})
	// Stop shuts the worker pool down for good, so every start gets a
	// fresh one.
	s.workers = pond.NewPool(s.cfg.WorkerPoolSize)

	if _, err := s.scheduler.Every(s.cfg.PoolPollInterval()).Do(s.runPoolCycle); err != nil {
		log.Error().Err(err).Msg("Failed to schedule pool reconciliation")
		return err
	}
	if _, err := s.scheduler.Every(s.cfg.VerificationSweepInterval()).Do(s.runVerificationSweep); err != nil {
		log.Error().Err(err).Msg("Failed to schedule verification sweep")
		return err
	}

	s.scheduler.StartAsync()
	s.isRunning = true

	log.Info().Msg("Poll scheduler started")
	return nil
}

func (s *PollerService) Stop() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isRunning {
		return
	}

	close(s.stopCh)
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	s.workers.StopAndWait()
	s.isRunning = false

	log := logger.WithComponent("poller")
	log.Info().Msg("Poll scheduler stopped")
}

func (s *PollerService) IsRunning() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.isRunning
}

// runPoolCycle reconciles every (player, source) pair once. Failures are
// contained per task: one unreachable pool or one bad wallet never stops
// the rest of the cycle.
func (s *PollerService) runPoolCycle() {
	log := logger.WithComponent("poller")
	start := time.Now()

	ctx := context.Background()
	players, err := s.players.List(ctx, ports.PlayerFilter{})
	if err != nil {
		log.Error().Err(err).Msg("Pool cycle could not enumerate players")
		return
	}

	group := s.workers.NewGroup()
	for _, player := range players {
		wallet := player.WalletAddress
		for _, source := range s.poolSources {
			src := source
			group.Submit(func() {
				select {
				case <-s.stopCh:
					return
				default:
				}

				fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout())
				stats, fetchErr := src.Fetch(fetchCtx, wallet)
				cancel()

				// Shutdown between fetch and apply abandons the
				// observation; the next cycle recomputes it.
				select {
				case <-s.stopCh:
					return
				default:
				}

				if err := s.credit.Apply(ctx, wallet, src.Name(), stats, fetchErr); err != nil {
					s.taskFailures.Add(1)
					log.Error().Err(err).
						Str("wallet", wallet).
						Str("source", src.Name()).
						Msg("Reconciliation step failed")
				}
			})
		}
	}

	if err := group.Wait(); err != nil {
		log.Error().Err(err).Msg("Pool cycle worker group reported error")
	}

	s.poolCycles.Add(1)
	log.Info().
		Int("players", len(players)).
		Int("sources", len(s.poolSources)).
		Dur("duration", time.Since(start)).
		Msg("Pool reconciliation cycle completed")
}

func (s *PollerService) runVerificationSweep() {
	log := logger.WithComponent("poller")
	start := time.Now()

	ctx := context.Background()
	pending, err := s.players.ListPendingVerification(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Verification sweep could not enumerate players")
		return
	}

	group := s.workers.NewGroup()
	for _, player := range pending {
		wallet := player.WalletAddress
		group.Submit(func() {
			select {
			case <-s.stopCh:
				return
			default:
			}

			if err := s.verification.SweepPlayer(ctx, wallet); err != nil {
				s.taskFailures.Add(1)
				log.Error().Err(err).Str("wallet", wallet).Msg("Verification sweep step failed")
			}
		})
	}

	if err := group.Wait(); err != nil {
		log.Error().Err(err).Msg("Verification sweep worker group reported error")
	}

	s.sweepCycles.Add(1)
	log.Info().
		Int("pending", len(pending)).
		Dur("duration", time.Since(start)).
		Msg("Verification sweep completed")
}

type PollerStats struct {
	Running      bool  `json:"running"`
	PoolCycles   int64 `json:"pool_cycles"`
	SweepCycles  int64 `json:"sweep_cycles"`
	TaskFailures int64 `json:"task_failures"`
}

func (s *PollerService) Stats() PollerStats {
	return PollerStats{
		Running:      s.IsRunning(),
		PoolCycles:   s.poolCycles.Load(),
		SweepCycles:  s.sweepCycles.Load(),
		TaskFailures: s.taskFailures.Load(),
	}
}
