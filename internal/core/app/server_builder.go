package app

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/oreforge/oreforge-server/internal/api"
	"github.com/oreforge/oreforge-server/internal/api/handlers"
	"github.com/oreforge/oreforge-server/internal/core/config"
	"github.com/oreforge/oreforge-server/internal/core/services"
	"github.com/oreforge/oreforge-server/internal/database"
	"github.com/oreforge/oreforge-server/internal/database/repositories"
	"github.com/oreforge/oreforge-server/internal/probes"
	"github.com/oreforge/oreforge-server/internal/sources"
	"github.com/oreforge/oreforge-server/pkg/logger"
)

type Server struct {
	Config     *config.Config
	HttpServer *http.Server
	Poller     *services.PollerService
	Notifier   *services.NotifierService
	db         *gorm.DB
}

func (s *Server) Shutdown(ctx context.Context) {
	log := logger.Get()

	serverShutdownCtx, serverShutdownCancel := context.WithTimeout(ctx, 15*time.Second)
	defer serverShutdownCancel()

	s.Poller.Stop()
	log.Info().Msg("Stopped poll scheduler")

	if err := s.HttpServer.Shutdown(serverShutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	} else {
		log.Info().Msg("Server HTTP connections gracefully closed")
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database connection")
		} else {
			log.Info().Msg("Database connection closed")
		}
	}

	log.Info().Msg("Shutdown complete")
}

type ServerBuilder struct {
	config *config.Config

	db           *gorm.DB
	playerRepo   *repositories.PlayerRepository
	snapshotRepo *repositories.SnapshotRepository
	eventRepo    *repositories.CreditEventRepository
	ledgerRepo   *repositories.LedgerRepository

	notifier *services.NotifierService
	credit   *services.CreditService
	verify   *services.VerificationService
	poller   *services.PollerService

	httpServer *http.Server
	err        error
}

func NewServerBuilder(cfg *config.Config) *ServerBuilder {
	return &ServerBuilder{config: cfg}
}

func (sb *ServerBuilder) InitDatabase() *ServerBuilder {
	if sb.err != nil {
		return sb
	}

	log := logger.Get()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, sb.config.Database.GetConnectionURL())
	if err != nil {
		sb.err = fmt.Errorf("failed to connect to database: %w", err)
		return sb
	}
	sb.db = db

	log.Info().Msg("Successfully connected to database")
	return sb
}

func (sb *ServerBuilder) InitRepositories() *ServerBuilder {
	if sb.err != nil {
		return sb
	}

	sb.playerRepo = repositories.NewPlayerRepository(sb.db)
	sb.snapshotRepo = repositories.NewSnapshotRepository(sb.db)
	sb.eventRepo = repositories.NewCreditEventRepository(sb.db)
	sb.ledgerRepo = repositories.NewLedgerRepository(sb.db)

	return sb
}

func (sb *ServerBuilder) InitServices() *ServerBuilder {
	if sb.err != nil {
		return sb
	}

	fetchTimeout := sb.config.Scheduler.FetchTimeout()

	rate, err := decimal.NewFromString(sb.config.Credit.Rate)
	if err != nil {
		sb.err = fmt.Errorf("invalid credit rate %q: %w", sb.config.Credit.Rate, err)
		return sb
	}
	minDelta, err := decimal.NewFromString(sb.config.Credit.MinDelta)
	if err != nil {
		sb.err = fmt.Errorf("invalid minimum delta %q: %w", sb.config.Credit.MinDelta, err)
		return sb
	}

	locks := services.NewPlayerLocks()
	sb.notifier = services.NewNotifierService()

	sb.credit = services.NewCreditService(
		locks,
		sb.playerRepo,
		sb.snapshotRepo,
		sb.eventRepo,
		sb.ledgerRepo,
		sb.notifier,
		rate,
		minDelta,
	)

	chain := probes.NewChain(
		probes.NewExplorerProbe(sb.config.Verification.ExplorerURL, fetchTimeout),
		probes.NewPoolPaymentsProbe(sb.config.Verification.PoolPaymentsURL, fetchTimeout),
		probes.NewPageScanProbe(sb.config.Verification.ScrapeURL, fetchTimeout),
	)

	verify, err := services.NewVerificationService(
		locks,
		sb.playerRepo,
		sb.ledgerRepo,
		sb.eventRepo,
		sb.notifier,
		chain,
		sb.config.Verification,
	)
	if err != nil {
		sb.err = fmt.Errorf("failed to initialize verification service: %w", err)
		return sb
	}
	sb.verify = verify

	return sb
}

func (sb *ServerBuilder) InitPoller() *ServerBuilder {
	if sb.err != nil {
		return sb
	}

	adapters := sources.FromConfigs(sb.config.Sources, sb.config.Scheduler.FetchTimeout())

	sb.poller = services.NewPollerService(
		sb.credit,
		sb.verify,
		sb.playerRepo,
		adapters,
		sb.config.Scheduler,
	)

	if err := sb.poller.Start(); err != nil {
		sb.err = fmt.Errorf("failed to start poll scheduler: %w", err)
		return sb
	}

	return sb
}

func (sb *ServerBuilder) InitRouter() *ServerBuilder {
	if sb.err != nil {
		return sb
	}

	playerHandler := handlers.NewPlayerHandler(sb.verify, sb.credit, sb.playerRepo)
	eventHandler := handlers.NewEventHandler(sb.eventRepo, sb.playerRepo)
	notificationHandler := handlers.NewNotificationHandler(sb.notifier)
	healthHandler := handlers.NewHealthHandler(sb.poller, sb.notifier)

	router := api.NewRouter(
		playerHandler,
		eventHandler,
		notificationHandler,
		healthHandler,
		sb.config.Server.Endpoint,
	)

	addr := net.JoinHostPort(sb.config.Server.Host, sb.config.Server.Port)
	sb.httpServer = &http.Server{
		Addr:    addr,
		Handler: router,
	}

	return sb
}

func (sb *ServerBuilder) Build() (*Server, error) {
	if sb.err != nil {
		return nil, sb.err
	}

	return &Server{
		Config:     sb.config,
		HttpServer: sb.httpServer,
		Poller:     sb.poller,
		Notifier:   sb.notifier,
		db:         sb.db,
	}, nil
}
