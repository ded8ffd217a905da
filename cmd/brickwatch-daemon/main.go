package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/brickwatch/brickwatch/internal/adapters/api/brickowl"
	"github.com/brickwatch/brickwatch/internal/adapters/api/ebay"
	"github.com/brickwatch/brickwatch/internal/adapters/api/rebrickable"
	"github.com/brickwatch/brickwatch/internal/adapters/notify"
	"github.com/brickwatch/brickwatch/internal/adapters/persistence"
	"github.com/brickwatch/brickwatch/internal/adapters/queue"
	"github.com/brickwatch/brickwatch/internal/application/common"
	"github.com/brickwatch/brickwatch/internal/application/dispatch"
	"github.com/brickwatch/brickwatch/internal/application/jobs"
	"github.com/brickwatch/brickwatch/internal/application/resolver"
	"github.com/brickwatch/brickwatch/internal/application/scan"
	"github.com/brickwatch/brickwatch/internal/application/watches"
	"github.com/brickwatch/brickwatch/internal/domain/catalog"
	"github.com/brickwatch/brickwatch/internal/domain/filter"
	"github.com/brickwatch/brickwatch/internal/domain/listing"
	"github.com/brickwatch/brickwatch/internal/domain/pricing"
	"github.com/brickwatch/brickwatch/internal/domain/shared"
	"github.com/brickwatch/brickwatch/internal/infrastructure/config"
	"github.com/brickwatch/brickwatch/internal/infrastructure/database"
	"github.com/brickwatch/brickwatch/internal/infrastructure/logging"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: search standard locations)")
	flag.Parse()

	cfg := config.MustLoadConfig(*configPath)
	log := logging.NewLogger(&cfg.Logging)

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("daemon failed")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	log.Info().Str("type", cfg.Database.Type).Msg("database ready")

	clock := shared.NewRealClock()

	// Repositories
	userRepo := persistence.NewGormUserRepository(db)
	itemRepo := persistence.NewGormItemRepository(db)
	watchRepo := persistence.NewGormWatchRepository(db)
	listingRepo := persistence.NewGormListingRepository(db)
	alertRepo := persistence.NewGormAlertRepository(db, clock)
	stateRepo := persistence.NewGormNotificationStateRepository(db)
	idCacheRepo := persistence.NewGormIDCacheRepository(db, clock)
	historyRepo := persistence.NewGormPriceHistoryRepository(db)

	// Marketplace adapters, each gated on credentials
	var adapters []listing.MarketplaceAdapter
	var mpResolver catalog.MarketplaceResolver

	if cfg.Ebay.Enabled() {
		eb := ebay.NewClient(cfg.Ebay.BaseURL, cfg.Ebay.ClientID, cfg.Ebay.ClientSecret, cfg.Ebay.DefaultMarketplace, cfg.Ebay.AffiliateCampaign, clock)
		adapters = append(adapters, eb)
		log.Info().Msg("ebay adapter enabled")
	}
	if cfg.BrickOwl.Enabled() {
		bo := brickowl.NewClient(cfg.BrickOwl.BaseURL, cfg.BrickOwl.Key)
		adapters = append(adapters, bo)
		mpResolver = bo
		log.Info().Msg("brickowl adapter enabled")
	}
	if len(adapters) == 0 {
		return fmt.Errorf("no marketplace adapter configured")
	}

	var encyclopedia catalog.EncyclopediaClient
	if cfg.Rebrick.Enabled() {
		encyclopedia = rebrickable.NewClient(cfg.Rebrick.BaseURL, cfg.Rebrick.Key)
		log.Info().Msg("rebrickable enrichment enabled")
	}

	// Delivery channels
	chatSender, err := notify.NewTelegramSender(cfg.Chat.BotToken, log)
	if err != nil {
		return fmt.Errorf("failed to create chat sender: %w", err)
	}
	pushSender := notify.NewWebPushSender(userRepo, cfg.Push.PublicKey, cfg.Push.PrivateKey, cfg.Push.Subject, log)

	// Queues
	enqueuer, err := queue.NewEnqueuer(&cfg.Queue)
	if err != nil {
		return err
	}
	defer enqueuer.Close()

	// Application services
	calc := pricing.NewCalculator(cfg.Pricing.ExVATSellers)
	listingFilter := filter.New()
	resolverSvc := resolver.NewService(itemRepo, idCacheRepo, mpResolver, encyclopedia, clock, log)
	throttle := dispatch.Throttle{
		PerDay:     cfg.Dispatch.MaxPerDay,
		PerHour:    cfg.Dispatch.MaxPerHour,
		Per10Min:   cfg.Dispatch.MaxPerTenMin,
		PerItemDay: cfg.Dispatch.MaxPerItemDay,
	}
	dispatcher := dispatch.NewDispatcher(alertRepo, watchRepo, stateRepo, enqueuer, throttle, clock, log)

	med := common.NewMediator()

	scanHandler := scan.NewRunScanCycleHandler(
		watchRepo, userRepo, itemRepo, listingRepo, stateRepo,
		adapters, calc, listingFilter, dispatcher,
		scan.Options{
			GroupConcurrency: cfg.Scan.GroupConcurrency,
			ListingLimit:     cfg.Scan.ListingLimit,
			Budget:           cfg.Scan.Budget,
		},
		clock, log,
	)
	if err := common.RegisterHandler[scan.RunScanCycleCommand](med, scanHandler); err != nil {
		return fmt.Errorf("failed to register RunScanCycle handler: %w", err)
	}

	createWatchHandler := watches.NewCreateWatchHandler(resolverSvc, watchRepo)
	if err := common.RegisterHandler[watches.CreateWatchCommand](med, createWatchHandler); err != nil {
		return fmt.Errorf("failed to register CreateWatch handler: %w", err)
	}

	listWatchesHandler := watches.NewListWatchesHandler(watchRepo)
	if err := common.RegisterHandler[watches.ListWatchesQuery](med, listWatchesHandler); err != nil {
		return fmt.Errorf("failed to register ListWatches handler: %w", err)
	}

	digestHandler := jobs.NewWeeklyDigestHandler(userRepo, watchRepo, alertRepo, chatSender, clock, log)
	if err := common.RegisterHandler[jobs.RunWeeklyDigestCommand](med, digestHandler); err != nil {
		return fmt.Errorf("failed to register WeeklyDigest handler: %w", err)
	}

	reminderHandler := jobs.NewReminderHandler(stateRepo, watchRepo, userRepo, itemRepo, alertRepo, adapters, calc, dispatcher, clock, log)
	if err := common.RegisterHandler[jobs.RunReminderCommand](med, reminderHandler); err != nil {
		return fmt.Errorf("failed to register Reminder handler: %w", err)
	}

	snapshotHandler := jobs.NewSnapshotHandler(historyRepo, clock, log)
	if err := common.RegisterHandler[jobs.RunSnapshotCommand](med, snapshotHandler); err != nil {
		return fmt.Errorf("failed to register Snapshot handler: %w", err)
	}

	cleanupHandler := jobs.NewCleanupHandler(listingRepo, clock, log)
	if err := common.RegisterHandler[jobs.RunCleanupCommand](med, cleanupHandler); err != nil {
		return fmt.Errorf("failed to register Cleanup handler: %w", err)
	}

	// Worker pool and periodic scheduler
	workers, err := queue.NewWorkers(&cfg.Queue, alertRepo, userRepo, chatSender, pushSender, med, clock, log)
	if err != nil {
		return err
	}
	if err := workers.Start(); err != nil {
		return fmt.Errorf("failed to start workers: %w", err)
	}
	defer workers.Shutdown()

	scheduler, err := queue.NewScheduler(&cfg.Queue)
	if err != nil {
		return err
	}
	if err := scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer scheduler.Shutdown()

	startHealthServer(cfg.Server.Port, log)

	log.Info().
		Dur("interval", cfg.Scan.Interval).
		Int("adapters", len(adapters)).
		Msg("daemon started")

	runScanLoop(ctx, med, cfg.Scan, log)

	log.Info().Msg("shutting down")
	return nil
}

// runScanLoop runs one scan cycle immediately, then on every interval tick
// until the context is cancelled. A failed cycle is logged, never fatal.
func runScanLoop(ctx context.Context, med common.Mediator, cfg config.ScanConfig, log zerolog.Logger) {
	runOnce := func() {
		res, err := med.Send(ctx, scan.RunScanCycleCommand{Budget: cfg.Budget})
		if err != nil {
			log.Error().Err(err).Msg("scan cycle failed")
			return
		}
		if r, ok := res.(*scan.RunScanCycleResponse); ok {
			log.Info().
				Int("groups", r.Groups).
				Int("scanned", r.Scanned).
				Int("failed", r.Failed).
				Int("skipped", r.Skipped).
				Int("alerts", r.AlertsEnqueued).
				Dur("took", r.Duration).
				Msg("scan cycle done")
		}
	}

	runOnce()
	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}

// startHealthServer exposes a liveness endpoint for the deployment platform.
func startHealthServer(port int, log zerolog.Logger) {
	if port <= 0 {
		return
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	go func() {
		addr := fmt.Sprintf(":%d", port)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Error().Err(err).Msg("health server stopped")
			os.Exit(1)
		}
	}()
}
