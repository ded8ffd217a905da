package cli

import (
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/brickwatch/brickwatch/internal/adapters/api/brickowl"
	"github.com/brickwatch/brickwatch/internal/adapters/api/ebay"
	"github.com/brickwatch/brickwatch/internal/adapters/api/rebrickable"
	"github.com/brickwatch/brickwatch/internal/adapters/persistence"
	"github.com/brickwatch/brickwatch/internal/application/resolver"
	"github.com/brickwatch/brickwatch/internal/domain/catalog"
	"github.com/brickwatch/brickwatch/internal/domain/filter"
	"github.com/brickwatch/brickwatch/internal/domain/listing"
	"github.com/brickwatch/brickwatch/internal/domain/pricing"
	"github.com/brickwatch/brickwatch/internal/domain/shared"
	"github.com/brickwatch/brickwatch/internal/infrastructure/config"
	"github.com/brickwatch/brickwatch/internal/infrastructure/database"
	"github.com/brickwatch/brickwatch/internal/infrastructure/logging"
)

// cliEnv bundles the shared wiring every subcommand needs: configuration,
// database handles, and the domain services built over them.
type cliEnv struct {
	cfg   *config.Config
	db    *gorm.DB
	log   zerolog.Logger
	clock shared.Clock

	users    *persistence.GormUserRepository
	items    *persistence.GormItemRepository
	watches  *persistence.GormWatchRepository
	listings *persistence.GormListingRepository
	alerts   *persistence.GormAlertRepository
	states   *persistence.GormNotificationStateRepository
	history  *persistence.GormPriceHistoryRepository

	adapters     []listing.MarketplaceAdapter
	encyclopedia catalog.EncyclopediaClient
	resolver     *resolver.Service
	calc         *pricing.Calculator
	filter       *filter.Filter
}

// openEnv loads config, connects to the database, and wires the services.
// The returned closer releases the database connection.
func openEnv() (*cliEnv, func(), error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logCfg := cfg.Logging
	logCfg.Format = "console"
	if !verbose {
		logCfg.Level = "warn"
	}
	log := logging.NewLogger(&logCfg)

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	closer := func() { database.Close(db) }

	clock := shared.NewRealClock()
	env := &cliEnv{
		cfg:      cfg,
		db:       db,
		log:      log,
		clock:    clock,
		users:    persistence.NewGormUserRepository(db),
		items:    persistence.NewGormItemRepository(db),
		watches:  persistence.NewGormWatchRepository(db),
		listings: persistence.NewGormListingRepository(db),
		alerts:   persistence.NewGormAlertRepository(db, clock),
		states:   persistence.NewGormNotificationStateRepository(db),
		history:  persistence.NewGormPriceHistoryRepository(db),
		calc:     pricing.NewCalculator(cfg.Pricing.ExVATSellers),
		filter:   filter.New(),
	}

	var mpResolver catalog.MarketplaceResolver
	if cfg.Ebay.Enabled() {
		env.adapters = append(env.adapters,
			ebay.NewClient(cfg.Ebay.BaseURL, cfg.Ebay.ClientID, cfg.Ebay.ClientSecret, cfg.Ebay.DefaultMarketplace, cfg.Ebay.AffiliateCampaign, clock))
	}
	if cfg.BrickOwl.Enabled() {
		bo := brickowl.NewClient(cfg.BrickOwl.BaseURL, cfg.BrickOwl.Key)
		env.adapters = append(env.adapters, bo)
		mpResolver = bo
	}
	if cfg.Rebrick.Enabled() {
		env.encyclopedia = rebrickable.NewClient(cfg.Rebrick.BaseURL, cfg.Rebrick.Key)
	}

	idCache := persistence.NewGormIDCacheRepository(db, clock)
	env.resolver = resolver.NewService(env.items, idCache, mpResolver, env.encyclopedia, clock, log)

	return env, closer, nil
}
