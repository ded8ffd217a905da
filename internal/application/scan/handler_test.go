package scan_test

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/brickwatch/brickwatch/internal/adapters/persistence"
	"github.com/brickwatch/brickwatch/internal/application/dispatch"
	"github.com/brickwatch/brickwatch/internal/application/scan"
	"github.com/brickwatch/brickwatch/internal/domain/alert"
	"github.com/brickwatch/brickwatch/internal/domain/catalog"
	"github.com/brickwatch/brickwatch/internal/domain/filter"
	"github.com/brickwatch/brickwatch/internal/domain/listing"
	"github.com/brickwatch/brickwatch/internal/domain/pricing"
	"github.com/brickwatch/brickwatch/internal/domain/shared"
	"github.com/brickwatch/brickwatch/internal/domain/user"
	"github.com/brickwatch/brickwatch/internal/domain/watch"
	"github.com/brickwatch/brickwatch/test/helpers"
)

type scanEnv struct {
	db       *gorm.DB
	ebay     *helpers.MockMarketplaceAdapter
	brickowl *helpers.MockMarketplaceAdapter
	enqueuer *helpers.MockEnqueuer
	clock    *shared.MockClock
	alerts   *persistence.GormAlertRepository
	listings *persistence.GormListingRepository
	watches  *persistence.GormWatchRepository
	handler  *scan.RunScanCycleHandler
	user     *user.User
	item     *catalog.Item
	watch    *watch.Watch
}

func newScanEnv(t *testing.T) *scanEnv {
	t.Helper()
	db := helpers.NewTestDB(t)
	clock := shared.NewMockClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))

	users := persistence.NewGormUserRepository(db)
	items := persistence.NewGormItemRepository(db)
	watches := persistence.NewGormWatchRepository(db)
	listings := persistence.NewGormListingRepository(db)
	alerts := persistence.NewGormAlertRepository(db, clock)
	states := persistence.NewGormNotificationStateRepository(db)

	ebay := helpers.NewMockMarketplaceAdapter(listing.SourceEbay)
	brickowl := helpers.NewMockMarketplaceAdapter(listing.SourceBrickOwl)
	enqueuer := helpers.NewMockEnqueuer()

	dispatcher := dispatch.NewDispatcher(alerts, watches, states, enqueuer, dispatch.DefaultThrottle(), clock, zerolog.Nop())
	handler := scan.NewRunScanCycleHandler(
		watches, users, items, listings, states,
		[]listing.MarketplaceAdapter{ebay, brickowl},
		pricing.NewCalculator(nil), filter.New(), dispatcher,
		scan.Options{GroupConcurrency: 1, ListingLimit: 25},
		clock, zerolog.Nop(),
	)

	u := helpers.CreateTestUser(t, db, "DE")
	item := helpers.CreateTestItem(t, db, catalog.KindMinifig, "sw0010", "Darth Maul")
	w := helpers.CreateTestWatch(t, db, u, item.Ref, 550)

	return &scanEnv{
		db:       db,
		ebay:     ebay,
		brickowl: brickowl,
		enqueuer: enqueuer,
		clock:    clock,
		alerts:   alerts,
		listings: listings,
		watches:  watches,
		handler:  handler,
		user:     u,
		item:     item,
		watch:    w,
	}
}

func (e *scanEnv) run(t *testing.T, budget time.Duration) *scan.RunScanCycleResponse {
	t.Helper()
	resp, err := e.handler.Handle(context.Background(), scan.RunScanCycleCommand{Budget: budget})
	require.NoError(t, err)
	return resp.(*scan.RunScanCycleResponse)
}

func TestScanCycle_FirstAlertUnderTarget(t *testing.T) {
	// Arrange: one good offer well under target, one too expensive.
	env := newScanEnv(t)
	env.ebay.ReturnListings([]listing.RawListing{
		helpers.NewRawListing(listing.SourceEbay, "l-good", "LEGO Star Wars sw0010 Darth Maul minifigure", 340, 10),
		helpers.NewRawListing(listing.SourceEbay, "l-pricey", "LEGO Star Wars sw0010 Darth Maul minifigure", 600, 10),
	})

	// Act
	resp := env.run(t, 0)

	// Assert
	assert.Equal(t, 1, resp.Groups)
	assert.Equal(t, 1, resp.Scanned)
	assert.Zero(t, resp.Failed)
	assert.Equal(t, 2, resp.Listings)
	assert.Equal(t, 1, resp.AlertsEnqueued)

	chat := env.enqueuer.JobsOn("chat")
	require.Len(t, chat, 1)
	assert.Equal(t, alert.TypeFirst, chat[0].Payload.Type)
	assert.Equal(t, "Darth Maul", chat[0].Payload.ItemName)
	assert.Equal(t, 350.0, chat[0].Payload.Total)
	assert.Equal(t, 550.0, chat[0].Payload.Target)

	// Job id encodes channel, source, user, fingerprint and UTC day.
	stored, err := env.alerts.FindByID(context.Background(), chat[0].AlertID)
	require.NoError(t, err)
	wantKey := "ebay:" + strconv.FormatInt(env.user.ID, 10) + ":" + stored.Fingerprint + ":2026-03-10"
	assert.Equal(t, wantKey, stored.IdempotencyKey)
	assert.Equal(t, "chat:"+wantKey, chat[0].JobID)
	assert.Equal(t, alert.TypeFirst, stored.Type)

	// Both listings were persisted for the (item, country) pair.
	active, err := env.listings.ActiveByItem(context.Background(), env.item.Ref)
	require.NoError(t, err)
	assert.Len(t, active, 2)
}

func TestScanCycle_SecondPassIsQuiet(t *testing.T) {
	// The same offers seen again on the same day produce no new alerts.
	env := newScanEnv(t)
	env.ebay.ReturnListings([]listing.RawListing{
		helpers.NewRawListing(listing.SourceEbay, "l-good", "LEGO Star Wars sw0010 Darth Maul minifigure", 340, 10),
	})

	first := env.run(t, 0)
	assert.Equal(t, 1, first.AlertsEnqueued)

	second := env.run(t, 0)
	assert.Zero(t, second.AlertsEnqueued)
	assert.Len(t, env.enqueuer.JobsOn("chat"), 1)
}

func TestScanCycle_PreviousSoldOnVanishedListing(t *testing.T) {
	// Arrange: alert on l-good, then l-good vanishes and a cheaper offer
	// appears.
	env := newScanEnv(t)
	env.ebay.ReturnListings([]listing.RawListing{
		helpers.NewRawListing(listing.SourceEbay, "l-good", "LEGO Star Wars sw0010 Darth Maul minifigure", 340, 10),
	})
	env.run(t, 0)

	env.ebay.ReturnListings([]listing.RawListing{
		helpers.NewRawListing(listing.SourceEbay, "l-next", "LEGO Star Wars sw0010 Darth Maul minifigure", 320, 10),
	})

	// Act
	resp := env.run(t, 0)

	// Assert
	assert.Equal(t, 1, resp.AlertsEnqueued)
	chat := env.enqueuer.JobsOn("chat")
	require.Len(t, chat, 2)
	assert.Equal(t, alert.TypePreviousSold, chat[1].Payload.Type)

	// The vanished listing went inactive.
	gone, err := env.listings.Find(context.Background(), listing.SourceEbay, "l-good", "DE")
	require.NoError(t, err)
	require.NotNil(t, gone)
	assert.False(t, gone.IsActive)
}

func TestScanCycle_BrickOwlOnlyWhenEnabled(t *testing.T) {
	env := newScanEnv(t)
	env.ebay.ReturnListings(nil)
	env.brickowl.ReturnListings(nil)

	env.run(t, 0)
	assert.Len(t, env.ebay.GetSearchCalls(), 1)
	assert.Empty(t, env.brickowl.GetSearchCalls())

	// Enabling BrickOwl on the watch brings the second adapter in.
	env.watch.BrickOwlEnabled = true
	require.NoError(t, env.watches.Update(context.Background(), env.watch))

	env.run(t, 0)
	assert.Len(t, env.ebay.GetSearchCalls(), 2)
	require.Len(t, env.brickowl.GetSearchCalls(), 1)
	assert.Equal(t, "DE", env.brickowl.GetSearchCalls()[0].ShipTo)
}

func TestScanCycle_FailedAdapterListingsSurvive(t *testing.T) {
	// A marketplace outage is not evidence its listings have sold: only
	// sources that responded may have their absent listings retired.
	env := newScanEnv(t)
	env.watch.BrickOwlEnabled = true
	require.NoError(t, env.watches.Update(context.Background(), env.watch))

	env.ebay.ReturnListings([]listing.RawListing{
		helpers.NewRawListing(listing.SourceEbay, "l-good", "LEGO Star Wars sw0010 Darth Maul minifigure", 340, 10),
	})
	env.brickowl.ReturnListings(nil)
	env.run(t, 0)
	require.Len(t, env.enqueuer.JobsOn("chat"), 1)

	// eBay goes down while BrickOwl turns up a cheaper lot.
	env.ebay.SetSearchFunc(func(ctx context.Context, item *catalog.Item, shipTo string, limit, offset int) ([]listing.RawListing, error) {
		return nil, errors.New("upstream 500")
	})
	owl := helpers.NewRawListing(listing.SourceBrickOwl, "l-owl", "LEGO Star Wars sw0010 Darth Maul minifigure", 320, 0)
	owl.HasShipping = false
	env.brickowl.ReturnListings([]listing.RawListing{owl})

	// Act
	resp := env.run(t, 0)

	// Assert: the group still counts as scanned and the eBay listing is
	// untouched.
	assert.Equal(t, 1, resp.Scanned)
	assert.Zero(t, resp.Failed)

	kept, err := env.listings.Find(context.Background(), listing.SourceEbay, "l-good", "DE")
	require.NoError(t, err)
	require.NotNil(t, kept)
	assert.True(t, kept.IsActive)

	for _, job := range env.enqueuer.JobsOn("chat") {
		assert.NotEqual(t, alert.TypePreviousSold, job.Payload.Type)
	}
}

func TestScanCycle_AllAdaptersFailedMarksGroupFailed(t *testing.T) {
	env := newScanEnv(t)
	env.ebay.SetSearchFunc(func(ctx context.Context, item *catalog.Item, shipTo string, limit, offset int) ([]listing.RawListing, error) {
		return nil, errors.New("upstream 500")
	})

	resp := env.run(t, 0)

	assert.Equal(t, 1, resp.Failed)
	assert.Zero(t, resp.Scanned)
	assert.Empty(t, env.enqueuer.Jobs())
}

func TestScanCycle_RejectedListingsProduceNoAlerts(t *testing.T) {
	// Listings that fail the relevance gate are stored but never alerted.
	env := newScanEnv(t)
	env.ebay.ReturnListings([]listing.RawListing{
		helpers.NewRawListing(listing.SourceEbay, "l-custom", "LEGO sw0010 Darth Maul custom minifigure", 340, 10),
	})

	resp := env.run(t, 0)

	assert.Equal(t, 1, resp.Listings)
	assert.Zero(t, resp.AlertsEnqueued)
	assert.Empty(t, env.enqueuer.Jobs())
}
