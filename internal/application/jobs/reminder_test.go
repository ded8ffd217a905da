package jobs_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/brickwatch/brickwatch/internal/adapters/persistence"
	"github.com/brickwatch/brickwatch/internal/application/dispatch"
	"github.com/brickwatch/brickwatch/internal/application/jobs"
	"github.com/brickwatch/brickwatch/internal/domain/alert"
	"github.com/brickwatch/brickwatch/internal/domain/catalog"
	"github.com/brickwatch/brickwatch/internal/domain/listing"
	"github.com/brickwatch/brickwatch/internal/domain/pricing"
	"github.com/brickwatch/brickwatch/internal/domain/shared"
	"github.com/brickwatch/brickwatch/internal/domain/user"
	"github.com/brickwatch/brickwatch/internal/domain/watch"
	"github.com/brickwatch/brickwatch/test/helpers"
)

type reminderEnv struct {
	db       *gorm.DB
	states   *persistence.GormNotificationStateRepository
	enqueuer *helpers.MockEnqueuer
	ebay     *helpers.MockMarketplaceAdapter
	clock    *shared.MockClock
	handler  *jobs.ReminderHandler
	user     *user.User
	watch    *watch.Watch
}

func newReminderEnv(t *testing.T) *reminderEnv {
	t.Helper()
	db := helpers.NewTestDB(t)
	clock := shared.NewMockClock(time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC))

	users := persistence.NewGormUserRepository(db)
	items := persistence.NewGormItemRepository(db)
	watchRepo := persistence.NewGormWatchRepository(db)
	alerts := persistence.NewGormAlertRepository(db, clock)
	states := persistence.NewGormNotificationStateRepository(db)
	ebay := helpers.NewMockMarketplaceAdapter(listing.SourceEbay)
	enqueuer := helpers.NewMockEnqueuer()

	dispatcher := dispatch.NewDispatcher(alerts, watchRepo, states, enqueuer, dispatch.DefaultThrottle(), clock, zerolog.Nop())
	handler := jobs.NewReminderHandler(
		states, watchRepo, users, items, alerts,
		[]listing.MarketplaceAdapter{ebay},
		pricing.NewCalculator(nil), dispatcher, clock, zerolog.Nop(),
	)

	u := helpers.CreateTestUser(t, db, "DE")
	item := helpers.CreateTestItem(t, db, catalog.KindMinifig, "sw0010", "Darth Maul")
	w := helpers.CreateTestWatch(t, db, u, item.Ref, 550)

	return &reminderEnv{
		db:       db,
		states:   states,
		enqueuer: enqueuer,
		ebay:     ebay,
		clock:    clock,
		handler:  handler,
		user:     u,
		watch:    w,
	}
}

func (e *reminderEnv) seedState(t *testing.T, listingID string, notifiedPrice float64, age time.Duration) {
	t.Helper()
	require.NoError(t, e.states.Upsert(context.Background(), &watch.NotificationState{
		WatchID:       e.watch.ID,
		Source:        "ebay",
		ListingID:     listingID,
		NotifiedAt:    e.clock.Now().Add(-age),
		NotifiedPrice: notifiedPrice,
	}))
}

func (e *reminderEnv) run(t *testing.T) *jobs.RunReminderResponse {
	t.Helper()
	resp, err := e.handler.Handle(context.Background(), jobs.RunReminderCommand{})
	require.NoError(t, err)
	return resp.(*jobs.RunReminderResponse)
}

func TestReminder_StillAvailableUnderTarget(t *testing.T) {
	// Arrange: a deal well under target, notified four days ago, still on
	// the marketplace at the same price.
	env := newReminderEnv(t)
	env.seedState(t, "l-good", 350, 4*24*time.Hour)
	env.ebay.ReturnListings([]listing.RawListing{
		helpers.NewRawListing(listing.SourceEbay, "l-good", "LEGO Star Wars sw0010 Darth Maul minifigure", 340, 10),
	})

	// Act
	resp := env.run(t)

	// Assert
	assert.Equal(t, 1, resp.Checked)
	assert.Equal(t, 1, resp.Reminded)
	assert.Zero(t, resp.Exhausted)

	chat := env.enqueuer.JobsOn("chat")
	require.Len(t, chat, 1)
	assert.Equal(t, alert.TypeReminder, chat[0].Payload.Type)

	state, err := env.states.Find(context.Background(), env.watch.ID, "ebay", "l-good")
	require.NoError(t, err)
	assert.Equal(t, 1, state.ReminderCount)
}

func TestReminder_VanishedListingIsExhausted(t *testing.T) {
	env := newReminderEnv(t)
	env.seedState(t, "l-gone", 350, 4*24*time.Hour)
	env.ebay.ReturnListings(nil)

	resp := env.run(t)

	assert.Equal(t, 1, resp.Checked)
	assert.Equal(t, 1, resp.Exhausted)
	assert.Empty(t, env.enqueuer.Jobs())

	// Exhausted states never come due again.
	second := env.run(t)
	assert.Zero(t, second.Checked)
}

func TestReminder_PriceClimbedOverTarget(t *testing.T) {
	env := newReminderEnv(t)
	env.seedState(t, "l-good", 350, 4*24*time.Hour)
	env.ebay.ReturnListings([]listing.RawListing{
		helpers.NewRawListing(listing.SourceEbay, "l-good", "LEGO Star Wars sw0010 Darth Maul minifigure", 560, 10),
	})

	resp := env.run(t)

	// The check counts against the reminder budget but sends nothing.
	assert.Equal(t, 1, resp.Checked)
	assert.Zero(t, resp.Reminded)
	assert.Empty(t, env.enqueuer.Jobs())

	state, err := env.states.Find(context.Background(), env.watch.ID, "ebay", "l-good")
	require.NoError(t, err)
	assert.Equal(t, 1, state.ReminderCount)
}

func TestReminder_OnlyWellUnderTargetDealsQualify(t *testing.T) {
	// 500 on a 550 target is not under the reminder factor; the listing
	// is never re-fetched.
	env := newReminderEnv(t)
	env.seedState(t, "l-meh", 500, 4*24*time.Hour)

	resp := env.run(t)

	assert.Equal(t, 1, resp.Checked)
	assert.Zero(t, resp.Reminded)
	assert.Zero(t, resp.Exhausted)
	assert.Empty(t, env.ebay.GetSearchCalls())
}

func TestReminder_FreshStatesAreNotDue(t *testing.T) {
	env := newReminderEnv(t)
	env.seedState(t, "l-fresh", 350, 24*time.Hour)

	resp := env.run(t)

	assert.Zero(t, resp.Checked)
	assert.Empty(t, env.ebay.GetSearchCalls())
}
