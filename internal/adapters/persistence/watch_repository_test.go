package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brickwatch/brickwatch/internal/adapters/persistence"
	"github.com/brickwatch/brickwatch/internal/domain/alert"
	"github.com/brickwatch/brickwatch/internal/domain/catalog"
	"github.com/brickwatch/brickwatch/internal/domain/listing"
	"github.com/brickwatch/brickwatch/internal/domain/shared"
	"github.com/brickwatch/brickwatch/internal/domain/watch"
	"github.com/brickwatch/brickwatch/test/helpers"
)

func TestWatchCreate_DefaultsFromUser(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormWatchRepository(db)
	u := helpers.CreateTestUser(t, db, "DE")
	ref := catalog.ItemRef{Kind: catalog.KindMinifig, ID: "sw0010"}

	// Act
	w := &watch.Watch{UserID: u.ID, ItemRef: ref, ShipToCountry: "DE", TargetPrice: 550}
	err := repo.Create(context.Background(), w)

	// Assert
	require.NoError(t, err)
	assert.NotZero(t, w.ID)
	assert.Equal(t, watch.StatusActive, w.Status)
	assert.ElementsMatch(t, watch.DefaultAllowlist("DE"), w.ShipFromAllowlist)
	assert.Contains(t, w.ShipFromAllowlist, "GB")
	assert.NotContains(t, w.ShipFromAllowlist, "US")

	// The watched item gets a catalog stub so scans can join against it.
	item, err := persistence.NewGormItemRepository(db).FindByRef(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, ref, item.Ref)
}

func TestWatchCreate_NorthAmericaAllowlist(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormWatchRepository(db)
	u := helpers.CreateTestUser(t, db, "US")

	w := &watch.Watch{
		UserID:        u.ID,
		ItemRef:       catalog.ItemRef{Kind: catalog.KindSet, ID: "75192"},
		ShipToCountry: "US",
		TargetPrice:   600,
	}
	require.NoError(t, repo.Create(context.Background(), w))

	assert.ElementsMatch(t, []string{"US", "CA"}, w.ShipFromAllowlist)
}

func TestWatchCreate_KeepsExplicitAllowlist(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormWatchRepository(db)
	u := helpers.CreateTestUser(t, db, "DE")

	w := &watch.Watch{
		UserID:            u.ID,
		ItemRef:           catalog.ItemRef{Kind: catalog.KindMinifig, ID: "sw0010"},
		ShipToCountry:     "DE",
		TargetPrice:       550,
		ShipFromAllowlist: []string{"DE", "AT"},
	}
	require.NoError(t, repo.Create(context.Background(), w))

	got, err := repo.FindByID(context.Background(), w.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"DE", "AT"}, got.ShipFromAllowlist)
}

func TestWatchFindByID_NotFound(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormWatchRepository(db)

	_, err := repo.FindByID(context.Background(), 9999)

	assert.ErrorContains(t, err, "watch not found")
}

func TestFindActiveByUserItem(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormWatchRepository(db)
	u := helpers.CreateTestUser(t, db, "DE")
	ref := catalog.ItemRef{Kind: catalog.KindMinifig, ID: "sw0010"}
	created := helpers.CreateTestWatch(t, db, u, ref, 550)

	got, err := repo.FindActiveByUserItem(context.Background(), u.ID, ref)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created.ID, got.ID)

	// No active watch means nil, nil rather than an error.
	none, err := repo.FindActiveByUserItem(context.Background(), u.ID, catalog.ItemRef{Kind: catalog.KindSet, ID: "75192"})
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestActiveScanGroups(t *testing.T) {
	// Arrange: two DE watchers on the same minifig, one of them with
	// BrickOwl enabled and a higher priority watcher on a set.
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormWatchRepository(db)
	u1 := helpers.CreateTestUser(t, db, "DE")
	u2 := helpers.CreateTestUser(t, db, "DE")
	u3 := helpers.CreateTestUser(t, db, "DE")
	fig := catalog.ItemRef{Kind: catalog.KindMinifig, ID: "sw0010"}
	set := catalog.ItemRef{Kind: catalog.KindSet, ID: "75192"}

	helpers.CreateTestWatch(t, db, u1, fig, 550)
	w2 := &watch.Watch{UserID: u2.ID, ItemRef: fig, ShipToCountry: "DE", TargetPrice: 500, BrickOwlEnabled: true}
	require.NoError(t, repo.Create(context.Background(), w2))
	w3 := &watch.Watch{UserID: u3.ID, ItemRef: set, ShipToCountry: "DE", TargetPrice: 600, ScanPriority: 5}
	require.NoError(t, repo.Create(context.Background(), w3))

	// Act
	groups, err := repo.ActiveScanGroups(context.Background(), time.Now().UTC())

	// Assert: priority first, then watcher count; BrickOwl is on for the
	// group when any member enables it.
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, set, groups[0].ItemRef)
	assert.Equal(t, 5, groups[0].MaxScanPriority)
	assert.Equal(t, fig, groups[1].ItemRef)
	assert.Equal(t, 2, groups[1].WatcherCount)
	assert.True(t, groups[1].BrickOwlEnabled)
	assert.False(t, groups[0].BrickOwlEnabled)
}

func TestActiveScanGroups_SkipsSnoozedAndStopped(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormWatchRepository(db)
	u := helpers.CreateTestUser(t, db, "DE")
	fig := catalog.ItemRef{Kind: catalog.KindMinifig, ID: "sw0010"}

	w := helpers.CreateTestWatch(t, db, u, fig, 550)
	later := time.Now().UTC().Add(2 * time.Hour)
	w.SnoozedUntil = &later
	require.NoError(t, repo.Update(context.Background(), w))

	groups, err := repo.ActiveScanGroups(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	assert.Empty(t, groups)

	// Once the snooze elapses the group reappears.
	groups, err = repo.ActiveScanGroups(context.Background(), later.Add(time.Minute))
	require.NoError(t, err)
	assert.Len(t, groups, 1)
}

func TestCounters_WindowsAndBestTotal(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormWatchRepository(db)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	alerts := persistence.NewGormAlertRepository(db, shared.NewMockClock(now))
	u := helpers.CreateTestUser(t, db, "DE")
	ref := catalog.ItemRef{Kind: catalog.KindMinifig, ID: "sw0010"}
	w := helpers.CreateTestWatch(t, db, u, ref, 550)
	insert := func(suffix string, createdAt time.Time, total float64, itemRef catalog.ItemRef) {
		a := &alert.Alert{
			UserID:         u.ID,
			WatchID:        w.ID,
			Source:         listing.SourceEbay,
			ListingID:      "l-" + suffix,
			ItemRef:        itemRef,
			Total:          total,
			Target:         550,
			Type:           alert.TypeFirst,
			Status:         alert.StatusPending,
			CreatedAt:      createdAt,
			Fingerprint:    "fp-" + suffix,
			IdempotencyKey: "k-" + suffix,
		}
		inserted, err := alerts.Insert(context.Background(), a)
		require.NoError(t, err)
		require.True(t, inserted)
	}

	insert("recent", now.Add(-5*time.Minute), 480, ref)
	insert("hour", now.Add(-25*time.Minute), 440, ref)
	insert("other-item", now.Add(-3*time.Minute), 300, catalog.ItemRef{Kind: catalog.KindSet, ID: "75192"})
	insert("yesterday", now.AddDate(0, 0, -1), 100, ref)

	// Act
	c, err := repo.Counters(context.Background(), u.ID, ref, now)

	// Assert: yesterday is outside every window, the other item counts
	// toward the user totals but not the per-item ones.
	require.NoError(t, err)
	assert.Equal(t, 3, c.Today)
	assert.Equal(t, 2, c.ItemToday)
	assert.True(t, c.HasAlertTodayFor)
	assert.Equal(t, 2, c.LastTenMinutes)
	assert.Equal(t, 440.0, c.BestTotalToday)
}

func TestIncrementAlertCounters(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormWatchRepository(db)
	u := helpers.CreateTestUser(t, db, "DE")
	w := helpers.CreateTestWatch(t, db, u, catalog.ItemRef{Kind: catalog.KindMinifig, ID: "sw0010"}, 550)

	require.NoError(t, repo.IncrementAlertCounters(context.Background(), w.ID))
	require.NoError(t, repo.IncrementAlertCounters(context.Background(), w.ID))

	got, err := repo.FindByID(context.Background(), w.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.AlertsToday)
	assert.Equal(t, 2, got.AlertsTotal)
}

func TestRewriteAllowlists(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormWatchRepository(db)
	u := helpers.CreateTestUser(t, db, "DE")
	w1 := helpers.CreateTestWatch(t, db, u, catalog.ItemRef{Kind: catalog.KindMinifig, ID: "sw0010"}, 550)
	w2 := helpers.CreateTestWatch(t, db, u, catalog.ItemRef{Kind: catalog.KindSet, ID: "75192"}, 600)

	other := helpers.CreateTestUser(t, db, "DE")
	w3 := helpers.CreateTestWatch(t, db, other, catalog.ItemRef{Kind: catalog.KindSet, ID: "10294"}, 100)

	require.NoError(t, repo.RewriteAllowlists(context.Background(), u.ID, []string{"US", "CA"}))

	for _, id := range []int64{w1.ID, w2.ID} {
		got, err := repo.FindByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, []string{"US", "CA"}, got.ShipFromAllowlist)
	}
	untouched, err := repo.FindByID(context.Background(), w3.ID)
	require.NoError(t, err)
	assert.Contains(t, untouched.ShipFromAllowlist, "DE")
}
