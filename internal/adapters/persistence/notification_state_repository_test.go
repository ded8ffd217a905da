package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brickwatch/brickwatch/internal/adapters/persistence"
	"github.com/brickwatch/brickwatch/internal/domain/watch"
	"github.com/brickwatch/brickwatch/test/helpers"
)

func testState(watchID int64, listingID string, notifiedAt time.Time, price float64) *watch.NotificationState {
	return &watch.NotificationState{
		WatchID:       watchID,
		Source:        "ebay",
		ListingID:     listingID,
		NotifiedAt:    notifiedAt,
		NotifiedPrice: price,
	}
}

func TestNotificationStateUpsert(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormNotificationStateRepository(db)
	now := time.Now().UTC().Truncate(time.Second)

	// Act: second upsert on the same key replaces the price.
	require.NoError(t, repo.Upsert(context.Background(), testState(1, "l-1", now, 480)))
	require.NoError(t, repo.Upsert(context.Background(), testState(1, "l-1", now, 450)))

	// Assert
	got, err := repo.Find(context.Background(), 1, "ebay", "l-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 450.0, got.NotifiedPrice)
	assert.Zero(t, got.ReminderCount)
}

func TestNotificationStateFind_MissingIsNil(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormNotificationStateRepository(db)

	got, err := repo.Find(context.Background(), 1, "ebay", "nope")

	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestNotificationStateLatest(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormNotificationStateRepository(db)
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, repo.Upsert(context.Background(), testState(1, "l-old", now.Add(-2*time.Hour), 500)))
	require.NoError(t, repo.Upsert(context.Background(), testState(1, "l-new", now, 480)))

	latest, err := repo.Latest(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "l-new", latest.ListingID)

	none, err := repo.Latest(context.Background(), 7)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestDueForReminder(t *testing.T) {
	// Arrange: one state old enough, one too fresh, one already past the
	// reminder cap.
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormNotificationStateRepository(db)
	now := time.Now().UTC()

	require.NoError(t, repo.Upsert(context.Background(), testState(1, "l-due", now.Add(-72*time.Hour), 480)))
	require.NoError(t, repo.Upsert(context.Background(), testState(1, "l-fresh", now.Add(-2*time.Hour), 490)))
	exhausted := testState(1, "l-capped", now.Add(-96*time.Hour), 500)
	exhausted.ReminderCount = 2
	require.NoError(t, repo.Upsert(context.Background(), exhausted))

	// Act
	due, err := repo.DueForReminder(context.Background(), now, 48*time.Hour, 2)

	// Assert
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "l-due", due[0].ListingID)
}

func TestMarkReminded(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormNotificationStateRepository(db)
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, repo.Upsert(context.Background(), testState(1, "l-1", now.Add(-72*time.Hour), 480)))

	require.NoError(t, repo.MarkReminded(context.Background(), 1, "ebay", "l-1", now))

	got, err := repo.Find(context.Background(), 1, "ebay", "l-1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.ReminderCount)
	require.NotNil(t, got.LastReminderAt)
	assert.WithinDuration(t, now, *got.LastReminderAt, time.Second)
}

func TestExhaustReminders(t *testing.T) {
	// A vanished listing is taken out of the reminder pool for good.
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormNotificationStateRepository(db)
	now := time.Now().UTC()

	require.NoError(t, repo.Upsert(context.Background(), testState(1, "l-gone", now.Add(-72*time.Hour), 480)))

	require.NoError(t, repo.ExhaustReminders(context.Background(), 1, "ebay", "l-gone", now))

	due, err := repo.DueForReminder(context.Background(), now, 48*time.Hour, 2)
	require.NoError(t, err)
	assert.Empty(t, due)
}
