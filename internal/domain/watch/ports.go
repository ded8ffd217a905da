package watch

import (
	"context"
	"time"

	"github.com/brickwatch/brickwatch/internal/domain/catalog"
)

// ScanGroup aggregates all active watches on one (item, ship-to) pair so a
// single provider query serves every watcher in the group.
type ScanGroup struct {
	ItemRef         catalog.ItemRef
	ShipToCountry   string
	WatcherCount    int
	MaxScanPriority int
	BrickOwlEnabled bool // OR-aggregate over the group's watches
}

// Counters are the per-user throttling windows, all in UTC.
type Counters struct {
	Today            int
	ThisHour         int
	LastTenMinutes   int
	ItemToday        int
	BestTotalToday   float64 // 0 when no alert today
	HasAlertTodayFor bool
}

// Repository is the watch store. Creation wraps the item upsert and the
// user's region read in one transaction.
type Repository interface {
	Create(ctx context.Context, w *Watch) error
	Update(ctx context.Context, w *Watch) error
	FindByID(ctx context.Context, id int64) (*Watch, error)
	FindActiveByUserItem(ctx context.Context, userID int64, ref catalog.ItemRef) (*Watch, error)
	ListByUser(ctx context.Context, userID int64) ([]Watch, error)

	// ActiveScanGroups returns groups ordered by (max priority desc,
	// watcher count desc).
	ActiveScanGroups(ctx context.Context, now time.Time) ([]ScanGroup, error)
	WatchesInGroup(ctx context.Context, g ScanGroup, now time.Time) ([]Watch, error)

	Counters(ctx context.Context, userID int64, ref catalog.ItemRef, now time.Time) (*Counters, error)
	IncrementAlertCounters(ctx context.Context, watchID int64) error

	// RewriteAllowlists replaces the ship-from allowlist on all of a
	// user's watches in one statement, used when the user moves country.
	RewriteAllowlists(ctx context.Context, userID int64, allowlist []string) error
}

// NotificationState tracks, per (watch, listing), what was last notified.
// Drives the still-available reminder job.
type NotificationState struct {
	WatchID        int64
	ListingID      string
	Source         string
	NotifiedAt     time.Time
	NotifiedPrice  float64
	ReminderCount  int
	LastReminderAt *time.Time
}

// NotificationStateRepository persists per-watch notification state.
type NotificationStateRepository interface {
	Upsert(ctx context.Context, s *NotificationState) error
	Find(ctx context.Context, watchID int64, source, listingID string) (*NotificationState, error)
	Latest(ctx context.Context, watchID int64) (*NotificationState, error)
	// DueForReminder selects states notified at least minAge ago with
	// fewer than maxReminders reminders sent.
	DueForReminder(ctx context.Context, now time.Time, minAge time.Duration, maxReminders int) ([]NotificationState, error)
	// MarkReminded stamps a sent reminder and bumps the counter.
	MarkReminded(ctx context.Context, watchID int64, source, listingID string, now time.Time) error
	// ExhaustReminders stops future re-checks for a state whose listing
	// is gone.
	ExhaustReminders(ctx context.Context, watchID int64, source, listingID string, now time.Time) error
}
