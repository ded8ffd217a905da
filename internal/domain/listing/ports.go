package listing

import (
	"context"
	"time"

	"github.com/brickwatch/brickwatch/internal/domain/catalog"
)

// MarketplaceAdapter is the contract both marketplace adapters implement.
// Search returns raw candidates for an item shipped to a country; adapters
// own pagination, rate limiting, and auth internally.
type MarketplaceAdapter interface {
	Source() Source
	Search(ctx context.Context, item *catalog.Item, shipTo string, limit, offset int) ([]RawListing, error)
}

// Repository persists normalized listings keyed by
// (source, listing_id, scanned_for_country).
type Repository interface {
	Upsert(ctx context.Context, l *NormalizedListing) error
	// MarkAbsentInactive flags listings for (item, country) that were not
	// seen in the current cycle. Only rows from the given sources are
	// swept: an adapter that failed to respond is no evidence its
	// listings are gone. Returns the ids that went inactive.
	MarkAbsentInactive(ctx context.Context, ref catalog.ItemRef, country string, sources []Source, seenIDs []string) ([]string, error)
	Find(ctx context.Context, source Source, listingID, country string) (*NormalizedListing, error)
	ActiveByItem(ctx context.Context, ref catalog.ItemRef) ([]NormalizedListing, error)
	// DeleteExpired removes deal rows whose expires_at has passed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// DailyAggregate is one row of the daily price history snapshot.
type DailyAggregate struct {
	Day       time.Time
	ItemRef   catalog.ItemRef
	Condition Condition
	Source    Source
	Region    string
	MinTotal  float64
	AvgTotal  float64
	MaxTotal  float64
	Count     int
}

// PriceHistoryRepository stores the once-a-day aggregates.
type PriceHistoryRepository interface {
	UpsertDaily(ctx context.Context, rows []DailyAggregate) error
	// AggregateActive recomputes the given day's aggregates for one item
	// kind from the currently active listings.
	AggregateActive(ctx context.Context, day time.Time, kind catalog.ItemKind) ([]DailyAggregate, error)
}
