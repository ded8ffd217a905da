package helpers

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/brickwatch/brickwatch/internal/adapters/persistence"
	"github.com/brickwatch/brickwatch/internal/domain/catalog"
	"github.com/brickwatch/brickwatch/internal/domain/listing"
	"github.com/brickwatch/brickwatch/internal/domain/user"
	"github.com/brickwatch/brickwatch/internal/domain/watch"
)

// CreateTestUser persists a user with sensible defaults and returns it
func CreateTestUser(t *testing.T, db *gorm.DB, country string) *user.User {
	t.Helper()
	u := &user.User{
		Country:     country,
		Timezone:    "Europe/Berlin",
		ChatChatID:  100,
		DigestOptIn: true,
	}
	if err := persistence.NewGormUserRepository(db).Save(context.Background(), u); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateTestItem persists a catalog item
func CreateTestItem(t *testing.T, db *gorm.DB, kind catalog.ItemKind, id, name string) *catalog.Item {
	t.Helper()
	item := &catalog.Item{
		Ref:  catalog.ItemRef{Kind: kind, ID: id},
		Name: name,
	}
	if err := persistence.NewGormItemRepository(db).Upsert(context.Background(), item); err != nil {
		t.Fatalf("failed to create test item: %v", err)
	}
	return item
}

// CreateTestWatch persists an active watch through the repository, which
// defaults the allowlist from the user's country
func CreateTestWatch(t *testing.T, db *gorm.DB, u *user.User, ref catalog.ItemRef, target float64) *watch.Watch {
	t.Helper()
	w := &watch.Watch{
		UserID:        u.ID,
		ItemRef:       ref,
		ShipToCountry: u.Country,
		TargetPrice:   target,
		Condition:     watch.CondAny,
		Status:        watch.StatusActive,
	}
	if err := persistence.NewGormWatchRepository(db).Create(context.Background(), w); err != nil {
		t.Fatalf("failed to create test watch: %v", err)
	}
	return w
}

// NewRawListing builds a plausible EUR raw listing for tests
func NewRawListing(source listing.Source, id string, title string, price, shipping float64) listing.RawListing {
	return listing.RawListing{
		Source:         source,
		ListingID:      id,
		Title:          title,
		URL:            "https://example.com/" + id,
		SellerID:       "seller-" + id,
		SellerUsername: "seller_" + id,
		SellerRating:   99.1,
		SellerFeedback: 250,
		ShipFrom:       "DE",
		Condition:      listing.ConditionNew,
		Currency:       "EUR",
		Price:          price,
		Shipping:       shipping,
		HasShipping:    true,
	}
}

// NewStoredListing persists an active normalized listing and returns it
func NewStoredListing(t *testing.T, db *gorm.DB, ref catalog.ItemRef, source listing.Source, id, country string, total float64) *listing.NormalizedListing {
	t.Helper()
	l := &listing.NormalizedListing{
		Source:            source,
		ListingID:         id,
		ScannedForCountry: country,
		ItemRef:           ref,
		Title:             "Listing " + id,
		URL:               "https://example.com/" + id,
		SellerUsername:    "seller_" + id,
		SellerRating:      99.0,
		SellerFeedback:    100,
		ShipFrom:          "DE",
		Condition:         listing.ConditionNew,
		Price:             total,
		Total:             total,
		CurrencyOriginal:  "EUR",
		PriceOriginal:     total,
		Fingerprint:       "fp-" + id,
		FetchedAt:         time.Now().UTC(),
		IsActive:          true,
	}
	if err := persistence.NewGormListingRepository(db).Upsert(context.Background(), l); err != nil {
		t.Fatalf("failed to store test listing: %v", err)
	}
	return l
}
