package scan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/brickwatch/brickwatch/internal/domain/alert"
	"github.com/brickwatch/brickwatch/internal/domain/listing"
	"github.com/brickwatch/brickwatch/internal/domain/watch"
)

func priorState(source, listingID string, price float64) *watch.NotificationState {
	return &watch.NotificationState{
		WatchID:       1,
		Source:        source,
		ListingID:     listingID,
		NotifiedAt:    time.Now().UTC().Add(-time.Hour),
		NotifiedPrice: price,
	}
}

func matched(source listing.Source, id string, total float64) *listing.NormalizedListing {
	return &listing.NormalizedListing{Source: source, ListingID: id, Total: total}
}

func TestDeriveType_NoPriorIsFirst(t *testing.T) {
	got := deriveType(nil, matched(listing.SourceEbay, "l-1", 480), false)

	assert.Equal(t, alert.TypeFirst, got)
}

func TestDeriveType_SameListingCheaperIsPriceDrop(t *testing.T) {
	prior := priorState("ebay", "l-1", 500)

	assert.Equal(t, alert.TypePriceDrop, deriveType(prior, matched(listing.SourceEbay, "l-1", 480), false))
	// Same listing at the same or higher total is not a drop.
	assert.Equal(t, alert.TypeFirst, deriveType(prior, matched(listing.SourceEbay, "l-1", 500), false))
}

func TestDeriveType_DifferentCheaperListingIsBetterDeal(t *testing.T) {
	prior := priorState("ebay", "l-1", 500)

	assert.Equal(t, alert.TypeBetterDeal, deriveType(prior, matched(listing.SourceEbay, "l-2", 480), false))
	assert.Equal(t, alert.TypeFirst, deriveType(prior, matched(listing.SourceEbay, "l-2", 520), false))
}

func TestDeriveType_PriorGoneIsPreviousSold(t *testing.T) {
	// The previously notified listing vanished from the marketplace, so
	// any match is a previous_sold regardless of price.
	prior := priorState("ebay", "l-1", 500)

	assert.Equal(t, alert.TypePreviousSold, deriveType(prior, matched(listing.SourceEbay, "l-2", 520), true))
	assert.Equal(t, alert.TypePreviousSold, deriveType(prior, matched(listing.SourceBrickOwl, "l-3", 480), true))
}

func TestDeriveType_SourceDisambiguatesListingIDs(t *testing.T) {
	// The same listing id on another marketplace is a different listing.
	prior := priorState("ebay", "l-1", 500)

	assert.Equal(t, alert.TypeBetterDeal, deriveType(prior, matched(listing.SourceBrickOwl, "l-1", 480), false))
}
