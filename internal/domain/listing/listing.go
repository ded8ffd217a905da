package listing

import (
	"time"

	"github.com/brickwatch/brickwatch/internal/domain/catalog"
)

// Source identifies the marketplace a listing came from.
type Source string

const (
	SourceEbay     Source = "ebay"
	SourceBrickOwl Source = "brickowl"
)

// QuotesShipping reports whether the marketplace quotes shipping on its
// listings. On a quoting marketplace a missing cross-border quote means the
// seller does not ship to the destination; on a non-quoting one the cost
// model estimates.
func (s Source) QuotesShipping() bool {
	return s != SourceBrickOwl
}

// Condition is the normalized item condition.
type Condition string

const (
	ConditionNew     Condition = "new"
	ConditionUsed    Condition = "used"
	ConditionUnknown Condition = "unknown"
)

// RawListing is what a marketplace adapter emits before cost annotation.
// Monetary fields are in the listing's original currency.
type RawListing struct {
	Source         Source
	ListingID      string
	Title          string
	URL            string
	ImageURL       string
	SellerID       string
	SellerUsername string
	SellerRating   float64 // 0 when unknown
	SellerFeedback int     // -1 when unknown
	ShipFrom       string
	Condition      Condition
	Currency       string
	Price          float64
	Shipping       float64
	HasShipping    bool       // false when the marketplace did not quote shipping
	ExpiresAt      *time.Time // listing end date when reported
}

// NormalizedListing is the single tagged record both adapters produce after
// the cost model ran. All comparison fields are EUR; originals are retained
// for display.
type NormalizedListing struct {
	Source            Source
	ListingID         string
	ScannedForCountry string
	ItemRef           catalog.ItemRef
	Title             string
	URL               string
	ImageURL          string
	SellerID          string
	SellerUsername    string
	SellerRating      float64
	SellerFeedback    int
	ShipFrom          string
	Condition         Condition

	Price             float64 // EUR
	Shipping          float64 // EUR
	ShippingEstimated bool
	ImportCharges     float64 // EUR
	ImportEstimated   bool
	Total             float64 // round2(price + shipping + import)

	CurrencyOriginal string
	PriceOriginal    float64
	ShippingOriginal float64

	Fingerprint string
	FetchedAt   time.Time
	ExpiresAt   *time.Time // listing end date when the marketplace reports one
	IsActive    bool
}

// IsEstimate reports whether any cost component was estimated rather than
// quoted. Rendered downstream as a visible uncertainty marker.
func (l *NormalizedListing) IsEstimate() bool {
	return l.ShippingEstimated || l.ImportEstimated
}
