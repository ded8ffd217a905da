package pricing

import (
	"fmt"
	"strings"

	"github.com/brickwatch/brickwatch/internal/domain/catalog"
	"github.com/brickwatch/brickwatch/internal/domain/geo"
	"github.com/brickwatch/brickwatch/internal/domain/listing"
	"github.com/brickwatch/brickwatch/pkg/utils"
)

// Calculator annotates raw listings with their landed cost in EUR.
type Calculator struct {
	// exVATSellers are seller display names known to list B2B ex-VAT
	// prices; their price gets a destination-VAT uplift before comparison.
	exVATSellers map[string]bool
}

// NewCalculator builds a Calculator with the given B2B ex-VAT seller
// allowlist (matched case-insensitively on display name).
func NewCalculator(exVATSellers []string) *Calculator {
	m := make(map[string]bool, len(exVATSellers))
	for _, s := range exVATSellers {
		m[strings.ToLower(s)] = true
	}
	return &Calculator{exVATSellers: m}
}

// Landed computes the landed cost of a raw candidate shipped to shipTo,
// producing the cost fields of a NormalizedListing. Errors are per-listing
// policy rejections (dropped by the caller, never fatal):
//   - unknown currency
//   - cross-border listing with no shipping quote on a marketplace that
//     quotes shipping (no shipping to destination)
//   - unmodeled corridor
func (c *Calculator) Landed(raw *listing.RawListing, item *catalog.Item, shipTo string) (*listing.NormalizedListing, error) {
	if !geo.SameBlock(raw.ShipFrom, shipTo) {
		return nil, fmt.Errorf("cross-block candidate %s→%s", raw.ShipFrom, shipTo)
	}

	priceEUR, err := ToEUR(raw.Price, raw.Currency)
	if err != nil {
		return nil, err
	}
	if c.exVATSellers[strings.ToLower(raw.SellerUsername)] {
		priceEUR *= 1 + geo.VATRate(shipTo)
	}
	priceEUR = utils.Round2(priceEUR)

	var shippingEUR float64
	shippingEstimated := false
	switch {
	case raw.HasShipping:
		shippingEUR, err = ToEUR(raw.Shipping, raw.Currency)
		if err != nil {
			return nil, err
		}
		if shippingEUR == 0 && raw.ShipFrom != shipTo {
			// Zero cross-border shipping on a quoting marketplace means
			// the seller does not ship to the destination.
			return nil, fmt.Errorf("no shipping from %s to %s", raw.ShipFrom, shipTo)
		}
	case raw.Source.QuotesShipping():
		// Absent quote on a quoting marketplace: same signal as a zero
		// cross-border quote. Domestic listings ship free.
		if raw.ShipFrom != shipTo {
			return nil, fmt.Errorf("no shipping from %s to %s", raw.ShipFrom, shipTo)
		}
	default:
		est, ok := EstimateShipping(raw.ShipFrom, shipTo, item.Ref.Kind, item.PieceCount)
		if !ok {
			return nil, fmt.Errorf("no shipping estimate for corridor %s→%s", raw.ShipFrom, shipTo)
		}
		shippingEUR = est
		shippingEstimated = true
	}
	shippingEUR = utils.Round2(shippingEUR)

	importEUR, importEstimated, ok := ImportCharges(priceEUR, shippingEUR, raw.ShipFrom, shipTo)
	if !ok {
		return nil, fmt.Errorf("unmodeled import corridor %s→%s", raw.ShipFrom, shipTo)
	}

	return &listing.NormalizedListing{
		Source:            raw.Source,
		ListingID:         raw.ListingID,
		ScannedForCountry: shipTo,
		ItemRef:           item.Ref,
		Title:             raw.Title,
		URL:               raw.URL,
		ImageURL:          raw.ImageURL,
		SellerID:          raw.SellerID,
		SellerUsername:    raw.SellerUsername,
		SellerRating:      raw.SellerRating,
		SellerFeedback:    raw.SellerFeedback,
		ShipFrom:          raw.ShipFrom,
		Condition:         raw.Condition,
		Price:             priceEUR,
		Shipping:          shippingEUR,
		ShippingEstimated: shippingEstimated,
		ImportCharges:     importEUR,
		ImportEstimated:   importEstimated,
		Total:             utils.Round2(priceEUR + shippingEUR + importEUR),
		CurrencyOriginal:  strings.ToUpper(raw.Currency),
		PriceOriginal:     raw.Price,
		ShippingOriginal:  raw.Shipping,
		Fingerprint:       listing.Fingerprint(raw.Source, raw.SellerID, raw.Title, priceEUR),
		ExpiresAt:         raw.ExpiresAt,
		IsActive:          true,
	}, nil
}
