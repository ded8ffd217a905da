package ebay

// Marketplace endpoint selection. Only countries with their own eBay site
// get the server-side itemLocationRegion filter: combining the filter with
// a fallback marketplace returns wrong results.

var marketplaceByCountry = map[string]string{
	"DE": "EBAY_DE",
	"AT": "EBAY_AT",
	"FR": "EBAY_FR",
	"IT": "EBAY_IT",
	"ES": "EBAY_ES",
	"NL": "EBAY_NL",
	"BE": "EBAY_BE",
	"PL": "EBAY_PL",
	"IE": "EBAY_IE",
	"GB": "EBAY_GB",
	"US": "EBAY_US",
	"CA": "EBAY_CA",
}

// fallbackMarketplace is the largest regional site, used for ship-to
// countries without their own endpoint.
const fallbackMarketplace = "EBAY_DE"

// searchVariant captures the three request shapes from the region rules.
type searchVariant int

const (
	// variantDirectEU: EU buyer with own endpoint, server filters region.
	variantDirectEU searchVariant = iota
	// variantUK: UK buyer, no region filter, EU imports included.
	variantUK
	// variantNoFilter: NA buyer or EU fallback, post-filter by ship-from.
	variantNoFilter
)

// marketplaceFor picks the endpoint, the variant, and whether the
// server-side region filter applies for a ship-to country.
func marketplaceFor(shipTo, configuredFallback string) (marketplace string, variant searchVariant) {
	mp, direct := marketplaceByCountry[shipTo]
	if !direct {
		mp = configuredFallback
		if mp == "" {
			mp = fallbackMarketplace
		}
		return mp, variantNoFilter
	}
	switch shipTo {
	case "GB":
		return mp, variantUK
	case "US", "CA":
		return mp, variantNoFilter
	default:
		return mp, variantDirectEU
	}
}
