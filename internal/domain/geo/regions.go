package geo

// Block is the shipping block a country belongs to. Buyers never see
// sellers from the other block (no cross-block routing).
type Block string

const (
	BlockEuropeUK     Block = "EU_UK"
	BlockNorthAmerica Block = "NA"
	BlockUnknown      Block = ""
)

var euCountries = map[string]bool{
	"AT": true, "BE": true, "BG": true, "HR": true, "CY": true,
	"CZ": true, "DK": true, "EE": true, "FI": true, "FR": true,
	"DE": true, "GR": true, "HU": true, "IE": true, "IT": true,
	"LV": true, "LT": true, "LU": true, "MT": true, "NL": true,
	"PL": true, "PT": true, "RO": true, "SK": true, "SI": true,
	"ES": true, "SE": true,
}

// EUUKCountries is the default ship-from allowlist for European buyers.
var EUUKCountries = func() []string {
	out := make([]string, 0, len(euCountries)+1)
	for c := range euCountries {
		out = append(out, c)
	}
	out = append(out, "GB")
	return out
}()

// NorthAmericaCountries is the default ship-from allowlist for NA buyers.
var NorthAmericaCountries = []string{"US", "CA"}

// IsEU reports whether the country code is an EU member state.
func IsEU(country string) bool {
	return euCountries[country]
}

// BlockOf returns the shipping block for a country code.
func BlockOf(country string) Block {
	switch {
	case euCountries[country] || country == "GB":
		return BlockEuropeUK
	case country == "US" || country == "CA":
		return BlockNorthAmerica
	default:
		return BlockUnknown
	}
}

// SameBlock reports whether two countries share a shipping block.
// Unknown countries are never in a block.
func SameBlock(a, b string) bool {
	ba, bb := BlockOf(a), BlockOf(b)
	return ba != BlockUnknown && ba == bb
}

// neighbors is the EU adjacency list used by the shipping estimator.
// Land borders plus the short ferry corridors sellers actually serve.
var neighbors = map[string][]string{
	"AT": {"DE", "CZ", "SK", "HU", "SI", "IT"},
	"BE": {"NL", "DE", "LU", "FR"},
	"BG": {"RO", "GR"},
	"HR": {"SI", "HU"},
	"CZ": {"DE", "PL", "SK", "AT"},
	"DK": {"DE", "SE"},
	"DE": {"DK", "NL", "BE", "LU", "FR", "AT", "CZ", "PL"},
	"EE": {"LV", "FI"},
	"ES": {"PT", "FR"},
	"FI": {"SE", "EE"},
	"FR": {"BE", "LU", "DE", "IT", "ES"},
	"GR": {"BG"},
	"HU": {"AT", "SK", "RO", "HR", "SI"},
	"IE": {},
	"IT": {"FR", "AT", "SI"},
	"LT": {"LV", "PL"},
	"LU": {"BE", "DE", "FR"},
	"LV": {"EE", "LT"},
	"NL": {"BE", "DE"},
	"PL": {"DE", "CZ", "SK", "LT"},
	"PT": {"ES"},
	"RO": {"HU", "BG"},
	"SE": {"FI", "DK"},
	"SI": {"AT", "IT", "HU", "HR"},
	"SK": {"CZ", "PL", "AT", "HU"},
}

// AreNeighbors reports whether two EU countries share a shipping-relevant border.
func AreNeighbors(a, b string) bool {
	for _, n := range neighbors[a] {
		if n == b {
			return true
		}
	}
	return false
}

// vatRates holds standard VAT rates per destination country, used for
// import-charge estimation and the B2B ex-VAT uplift. Comparison-grade,
// not accounting-grade.
var vatRates = map[string]float64{
	"AT": 0.20, "BE": 0.21, "BG": 0.20, "HR": 0.25, "CY": 0.19,
	"CZ": 0.21, "DK": 0.25, "EE": 0.22, "FI": 0.24, "FR": 0.20,
	"DE": 0.19, "GR": 0.24, "HU": 0.27, "IE": 0.23, "IT": 0.22,
	"LV": 0.21, "LT": 0.21, "LU": 0.17, "MT": 0.18, "NL": 0.21,
	"PL": 0.23, "PT": 0.23, "RO": 0.19, "SK": 0.20, "SI": 0.22,
	"ES": 0.21, "SE": 0.25,
	"GB": 0.20,
}

// VATRate returns the standard VAT rate for a destination, or 0 when unknown.
func VATRate(country string) float64 {
	return vatRates[country]
}
