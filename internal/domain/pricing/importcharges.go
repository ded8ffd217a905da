package pricing

import (
	"github.com/brickwatch/brickwatch/internal/domain/geo"
	"github.com/brickwatch/brickwatch/pkg/utils"
)

// De-minimis and handling constants, converted to EUR at table rates where
// the corridor is quoted in another currency.
const (
	ukHandlingGBP   = 10.0
	euHandlingEUR   = 10.0
	caHandlingCAD   = 12.0
	usHandlingUSD   = 15.0
	usDeMinimisUSD  = 800.0
	caGSTHSTRate    = 0.13
	ukImportVATRate = 0.20
	usDutyRate      = 0.05
)

// ImportCharges estimates EUR import charges (VAT, duty, carrier handling)
// on a goods value of price+shipping, both already in EUR. ok=false means
// the corridor is not modeled; such candidates are dropped before this
// point by the block gate, so ok=false here indicates a bug upstream.
// All charges on these corridors are estimates by nature.
func ImportCharges(priceEUR, shippingEUR float64, from, to string) (charges float64, estimated bool, ok bool) {
	goods := priceEUR + shippingEUR

	switch {
	case from == to, geo.IsEU(from) && geo.IsEU(to):
		return 0, false, true

	case geo.IsEU(from) && to == "GB":
		handling, _ := ToEUR(ukHandlingGBP, "GBP")
		return utils.Round2(ukImportVATRate*goods + handling), true, true

	case from == "GB" && geo.IsEU(to):
		return utils.Round2(geo.VATRate(to)*goods + euHandlingEUR), true, true

	case from == "US" && to == "CA":
		// Canada's C$20 threshold is below any realistic listing; no
		// de-minimis branch.
		handling, _ := ToEUR(caHandlingCAD, "CAD")
		return utils.Round2(caGSTHSTRate*goods + handling), true, true

	case from == "CA" && to == "US":
		deMinimis, _ := ToEUR(usDeMinimisUSD, "USD")
		if goods < deMinimis {
			return 0, false, true
		}
		handling, _ := ToEUR(usHandlingUSD, "USD")
		return utils.Round2(usDutyRate*goods + handling), true, true

	default:
		return 0, false, false
	}
}
