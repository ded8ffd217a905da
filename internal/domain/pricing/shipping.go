package pricing

import (
	"github.com/brickwatch/brickwatch/internal/domain/catalog"
	"github.com/brickwatch/brickwatch/internal/domain/geo"
)

// corridor classifies a (ship_from, ship_to) pair for shipping estimation.
type corridor int

const (
	corridorDomestic corridor = iota
	corridorEUNeighbor
	corridorEUFar
	corridorEUUK
	corridorUSCA
	corridorUnknown
)

func corridorOf(from, to string) corridor {
	switch {
	case from == to:
		return corridorDomestic
	case geo.IsEU(from) && geo.IsEU(to):
		if geo.AreNeighbors(from, to) {
			return corridorEUNeighbor
		}
		return corridorEUFar
	case (geo.IsEU(from) && to == "GB") || (from == "GB" && geo.IsEU(to)):
		return corridorEUUK
	case (from == "US" && to == "CA") || (from == "CA" && to == "US"):
		return corridorUSCA
	default:
		return corridorUnknown
	}
}

// setShippingTable holds (base EUR, cap EUR) per corridor for sets.
var setShippingTable = map[corridor][2]float64{
	corridorDomestic:   {5, 12},
	corridorEUNeighbor: {8, 35},
	corridorEUFar:      {12, 35},
	corridorEUUK:       {15, 45},
	corridorUSCA:       {10, 35},
}

// minifigShippingTable is a flat EUR estimate per corridor; minifigs ship
// as letters so size does not matter.
var minifigShippingTable = map[corridor]float64{
	corridorDomestic:   2.5,
	corridorEUNeighbor: 4,
	corridorEUFar:      5.5,
	corridorEUUK:       8,
	corridorUSCA:       6,
}

// sizeMultiplier scales the set base rate by piece count. Unknown counts
// use the mid curve.
func sizeMultiplier(pieces int) float64 {
	switch {
	case pieces <= 0:
		return 1.5
	case pieces < 200:
		return 1.0
	case pieces < 800:
		return 1.4
	case pieces < 2000:
		return 1.8
	case pieces < 4000:
		return 2.2
	default:
		return 2.8
	}
}

// EstimateShipping estimates EUR shipping for a corridor when the
// marketplace never quotes it (adapter B). Returns ok=false when the
// corridor is cross-block or unknown; callers drop those candidates.
func EstimateShipping(from, to string, kind catalog.ItemKind, pieces int) (float64, bool) {
	c := corridorOf(from, to)
	if c == corridorUnknown {
		return 0, false
	}
	if kind == catalog.KindMinifig {
		return minifigShippingTable[c], true
	}
	entry := setShippingTable[c]
	est := entry[0] * sizeMultiplier(pieces)
	if est > entry[1] {
		est = entry[1]
	}
	return est, true
}
