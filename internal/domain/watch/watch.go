package watch

import (
	"time"

	"github.com/brickwatch/brickwatch/internal/domain/catalog"
	"github.com/brickwatch/brickwatch/internal/domain/geo"
	"github.com/brickwatch/brickwatch/internal/domain/listing"
)

// Status is the watch lifecycle state. Watches are never auto-deleted;
// users stop and resume them.
type Status string

const (
	StatusActive  Status = "active"
	StatusStopped Status = "stopped"
)

// ConditionPref is the buyer's acceptable-condition preference.
type ConditionPref string

const (
	CondNew  ConditionPref = "new"
	CondUsed ConditionPref = "used"
	CondAny  ConditionPref = "any"
)

// Watch is a registered (user, item, target landed price) triple with the
// buyer's policy constraints. At most one active watch per (user, item).
type Watch struct {
	ID                int64
	UserID            int64
	ItemRef           catalog.ItemRef
	ShipToCountry     string
	TargetPrice       float64 // EUR, landed
	MinPrice          float64 // EUR, floors out mislistings
	Condition         ConditionPref
	ShipFromAllowlist []string
	MinSellerRating   float64
	MinSellerFeedback int
	ExcludeWords      []string
	BrickOwlEnabled   bool
	Status            Status
	SnoozedUntil      *time.Time
	ScanPriority      int

	AlertsToday int
	AlertsTotal int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Active reports whether the watch should be scanned at the given time.
func (w *Watch) Active(now time.Time) bool {
	if w.Status != StatusActive {
		return false
	}
	if w.SnoozedUntil != nil && now.Before(*w.SnoozedUntil) {
		return false
	}
	return true
}

// AcceptsCondition checks a normalized listing condition against the
// watch preference. Unknown condition only passes an "any" watch.
func (w *Watch) AcceptsCondition(c listing.Condition) bool {
	switch w.Condition {
	case CondAny:
		return true
	case CondNew:
		return c == listing.ConditionNew
	case CondUsed:
		return c == listing.ConditionUsed
	default:
		return false
	}
}

// AcceptsShipFrom checks the seller country against the allowlist.
func (w *Watch) AcceptsShipFrom(country string) bool {
	for _, c := range w.ShipFromAllowlist {
		if c == country {
			return true
		}
	}
	return false
}

// DefaultAllowlist derives the ship-from allowlist from the buyer's
// country: North America buyers trade within {US, CA}, everyone else
// within EU+UK.
func DefaultAllowlist(userCountry string) []string {
	if geo.BlockOf(userCountry) == geo.BlockNorthAmerica {
		return append([]string(nil), geo.NorthAmericaCountries...)
	}
	return append([]string(nil), geo.EUUKCountries...)
}
