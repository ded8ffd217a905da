package watch_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/brickwatch/brickwatch/internal/domain/listing"
	"github.com/brickwatch/brickwatch/internal/domain/watch"
)

func TestActive(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	w := &watch.Watch{Status: watch.StatusActive}
	assert.True(t, w.Active(now))

	w.Status = watch.StatusStopped
	assert.False(t, w.Active(now))

	snoozed := now.Add(time.Hour)
	w = &watch.Watch{Status: watch.StatusActive, SnoozedUntil: &snoozed}
	assert.False(t, w.Active(now))
	assert.True(t, w.Active(now.Add(2*time.Hour)))
}

func TestAcceptsCondition(t *testing.T) {
	anyW := &watch.Watch{Condition: watch.CondAny}
	newW := &watch.Watch{Condition: watch.CondNew}
	usedW := &watch.Watch{Condition: watch.CondUsed}

	assert.True(t, anyW.AcceptsCondition(listing.ConditionUnknown))
	assert.True(t, anyW.AcceptsCondition(listing.ConditionUsed))

	assert.True(t, newW.AcceptsCondition(listing.ConditionNew))
	assert.False(t, newW.AcceptsCondition(listing.ConditionUsed))
	assert.False(t, newW.AcceptsCondition(listing.ConditionUnknown))

	assert.True(t, usedW.AcceptsCondition(listing.ConditionUsed))
	assert.False(t, usedW.AcceptsCondition(listing.ConditionNew))
}

func TestAcceptsShipFrom(t *testing.T) {
	w := &watch.Watch{ShipFromAllowlist: []string{"DE", "NL"}}

	assert.True(t, w.AcceptsShipFrom("DE"))
	assert.False(t, w.AcceptsShipFrom("US"))
	assert.False(t, (&watch.Watch{}).AcceptsShipFrom("DE"))
}

func TestDefaultAllowlist(t *testing.T) {
	assert.Contains(t, watch.DefaultAllowlist("DE"), "GB")
	assert.NotContains(t, watch.DefaultAllowlist("DE"), "US")

	na := watch.DefaultAllowlist("US")
	assert.ElementsMatch(t, []string{"US", "CA"}, na)

	// Unknown countries default to the EU+UK block.
	assert.Contains(t, watch.DefaultAllowlist("JP"), "DE")
}
