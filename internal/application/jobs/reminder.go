package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/brickwatch/brickwatch/internal/application/common"
	"github.com/brickwatch/brickwatch/internal/application/dispatch"
	"github.com/brickwatch/brickwatch/internal/domain/alert"
	"github.com/brickwatch/brickwatch/internal/domain/catalog"
	"github.com/brickwatch/brickwatch/internal/domain/listing"
	"github.com/brickwatch/brickwatch/internal/domain/pricing"
	"github.com/brickwatch/brickwatch/internal/domain/shared"
	"github.com/brickwatch/brickwatch/internal/domain/user"
	"github.com/brickwatch/brickwatch/internal/domain/watch"
)

const (
	reminderMinAge       = 3 * 24 * time.Hour
	reminderMax          = 2
	reminderPriceFactor  = 0.8
	reminderSuppressDays = 3
	reminderSearchLimit  = 50
)

// ReminderHandler re-checks notified listings that were well under target:
// still available and still under target emits a reminder; a vanished
// listing is marked so it is never re-checked again.
type ReminderHandler struct {
	states     watch.NotificationStateRepository
	watches    watch.Repository
	users      user.Repository
	items      catalog.ItemRepository
	alerts     alert.Repository
	adapters   []listing.MarketplaceAdapter
	calc       *pricing.Calculator
	dispatcher *dispatch.Dispatcher
	clock      shared.Clock
	log        zerolog.Logger
}

// NewReminderHandler creates the still-available reminder job handler.
func NewReminderHandler(
	states watch.NotificationStateRepository,
	watches watch.Repository,
	users user.Repository,
	items catalog.ItemRepository,
	alerts alert.Repository,
	adapters []listing.MarketplaceAdapter,
	calc *pricing.Calculator,
	dispatcher *dispatch.Dispatcher,
	clock shared.Clock,
	log zerolog.Logger,
) *ReminderHandler {
	return &ReminderHandler{
		states:     states,
		watches:    watches,
		users:      users,
		items:      items,
		alerts:     alerts,
		adapters:   adapters,
		calc:       calc,
		dispatcher: dispatcher,
		clock:      clock,
		log:        log,
	}
}

func (h *ReminderHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	if _, ok := request.(RunReminderCommand); !ok {
		return nil, fmt.Errorf("invalid request type for ReminderHandler")
	}
	now := h.clock.Now()

	due, err := h.states.DueForReminder(ctx, now, reminderMinAge, reminderMax)
	if err != nil {
		return nil, fmt.Errorf("failed to load reminder candidates: %w", err)
	}

	resp := &RunReminderResponse{}
	for i := range due {
		state := &due[i]
		outcome, err := h.check(ctx, state)
		if err != nil {
			h.log.Warn().Err(err).
				Int64("watch", state.WatchID).
				Str("listing", state.ListingID).
				Msg("reminder check failed")
			continue
		}
		resp.Checked++
		switch outcome {
		case checkedReminded:
			resp.Reminded++
		case checkedExhausted:
			resp.Exhausted++
		}
	}

	h.log.Info().
		Int("checked", resp.Checked).
		Int("reminded", resp.Reminded).
		Int("exhausted", resp.Exhausted).
		Msg("reminder pass complete")
	return resp, nil
}

type checkOutcome int

const (
	checkedSkipped checkOutcome = iota
	checkedReminded
	checkedExhausted
)

func (h *ReminderHandler) check(ctx context.Context, state *watch.NotificationState) (checkOutcome, error) {
	w, err := h.watches.FindByID(ctx, state.WatchID)
	if err != nil {
		return checkedSkipped, err
	}
	if !w.Active(h.clock.Now()) {
		return checkedSkipped, nil
	}
	// Only deals well under target are worth nudging about.
	if state.NotifiedPrice >= w.TargetPrice*reminderPriceFactor {
		return checkedSkipped, nil
	}

	adapter := h.adapterFor(listing.Source(state.Source))
	if adapter == nil {
		return checkedSkipped, nil
	}
	item, err := h.items.FindByRef(ctx, w.ItemRef)
	if err != nil {
		return checkedSkipped, err
	}

	raws, err := adapter.Search(ctx, item, w.ShipToCountry, reminderSearchLimit, 0)
	if err != nil {
		return checkedSkipped, fmt.Errorf("re-check search failed: %w", err)
	}
	var found *listing.RawListing
	for i := range raws {
		if raws[i].ListingID == state.ListingID {
			found = &raws[i]
			break
		}
	}
	now := h.clock.Now()
	if found == nil {
		if err := h.states.ExhaustReminders(ctx, state.WatchID, state.Source, state.ListingID, now); err != nil {
			return checkedSkipped, err
		}
		return checkedExhausted, nil
	}

	nl, err := h.calc.Landed(found, item, w.ShipToCountry)
	if err != nil {
		return checkedSkipped, nil
	}
	nl.FetchedAt = now
	if nl.Total > w.TargetPrice {
		// Price climbed back over target; count the check.
		return checkedSkipped, h.states.MarkReminded(ctx, state.WatchID, state.Source, state.ListingID, now)
	}

	alerted, err := h.alerts.AlertedWithin(ctx, w.UserID, nl.Fingerprint, reminderSuppressDays)
	if err != nil {
		return checkedSkipped, err
	}
	if alerted {
		return checkedSkipped, nil
	}

	u, err := h.users.FindByID(ctx, w.UserID)
	if err != nil {
		return checkedSkipped, err
	}
	outcome, err := h.dispatcher.Dispatch(ctx, w, u, item, nl, alert.TypeReminder)
	if err != nil {
		return checkedSkipped, err
	}
	if !outcome.Enqueued {
		return checkedSkipped, nil
	}
	if err := h.states.MarkReminded(ctx, state.WatchID, state.Source, state.ListingID, now); err != nil {
		return checkedReminded, err
	}
	return checkedReminded, nil
}

func (h *ReminderHandler) adapterFor(source listing.Source) listing.MarketplaceAdapter {
	for _, a := range h.adapters {
		if a.Source() == source {
			return a
		}
	}
	return nil
}
