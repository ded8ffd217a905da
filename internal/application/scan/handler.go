package scan

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/brickwatch/brickwatch/internal/application/common"
	"github.com/brickwatch/brickwatch/internal/application/dispatch"
	"github.com/brickwatch/brickwatch/internal/domain/catalog"
	"github.com/brickwatch/brickwatch/internal/domain/filter"
	"github.com/brickwatch/brickwatch/internal/domain/listing"
	"github.com/brickwatch/brickwatch/internal/domain/pricing"
	"github.com/brickwatch/brickwatch/internal/domain/shared"
	"github.com/brickwatch/brickwatch/internal/domain/user"
	"github.com/brickwatch/brickwatch/internal/domain/watch"
)

// Options shape one cycle: the global group concurrency cap, the per-query
// listing limit, and the wall-clock budget.
type Options struct {
	GroupConcurrency int
	ListingLimit     int
	Budget           time.Duration
}

// RunScanCycleHandler drives one scan cycle: read groups, fan out bounded,
// fetch and normalize from every eligible adapter, match watchers in
// ascending-total order, and hand matches to the dispatcher. A group
// failure is recorded and never blocks other groups.
type RunScanCycleHandler struct {
	watches    watch.Repository
	users      user.Repository
	items      catalog.ItemRepository
	listings   listing.Repository
	states     watch.NotificationStateRepository
	adapters   []listing.MarketplaceAdapter
	calc       *pricing.Calculator
	filter     *filter.Filter
	dispatcher *dispatch.Dispatcher
	opts       Options
	clock      shared.Clock
	log        zerolog.Logger
}

// NewRunScanCycleHandler creates the scan cycle handler.
func NewRunScanCycleHandler(
	watches watch.Repository,
	users user.Repository,
	items catalog.ItemRepository,
	listings listing.Repository,
	states watch.NotificationStateRepository,
	adapters []listing.MarketplaceAdapter,
	calc *pricing.Calculator,
	f *filter.Filter,
	dispatcher *dispatch.Dispatcher,
	opts Options,
	clock shared.Clock,
	log zerolog.Logger,
) *RunScanCycleHandler {
	if opts.GroupConcurrency <= 0 {
		opts.GroupConcurrency = 4
	}
	if opts.ListingLimit <= 0 {
		opts.ListingLimit = 50
	}
	if opts.Budget <= 0 {
		opts.Budget = 10 * time.Minute
	}
	return &RunScanCycleHandler{
		watches:    watches,
		users:      users,
		items:      items,
		listings:   listings,
		states:     states,
		adapters:   adapters,
		calc:       calc,
		filter:     f,
		dispatcher: dispatcher,
		opts:       opts,
		clock:      clock,
		log:        log,
	}
}

// Handle runs one cycle. Groups come back ordered by (priority, watchers)
// and are launched in that order; the errgroup limit is the global cap.
func (h *RunScanCycleHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(RunScanCycleCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type for RunScanCycleHandler")
	}
	budget := cmd.Budget
	if budget <= 0 {
		budget = h.opts.Budget
	}

	start := h.clock.Now()
	deadline := start.Add(budget)

	// Correlation id tying every log line of this cycle together.
	log := h.log.With().Str("cycle", uuid.NewString()).Logger()

	groups, err := h.watches.ActiveScanGroups(ctx, start)
	if err != nil {
		return nil, fmt.Errorf("failed to load scan groups: %w", err)
	}

	resp := &RunScanCycleResponse{Groups: len(groups)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.opts.GroupConcurrency)

	for _, grp := range groups {
		grp := grp
		g.Go(func() error {
			if h.clock.Now().After(deadline) {
				mu.Lock()
				resp.Skipped++
				mu.Unlock()
				log.Warn().
					Str("item", grp.ItemRef.String()).
					Str("ship_to", grp.ShipToCountry).
					Msg("scan budget exhausted, group skipped")
				return nil
			}
			stats, err := h.scanGroup(gctx, grp)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				resp.Failed++
				log.Error().Err(err).
					Str("item", grp.ItemRef.String()).
					Str("ship_to", grp.ShipToCountry).
					Msg("scan group failed")
				return nil
			}
			resp.Scanned++
			resp.Listings += stats.listings
			resp.AlertsEnqueued += stats.alerts
			return nil
		})
	}
	_ = g.Wait()

	resp.Duration = h.clock.Now().Sub(start)
	log.Info().
		Int("groups", resp.Groups).
		Int("scanned", resp.Scanned).
		Int("failed", resp.Failed).
		Int("skipped", resp.Skipped).
		Int("alerts", resp.AlertsEnqueued).
		Dur("duration", resp.Duration).
		Msg("scan cycle complete")
	return resp, nil
}

type groupStats struct {
	listings int
	alerts   int
}

func (h *RunScanCycleHandler) scanGroup(ctx context.Context, grp watch.ScanGroup) (*groupStats, error) {
	now := h.clock.Now()
	stats := &groupStats{}

	item, err := h.items.FindByRef(ctx, grp.ItemRef)
	if err != nil {
		return nil, fmt.Errorf("failed to load item %s: %w", grp.ItemRef, err)
	}

	raws, responded, fetchErrs := h.fetch(ctx, item, grp)
	if len(responded) == 0 && fetchErrs > 0 {
		return nil, fmt.Errorf("all adapters failed for %s", grp.ItemRef)
	}

	// Normalize; per-listing failures drop the listing.
	normalized := make([]listing.NormalizedListing, 0, len(raws))
	for i := range raws {
		nl, err := h.calc.Landed(&raws[i], item, grp.ShipToCountry)
		if err != nil {
			h.log.Debug().Err(err).
				Str("source", string(raws[i].Source)).
				Str("listing", raws[i].ListingID).
				Msg("listing dropped at cost model")
			continue
		}
		nl.FetchedAt = now
		normalized = append(normalized, *nl)
	}
	stats.listings = len(normalized)

	seen := make([]string, 0, len(normalized))
	for i := range normalized {
		if err := h.listings.Upsert(ctx, &normalized[i]); err != nil {
			return nil, fmt.Errorf("failed to upsert listing: %w", err)
		}
		seen = append(seen, normalized[i].ListingID)
	}
	gone, err := h.listings.MarkAbsentInactive(ctx, grp.ItemRef, grp.ShipToCountry, responded, seen)
	if err != nil {
		return nil, fmt.Errorf("failed to mark absent listings: %w", err)
	}
	goneSet := make(map[string]bool, len(gone))
	for _, id := range gone {
		goneSet[id] = true
	}

	totals := make([]float64, len(normalized))
	for i := range normalized {
		totals[i] = normalized[i].Total
	}
	batch := filter.ReferenceFrom(totals)

	sort.Slice(normalized, func(i, j int) bool {
		return normalized[i].Total < normalized[j].Total
	})

	watchers, err := h.watches.WatchesInGroup(ctx, grp, now)
	if err != nil {
		return nil, fmt.Errorf("failed to load watchers: %w", err)
	}

	for i := range watchers {
		n, err := h.matchWatcher(ctx, &watchers[i], item, normalized, batch, goneSet)
		if err != nil {
			h.log.Warn().Err(err).
				Int64("watch", watchers[i].ID).
				Msg("watcher matching failed")
			continue
		}
		stats.alerts += n
	}
	return stats, nil
}

// fetch queries every adapter eligible for the group. A single adapter
// failure degrades to the other's results. The responded list names the
// sources that answered; only their stored listings may be declared gone.
func (h *RunScanCycleHandler) fetch(ctx context.Context, item *catalog.Item, grp watch.ScanGroup) ([]listing.RawListing, []listing.Source, int) {
	var raws []listing.RawListing
	var responded []listing.Source
	fetchErrs := 0
	for _, adapter := range h.adapters {
		if adapter.Source() == listing.SourceBrickOwl && !grp.BrickOwlEnabled {
			continue
		}
		batch, err := adapter.Search(ctx, item, grp.ShipToCountry, h.opts.ListingLimit, 0)
		if err != nil {
			fetchErrs++
			h.log.Warn().Err(err).
				Str("source", string(adapter.Source())).
				Str("item", grp.ItemRef.String()).
				Msg("adapter search failed")
			continue
		}
		responded = append(responded, adapter.Source())
		raws = append(raws, batch...)
	}
	return raws, responded, fetchErrs
}

// matchWatcher walks listings in ascending total and dispatches every match
// the dedup and throttle layers admit. The first enqueue is therefore the
// watcher's best current offer.
func (h *RunScanCycleHandler) matchWatcher(
	ctx context.Context,
	w *watch.Watch,
	item *catalog.Item,
	normalized []listing.NormalizedListing,
	batch filter.BatchContext,
	goneSet map[string]bool,
) (int, error) {
	u, err := h.users.FindByID(ctx, w.UserID)
	if err != nil {
		return 0, fmt.Errorf("failed to load user %d: %w", w.UserID, err)
	}
	prior, err := h.states.Latest(ctx, w.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to load notification state: %w", err)
	}
	priorGone := prior != nil && goneSet[prior.ListingID]

	alerts := 0
	for i := range normalized {
		l := &normalized[i]
		if l.Total > w.TargetPrice {
			break // ascending order: nothing further can match
		}
		decision := h.filter.Evaluate(l, item, w, batch)
		if !decision.Accepted {
			h.log.Debug().
				Str("reason", decision.Reason).
				Str("source", string(l.Source)).
				Str("listing", l.ListingID).
				Int64("watch", w.ID).
				Msg("candidate rejected")
			continue
		}

		ntype := deriveType(prior, l, priorGone)
		outcome, err := h.dispatcher.Dispatch(ctx, w, u, item, l, ntype)
		if err != nil {
			return alerts, fmt.Errorf("dispatch failed: %w", err)
		}
		if outcome.Enqueued {
			alerts++
			prior = &watch.NotificationState{
				WatchID:       w.ID,
				Source:        string(l.Source),
				ListingID:     l.ListingID,
				NotifiedAt:    h.clock.Now(),
				NotifiedPrice: l.Total,
			}
			priorGone = false
		}
	}
	return alerts, nil
}
