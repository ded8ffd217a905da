package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/brickwatch/brickwatch/internal/domain/alert"
	"github.com/brickwatch/brickwatch/internal/domain/catalog"
	"github.com/brickwatch/brickwatch/internal/domain/listing"
	"github.com/brickwatch/brickwatch/internal/domain/shared"
	"github.com/brickwatch/brickwatch/internal/domain/user"
	"github.com/brickwatch/brickwatch/internal/domain/watch"
	"github.com/brickwatch/brickwatch/pkg/utils"
)

// Throttle holds the per-user alert caps. An item already alerted today
// only fires again when the new total beats the best alerted total.
type Throttle struct {
	PerDay     int
	PerHour    int
	Per10Min   int
	PerItemDay int
}

// DefaultThrottle returns the stock caps.
func DefaultThrottle() Throttle {
	return Throttle{PerDay: 20, PerHour: 6, Per10Min: 3, PerItemDay: 5}
}

// Outcome reports what happened to one candidate alert.
type Outcome struct {
	Enqueued bool
	Reason   string // skip reason tag, empty when enqueued
	Alert    *alert.Alert
}

// Dispatcher owns the tail of the pipeline: throttle, dedup insert, quiet
// hours, and the enqueue to both channels.
type Dispatcher struct {
	alerts   alert.Repository
	watches  watch.Repository
	states   watch.NotificationStateRepository
	enqueuer alert.Enqueuer
	throttle Throttle
	clock    shared.Clock
	log      zerolog.Logger
}

// NewDispatcher creates the dispatcher.
func NewDispatcher(
	alerts alert.Repository,
	watches watch.Repository,
	states watch.NotificationStateRepository,
	enqueuer alert.Enqueuer,
	throttle Throttle,
	clock shared.Clock,
	log zerolog.Logger,
) *Dispatcher {
	return &Dispatcher{
		alerts:   alerts,
		watches:  watches,
		states:   states,
		enqueuer: enqueuer,
		throttle: throttle,
		clock:    clock,
		log:      log,
	}
}

// Dispatch runs one accepted candidate through throttle, idempotent insert,
// and the channel queues. A duplicate idempotency key is a silent no-op.
func (d *Dispatcher) Dispatch(
	ctx context.Context,
	w *watch.Watch,
	u *user.User,
	item *catalog.Item,
	l *listing.NormalizedListing,
	ntype alert.NotificationType,
) (*Outcome, error) {
	now := d.clock.Now()

	counters, err := d.watches.Counters(ctx, u.ID, w.ItemRef, now)
	if err != nil {
		return nil, fmt.Errorf("failed to load counters: %w", err)
	}
	if reason := d.throttle.reason(counters, l.Total); reason != "" {
		d.log.Debug().
			Int64("user", u.ID).
			Str("item", w.ItemRef.String()).
			Str("reason", reason).
			Msg("alert throttled")
		return &Outcome{Reason: reason}, nil
	}

	a := &alert.Alert{
		UserID:            u.ID,
		WatchID:           w.ID,
		Source:            l.Source,
		ListingID:         l.ListingID,
		ScannedForCountry: l.ScannedForCountry,
		ItemRef:           w.ItemRef,
		Price:             l.Price,
		Shipping:          l.Shipping,
		ImportCharges:     l.ImportCharges,
		Total:             l.Total,
		Target:            w.TargetPrice,
		DeltaPercent:      deltaPercent(l.Total, w.TargetPrice),
		Type:              ntype,
		Status:            alert.StatusPending,
		CreatedAt:         now,
		Fingerprint:       l.Fingerprint,
		IdempotencyKey:    alert.IdempotencyKey(l.Source, u.ID, l.Fingerprint, now),
	}

	inserted, err := d.alerts.Insert(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("failed to insert alert: %w", err)
	}
	if !inserted {
		return &Outcome{Reason: "duplicate"}, nil
	}

	delay, err := d.quietDelay(u, now)
	if err != nil {
		d.log.Warn().Err(err).Int64("user", u.ID).Msg("quiet hours evaluation failed")
		delay = 0
	}
	if delay > 0 {
		at := now.Add(delay)
		a.ScheduledFor = &at
	}

	payload := BuildPayload(a, item, l)

	if u.ChatChatID != 0 {
		a.ChatJobID = "chat:" + a.IdempotencyKey
		if err := d.enqueuer.EnqueueChat(ctx, a.ID, u.ChatChatID, payload, a.ChatJobID, delay); err != nil {
			return nil, fmt.Errorf("failed to enqueue chat job: %w", err)
		}
		a.Status = alert.StatusQueued
	}
	a.PushJobID = "push:" + a.IdempotencyKey
	if err := d.enqueuer.EnqueuePush(ctx, a.ID, u.ID, payload, a.PushJobID, delay); err != nil {
		// Push is additive; chat delivery proceeds regardless.
		d.log.Warn().Err(err).Int64("alert", a.ID).Msg("failed to enqueue push job")
		a.PushJobID = ""
	}

	if err := d.alerts.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to record job refs: %w", err)
	}
	if err := d.watches.IncrementAlertCounters(ctx, w.ID); err != nil {
		return nil, fmt.Errorf("failed to bump counters: %w", err)
	}

	if err := d.states.Upsert(ctx, &watch.NotificationState{
		WatchID:       w.ID,
		Source:        string(l.Source),
		ListingID:     l.ListingID,
		NotifiedAt:    now,
		NotifiedPrice: l.Total,
	}); err != nil {
		return nil, fmt.Errorf("failed to record notification state: %w", err)
	}

	return &Outcome{Enqueued: true, Alert: a}, nil
}

// reason applies the window caps. bestToday comparison only binds once an
// alert for the item exists today.
func (t Throttle) reason(c *watch.Counters, total float64) string {
	switch {
	case c.Today >= t.PerDay:
		return "daily_cap"
	case c.ThisHour >= t.PerHour:
		return "hourly_cap"
	case c.LastTenMinutes >= t.Per10Min:
		return "burst_cap"
	case c.ItemToday >= t.PerItemDay:
		return "item_daily_cap"
	case c.HasAlertTodayFor && total >= c.BestTotalToday:
		return "not_better_than_best"
	}
	return ""
}

// quietDelay returns the enqueue delay when the user is inside their
// quiet-hours window.
func (d *Dispatcher) quietDelay(u *user.User, now time.Time) (time.Duration, error) {
	active, untilEnd, err := u.QuietHours(now)
	if err != nil || !active {
		return 0, err
	}
	return untilEnd, nil
}

func deltaPercent(total, target float64) float64 {
	if target <= 0 {
		return 0
	}
	return utils.Round2((target - total) / target * 100)
}

// BuildPayload assembles the channel-agnostic notification payload.
func BuildPayload(a *alert.Alert, item *catalog.Item, l *listing.NormalizedListing) alert.Payload {
	name := item.Name
	if name == "" {
		name = item.Ref.ID
	}
	return alert.Payload{
		Type:             a.Type,
		ItemRef:          a.ItemRef.String(),
		ItemName:         name,
		Price:            l.Price,
		Shipping:         l.Shipping,
		Import:           l.ImportCharges,
		Total:            l.Total,
		CurrencyOriginal: l.CurrencyOriginal,
		Target:           a.Target,
		SavingsAbs:       utils.Round2(a.Target - l.Total),
		SavingsPct:       a.DeltaPercent,
		ShipFromCountry:  l.ShipFrom,
		Condition:        string(l.Condition),
		SellerName:       l.SellerUsername,
		ListingURL:       l.URL,
		IsEstimate:       l.IsEstimate(),
		Reason:           string(a.Type),
	}
}
