package alert

import (
	"fmt"
	"time"

	"github.com/brickwatch/brickwatch/internal/domain/catalog"
	"github.com/brickwatch/brickwatch/internal/domain/listing"
)

// NotificationType explains why the user is being alerted.
type NotificationType string

const (
	TypeFirst        NotificationType = "first"
	TypeBetterDeal   NotificationType = "better_deal"
	TypePreviousSold NotificationType = "previous_sold"
	TypePriceDrop    NotificationType = "price_drop"
	TypeReminder     NotificationType = "reminder"
)

// Status is the alert delivery state, owned by the chat dispatch path.
type Status string

const (
	StatusPending   Status = "pending"
	StatusQueued    Status = "queued"
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusFailed    Status = "failed"
)

// Alert is one row of the alert history. The idempotency key is unique;
// inserts that violate uniqueness are silent no-ops.
type Alert struct {
	ID                int64
	UserID            int64
	WatchID           int64
	Source            listing.Source
	ListingID         string
	ScannedForCountry string
	ItemRef           catalog.ItemRef
	Price             float64
	Shipping          float64
	ImportCharges     float64
	Total             float64
	Target            float64
	DeltaPercent      float64
	Type              NotificationType
	Status            Status
	ScheduledFor      *time.Time
	CreatedAt         time.Time
	SentAt            *time.Time
	Fingerprint       string
	IdempotencyKey    string
	ChatJobID         string
	PushJobID         string
}

// IdempotencyKey builds the unique dedup key for an alert. One alert per
// (source, user, fingerprint, UTC day); the format is frozen and capped at
// 150 chars by construction.
func IdempotencyKey(source listing.Source, userID int64, fingerprint string, day time.Time) string {
	return fmt.Sprintf("%s:%d:%s:%s", source, userID, fingerprint, day.UTC().Format("2006-01-02"))
}

// Payload is what the dispatcher hands to a channel. Rendering for humans
// happens outside the core.
type Payload struct {
	Type             NotificationType `json:"type"`
	ItemRef          string           `json:"item_ref"`
	ItemName         string           `json:"item_name"`
	Price            float64          `json:"price"`
	Shipping         float64          `json:"shipping"`
	Import           float64          `json:"import"`
	Total            float64          `json:"total"`
	CurrencyOriginal string           `json:"currency_original"`
	Target           float64          `json:"target"`
	SavingsAbs       float64          `json:"savings_abs"`
	SavingsPct       float64          `json:"savings_pct"`
	ShipFromCountry  string           `json:"ship_from_country"`
	Condition        string           `json:"condition"`
	SellerName       string           `json:"seller_name"`
	ListingURL       string           `json:"listing_url"`
	IsEstimate       bool             `json:"is_estimate"`
	Reason           string           `json:"notification_reason"`
}
