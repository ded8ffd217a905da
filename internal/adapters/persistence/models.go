package persistence

import (
	"time"
)

// UserModel represents the users table
type UserModel struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Country      string    `gorm:"column:country;not null"`
	Timezone     string    `gorm:"column:timezone;not null;default:'UTC'"`
	ScanPriority int       `gorm:"column:scan_priority;not null;default:0"`
	ChatChatID   int64     `gorm:"column:chat_chat_id;not null;default:0"`
	DigestOptIn  bool      `gorm:"column:digest_opt_in;not null;default:false"`
	QuietStart   string    `gorm:"column:quiet_start"`
	QuietEnd     string    `gorm:"column:quiet_end"`
	CreatedAt    time.Time `gorm:"column:created_at;not null;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;not null;autoUpdateTime"`
}

func (UserModel) TableName() string {
	return "users"
}

// PushSubscriptionModel represents the push_subscriptions table
type PushSubscriptionModel struct {
	ID        int64      `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    int64      `gorm:"column:user_id;not null;index"`
	User      *UserModel `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE;"`
	Endpoint  string     `gorm:"column:endpoint;not null;uniqueIndex"`
	P256dh    string     `gorm:"column:p256dh;not null"`
	Auth      string     `gorm:"column:auth;not null"`
	CreatedAt time.Time  `gorm:"column:created_at;not null;autoCreateTime"`
}

func (PushSubscriptionModel) TableName() string {
	return "push_subscriptions"
}

// ItemSetModel represents the items_set table
type ItemSetModel struct {
	SetNumber      string    `gorm:"column:set_number;primaryKey"`
	Name           string    `gorm:"column:name"`
	BrickOwlID     string    `gorm:"column:opaque_b_id;index"`
	EncyclopediaID string    `gorm:"column:encyclopedia_id;index"`
	ImageURL       string    `gorm:"column:image_url"`
	PieceCount     int       `gorm:"column:parts;not null;default:0"`
	UpdatedAt      time.Time `gorm:"column:updated_at;not null;autoUpdateTime"`
}

func (ItemSetModel) TableName() string {
	return "items_set"
}

// ItemMinifigModel represents the items_minifig table. The collector code
// is the primary id; the other id spaces live on the same row.
type ItemMinifigModel struct {
	CollectorCode  string    `gorm:"column:collector_code;primaryKey"`
	Name           string    `gorm:"column:name"`
	BrickOwlID     string    `gorm:"column:opaque_b_id;index"`
	EncyclopediaID string    `gorm:"column:encyclopedia_id;index"`
	ImageURL       string    `gorm:"column:image_url"`
	PieceCount     int       `gorm:"column:parts;not null;default:0"`
	UpdatedAt      time.Time `gorm:"column:updated_at;not null;autoUpdateTime"`
}

func (ItemMinifigModel) TableName() string {
	return "items_minifig"
}

// WatchModel represents the watches table
type WatchModel struct {
	ID                int64      `gorm:"column:id;primaryKey;autoIncrement"`
	UserID            int64      `gorm:"column:user_id;not null;index:idx_watches_user_item,unique,where:status = 'active'"`
	User              *UserModel `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE;"`
	ItemKind          string     `gorm:"column:item_kind;not null;index:idx_watches_user_item,unique;index:idx_watches_group"`
	ItemID            string     `gorm:"column:item_id;not null;index:idx_watches_user_item,unique;index:idx_watches_group"`
	ShipToCountry     string     `gorm:"column:ship_to_country;not null;index:idx_watches_group"`
	TargetPrice       float64    `gorm:"column:target_price;not null"`
	MinPrice          float64    `gorm:"column:min_price;not null;default:0"`
	Condition         string     `gorm:"column:condition;not null;default:'any'"`
	ShipFromAllowlist string     `gorm:"column:ship_from_allowlist;type:text"` // CSV
	MinSellerRating   float64    `gorm:"column:min_seller_rating;not null;default:0"`
	MinSellerFeedback int        `gorm:"column:min_seller_feedback;not null;default:0"`
	ExcludeWords      string     `gorm:"column:exclude_words;type:text"` // CSV
	BrickOwlEnabled   bool       `gorm:"column:brickowl_enabled;not null;default:false"`
	Status            string     `gorm:"column:status;not null;default:'active'"`
	SnoozedUntil      *time.Time `gorm:"column:snoozed_until"`
	ScanPriority      int        `gorm:"column:scan_priority;not null;default:0"`
	AlertsToday       int        `gorm:"column:alerts_today;not null;default:0"`
	AlertsTotal       int        `gorm:"column:alerts_total;not null;default:0"`
	CreatedAt         time.Time  `gorm:"column:created_at;not null;autoCreateTime"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;not null;autoUpdateTime"`
}

func (WatchModel) TableName() string {
	return "watches"
}

// ListingModel represents the listings table, keyed by
// (source, listing_id, scanned_for_country)
type ListingModel struct {
	Source            string     `gorm:"column:source;primaryKey"`
	ListingID         string     `gorm:"column:listing_id;primaryKey"`
	ScannedForCountry string     `gorm:"column:scanned_for_country;primaryKey"`
	ItemKind          string     `gorm:"column:item_kind;not null;index:idx_listings_item"`
	ItemID            string     `gorm:"column:item_id;not null;index:idx_listings_item"`
	Title             string     `gorm:"column:title;not null"`
	URL               string     `gorm:"column:url"`
	ImageURL          string     `gorm:"column:image_url"`
	SellerID          string     `gorm:"column:seller_id"`
	SellerUsername    string     `gorm:"column:seller_username"`
	SellerRating      float64    `gorm:"column:seller_rating"`
	SellerFeedback    int        `gorm:"column:seller_feedback"`
	ShipFrom          string     `gorm:"column:ship_from"`
	Condition         string     `gorm:"column:condition"`
	Price             float64    `gorm:"column:price;not null"`
	Shipping          float64    `gorm:"column:shipping;not null"`
	ShippingEstimated bool       `gorm:"column:shipping_estimated;not null;default:false"`
	ImportCharges     float64    `gorm:"column:import_charges;not null;default:0"`
	ImportEstimated   bool       `gorm:"column:import_estimated;not null;default:false"`
	Total             float64    `gorm:"column:total;not null"`
	CurrencyOriginal  string     `gorm:"column:currency_original"`
	PriceOriginal     float64    `gorm:"column:price_original"`
	ShippingOriginal  float64    `gorm:"column:shipping_original"`
	Fingerprint       string     `gorm:"column:fingerprint;not null;index"`
	FetchedAt         time.Time  `gorm:"column:fetched_at;not null"`
	ExpiresAt         *time.Time `gorm:"column:expires_at;index"`
	IsActive          bool       `gorm:"column:is_active;not null;default:true"`
}

func (ListingModel) TableName() string {
	return "listings"
}

// AlertModel represents the alert_history table
type AlertModel struct {
	ID                int64      `gorm:"column:id;primaryKey;autoIncrement"`
	UserID            int64      `gorm:"column:user_id;not null;index"`
	WatchID           int64      `gorm:"column:watch_id;not null;index"`
	Source            string     `gorm:"column:source;not null"`
	ListingID         string     `gorm:"column:listing_id;not null"`
	ScannedForCountry string     `gorm:"column:scanned_for_country"`
	ItemKind          string     `gorm:"column:item_kind;not null"`
	ItemID            string     `gorm:"column:item_id;not null"`
	Price             float64    `gorm:"column:price;not null"`
	Shipping          float64    `gorm:"column:shipping;not null"`
	ImportCharges     float64    `gorm:"column:import_charges;not null;default:0"`
	Total             float64    `gorm:"column:total;not null"`
	Target            float64    `gorm:"column:target;not null"`
	DeltaPercent      float64    `gorm:"column:delta_percent;not null"`
	Type              string     `gorm:"column:notification_type;not null"`
	Status            string     `gorm:"column:status;not null;default:'pending'"`
	ScheduledFor      *time.Time `gorm:"column:scheduled_for"`
	CreatedAt         time.Time  `gorm:"column:created_at;not null"`
	SentAt            *time.Time `gorm:"column:sent_at"`
	Fingerprint       string     `gorm:"column:fingerprint;not null;index"`
	IdempotencyKey    string     `gorm:"column:idempotency_key;size:150;not null;uniqueIndex"`
	ChatJobID         string     `gorm:"column:chat_job_id"`
	PushJobID         string     `gorm:"column:push_job_id"`
}

func (AlertModel) TableName() string {
	return "alert_history"
}

// NotificationStateModel represents the watch_notification_state table
type NotificationStateModel struct {
	WatchID        int64      `gorm:"column:watch_id;primaryKey"`
	Source         string     `gorm:"column:source;primaryKey"`
	ListingID      string     `gorm:"column:listing_id;primaryKey"`
	NotifiedAt     time.Time  `gorm:"column:notified_at;not null"`
	NotifiedPrice  float64    `gorm:"column:notified_price;not null"`
	ReminderCount  int        `gorm:"column:reminder_count;not null;default:0"`
	LastReminderAt *time.Time `gorm:"column:last_reminder_at"`
}

func (NotificationStateModel) TableName() string {
	return "watch_notification_state"
}

// IDCacheModel represents the adapter_b_id_cache table
type IDCacheModel struct {
	Source    string    `gorm:"column:source;primaryKey"`
	Kind      string    `gorm:"column:kind;primaryKey"`
	Input     string    `gorm:"column:input;primaryKey"`
	OpaqueID  string    `gorm:"column:opaque_id;not null"`
	Name      string    `gorm:"column:display_name"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (IDCacheModel) TableName() string {
	return "adapter_b_id_cache"
}

// PriceHistoryDailyModel represents the price_history_daily table
type PriceHistoryDailyModel struct {
	Day       time.Time `gorm:"column:day;primaryKey;type:date"`
	ItemKind  string    `gorm:"column:item_kind;primaryKey"`
	ItemID    string    `gorm:"column:item_id;primaryKey"`
	Condition string    `gorm:"column:condition;primaryKey"`
	Source    string    `gorm:"column:source;primaryKey"`
	Region    string    `gorm:"column:region;primaryKey"`
	MinTotal  float64   `gorm:"column:min_total;not null"`
	AvgTotal  float64   `gorm:"column:avg_total;not null"`
	MaxTotal  float64   `gorm:"column:max_total;not null"`
	Count     int       `gorm:"column:listing_count;not null"`
}

func (PriceHistoryDailyModel) TableName() string {
	return "price_history_daily"
}
