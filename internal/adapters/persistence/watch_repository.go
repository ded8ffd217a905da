package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/brickwatch/brickwatch/internal/domain/catalog"
	"github.com/brickwatch/brickwatch/internal/domain/watch"
)

// GormWatchRepository implements watch.Repository using GORM
type GormWatchRepository struct {
	db *gorm.DB
}

// NewGormWatchRepository creates a new GORM watch repository
func NewGormWatchRepository(db *gorm.DB) *GormWatchRepository {
	return &GormWatchRepository{db: db}
}

// Create inserts a watch inside one transaction that also upserts the
// catalog row for the item and reads the user's country to default the
// ship-from allowlist when the caller left it empty.
func (r *GormWatchRepository) Create(ctx context.Context, w *watch.Watch) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u UserModel
		if err := tx.First(&u, "id = ?", w.UserID).Error; err != nil {
			return fmt.Errorf("failed to read user %d: %w", w.UserID, err)
		}
		if len(w.ShipFromAllowlist) == 0 {
			w.ShipFromAllowlist = watch.DefaultAllowlist(u.Country)
		}
		if w.ScanPriority == 0 {
			w.ScanPriority = u.ScanPriority
		}
		if w.Status == "" {
			w.Status = watch.StatusActive
		}

		if err := upsertItemStub(tx, w.ItemRef); err != nil {
			return err
		}

		model := watchToModel(w)
		if err := tx.Create(model).Error; err != nil {
			return fmt.Errorf("failed to create watch: %w", err)
		}
		w.ID = model.ID
		return nil
	})
}

// upsertItemStub guarantees foreign-key integrity for the watched item;
// enrichment fills the row later.
func upsertItemStub(tx *gorm.DB, ref catalog.ItemRef) error {
	switch ref.Kind {
	case catalog.KindSet:
		return tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&ItemSetModel{SetNumber: ref.ID}).Error
	case catalog.KindMinifig:
		return tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&ItemMinifigModel{CollectorCode: ref.ID}).Error
	default:
		return fmt.Errorf("unknown item kind %q", ref.Kind)
	}
}

func (r *GormWatchRepository) Update(ctx context.Context, w *watch.Watch) error {
	result := r.db.WithContext(ctx).Save(watchToModel(w))
	if result.Error != nil {
		return fmt.Errorf("failed to update watch: %w", result.Error)
	}
	return nil
}

func (r *GormWatchRepository) FindByID(ctx context.Context, id int64) (*watch.Watch, error) {
	var m WatchModel
	result := r.db.WithContext(ctx).First(&m, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("watch not found: %d", id)
		}
		return nil, fmt.Errorf("failed to find watch: %w", result.Error)
	}
	return watchToDomain(&m), nil
}

func (r *GormWatchRepository) FindActiveByUserItem(ctx context.Context, userID int64, ref catalog.ItemRef) (*watch.Watch, error) {
	var m WatchModel
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND item_kind = ? AND item_id = ? AND status = ?",
			userID, ref.Kind, ref.ID, watch.StatusActive).
		First(&m)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find watch: %w", result.Error)
	}
	return watchToDomain(&m), nil
}

func (r *GormWatchRepository) ListByUser(ctx context.Context, userID int64) ([]watch.Watch, error) {
	var models []WatchModel
	result := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list watches: %w", result.Error)
	}
	out := make([]watch.Watch, 0, len(models))
	for i := range models {
		out = append(out, *watchToDomain(&models[i]))
	}
	return out, nil
}

// ActiveScanGroups aggregates active, unsnoozed watches into
// (item, ship-to) groups ordered by max priority then watcher count.
func (r *GormWatchRepository) ActiveScanGroups(ctx context.Context, now time.Time) ([]watch.ScanGroup, error) {
	type row struct {
		ItemKind        string
		ItemID          string
		ShipToCountry   string
		WatcherCount    int
		MaxScanPriority int
		BrickowlOn      int
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&WatchModel{}).
		Select(`item_kind, item_id, ship_to_country,
			COUNT(*) AS watcher_count,
			MAX(scan_priority) AS max_scan_priority,
			MAX(CASE WHEN brickowl_enabled THEN 1 ELSE 0 END) AS brickowl_on`).
		Where("status = ? AND (snoozed_until IS NULL OR snoozed_until <= ?)", watch.StatusActive, now).
		Group("item_kind, item_id, ship_to_country").
		Order("max_scan_priority DESC, watcher_count DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load scan groups: %w", err)
	}

	groups := make([]watch.ScanGroup, 0, len(rows))
	for _, rw := range rows {
		groups = append(groups, watch.ScanGroup{
			ItemRef:         catalog.ItemRef{Kind: catalog.ItemKind(rw.ItemKind), ID: rw.ItemID},
			ShipToCountry:   rw.ShipToCountry,
			WatcherCount:    rw.WatcherCount,
			MaxScanPriority: rw.MaxScanPriority,
			BrickOwlEnabled: rw.BrickowlOn != 0,
		})
	}
	return groups, nil
}

func (r *GormWatchRepository) WatchesInGroup(ctx context.Context, g watch.ScanGroup, now time.Time) ([]watch.Watch, error) {
	var models []WatchModel
	result := r.db.WithContext(ctx).
		Where(`item_kind = ? AND item_id = ? AND ship_to_country = ? AND status = ?
			AND (snoozed_until IS NULL OR snoozed_until <= ?)`,
			g.ItemRef.Kind, g.ItemRef.ID, g.ShipToCountry, watch.StatusActive, now).
		Order("id").
		Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to load group watches: %w", result.Error)
	}
	out := make([]watch.Watch, 0, len(models))
	for i := range models {
		out = append(out, *watchToDomain(&models[i]))
	}
	return out, nil
}

// Counters computes the per-user throttling windows from alert_history.
// All windows are UTC.
func (r *GormWatchRepository) Counters(ctx context.Context, userID int64, ref catalog.ItemRef, now time.Time) (*watch.Counters, error) {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	hourStart := now.Truncate(time.Hour)
	tenMinutes := now.Add(-10 * time.Minute)

	c := &watch.Counters{}
	db := r.db.WithContext(ctx).Model(&AlertModel{})

	var today, thisHour, lastTen, itemToday int64
	if err := db.Where("user_id = ? AND created_at >= ?", userID, dayStart).Count(&today).Error; err != nil {
		return nil, fmt.Errorf("failed to count alerts today: %w", err)
	}
	if err := r.db.WithContext(ctx).Model(&AlertModel{}).
		Where("user_id = ? AND created_at >= ?", userID, hourStart).Count(&thisHour).Error; err != nil {
		return nil, fmt.Errorf("failed to count alerts this hour: %w", err)
	}
	if err := r.db.WithContext(ctx).Model(&AlertModel{}).
		Where("user_id = ? AND created_at >= ?", userID, tenMinutes).Count(&lastTen).Error; err != nil {
		return nil, fmt.Errorf("failed to count recent alerts: %w", err)
	}
	if err := r.db.WithContext(ctx).Model(&AlertModel{}).
		Where("user_id = ? AND item_kind = ? AND item_id = ? AND created_at >= ?",
			userID, ref.Kind, ref.ID, dayStart).Count(&itemToday).Error; err != nil {
		return nil, fmt.Errorf("failed to count item alerts today: %w", err)
	}

	var best struct{ Best *float64 }
	if err := r.db.WithContext(ctx).Model(&AlertModel{}).
		Select("MIN(total) AS best").
		Where("user_id = ? AND item_kind = ? AND item_id = ? AND created_at >= ?",
			userID, ref.Kind, ref.ID, dayStart).
		Scan(&best).Error; err != nil {
		return nil, fmt.Errorf("failed to read best total today: %w", err)
	}

	c.Today = int(today)
	c.ThisHour = int(thisHour)
	c.LastTenMinutes = int(lastTen)
	c.ItemToday = int(itemToday)
	c.HasAlertTodayFor = itemToday > 0
	if best.Best != nil {
		c.BestTotalToday = *best.Best
	}
	return c, nil
}

func (r *GormWatchRepository) IncrementAlertCounters(ctx context.Context, watchID int64) error {
	result := r.db.WithContext(ctx).Model(&WatchModel{}).
		Where("id = ?", watchID).
		Updates(map[string]interface{}{
			"alerts_today": gorm.Expr("alerts_today + 1"),
			"alerts_total": gorm.Expr("alerts_total + 1"),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to increment alert counters: %w", result.Error)
	}
	return nil
}

// RewriteAllowlists replaces all of a user's allowlists in one statement,
// used when the user changes country.
func (r *GormWatchRepository) RewriteAllowlists(ctx context.Context, userID int64, allowlist []string) error {
	result := r.db.WithContext(ctx).Model(&WatchModel{}).
		Where("user_id = ?", userID).
		Update("ship_from_allowlist", strings.Join(allowlist, ","))
	if result.Error != nil {
		return fmt.Errorf("failed to rewrite allowlists: %w", result.Error)
	}
	return nil
}

func watchToModel(w *watch.Watch) *WatchModel {
	return &WatchModel{
		ID:                w.ID,
		UserID:            w.UserID,
		ItemKind:          string(w.ItemRef.Kind),
		ItemID:            w.ItemRef.ID,
		ShipToCountry:     w.ShipToCountry,
		TargetPrice:       w.TargetPrice,
		MinPrice:          w.MinPrice,
		Condition:         string(w.Condition),
		ShipFromAllowlist: strings.Join(w.ShipFromAllowlist, ","),
		MinSellerRating:   w.MinSellerRating,
		MinSellerFeedback: w.MinSellerFeedback,
		ExcludeWords:      strings.Join(w.ExcludeWords, ","),
		BrickOwlEnabled:   w.BrickOwlEnabled,
		Status:            string(w.Status),
		SnoozedUntil:      w.SnoozedUntil,
		ScanPriority:      w.ScanPriority,
		AlertsToday:       w.AlertsToday,
		AlertsTotal:       w.AlertsTotal,
	}
}

func watchToDomain(m *WatchModel) *watch.Watch {
	return &watch.Watch{
		ID:                m.ID,
		UserID:            m.UserID,
		ItemRef:           catalog.ItemRef{Kind: catalog.ItemKind(m.ItemKind), ID: m.ItemID},
		ShipToCountry:     m.ShipToCountry,
		TargetPrice:       m.TargetPrice,
		MinPrice:          m.MinPrice,
		Condition:         watch.ConditionPref(m.Condition),
		ShipFromAllowlist: splitCSV(m.ShipFromAllowlist),
		MinSellerRating:   m.MinSellerRating,
		MinSellerFeedback: m.MinSellerFeedback,
		ExcludeWords:      splitCSV(m.ExcludeWords),
		BrickOwlEnabled:   m.BrickOwlEnabled,
		Status:            watch.Status(m.Status),
		SnoozedUntil:      m.SnoozedUntil,
		ScanPriority:      m.ScanPriority,
		AlertsToday:       m.AlertsToday,
		AlertsTotal:       m.AlertsTotal,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
