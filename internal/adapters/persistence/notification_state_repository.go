package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/brickwatch/brickwatch/internal/domain/watch"
)

// GormNotificationStateRepository implements watch.NotificationStateRepository
type GormNotificationStateRepository struct {
	db *gorm.DB
}

// NewGormNotificationStateRepository creates a new notification state repository
func NewGormNotificationStateRepository(db *gorm.DB) *GormNotificationStateRepository {
	return &GormNotificationStateRepository{db: db}
}

func (r *GormNotificationStateRepository) Upsert(ctx context.Context, s *watch.NotificationState) error {
	model := &NotificationStateModel{
		WatchID:        s.WatchID,
		Source:         s.Source,
		ListingID:      s.ListingID,
		NotifiedAt:     s.NotifiedAt,
		NotifiedPrice:  s.NotifiedPrice,
		ReminderCount:  s.ReminderCount,
		LastReminderAt: s.LastReminderAt,
	}
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "watch_id"}, {Name: "source"}, {Name: "listing_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"notified_at", "notified_price", "reminder_count", "last_reminder_at",
		}),
	}).Create(model)
	if result.Error != nil {
		return fmt.Errorf("failed to upsert notification state: %w", result.Error)
	}
	return nil
}

func (r *GormNotificationStateRepository) Find(ctx context.Context, watchID int64, source, listingID string) (*watch.NotificationState, error) {
	var m NotificationStateModel
	result := r.db.WithContext(ctx).
		Where("watch_id = ? AND source = ? AND listing_id = ?", watchID, source, listingID).
		First(&m)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find notification state: %w", result.Error)
	}
	return stateToDomain(&m), nil
}

func (r *GormNotificationStateRepository) Latest(ctx context.Context, watchID int64) (*watch.NotificationState, error) {
	var m NotificationStateModel
	result := r.db.WithContext(ctx).
		Where("watch_id = ?", watchID).
		Order("notified_at DESC").
		First(&m)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load latest notification state: %w", result.Error)
	}
	return stateToDomain(&m), nil
}

func (r *GormNotificationStateRepository) DueForReminder(ctx context.Context, now time.Time, minAge time.Duration, maxReminders int) ([]watch.NotificationState, error) {
	var models []NotificationStateModel
	cutoff := now.Add(-minAge)
	result := r.db.WithContext(ctx).
		Where("notified_at <= ? AND reminder_count < ?", cutoff, maxReminders).
		Order("notified_at").
		Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to load reminder candidates: %w", result.Error)
	}
	out := make([]watch.NotificationState, 0, len(models))
	for i := range models {
		out = append(out, *stateToDomain(&models[i]))
	}
	return out, nil
}

func (r *GormNotificationStateRepository) MarkReminded(ctx context.Context, watchID int64, source, listingID string, now time.Time) error {
	result := r.db.WithContext(ctx).Model(&NotificationStateModel{}).
		Where("watch_id = ? AND source = ? AND listing_id = ?", watchID, source, listingID).
		Updates(map[string]interface{}{
			"last_reminder_at": now,
			"reminder_count":   gorm.Expr("reminder_count + 1"),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to mark reminder: %w", result.Error)
	}
	return nil
}

// ExhaustReminders pins the counter past any selection threshold so a
// vanished listing is never re-checked.
func (r *GormNotificationStateRepository) ExhaustReminders(ctx context.Context, watchID int64, source, listingID string, now time.Time) error {
	result := r.db.WithContext(ctx).Model(&NotificationStateModel{}).
		Where("watch_id = ? AND source = ? AND listing_id = ?", watchID, source, listingID).
		Updates(map[string]interface{}{
			"last_reminder_at": now,
			"reminder_count":   gorm.Expr("reminder_count + 100"),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to exhaust reminders: %w", result.Error)
	}
	return nil
}

func stateToDomain(m *NotificationStateModel) *watch.NotificationState {
	return &watch.NotificationState{
		WatchID:        m.WatchID,
		Source:         m.Source,
		ListingID:      m.ListingID,
		NotifiedAt:     m.NotifiedAt,
		NotifiedPrice:  m.NotifiedPrice,
		ReminderCount:  m.ReminderCount,
		LastReminderAt: m.LastReminderAt,
	}
}
