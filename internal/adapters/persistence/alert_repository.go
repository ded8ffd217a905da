package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/brickwatch/brickwatch/internal/domain/alert"
	"github.com/brickwatch/brickwatch/internal/domain/catalog"
	"github.com/brickwatch/brickwatch/internal/domain/listing"
	"github.com/brickwatch/brickwatch/internal/domain/shared"
)

// GormAlertRepository implements alert.Repository using GORM
type GormAlertRepository struct {
	db    *gorm.DB
	clock shared.Clock
}

// NewGormAlertRepository creates a new GORM alert repository
func NewGormAlertRepository(db *gorm.DB, clock shared.Clock) *GormAlertRepository {
	return &GormAlertRepository{db: db, clock: clock}
}

// Insert writes the alert, letting the unique idempotency key absorb the
// race between concurrent scan cycles. inserted=false means a row with the
// same key already exists.
func (r *GormAlertRepository) Insert(ctx context.Context, a *alert.Alert) (bool, error) {
	model := alertToModel(a)
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "idempotency_key"}},
		DoNothing: true,
	}).Create(model)
	if result.Error != nil {
		return false, fmt.Errorf("failed to insert alert: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	a.ID = model.ID
	return true, nil
}

func (r *GormAlertRepository) Update(ctx context.Context, a *alert.Alert) error {
	result := r.db.WithContext(ctx).Save(alertToModel(a))
	if result.Error != nil {
		return fmt.Errorf("failed to update alert: %w", result.Error)
	}
	return nil
}

func (r *GormAlertRepository) FindByID(ctx context.Context, id int64) (*alert.Alert, error) {
	var m AlertModel
	result := r.db.WithContext(ctx).First(&m, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("alert not found: %d", id)
		}
		return nil, fmt.Errorf("failed to find alert: %w", result.Error)
	}
	return alertToDomain(&m), nil
}

func (r *GormAlertRepository) AlertedWithin(ctx context.Context, userID int64, fingerprint string, days int) (bool, error) {
	var count int64
	since := r.clock.Now().UTC().AddDate(0, 0, -days)
	result := r.db.WithContext(ctx).Model(&AlertModel{}).
		Where("user_id = ? AND fingerprint = ? AND created_at >= ?", userID, fingerprint, since).
		Count(&count)
	if result.Error != nil {
		return false, fmt.Errorf("failed to check alert history: %w", result.Error)
	}
	return count > 0, nil
}

// BestByUserSince returns the lowest-total alerts for the digest, one page.
func (r *GormAlertRepository) BestByUserSince(ctx context.Context, userID int64, since time.Time, limit int) ([]alert.Alert, error) {
	var models []AlertModel
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Order("total").
		Limit(limit).
		Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to load best alerts: %w", result.Error)
	}
	out := make([]alert.Alert, 0, len(models))
	for i := range models {
		out = append(out, *alertToDomain(&models[i]))
	}
	return out, nil
}

func (r *GormAlertRepository) MarkStatus(ctx context.Context, id int64, status alert.Status, sentAt *time.Time) error {
	updates := map[string]interface{}{"status": string(status)}
	if sentAt != nil {
		updates["sent_at"] = sentAt
	}
	result := r.db.WithContext(ctx).Model(&AlertModel{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to mark alert %d %s: %w", id, status, result.Error)
	}
	return nil
}

func alertToModel(a *alert.Alert) *AlertModel {
	return &AlertModel{
		ID:                a.ID,
		UserID:            a.UserID,
		WatchID:           a.WatchID,
		Source:            string(a.Source),
		ListingID:         a.ListingID,
		ScannedForCountry: a.ScannedForCountry,
		ItemKind:          string(a.ItemRef.Kind),
		ItemID:            a.ItemRef.ID,
		Price:             a.Price,
		Shipping:          a.Shipping,
		ImportCharges:     a.ImportCharges,
		Total:             a.Total,
		Target:            a.Target,
		DeltaPercent:      a.DeltaPercent,
		Type:              string(a.Type),
		Status:            string(a.Status),
		ScheduledFor:      a.ScheduledFor,
		CreatedAt:         a.CreatedAt,
		SentAt:            a.SentAt,
		Fingerprint:       a.Fingerprint,
		IdempotencyKey:    a.IdempotencyKey,
		ChatJobID:         a.ChatJobID,
		PushJobID:         a.PushJobID,
	}
}

func alertToDomain(m *AlertModel) *alert.Alert {
	return &alert.Alert{
		ID:                m.ID,
		UserID:            m.UserID,
		WatchID:           m.WatchID,
		Source:            listing.Source(m.Source),
		ListingID:         m.ListingID,
		ScannedForCountry: m.ScannedForCountry,
		ItemRef:           catalog.ItemRef{Kind: catalog.ItemKind(m.ItemKind), ID: m.ItemID},
		Price:             m.Price,
		Shipping:          m.Shipping,
		ImportCharges:     m.ImportCharges,
		Total:             m.Total,
		Target:            m.Target,
		DeltaPercent:      m.DeltaPercent,
		Type:              alert.NotificationType(m.Type),
		Status:            alert.Status(m.Status),
		ScheduledFor:      m.ScheduledFor,
		CreatedAt:         m.CreatedAt,
		SentAt:            m.SentAt,
		Fingerprint:       m.Fingerprint,
		IdempotencyKey:    m.IdempotencyKey,
		ChatJobID:         m.ChatJobID,
		PushJobID:         m.PushJobID,
	}
}
