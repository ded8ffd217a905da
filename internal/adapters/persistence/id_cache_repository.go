package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/brickwatch/brickwatch/internal/domain/catalog"
	"github.com/brickwatch/brickwatch/internal/domain/shared"
)

// GormIDCacheRepository implements catalog.IDCacheRepository
type GormIDCacheRepository struct {
	db    *gorm.DB
	clock shared.Clock
}

// NewGormIDCacheRepository creates a new opaque-id cache repository
func NewGormIDCacheRepository(db *gorm.DB, clock shared.Clock) *GormIDCacheRepository {
	return &GormIDCacheRepository{db: db, clock: clock}
}

// Get returns the cached resolution or nil when missing or older than maxAge.
func (r *GormIDCacheRepository) Get(ctx context.Context, source string, kind catalog.ItemKind, input string, maxAge time.Duration) (*catalog.CachedID, error) {
	var m IDCacheModel
	result := r.db.WithContext(ctx).
		Where("source = ? AND kind = ? AND input = ?", source, kind, input).
		First(&m)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read id cache: %w", result.Error)
	}
	if r.clock.Now().Sub(m.UpdatedAt) > maxAge {
		return nil, nil
	}
	return &catalog.CachedID{
		Source:    m.Source,
		Kind:      catalog.ItemKind(m.Kind),
		Input:     m.Input,
		OpaqueID:  m.OpaqueID,
		Name:      m.Name,
		UpdatedAt: m.UpdatedAt,
	}, nil
}

func (r *GormIDCacheRepository) Put(ctx context.Context, entry *catalog.CachedID) error {
	model := &IDCacheModel{
		Source:    entry.Source,
		Kind:      string(entry.Kind),
		Input:     entry.Input,
		OpaqueID:  entry.OpaqueID,
		Name:      entry.Name,
		UpdatedAt: r.clock.Now(),
	}
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "source"}, {Name: "kind"}, {Name: "input"}},
		DoUpdates: clause.AssignmentColumns([]string{"opaque_id", "display_name", "updated_at"}),
	}).Create(model)
	if result.Error != nil {
		return fmt.Errorf("failed to write id cache: %w", result.Error)
	}
	return nil
}
