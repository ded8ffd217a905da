package persistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/brickwatch/brickwatch/internal/domain/catalog"
)

// GormItemRepository implements catalog.ItemRepository over the two item
// tables. One row per (kind, primary id); secondary ids live on the row.
type GormItemRepository struct {
	db *gorm.DB
}

// NewGormItemRepository creates a new GORM item repository
func NewGormItemRepository(db *gorm.DB) *GormItemRepository {
	return &GormItemRepository{db: db}
}

// Upsert links all known ids onto the single row for the item. Writes are
// idempotent so racing resolutions converge.
func (r *GormItemRepository) Upsert(ctx context.Context, item *catalog.Item) error {
	switch item.Ref.Kind {
	case catalog.KindSet:
		model := ItemSetModel{
			SetNumber:      item.Ref.ID,
			Name:           item.Name,
			BrickOwlID:     item.BrickOwlID,
			EncyclopediaID: item.EncyclopediaID,
			ImageURL:       item.ImageURL,
			PieceCount:     item.PieceCount,
		}
		result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "set_number"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "opaque_b_id", "encyclopedia_id", "image_url", "parts", "updated_at"}),
		}).Create(&model)
		if result.Error != nil {
			return fmt.Errorf("failed to upsert set: %w", result.Error)
		}
	case catalog.KindMinifig:
		model := ItemMinifigModel{
			CollectorCode:  item.Ref.ID,
			Name:           item.Name,
			BrickOwlID:     item.BrickOwlID,
			EncyclopediaID: item.EncyclopediaID,
			ImageURL:       item.ImageURL,
			PieceCount:     item.PieceCount,
		}
		result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "collector_code"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "opaque_b_id", "encyclopedia_id", "image_url", "parts", "updated_at"}),
		}).Create(&model)
		if result.Error != nil {
			return fmt.Errorf("failed to upsert minifig: %w", result.Error)
		}
	default:
		return fmt.Errorf("unknown item kind %q", item.Ref.Kind)
	}
	return nil
}

func (r *GormItemRepository) FindByRef(ctx context.Context, ref catalog.ItemRef) (*catalog.Item, error) {
	switch ref.Kind {
	case catalog.KindSet:
		var m ItemSetModel
		result := r.db.WithContext(ctx).First(&m, "set_number = ?", ref.ID)
		if result.Error != nil {
			return nil, wrapNotFound(result.Error, "item", ref.String())
		}
		return setToDomain(&m), nil
	case catalog.KindMinifig:
		var m ItemMinifigModel
		result := r.db.WithContext(ctx).First(&m, "collector_code = ?", ref.ID)
		if result.Error != nil {
			return nil, wrapNotFound(result.Error, "item", ref.String())
		}
		return minifigToDomain(&m), nil
	default:
		return nil, fmt.Errorf("unknown item kind %q", ref.Kind)
	}
}

// FindByAnyID looks an item up by any of its id spaces: primary id,
// opaque marketplace-B id, or encyclopedia id. All resolve to the same row.
func (r *GormItemRepository) FindByAnyID(ctx context.Context, kind catalog.ItemKind, id string) (*catalog.Item, error) {
	switch kind {
	case catalog.KindSet:
		var m ItemSetModel
		result := r.db.WithContext(ctx).
			Where("set_number = ? OR opaque_b_id = ? OR encyclopedia_id = ?", id, id, id).
			First(&m)
		if result.Error != nil {
			return nil, wrapNotFound(result.Error, "item", id)
		}
		return setToDomain(&m), nil
	case catalog.KindMinifig:
		var m ItemMinifigModel
		result := r.db.WithContext(ctx).
			Where("collector_code = ? OR opaque_b_id = ? OR encyclopedia_id = ?", id, id, id).
			First(&m)
		if result.Error != nil {
			return nil, wrapNotFound(result.Error, "item", id)
		}
		return minifigToDomain(&m), nil
	default:
		return nil, fmt.Errorf("unknown item kind %q", kind)
	}
}

func wrapNotFound(err error, entity, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s not found: %s", entity, id)
	}
	return fmt.Errorf("failed to find %s: %w", entity, err)
}

func setToDomain(m *ItemSetModel) *catalog.Item {
	return &catalog.Item{
		Ref:            catalog.ItemRef{Kind: catalog.KindSet, ID: m.SetNumber},
		Name:           m.Name,
		BrickOwlID:     m.BrickOwlID,
		EncyclopediaID: m.EncyclopediaID,
		ImageURL:       m.ImageURL,
		PieceCount:     m.PieceCount,
	}
}

func minifigToDomain(m *ItemMinifigModel) *catalog.Item {
	return &catalog.Item{
		Ref:            catalog.ItemRef{Kind: catalog.KindMinifig, ID: m.CollectorCode},
		Name:           m.Name,
		BrickOwlID:     m.BrickOwlID,
		EncyclopediaID: m.EncyclopediaID,
		ImageURL:       m.ImageURL,
		PieceCount:     m.PieceCount,
	}
}
