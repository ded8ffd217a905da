package persistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/brickwatch/brickwatch/internal/domain/catalog"
	"github.com/brickwatch/brickwatch/internal/domain/listing"
)

// GormPriceHistoryRepository implements listing.PriceHistoryRepository
type GormPriceHistoryRepository struct {
	db *gorm.DB
}

// NewGormPriceHistoryRepository creates a new price history repository
func NewGormPriceHistoryRepository(db *gorm.DB) *GormPriceHistoryRepository {
	return &GormPriceHistoryRepository{db: db}
}

// UpsertDaily writes the day's aggregates. Re-running the snapshot job for
// the same day overwrites instead of duplicating.
func (r *GormPriceHistoryRepository) UpsertDaily(ctx context.Context, rows []listing.DailyAggregate) error {
	if len(rows) == 0 {
		return nil
	}
	models := make([]PriceHistoryDailyModel, 0, len(rows))
	for _, agg := range rows {
		models = append(models, PriceHistoryDailyModel{
			Day:       agg.Day,
			ItemKind:  string(agg.ItemRef.Kind),
			ItemID:    agg.ItemRef.ID,
			Condition: string(agg.Condition),
			Source:    string(agg.Source),
			Region:    agg.Region,
			MinTotal:  agg.MinTotal,
			AvgTotal:  agg.AvgTotal,
			MaxTotal:  agg.MaxTotal,
			Count:     agg.Count,
		})
	}
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "day"}, {Name: "item_kind"}, {Name: "item_id"},
			{Name: "condition"}, {Name: "source"}, {Name: "region"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"min_total", "avg_total", "max_total", "listing_count"}),
	}).Create(&models)
	if result.Error != nil {
		return fmt.Errorf("failed to upsert price history: %w", result.Error)
	}
	return nil
}

// AggregateActive recomputes the day's rows for one item kind straight
// from the active listings, so re-running the job converges instead of
// averaging averages.
func (r *GormPriceHistoryRepository) AggregateActive(ctx context.Context, day time.Time, kind catalog.ItemKind) ([]listing.DailyAggregate, error) {
	type row struct {
		ItemID    string
		Condition string
		Source    string
		Region    string
		MinTotal  float64
		AvgTotal  float64
		MaxTotal  float64
		N         int
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&ListingModel{}).
		Select(`item_id, condition, source, scanned_for_country AS region,
			MIN(total) AS min_total, AVG(total) AS avg_total,
			MAX(total) AS max_total, COUNT(*) AS n`).
		Where("item_kind = ? AND is_active = ?", kind, true).
		Group("item_id, condition, source, scanned_for_country").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate listings: %w", err)
	}

	dayUTC := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	out := make([]listing.DailyAggregate, 0, len(rows))
	for _, rw := range rows {
		out = append(out, listing.DailyAggregate{
			Day:       dayUTC,
			ItemRef:   catalog.ItemRef{Kind: kind, ID: rw.ItemID},
			Condition: listing.Condition(rw.Condition),
			Source:    listing.Source(rw.Source),
			Region:    rw.Region,
			MinTotal:  rw.MinTotal,
			AvgTotal:  rw.AvgTotal,
			MaxTotal:  rw.MaxTotal,
			Count:     rw.N,
		})
	}
	return out, nil
}
