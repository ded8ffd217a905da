package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/brickwatch/brickwatch/internal/domain/catalog"
	"github.com/brickwatch/brickwatch/internal/domain/listing"
)

// GormListingRepository implements listing.Repository using GORM
type GormListingRepository struct {
	db *gorm.DB
}

// NewGormListingRepository creates a new GORM listing repository
func NewGormListingRepository(db *gorm.DB) *GormListingRepository {
	return &GormListingRepository{db: db}
}

func (r *GormListingRepository) Upsert(ctx context.Context, l *listing.NormalizedListing) error {
	model := listingToModel(l)
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "source"}, {Name: "listing_id"}, {Name: "scanned_for_country"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "url", "image_url", "seller_id", "seller_username",
			"seller_rating", "seller_feedback", "ship_from", "condition",
			"price", "shipping", "shipping_estimated", "import_charges",
			"import_estimated", "total", "currency_original", "price_original",
			"shipping_original", "fingerprint", "fetched_at", "expires_at",
			"is_active",
		}),
	}).Create(model)
	if result.Error != nil {
		return fmt.Errorf("failed to upsert listing %s/%s: %w", l.Source, l.ListingID, result.Error)
	}
	return nil
}

// MarkAbsentInactive flags rows for (item, country) that are still active
// but were not seen in the current scan cycle. The sweep is scoped to the
// sources that responded this cycle. Returns the gone listing ids so the
// previous-sold detection can pick them up.
func (r *GormListingRepository) MarkAbsentInactive(ctx context.Context, ref catalog.ItemRef, country string, sources []listing.Source, seenIDs []string) ([]string, error) {
	if len(sources) == 0 {
		return nil, nil
	}
	var gone []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&ListingModel{}).
			Where("item_kind = ? AND item_id = ? AND scanned_for_country = ? AND is_active = ? AND source IN ?",
				ref.Kind, ref.ID, country, true, sources)
		if len(seenIDs) > 0 {
			q = q.Where("listing_id NOT IN ?", seenIDs)
		}
		if err := q.Pluck("listing_id", &gone).Error; err != nil {
			return fmt.Errorf("failed to select absent listings: %w", err)
		}
		if len(gone) == 0 {
			return nil
		}
		result := tx.Model(&ListingModel{}).
			Where("item_kind = ? AND item_id = ? AND scanned_for_country = ? AND source IN ? AND listing_id IN ?",
				ref.Kind, ref.ID, country, sources, gone).
			Update("is_active", false)
		if result.Error != nil {
			return fmt.Errorf("failed to deactivate listings: %w", result.Error)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return gone, nil
}

func (r *GormListingRepository) Find(ctx context.Context, source listing.Source, listingID, country string) (*listing.NormalizedListing, error) {
	var m ListingModel
	result := r.db.WithContext(ctx).
		Where("source = ? AND listing_id = ? AND scanned_for_country = ?", source, listingID, country).
		First(&m)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find listing: %w", result.Error)
	}
	return listingToDomain(&m), nil
}

func (r *GormListingRepository) ActiveByItem(ctx context.Context, ref catalog.ItemRef) ([]listing.NormalizedListing, error) {
	var models []ListingModel
	result := r.db.WithContext(ctx).
		Where("item_kind = ? AND item_id = ? AND is_active = ?", ref.Kind, ref.ID, true).
		Order("total").
		Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to load active listings: %w", result.Error)
	}
	out := make([]listing.NormalizedListing, 0, len(models))
	for i := range models {
		out = append(out, *listingToDomain(&models[i]))
	}
	return out, nil
}

func (r *GormListingRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at < ?", now).
		Delete(&ListingModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired listings: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func listingToModel(l *listing.NormalizedListing) *ListingModel {
	return &ListingModel{
		Source:            string(l.Source),
		ListingID:         l.ListingID,
		ScannedForCountry: l.ScannedForCountry,
		ItemKind:          string(l.ItemRef.Kind),
		ItemID:            l.ItemRef.ID,
		Title:             l.Title,
		URL:               l.URL,
		ImageURL:          l.ImageURL,
		SellerID:          l.SellerID,
		SellerUsername:    l.SellerUsername,
		SellerRating:      l.SellerRating,
		SellerFeedback:    l.SellerFeedback,
		ShipFrom:          l.ShipFrom,
		Condition:         string(l.Condition),
		Price:             l.Price,
		Shipping:          l.Shipping,
		ShippingEstimated: l.ShippingEstimated,
		ImportCharges:     l.ImportCharges,
		ImportEstimated:   l.ImportEstimated,
		Total:             l.Total,
		CurrencyOriginal:  l.CurrencyOriginal,
		PriceOriginal:     l.PriceOriginal,
		ShippingOriginal:  l.ShippingOriginal,
		Fingerprint:       l.Fingerprint,
		FetchedAt:         l.FetchedAt,
		ExpiresAt:         l.ExpiresAt,
		IsActive:          l.IsActive,
	}
}

func listingToDomain(m *ListingModel) *listing.NormalizedListing {
	return &listing.NormalizedListing{
		Source:            listing.Source(m.Source),
		ListingID:         m.ListingID,
		ScannedForCountry: m.ScannedForCountry,
		ItemRef:           catalog.ItemRef{Kind: catalog.ItemKind(m.ItemKind), ID: m.ItemID},
		Title:             m.Title,
		URL:               m.URL,
		ImageURL:          m.ImageURL,
		SellerID:          m.SellerID,
		SellerUsername:    m.SellerUsername,
		SellerRating:      m.SellerRating,
		SellerFeedback:    m.SellerFeedback,
		ShipFrom:          m.ShipFrom,
		Condition:         listing.Condition(m.Condition),
		Price:             m.Price,
		Shipping:          m.Shipping,
		ShippingEstimated: m.ShippingEstimated,
		ImportCharges:     m.ImportCharges,
		ImportEstimated:   m.ImportEstimated,
		Total:             m.Total,
		CurrencyOriginal:  m.CurrencyOriginal,
		PriceOriginal:     m.PriceOriginal,
		ShippingOriginal:  m.ShippingOriginal,
		Fingerprint:       m.Fingerprint,
		FetchedAt:         m.FetchedAt,
		ExpiresAt:         m.ExpiresAt,
		IsActive:          m.IsActive,
	}
}
