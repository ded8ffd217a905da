package catalog

import (
	"context"
	"time"
)

// ItemRepository persists catalog entries. Upserts must be idempotent:
// resolving the same item twice links ids onto the existing row.
type ItemRepository interface {
	Upsert(ctx context.Context, item *Item) error
	FindByRef(ctx context.Context, ref ItemRef) (*Item, error)
	FindByAnyID(ctx context.Context, kind ItemKind, id string) (*Item, error)
}

// CachedID is one entry of the marketplace-B identifier cache.
type CachedID struct {
	Source    string
	Kind      ItemKind
	Input     string
	OpaqueID  string
	Name      string
	UpdatedAt time.Time
}

// IDCacheRepository caches (source, kind, input) → opaque id resolutions.
// Entries expire after the TTL; writes use upsert semantics so concurrent
// resolutions of the same input converge on one row.
type IDCacheRepository interface {
	Get(ctx context.Context, source string, kind ItemKind, input string, maxAge time.Duration) (*CachedID, error)
	Put(ctx context.Context, entry *CachedID) error
}

// IDCacheTTL is how long a cached opaque-id resolution stays valid.
const IDCacheTTL = 30 * 24 * time.Hour

// ResolvedID is a marketplace catalog search hit.
type ResolvedID struct {
	OpaqueID string
	Name     string
}

// MarketplaceResolver maps a collector code or name to the specialist
// marketplace's opaque id. A nil result without error means no match.
type MarketplaceResolver interface {
	Resolve(ctx context.Context, codeOrQuery string, kind ItemKind) (*ResolvedID, error)
}

// EncyclopediaFig is the enrichment record returned by the reference
// encyclopedia for a minifig.
type EncyclopediaFig struct {
	EncyclopediaID string
	Name           string
	ImageURL       string
	PieceCount     int
}

// EncyclopediaSet is the enrichment record for a set.
type EncyclopediaSet struct {
	SetNumber  string
	Name       string
	ImageURL   string
	PieceCount int
}

// EncyclopediaClient is the best-effort enrichment service (Rebrickable).
// Failures degrade to unenriched items, never to resolution errors.
type EncyclopediaClient interface {
	GetFig(ctx context.Context, encyclopediaID string) (*EncyclopediaFig, error)
	SearchFigs(ctx context.Context, query string) ([]EncyclopediaFig, error)
	GetSet(ctx context.Context, setNumber string) (*EncyclopediaSet, error)
}
