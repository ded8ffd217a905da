package resolver_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brickwatch/brickwatch/internal/adapters/persistence"
	"github.com/brickwatch/brickwatch/internal/application/resolver"
	"github.com/brickwatch/brickwatch/internal/domain/catalog"
	"github.com/brickwatch/brickwatch/internal/domain/shared"
	"github.com/brickwatch/brickwatch/test/helpers"
)

type resolverEnv struct {
	items        *persistence.GormItemRepository
	cache        *persistence.GormIDCacheRepository
	marketplace  *helpers.MockMarketplaceResolver
	encyclopedia *helpers.MockEncyclopedia
	clock        *shared.MockClock
	svc          *resolver.Service
}

func newResolverEnv(t *testing.T) *resolverEnv {
	t.Helper()
	db := helpers.NewTestDB(t)
	clock := shared.NewMockClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	items := persistence.NewGormItemRepository(db)
	cache := persistence.NewGormIDCacheRepository(db, clock)
	marketplace := helpers.NewMockMarketplaceResolver()
	encyclopedia := helpers.NewMockEncyclopedia()

	return &resolverEnv{
		items:        items,
		cache:        cache,
		marketplace:  marketplace,
		encyclopedia: encyclopedia,
		clock:        clock,
		svc:          resolver.NewService(items, cache, marketplace, encyclopedia, clock, zerolog.Nop()),
	}
}

func TestResolve_SetNumberIsItsOwnID(t *testing.T) {
	// Arrange: the marketplace knows nothing, the encyclopedia enriches.
	env := newResolverEnv(t)
	env.encyclopedia.SetGetSetFunc(func(ctx context.Context, setNumber string) (*catalog.EncyclopediaSet, error) {
		return &catalog.EncyclopediaSet{SetNumber: setNumber, Name: "Millennium Falcon", PieceCount: 7541}, nil
	})

	// Act
	res, err := env.svc.Resolve(context.Background(), catalog.KindSet, "75192")

	// Assert: a set number resolves even with zero marketplace hits.
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, catalog.SchemeSetNumber, res.Scheme)
	assert.Equal(t, catalog.ItemRef{Kind: catalog.KindSet, ID: "75192"}, res.Item.Ref)
	assert.Equal(t, "Millennium Falcon", res.Item.Name)
	assert.Equal(t, 7541, res.Item.PieceCount)

	stored, err := env.items.FindByRef(context.Background(), res.Item.Ref)
	require.NoError(t, err)
	assert.Equal(t, "Millennium Falcon", stored.Name)
}

func TestResolve_CollectorCodeLinksOpaqueID(t *testing.T) {
	env := newResolverEnv(t)
	env.marketplace.SetResolveFunc(func(ctx context.Context, q string, kind catalog.ItemKind) (*catalog.ResolvedID, error) {
		return &catalog.ResolvedID{OpaqueID: "987654", Name: "Darth Maul (sw0010)"}, nil
	})

	res, err := env.svc.Resolve(context.Background(), catalog.KindMinifig, "SW0010")

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, catalog.SchemeCollectorCode, res.Scheme)
	assert.Equal(t, "sw0010", res.Item.Ref.ID)
	assert.Equal(t, "987654", res.Item.BrickOwlID)

	// The opaque id now answers lookups too.
	byOpaque, err := env.items.FindByAnyID(context.Background(), catalog.KindMinifig, "987654")
	require.NoError(t, err)
	assert.Equal(t, "sw0010", byOpaque.Ref.ID)
}

func TestResolve_ExistingRowShortCircuits(t *testing.T) {
	env := newResolverEnv(t)
	require.NoError(t, env.items.Upsert(context.Background(), &catalog.Item{
		Ref:        catalog.ItemRef{Kind: catalog.KindMinifig, ID: "sw0010"},
		Name:       "Darth Maul",
		BrickOwlID: "987654",
	}))

	res, err := env.svc.Resolve(context.Background(), catalog.KindMinifig, "sw0010")

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "Darth Maul", res.Item.Name)
	assert.Empty(t, env.marketplace.GetCalls())
}

func TestResolve_NameViaMarketplaceSearch(t *testing.T) {
	// A free-form name only resolves when the marketplace display name
	// carries a collector code.
	env := newResolverEnv(t)
	env.marketplace.SetResolveFunc(func(ctx context.Context, q string, kind catalog.ItemKind) (*catalog.ResolvedID, error) {
		return &catalog.ResolvedID{OpaqueID: "987654", Name: "Darth Maul (sw0010)"}, nil
	})

	res, err := env.svc.Resolve(context.Background(), catalog.KindMinifig, "Darth Maul")

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, catalog.SchemeName, res.Scheme)
	assert.Equal(t, "sw0010", res.Item.Ref.ID)
	assert.Equal(t, []string{"darth maul"}, env.marketplace.GetCalls())
}

func TestResolve_NeverInventsAnID(t *testing.T) {
	// No marketplace hit, or a hit without an embedded code, never yields
	// a fabricated row.
	env := newResolverEnv(t)

	res, err := env.svc.Resolve(context.Background(), catalog.KindMinifig, "some obscure fig")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Nil(t, res.Item)

	env.marketplace.SetResolveFunc(func(ctx context.Context, q string, kind catalog.ItemKind) (*catalog.ResolvedID, error) {
		return &catalog.ResolvedID{OpaqueID: "111", Name: "Some Fig Without Code"}, nil
	})
	res, err = env.svc.Resolve(context.Background(), catalog.KindMinifig, "another fig")
	require.NoError(t, err)
	assert.False(t, res.Success)
}

func TestResolve_EncyclopediaIDPath(t *testing.T) {
	env := newResolverEnv(t)
	env.encyclopedia.SetGetFigFunc(func(ctx context.Context, encID string) (*catalog.EncyclopediaFig, error) {
		return &catalog.EncyclopediaFig{EncyclopediaID: encID, Name: "Darth Maul", PieceCount: 5}, nil
	})
	env.marketplace.SetResolveFunc(func(ctx context.Context, q string, kind catalog.ItemKind) (*catalog.ResolvedID, error) {
		return &catalog.ResolvedID{OpaqueID: "987654", Name: "Darth Maul (sw0010)"}, nil
	})

	res, err := env.svc.Resolve(context.Background(), catalog.KindMinifig, "fig-001234")

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, catalog.SchemeEncyclopedia, res.Scheme)
	assert.Equal(t, "sw0010", res.Item.Ref.ID)
	assert.Equal(t, "fig-001234", res.Item.EncyclopediaID)
	assert.Equal(t, "987654", res.Item.BrickOwlID)
}

func TestResolve_EncyclopediaMissIsNotAnError(t *testing.T) {
	env := newResolverEnv(t)
	env.encyclopedia.SetGetFigFunc(func(ctx context.Context, encID string) (*catalog.EncyclopediaFig, error) {
		return nil, shared.FromHTTPStatus(404, "not found")
	})

	res, err := env.svc.Resolve(context.Background(), catalog.KindMinifig, "fig-999999")

	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, catalog.SchemeEncyclopedia, res.Scheme)
}

func TestResolve_CachedIDSkipsMarketplace(t *testing.T) {
	// Arrange: resolve once to warm the cache, then swap the marketplace
	// for one that fails.
	env := newResolverEnv(t)
	env.marketplace.SetResolveFunc(func(ctx context.Context, q string, kind catalog.ItemKind) (*catalog.ResolvedID, error) {
		return &catalog.ResolvedID{OpaqueID: "987654", Name: "Darth Maul (sw0010)"}, nil
	})
	_, err := env.svc.Resolve(context.Background(), catalog.KindMinifig, "Darth Maul Episode I")
	require.NoError(t, err)
	require.Len(t, env.marketplace.GetCalls(), 1)

	// Act: same input within the TTL. The cache answers; no second call.
	env.clock.Advance(24 * time.Hour)
	res, err := env.svc.Resolve(context.Background(), catalog.KindMinifig, "darth maul episode i")

	// Assert
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Len(t, env.marketplace.GetCalls(), 1)
}

func TestResolve_EmptyInputIsValidationError(t *testing.T) {
	env := newResolverEnv(t)

	_, err := env.svc.Resolve(context.Background(), catalog.KindMinifig, "   ")

	assert.Equal(t, shared.ErrValidation, shared.KindOf(err))
}
