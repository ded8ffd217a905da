package watches_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brickwatch/brickwatch/internal/adapters/persistence"
	"github.com/brickwatch/brickwatch/internal/application/resolver"
	"github.com/brickwatch/brickwatch/internal/application/watches"
	"github.com/brickwatch/brickwatch/internal/domain/catalog"
	"github.com/brickwatch/brickwatch/internal/domain/shared"
	"github.com/brickwatch/brickwatch/internal/domain/user"
	"github.com/brickwatch/brickwatch/internal/domain/watch"
	"github.com/brickwatch/brickwatch/test/helpers"
)

type watchesEnv struct {
	handler     *watches.CreateWatchHandler
	list        *watches.ListWatchesHandler
	marketplace *helpers.MockMarketplaceResolver
	user        *user.User
}

func newWatchesEnv(t *testing.T) *watchesEnv {
	t.Helper()
	db := helpers.NewTestDB(t)
	clock := shared.NewMockClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	items := persistence.NewGormItemRepository(db)
	cache := persistence.NewGormIDCacheRepository(db, clock)
	watchRepo := persistence.NewGormWatchRepository(db)
	marketplace := helpers.NewMockMarketplaceResolver()
	svc := resolver.NewService(items, cache, marketplace, helpers.NewMockEncyclopedia(), clock, zerolog.Nop())

	return &watchesEnv{
		handler:     watches.NewCreateWatchHandler(svc, watchRepo),
		list:        watches.NewListWatchesHandler(watchRepo),
		marketplace: marketplace,
		user:        helpers.CreateTestUser(t, db, "DE"),
	}
}

func TestCreateWatch_ResolvesAndDefaults(t *testing.T) {
	// Arrange
	env := newWatchesEnv(t)
	env.marketplace.SetResolveFunc(func(ctx context.Context, q string, kind catalog.ItemKind) (*catalog.ResolvedID, error) {
		return &catalog.ResolvedID{OpaqueID: "987654", Name: "Darth Maul (sw0010)"}, nil
	})

	// Act
	resp, err := env.handler.Handle(context.Background(), watches.CreateWatchCommand{
		UserID:        env.user.ID,
		Kind:          catalog.KindMinifig,
		ItemInput:     "sw0010",
		ShipToCountry: "DE",
		TargetPrice:   550,
	})

	// Assert
	require.NoError(t, err)
	r := resp.(*watches.CreateWatchResponse)
	assert.NotZero(t, r.Watch.ID)
	assert.Equal(t, "sw0010", r.Watch.ItemRef.ID)
	assert.Equal(t, watch.CondAny, r.Watch.Condition)
	assert.Equal(t, watch.StatusActive, r.Watch.Status)
	assert.Contains(t, r.Watch.ShipFromAllowlist, "DE")
	assert.Equal(t, "987654", r.Item.BrickOwlID)
}

func TestCreateWatch_RejectsNonPositiveTarget(t *testing.T) {
	env := newWatchesEnv(t)

	_, err := env.handler.Handle(context.Background(), watches.CreateWatchCommand{
		UserID:      env.user.ID,
		Kind:        catalog.KindMinifig,
		ItemInput:   "sw0010",
		TargetPrice: 0,
	})

	assert.Equal(t, shared.ErrValidation, shared.KindOf(err))
	// The resolver is never consulted for an invalid command.
	assert.Empty(t, env.marketplace.GetCalls())
}

func TestCreateWatch_UnresolvableItemIsValidationError(t *testing.T) {
	env := newWatchesEnv(t)

	_, err := env.handler.Handle(context.Background(), watches.CreateWatchCommand{
		UserID:        env.user.ID,
		Kind:          catalog.KindMinifig,
		ItemInput:     "definitely not a fig",
		ShipToCountry: "DE",
		TargetPrice:   100,
	})

	assert.Equal(t, shared.ErrValidation, shared.KindOf(err))
}

func TestCreateWatch_DuplicateActiveWatchConflicts(t *testing.T) {
	env := newWatchesEnv(t)
	env.marketplace.SetResolveFunc(func(ctx context.Context, q string, kind catalog.ItemKind) (*catalog.ResolvedID, error) {
		return &catalog.ResolvedID{OpaqueID: "987654", Name: "Darth Maul (sw0010)"}, nil
	})
	cmd := watches.CreateWatchCommand{
		UserID:        env.user.ID,
		Kind:          catalog.KindMinifig,
		ItemInput:     "sw0010",
		ShipToCountry: "DE",
		TargetPrice:   550,
	}
	_, err := env.handler.Handle(context.Background(), cmd)
	require.NoError(t, err)

	_, err = env.handler.Handle(context.Background(), cmd)

	assert.Equal(t, shared.ErrConflict, shared.KindOf(err))
}

func TestListWatches(t *testing.T) {
	env := newWatchesEnv(t)
	env.marketplace.SetResolveFunc(func(ctx context.Context, q string, kind catalog.ItemKind) (*catalog.ResolvedID, error) {
		return &catalog.ResolvedID{OpaqueID: "1", Name: q + " (sw0010)"}, nil
	})
	_, err := env.handler.Handle(context.Background(), watches.CreateWatchCommand{
		UserID:        env.user.ID,
		Kind:          catalog.KindMinifig,
		ItemInput:     "sw0010",
		ShipToCountry: "DE",
		TargetPrice:   550,
	})
	require.NoError(t, err)

	resp, err := env.list.Handle(context.Background(), watches.ListWatchesQuery{UserID: env.user.ID})

	require.NoError(t, err)
	r := resp.(*watches.ListWatchesResponse)
	require.Len(t, r.Watches, 1)
	assert.Equal(t, 550.0, r.Watches[0].TargetPrice)

	empty, err := env.list.Handle(context.Background(), watches.ListWatchesQuery{UserID: env.user.ID + 1})
	require.NoError(t, err)
	assert.Empty(t, empty.(*watches.ListWatchesResponse).Watches)
}
