package brickowl_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brickwatch/brickwatch/internal/adapters/api/brickowl"
	"github.com/brickwatch/brickwatch/internal/domain/catalog"
	"github.com/brickwatch/brickwatch/internal/domain/listing"
	"github.com/brickwatch/brickwatch/internal/domain/shared"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *brickowl.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return brickowl.NewClient(srv.URL, "test-key")
}

func TestResolve_ExactCodeHitBeatsTypeMatch(t *testing.T) {
	// Arrange: the first result matches the wanted type, the second
	// carries the code in its permalink.
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/catalog/search", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "sw0010", r.URL.Query().Get("query"))
		w.Write([]byte(`{"results":[
			{"boid":"111","name":"Some Other Maul","type":"Minifigure","url":"/minifig/other-maul"},
			{"boid":"222","name":"Darth Maul","type":"Minifigure","url":"/minifig/darth-maul-sw0010"}
		]}`))
	})

	// Act
	got, err := client.Resolve(context.Background(), "sw0010", catalog.KindMinifig)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "222", got.OpaqueID)
	assert.Equal(t, "Darth Maul", got.Name)
}

func TestResolve_FallsBackToFirstTypeMatch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[
			{"boid":"333","name":"Darth Maul Poster","type":"Gear","url":"/gear/poster"},
			{"boid":"444","name":"Darth Maul","type":"Minifigure","url":"/minifig/dm"}
		]}`))
	})

	got, err := client.Resolve(context.Background(), "maul with horns", catalog.KindMinifig)

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "444", got.OpaqueID)
}

func TestResolve_NoResultsIsNilNotError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[]}`))
	})

	got, err := client.Resolve(context.Background(), "nothing", catalog.KindMinifig)

	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAvailability_FiltersClosedAndUnpricedLots(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/catalog/availability", r.URL.Path)
		assert.Equal(t, "987654", r.URL.Query().Get("boid"))
		assert.Equal(t, "DE", r.URL.Query().Get("country"))
		w.Write([]byte(`{
			"lot-1":{"open":true,"price":"345.00","currency":"EUR","con":"news","qty":1,
				"url":"https://brickowl.com/lot-1","name":"Darth Maul sw0010",
				"store":{"id":42,"username":"figdealer","country":"NL","feedback_average":"99.2","feedback_count":310}},
			"lot-2":{"open":false,"price":"300.00","currency":"EUR","con":"new"},
			"lot-3":{"open":true,"price":"0.00","currency":"EUR","con":"new"}
		}`))
	})

	lots, err := client.Availability(context.Background(), "987654", "DE")

	require.NoError(t, err)
	require.Len(t, lots, 1)
	raw := lots["lot-1"]
	assert.Equal(t, listing.SourceBrickOwl, raw.Source)
	assert.Equal(t, "lot-1", raw.ListingID)
	assert.Equal(t, 345.0, raw.Price)
	assert.Equal(t, listing.ConditionNew, raw.Condition)
	assert.Equal(t, "NL", raw.ShipFrom)
	assert.Equal(t, "figdealer", raw.SellerUsername)
	assert.Equal(t, 99.2, raw.SellerRating)
	// BrickOwl never quotes shipping.
	assert.False(t, raw.HasShipping)
}

func TestSearch_RequiresResolvedOpaqueID(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	raws, err := client.Search(context.Background(),
		&catalog.Item{Ref: catalog.ItemRef{Kind: catalog.KindMinifig, ID: "sw0010"}}, "DE", 50, 0)

	require.NoError(t, err)
	assert.Empty(t, raws)
	assert.False(t, called)
}

func TestGet_ErrorMapping(t *testing.T) {
	cases := map[int]shared.ErrorKind{
		http.StatusUnauthorized:        shared.ErrAuth,
		http.StatusTooManyRequests:     shared.ErrRateLimit,
		http.StatusInternalServerError: shared.ErrServer,
	}
	for status, want := range cases {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		})

		_, err := client.Resolve(context.Background(), "sw0010", catalog.KindMinifig)

		assert.Equal(t, want, shared.KindOf(err), "status %d", status)
	}
}

func TestGet_NotFoundDegradesToMiss(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	got, err := client.Resolve(context.Background(), "sw0010", catalog.KindMinifig)
	require.NoError(t, err)
	assert.Nil(t, got)

	lots, err := client.Availability(context.Background(), "987654", "DE")
	require.NoError(t, err)
	assert.Nil(t, lots)
}
