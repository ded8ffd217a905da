package helpers

import (
	"context"
	"sync"

	"github.com/brickwatch/brickwatch/internal/domain/catalog"
	"github.com/brickwatch/brickwatch/internal/domain/listing"
)

// MockMarketplaceAdapter is a test double for a marketplace adapter
type MockMarketplaceAdapter struct {
	mu         sync.RWMutex
	source     listing.Source
	searchFunc func(ctx context.Context, item *catalog.Item, shipTo string, limit, offset int) ([]listing.RawListing, error)
	calls      []SearchCall
}

// SearchCall represents a single call to Search
type SearchCall struct {
	ItemRef catalog.ItemRef
	ShipTo  string
	Limit   int
	Offset  int
}

// NewMockMarketplaceAdapter creates a mock adapter for the given source
func NewMockMarketplaceAdapter(source listing.Source) *MockMarketplaceAdapter {
	return &MockMarketplaceAdapter{source: source}
}

// Source returns the configured marketplace source
func (m *MockMarketplaceAdapter) Source() listing.Source {
	return m.source
}

// Search records the call and executes the configured mock function
func (m *MockMarketplaceAdapter) Search(ctx context.Context, item *catalog.Item, shipTo string, limit, offset int) ([]listing.RawListing, error) {
	m.mu.Lock()
	m.calls = append(m.calls, SearchCall{ItemRef: item.Ref, ShipTo: shipTo, Limit: limit, Offset: offset})
	m.mu.Unlock()

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.searchFunc != nil {
		return m.searchFunc(ctx, item, shipTo, limit, offset)
	}
	return nil, nil
}

// SetSearchFunc sets the function to call when Search is invoked
func (m *MockMarketplaceAdapter) SetSearchFunc(f func(ctx context.Context, item *catalog.Item, shipTo string, limit, offset int) ([]listing.RawListing, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchFunc = f
}

// ReturnListings configures Search to always return the given listings
func (m *MockMarketplaceAdapter) ReturnListings(raws []listing.RawListing) {
	m.SetSearchFunc(func(ctx context.Context, item *catalog.Item, shipTo string, limit, offset int) ([]listing.RawListing, error) {
		return raws, nil
	})
}

// GetSearchCalls returns all recorded search calls
func (m *MockMarketplaceAdapter) GetSearchCalls() []SearchCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]SearchCall(nil), m.calls...)
}
