package helpers

import (
	"context"
	"sync"

	"github.com/brickwatch/brickwatch/internal/domain/catalog"
)

// MockMarketplaceResolver is a test double for the marketplace id resolver
type MockMarketplaceResolver struct {
	mu          sync.RWMutex
	resolveFunc func(ctx context.Context, codeOrQuery string, kind catalog.ItemKind) (*catalog.ResolvedID, error)
	calls       []string
}

// NewMockMarketplaceResolver creates a new mock marketplace resolver
func NewMockMarketplaceResolver() *MockMarketplaceResolver {
	return &MockMarketplaceResolver{}
}

// Resolve records the input and executes the configured mock function
func (m *MockMarketplaceResolver) Resolve(ctx context.Context, codeOrQuery string, kind catalog.ItemKind) (*catalog.ResolvedID, error) {
	m.mu.Lock()
	m.calls = append(m.calls, codeOrQuery)
	m.mu.Unlock()

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.resolveFunc != nil {
		return m.resolveFunc(ctx, codeOrQuery, kind)
	}
	return nil, nil
}

// SetResolveFunc sets the function to call when Resolve is invoked
func (m *MockMarketplaceResolver) SetResolveFunc(f func(ctx context.Context, codeOrQuery string, kind catalog.ItemKind) (*catalog.ResolvedID, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolveFunc = f
}

// GetCalls returns the recorded resolve inputs
func (m *MockMarketplaceResolver) GetCalls() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.calls...)
}

// MockEncyclopedia is a test double for the encyclopedia enrichment client
type MockEncyclopedia struct {
	mu             sync.RWMutex
	getFigFunc     func(ctx context.Context, encyclopediaID string) (*catalog.EncyclopediaFig, error)
	searchFigsFunc func(ctx context.Context, query string) ([]catalog.EncyclopediaFig, error)
	getSetFunc     func(ctx context.Context, setNumber string) (*catalog.EncyclopediaSet, error)
}

// NewMockEncyclopedia creates a new mock encyclopedia client
func NewMockEncyclopedia() *MockEncyclopedia {
	return &MockEncyclopedia{}
}

// GetFig executes the configured mock function
func (m *MockEncyclopedia) GetFig(ctx context.Context, encyclopediaID string) (*catalog.EncyclopediaFig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.getFigFunc != nil {
		return m.getFigFunc(ctx, encyclopediaID)
	}
	return nil, nil
}

// SearchFigs executes the configured mock function
func (m *MockEncyclopedia) SearchFigs(ctx context.Context, query string) ([]catalog.EncyclopediaFig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.searchFigsFunc != nil {
		return m.searchFigsFunc(ctx, query)
	}
	return nil, nil
}

// GetSet executes the configured mock function
func (m *MockEncyclopedia) GetSet(ctx context.Context, setNumber string) (*catalog.EncyclopediaSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.getSetFunc != nil {
		return m.getSetFunc(ctx, setNumber)
	}
	return nil, nil
}

// SetGetFigFunc sets the function to call when GetFig is invoked
func (m *MockEncyclopedia) SetGetFigFunc(f func(ctx context.Context, encyclopediaID string) (*catalog.EncyclopediaFig, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getFigFunc = f
}

// SetSearchFigsFunc sets the function to call when SearchFigs is invoked
func (m *MockEncyclopedia) SetSearchFigsFunc(f func(ctx context.Context, query string) ([]catalog.EncyclopediaFig, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchFigsFunc = f
}

// SetGetSetFunc sets the function to call when GetSet is invoked
func (m *MockEncyclopedia) SetGetSetFunc(f func(ctx context.Context, setNumber string) (*catalog.EncyclopediaSet, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getSetFunc = f
}
