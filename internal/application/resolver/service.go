package resolver

import (
	"context"
	"fmt"
	"regexp"

	"github.com/rs/zerolog"

	"github.com/brickwatch/brickwatch/internal/domain/catalog"
	"github.com/brickwatch/brickwatch/internal/domain/shared"
)

// Result is the outcome of an identifier resolution. Success is false when
// no id space could be established; callers then fall back to searching
// marketplaces by the original string.
type Result struct {
	Success bool
	Scheme  catalog.IdentifierScheme
	Item    *catalog.Item
}

// Service maps free-form item input onto the unified catalog row, linking
// the native id, the marketplace opaque id, and the encyclopedia id.
type Service struct {
	items        catalog.ItemRepository
	cache        catalog.IDCacheRepository
	marketplace  catalog.MarketplaceResolver
	encyclopedia catalog.EncyclopediaClient
	clock        shared.Clock
	log          zerolog.Logger
}

// NewService creates the resolver. marketplace and encyclopedia may be nil
// when the respective adapter is not configured; resolution degrades to the
// id spaces that remain reachable.
func NewService(
	items catalog.ItemRepository,
	cache catalog.IDCacheRepository,
	marketplace catalog.MarketplaceResolver,
	encyclopedia catalog.EncyclopediaClient,
	clock shared.Clock,
	log zerolog.Logger,
) *Service {
	return &Service{
		items:        items,
		cache:        cache,
		marketplace:  marketplace,
		encyclopedia: encyclopedia,
		clock:        clock,
		log:          log,
	}
}

const cacheSource = "brickowl"

// embeddedCodeRe finds a collector code inside a marketplace display name,
// e.g. "Darth Vader (sw0010)".
var embeddedCodeRe = regexp.MustCompile(`\b[a-z]{2,4}\d{3,4}[a-z]?\b`)

// Resolve maps input onto a catalog row. Existing rows are returned as-is;
// new input flows through cache, marketplace search, and encyclopedia
// enrichment. It never invents an id: no match means Success=false.
func (s *Service) Resolve(ctx context.Context, kind catalog.ItemKind, input string) (*Result, error) {
	norm := catalog.NormalizeIdentifier(input)
	if norm == "" {
		return nil, shared.NewProviderError(shared.ErrValidation, fmt.Errorf("empty identifier"))
	}
	scheme := catalog.DetectIdentifier(norm, kind)

	// Any previously linked id space answers directly.
	if item, err := s.items.FindByAnyID(ctx, kind, norm); err == nil && item != nil {
		return &Result{Success: true, Scheme: scheme, Item: item}, nil
	}

	switch scheme {
	case catalog.SchemeSetNumber:
		return s.resolveSet(ctx, norm)
	case catalog.SchemeCollectorCode:
		return s.resolveCollectorCode(ctx, norm)
	case catalog.SchemeEncyclopedia:
		return s.resolveEncyclopediaID(ctx, norm)
	case catalog.SchemeOpaqueID, catalog.SchemeName:
		return s.resolveByQuery(ctx, kind, norm, scheme)
	default:
		return &Result{Success: false, Scheme: scheme}, nil
	}
}

// resolveSet accepts the number as-is: set numbers are their own id space.
// Marketplace and encyclopedia lookups only enrich.
func (s *Service) resolveSet(ctx context.Context, number string) (*Result, error) {
	item := &catalog.Item{Ref: catalog.ItemRef{Kind: catalog.KindSet, ID: number}}

	if boid := s.lookupOpaqueID(ctx, catalog.KindSet, number); boid != nil {
		item.BrickOwlID = boid.OpaqueID
		if item.Name == "" {
			item.Name = boid.Name
		}
	}
	s.enrichSet(ctx, item)

	if err := s.items.Upsert(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to store set %s: %w", number, err)
	}
	return &Result{Success: true, Scheme: catalog.SchemeSetNumber, Item: item}, nil
}

func (s *Service) resolveCollectorCode(ctx context.Context, code string) (*Result, error) {
	item := &catalog.Item{Ref: catalog.ItemRef{Kind: catalog.KindMinifig, ID: code}}

	if boid := s.lookupOpaqueID(ctx, catalog.KindMinifig, code); boid != nil {
		item.BrickOwlID = boid.OpaqueID
		item.Name = boid.Name
	}
	s.enrichFig(ctx, item)

	if err := s.items.Upsert(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to store minifig %s: %w", code, err)
	}
	return &Result{Success: true, Scheme: catalog.SchemeCollectorCode, Item: item}, nil
}

// resolveEncyclopediaID goes straight to the encyclopedia, then tries to
// recover a collector code from the marketplace display name. Without a
// code there is no primary id to key the row on.
func (s *Service) resolveEncyclopediaID(ctx context.Context, encID string) (*Result, error) {
	if s.encyclopedia == nil {
		return &Result{Success: false, Scheme: catalog.SchemeEncyclopedia}, nil
	}
	fig, err := s.encyclopedia.GetFig(ctx, encID)
	if err != nil {
		if shared.IsNotFound(err) {
			return &Result{Success: false, Scheme: catalog.SchemeEncyclopedia}, nil
		}
		return nil, err
	}

	boid := s.lookupOpaqueID(ctx, catalog.KindMinifig, fig.Name)
	if boid == nil {
		return &Result{Success: false, Scheme: catalog.SchemeEncyclopedia}, nil
	}
	code := embeddedCodeRe.FindString(catalog.NormalizeIdentifier(boid.Name))
	if code == "" {
		return &Result{Success: false, Scheme: catalog.SchemeEncyclopedia}, nil
	}

	item := &catalog.Item{
		Ref:            catalog.ItemRef{Kind: catalog.KindMinifig, ID: code},
		Name:           fig.Name,
		BrickOwlID:     boid.OpaqueID,
		EncyclopediaID: fig.EncyclopediaID,
		ImageURL:       fig.ImageURL,
		PieceCount:     fig.PieceCount,
	}
	if err := s.items.Upsert(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to store minifig %s: %w", code, err)
	}
	return &Result{Success: true, Scheme: catalog.SchemeEncyclopedia, Item: item}, nil
}

// resolveByQuery handles opaque ids and names: the marketplace search is
// the only way to pin them to a row, and only a display name carrying a
// collector code yields a usable primary id for minifigs.
func (s *Service) resolveByQuery(ctx context.Context, kind catalog.ItemKind, query string, scheme catalog.IdentifierScheme) (*Result, error) {
	hit := s.lookupOpaqueID(ctx, kind, query)
	if hit == nil {
		return &Result{Success: false, Scheme: scheme}, nil
	}

	var ref catalog.ItemRef
	switch kind {
	case catalog.KindSet:
		num := setNumberIn(hit.Name)
		if num == "" {
			return &Result{Success: false, Scheme: scheme}, nil
		}
		ref = catalog.ItemRef{Kind: catalog.KindSet, ID: num}
	default:
		code := embeddedCodeRe.FindString(catalog.NormalizeIdentifier(hit.Name))
		if code == "" {
			return &Result{Success: false, Scheme: scheme}, nil
		}
		ref = catalog.ItemRef{Kind: catalog.KindMinifig, ID: code}
	}

	item := &catalog.Item{Ref: ref, Name: hit.Name, BrickOwlID: hit.OpaqueID}
	if kind == catalog.KindMinifig {
		s.enrichFig(ctx, item)
	} else {
		s.enrichSet(ctx, item)
	}
	if err := s.items.Upsert(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to store item %s: %w", ref, err)
	}
	return &Result{Success: true, Scheme: scheme, Item: item}, nil
}

var setNumberInRe = regexp.MustCompile(`\b\d{4,7}\b`)

func setNumberIn(name string) string {
	return setNumberInRe.FindString(name)
}

// lookupOpaqueID consults the cache, then the marketplace catalog search.
// Failures are logged and treated as a miss: resolution must not die on a
// marketplace hiccup.
func (s *Service) lookupOpaqueID(ctx context.Context, kind catalog.ItemKind, input string) *catalog.ResolvedID {
	if cached, err := s.cache.Get(ctx, cacheSource, kind, input, catalog.IDCacheTTL); err == nil && cached != nil {
		return &catalog.ResolvedID{OpaqueID: cached.OpaqueID, Name: cached.Name}
	}
	if s.marketplace == nil {
		return nil
	}
	hit, err := s.marketplace.Resolve(ctx, input, kind)
	if err != nil {
		s.log.Warn().Err(err).Str("input", input).Msg("marketplace id resolution failed")
		return nil
	}
	if hit == nil {
		return nil
	}
	if err := s.cache.Put(ctx, &catalog.CachedID{
		Source:   cacheSource,
		Kind:     kind,
		Input:    input,
		OpaqueID: hit.OpaqueID,
		Name:     hit.Name,
	}); err != nil {
		s.log.Warn().Err(err).Str("input", input).Msg("id cache write failed")
	}
	return hit
}

// enrichFig fills name, image, and piece count from the encyclopedia.
// Best-effort: a miss or error leaves the item as it was.
func (s *Service) enrichFig(ctx context.Context, item *catalog.Item) {
	if s.encyclopedia == nil {
		return
	}
	if item.EncyclopediaID != "" {
		if fig, err := s.encyclopedia.GetFig(ctx, item.EncyclopediaID); err == nil {
			applyFig(item, fig)
		}
		return
	}
	query := item.Name
	if query == "" {
		query = item.Ref.ID
	}
	figs, err := s.encyclopedia.SearchFigs(ctx, query)
	if err != nil || len(figs) == 0 {
		if err != nil {
			s.log.Debug().Err(err).Str("item", item.Ref.String()).Msg("encyclopedia search failed")
		}
		return
	}
	applyFig(item, &figs[0])
}

func applyFig(item *catalog.Item, fig *catalog.EncyclopediaFig) {
	item.EncyclopediaID = fig.EncyclopediaID
	if item.Name == "" {
		item.Name = fig.Name
	}
	if item.ImageURL == "" {
		item.ImageURL = fig.ImageURL
	}
	if item.PieceCount == 0 {
		item.PieceCount = fig.PieceCount
	}
}

func (s *Service) enrichSet(ctx context.Context, item *catalog.Item) {
	if s.encyclopedia == nil {
		return
	}
	set, err := s.encyclopedia.GetSet(ctx, item.Ref.ID)
	if err != nil {
		if !shared.IsNotFound(err) {
			s.log.Debug().Err(err).Str("item", item.Ref.String()).Msg("encyclopedia set lookup failed")
		}
		return
	}
	if item.Name == "" {
		item.Name = set.Name
	}
	if item.ImageURL == "" {
		item.ImageURL = set.ImageURL
	}
	if item.PieceCount == 0 {
		item.PieceCount = set.PieceCount
	}
}
