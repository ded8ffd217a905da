package brickowl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/brickwatch/brickwatch/internal/domain/catalog"
	"github.com/brickwatch/brickwatch/internal/domain/listing"
	"github.com/brickwatch/brickwatch/internal/domain/shared"
)

const (
	defaultBaseURL = "https://api.brickowl.com/v1"
	defaultTimeout = 30 * time.Second

	// One request per 500ms process-wide: the BrickOwl API key is shared
	// across all scan groups.
	requestInterval = 500 * time.Millisecond
)

// Client is the marketplace-B adapter. Items must be pre-resolved to a
// BrickOwl opaque id (boid) before availability queries.
type Client struct {
	httpClient *http.Client
	pacer      *rate.Limiter
	baseURL    string
	apiKey     string
}

// NewClient creates the BrickOwl adapter.
func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		pacer:      rate.NewLimiter(rate.Every(requestInterval), 1),
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

// Source identifies this adapter's listings.
func (c *Client) Source() listing.Source {
	return listing.SourceBrickOwl
}

// Search implements the MarketplaceAdapter contract over Availability.
// Items without a resolved boid yield no candidates; the resolver fills
// the id in before the next cycle.
func (c *Client) Search(ctx context.Context, item *catalog.Item, shipTo string, limit, offset int) ([]listing.RawListing, error) {
	if item.BrickOwlID == "" {
		return nil, nil
	}
	lots, err := c.Availability(ctx, item.BrickOwlID, shipTo)
	if err != nil {
		return nil, err
	}
	out := make([]listing.RawListing, 0, len(lots))
	for _, raw := range lots {
		out = append(out, raw)
	}
	return out, nil
}

// Resolve maps a collector code or name query to an opaque id via the
// catalog search endpoint. An exact code hit in name or permalink beats
// the type-matched first result. Returns nil when nothing matches.
func (c *Client) Resolve(ctx context.Context, codeOrQuery string, kind catalog.ItemKind) (*catalog.ResolvedID, error) {
	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("query", codeOrQuery)

	var resp struct {
		Results []struct {
			BOID      string `json:"boid"`
			Name      string `json:"name"`
			Type      string `json:"type"`
			Permalink string `json:"url"`
		} `json:"results"`
	}
	if err := c.get(ctx, "/catalog/search?"+q.Encode(), &resp); err != nil {
		if shared.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}

	wantType := "Set"
	if kind == catalog.KindMinifig {
		wantType = "Minifigure"
	}
	needle := strings.ToLower(codeOrQuery)

	var typeMatch *catalog.ResolvedID
	for _, r := range resp.Results {
		if strings.Contains(strings.ToLower(r.Name), needle) ||
			strings.Contains(strings.ToLower(r.Permalink), needle) {
			return &catalog.ResolvedID{OpaqueID: r.BOID, Name: r.Name}, nil
		}
		if typeMatch == nil && r.Type == wantType {
			typeMatch = &catalog.ResolvedID{OpaqueID: r.BOID, Name: r.Name}
		}
	}
	return typeMatch, nil
}

// Availability returns the open lots for an opaque id shipped to a
// country, keyed by lot id. Closed lots are dropped here.
func (c *Client) Availability(ctx context.Context, boid, shipTo string) (map[string]listing.RawListing, error) {
	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("boid", boid)
	q.Set("country", shipTo)

	var resp map[string]lot
	if err := c.get(ctx, "/catalog/availability?"+q.Encode(), &resp); err != nil {
		if shared.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	out := make(map[string]listing.RawListing, len(resp))
	for lotID, l := range resp {
		if !l.Open {
			continue
		}
		raw, ok := l.toRaw(lotID)
		if !ok {
			continue
		}
		out[lotID] = raw
	}
	return out, nil
}

type lot struct {
	Open      bool   `json:"open"`
	Price     string `json:"price"`
	Currency  string `json:"currency"`
	Condition string `json:"con"` // "new" | "used" | "news" (new sealed)
	Quantity  int    `json:"qty"`
	URL       string `json:"url"`
	Store     struct {
		ID       int    `json:"id"`
		Username string `json:"username"`
		Country  string `json:"country"`
		Rating   string `json:"feedback_average"`
		Feedback int    `json:"feedback_count"`
	} `json:"store"`
	Name string `json:"name"`
}

func (l lot) toRaw(lotID string) (listing.RawListing, bool) {
	var price float64
	if _, err := fmt.Sscanf(l.Price, "%f", &price); err != nil || price <= 0 {
		return listing.RawListing{}, false
	}
	cond := listing.ConditionUnknown
	switch l.Condition {
	case "new", "news":
		cond = listing.ConditionNew
	case "used", "usedg", "useda", "usedn":
		cond = listing.ConditionUsed
	}
	var ratingPct float64
	fmt.Sscanf(l.Store.Rating, "%f", &ratingPct)

	return listing.RawListing{
		Source:         listing.SourceBrickOwl,
		ListingID:      lotID,
		Title:          l.Name,
		URL:            l.URL,
		SellerID:       fmt.Sprintf("%d", l.Store.ID),
		SellerUsername: l.Store.Username,
		SellerRating:   ratingPct,
		SellerFeedback: l.Store.Feedback,
		ShipFrom:       l.Store.Country,
		Condition:      cond,
		Currency:       l.Currency,
		Price:          price,
		// BrickOwl never quotes shipping; the cost model estimates it.
		HasShipping: false,
	}, true
}

// get performs a paced request; the pacer serializes calls process-wide.
func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	if err := c.pacer.Wait(ctx); err != nil {
		return fmt.Errorf("pacer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return shared.NewProviderError(shared.ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return shared.NewProviderError(shared.ErrNetwork, err)
	}
	if resp.StatusCode >= 400 {
		return shared.FromHTTPStatus(resp.StatusCode, string(body))
	}
	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
