package ebay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/brickwatch/brickwatch/internal/domain/catalog"
	"github.com/brickwatch/brickwatch/internal/domain/listing"
	"github.com/brickwatch/brickwatch/internal/domain/shared"
)

const (
	defaultBaseURL = "https://api.ebay.com"
	searchPath     = "/buy/browse/v1/item_summary/search"
	defaultTimeout = 30 * time.Second
)

// Client is the marketplace-A adapter over the eBay Browse API.
type Client struct {
	httpClient  *http.Client
	tokens      *TokenStore
	rateLimiter *rate.Limiter
	baseURL     string
	fallbackMP  string
	affiliateID string
}

// NewClient creates the eBay adapter. fallbackMP overrides the default
// fallback marketplace for ship-to countries without their own endpoint;
// affiliateID, when set, is appended to listing URLs as a campaign id.
func NewClient(baseURL, clientID, clientSecret, fallbackMP, affiliateID string, clock shared.Clock) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := &http.Client{Timeout: defaultTimeout}
	return &Client{
		httpClient:  httpClient,
		tokens:      NewTokenStore(httpClient, baseURL, clientID, clientSecret, clock),
		rateLimiter: rate.NewLimiter(rate.Limit(5), 5),
		baseURL:     baseURL,
		fallbackMP:  fallbackMP,
		affiliateID: affiliateID,
	}
}

// Source identifies this adapter's listings.
func (c *Client) Source() listing.Source {
	return listing.SourceEbay
}

// Search queries fixed-price listings for an item shipped to a country.
// The query is the brand token plus the item identifier; no price sort is
// applied because price sort biases toward spare parts.
func (c *Client) Search(ctx context.Context, item *catalog.Item, shipTo string, limit, offset int) ([]listing.RawListing, error) {
	marketplace, variant := marketplaceFor(shipTo, c.fallbackMP)

	q := url.Values{}
	q.Set("q", "lego "+item.Ref.ID)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	filters := []string{"buyingOptions:{FIXED_PRICE}"}
	if variant == variantDirectEU {
		filters = append(filters, "itemLocationRegion:EUROPEAN_UNION")
	}
	q.Set("filter", strings.Join(filters, ","))

	var resp searchResponse
	if err := c.get(ctx, searchPath+"?"+q.Encode(), marketplace, &resp); err != nil {
		if shared.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	out := make([]listing.RawListing, 0, len(resp.ItemSummaries))
	for _, s := range resp.ItemSummaries {
		raw, ok := c.toRaw(s, item.Ref.Kind)
		if !ok {
			continue
		}
		out = append(out, raw)
	}
	return out, nil
}

// get performs an authenticated request with rate limiting. An auth
// failure purges the cached token and retries once.
func (c *Client) get(ctx context.Context, path, marketplace string, result interface{}) error {
	retried := false
	for {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		token, err := c.tokens.Acquire(ctx)
		if err != nil {
			return fmt.Errorf("failed to acquire token: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("X-EBAY-C-MARKETPLACE-ID", marketplace)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return shared.NewProviderError(shared.ErrNetwork, err)
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return shared.NewProviderError(shared.ErrNetwork, err)
		}

		if resp.StatusCode >= 400 {
			perr := shared.FromHTTPStatus(resp.StatusCode, string(body))
			if perr.Kind == shared.ErrAuth && !retried {
				c.tokens.Invalidate()
				retried = true
				continue
			}
			return perr
		}

		if result != nil {
			if err := json.Unmarshal(body, result); err != nil {
				return fmt.Errorf("failed to decode search response: %w", err)
			}
		}
		return nil
	}
}

type searchResponse struct {
	ItemSummaries []itemSummary `json:"itemSummaries"`
}

type itemSummary struct {
	ItemID      string `json:"itemId"`
	Title       string `json:"title"`
	ItemWebURL  string `json:"itemWebUrl"`
	ConditionID string `json:"conditionId"`
	Image       struct {
		ImageURL string `json:"imageUrl"`
	} `json:"image"`
	Price struct {
		Value    string `json:"value"`
		Currency string `json:"currency"`
	} `json:"price"`
	Seller struct {
		Username           string `json:"username"`
		FeedbackPercentage string `json:"feedbackPercentage"`
		FeedbackScore      int    `json:"feedbackScore"`
	} `json:"seller"`
	ItemLocation struct {
		Country string `json:"country"`
	} `json:"itemLocation"`
	ShippingOptions []struct {
		ShippingCostType string `json:"shippingCostType"`
		ShippingCost     struct {
			Value    string `json:"value"`
			Currency string `json:"currency"`
		} `json:"shippingCost"`
	} `json:"shippingOptions"`
	ItemEndDate string `json:"itemEndDate"`
}

// eBay condition ids: 1000 new, 1500/1750 "new: other". The latter is
// treated as used for minifigs (open polybags, parted-out figures).
func mapCondition(conditionID string, kind catalog.ItemKind) listing.Condition {
	switch conditionID {
	case "1000":
		return listing.ConditionNew
	case "1500", "1750":
		if kind == catalog.KindMinifig {
			return listing.ConditionUsed
		}
		return listing.ConditionNew
	case "3000", "4000", "5000", "6000":
		return listing.ConditionUsed
	default:
		return listing.ConditionUnknown
	}
}

func (c *Client) toRaw(s itemSummary, kind catalog.ItemKind) (listing.RawListing, bool) {
	price, err := strconv.ParseFloat(s.Price.Value, 64)
	if err != nil || price <= 0 {
		return listing.RawListing{}, false
	}

	raw := listing.RawListing{
		Source:         listing.SourceEbay,
		ListingID:      s.ItemID,
		Title:          s.Title,
		URL:            c.affiliateURL(s.ItemWebURL),
		ImageURL:       s.Image.ImageURL,
		SellerID:       s.Seller.Username,
		SellerUsername: s.Seller.Username,
		SellerFeedback: s.Seller.FeedbackScore,
		ShipFrom:       s.ItemLocation.Country,
		Condition:      mapCondition(s.ConditionID, kind),
		Currency:       s.Price.Currency,
		Price:          price,
	}
	if pct, err := strconv.ParseFloat(s.Seller.FeedbackPercentage, 64); err == nil {
		raw.SellerRating = pct
	}

	// First shipping option only: the Browse API orders them cheapest
	// first for the request marketplace.
	if len(s.ShippingOptions) > 0 {
		opt := s.ShippingOptions[0]
		if cost, err := strconv.ParseFloat(opt.ShippingCost.Value, 64); err == nil {
			raw.Shipping = cost
			raw.HasShipping = true
		}
	}

	if s.ItemEndDate != "" {
		if end, err := time.Parse(time.RFC3339, s.ItemEndDate); err == nil {
			raw.ExpiresAt = &end
		}
	}
	return raw, true
}

// affiliateURL appends the campaign id when affiliate rewriting is on.
func (c *Client) affiliateURL(raw string) string {
	if c.affiliateID == "" {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	q.Set("campid", c.affiliateID)
	u.RawQuery = q.Encode()
	return u.String()
}
