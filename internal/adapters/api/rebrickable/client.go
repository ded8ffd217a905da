package rebrickable

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/brickwatch/brickwatch/internal/domain/catalog"
	"github.com/brickwatch/brickwatch/internal/domain/shared"
)

const (
	defaultBaseURL = "https://rebrickable.com/api/v3"
	defaultTimeout = 30 * time.Second
)

// Client is the reference-encyclopedia enrichment client. All use is
// best-effort: callers treat errors as missing enrichment.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	apiKey     string
}

// NewClient creates a Rebrickable API client.
func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(1), 2),
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

// GetFig fetches one minifig by its encyclopedia id ("fig-NNNNNN").
func (c *Client) GetFig(ctx context.Context, encyclopediaID string) (*catalog.EncyclopediaFig, error) {
	var fig figResponse
	if err := c.get(ctx, "/lego/minifigs/"+encyclopediaID+"/", &fig); err != nil {
		return nil, err
	}
	return fig.toDomain(), nil
}

// SearchFigs searches minifigs by name.
func (c *Client) SearchFigs(ctx context.Context, query string) ([]catalog.EncyclopediaFig, error) {
	q := url.Values{}
	q.Set("search", query)
	q.Set("page_size", "10")

	var resp struct {
		Results []figResponse `json:"results"`
	}
	if err := c.get(ctx, "/lego/minifigs/?"+q.Encode(), &resp); err != nil {
		if shared.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	out := make([]catalog.EncyclopediaFig, 0, len(resp.Results))
	for _, r := range resp.Results {
		out = append(out, *r.toDomain())
	}
	return out, nil
}

// GetSet fetches one set; Rebrickable keys sets as "75192-1".
func (c *Client) GetSet(ctx context.Context, setNumber string) (*catalog.EncyclopediaSet, error) {
	key := setNumber
	if !hasVariantSuffix(key) {
		key += "-1"
	}
	var resp struct {
		SetNum   string `json:"set_num"`
		Name     string `json:"name"`
		NumParts int    `json:"num_parts"`
		ImageURL string `json:"set_img_url"`
	}
	if err := c.get(ctx, "/lego/sets/"+key+"/", &resp); err != nil {
		return nil, err
	}
	return &catalog.EncyclopediaSet{
		SetNumber:  resp.SetNum,
		Name:       resp.Name,
		ImageURL:   resp.ImageURL,
		PieceCount: resp.NumParts,
	}, nil
}

type figResponse struct {
	SetNum   string `json:"set_num"` // "fig-NNNNNN"
	Name     string `json:"name"`
	NumParts int    `json:"num_parts"`
	ImageURL string `json:"set_img_url"`
}

func (f figResponse) toDomain() *catalog.EncyclopediaFig {
	return &catalog.EncyclopediaFig{
		EncyclopediaID: f.SetNum,
		Name:           f.Name,
		ImageURL:       f.ImageURL,
		PieceCount:     f.NumParts,
	}
}

func hasVariantSuffix(setNumber string) bool {
	for i := len(setNumber) - 1; i >= 0; i-- {
		if setNumber[i] == '-' {
			return true
		}
	}
	return false
}

func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "key "+c.apiKey)

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
