package ebay

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/brickwatch/brickwatch/internal/domain/shared"
)

const (
	oauthPath = "/identity/v1/oauth2/token"
	oauthScope = "https://api.ebay.com/oauth/api_scope"

	// Tokens are refreshed this long before their reported expiry.
	tokenSafetyMargin = 5 * time.Minute
)

// TokenStore caches the OAuth2 client-credentials token and refreshes it
// single-flight: concurrent acquirers share one refresh request. Construct
// once at startup and inject.
type TokenStore struct {
	httpClient   *http.Client
	baseURL      string
	clientID     string
	clientSecret string
	clock        shared.Clock

	mu      sync.Mutex
	token   string
	expires time.Time
}

// NewTokenStore creates a TokenStore for the given credentials.
func NewTokenStore(httpClient *http.Client, baseURL, clientID, clientSecret string, clock shared.Clock) *TokenStore {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &TokenStore{
		httpClient:   httpClient,
		baseURL:      baseURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		clock:        clock,
	}
}

// Acquire returns a valid access token, refreshing when inside the safety
// margin. The mutex spans the refresh so only one request is in flight.
func (s *TokenStore) Acquire(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && s.clock.Now().Before(s.expires.Add(-tokenSafetyMargin)) {
		return s.token, nil
	}

	token, ttl, err := s.fetch(ctx)
	if err != nil {
		return "", err
	}
	s.token = token
	s.expires = s.clock.Now().Add(ttl)
	return s.token, nil
}

// Invalidate purges the cached token after an auth failure so the next
// Acquire refreshes.
func (s *TokenStore) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.expires = time.Time{}
}

func (s *TokenStore) fetch(ctx context.Context) (string, time.Duration, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("scope", oauthScope)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+oauthPath, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, fmt.Errorf("failed to create token request: %w", err)
	}
	basic := base64.StdEncoding.EncodeToString([]byte(s.clientID + ":" + s.clientSecret))
	req.Header.Set("Authorization", "Basic "+basic)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", 0, shared.NewProviderError(shared.ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, shared.NewProviderError(shared.ErrNetwork, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", 0, shared.FromHTTPStatus(resp.StatusCode, string(body))
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", 0, fmt.Errorf("failed to decode token response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", 0, shared.NewProviderError(shared.ErrAuth, fmt.Errorf("empty access token"))
	}
	return payload.AccessToken, time.Duration(payload.ExpiresIn) * time.Second, nil
}
