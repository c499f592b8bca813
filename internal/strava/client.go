// Package strava provides the Strava OAuth2 code exchange and activity client.
package strava

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// Strava endpoints.
const (
	AuthURL       = "https://www.strava.com/oauth/authorize"
	TokenURL      = "https://www.strava.com/oauth/token"
	ActivitiesURL = "https://www.strava.com/api/v3/athlete/activities"
)

// Scope requested during authorization.
const Scope = "view_private"

// Sentinel errors. Transport faults, non-200 statuses, error-shaped
// bodies and missing fields are all folded into these so callers see a
// single failure mode per operation.
var (
	// ErrExchange is returned when the code exchange does not yield a token.
	ErrExchange = errors.New("strava token exchange failed")

	// ErrActivityFetch is returned when the activity list cannot be fetched.
	ErrActivityFetch = errors.New("strava activity fetch failed")
)

// Config holds the Strava OAuth2 application settings.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// Client talks to the Strava OAuth and API endpoints.
type Client struct {
	oauth      *oauth2.Config
	httpClient *http.Client

	// Overridable in tests.
	tokenURL      string
	activitiesURL string
}

// NewClient creates a Strava client for the given application settings.
func NewClient(cfg Config) *Client {
	return &Client{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       []string{Scope},
			Endpoint: oauth2.Endpoint{
				AuthURL:  AuthURL,
				TokenURL: TokenURL,
			},
		},
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		tokenURL:      TokenURL,
		activitiesURL: ActivitiesURL,
	}
}

// AuthCodeURL returns the Strava authorize URL carrying the configured
// client id, redirect URI, scope, response_type=code and the given state.
func (c *Client) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(state)
}

// ExchangeCode exchanges an authorization code for an access token and
// the athlete's Strava id. One blocking POST, no retry. Any failure —
// transport error, non-200 status, error-shaped body, or a missing
// token/athlete field — wraps ErrExchange and yields no partial result.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*TokenGrant, error) {
	data := url.Values{
		"client_id":     {c.oauth.ClientID},
		"client_secret": {c.oauth.ClientSecret},
		"code":          {code},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchange, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrExchange, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", ErrExchange, resp.StatusCode, body)
	}

	var tokenResp tokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", ErrExchange, err)
	}

	if len(tokenResp.Errors) > 0 {
		return nil, fmt.Errorf("%w: error response: %s", ErrExchange, body)
	}
	if tokenResp.AccessToken == "" || tokenResp.Athlete == nil {
		return nil, fmt.Errorf("%w: response missing token or athlete", ErrExchange)
	}

	return &TokenGrant{
		AccessToken: tokenResp.AccessToken,
		AthleteID:   tokenResp.Athlete.ID,
	}, nil
}

// Activities fetches the athlete's activity list with the given access
// token and returns it normalized, sorted ascending by StartDateLocal.
// An empty provider list yields an empty non-nil slice; any fault yields
// a nil slice and an error wrapping ErrActivityFetch.
func (c *Client) Activities(ctx context.Context, accessToken string) ([]Activity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.activitiesURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating activities request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrActivityFetch, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrActivityFetch, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", ErrActivityFetch, resp.StatusCode, body)
	}

	var raw []rawActivity
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", ErrActivityFetch, err)
	}

	activities := make([]Activity, 0, len(raw))
	for _, r := range raw {
		activities = append(activities, r.normalize())
	}

	// The provider does not guarantee order; ISO-8601 strings sort
	// correctly under lexicographic comparison.
	sort.SliceStable(activities, func(i, j int) bool {
		return activities[i].StartDateLocal < activities[j].StartDateLocal
	})

	return activities, nil
}
