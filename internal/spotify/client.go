// Package spotify provides the Spotify OAuth2 code exchange and profile client.
package spotify

import (
	"context"
	"errors"
	"fmt"
	"time"

	spotifyapi "github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
)

// Sentinel errors.
var (
	// ErrExchange is returned when the code exchange does not yield a
	// usable token pair. Transport faults, provider error responses and
	// missing fields are all folded into this.
	ErrExchange = errors.New("spotify token exchange failed")

	// ErrProfileFetch is returned when the linked account's profile
	// cannot be fetched.
	ErrProfileFetch = errors.New("spotify profile fetch failed")
)

// Config holds the Spotify OAuth2 application settings.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// TokenGrant is the result of a successful code exchange. Spotify issues
// a refresh token alongside the access token; both are required.
type TokenGrant struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// Profile is the linked Spotify account's identity.
type Profile struct {
	ID          string
	DisplayName string
	Email       string
}

// Client talks to the Spotify accounts service and Web API.
type Client struct {
	auth *spotifyauth.Authenticator
}

// NewClient creates a Spotify client for the given application settings.
func NewClient(cfg Config) *Client {
	auth := spotifyauth.New(
		spotifyauth.WithClientID(cfg.ClientID),
		spotifyauth.WithClientSecret(cfg.ClientSecret),
		spotifyauth.WithRedirectURL(cfg.RedirectURI),
		spotifyauth.WithScopes(
			spotifyauth.ScopeUserReadRecentlyPlayed,
			spotifyauth.ScopeUserTopRead,
		),
	)
	return &Client{auth: auth}
}

// AuthCodeURL returns the Spotify authorize URL carrying the configured
// client id, redirect URI, scopes, response_type=code and the given state.
func (c *Client) AuthCodeURL(state string) string {
	return c.auth.AuthURL(state)
}

// ExchangeCode exchanges an authorization code for an access/refresh
// token pair. The underlying POST carries grant_type=authorization_code
// and the redirect URI, as Spotify requires. Any failure wraps
// ErrExchange and yields no partial result.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*TokenGrant, error) {
	token, err := c.auth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchange, err)
	}
	if token.AccessToken == "" || token.RefreshToken == "" {
		return nil, fmt.Errorf("%w: response missing token fields", ErrExchange)
	}
	return &TokenGrant{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Expiry:       token.Expiry,
	}, nil
}

// Profile fetches the linked account's identity with the given grant.
func (c *Client) Profile(ctx context.Context, grant *TokenGrant) (*Profile, error) {
	token := &oauth2.Token{
		AccessToken:  grant.AccessToken,
		RefreshToken: grant.RefreshToken,
		Expiry:       grant.Expiry,
		TokenType:    "Bearer",
	}

	api := spotifyapi.New(c.auth.Client(ctx, token))
	user, err := api.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileFetch, err)
	}

	return &Profile{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
	}, nil
}
