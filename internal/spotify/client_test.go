package spotify

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"golang.org/x/oauth2"
)

func TestAuthCodeURL(t *testing.T) {
	c := NewClient(Config{
		ClientID:     "1aaa5ce0611f42cea3b4eeff885b807d",
		ClientSecret: "test-client-secret",
		RedirectURI:  "http://127.0.0.1:8000/spotify/callback",
	})

	u, err := url.Parse(c.AuthCodeURL("test-state"))
	if err != nil {
		t.Fatalf("parse URL error: %v", err)
	}

	if base := u.Scheme + "://" + u.Host + u.Path; base != "https://accounts.spotify.com/authorize" {
		t.Errorf("base URL = %q", base)
	}

	params := u.Query()
	if got := params.Get("client_id"); got != "1aaa5ce0611f42cea3b4eeff885b807d" {
		t.Errorf("client_id = %q", got)
	}
	if got := params.Get("redirect_uri"); got != "http://127.0.0.1:8000/spotify/callback" {
		t.Errorf("redirect_uri = %q", got)
	}
	if got := params.Get("response_type"); got != "code" {
		t.Errorf("response_type = %q, want %q", got, "code")
	}
	if got := params.Get("scope"); got != "user-read-recently-played user-top-read" {
		t.Errorf("scope = %q, want %q", got, "user-read-recently-played user-top-read")
	}
	if got := params.Get("state"); got != "test-state" {
		t.Errorf("state = %q, want %q", got, "test-state")
	}
}

// fixedTransport answers every request with a canned response, letting
// tests intercept the fixed Spotify token endpoint.
type fixedTransport struct {
	status int
	body   string
}

func (t fixedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return &http.Response{
		StatusCode: t.status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader([]byte(t.body))),
		Request:    req,
	}, nil
}

func exchangeContext(status int, body string) context.Context {
	client := &http.Client{Transport: fixedTransport{status: status, body: body}}
	return context.WithValue(context.Background(), oauth2.HTTPClient, client)
}

func TestExchangeCode(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantAccess  string
		wantRefresh string
		wantErr     bool
	}{
		{
			name:        "success",
			status:      http.StatusOK,
			body:        `{"access_token":"A","token_type":"Bearer","refresh_token":"R","expires_in":3600}`,
			wantAccess:  "A",
			wantRefresh: "R",
		},
		{
			name:    "error response",
			status:  http.StatusBadRequest,
			body:    `{"error":"invalid_grant","error_description":"Invalid authorization code"}`,
			wantErr: true,
		},
		{
			name:    "missing refresh token",
			status:  http.StatusOK,
			body:    `{"access_token":"A","token_type":"Bearer","expires_in":3600}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(Config{
				ClientID:     "1aaa5ce0611f42cea3b4eeff885b807d",
				ClientSecret: "test-client-secret",
				RedirectURI:  "http://127.0.0.1:8000/spotify/callback",
			})

			grant, err := c.ExchangeCode(exchangeContext(tt.status, tt.body), "auth-code")

			if tt.wantErr {
				if !errors.Is(err, ErrExchange) {
					t.Fatalf("ExchangeCode() error = %v, want ErrExchange", err)
				}
				if grant != nil {
					t.Error("ExchangeCode() returned partial result with error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ExchangeCode() error = %v", err)
			}
			if grant.AccessToken != tt.wantAccess {
				t.Errorf("AccessToken = %q, want %q", grant.AccessToken, tt.wantAccess)
			}
			if grant.RefreshToken != tt.wantRefresh {
				t.Errorf("RefreshToken = %q, want %q", grant.RefreshToken, tt.wantRefresh)
			}
			if grant.Expiry.IsZero() {
				t.Error("Expiry not set from expires_in")
			}
		})
	}
}

func TestExchangeCodeSendsGrantType(t *testing.T) {
	var captured *http.Request
	var capturedBody string

	client := &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		captured = req
		if req.Body != nil {
			b, _ := io.ReadAll(req.Body)
			capturedBody = string(b)
		}
		return fixedTransport{
			status: http.StatusOK,
			body:   `{"access_token":"A","token_type":"Bearer","refresh_token":"R","expires_in":3600}`,
		}.RoundTrip(req)
	})}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, client)

	c := NewClient(Config{
		ClientID:     "1aaa5ce0611f42cea3b4eeff885b807d",
		ClientSecret: "test-client-secret",
		RedirectURI:  "http://127.0.0.1:8000/spotify/callback",
	})

	if _, err := c.ExchangeCode(ctx, "auth-code"); err != nil {
		t.Fatalf("ExchangeCode() error = %v", err)
	}

	if captured == nil {
		t.Fatal("no token request issued")
	}
	form, err := url.ParseQuery(capturedBody)
	if err != nil {
		t.Fatalf("parsing request body: %v", err)
	}
	if got := form.Get("grant_type"); got != "authorization_code" {
		t.Errorf("grant_type = %q, want %q", got, "authorization_code")
	}
	if got := form.Get("code"); got != "auth-code" {
		t.Errorf("code = %q, want %q", got, "auth-code")
	}
	if got := form.Get("redirect_uri"); !strings.Contains(got, "/spotify/callback") {
		t.Errorf("redirect_uri = %q, want the configured callback", got)
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
