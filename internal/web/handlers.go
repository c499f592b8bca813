package web

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aguilalv/justletic/internal/accounts"
	"github.com/aguilalv/justletic/internal/db"
	"github.com/aguilalv/justletic/internal/link"
)

// User-visible error copy.
const (
	stravaAuthError  = "Oops, something went wrong asking Strava about you ..."
	spotifyAuthError = "Oops, something went wrong asking Spotify about you ..."
	loginError       = "Ooops, wrong user or password"
	emailFieldError  = "Please enter a valid email"
	passwordError    = "You have to enter a password"
	emailTakenError  = "An account with that email already exists"
	genericError     = "It seems like there was a problem ..."
)

const oauthStateCookie = "oauth_state"

// AccountService is the account surface the handlers need.
type AccountService interface {
	Register(ctx context.Context, email, password string) (*db.User, error)
	Authenticate(ctx context.Context, email, password string) (*db.User, error)
}

// Linker is the linking-coordinator surface the handlers need.
type Linker interface {
	StravaAuthCodeURL(state string) string
	SpotifyAuthCodeURL(state string) string
	LinkStrava(ctx context.Context, userID uuid.UUID, code string) (*link.StravaLink, error)
	LinkSpotify(ctx context.Context, userID uuid.UUID, code string) (*link.SpotifyLink, error)
	Summarize(ctx context.Context, userID uuid.UUID) (*link.Summary, error)
}

// Handlers contains HTTP handlers for the web application.
type Handlers struct {
	accounts  AccountService
	linker    Linker
	sessions  SessionManager
	templates *Templates
	log       *zap.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(accountSvc AccountService, linker Linker, sessions SessionManager, templates *Templates, log *zap.Logger) *Handlers {
	return &Handlers{
		accounts:  accountSvc,
		linker:    linker,
		sessions:  sessions,
		templates: templates,
		log:       log,
	}
}

// Home handles the home page (GET /).
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	h.renderHome(w, r, "")
}

// renderHome renders the home page with an optional inline error message.
func (h *Handlers) renderHome(w http.ResponseWriter, r *http.Request, errMsg string) {
	session := h.sessions.GetFromRequest(r)

	data := HomePageData{
		PageData: PageData{
			Title:       "Justletic",
			Error:       errMsg,
			CurrentPath: r.URL.Path,
		},
		Authenticated: session != nil,
	}
	if session != nil {
		data.User = &UserData{
			ID:    session.UserID.String(),
			Email: session.Email,
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.Render(w, "home", data); err != nil {
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
	}
}

// Register creates a new account and logs it in (POST /accounts/register).
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	email := r.PostFormValue("email")
	password := r.PostFormValue("password")

	user, err := h.accounts.Register(r.Context(), email, password)
	if err != nil {
		h.renderHome(w, r, registrationErrorMessage(err))
		return
	}

	h.log.Info("user registered", zap.String("user_id", user.ID.String()), zap.String("email", user.Email))
	h.startSession(w, r, user)
}

// Login checks email and password and logs the user in (POST /accounts/login).
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	email := r.PostFormValue("email")
	password := r.PostFormValue("password")

	user, err := h.accounts.Authenticate(r.Context(), email, password)
	if err != nil {
		h.renderHome(w, r, loginError)
		return
	}

	h.log.Info("user logged in", zap.String("user_id", user.ID.String()), zap.String("email", user.Email))
	h.startSession(w, r, user)
}

// Logout clears the session and redirects to home (POST /accounts/logout).
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	session := h.sessions.GetFromRequest(r)
	if session != nil {
		h.sessions.Delete(r.Context(), session.ID)
	}

	h.sessions.ClearCookie(w)
	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

// StravaAuthorize sends the user to Strava's consent page (GET /strava/authorize).
func (h *Handlers) StravaAuthorize(w http.ResponseWriter, r *http.Request) {
	h.authorize(w, r, h.linker.StravaAuthCodeURL)
}

// SpotifyAuthorize sends the user to Spotify's consent page (GET /spotify/authorize).
func (h *Handlers) SpotifyAuthorize(w http.ResponseWriter, r *http.Request) {
	h.authorize(w, r, h.linker.SpotifyAuthCodeURL)
}

func (h *Handlers) authorize(w http.ResponseWriter, r *http.Request, authCodeURL func(string) string) {
	if h.sessions.GetFromRequest(r) == nil {
		http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
		return
	}

	state, err := generateOAuthState()
	if err != nil {
		http.Error(w, "Failed to generate state", http.StatusInternalServerError)
		return
	}

	// Store state in cookie for validation on callback
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   300, // 5 minutes
	})

	http.Redirect(w, r, authCodeURL(state), http.StatusTemporaryRedirect)
}

// StravaCallback receives Strava's redirect and runs the linking flow
// (GET /strava/callback).
func (h *Handlers) StravaCallback(w http.ResponseWriter, r *http.Request) {
	session, ok := h.checkCallback(w, r)
	if !ok {
		return
	}

	result, err := h.linker.LinkStrava(r.Context(), session.UserID, r.URL.Query().Get("code"))
	if err != nil {
		h.renderHome(w, r, stravaAuthError)
		return
	}

	data := CongratulationsPageData{
		PageData: PageData{
			Title:       "Congratulations",
			User:        &UserData{ID: session.UserID.String(), Email: session.Email},
			CurrentPath: r.URL.Path,
		},
		Provider: "Strava",
		Latest:   result.Latest,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.Render(w, "congratulations", data); err != nil {
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
	}
}

// SpotifyCallback receives Spotify's redirect and runs the linking flow
// (GET /spotify/callback).
func (h *Handlers) SpotifyCallback(w http.ResponseWriter, r *http.Request) {
	session, ok := h.checkCallback(w, r)
	if !ok {
		return
	}

	result, err := h.linker.LinkSpotify(r.Context(), session.UserID, r.URL.Query().Get("code"))
	if err != nil {
		h.renderHome(w, r, spotifyAuthError)
		return
	}

	data := CongratulationsPageData{
		PageData: PageData{
			Title:       "Congratulations",
			User:        &UserData{ID: session.UserID.String(), Email: session.Email},
			CurrentPath: r.URL.Path,
		},
		Provider: "Spotify",
	}
	if result.Profile != nil {
		data.SpotifyName = result.Profile.DisplayName
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.Render(w, "congratulations", data); err != nil {
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
	}
}

// checkCallback validates the session and the OAuth state of a provider
// callback. A provider-reported error or a state mismatch never reaches
// the exchange.
func (h *Handlers) checkCallback(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	session := h.sessions.GetFromRequest(r)
	if session == nil {
		http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
		return nil, false
	}

	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil {
		http.Error(w, "Missing state cookie", http.StatusBadRequest)
		return nil, false
	}
	if r.URL.Query().Get("state") != stateCookie.Value {
		http.Error(w, "State mismatch", http.StatusBadRequest)
		return nil, false
	}

	// Clear state cookie
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	return session, true
}

// Summary shows the user's linked services and recent activities
// (GET /users/summary).
func (h *Handlers) Summary(w http.ResponseWriter, r *http.Request) {
	session := h.sessions.GetFromRequest(r)
	if session == nil {
		http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
		return
	}

	summary, err := h.linker.Summarize(r.Context(), session.UserID)
	if err != nil && !errors.Is(err, link.ErrActivityFetch) {
		http.Error(w, "Failed to load summary", http.StatusInternalServerError)
		return
	}

	data := SummaryPageData{
		PageData: PageData{
			Title:       "Your services",
			User:        &UserData{ID: session.UserID.String(), Email: session.Email},
			CurrentPath: r.URL.Path,
		},
	}
	if errors.Is(err, link.ErrActivityFetch) {
		data.Error = stravaAuthError
	}
	for _, key := range summary.Keys {
		service := ServiceData{
			Provider: string(key.Provider),
			LinkedAt: key.UpdatedAt,
		}
		if key.ProviderAccountID != nil {
			service.AccountID = *key.ProviderAccountID
		}
		data.Services = append(data.Services, service)
	}
	data.Activities = summary.Activities

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.Render(w, "user", data); err != nil {
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
	}
}

// startSession creates a session for the user, sets the cookie and
// redirects home.
func (h *Handlers) startSession(w http.ResponseWriter, r *http.Request, user *db.User) {
	session, err := h.sessions.Create(r.Context(), user)
	if err != nil {
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	h.sessions.SetCookie(w, session)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// registrationErrorMessage maps account-service errors to user-visible copy.
func registrationErrorMessage(err error) string {
	switch {
	case errors.Is(err, accounts.ErrInvalidEmail):
		return emailFieldError
	case errors.Is(err, accounts.ErrMissingPassword):
		return passwordError
	case errors.Is(err, accounts.ErrEmailTaken):
		return emailTakenError
	default:
		return genericError
	}
}

// generateOAuthState creates a random state string for OAuth.
func generateOAuthState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
