package api

import (
	"errors"
	"net/http"
	"time"
)

// KeyResponse is the wire shape of one credential.
type KeyResponse struct {
	Provider          string  `json:"provider"`
	AccessToken       string  `json:"token"`
	RefreshToken      *string `json:"refresh_token,omitempty"`
	ProviderAccountID *string `json:"provider_account_id,omitempty"`
}

// UserResponse is the wire shape of one user.
type UserResponse struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}

// SessionResponse is the wire shape of one session.
type SessionResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// KeyDetail serves GET /api/key: the authenticated user's credentials.
type KeyDetail struct {
	Identity Identity
	Keys     KeyStore
}

// HandleGet implements GetHandler.
func (h *KeyDetail) HandleGet(r *http.Request) Response {
	user, err := h.Identity.CurrentUser(r)
	if err != nil {
		return unauthorized()
	}

	keys, err := h.Keys.GetForUser(r.Context(), user.ID)
	if err != nil {
		return internalError()
	}

	body := make([]KeyResponse, 0, len(keys))
	for _, key := range keys {
		body = append(body, KeyResponse{
			Provider:          string(key.Provider),
			AccessToken:       key.AccessToken,
			RefreshToken:      key.RefreshToken,
			ProviderAccountID: key.ProviderAccountID,
		})
	}
	return Response{Status: http.StatusOK, Body: body}
}

// UserList serves GET /api/users: every account, admins only.
type UserList struct {
	Identity Identity
	Users    UserStore
}

// HandleGet implements GetHandler.
func (h *UserList) HandleGet(r *http.Request) Response {
	if resp, ok := requireAdmin(h.Identity, r); !ok {
		return resp
	}

	users, err := h.Users.List(r.Context())
	if err != nil {
		return internalError()
	}

	body := make([]UserResponse, 0, len(users))
	for _, user := range users {
		body = append(body, UserResponse{
			ID:      user.ID.String(),
			Email:   user.Email,
			IsAdmin: user.IsAdmin,
		})
	}
	return Response{Status: http.StatusOK, Body: body}
}

// SessionList serves GET /api/sessions: every live session, admins only.
type SessionList struct {
	Identity Identity
	Sessions SessionStore
}

// HandleGet implements GetHandler.
func (h *SessionList) HandleGet(r *http.Request) Response {
	if resp, ok := requireAdmin(h.Identity, r); !ok {
		return resp
	}

	sessions, err := h.Sessions.List(r.Context())
	if err != nil {
		return internalError()
	}

	body := make([]SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		body = append(body, SessionResponse{
			ID:        session.ID,
			UserID:    session.UserID.String(),
			CreatedAt: session.CreatedAt,
			ExpiresAt: session.ExpiresAt,
		})
	}
	return Response{Status: http.StatusOK, Body: body}
}

// requireAdmin resolves the request identity and rejects non-admins.
func requireAdmin(identity Identity, r *http.Request) (Response, bool) {
	user, err := identity.CurrentUser(r)
	if errors.Is(err, ErrNoIdentity) {
		return unauthorized(), false
	}
	if err != nil {
		return internalError(), false
	}
	if !user.IsAdmin {
		return forbidden(), false
	}
	return Response{}, true
}
