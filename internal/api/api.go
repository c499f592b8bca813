// Package api exposes Justletic's admin JSON endpoints: the current
// user's credential and, for admins, the user and session lists.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/aguilalv/justletic/internal/db"
)

// ErrNoIdentity is returned by Identity implementations when the request
// carries no authenticated user.
var ErrNoIdentity = errors.New("no authenticated user")

// Identity resolves the authenticated user behind a request. The web
// layer's session store implements it.
type Identity interface {
	CurrentUser(r *http.Request) (*db.User, error)
}

// KeyStore is the credential read surface the API needs.
type KeyStore interface {
	GetForUser(ctx context.Context, userID uuid.UUID) ([]db.Key, error)
}

// UserStore is the user read surface the API needs.
type UserStore interface {
	List(ctx context.Context) ([]db.User, error)
}

// SessionStore is the session read surface the API needs.
type SessionStore interface {
	List(ctx context.Context) ([]db.Session, error)
}

// Response is what one endpoint produces for one GET.
type Response struct {
	Status int
	Body   any
}

// GetHandler is the single responsibility of a JSON route: turn a request
// into a response. One type implements it per route; there is no other
// dispatch mechanism.
type GetHandler interface {
	HandleGet(r *http.Request) Response
}

// Endpoint adapts a GetHandler into an http.HandlerFunc that writes the
// response as JSON.
func Endpoint(h GetHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := h.HandleGet(r)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(resp.Status)
		_ = json.NewEncoder(w).Encode(resp.Body)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func unauthorized() Response {
	return Response{Status: http.StatusUnauthorized, Body: errorBody{Error: "authentication required"}}
}

func forbidden() Response {
	return Response{Status: http.StatusForbidden, Body: errorBody{Error: "admin access required"}}
}

func internalError() Response {
	return Response{Status: http.StatusInternalServerError, Body: errorBody{Error: "internal error"}}
}
