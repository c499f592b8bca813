package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/aguilalv/justletic/internal/db"
)

type fakeIdentity struct {
	user *db.User
}

func (f *fakeIdentity) CurrentUser(_ *http.Request) (*db.User, error) {
	if f.user == nil {
		return nil, ErrNoIdentity
	}
	return f.user, nil
}

type fakeKeyStore struct {
	keys []db.Key
}

func (f *fakeKeyStore) GetForUser(_ context.Context, _ uuid.UUID) ([]db.Key, error) {
	return f.keys, nil
}

type fakeUserStore struct {
	users []db.User
}

func (f *fakeUserStore) List(_ context.Context) ([]db.User, error) {
	return f.users, nil
}

type fakeSessionStore struct {
	sessions []db.Session
}

func (f *fakeSessionStore) List(_ context.Context) ([]db.Session, error) {
	return f.sessions, nil
}

func serve(t *testing.T, h GetHandler) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	Endpoint(h)(rec, req)
	return rec
}

func TestKeyDetail(t *testing.T) {
	userID := uuid.New()
	stravaID := "7"

	handler := &KeyDetail{
		Identity: &fakeIdentity{user: &db.User{ID: userID, Email: "edith@mailinator.com"}},
		Keys: &fakeKeyStore{keys: []db.Key{
			{
				UserID:            userID,
				Provider:          db.ProviderStrava,
				AccessToken:       "T",
				ProviderAccountID: &stravaID,
			},
		}},
	}

	rec := serve(t, handler)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", got)
	}

	var body []KeyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if len(body) != 1 {
		t.Fatalf("got %d keys, want 1", len(body))
	}
	if body[0].Provider != "strava" || body[0].AccessToken != "T" {
		t.Errorf("key = %+v", body[0])
	}
	if body[0].ProviderAccountID == nil || *body[0].ProviderAccountID != "7" {
		t.Errorf("ProviderAccountID = %v, want %q", body[0].ProviderAccountID, "7")
	}
}

func TestKeyDetailRequiresAuthentication(t *testing.T) {
	handler := &KeyDetail{Identity: &fakeIdentity{}, Keys: &fakeKeyStore{}}

	rec := serve(t, handler)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestUserList(t *testing.T) {
	admin := &db.User{ID: uuid.New(), Email: "admin@justletic.com", IsAdmin: true}

	tests := []struct {
		name       string
		identity   *fakeIdentity
		wantStatus int
		wantUsers  int
	}{
		{
			name:       "admin sees all users",
			identity:   &fakeIdentity{user: admin},
			wantStatus: http.StatusOK,
			wantUsers:  2,
		},
		{
			name:       "non-admin forbidden",
			identity:   &fakeIdentity{user: &db.User{ID: uuid.New(), Email: "edith@mailinator.com"}},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "anonymous unauthorized",
			identity:   &fakeIdentity{},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := &UserList{
				Identity: tt.identity,
				Users: &fakeUserStore{users: []db.User{
					*admin,
					{ID: uuid.New(), Email: "edith@mailinator.com"},
				}},
			}

			rec := serve(t, handler)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var body []UserResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decoding body: %v", err)
			}
			if len(body) != tt.wantUsers {
				t.Errorf("got %d users, want %d", len(body), tt.wantUsers)
			}
		})
	}
}

func TestSessionList(t *testing.T) {
	admin := &db.User{ID: uuid.New(), Email: "admin@justletic.com", IsAdmin: true}
	now := time.Now()

	handler := &SessionList{
		Identity: &fakeIdentity{user: admin},
		Sessions: &fakeSessionStore{sessions: []db.Session{
			{ID: "abc", UserID: admin.ID, CreatedAt: now, ExpiresAt: now.Add(24 * time.Hour)},
		}},
	}

	rec := serve(t, handler)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body []SessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if len(body) != 1 || body[0].ID != "abc" {
		t.Errorf("sessions = %+v", body)
	}
}
