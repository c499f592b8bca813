package accounts

import (
	"context"
	"errors"
	"testing"

	"github.com/aguilalv/justletic/internal/db"
)

// fakeUserStore is an in-memory UserStore keyed by email.
type fakeUserStore struct {
	users map[string]*db.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*db.User)}
}

func (f *fakeUserStore) Create(_ context.Context, user *db.User) error {
	f.users[user.Email] = user
	return nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*db.User, error) {
	user, ok := f.users[email]
	if !ok {
		return nil, db.ErrNotFound
	}
	return user, nil
}

func TestRegister(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{name: "valid", email: "edith@mailinator.com", password: "epwd"},
		{name: "uppercase email normalized", email: "Edith@Mailinator.com", password: "epwd"},
		{name: "empty email", email: "", password: "epwd", wantErr: ErrInvalidEmail},
		{name: "malformed email", email: "not-an-email", password: "epwd", wantErr: ErrInvalidEmail},
		{name: "empty password", email: "edith@mailinator.com", password: "", wantErr: ErrMissingPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := New(newFakeUserStore())

			user, err := svc.Register(context.Background(), tt.email, tt.password)

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Register() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if user.Email != "edith@mailinator.com" {
				t.Errorf("Email = %q, want %q", user.Email, "edith@mailinator.com")
			}
			if user.PasswordHash == tt.password || user.PasswordHash == "" {
				t.Error("password was not hashed")
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := New(newFakeUserStore())

	if _, err := svc.Register(context.Background(), "edith@mailinator.com", "epwd"); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}

	_, err := svc.Register(context.Background(), "edith@mailinator.com", "other")
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("second Register() error = %v, want %v", err, ErrEmailTaken)
	}
}

func TestAuthenticate(t *testing.T) {
	store := newFakeUserStore()
	svc := New(store)

	registered, err := svc.Register(context.Background(), "edith@mailinator.com", "epwd")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{name: "correct credentials", email: "edith@mailinator.com", password: "epwd"},
		{name: "wrong password", email: "edith@mailinator.com", password: "nope", wantErr: ErrBadCredentials},
		{name: "unknown email", email: "anne@mailinator.com", password: "epwd", wantErr: ErrBadCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := svc.Authenticate(context.Background(), tt.email, tt.password)

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Authenticate() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && user.ID != registered.ID {
				t.Errorf("ID = %v, want %v", user.ID, registered.ID)
			}
		})
	}
}
