// Package accounts provides Justletic account registration and authentication.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/aguilalv/justletic/internal/db"
)

// Validation and authentication errors surfaced to the web layer.
var (
	// ErrInvalidEmail is returned when the submitted email is empty or malformed.
	ErrInvalidEmail = errors.New("please enter a valid email")

	// ErrMissingPassword is returned when no password is submitted.
	ErrMissingPassword = errors.New("you have to enter a password")

	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = errors.New("an account with that email already exists")

	// ErrBadCredentials is returned when email or password does not match.
	ErrBadCredentials = errors.New("wrong user or password")
)

// UserStore is the subset of the user repository the service needs.
type UserStore interface {
	Create(ctx context.Context, user *db.User) error
	GetByEmail(ctx context.Context, email string) (*db.User, error)
}

// Service handles account registration and login checks.
type Service struct {
	users UserStore
}

// New creates an account service backed by the given user store.
func New(users UserStore) *Service {
	return &Service{users: users}
}

// Register validates the email and password, hashes the password and
// creates the user. Returns the created user.
func (s *Service) Register(ctx context.Context, email, password string) (*db.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if password == "" {
		return nil, ErrMissingPassword
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("checking existing email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &db.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return user, nil
}

// Authenticate checks that the user exists and the password is correct.
// Returns ErrBadCredentials for an unknown email or a wrong password,
// without revealing which.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*db.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrBadCredentials
	}
	return user, nil
}

func validateEmail(email string) error {
	if email == "" {
		return ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmail
	}
	return nil
}
