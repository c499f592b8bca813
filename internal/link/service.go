// Package link orchestrates the OAuth linking flow for external services:
// callback code in, token exchange, activity/profile fetch, credential
// persistence, summary out.
package link

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aguilalv/justletic/internal/db"
	"github.com/aguilalv/justletic/internal/spotify"
	"github.com/aguilalv/justletic/internal/strava"
)

// Failure modes of a linking attempt. Handlers map each to one uniform,
// provider-specific message; neither is ever fatal to the process.
var (
	// ErrAuthExchange is returned when the provider rejected the code or
	// the exchange response was unusable. No credential is persisted.
	ErrAuthExchange = errors.New("authorization code exchange failed")

	// ErrActivityFetch is returned when the provider rejected the
	// activities request or returned malformed data.
	ErrActivityFetch = errors.New("activity fetch failed")
)

// StravaClient is the Strava surface the coordinator needs.
type StravaClient interface {
	AuthCodeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*strava.TokenGrant, error)
	Activities(ctx context.Context, accessToken string) ([]strava.Activity, error)
}

// SpotifyClient is the Spotify surface the coordinator needs.
type SpotifyClient interface {
	AuthCodeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*spotify.TokenGrant, error)
	Profile(ctx context.Context, grant *spotify.TokenGrant) (*spotify.Profile, error)
}

// KeyStore is the credential persistence surface the coordinator needs.
type KeyStore interface {
	Upsert(ctx context.Context, key *db.Key) error
	Get(ctx context.Context, userID uuid.UUID, provider db.Provider) (*db.Key, error)
	GetForUser(ctx context.Context, userID uuid.UUID) ([]db.Key, error)
}

// Service runs the linking state machine for one request at a time.
type Service struct {
	keys    KeyStore
	strava  StravaClient
	spotify SpotifyClient
	log     *zap.Logger
}

// New creates a linking service.
func New(keys KeyStore, stravaClient StravaClient, spotifyClient SpotifyClient, log *zap.Logger) *Service {
	return &Service{
		keys:    keys,
		strava:  stravaClient,
		spotify: spotifyClient,
		log:     log,
	}
}

// StravaAuthCodeURL returns the Strava authorize redirect for a state token.
func (s *Service) StravaAuthCodeURL(state string) string {
	return s.strava.AuthCodeURL(state)
}

// SpotifyAuthCodeURL returns the Spotify authorize redirect for a state token.
func (s *Service) SpotifyAuthCodeURL(state string) string {
	return s.spotify.AuthCodeURL(state)
}

// StravaLink is the outcome of a successful Strava linking flow.
type StravaLink struct {
	Key        db.Key
	Activities []strava.Activity // sorted ascending by StartDateLocal
	Latest     *strava.Activity  // most recent activity, nil when none
}

// SpotifyLink is the outcome of a successful Spotify linking flow.
type SpotifyLink struct {
	Key     db.Key
	Profile *spotify.Profile // nil when the profile fetch failed
}

// LinkStrava exchanges the callback code, fetches the athlete's
// activities, and persists the credential. The credential is stored only
// after the activity fetch confirms the token works, so a stored token
// is always a verified one.
func (s *Service) LinkStrava(ctx context.Context, userID uuid.UUID, code string) (*StravaLink, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: callback carried no code", ErrAuthExchange)
	}

	grant, err := s.strava.ExchangeCode(ctx, code)
	if err != nil {
		s.log.Warn("strava code exchange failed",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrAuthExchange, err)
	}

	activities, err := s.strava.Activities(ctx, grant.AccessToken)
	if err != nil {
		s.log.Warn("strava activity fetch failed",
			zap.String("user_id", userID.String()),
			zap.Int64("athlete_id", grant.AthleteID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrActivityFetch, err)
	}

	athleteID := strconv.FormatInt(grant.AthleteID, 10)
	key := db.Key{
		ID:                uuid.New(),
		UserID:            userID,
		Provider:          db.ProviderStrava,
		AccessToken:       grant.AccessToken,
		ProviderAccountID: &athleteID,
	}
	if err := s.keys.Upsert(ctx, &key); err != nil {
		return nil, fmt.Errorf("persisting strava credential: %w", err)
	}

	s.log.Info("strava account linked",
		zap.String("user_id", userID.String()),
		zap.Int64("athlete_id", grant.AthleteID),
		zap.Int("activities", len(activities)),
	)

	result := &StravaLink{Key: key, Activities: activities}
	if len(activities) > 0 {
		result.Latest = &activities[len(activities)-1]
	}
	return result, nil
}

// LinkSpotify exchanges the callback code and persists the credential
// (access + refresh token). The profile fetch only decorates the result;
// its failure does not undo a successful link.
func (s *Service) LinkSpotify(ctx context.Context, userID uuid.UUID, code string) (*SpotifyLink, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: callback carried no code", ErrAuthExchange)
	}

	grant, err := s.spotify.ExchangeCode(ctx, code)
	if err != nil {
		s.log.Warn("spotify code exchange failed",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrAuthExchange, err)
	}

	profile, err := s.spotify.Profile(ctx, grant)
	if err != nil {
		s.log.Warn("spotify profile fetch failed",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
		profile = nil
	}

	key := db.Key{
		ID:           uuid.New(),
		UserID:       userID,
		Provider:     db.ProviderSpotify,
		AccessToken:  grant.AccessToken,
		RefreshToken: &grant.RefreshToken,
	}
	if profile != nil {
		key.ProviderAccountID = &profile.ID
	}
	if err := s.keys.Upsert(ctx, &key); err != nil {
		return nil, fmt.Errorf("persisting spotify credential: %w", err)
	}

	s.log.Info("spotify account linked",
		zap.String("user_id", userID.String()),
		zap.Bool("profile_fetched", profile != nil),
	)

	return &SpotifyLink{Key: key, Profile: profile}, nil
}

// Summary describes a user's linked services and, when Strava is linked,
// their recent activities fetched live with the stored token.
type Summary struct {
	Keys       []db.Key
	Activities []strava.Activity
}

// Summarize loads the user's credentials and fetches current Strava
// activities when a Strava credential exists. A failing fetch surfaces
// as ErrActivityFetch; the credentials are still returned.
func (s *Service) Summarize(ctx context.Context, userID uuid.UUID) (*Summary, error) {
	keys, err := s.keys.GetForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading credentials: %w", err)
	}

	summary := &Summary{Keys: keys}
	for _, key := range keys {
		if key.Provider != db.ProviderStrava {
			continue
		}
		activities, err := s.strava.Activities(ctx, key.AccessToken)
		if err != nil {
			s.log.Warn("strava activity fetch failed",
				zap.String("user_id", userID.String()),
				zap.Error(err),
			)
			return summary, fmt.Errorf("%w: %v", ErrActivityFetch, err)
		}
		summary.Activities = activities
	}
	return summary, nil
}
