package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// KeyRepository handles credential database operations.
type KeyRepository struct {
	pool *pgxpool.Pool
}

// Upsert creates the credential for (user, provider), or replaces the
// tokens of an existing one. Re-linking a provider supersedes the old
// credential instead of accumulating duplicate rows.
func (r *KeyRepository) Upsert(ctx context.Context, key *Key) error {
	query := `
		INSERT INTO keys (id, user_id, provider, access_token, refresh_token, provider_account_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (user_id, provider) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			provider_account_id = EXCLUDED.provider_account_id,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		key.ID,
		key.UserID,
		key.Provider,
		key.AccessToken,
		key.RefreshToken,
		key.ProviderAccountID,
	).Scan(&key.ID, &key.CreatedAt, &key.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upserting key: %w", err)
	}
	return nil
}

// Get retrieves the credential for one (user, provider) pair.
func (r *KeyRepository) Get(ctx context.Context, userID uuid.UUID, provider Provider) (*Key, error) {
	query := `
		SELECT id, user_id, provider, access_token, refresh_token, provider_account_id, created_at, updated_at
		FROM keys
		WHERE user_id = $1 AND provider = $2
	`
	var key Key
	err := r.pool.QueryRow(ctx, query, userID, provider).Scan(
		&key.ID,
		&key.UserID,
		&key.Provider,
		&key.AccessToken,
		&key.RefreshToken,
		&key.ProviderAccountID,
		&key.CreatedAt,
		&key.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying key: %w", err)
	}
	return &key, nil
}

// GetForUser retrieves all credentials for a user ordered by provider.
func (r *KeyRepository) GetForUser(ctx context.Context, userID uuid.UUID) ([]Key, error) {
	query := `
		SELECT id, user_id, provider, access_token, refresh_token, provider_account_id, created_at, updated_at
		FROM keys
		WHERE user_id = $1
		ORDER BY provider
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying keys: %w", err)
	}
	defer rows.Close()

	var keys []Key
	for rows.Next() {
		var key Key
		if err := rows.Scan(
			&key.ID,
			&key.UserID,
			&key.Provider,
			&key.AccessToken,
			&key.RefreshToken,
			&key.ProviderAccountID,
			&key.CreatedAt,
			&key.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading keys: %w", err)
	}
	return keys, nil
}

// Delete removes the credential for one (user, provider) pair.
func (r *KeyRepository) Delete(ctx context.Context, userID uuid.UUID, provider Provider) error {
	query := `DELETE FROM keys WHERE user_id = $1 AND provider = $2`
	result, err := r.pool.Exec(ctx, query, userID, provider)
	if err != nil {
		return fmt.Errorf("deleting key: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
