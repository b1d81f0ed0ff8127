package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/shared"
)

// CredentialRepository persists [models.Credential] rows in the users table.
type CredentialRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewCredentialRepository creates a new [CredentialRepository] with the given database connection
func NewCredentialRepository(db *sql.DB) *CredentialRepository {
	return &CredentialRepository{db: db, now: time.Now}
}

// Get retrieves the credential for userID.
//
// Returns (nil, nil) when no row exists, which callers treat as "unauthenticated".
func (r *CredentialRepository) Get(ctx context.Context, userID string) (*models.Credential, error) {
	var cred *models.Credential

	err := withConn(ctx, r.db, func(conn *sql.Conn) error {
		var (
			id           string
			accessToken  string
			refreshToken string
			expiresAt    int64
		)

		err := conn.QueryRowContext(ctx, `
			SELECT id, access_token, refresh_token, expires_at
			FROM users
			WHERE id = ?
		`, userID).Scan(&id, &accessToken, &refreshToken, &expiresAt)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: failed to query credential: %v", shared.ErrStoreUnavailable, err)
		}

		cred = &models.Credential{
			UserID:       id,
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			ExpiresAt:    time.Unix(expiresAt, 0),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return cred, nil
}

// Upsert inserts the credential or overwrites the tokens and expiry of the existing row.
//
// A single statement keeps concurrent upserts for the same id from producing duplicate rows.
func (r *CredentialRepository) Upsert(ctx context.Context, cred *models.Credential) error {
	if err := cred.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	now := r.now().UTC()

	return withConn(ctx, r.db, func(conn *sql.Conn) error {
		_, err := conn.ExecContext(ctx, `
			INSERT INTO users (id, access_token, refresh_token, expires_at, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				access_token = excluded.access_token,
				refresh_token = excluded.refresh_token,
				expires_at = excluded.expires_at,
				updated_at = excluded.updated_at
		`, cred.UserID, cred.AccessToken, cred.RefreshToken, cred.ExpiresAt.Unix(), now, now)
		if err != nil {
			return fmt.Errorf("%w: failed to upsert credential: %v", shared.ErrStoreUnavailable, err)
		}
		return nil
	})
}

// List retrieves every stored credential ordered by user id.
func (r *CredentialRepository) List(ctx context.Context) ([]*models.Credential, error) {
	var creds []*models.Credential

	err := withConn(ctx, r.db, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, `
			SELECT id, access_token, refresh_token, expires_at
			FROM users
			ORDER BY id ASC
		`)
		if err != nil {
			return fmt.Errorf("%w: failed to query credentials: %v", shared.ErrStoreUnavailable, err)
		}
		defer rows.Close()

		for rows.Next() {
			var (
				c         models.Credential
				expiresAt int64
			)
			if err := rows.Scan(&c.UserID, &c.AccessToken, &c.RefreshToken, &expiresAt); err != nil {
				return fmt.Errorf("failed to scan credential: %w", err)
			}
			c.ExpiresAt = time.Unix(expiresAt, 0)
			creds = append(creds, &c)
		}

		if err := rows.Err(); err != nil {
			return fmt.Errorf("row iteration error: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return creds, nil
}

// Count returns the number of stored credentials.
func (r *CredentialRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := withConn(ctx, r.db, func(conn *sql.Conn) error {
		if err := conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n); err != nil {
			return fmt.Errorf("%w: failed to count credentials: %v", shared.ErrStoreUnavailable, err)
		}
		return nil
	})
	return n, err
}
