// Package persistence implements SQLite-backed repositories for the
// identity context: users, OAuth tokens, and settings, all hand-written
// against database.Executor.
package persistence

import (
	"context"
	"strings"
	"time"

	identityDomain "github.com/qnz18/qzwhatnext/internal/identity/domain"
	"github.com/qnz18/qzwhatnext/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

// SQLiteTokenRepository persists OAuthToken rows keyed on
// (user_id, provider, product); secrets are already AEAD-encrypted by the
// caller (internal/identity/application/oauth.Service) before they ever
// reach this repository.
type SQLiteTokenRepository struct {
	exec database.Executor
}

// NewSQLiteTokenRepository builds a token repository bound to exec.
func NewSQLiteTokenRepository(exec database.Executor) *SQLiteTokenRepository {
	return &SQLiteTokenRepository{exec: exec}
}

func (r *SQLiteTokenRepository) Save(ctx context.Context, token *identityDomain.OAuthToken) error {
	_, err := r.exec.Exec(ctx, `
		INSERT INTO oauth_tokens (
			user_id, provider, product, scopes, refresh_token_encrypted,
			access_token_encrypted, expiry, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, provider, product) DO UPDATE SET
			scopes = excluded.scopes,
			refresh_token_encrypted = excluded.refresh_token_encrypted,
			access_token_encrypted = excluded.access_token_encrypted,
			expiry = excluded.expiry,
			updated_at = excluded.updated_at
	`,
		token.UserID().String(), token.Provider(), token.Product(), strings.Join(token.Scopes(), ","),
		token.RefreshTokenEncrypted(), token.AccessTokenEncrypted(), token.Expiry(),
		token.CreatedAt(), token.UpdatedAt(),
	)
	return err
}

func (r *SQLiteTokenRepository) FindByUserProviderProduct(ctx context.Context, userID uuid.UUID, provider, product string) (*identityDomain.OAuthToken, error) {
	row := r.exec.QueryRow(ctx, `
		SELECT user_id, provider, product, scopes, refresh_token_encrypted,
		       access_token_encrypted, expiry, created_at, updated_at
		FROM oauth_tokens
		WHERE user_id = ? AND provider = ? AND product = ?
	`, userID.String(), provider, product)

	var (
		userIDStr, providerOut, productOut, scopesRaw string
		refreshEnc, accessEnc                         []byte
		expiry                                        *time.Time
		createdAt, updatedAt                          time.Time
	)
	if err := row.Scan(&userIDStr, &providerOut, &productOut, &scopesRaw, &refreshEnc, &accessEnc, &expiry, &createdAt, &updatedAt); err != nil {
		if database.IsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}

	parsedUserID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, err
	}

	var scopes []string
	if scopesRaw != "" {
		scopes = strings.Split(scopesRaw, ",")
	}

	return identityDomain.RehydrateOAuthToken(parsedUserID, providerOut, productOut, scopes, refreshEnc, accessEnc, expiry, createdAt, updatedAt), nil
}

func (r *SQLiteTokenRepository) Delete(ctx context.Context, userID uuid.UUID, provider, product string) error {
	_, err := r.exec.Exec(ctx, `DELETE FROM oauth_tokens WHERE user_id = ? AND provider = ? AND product = ?`, userID.String(), provider, product)
	return err
}
