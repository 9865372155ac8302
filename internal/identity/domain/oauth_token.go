package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyProvider         = errors.New("oauth provider cannot be empty")
	ErrEmptyProduct          = errors.New("oauth product cannot be empty")
	ErrMissingRefreshToken   = errors.New("oauth refresh token cannot be empty")
	ErrTokenNotFound         = errors.New("oauth token not found")
	ErrTokenEncryptionFailed = errors.New("oauth token encryption failure")
)

// OAuthToken is keyed by (user_id, provider, product) rather than a
// standalone identity, since a single user may connect the same provider
// for more than one product (e.g. google for calendar and google for
// contacts). Secrets are stored pre-encrypted by the caller; this type
// never holds plaintext.
type OAuthToken struct {
	userID                uuid.UUID
	provider              string
	product               string
	scopes                []string
	refreshTokenEncrypted []byte
	accessTokenEncrypted  []byte
	expiry                *time.Time
	createdAt             time.Time
	updatedAt             time.Time
}

// NewOAuthToken constructs a token row for first-time storage.
func NewOAuthToken(userID uuid.UUID, provider, product string, scopes []string, refreshTokenEncrypted, accessTokenEncrypted []byte, expiry *time.Time) (*OAuthToken, error) {
	if provider == "" {
		return nil, ErrEmptyProvider
	}
	if product == "" {
		return nil, ErrEmptyProduct
	}
	if len(refreshTokenEncrypted) == 0 {
		return nil, ErrMissingRefreshToken
	}
	now := time.Now().UTC()
	return &OAuthToken{
		userID:                userID,
		provider:              provider,
		product:               product,
		scopes:                scopes,
		refreshTokenEncrypted: refreshTokenEncrypted,
		accessTokenEncrypted:  accessTokenEncrypted,
		expiry:                expiry,
		createdAt:             now,
		updatedAt:             now,
	}, nil
}

// RehydrateOAuthToken reconstructs a token row read back from storage.
func RehydrateOAuthToken(userID uuid.UUID, provider, product string, scopes []string, refreshTokenEncrypted, accessTokenEncrypted []byte, expiry *time.Time, createdAt, updatedAt time.Time) *OAuthToken {
	return &OAuthToken{
		userID:                userID,
		provider:              provider,
		product:               product,
		scopes:                scopes,
		refreshTokenEncrypted: refreshTokenEncrypted,
		accessTokenEncrypted:  accessTokenEncrypted,
		expiry:                expiry,
		createdAt:             createdAt,
		updatedAt:             updatedAt,
	}
}

func (t *OAuthToken) UserID() uuid.UUID                { return t.userID }
func (t *OAuthToken) Provider() string                 { return t.provider }
func (t *OAuthToken) Product() string                  { return t.product }
func (t *OAuthToken) Scopes() []string                 { return t.scopes }
func (t *OAuthToken) RefreshTokenEncrypted() []byte    { return t.refreshTokenEncrypted }
func (t *OAuthToken) AccessTokenEncrypted() []byte     { return t.accessTokenEncrypted }
func (t *OAuthToken) Expiry() *time.Time               { return t.expiry }
func (t *OAuthToken) CreatedAt() time.Time             { return t.createdAt }
func (t *OAuthToken) UpdatedAt() time.Time             { return t.updatedAt }

// Rotate replaces the stored secrets after a refresh, bumping UpdatedAt.
func (t *OAuthToken) Rotate(refreshTokenEncrypted, accessTokenEncrypted []byte, expiry *time.Time) {
	if len(refreshTokenEncrypted) > 0 {
		t.refreshTokenEncrypted = refreshTokenEncrypted
	}
	t.accessTokenEncrypted = accessTokenEncrypted
	t.expiry = expiry
	t.updatedAt = time.Now().UTC()
}
