package oauth

import (
	"context"
	"errors"
	"strings"
	"time"

	identityDomain "github.com/qnz18/qzwhatnext/internal/identity/domain"
	sharedCrypto "github.com/qnz18/qzwhatnext/internal/shared/infrastructure/crypto"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// ErrInvalidGrant marks a refresh failure the caller must treat as
// fatal-for-this-user: the stored token row is deleted rather than retried.
var ErrInvalidGrant = errors.New("oauth refresh token rejected (invalid_grant)")

// Service manages the OAuth2 authorization-code flow and encrypted token
// storage for a single (provider, product) pair, e.g. (google, calendar).
type Service struct {
	oauthConfig *oauth2.Config
	provider    string
	product     string
	scopes      []string
	repo        identityDomain.TokenRepository
	encrypter   sharedCrypto.Encrypter
}

// NewService creates a new OAuth service.
func NewService(
	provider string,
	product string,
	clientID string,
	clientSecret string,
	authURL string,
	tokenURL string,
	redirectURL string,
	scopes []string,
	repo identityDomain.TokenRepository,
	encrypter sharedCrypto.Encrypter,
) (*Service, error) {
	if provider == "" {
		return nil, errors.New("oauth provider is required")
	}
	if product == "" {
		return nil, errors.New("oauth product is required")
	}
	if clientID == "" || clientSecret == "" || authURL == "" || tokenURL == "" || redirectURL == "" {
		return nil, errors.New("oauth configuration is incomplete")
	}
	if repo == nil || encrypter == nil {
		return nil, errors.New("oauth dependencies are required")
	}

	cfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  authURL,
			TokenURL: tokenURL,
		},
		RedirectURL: redirectURL,
		Scopes:      scopes,
	}

	return &Service{
		oauthConfig: cfg,
		provider:    provider,
		product:     product,
		scopes:      scopes,
		repo:        repo,
		encrypter:   encrypter,
	}, nil
}

// AuthURL returns the provider authorization URL.
func (s *Service) AuthURL(state string) string {
	return s.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// ExchangeAndStore exchanges a code for a token and stores it encrypted.
func (s *Service) ExchangeAndStore(ctx context.Context, userID uuid.UUID, code string) (*oauth2.Token, error) {
	token, err := s.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	if err := s.persist(ctx, userID, token); err != nil {
		return nil, err
	}

	return token, nil
}

func (s *Service) persist(ctx context.Context, userID uuid.UUID, token *oauth2.Token) error {
	var accessEnc []byte
	if token.AccessToken != "" {
		var err error
		accessEnc, err = s.encrypter.Encrypt([]byte(token.AccessToken))
		if err != nil {
			return identityDomain.ErrTokenEncryptionFailed
		}
	}

	var refreshEnc []byte
	if token.RefreshToken != "" {
		var err error
		refreshEnc, err = s.encrypter.Encrypt([]byte(token.RefreshToken))
		if err != nil {
			return identityDomain.ErrTokenEncryptionFailed
		}
	}

	var expiry *time.Time
	if !token.Expiry.IsZero() {
		e := token.Expiry
		expiry = &e
	}

	existing, err := s.repo.FindByUserProviderProduct(ctx, userID, s.provider, s.product)
	if err == nil && existing != nil {
		existing.Rotate(refreshEnc, accessEnc, expiry)
		return s.repo.Save(ctx, existing)
	}

	row, err := identityDomain.NewOAuthToken(userID, s.provider, s.product, s.scopes, refreshEnc, accessEnc, expiry)
	if err != nil {
		return err
	}
	return s.repo.Save(ctx, row)
}

// TokenSource returns an auto-refreshing token source for the given user.
// The returned source wraps oauth2.Config.TokenSource, so every Token()
// call transparently refreshes an expired access token using the stored
// refresh token.
func (s *Service) TokenSource(ctx context.Context, userID uuid.UUID) (oauth2.TokenSource, error) {
	token, err := s.loadToken(ctx, userID)
	if err != nil {
		return nil, err
	}
	base := s.oauthConfig.TokenSource(ctx, token)
	return &invalidGrantSource{
		base: base,
		onInvalidGrant: func() {
			_ = s.repo.Delete(ctx, userID, s.provider, s.product)
		},
	}, nil
}

func (s *Service) loadToken(ctx context.Context, userID uuid.UUID) (*oauth2.Token, error) {
	stored, err := s.repo.FindByUserProviderProduct(ctx, userID, s.provider, s.product)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, identityDomain.ErrTokenNotFound
	}

	access := []byte(nil)
	if len(stored.AccessTokenEncrypted()) > 0 {
		access, err = s.encrypter.Decrypt(stored.AccessTokenEncrypted())
		if err != nil {
			return nil, identityDomain.ErrTokenEncryptionFailed
		}
	}

	refreshBytes, err := s.encrypter.Decrypt(stored.RefreshTokenEncrypted())
	if err != nil {
		return nil, identityDomain.ErrTokenEncryptionFailed
	}

	token := &oauth2.Token{
		AccessToken:  string(access),
		RefreshToken: string(refreshBytes),
		TokenType:    "Bearer",
	}
	if stored.Expiry() != nil {
		token.Expiry = *stored.Expiry()
	}
	return token, nil
}

// invalidGrantSource wraps an oauth2.TokenSource, calling onInvalidGrant and
// surfacing ErrInvalidGrant when the upstream refresh is rejected. The
// calendar gateway and reconciler rely on this to translate a dead refresh
// token into a token-row deletion rather than a silent retry loop.
type invalidGrantSource struct {
	base           oauth2.TokenSource
	onInvalidGrant func()
}

func (s *invalidGrantSource) Token() (*oauth2.Token, error) {
	token, err := s.base.Token()
	if err != nil {
		if isInvalidGrant(err) {
			s.onInvalidGrant()
			return nil, ErrInvalidGrant
		}
		return nil, err
	}
	return token, nil
}

func isInvalidGrant(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "invalid_grant")
}

// ScopesFromEnv parses a comma-separated list of scopes.
func ScopesFromEnv(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	scopes := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			scopes = append(scopes, trimmed)
		}
	}
	return scopes
}
