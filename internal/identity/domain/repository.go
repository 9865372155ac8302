package domain

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository defines the interface for user persistence.
type UserRepository interface {
	Save(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email Email) (*User, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ExistsByEmail(ctx context.Context, email Email) (bool, error)
}

// TokenRepository defines persistence for the (user_id, provider, product)
// keyed OAuth token table. Delete is called when a refresh fails
// irrecoverably (invalid_grant), per the token lifecycle in the spec.
type TokenRepository interface {
	Save(ctx context.Context, token *OAuthToken) error
	FindByUserProviderProduct(ctx context.Context, userID uuid.UUID, provider, product string) (*OAuthToken, error)
	Delete(ctx context.Context, userID uuid.UUID, provider, product string) error
}
