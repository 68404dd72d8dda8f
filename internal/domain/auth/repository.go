package auth

import (
	"context"
	"time"
)

// IdentityProvider abstracts the account backend.
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password, displayName string) (Identity, error)
	// SignIn exchanges credentials for an ID token.
	SignIn(ctx context.Context, email, password string) (string, error)
	VerifyToken(ctx context.Context, token string) (Claims, error)
	UpdatePassword(ctx context.Context, email, newPassword string) error
}

// SessionStore maps opaque session ids to the signed-in email.
type SessionStore interface {
	Create(ctx context.Context, email string, ttl time.Duration) (string, error)
	Get(ctx context.Context, id string) (string, bool, error)
	Delete(ctx context.Context, id string) error
}
