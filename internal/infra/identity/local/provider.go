package local

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/yanqian/edusolve/internal/domain/auth"
	apperrors "github.com/yanqian/edusolve/pkg/errors"
)

// User is an account stored by the local provider.
type User struct {
	ID           int64
	Email        string
	DisplayName  string
	PasswordHash string
	CreatedAt    time.Time
}

// UserRepository abstracts user persistence.
type UserRepository interface {
	Create(ctx context.Context, email, displayName, passwordHash string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, bool, error)
	// UpdatePassword returns auth.ErrUserNotFound when no row matches.
	UpdatePassword(ctx context.Context, email, passwordHash string) error
}

// Config holds token signing settings.
type Config struct {
	Secret   string
	TokenTTL time.Duration
}

// Provider implements auth.IdentityProvider with bcrypt passwords and HS256 tokens.
type Provider struct {
	cfg    Config
	users  UserRepository
	now    func() time.Time
	logger *slog.Logger
}

// NewProvider constructs a local identity provider.
func NewProvider(cfg Config, users UserRepository, logger *slog.Logger) *Provider {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = time.Hour
	}
	return &Provider{cfg: cfg, users: users, now: time.Now, logger: logger.With("component", "identity.local")}
}

func (p *Provider) SignUp(ctx context.Context, email, password, displayName string) (auth.Identity, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return auth.Identity{}, apperrors.Wrap(apperrors.CodeAuth, "failed to hash password", err)
	}
	user, err := p.users.Create(ctx, email, displayName, string(hashed))
	if err != nil {
		if errors.Is(err, auth.ErrEmailExists) {
			return auth.Identity{}, apperrors.Wrap(apperrors.CodeEmailExists, "email already registered", err)
		}
		return auth.Identity{}, apperrors.Wrap(apperrors.CodeAuth, "failed to create user", err)
	}
	return toIdentity(user), nil
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (string, error) {
	user, found, err := p.users.GetByEmail(ctx, email)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeAuth, "failed to load user", err)
	}
	if !found {
		return "", apperrors.Wrap(apperrors.CodeInvalidCredentials, "invalid email or password", nil)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", apperrors.Wrap(apperrors.CodeInvalidCredentials, "invalid email or password", nil)
	}
	return p.generateToken(user)
}

func (p *Provider) UpdatePassword(ctx context.Context, email, newPassword string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeAuth, "failed to hash password", err)
	}
	if err := p.users.UpdatePassword(ctx, email, string(hashed)); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return apperrors.Wrap(apperrors.CodeNotFound, "user not found", err)
		}
		return apperrors.Wrap(apperrors.CodeAuth, "failed to update password", err)
	}
	return nil
}

func (p *Provider) VerifyToken(_ context.Context, token string) (auth.Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}
		return []byte(p.cfg.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(p.now))
	if err != nil {
		return auth.Claims{}, apperrors.Wrap(apperrors.CodeInvalidToken, "token validation failed", err)
	}
	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return auth.Claims{}, apperrors.Wrap(apperrors.CodeInvalidToken, "token invalid", nil)
	}
	if claims.ExpiresAt == nil {
		return auth.Claims{}, apperrors.Wrap(apperrors.CodeInvalidToken, "token missing expiry", nil)
	}
	if strings.TrimSpace(claims.Email) == "" {
		return auth.Claims{}, apperrors.Wrap(apperrors.CodeInvalidToken, "token missing email", nil)
	}
	return auth.Claims{
		Subject:   claims.Subject,
		Email:     claims.Email,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (p *Provider) generateToken(user User) (string, error) {
	now := p.now()
	claims := tokenClaims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			ID:        newTokenID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.cfg.TokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(p.cfg.Secret))
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeAuth, "failed to sign token", err)
	}
	return signed, nil
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

func toIdentity(user User) auth.Identity {
	return auth.Identity{
		UID:         strconv.FormatInt(user.ID, 10),
		Email:       user.Email,
		DisplayName: user.DisplayName,
		CreatedAt:   user.CreatedAt,
	}
}

func newTokenID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 10)
	}
	return hex.EncodeToString(buf)
}

var _ auth.IdentityProvider = (*Provider)(nil)
