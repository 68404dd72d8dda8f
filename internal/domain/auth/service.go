package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	apperrors "github.com/yanqian/edusolve/pkg/errors"
)

// Service exposes authentication workflows.
type Service interface {
	SignUp(ctx context.Context, req SignUpRequest) (SessionResult, error)
	SignIn(ctx context.Context, req SignInRequest) (SessionResult, error)
	ChangePassword(ctx context.Context, sessionID string, req ChangePasswordRequest) error
	Logout(ctx context.Context, sessionID string) error
	SessionEmail(ctx context.Context, sessionID string) (string, bool, error)
	ValidateToken(ctx context.Context, token string) (Claims, error)
}

type service struct {
	cfg      Config
	provider IdentityProvider
	sessions SessionStore
	logger   *slog.Logger
}

const (
	defaultSessionTTL  = 24 * time.Hour
	defaultMinPassword = 6
	maxDisplayName     = 64
)

// NewService constructs a Service instance.
func NewService(cfg Config, provider IdentityProvider, sessions SessionStore, logger *slog.Logger) Service {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}
	if cfg.MinPasswordLength <= 0 {
		cfg.MinPasswordLength = defaultMinPassword
	}
	return &service{
		cfg:      cfg,
		provider: provider,
		sessions: sessions,
		logger:   logger.With("component", "auth.service"),
	}
}

func (s *service) SignUp(ctx context.Context, req SignUpRequest) (SessionResult, error) {
	email, err := NormalizeEmail(req.Email)
	if err != nil {
		return SessionResult{}, apperrors.Wrap(apperrors.CodeInvalidInput, "invalid email address", err)
	}
	displayName, err := normalizeDisplayName(req.DisplayName)
	if err != nil {
		return SessionResult{}, apperrors.Wrap(apperrors.CodeInvalidInput, err.Error(), nil)
	}
	if err := s.validatePassword(req.Password); err != nil {
		return SessionResult{}, apperrors.Wrap(apperrors.CodeInvalidInput, err.Error(), nil)
	}
	identity, err := s.provider.SignUp(ctx, email, req.Password, displayName)
	if err != nil {
		return SessionResult{}, providerError(err, "failed to create account")
	}
	s.logger.Info("account created", "uid", identity.UID)
	return s.openSession(ctx, email, "")
}

// SignIn verifies the provider's token before trusting it for a session.
func (s *service) SignIn(ctx context.Context, req SignInRequest) (SessionResult, error) {
	email, err := NormalizeEmail(req.Email)
	if err != nil || req.Password == "" {
		return SessionResult{}, apperrors.Wrap(apperrors.CodeInvalidCredentials, "invalid email or password", nil)
	}
	token, err := s.provider.SignIn(ctx, email, req.Password)
	if err != nil {
		return SessionResult{}, providerError(err, "sign-in failed")
	}
	claims, err := s.provider.VerifyToken(ctx, token)
	if err != nil {
		return SessionResult{}, providerError(err, "token verification failed")
	}
	if !strings.EqualFold(claims.Email, email) {
		return SessionResult{}, apperrors.Wrap(apperrors.CodeInvalidToken, "token does not belong to this account", nil)
	}
	return s.openSession(ctx, email, token)
}

// ChangePassword requires a live session for the account being changed.
func (s *service) ChangePassword(ctx context.Context, sessionID string, req ChangePasswordRequest) error {
	current, ok, err := s.SessionEmail(ctx, sessionID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.Wrap(apperrors.CodeUnauthorized, "sign in to change your password", nil)
	}
	target := current
	if strings.TrimSpace(req.Email) != "" {
		normalized, err := NormalizeEmail(req.Email)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInvalidInput, "invalid email address", err)
		}
		target = normalized
	}
	if target != current {
		return apperrors.Wrap(apperrors.CodeUnauthorized, "you can only change your own password", nil)
	}
	if err := s.validatePassword(req.NewPassword); err != nil {
		return apperrors.Wrap(apperrors.CodeInvalidInput, err.Error(), nil)
	}
	if err := s.provider.UpdatePassword(ctx, target, req.NewPassword); err != nil {
		return providerError(err, "failed to update password")
	}
	s.logger.Info("password changed", "email", target)
	return nil
}

func (s *service) Logout(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return apperrors.Wrap(apperrors.CodeAuth, "failed to clear session", err)
	}
	return nil
}

func (s *service) SessionEmail(ctx context.Context, sessionID string) (string, bool, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", false, nil
	}
	email, ok, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return "", false, apperrors.Wrap(apperrors.CodeAuth, "failed to load session", err)
	}
	return email, ok, nil
}

func (s *service) ValidateToken(ctx context.Context, token string) (Claims, error) {
	if strings.TrimSpace(token) == "" {
		return Claims{}, apperrors.Wrap(apperrors.CodeInvalidToken, "token missing", nil)
	}
	claims, err := s.provider.VerifyToken(ctx, token)
	if err != nil {
		return Claims{}, providerError(err, "token validation failed")
	}
	return claims, nil
}

func (s *service) openSession(ctx context.Context, email, token string) (SessionResult, error) {
	id, err := s.sessions.Create(ctx, email, s.cfg.SessionTTL)
	if err != nil {
		return SessionResult{}, apperrors.Wrap(apperrors.CodeAuth, "failed to open session", err)
	}
	return SessionResult{SessionID: id, Token: token, Email: email}, nil
}

func (s *service) validatePassword(password string) error {
	if len(password) < s.cfg.MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", s.cfg.MinPasswordLength)
	}
	return nil
}

// providerError keeps typed provider errors and wraps anything else as auth_error.
func providerError(err error, message string) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	switch {
	case errors.Is(err, ErrEmailExists):
		return apperrors.Wrap(apperrors.CodeEmailExists, "email already registered", err)
	case errors.Is(err, ErrUserNotFound):
		return apperrors.Wrap(apperrors.CodeNotFound, "user not found", err)
	}
	return apperrors.Wrap(apperrors.CodeAuth, message, err)
}

// NormalizeEmail lower-cases and validates an address.
func NormalizeEmail(raw string) (string, error) {
	email := strings.TrimSpace(strings.ToLower(raw))
	if email == "" {
		return "", errors.New("email cannot be empty")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", err
	}
	return email, nil
}

func normalizeDisplayName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", errors.New("display name cannot be empty")
	}
	if len([]rune(name)) > maxDisplayName {
		return "", fmt.Errorf("display name cannot exceed %d characters", maxDisplayName)
	}
	return name, nil
}
