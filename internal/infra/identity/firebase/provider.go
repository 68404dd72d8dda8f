package firebase

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/yanqian/edusolve/internal/domain/auth"
	apperrors "github.com/yanqian/edusolve/pkg/errors"
)

const (
	defaultBaseURL = "https://identitytoolkit.googleapis.com/v1"
	issuerPrefix   = "https://securetoken.google.com/"
	jwksURL        = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"
	adminScope     = "https://www.googleapis.com/auth/identitytoolkit"
)

// Config holds Identity Toolkit settings.
type Config struct {
	APIKey          string
	ProjectID       string
	CredentialsFile string
	BaseURL         string
	Timeout         time.Duration
}

// Provider implements auth.IdentityProvider against the Identity Toolkit REST API.
type Provider struct {
	cfg      Config
	client   *resty.Client
	admin    oauth2.TokenSource
	verifier tokenVerifier
	logger   *slog.Logger
}

type tokenVerifier interface {
	verify(ctx context.Context, raw string) (auth.Claims, error)
}

// NewProvider builds a provider. The service-account credentials file is only
// needed for password updates.
func NewProvider(ctx context.Context, cfg Config, logger *slog.Logger) (*Provider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" || strings.TrimSpace(cfg.ProjectID) == "" {
		return nil, apperrors.Wrap(apperrors.CodeAuthNotConfigured, "firebase api key and project id are required", nil)
	}
	var admin oauth2.TokenSource
	if path := strings.TrimSpace(cfg.CredentialsFile); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read firebase credentials: %w", err)
		}
		creds, err := google.CredentialsFromJSON(ctx, data, adminScope)
		if err != nil {
			return nil, fmt.Errorf("parse firebase credentials: %w", err)
		}
		admin = creds.TokenSource
	}
	keySet := oidc.NewRemoteKeySet(context.WithoutCancel(ctx), jwksURL)
	verifier := &oidcVerifier{verifier: oidc.NewVerifier(issuerPrefix+cfg.ProjectID, keySet, &oidc.Config{ClientID: cfg.ProjectID})}
	return newProvider(cfg, admin, verifier, logger), nil
}

func newProvider(cfg Config, admin oauth2.TokenSource, verifier tokenVerifier, logger *slog.Logger) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	client := resty.New()
	client.SetBaseURL(strings.TrimRight(cfg.BaseURL, "/"))
	client.SetTimeout(cfg.Timeout)
	client.SetHeader("Content-Type", "application/json")
	return &Provider{
		cfg:      cfg,
		client:   client,
		admin:    admin,
		verifier: verifier,
		logger:   logger.With("component", "identity.firebase"),
	}
}

type credentialRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	DisplayName       string `json:"displayName,omitempty"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type credentialResponse struct {
	IDToken     string `json:"idToken"`
	Email       string `json:"email"`
	LocalID     string `json:"localId"`
	DisplayName string `json:"displayName"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (p *Provider) SignUp(ctx context.Context, email, password, displayName string) (auth.Identity, error) {
	var out credentialResponse
	var failure apiError
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParam("key", p.cfg.APIKey).
		SetBody(credentialRequest{Email: email, Password: password, DisplayName: displayName, ReturnSecureToken: true}).
		SetResult(&out).
		SetError(&failure).
		Post("/accounts:signUp")
	if err != nil {
		return auth.Identity{}, apperrors.Wrap(apperrors.CodeAuth, "identity service unreachable", err)
	}
	if resp.IsError() {
		return auth.Identity{}, mapAPIError(resp.StatusCode(), failure)
	}
	return auth.Identity{UID: out.LocalID, Email: out.Email, DisplayName: displayName, CreatedAt: time.Now().UTC()}, nil
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (string, error) {
	var out credentialResponse
	var failure apiError
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParam("key", p.cfg.APIKey).
		SetBody(credentialRequest{Email: email, Password: password, ReturnSecureToken: true}).
		SetResult(&out).
		SetError(&failure).
		Post("/accounts:signInWithPassword")
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeAuth, "identity service unreachable", err)
	}
	if resp.IsError() {
		return "", mapAPIError(resp.StatusCode(), failure)
	}
	if out.IDToken == "" {
		return "", apperrors.Wrap(apperrors.CodeInvalidToken, "identity service returned no token", nil)
	}
	return out.IDToken, nil
}

func (p *Provider) VerifyToken(ctx context.Context, token string) (auth.Claims, error) {
	return p.verifier.verify(ctx, token)
}

type lookupResponse struct {
	Users []struct {
		LocalID string `json:"localId"`
		Email   string `json:"email"`
	} `json:"users"`
}

// UpdatePassword finds the account by email and overwrites its password with admin credentials.
func (p *Provider) UpdatePassword(ctx context.Context, email, newPassword string) error {
	if p.admin == nil {
		return apperrors.Wrap(apperrors.CodeAuthNotConfigured, "firebase service account credentials are not configured", nil)
	}
	token, err := p.admin.Token()
	if err != nil {
		return apperrors.Wrap(apperrors.CodeAuth, "failed to obtain admin token", err)
	}

	var found lookupResponse
	var failure apiError
	resp, err := p.client.R().
		SetContext(ctx).
		SetAuthToken(token.AccessToken).
		SetBody(map[string]any{"email": []string{email}}).
		SetResult(&found).
		SetError(&failure).
		Post(p.projectPath("accounts:lookup"))
	if err != nil {
		return apperrors.Wrap(apperrors.CodeAuth, "identity service unreachable", err)
	}
	if resp.IsError() {
		return mapAPIError(resp.StatusCode(), failure)
	}
	if len(found.Users) == 0 {
		return apperrors.Wrap(apperrors.CodeNotFound, "user not found", auth.ErrUserNotFound)
	}

	resp, err = p.client.R().
		SetContext(ctx).
		SetAuthToken(token.AccessToken).
		SetBody(map[string]any{"localId": found.Users[0].LocalID, "password": newPassword}).
		SetError(&failure).
		Post(p.projectPath("accounts:update"))
	if err != nil {
		return apperrors.Wrap(apperrors.CodeAuth, "identity service unreachable", err)
	}
	if resp.IsError() {
		return mapAPIError(resp.StatusCode(), failure)
	}
	p.logger.Info("password updated", "uid", found.Users[0].LocalID)
	return nil
}

func (p *Provider) projectPath(method string) string {
	return "/projects/" + p.cfg.ProjectID + "/" + method
}

// mapAPIError translates Identity Toolkit error messages such as "EMAIL_EXISTS" or
// "WEAK_PASSWORD : Password should be at least 6 characters".
func mapAPIError(status int, failure apiError) error {
	message := failure.Error.Message
	code, _, _ := strings.Cut(message, " ")
	switch code {
	case "EMAIL_EXISTS":
		return apperrors.Wrap(apperrors.CodeEmailExists, "email already registered", auth.ErrEmailExists)
	case "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS", "USER_DISABLED":
		return apperrors.Wrap(apperrors.CodeInvalidCredentials, "invalid email or password", nil)
	case "WEAK_PASSWORD", "INVALID_EMAIL", "MISSING_PASSWORD", "MISSING_EMAIL":
		return apperrors.Wrap(apperrors.CodeInvalidInput, strings.ToLower(strings.ReplaceAll(code, "_", " ")), nil)
	case "USER_NOT_FOUND":
		return apperrors.Wrap(apperrors.CodeNotFound, "user not found", auth.ErrUserNotFound)
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return apperrors.Wrap(apperrors.CodeAuthNotConfigured, "identity service rejected the credentials", fmt.Errorf("status %d: %s", status, message))
	}
	return apperrors.Wrap(apperrors.CodeAuth, "identity service error", fmt.Errorf("status %d: %s", status, message))
}

type oidcVerifier struct {
	verifier *oidc.IDTokenVerifier
}

type firebaseClaims struct {
	Email string `json:"email"`
}

func (v *oidcVerifier) verify(ctx context.Context, raw string) (auth.Claims, error) {
	idToken, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return auth.Claims{}, apperrors.Wrap(apperrors.CodeInvalidToken, "failed to verify id token", err)
	}
	var claims firebaseClaims
	if err := idToken.Claims(&claims); err != nil {
		return auth.Claims{}, apperrors.Wrap(apperrors.CodeInvalidToken, "failed to parse id token claims", err)
	}
	if claims.Email == "" {
		return auth.Claims{}, apperrors.Wrap(apperrors.CodeInvalidToken, "missing email in id token", nil)
	}
	return auth.Claims{Subject: idToken.Subject, Email: claims.Email, ExpiresAt: idToken.Expiry}, nil
}

var _ auth.IdentityProvider = (*Provider)(nil)
