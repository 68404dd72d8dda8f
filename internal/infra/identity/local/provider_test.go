package local_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/edusolve/internal/infra/identity/local"
	"github.com/yanqian/edusolve/internal/infra/userrepo"
	apperrors "github.com/yanqian/edusolve/pkg/errors"
)

func TestProviderRoundTrip(t *testing.T) {
	provider := local.NewProvider(local.Config{Secret: "test-secret", TokenTTL: time.Hour}, userrepo.NewMemoryRepository(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	identity, err := provider.SignUp(ctx, "ada@example.com", "secret1", "Ada")
	require.NoError(t, err)
	require.Equal(t, "1", identity.UID)
	require.Equal(t, "Ada", identity.DisplayName)

	_, err = provider.SignUp(ctx, "ada@example.com", "other11", "Ada")
	require.True(t, apperrors.IsCode(err, apperrors.CodeEmailExists))

	token, err := provider.SignIn(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)

	claims, err := provider.VerifyToken(ctx, token)
	require.NoError(t, err)
	require.Equal(t, "ada@example.com", claims.Email)
	require.Equal(t, "1", claims.Subject)
	require.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, time.Minute)

	_, err = provider.SignIn(ctx, "ada@example.com", "wrong")
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidCredentials))

	require.NoError(t, provider.UpdatePassword(ctx, "ada@example.com", "newpass1"))
	_, err = provider.SignIn(ctx, "ada@example.com", "newpass1")
	require.NoError(t, err)

	err = provider.UpdatePassword(ctx, "ghost@example.com", "newpass1")
	require.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestProviderRejectsForeignTokens(t *testing.T) {
	users := userrepo.NewMemoryRepository()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	issuer := local.NewProvider(local.Config{Secret: "one"}, users, logger)
	verifier := local.NewProvider(local.Config{Secret: "two"}, users, logger)

	_, err := issuer.SignUp(context.Background(), "a@b.com", "secret1", "A")
	require.NoError(t, err)
	token, err := issuer.SignIn(context.Background(), "a@b.com", "secret1")
	require.NoError(t, err)

	_, err = verifier.VerifyToken(context.Background(), token)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidToken))
	_, err = verifier.VerifyToken(context.Background(), "garbage")
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidToken))
}
