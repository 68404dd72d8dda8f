package usage

import (
	"context"
	"log/slog"
	"strings"
	"time"

	apperrors "github.com/yanqian/edusolve/pkg/errors"
	"github.com/yanqian/edusolve/pkg/util"
)

// Record is the per-user usage document.
type Record struct {
	UserID   string    `json:"user_id"`
	Usage    int64     `json:"usage"`
	Tokens   int64     `json:"tokens"`
	LastUsed time.Time `json:"last_used"`
}

// Repository persists usage counters. Increment must upsert atomically.
type Repository interface {
	Increment(ctx context.Context, userID string, tokens int, at time.Time) error
	Get(ctx context.Context, userID string) (Record, bool, error)
}

// Tracker is the narrow view other domains depend on.
type Tracker interface {
	Track(ctx context.Context, userID string, tokens int) error
}

// Service counts requests per user. It never rejects requests.
type Service struct {
	repo   Repository
	now    util.Clock
	logger *slog.Logger
}

// NewService constructs a usage Service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, now: util.NowUTC, logger: logger.With("component", "usage.service")}
}

// Track bumps the request counter and stamps last-used time.
func (s *Service) Track(ctx context.Context, userID string, tokens int) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return apperrors.Wrap(apperrors.CodeInvalidInput, "user_id is required", nil)
	}
	if tokens < 0 {
		tokens = 0
	}
	if err := s.repo.Increment(ctx, userID, tokens, s.now()); err != nil {
		return apperrors.Wrap(apperrors.CodeStorage, "failed to update usage", err)
	}
	return nil
}

// Lookup returns the usage record for a user.
func (s *Service) Lookup(ctx context.Context, userID string) (Record, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Record{}, apperrors.Wrap(apperrors.CodeInvalidInput, "user_id is required", nil)
	}
	rec, found, err := s.repo.Get(ctx, userID)
	if err != nil {
		return Record{}, apperrors.Wrap(apperrors.CodeStorage, "failed to load usage", err)
	}
	if !found {
		return Record{}, apperrors.Wrap(apperrors.CodeNotFound, "no usage recorded for user", nil)
	}
	return rec, nil
}

var _ Tracker = (*Service)(nil)
