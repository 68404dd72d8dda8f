package assistant

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/yanqian/edusolve/internal/domain/inference"
	"github.com/yanqian/edusolve/internal/domain/prompt"
	"github.com/yanqian/edusolve/internal/domain/usage"
	apperrors "github.com/yanqian/edusolve/pkg/errors"
	"github.com/yanqian/edusolve/pkg/metrics"
	"github.com/yanqian/edusolve/pkg/util"
)

// Service answers chat prompts and keeps session transcripts.
type Service struct {
	cfg      Config
	prompts  prompt.Builder
	llm      Generator
	sessions SessionRepository
	usage    usage.Tracker
	tokens   metrics.TokenCounter
	now      util.Clock
	newID    func() string
	logger   *slog.Logger
}

// NewService constructs the chat Service.
func NewService(cfg Config, prompts prompt.Builder, llm Generator, sessions SessionRepository, tracker usage.Tracker, tokens metrics.TokenCounter, logger *slog.Logger) *Service {
	if tokens == nil {
		tokens = metrics.EstimateCounter{}
	}
	return &Service{
		cfg:      cfg,
		prompts:  prompts,
		llm:      llm,
		sessions: sessions,
		usage:    tracker,
		tokens:   tokens,
		now:      util.NowUTC,
		newID:    func() string { return uuid.NewString() },
		logger:   logger.With("component", "assistant.service"),
	}
}

// Generate answers a chat prompt, appends study suggestions and records the turn.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error) {
	text := strings.TrimSpace(req.Prompt)
	userID := strings.TrimSpace(req.UserID)
	if text == "" || userID == "" {
		return GenerateResponse{}, apperrors.Wrap(apperrors.CodeInvalidInput, "prompt and user_id are required", nil)
	}

	if reply, ok := prompt.Canned(text); ok {
		return s.cannedResponse(ctx, req, userID, reply)
	}

	var (
		tokenUsage metrics.TokenUsage
		warnings   []Warning
	)
	chatPrompt := s.prompts.Chat(text)
	if req.FocusedResponse {
		chatPrompt = s.prompts.FocusedChat(text)
	}
	answer, err := s.llm.Generate(ctx, chatPrompt, prompt.ChatMaxTokens)
	tokenUsage = tokenUsage.Add(s.tokens.Count(chatPrompt), s.tokens.Count(answer))
	if err != nil {
		s.track(ctx, userID, tokenUsage)
		if !s.cfg.InlineErrors {
			return GenerateResponse{}, err
		}
		answer = "Error: " + err.Error()
	} else if !req.FocusedResponse {
		enrichPrompt := s.prompts.TopicEnrichment(text)
		suggestions, sugErr := s.llm.Generate(ctx, enrichPrompt, prompt.EnrichmentMaxTokens)
		tokenUsage = tokenUsage.Add(s.tokens.Count(enrichPrompt), s.tokens.Count(suggestions))
		switch {
		case sugErr == nil:
			answer += prompt.SuggestionsHeading + suggestions
		case s.cfg.InlineErrors:
			answer += prompt.SuggestionsHeading + inference.InlineError("suggestion generation", sugErr)
		default:
			s.logger.Warn("suggestion generation failed", "user_id", userID, "error", sugErr)
			warnings = append(warnings, Warning{Code: apperrors.CodeLLM, Message: "study suggestions unavailable: " + sugErr.Error()})
		}
	}

	if err == nil {
		s.track(ctx, userID, tokenUsage)
	}

	sessionID, persistErr := s.recordTurn(ctx, userID, req.Owner, req.SessionID, text, answer)
	if persistErr != nil {
		return GenerateResponse{}, persistErr
	}

	resp := GenerateResponse{Response: answer, SessionID: sessionID, Warnings: warnings}
	if !tokenUsage.IsZero() {
		resp.TokenUsage = &tokenUsage
	}
	return resp, nil
}

func (s *Service) cannedResponse(ctx context.Context, req GenerateRequest, userID, reply string) (GenerateResponse, error) {
	if !s.cfg.LogCannedReplies {
		return GenerateResponse{Response: reply}, nil
	}
	sessionID, err := s.recordTurn(ctx, userID, req.Owner, req.SessionID, strings.TrimSpace(req.Prompt), reply)
	if err != nil {
		return GenerateResponse{}, err
	}
	return GenerateResponse{Response: reply, SessionID: sessionID}, nil
}

// recordTurn appends to the requested session when it exists, otherwise starts a new one.
// A session owned by someone else counts as not found.
func (s *Service) recordTurn(ctx context.Context, userID, owner, requested, user, ai string) (string, error) {
	now := s.now()
	turn := Turn{User: user, AI: ai, Timestamp: now}
	if id := strings.TrimSpace(requested); id != "" {
		found, err := s.sessions.Append(ctx, id, strings.TrimSpace(owner), turn)
		if err != nil {
			return "", apperrors.Wrap(apperrors.CodeStorage, "failed to append to session", err)
		}
		if found {
			return id, nil
		}
		s.logger.Info("requested session not found, starting a new one", "session_id", id)
	}
	session := Session{
		ID:          s.newID(),
		UserID:      userID,
		History:     []Turn{turn},
		CreatedAt:   now,
		LastUpdated: now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return "", apperrors.Wrap(apperrors.CodeStorage, "failed to create session", err)
	}
	return session.ID, nil
}

func (s *Service) track(ctx context.Context, userID string, tokenUsage metrics.TokenUsage) {
	if s.usage == nil {
		return
	}
	if err := s.usage.Track(ctx, userID, tokenUsage.TotalTokens); err != nil {
		s.logger.Warn("usage tracking failed", "user_id", userID, "error", err)
	}
}

// AnalyzeSelection answers a question about a highlighted passage.
func (s *Service) AnalyzeSelection(ctx context.Context, req SelectionRequest) (SelectionResponse, error) {
	selected := strings.TrimSpace(req.SelectedText)
	query := strings.TrimSpace(req.Query)
	if selected == "" || query == "" {
		return SelectionResponse{}, apperrors.Wrap(apperrors.CodeInvalidInput, "selected_text and query are required", nil)
	}
	answer, err := s.llm.Generate(ctx, s.prompts.Selection(query, selected), prompt.SelectionMaxTokens)
	if err != nil {
		if !s.cfg.InlineErrors {
			return SelectionResponse{}, err
		}
		answer = "Error: " + err.Error()
	}
	return SelectionResponse{Response: answer}, nil
}

// History returns the ordered turns of a session. A non-empty owner hides other users' sessions.
func (s *Service) History(ctx context.Context, sessionID, owner string) ([]Turn, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "session id is required", nil)
	}
	turns, found, err := s.sessions.History(ctx, sessionID, strings.TrimSpace(owner))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorage, "failed to load history", err)
	}
	if !found {
		return nil, apperrors.Wrap(apperrors.CodeNotFound, "session not found", nil)
	}
	if turns == nil {
		turns = []Turn{}
	}
	return turns, nil
}

// Sessions lists sessions, restricted to owner when one is given.
func (s *Service) Sessions(ctx context.Context, owner string) ([]SessionSummary, error) {
	sessions, err := s.sessions.List(ctx, strings.TrimSpace(owner))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorage, "failed to list sessions", err)
	}
	if sessions == nil {
		sessions = []SessionSummary{}
	}
	return sessions, nil
}
