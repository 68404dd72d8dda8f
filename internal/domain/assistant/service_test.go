package assistant

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/edusolve/internal/domain/prompt"
	"github.com/yanqian/edusolve/internal/domain/usage"
	apperrors "github.com/yanqian/edusolve/pkg/errors"
	"github.com/yanqian/edusolve/pkg/metrics"
	"github.com/yanqian/edusolve/pkg/util"
)

var fixedNow = time.Date(2024, 3, 9, 10, 30, 0, 0, time.UTC)

func TestGenerateAppendsSuggestionsAndCreatesSession(t *testing.T) {
	llm := &scriptedLLM{replies: []reply{{text: "Photosynthesis converts light."}, {text: "1. Explore chlorophyll"}}}
	sessions := newFakeSessions()
	tracker := &fakeTracker{}
	svc := newTestService(Config{}, llm, sessions, tracker)

	resp, err := svc.Generate(context.Background(), GenerateRequest{Prompt: "explain photosynthesis", UserID: "u1"})
	require.NoError(t, err)
	require.Equal(t, "Photosynthesis converts light."+prompt.SuggestionsHeading+"1. Explore chlorophyll", resp.Response)
	require.Equal(t, "session-1", resp.SessionID)
	require.Empty(t, resp.Warnings)
	require.NotNil(t, resp.TokenUsage)
	require.Equal(t, []int{prompt.ChatMaxTokens, prompt.EnrichmentMaxTokens}, llm.maxTokens)

	turns, err := svc.History(context.Background(), "session-1", "")
	require.NoError(t, err)
	require.Equal(t, []Turn{{User: "explain photosynthesis", AI: resp.Response, Timestamp: fixedNow}}, turns)
	require.Equal(t, []string{"u1"}, tracker.users)
	require.Equal(t, resp.TokenUsage.TotalTokens, tracker.tokens[0])
}

func TestGenerateAppendsToExistingSession(t *testing.T) {
	llm := &scriptedLLM{replies: []reply{{text: "a1"}, {text: "s1"}, {text: "a2"}, {text: "s2"}}}
	sessions := newFakeSessions()
	svc := newTestService(Config{}, llm, sessions, &fakeTracker{})

	first, err := svc.Generate(context.Background(), GenerateRequest{Prompt: "q1", UserID: "u1"})
	require.NoError(t, err)
	second, err := svc.Generate(context.Background(), GenerateRequest{Prompt: "q2", UserID: "u1", SessionID: first.SessionID})
	require.NoError(t, err)
	require.Equal(t, first.SessionID, second.SessionID)

	turns, err := svc.History(context.Background(), first.SessionID, "")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	require.Equal(t, "q1", turns[0].User)
	require.Equal(t, "q2", turns[1].User)
}

func TestGenerateUnknownSessionStartsNewOne(t *testing.T) {
	llm := &scriptedLLM{replies: []reply{{text: "a"}, {text: "s"}}}
	svc := newTestService(Config{}, llm, newFakeSessions(), &fakeTracker{})

	resp, err := svc.Generate(context.Background(), GenerateRequest{Prompt: "q", UserID: "u1", SessionID: "missing"})
	require.NoError(t, err)
	require.Equal(t, "session-1", resp.SessionID)
}

func TestGenerateDoesNotExtendForeignSession(t *testing.T) {
	llm := &scriptedLLM{replies: []reply{{text: "a1"}, {text: "s1"}, {text: "a2"}, {text: "s2"}}}
	sessions := newFakeSessions()
	svc := newTestService(Config{}, llm, sessions, &fakeTracker{})

	alice, err := svc.Generate(context.Background(), GenerateRequest{Prompt: "secret topic", UserID: "alice", Owner: "alice"})
	require.NoError(t, err)

	mallory, err := svc.Generate(context.Background(), GenerateRequest{Prompt: "injected", UserID: "mallory", Owner: "mallory", SessionID: alice.SessionID})
	require.NoError(t, err)
	require.NotEqual(t, alice.SessionID, mallory.SessionID)

	turns, err := svc.History(context.Background(), alice.SessionID, "alice")
	require.NoError(t, err)
	require.Len(t, turns, 1)

	_, err = svc.History(context.Background(), alice.SessionID, "mallory")
	require.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestGenerateRejectsMissingFields(t *testing.T) {
	llm := &scriptedLLM{}
	sessions := newFakeSessions()
	tracker := &fakeTracker{}
	svc := newTestService(Config{}, llm, sessions, tracker)

	for _, req := range []GenerateRequest{{Prompt: "  ", UserID: "u"}, {Prompt: "q"}} {
		_, err := svc.Generate(context.Background(), req)
		require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
	}
	require.Zero(t, llm.calls)
	require.Empty(t, sessions.sessions)
	require.Empty(t, tracker.users)
}

func TestGenerateCannedReplySkipsEverything(t *testing.T) {
	llm := &scriptedLLM{}
	sessions := newFakeSessions()
	tracker := &fakeTracker{}
	svc := newTestService(Config{}, llm, sessions, tracker)

	resp, err := svc.Generate(context.Background(), GenerateRequest{Prompt: "Hello", UserID: "u1", SessionID: "never-created"})
	require.NoError(t, err)
	require.Equal(t, "Hi there! What do you need help with?", resp.Response)
	require.Empty(t, resp.SessionID)
	require.Nil(t, resp.TokenUsage)
	require.Zero(t, llm.calls)
	require.Empty(t, sessions.sessions)
	require.Empty(t, tracker.users)
}

func TestGenerateCannedReplyCanBeLogged(t *testing.T) {
	llm := &scriptedLLM{}
	sessions := newFakeSessions()
	tracker := &fakeTracker{}
	svc := newTestService(Config{LogCannedReplies: true}, llm, sessions, tracker)

	resp, err := svc.Generate(context.Background(), GenerateRequest{Prompt: "bye", UserID: "u1"})
	require.NoError(t, err)
	require.Equal(t, "session-1", resp.SessionID)
	require.Zero(t, llm.calls)
	require.Empty(t, tracker.users)
	require.Len(t, sessions.sessions, 1)
}

func TestGenerateFocusedSkipsSuggestions(t *testing.T) {
	llm := &scriptedLLM{replies: []reply{{text: "short answer"}}}
	svc := newTestService(Config{}, llm, newFakeSessions(), &fakeTracker{})

	resp, err := svc.Generate(context.Background(), GenerateRequest{Prompt: "q", UserID: "u1", FocusedResponse: true})
	require.NoError(t, err)
	require.Equal(t, "short answer", resp.Response)
	require.Equal(t, 1, llm.calls)
}

func TestGeneratePrimaryFailureIsTyped(t *testing.T) {
	llmErr := apperrors.Wrap(apperrors.CodeLLM, "inference request failed", errors.New("503"))
	llm := &scriptedLLM{replies: []reply{{err: llmErr}}}
	sessions := newFakeSessions()
	tracker := &fakeTracker{}
	svc := newTestService(Config{}, llm, sessions, tracker)

	_, err := svc.Generate(context.Background(), GenerateRequest{Prompt: "q", UserID: "u1"})
	require.True(t, apperrors.IsCode(err, apperrors.CodeLLM))
	require.Empty(t, sessions.sessions)
	require.Equal(t, []string{"u1"}, tracker.users, "failed requests still count as usage")
}

func TestGenerateSuggestionFailureBecomesWarning(t *testing.T) {
	llm := &scriptedLLM{replies: []reply{{text: "answer"}, {err: errors.New("timeout")}}}
	svc := newTestService(Config{}, llm, newFakeSessions(), &fakeTracker{})

	resp, err := svc.Generate(context.Background(), GenerateRequest{Prompt: "q", UserID: "u1"})
	require.NoError(t, err)
	require.Equal(t, "answer", resp.Response)
	require.Len(t, resp.Warnings, 1)
	require.Equal(t, apperrors.CodeLLM, resp.Warnings[0].Code)
}

func TestGenerateInlineErrorsMode(t *testing.T) {
	llm := &scriptedLLM{replies: []reply{{text: "answer"}, {err: errors.New("timeout")}}}
	svc := newTestService(Config{InlineErrors: true}, llm, newFakeSessions(), &fakeTracker{})

	resp, err := svc.Generate(context.Background(), GenerateRequest{Prompt: "q", UserID: "u1"})
	require.NoError(t, err)
	require.Equal(t, "answer"+prompt.SuggestionsHeading+"[Error during suggestion generation: timeout]", resp.Response)

	failing := newTestService(Config{InlineErrors: true}, &scriptedLLM{replies: []reply{{err: errors.New("down")}}}, newFakeSessions(), &fakeTracker{})
	resp, err = failing.Generate(context.Background(), GenerateRequest{Prompt: "q", UserID: "u1"})
	require.NoError(t, err)
	require.Equal(t, "Error: down", resp.Response)
}

func TestGenerateStorageFailure(t *testing.T) {
	llm := &scriptedLLM{replies: []reply{{text: "a"}, {text: "s"}}}
	sessions := newFakeSessions()
	sessions.createErr = errors.New("mongo down")
	svc := newTestService(Config{}, llm, sessions, &fakeTracker{})

	_, err := svc.Generate(context.Background(), GenerateRequest{Prompt: "q", UserID: "u1"})
	require.True(t, apperrors.IsCode(err, apperrors.CodeStorage))
}

func TestHistoryNotFound(t *testing.T) {
	svc := newTestService(Config{}, &scriptedLLM{}, newFakeSessions(), nil)
	_, err := svc.History(context.Background(), "nope", "")
	require.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestSessionsFiltersByOwner(t *testing.T) {
	sessions := newFakeSessions()
	require.NoError(t, sessions.Create(context.Background(), Session{ID: "a", UserID: "u1", CreatedAt: fixedNow, LastUpdated: fixedNow}))
	require.NoError(t, sessions.Create(context.Background(), Session{ID: "b", UserID: "u2", CreatedAt: fixedNow, LastUpdated: fixedNow}))
	svc := newTestService(Config{}, &scriptedLLM{}, sessions, nil)

	all, err := svc.Sessions(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, all, 2)

	mine, err := svc.Sessions(context.Background(), "u2")
	require.NoError(t, err)
	require.Equal(t, []SessionSummary{{SessionID: "b", CreatedAt: fixedNow, LastUpdated: fixedNow}}, mine)
}

func TestAnalyzeSelection(t *testing.T) {
	llm := &scriptedLLM{replies: []reply{{text: "A summary."}}}
	svc := newTestService(Config{}, llm, newFakeSessions(), nil)

	resp, err := svc.AnalyzeSelection(context.Background(), SelectionRequest{SelectedText: "Mitochondria...", Query: "summarize this"})
	require.NoError(t, err)
	require.Equal(t, "A summary.", resp.Response)
	require.Equal(t, []int{prompt.SelectionMaxTokens}, llm.maxTokens)
	require.True(t, strings.Contains(llm.prompts[0], "Mitochondria..."))

	_, err = svc.AnalyzeSelection(context.Background(), SelectionRequest{Query: "explain"})
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
}

func newTestService(cfg Config, llm Generator, sessions SessionRepository, tracker *fakeTracker) *Service {
	var t usage.Tracker
	if tracker != nil {
		t = tracker
	}
	svc := NewService(cfg, prompt.NewBuilder(prompt.DefaultContentLimit), llm, sessions, t, metrics.EstimateCounter{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.now = util.FixedClock(fixedNow)
	n := 0
	svc.newID = func() string {
		n++
		return "session-" + string(rune('0'+n))
	}
	return svc
}

type reply struct {
	text string
	err  error
}

type scriptedLLM struct {
	replies   []reply
	calls     int
	prompts   []string
	maxTokens []int
}

func (s *scriptedLLM) Generate(_ context.Context, p string, maxTokens int) (string, error) {
	s.prompts = append(s.prompts, p)
	s.maxTokens = append(s.maxTokens, maxTokens)
	if s.calls >= len(s.replies) {
		s.calls++
		return "", errors.New("unexpected call")
	}
	r := s.replies[s.calls]
	s.calls++
	return r.text, r.err
}

type fakeTracker struct {
	users  []string
	tokens []int
}

func (f *fakeTracker) Track(_ context.Context, userID string, tokens int) error {
	f.users = append(f.users, userID)
	f.tokens = append(f.tokens, tokens)
	return nil
}

type fakeSessions struct {
	mu        sync.Mutex
	sessions  map[string]Session
	createErr error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: map[string]Session{}}
}

func (f *fakeSessions) Create(_ context.Context, session Session) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[session.ID] = session
	return nil
}

func (f *fakeSessions) Append(_ context.Context, id, owner string, turn Turn) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[id]
	if !ok || (owner != "" && session.UserID != owner) {
		return false, nil
	}
	session.History = append(session.History, turn)
	session.LastUpdated = turn.Timestamp
	f.sessions[id] = session
	return true, nil
}

func (f *fakeSessions) History(_ context.Context, id, owner string) ([]Turn, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[id]
	if ok && owner != "" && session.UserID != owner {
		return nil, false, nil
	}
	return session.History, ok, nil
}

func (f *fakeSessions) List(_ context.Context, userID string) ([]SessionSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]SessionSummary, 0, len(f.sessions))
	for _, s := range f.sessions {
		if userID != "" && s.UserID != userID {
			continue
		}
		out = append(out, SessionSummary{SessionID: s.ID, CreatedAt: s.CreatedAt, LastUpdated: s.LastUpdated})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SessionID < out[j].SessionID })
	return out, nil
}
