package docstore

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/edusolve/internal/domain/assistant"
	"github.com/yanqian/edusolve/internal/domain/document"
	"github.com/yanqian/edusolve/internal/domain/usage"
)

// MemoryUsageRepository keeps usage counters in process memory.
type MemoryUsageRepository struct {
	mu      sync.Mutex
	records map[string]usage.Record
}

// NewMemoryUsageRepository constructs an empty repository.
func NewMemoryUsageRepository() *MemoryUsageRepository {
	return &MemoryUsageRepository{records: make(map[string]usage.Record)}
}

func (r *MemoryUsageRepository) Increment(_ context.Context, userID string, tokens int, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := r.records[userID]
	rec.UserID = userID
	rec.Usage++
	rec.Tokens += int64(tokens)
	rec.LastUsed = at
	r.records[userID] = rec
	return nil
}

func (r *MemoryUsageRepository) Get(_ context.Context, userID string) (usage.Record, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[userID]
	return rec, ok, nil
}

// MemorySessionRepository keeps chat transcripts in process memory.
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]assistant.Session
}

// NewMemorySessionRepository constructs an empty repository.
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{sessions: make(map[string]assistant.Session)}
}

func (r *MemorySessionRepository) Create(_ context.Context, session assistant.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[session.ID]; exists {
		return errors.New("session already exists")
	}
	session.History = append([]assistant.Turn(nil), session.History...)
	r.sessions[session.ID] = session
	return nil
}

func (r *MemorySessionRepository) Append(_ context.Context, sessionID, owner string, turn assistant.Turn) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[sessionID]
	if !ok || (owner != "" && session.UserID != owner) {
		return false, nil
	}
	session.History = append(session.History, turn)
	session.LastUpdated = turn.Timestamp
	r.sessions[sessionID] = session
	return true, nil
}

func (r *MemorySessionRepository) History(_ context.Context, sessionID, owner string) ([]assistant.Turn, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[sessionID]
	if !ok || (owner != "" && session.UserID != owner) {
		return nil, false, nil
	}
	return append([]assistant.Turn(nil), session.History...), true, nil
}

// List returns summaries ordered by most recent activity.
func (r *MemorySessionRepository) List(_ context.Context, userID string) ([]assistant.SessionSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]assistant.SessionSummary, 0, len(r.sessions))
	for _, s := range r.sessions {
		if userID != "" && s.UserID != userID {
			continue
		}
		out = append(out, assistant.SessionSummary{SessionID: s.ID, CreatedAt: s.CreatedAt, LastUpdated: s.LastUpdated})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastUpdated.Equal(out[j].LastUpdated) {
			return out[i].SessionID < out[j].SessionID
		}
		return out[i].LastUpdated.After(out[j].LastUpdated)
	})
	return out, nil
}

// MemoryPDFRepository keeps analyzed uploads in process memory.
type MemoryPDFRepository struct {
	mu      sync.RWMutex
	records map[string]document.PDFRecord
}

// NewMemoryPDFRepository constructs an empty repository.
func NewMemoryPDFRepository() *MemoryPDFRepository {
	return &MemoryPDFRepository{records: make(map[string]document.PDFRecord)}
}

func (r *MemoryPDFRepository) Insert(_ context.Context, record document.PDFRecord) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record.ID = uuid.NewString()
	r.records[record.ID] = record
	return record.ID, nil
}

func (r *MemoryPDFRepository) Get(_ context.Context, id string) (document.PDFRecord, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	return rec, ok, nil
}

var (
	_ usage.Repository            = (*MemoryUsageRepository)(nil)
	_ assistant.SessionRepository = (*MemorySessionRepository)(nil)
	_ document.PDFRepository      = (*MemoryPDFRepository)(nil)
)
