package service

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"persona-profiler/internal/domain"
	"persona-profiler/internal/llm"
	"persona-profiler/internal/repository"
)

type memProfileRepo struct {
	mu        sync.Mutex
	byID      map[string]domain.Profile
	bySession map[string]string
	creates   int
	getErr    error
}

func newMemProfileRepo() *memProfileRepo {
	return &memProfileRepo{byID: map[string]domain.Profile{}, bySession: map[string]string{}}
}

func (m *memProfileRepo) Create(_ context.Context, p domain.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bySession[p.SessionID]; ok {
		return repository.ErrDuplicate
	}
	m.byID[p.ID] = p
	m.bySession[p.SessionID] = p.ID
	m.creates++
	return nil
}

func (m *memProfileRepo) GetByID(_ context.Context, id string) (domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return domain.Profile{}, repository.ErrNotFound
	}
	return p, nil
}

func (m *memProfileRepo) GetBySessionID(_ context.Context, sessionID string) (domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return domain.Profile{}, m.getErr
	}
	id, ok := m.bySession[sessionID]
	if !ok {
		return domain.Profile{}, repository.ErrNotFound
	}
	return m.byID[id], nil
}

func (m *memProfileRepo) List(_ context.Context, filter repository.ProfileFilter) ([]domain.Profile, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := []domain.Profile{}
	for _, p := range m.byID {
		if filter.OwnerID == "" || p.OwnerID == filter.OwnerID {
			all = append(all, p)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := len(all)
	if filter.Offset >= len(all) {
		return []domain.Profile{}, total, nil
	}
	all = all[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(all) {
		all = all[:filter.Limit]
	}
	return all, total, nil
}

func (m *memProfileRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

type memAnswerRepo struct {
	mu      sync.Mutex
	answers map[string]map[int64]domain.Answer
}

func newMemAnswerRepo() *memAnswerRepo {
	return &memAnswerRepo{answers: map[string]map[int64]domain.Answer{}}
}

func (m *memAnswerRepo) Upsert(_ context.Context, a domain.Answer) (domain.Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bySession, ok := m.answers[a.SessionID]
	if !ok {
		bySession = map[int64]domain.Answer{}
		m.answers[a.SessionID] = bySession
	}
	if prev, ok := bySession[a.QuestionID]; ok {
		prev.Content = a.Content
		prev.OwnerID = a.OwnerID
		prev.UpdatedAt = a.UpdatedAt
		bySession[a.QuestionID] = prev
		return prev, nil
	}
	bySession[a.QuestionID] = a
	return a, nil
}

func (m *memAnswerRepo) ListBySessionID(_ context.Context, sessionID string) ([]domain.Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Answer{}
	for _, a := range m.answers[sessionID] {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out, nil
}

type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: map[string]domain.Session{}}
}

func (m *memSessionRepo) Create(_ context.Context, s domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.ID]; ok {
		return repository.ErrDuplicate
	}
	m.sessions[s.ID] = s
	return nil
}

func (m *memSessionRepo) GetByID(_ context.Context, id string) (domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return domain.Session{}, repository.ErrNotFound
	}
	return s, nil
}

func (m *memSessionRepo) IncrementTurn(_ context.Context, id string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return 0, repository.ErrNotFound
	}
	s.Turn++
	m.sessions[id] = s
	return s.Turn, nil
}

type memMessageRepo struct {
	mu       sync.Mutex
	messages map[string][]domain.Message
}

func newMemMessageRepo() *memMessageRepo {
	return &memMessageRepo{messages: map[string][]domain.Message{}}
}

func (m *memMessageRepo) Create(_ context.Context, msg domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[msg.SessionID] = append(m.messages[msg.SessionID], msg)
	return nil
}

func (m *memMessageRepo) ListBySessionID(_ context.Context, sessionID string) ([]domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Message{}, m.messages[sessionID]...), nil
}

// countingProvider cuenta invocaciones y opcionalmente espera antes de responder.
type countingProvider struct {
	calls    atomic.Int64
	response string
	err      error
	delay    time.Duration
	inner    llm.Provider
	lastSent []llm.Message
	release  chan struct{}
	mu       sync.Mutex
}

func (p *countingProvider) Send(ctx context.Context, history []llm.Message) (string, error) {
	p.calls.Add(1)
	p.mu.Lock()
	p.lastSent = history
	p.mu.Unlock()
	if p.release != nil {
		select {
		case <-p.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if p.err != nil {
		return "", p.err
	}
	if p.inner != nil {
		return p.inner.Send(ctx, history)
	}
	return p.response, nil
}
