package main

import (
	"context"
	"sort"
	"sync"

	"persona-profiler/internal/domain"
	"persona-profiler/internal/repository"
)

// --- REPO DE PERFILES EN MEMORIA ---

type memoryProfileRepo struct {
	mu       sync.Mutex
	profiles []domain.Profile
}

func newMemoryProfileRepo() *memoryProfileRepo { return &memoryProfileRepo{} }

func (m *memoryProfileRepo) Create(ctx context.Context, profile domain.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if p.SessionID == profile.SessionID {
			return repository.ErrDuplicate
		}
	}
	m.profiles = append(m.profiles, profile)
	return nil
}

func (m *memoryProfileRepo) GetByID(ctx context.Context, id string) (domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Profile{}, repository.ErrNotFound
}

func (m *memoryProfileRepo) GetBySessionID(ctx context.Context, sessionID string) (domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if p.SessionID == sessionID {
			return p, nil
		}
	}
	return domain.Profile{}, repository.ErrNotFound
}

func (m *memoryProfileRepo) List(ctx context.Context, filter repository.ProfileFilter) ([]domain.Profile, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Profile
	for _, p := range m.profiles {
		if filter.OwnerID == "" || p.OwnerID == filter.OwnerID {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	total := len(out)
	if filter.Offset >= len(out) {
		return nil, total, nil
	}
	out = out[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, total, nil
}
