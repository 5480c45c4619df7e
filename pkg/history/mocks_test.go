package history

import (
	"context"
	"errors"

	"github.com/shouni/gemini-banner-kit/pkg/domain"
)

// --- Mocks ---

type mockStore struct {
	profiles  map[string]*domain.UserProfile
	saves     int
	saveErr   error
	lastSaved *domain.UserProfile
}

func newMockStore(profiles ...*domain.UserProfile) *mockStore {
	m := &mockStore{profiles: map[string]*domain.UserProfile{}}
	for _, p := range profiles {
		m.profiles[p.Username] = p
	}
	return m
}

func (m *mockStore) GetProfile(_ context.Context, username string) (*domain.UserProfile, error) {
	p, ok := m.profiles[username]
	if !ok {
		return nil, errors.New("not found")
	}
	cp := *p
	return &cp, nil
}

func (m *mockStore) SaveProfile(_ context.Context, profile *domain.UserProfile) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	cp := *profile
	m.profiles[profile.Username] = &cp
	m.lastSaved = &cp
	return nil
}
