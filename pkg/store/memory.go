package store

import (
	"context"
	"sync"

	"github.com/shouni/gemini-banner-kit/pkg/domain"
)

// Memory はプロセス内だけで保持する ProfileStore です。テストや一時利用向けです。
type Memory struct {
	mu       sync.RWMutex
	profiles map[string]*domain.UserProfile
	active   string
}

// NewMemory は空の Memory を返します。
func NewMemory() *Memory {
	return &Memory{profiles: make(map[string]*domain.UserProfile)}
}

func (m *Memory) GetProfile(_ context.Context, username string) (*domain.UserProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[username]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneProfile(p), nil
}

func (m *Memory) CreateProfile(_ context.Context, profile *domain.UserProfile) error {
	if err := validateUsername(profile.Username); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[profile.Username]; ok {
		return ErrExists
	}
	m.profiles[profile.Username] = cloneProfile(profile)
	return nil
}

func (m *Memory) SaveProfile(_ context.Context, profile *domain.UserProfile) error {
	if err := validateUsername(profile.Username); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[profile.Username] = cloneProfile(profile)
	return nil
}

func (m *Memory) ActiveUser(_ context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.active == "" {
		return "", ErrNotFound
	}
	return m.active, nil
}

func (m *Memory) SetActiveUser(_ context.Context, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = username
	return nil
}

func (m *Memory) ClearActiveUser(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = ""
	return nil
}
