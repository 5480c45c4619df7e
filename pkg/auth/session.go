package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shouni/gemini-banner-kit/pkg/domain"
	"github.com/shouni/gemini-banner-kit/pkg/store"
)

// State はセッションの状態です。
type State int

const (
	StateLoggedOut State = iota
	StateAuthenticating
	StateLoggedIn
)

func (s State) String() string {
	switch s {
	case StateLoggedOut:
		return "logged_out"
	case StateAuthenticating:
		return "authenticating"
	case StateLoggedIn:
		return "logged_in"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ActiveUserStore はアクティブユーザーの永続化です。
type ActiveUserStore interface {
	ActiveUser(ctx context.Context) (string, error)
	SetActiveUser(ctx context.Context, username string) error
	ClearActiveUser(ctx context.Context) error
}

// Session は現在のユーザーを保持する状態機械です。
// LoggedOut → Authenticating → LoggedIn と遷移し、LoggedOut に戻るのは Clear だけです。
// 認証の失敗は Abort で LoggedOut に戻します。
type Session struct {
	mu    sync.Mutex
	state State
	user  string
	store ActiveUserStore
}

// NewSession は LoggedOut 状態の Session を返します。
func NewSession(s ActiveUserStore) (*Session, error) {
	if s == nil {
		return nil, fmt.Errorf("store is required")
	}
	return &Session{store: s}, nil
}

// State は現在の状態を返します。
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CurrentUser はログイン中のユーザー名を返します。
func (s *Session) CurrentUser() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateLoggedIn {
		return "", false
	}
	return s.user, true
}

// Begin は認証を開始します。LoggedOut 以外からは開始できません。
func (s *Session) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateLoggedIn:
		return &domain.AuthError{Reason: domain.AuthReasonAlreadyLoggedIn}
	case StateAuthenticating:
		return errors.New("authentication already in progress")
	}
	s.state = StateAuthenticating
	return nil
}

// Abort は認証を中断して LoggedOut に戻します。
func (s *Session) Abort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateAuthenticating {
		s.state = StateLoggedOut
	}
}

// Establish は認証に成功したユーザーでセッションを確立し、永続化します。
// 永続化に失敗した場合は LoggedOut に戻ります。
func (s *Session) Establish(ctx context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAuthenticating {
		return fmt.Errorf("cannot establish session from state %s", s.state)
	}
	if err := s.store.SetActiveUser(ctx, username); err != nil {
		s.state = StateLoggedOut
		return fmt.Errorf("failed to persist session: %w", err)
	}
	s.state = StateLoggedIn
	s.user = username
	return nil
}

// Clear はセッションを破棄して LoggedOut に戻します。
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.ClearActiveUser(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	s.state = StateLoggedOut
	s.user = ""
	return nil
}

// Resume は永続化されたアクティブユーザーがあれば LoggedIn として復元します。
func (s *Session) Resume(ctx context.Context) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateLoggedIn {
		return s.user, true, nil
	}
	name, err := s.store.ActiveUser(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to resume session: %w", err)
	}
	s.state = StateLoggedIn
	s.user = name
	return name, true, nil
}
