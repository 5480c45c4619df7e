package store

import (
	"context"
	"errors"
	"strings"

	"github.com/shouni/gemini-banner-kit/pkg/domain"
)

var (
	// ErrNotFound はプロフィールまたはアクティブユーザーが存在しないことを示します。
	ErrNotFound = errors.New("store: not found")
	// ErrExists は同名のプロフィールがすでに存在することを示します。
	ErrExists = errors.New("store: already exists")
)

const (
	profileKeyPrefix = "user_"
	sessionKey       = "gemini_architect_session"
)

// ProfileStore はユーザープロフィールとアクティブセッションの永続化を抽象化します。
// CreateProfile は同名が存在する場合に既存データを変更せず ErrExists を返します。
type ProfileStore interface {
	GetProfile(ctx context.Context, username string) (*domain.UserProfile, error)
	CreateProfile(ctx context.Context, profile *domain.UserProfile) error
	SaveProfile(ctx context.Context, profile *domain.UserProfile) error

	ActiveUser(ctx context.Context) (string, error)
	SetActiveUser(ctx context.Context, username string) error
	ClearActiveUser(ctx context.Context) error
}

func profileKey(username string) string {
	return profileKeyPrefix + username
}

func validateUsername(username string) error {
	if strings.TrimSpace(username) == "" {
		return errors.New("store: username is required")
	}
	return nil
}

func cloneProfile(p *domain.UserProfile) *domain.UserProfile {
	cp := *p
	if p.History != nil {
		cp.History = append([]domain.GeneratedRecord(nil), p.History...)
	}
	return &cp
}
