package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shouni/gemini-banner-kit/pkg/domain"
	"github.com/shouni/gemini-banner-kit/pkg/store"
	"golang.org/x/crypto/bcrypt"
)

// ProfileStore は Provider が必要とするプロフィール操作です。
type ProfileStore interface {
	GetProfile(ctx context.Context, username string) (*domain.UserProfile, error)
	CreateProfile(ctx context.Context, profile *domain.UserProfile) error
}

// Provider はユーザー名とパスワードでプロフィールを登録・照合します。
// 現在のユーザーを決めるための簡易な仕組みで、セキュリティ境界ではありません。
type Provider struct {
	store  ProfileStore
	cost   int
	logger *slog.Logger
}

// Option は Provider の任意設定です。
type Option func(*Provider)

// WithCost は bcrypt のコストを設定します。
func WithCost(cost int) Option {
	return func(p *Provider) { p.cost = cost }
}

// WithLogger はロガーを設定します。
func WithLogger(l *slog.Logger) Option {
	return func(p *Provider) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewProvider は Provider を初期化します。
func NewProvider(s ProfileStore, opts ...Option) (*Provider, error) {
	if s == nil {
		return nil, fmt.Errorf("store is required")
	}
	p := &Provider{
		store:  s,
		cost:   bcrypt.DefaultCost,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Register は新しいユーザーを履歴なしで作成します。
// 同名のユーザーが存在する場合、既存のプロフィールには触れずに AuthError を返します。
func (p *Provider) Register(ctx context.Context, username, password string) (*domain.UserProfile, error) {
	username, err := normalizeCredentials(username, password)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	profile := &domain.UserProfile{
		Username:     username,
		PasswordHash: string(hash),
		History:      []domain.GeneratedRecord{},
	}
	if err := p.store.CreateProfile(ctx, profile); err != nil {
		if errors.Is(err, store.ErrExists) {
			return nil, &domain.AuthError{Reason: domain.AuthReasonAccountExists}
		}
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	p.logger.InfoContext(ctx, "ユーザーを登録しました", "user", username)
	return profile, nil
}

// Login は既存ユーザーを照合してプロフィールを返します。
// ハッシュを持たない古いプロフィールはユーザー名だけで通します。
func (p *Provider) Login(ctx context.Context, username, password string) (*domain.UserProfile, error) {
	username, err := normalizeCredentials(username, password)
	if err != nil {
		return nil, err
	}

	profile, err := p.store.GetProfile(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &domain.AuthError{Reason: domain.AuthReasonAccountNotFound}
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	if profile.PasswordHash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(password)); err != nil {
			p.logger.WarnContext(ctx, "パスワードが一致しません", "user", username)
			return nil, &domain.AuthError{Reason: domain.AuthReasonInvalidPassword}
		}
	}
	return profile, nil
}

func normalizeCredentials(username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", &domain.AuthError{Reason: domain.AuthReasonMissingCredentials}
	}
	return username, nil
}

// Profile はユーザーのプロフィールを返します。
func (p *Provider) Profile(ctx context.Context, username string) (*domain.UserProfile, error) {
	return p.store.GetProfile(ctx, username)
}
