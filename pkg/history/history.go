package history

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/gemini-banner-kit/pkg/domain"
)

// MaxEntries はユーザーごとに保持する履歴の上限です。
const MaxEntries = 50

// Prepend は新しいバッチを既存履歴の先頭に追加し、MaxEntries 件に切り詰めます。
// 戻り値は新しいスライスで、引数のどちらとも領域を共有しません。
func Prepend(existing, batch []domain.GeneratedRecord) []domain.GeneratedRecord {
	n := min(len(batch)+len(existing), MaxEntries)
	out := make([]domain.GeneratedRecord, 0, n)
	out = append(out, batch...)
	out = append(out, existing...)
	return out[:n]
}

// ProfileStore は Service が必要とする永続化操作です。
type ProfileStore interface {
	GetProfile(ctx context.Context, username string) (*domain.UserProfile, error)
	SaveProfile(ctx context.Context, profile *domain.UserProfile) error
}

// Service はユーザーごとの履歴を読み書きします。
type Service struct {
	store  ProfileStore
	logger *slog.Logger
}

// NewService は Service を初期化します。
func NewService(store ProfileStore, logger *slog.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}, nil
}

// Append はレコードを履歴の先頭に追加し、上限まで切り詰めた一覧全体を1回で保存します。
// 保存後の履歴を返します。
func (s *Service) Append(ctx context.Context, username string, records []domain.GeneratedRecord) ([]domain.GeneratedRecord, error) {
	profile, err := s.store.GetProfile(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile %q: %w", username, err)
	}
	if len(records) == 0 {
		return profile.History, nil
	}

	before := len(profile.History)
	updated := *profile
	updated.History = Prepend(profile.History, records)
	if err := s.store.SaveProfile(ctx, &updated); err != nil {
		return nil, fmt.Errorf("failed to save history for %q: %w", username, err)
	}

	if dropped := before + len(records) - len(updated.History); dropped > 0 {
		s.logger.DebugContext(ctx, "履歴の上限を超えた古いレコードを削除しました",
			"user", username, "dropped", dropped)
	}
	return updated.History, nil
}

// List は保存されている履歴をそのまま返します。
func (s *Service) List(ctx context.Context, username string) ([]domain.GeneratedRecord, error) {
	profile, err := s.store.GetProfile(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile %q: %w", username, err)
	}
	return profile.History, nil
}

// Find は ID で履歴レコードを探します。
func (s *Service) Find(ctx context.Context, username, id string) (domain.GeneratedRecord, bool, error) {
	records, err := s.List(ctx, username)
	if err != nil {
		return domain.GeneratedRecord{}, false, err
	}
	for _, r := range records {
		if r.ID == id {
			return r, true, nil
		}
	}
	return domain.GeneratedRecord{}, false, nil
}
