package studio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/shouni/gemini-banner-kit/pkg/auth"
	"github.com/shouni/gemini-banner-kit/pkg/domain"
	"github.com/shouni/gemini-banner-kit/pkg/generator"
	"github.com/shouni/gemini-banner-kit/pkg/history"
	"github.com/shouni/gemini-banner-kit/pkg/keys"
	"github.com/shouni/gemini-banner-kit/pkg/store"
)

// ErrGenerationInProgress は生成中に次の生成が要求されたことを示します。
var ErrGenerationInProgress = errors.New("a generation is already in progress")

// GeneratorFactory は API キーからバッチ生成器を作ります。
type GeneratorFactory func(ctx context.Context, apiKey string) (generator.BatchGenerator, error)

// Deps は Studio の依存関係です。
type Deps struct {
	Store        store.ProfileStore
	Keys         keys.Provider
	NewGenerator GeneratorFactory

	// 以下は任意です。
	Auth    *auth.Provider
	Clock   history.Clock
	Logger  *slog.Logger
	Timeout time.Duration
}

// Studio はログインから生成、履歴保存までの一連の操作をまとめるコントローラーです。
type Studio struct {
	provider     *auth.Provider
	session      *auth.Session
	history      *history.Service
	keys         keys.Provider
	newGenerator GeneratorFactory
	clock        history.Clock
	logger       *slog.Logger
	timeout      time.Duration

	generating atomic.Bool
}

// New は依存関係を検証して Studio を初期化します。
func New(d Deps) (*Studio, error) {
	if d.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if d.Keys == nil {
		return nil, fmt.Errorf("key provider is required")
	}
	if d.NewGenerator == nil {
		return nil, fmt.Errorf("generator factory is required")
	}
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	provider := d.Auth
	if provider == nil {
		var err error
		if provider, err = auth.NewProvider(d.Store, auth.WithLogger(logger)); err != nil {
			return nil, err
		}
	}
	session, err := auth.NewSession(d.Store)
	if err != nil {
		return nil, err
	}
	hist, err := history.NewService(d.Store, logger)
	if err != nil {
		return nil, err
	}

	return &Studio{
		provider:     provider,
		session:      session,
		history:      hist,
		keys:         d.Keys,
		newGenerator: d.NewGenerator,
		clock:        d.Clock,
		logger:       logger,
		timeout:      d.Timeout,
	}, nil
}

// Register は新しいユーザーを作成してログインします。失敗時は状態を変えません。
func (s *Studio) Register(ctx context.Context, username, password string) (*domain.UserProfile, error) {
	return s.authenticate(ctx, func() (*domain.UserProfile, error) {
		return s.provider.Register(ctx, username, password)
	})
}

// Login は既存ユーザーでログインします。失敗時は状態を変えません。
func (s *Studio) Login(ctx context.Context, username, password string) (*domain.UserProfile, error) {
	return s.authenticate(ctx, func() (*domain.UserProfile, error) {
		return s.provider.Login(ctx, username, password)
	})
}

func (s *Studio) authenticate(ctx context.Context, fn func() (*domain.UserProfile, error)) (*domain.UserProfile, error) {
	if err := s.session.Begin(); err != nil {
		return nil, err
	}
	profile, err := fn()
	if err != nil {
		s.session.Abort()
		return nil, err
	}
	if err := s.session.Establish(ctx, profile.Username); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "ログインしました", "user", profile.Username, "history", len(profile.History))
	return profile, nil
}

// Logout はセッションを破棄します。
func (s *Studio) Logout(ctx context.Context) error {
	return s.session.Clear(ctx)
}

// Resume は保存されたセッションを復元し、ユーザーのプロフィールを返します。
// セッションがなければ nil を返します。プロフィールが消えていればセッションを破棄します。
func (s *Studio) Resume(ctx context.Context) (*domain.UserProfile, error) {
	user, ok, err := s.session.Resume(ctx)
	if err != nil || !ok {
		return nil, err
	}
	profile, err := s.provider.Profile(ctx, user)
	if errors.Is(err, store.ErrNotFound) {
		s.logger.WarnContext(ctx, "セッションのユーザーが存在しないため破棄します", "user", user)
		return nil, s.session.Clear(ctx)
	}
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// CurrentUser はログイン中のユーザー名を返します。
func (s *Studio) CurrentUser() (string, bool) {
	return s.session.CurrentUser()
}

// History はログイン中のユーザーの履歴を新しい順に返します。
func (s *Studio) History(ctx context.Context) ([]domain.GeneratedRecord, error) {
	user, err := s.requireUser()
	if err != nil {
		return nil, err
	}
	return s.history.List(ctx, user)
}

// Record は ID で履歴レコードを1件探します。
func (s *Studio) Record(ctx context.Context, id string) (domain.GeneratedRecord, error) {
	user, err := s.requireUser()
	if err != nil {
		return domain.GeneratedRecord{}, err
	}
	rec, ok, err := s.history.Find(ctx, user, id)
	if err != nil {
		return domain.GeneratedRecord{}, err
	}
	if !ok {
		return domain.GeneratedRecord{}, fmt.Errorf("no record with id %q", id)
	}
	return rec, nil
}

// Generate はバッチ生成を実行し、成功した画像を履歴の先頭に保存して返します。
// 失敗した場合、履歴は変更されません。
func (s *Studio) Generate(ctx context.Context, req domain.GenerationRequest) ([]domain.GeneratedRecord, error) {
	user, err := s.requireUser()
	if err != nil {
		return nil, err
	}
	req = req.WithDefaults()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	spec, err := domain.LookupModel(req.Model)
	if err != nil {
		return nil, &domain.ValidationError{Message: err.Error()}
	}

	if !s.generating.CompareAndSwap(false, true) {
		return nil, ErrGenerationInProgress
	}
	defer s.generating.Store(false)

	if spec.RequiresUserKey && !s.keys.HasUserKey(ctx) {
		s.logger.InfoContext(ctx, "このモデルにはユーザーの API キーが必要です", "model", spec.Name)
		if err := s.keys.Reprovision(ctx); err != nil {
			return nil, &domain.KeyProvisioningError{Model: spec.DisplayName, Err: err}
		}
	}
	apiKey, err := s.keys.APIKey(ctx, spec)
	if err != nil {
		// キーの選び直しはユーザーキーを使うモデルだけが対象
		if spec.RequiresUserKey {
			return nil, &domain.KeyProvisioningError{Model: spec.DisplayName, Err: err}
		}
		return nil, err
	}
	gen, err := s.newGenerator(ctx, apiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create generator: %w", err)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	urls, err := gen.Generate(ctx, req)
	if err != nil {
		if spec.RequiresUserKey && keyNotFound(err) {
			s.logger.WarnContext(ctx, "API キーが見つかりません。キーを選び直します", "model", spec.Name)
			if rerr := s.keys.Reprovision(ctx); rerr != nil {
				s.logger.WarnContext(ctx, "キーの再選択に失敗しました", "error", rerr)
			}
			return nil, &domain.KeyProvisioningError{Model: spec.DisplayName, Err: err}
		}
		return nil, err
	}

	records := history.NormalizeNow(urls, req.Style, req.Resolution, s.clock)
	if _, err := s.history.Append(ctx, user, records); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Studio) requireUser() (string, error) {
	user, ok := s.session.CurrentUser()
	if !ok {
		return "", &domain.AuthError{Reason: domain.AuthReasonNotLoggedIn}
	}
	return user, nil
}

// keyNotFound はバッチ内のいずれかの試行がキー未設定を示していたか判定します。
func keyNotFound(err error) bool {
	var bf *domain.BatchFailure
	if errors.As(err, &bf) {
		for _, f := range bf.Failures {
			if domain.IsKeyNotFound(f) {
				return true
			}
		}
	}
	return domain.IsKeyNotFound(err)
}
