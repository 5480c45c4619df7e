package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/shouni/gemini-banner-kit/pkg/domain"
)

// Redis は go-redis を使う ProfileStore です。
// キーはブラウザ版の localStorage と同じ user_<name> と gemini_architect_session を使います。
type Redis struct {
	rdb redis.UniversalClient
}

// RedisOptions は Redis への接続設定です。
type RedisOptions struct {
	Addr     string
	Username string
	Password string
	DB       int
}

// NewRedis は既存のクライアントから Redis を作成します。
func NewRedis(rdb redis.UniversalClient) (*Redis, error) {
	if rdb == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return &Redis{rdb: rdb}, nil
}

// DialRedis は接続を作成し、Ping で疎通を確認します。
func DialRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Username: opts.Username,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}
	return &Redis{rdb: rdb}, nil
}

// Close は接続を閉じます。
func (r *Redis) Close() error {
	return r.rdb.Close()
}

func (r *Redis) GetProfile(ctx context.Context, username string) (*domain.UserProfile, error) {
	b, err := r.rdb.Get(ctx, profileKey(username)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	var p domain.UserProfile
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("failed to decode profile %q: %w", username, err)
	}
	return &p, nil
}

func (r *Redis) CreateProfile(ctx context.Context, profile *domain.UserProfile) error {
	if err := validateUsername(profile.Username); err != nil {
		return err
	}
	b, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	ok, err := r.rdb.SetNX(ctx, profileKey(profile.Username), b, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	if !ok {
		return ErrExists
	}
	return nil
}

func (r *Redis) SaveProfile(ctx context.Context, profile *domain.UserProfile) error {
	if err := validateUsername(profile.Username); err != nil {
		return err
	}
	b, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	if err := r.rdb.Set(ctx, profileKey(profile.Username), b, 0).Err(); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

func (r *Redis) ActiveUser(ctx context.Context) (string, error) {
	name, err := r.rdb.Get(ctx, sessionKey).Result()
	if errors.Is(err, redis.Nil) || (err == nil && name == "") {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get session: %w", err)
	}
	return name, nil
}

func (r *Redis) SetActiveUser(ctx context.Context, username string) error {
	if err := r.rdb.Set(ctx, sessionKey, username, 0).Err(); err != nil {
		return fmt.Errorf("failed to set session: %w", err)
	}
	return nil
}

func (r *Redis) ClearActiveUser(ctx context.Context) error {
	if err := r.rdb.Del(ctx, sessionKey).Err(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
