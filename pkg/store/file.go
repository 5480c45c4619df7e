package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/shouni/gemini-banner-kit/pkg/domain"
)

// File はディレクトリ配下の JSON ファイルにプロフィールを保存する ProfileStore です。
// プロフィールは user_<name>.json、アクティブユーザーはセッションファイルに1行で保存します。
// 書き込みは一時ファイルからのリネームで行い、途中状態のファイルを残しません。
type File struct {
	dir string
	mu  sync.Mutex
}

// NewFile は dir を作成して File を返します。
func NewFile(dir string) (*File, error) {
	if dir == "" {
		return nil, fmt.Errorf("dir is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	return &File{dir: dir}, nil
}

func (f *File) profilePath(username string) (string, error) {
	if err := validateUsername(username); err != nil {
		return "", err
	}
	if strings.ContainsAny(username, `/\`) || username == "." || username == ".." {
		return "", fmt.Errorf("store: invalid username %q", username)
	}
	return filepath.Join(f.dir, profileKey(username)+".json"), nil
}

func (f *File) GetProfile(_ context.Context, username string) (*domain.UserProfile, error) {
	path, err := f.profilePath(username)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.readProfile(path)
}

func (f *File) readProfile(path string) (*domain.UserProfile, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	var p domain.UserProfile
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("failed to decode profile %s: %w", filepath.Base(path), err)
	}
	return &p, nil
}

func (f *File) CreateProfile(_ context.Context, profile *domain.UserProfile) error {
	path, err := f.profilePath(profile.Username)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := os.Stat(path); err == nil {
		return ErrExists
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to stat profile: %w", err)
	}
	return f.writeJSON(path, profile)
}

func (f *File) SaveProfile(_ context.Context, profile *domain.UserProfile) error {
	path, err := f.profilePath(profile.Username)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writeJSON(path, profile)
}

func (f *File) ActiveUser(_ context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, err := os.ReadFile(f.sessionPath())
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read session: %w", err)
	}
	name := strings.TrimSpace(string(b))
	if name == "" {
		return "", ErrNotFound
	}
	return name, nil
}

func (f *File) SetActiveUser(_ context.Context, username string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writeAtomic(f.sessionPath(), []byte(username))
}

func (f *File) ClearActiveUser(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.sessionPath()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (f *File) sessionPath() string {
	return filepath.Join(f.dir, sessionKey)
}

func (f *File) writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	return f.writeAtomic(path, b)
}

func (f *File) writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(f.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
