package keys

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/shouni/gemini-banner-kit/pkg/domain"
)

// ErrNoUserKey はユーザー自身のキーを必要とするモデルでキーが未選択であることを示します。
var ErrNoUserKey = errors.New("no user-selected API key")

// Provider はモデルごとに使う API キーを解決します。
type Provider interface {
	// APIKey は指定モデルの呼び出しに使うキーを返します。
	APIKey(ctx context.Context, spec domain.ModelSpec) (string, error)
	// HasUserKey はユーザー自身のキーが選択済みかを返します。
	HasUserKey(ctx context.Context) bool
	// Reprovision はユーザーにキーを選び直させます。
	Reprovision(ctx context.Context) error
}

// Static は設定済みのキーだけを返す Provider です。選び直しはできません。
type Static struct {
	SharedKey string
	UserKey   string
}

func (s Static) APIKey(_ context.Context, spec domain.ModelSpec) (string, error) {
	return resolve(spec, s.SharedKey, s.UserKey)
}

func (s Static) HasUserKey(context.Context) bool { return s.UserKey != "" }

func (s Static) Reprovision(context.Context) error {
	return fmt.Errorf("%w: set GEMINI_PRO_API_KEY and retry", ErrNoUserKey)
}

// Prompting は必要になったときに入力からユーザーキーを読み取る Provider です。
type Prompting struct {
	mu        sync.Mutex
	sharedKey string
	userKey   string
	in        *bufio.Reader
	out       io.Writer
}

// NewPrompting は in からキーを読み、out にプロンプトを表示する Prompting を返します。
// initialUserKey が空でなければ最初から選択済みとして扱います。
func NewPrompting(sharedKey, initialUserKey string, in io.Reader, out io.Writer) (*Prompting, error) {
	if in == nil {
		return nil, fmt.Errorf("input is required")
	}
	if out == nil {
		out = io.Discard
	}
	return &Prompting{
		sharedKey: sharedKey,
		userKey:   initialUserKey,
		in:        bufio.NewReader(in),
		out:       out,
	}, nil
}

func (p *Prompting) APIKey(_ context.Context, spec domain.ModelSpec) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return resolve(spec, p.sharedKey, p.userKey)
}

func (p *Prompting) HasUserKey(context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.userKey != ""
}

// Reprovision は現在のキーを捨て、入力から新しいキーを1行読み取ります。
func (p *Prompting) Reprovision(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	p.userKey = ""
	fmt.Fprint(p.out, "Enter an API key from a paid Google Cloud project for the Pro model: ")
	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read API key: %w", err)
	}
	key := strings.TrimSpace(line)
	if key == "" {
		return ErrNoUserKey
	}
	p.userKey = key
	return nil
}

func resolve(spec domain.ModelSpec, sharedKey, userKey string) (string, error) {
	if spec.RequiresUserKey {
		if userKey == "" {
			return "", ErrNoUserKey
		}
		return userKey, nil
	}
	if sharedKey == "" {
		return "", fmt.Errorf("no API key configured for %s: set GEMINI_API_KEY", spec.Name)
	}
	return sharedKey, nil
}
