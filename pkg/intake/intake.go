package intake

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/shouni/gemini-banner-kit/pkg/domain"
	"github.com/shouni/gemini-banner-kit/pkg/imgutil"
)

// 役割ごとの添付上限です。
const (
	MaxReferences = 3
	MaxSubjects   = 5
)

// Limit は役割ごとの添付上限を返します。
func Limit(role domain.ImageRole) int {
	if role == domain.RoleReference {
		return MaxReferences
	}
	return MaxSubjects
}

// FileError はファイル単位の読み込み失敗です。他のファイルの処理は止めません。
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string { return fmt.Sprintf("%s: %v", e.Path, e.Err) }

func (e *FileError) Unwrap() error { return e.Err }

// Result は Load の結果です。Attachments は入力順を保ちます。
type Result struct {
	Attachments []domain.ImageAttachment
	Errors      []*FileError
}

// Options は Loader の設定です。
type Options struct {
	// Compress が true なら読み込んだ画像を JPEG に再圧縮します。
	Compress bool
	Quality  int
	MaxEdge  int
}

// HTTPClient は URL から画像を取得します。httpkit のクライアントが満たします。
type HTTPClient interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// ObjectReader は gs:// などのオブジェクトを開きます。remoteio.InputReader が満たします。
type ObjectReader interface {
	Open(ctx context.Context, uri string) (io.ReadCloser, error)
}

// Loader はローカルファイル、http(s) URL、gs:// URI から添付画像を作ります。
type Loader struct {
	opts       Options
	logger     *slog.Logger
	readFile   func(string) ([]byte, error)
	httpClient HTTPClient
	reader     ObjectReader
	isSafeURL  func(string) (bool, error)
}

// LoaderOption は Loader の任意設定です。
type LoaderOption func(*Loader)

// WithHTTPClient は http(s) URL の取得に使うクライアントを設定します。
func WithHTTPClient(c HTTPClient) LoaderOption {
	return func(l *Loader) { l.httpClient = c }
}

// WithObjectReader は gs:// URI の読み込みに使うリーダーを設定します。
func WithObjectReader(r ObjectReader) LoaderOption {
	return func(l *Loader) { l.reader = r }
}

// NewLoader は Loader を初期化します。logger が nil なら slog.Default() を使います。
func NewLoader(opts Options, logger *slog.Logger, options ...LoaderOption) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Loader{opts: opts, logger: logger, readFile: os.ReadFile, isSafeURL: IsSafeURL}
	for _, o := range options {
		o(l)
	}
	return l
}

// Load は paths（ローカルパス、http(s) URL、gs:// URI）を順に読み込み、role の上限を超えた分はエラーとして扱います。
// 画像でないファイルや読めないファイルはそのファイルだけ失敗させます。
func (l *Loader) Load(ctx context.Context, role domain.ImageRole, paths []string) Result {
	var res Result
	limit := Limit(role)
	for i, src := range paths {
		if err := ctx.Err(); err != nil {
			res.Errors = append(res.Errors, &FileError{Path: src, Err: err})
			continue
		}
		if i >= limit {
			res.Errors = append(res.Errors, &FileError{
				Path: src,
				Err:  fmt.Errorf("too many %s images (max %d)", role, limit),
			})
			continue
		}

		att, err := l.loadOne(ctx, src)
		if err != nil {
			l.logger.WarnContext(ctx, "画像の読み込みに失敗しました", "role", role, "path", src, "error", err)
			res.Errors = append(res.Errors, &FileError{Path: src, Err: err})
			continue
		}
		res.Attachments = append(res.Attachments, att)
	}
	return res
}

func (l *Loader) loadOne(ctx context.Context, src string) (domain.ImageAttachment, error) {
	data, name, err := l.fetch(ctx, src)
	if err != nil {
		return domain.ImageAttachment{}, err
	}
	mimeType, err := sniffImage(data)
	if err != nil {
		return domain.ImageAttachment{}, err
	}

	att := domain.ImageAttachment{Name: name, MIMEType: mimeType, Data: data}
	if !l.opts.Compress && !l.oversized(data) {
		return att, nil
	}

	compressed, err := imgutil.Compress(data, imgutil.Options{Quality: l.opts.Quality, MaxEdge: l.opts.MaxEdge})
	if err != nil {
		// 再圧縮できない形式は元のまま送る
		l.logger.DebugContext(ctx, "再圧縮をスキップしました", "path", src, "error", err)
		return att, nil
	}
	att.MIMEType = "image/jpeg"
	att.Data = compressed
	return att, nil
}

// fetch は src のスキームに応じて取得元を切り替え、データと表示名を返します。
func (l *Loader) fetch(ctx context.Context, src string) ([]byte, string, error) {
	switch {
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		if l.httpClient == nil {
			return nil, "", fmt.Errorf("remote URLs are not enabled")
		}
		if safe, err := l.isSafeURL(src); err != nil || !safe {
			return nil, "", fmt.Errorf("unsafe URL: %w", err)
		}
		data, err := l.httpClient.FetchBytes(ctx, src)
		if err != nil {
			return nil, "", err
		}
		return data, remoteName(src), nil
	case strings.HasPrefix(src, "gs://"):
		if l.reader == nil {
			return nil, "", fmt.Errorf("gs:// URIs are not enabled")
		}
		rc, err := l.reader.Open(ctx, src)
		if err != nil {
			return nil, "", err
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, "", err
		}
		return data, remoteName(src), nil
	default:
		data, err := l.readFile(src)
		if err != nil {
			return nil, "", err
		}
		return data, filepath.Base(src), nil
	}
}

// oversized は MaxEdge が設定されていて、長辺がそれを超えるときに true を返します。
func (l *Loader) oversized(data []byte) bool {
	if l.opts.MaxEdge <= 0 {
		return false
	}
	info, err := imgutil.Inspect(data)
	if err != nil {
		return false
	}
	return max(info.Width, info.Height) > l.opts.MaxEdge
}

func remoteName(src string) string {
	rest := src
	if _, after, ok := strings.Cut(src, "://"); ok {
		rest = after
	}
	rest, _, _ = strings.Cut(rest, "?")
	return path.Base(rest)
}

func sniffImage(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty file")
	}
	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return "", fmt.Errorf("not an image (detected %s)", mimeType)
	}
	return mimeType, nil
}

// ParseDataURL は data URL を添付画像に変換します。
// "data:<mime>;base64," の接頭辞がない場合は全体を base64 として扱い、MIME タイプは中身から判定します。
func ParseDataURL(name, s string) (domain.ImageAttachment, error) {
	mimeType := ""
	payload := s
	if rest, ok := strings.CutPrefix(s, "data:"); ok {
		meta, body, found := strings.Cut(rest, ",")
		if !found {
			return domain.ImageAttachment{}, fmt.Errorf("malformed data URL")
		}
		mt, isBase64 := strings.CutSuffix(meta, ";base64")
		if !isBase64 {
			return domain.ImageAttachment{}, fmt.Errorf("data URL is not base64 encoded")
		}
		mimeType = mt
		payload = body
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return domain.ImageAttachment{}, fmt.Errorf("invalid base64 payload: %w", err)
	}
	if mimeType == "" {
		if mimeType, err = sniffImage(data); err != nil {
			return domain.ImageAttachment{}, err
		}
	}
	return domain.ImageAttachment{Name: name, MIMEType: mimeType, Data: data}, nil
}

// Extension は MIME タイプに対応するファイル拡張子を返します。
func Extension(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".png"
	}
}
