package intake

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/shouni/gemini-banner-kit/pkg/domain"
	"github.com/shouni/gemini-banner-kit/pkg/imgutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	return pngSized(t, 8, 8)
}

func pngSized(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(1, 1, color.RGBA{0, 0, 255, 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, data, 0o600))
	return p
}

func TestLoader_Load(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	img := pngBytes(t)

	t.Run("入力順を保って読み込む", func(t *testing.T) {
		a := writeFile(t, dir, "a.png", img)
		b := writeFile(t, dir, "b.png", img)

		res := NewLoader(Options{}, nil).Load(ctx, domain.RoleSubject, []string{a, b})
		require.Empty(t, res.Errors)
		require.Len(t, res.Attachments, 2)
		assert.Equal(t, "a.png", res.Attachments[0].Name)
		assert.Equal(t, "b.png", res.Attachments[1].Name)
		assert.Equal(t, "image/png", res.Attachments[0].MIMEType)
		assert.Equal(t, img, res.Attachments[0].Data)
	})

	t.Run("1枚の失敗で他のファイルは止まらない", func(t *testing.T) {
		good := writeFile(t, dir, "good.png", img)
		text := writeFile(t, dir, "notes.txt", []byte("hello world"))
		missing := filepath.Join(dir, "missing.png")

		res := NewLoader(Options{}, nil).Load(ctx, domain.RoleSubject, []string{text, good, missing})
		require.Len(t, res.Attachments, 1)
		assert.Equal(t, "good.png", res.Attachments[0].Name)
		require.Len(t, res.Errors, 2)
		assert.Equal(t, text, res.Errors[0].Path)
		assert.Contains(t, res.Errors[0].Error(), "not an image")
		assert.Equal(t, missing, res.Errors[1].Path)
		assert.ErrorIs(t, res.Errors[1], os.ErrNotExist)
	})

	t.Run("参考画像は3枚まで", func(t *testing.T) {
		var paths []string
		for _, n := range []string{"r1.png", "r2.png", "r3.png", "r4.png"} {
			paths = append(paths, writeFile(t, dir, n, img))
		}
		res := NewLoader(Options{}, nil).Load(ctx, domain.RoleReference, paths)
		assert.Len(t, res.Attachments, MaxReferences)
		require.Len(t, res.Errors, 1)
		assert.Equal(t, paths[3], res.Errors[0].Path)
	})

	t.Run("圧縮を有効にすると JPEG になる", func(t *testing.T) {
		p := writeFile(t, dir, "c.png", img)
		res := NewLoader(Options{Compress: true, Quality: 80}, nil).Load(ctx, domain.RoleSubject, []string{p})
		require.Len(t, res.Attachments, 1)
		assert.Equal(t, "image/jpeg", res.Attachments[0].MIMEType)
	})

	t.Run("キャンセル済みのコンテキストでは読み込まない", func(t *testing.T) {
		p := writeFile(t, dir, "d.png", img)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		res := NewLoader(Options{}, nil).Load(cctx, domain.RoleSubject, []string{p})
		assert.Empty(t, res.Attachments)
		require.Len(t, res.Errors, 1)
		assert.ErrorIs(t, res.Errors[0], context.Canceled)
	})
}

func TestLoader_LoadRemote(t *testing.T) {
	ctx := context.Background()
	img := pngBytes(t)

	t.Run("http(s) の参考画像は HTTP クライアントで取得する", func(t *testing.T) {
		client := &mockHTTPClient{fetchFunc: func(context.Context, string) ([]byte, error) { return img, nil }}
		l := NewLoader(Options{}, nil, WithHTTPClient(client))

		res := l.Load(ctx, domain.RoleReference, []string{"https://203.0.113.10/assets/mood.png?v=2"})
		require.Empty(t, res.Errors)
		require.Len(t, res.Attachments, 1)
		assert.Equal(t, "mood.png", res.Attachments[0].Name)
		assert.Equal(t, "image/png", res.Attachments[0].MIMEType)
		assert.Equal(t, []string{"https://203.0.113.10/assets/mood.png?v=2"}, client.urls)
	})

	t.Run("ループバック宛ての URL は取得せずに失敗させる", func(t *testing.T) {
		client := &mockHTTPClient{fetchFunc: func(context.Context, string) ([]byte, error) { return img, nil }}
		l := NewLoader(Options{}, nil, WithHTTPClient(client))

		res := l.Load(ctx, domain.RoleReference, []string{"http://127.0.0.1/admin.png"})
		assert.Empty(t, res.Attachments)
		require.Len(t, res.Errors, 1)
		assert.Contains(t, res.Errors[0].Error(), "unsafe URL")
		assert.Empty(t, client.urls, "安全でない URL には接続しないのだ")
	})

	t.Run("gs:// はオブジェクトリーダーで読み、閉じる", func(t *testing.T) {
		var opened string
		reader := &mockObjectReader{openFunc: func(_ context.Context, uri string) ([]byte, error) {
			opened = uri
			return img, nil
		}}
		l := NewLoader(Options{}, nil, WithObjectReader(reader))

		res := l.Load(ctx, domain.RoleSubject, []string{"gs://brand-assets/products/bottle.png"})
		require.Empty(t, res.Errors)
		require.Len(t, res.Attachments, 1)
		assert.Equal(t, "bottle.png", res.Attachments[0].Name)
		assert.Equal(t, "gs://brand-assets/products/bottle.png", opened)
		assert.Equal(t, 1, reader.closed)
	})

	t.Run("取得元ごとの失敗は他のファイルを止めない", func(t *testing.T) {
		dir := t.TempDir()
		local := writeFile(t, dir, "local.png", img)
		client := &mockHTTPClient{fetchFunc: func(context.Context, string) ([]byte, error) {
			return nil, errors.New("404 not found")
		}}
		// ObjectReader は設定しない
		l := NewLoader(Options{}, nil, WithHTTPClient(client))

		res := l.Load(ctx, domain.RoleReference, []string{"https://203.0.113.10/gone.png", "gs://bucket/a.png", local})
		require.Len(t, res.Attachments, 1)
		assert.Equal(t, "local.png", res.Attachments[0].Name)
		require.Len(t, res.Errors, 2)
		assert.Contains(t, res.Errors[0].Error(), "404 not found")
		assert.Contains(t, res.Errors[1].Error(), "gs:// URIs are not enabled")
	})

	t.Run("HTTP クライアントがなければ URL は読めない", func(t *testing.T) {
		res := NewLoader(Options{}, nil).Load(ctx, domain.RoleReference, []string{"https://203.0.113.10/a.png"})
		require.Len(t, res.Errors, 1)
		assert.Contains(t, res.Errors[0].Error(), "remote URLs are not enabled")
	})
}

func TestLoader_MaxEdge(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	t.Run("長辺が上限を超える画像は圧縮設定がなくても縮小する", func(t *testing.T) {
		p := writeFile(t, dir, "wide.png", pngSized(t, 64, 32))
		res := NewLoader(Options{MaxEdge: 16}, nil).Load(ctx, domain.RoleSubject, []string{p})
		require.Len(t, res.Attachments, 1)
		assert.Equal(t, "image/jpeg", res.Attachments[0].MIMEType)

		info, err := imgutil.Inspect(res.Attachments[0].Data)
		require.NoError(t, err)
		assert.Equal(t, 16, info.Width)
		assert.Equal(t, 8, info.Height)
	})

	t.Run("上限に収まる画像はそのまま", func(t *testing.T) {
		small := pngSized(t, 8, 8)
		p := writeFile(t, dir, "small.png", small)
		res := NewLoader(Options{MaxEdge: 16}, nil).Load(ctx, domain.RoleSubject, []string{p})
		require.Len(t, res.Attachments, 1)
		assert.Equal(t, "image/png", res.Attachments[0].MIMEType)
		assert.Equal(t, small, res.Attachments[0].Data)
	})
}

func TestIsSafeURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		safe bool
	}{
		{"公開アドレス", "https://203.0.113.10/a.png", true},
		{"ループバック", "http://127.0.0.1/a.png", false},
		{"プライベート", "http://10.0.0.8/a.png", false},
		{"リンクローカル", "http://169.254.169.254/latest/meta-data", false},
		{"許可されないスキーム", "ftp://203.0.113.10/a.png", false},
		{"gs は対象外", "gs://bucket/a.png", false},
		{"壊れた URL", "::not a url", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			safe, err := IsSafeURL(tt.url)
			assert.Equal(t, tt.safe, safe)
			if tt.safe {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestLimit(t *testing.T) {
	assert.Equal(t, 3, Limit(domain.RoleReference))
	assert.Equal(t, 5, Limit(domain.RoleSubject))
}

func TestParseDataURL(t *testing.T) {
	img := pngBytes(t)
	encoded := base64.StdEncoding.EncodeToString(img)

	t.Run("接頭辞付き", func(t *testing.T) {
		att, err := ParseDataURL("x", "data:image/webp;base64,"+encoded)
		require.NoError(t, err)
		assert.Equal(t, "image/webp", att.MIMEType)
		assert.Equal(t, img, att.Data)
	})

	t.Run("接頭辞なしは中身から判定する", func(t *testing.T) {
		att, err := ParseDataURL("x", encoded)
		require.NoError(t, err)
		assert.Equal(t, "image/png", att.MIMEType)
	})

	t.Run("DataURL から元の添付画像に戻せる", func(t *testing.T) {
		orig := domain.ImageAttachment{Name: "x", MIMEType: "image/png", Data: img}
		att, err := ParseDataURL("x", orig.DataURL())
		require.NoError(t, err)
		assert.Equal(t, orig, att)
	})

	for name, in := range map[string]string{
		"カンマなし":      "data:image/png;base64",
		"base64 でない": "data:image/png,abc",
		"壊れた base64": "data:image/png;base64,!!!",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDataURL("x", in)
			assert.Error(t, err)
		})
	}
}

func TestExtension(t *testing.T) {
	assert.Equal(t, ".jpg", Extension("image/jpeg"))
	assert.Equal(t, ".png", Extension("image/png"))
	assert.Equal(t, ".png", Extension(""))
}
