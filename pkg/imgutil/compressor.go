package imgutil

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// DefaultQuality はアップロード画像を再圧縮するときの既定の JPEG 品質です。
const DefaultQuality = 85

// Options は再圧縮の設定です。
type Options struct {
	// Quality は 1〜100 の JPEG 品質です。0 なら DefaultQuality を使います。
	Quality int
	// MaxEdge が正なら長辺がこの値を超える画像を縮小します。
	MaxEdge int
}

// Info は画像のヘッダーから読み取った情報です。
type Info struct {
	Format string
	Width  int
	Height int
}

// Inspect は画像全体をデコードせずに形式とサイズを調べます。
// PNG, GIF, JPEG, WebP に対応しています。
func Inspect(data []byte) (Info, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, fmt.Errorf("unsupported image: %w", err)
	}
	return Info{Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}

// CompressToJPEG は画像データ（PNG, GIF, JPEG, WebP）を JPEG 形式に圧縮します。
func CompressToJPEG(data []byte, quality int) ([]byte, error) {
	return Compress(data, Options{Quality: quality})
}

// Compress は画像をデコードし、必要なら縮小してから JPEG に再エンコードします。
func Compress(data []byte, opts Options) ([]byte, error) {
	quality := opts.Quality
	if quality == 0 {
		quality = DefaultQuality
	}
	if quality < 1 || quality > 100 {
		return nil, fmt.Errorf("quality must be between 1 and 100, got %d", quality)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if opts.MaxEdge > 0 {
		img = fit(img, opts.MaxEdge)
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// fit は長辺が maxEdge に収まるよう縦横比を保って縮小します。収まっていればそのまま返します。
func fit(src image.Image, maxEdge int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxEdge && h <= maxEdge {
		return src
	}
	if w >= h {
		h = max(1, h*maxEdge/w)
		w = maxEdge
	} else {
		w = max(1, w*maxEdge/h)
		h = maxEdge
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
