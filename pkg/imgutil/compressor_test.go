package imgutil

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

// テスト用のダミー画像（w x h の赤い矩形）を作成するヘルパー
func createDummyImageData(t *testing.T, format string, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{255, uint8(x % 256), uint8(y % 256), 255})
		}
	}

	buf := new(bytes.Buffer)
	var err error
	switch format {
	case "png":
		err = png.Encode(buf, img)
	case "jpeg":
		err = jpeg.Encode(buf, img, nil)
	default:
		t.Fatalf("unsupported format: %s", format)
	}

	if err != nil {
		t.Fatalf("failed to encode dummy image: %v", err)
	}
	return buf.Bytes()
}

func TestCompressToJPEG(t *testing.T) {
	t.Run("PNG画像をJPEGに変換できること", func(t *testing.T) {
		got, err := CompressToJPEG(createDummyImageData(t, "png", 10, 10), 75)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		_, format, err := image.Decode(bytes.NewReader(got))
		if err != nil {
			t.Fatalf("failed to decode output image: %v", err)
		}
		if format != "jpeg" {
			t.Errorf("expected format jpeg, got %s", format)
		}
	})

	t.Run("画像でないデータはエラー", func(t *testing.T) {
		if _, err := CompressToJPEG([]byte("this is not an image"), 75); err == nil {
			t.Error("expected error for invalid data, but got nil")
		}
	})

	t.Run("範囲外の品質はエラー", func(t *testing.T) {
		if _, err := CompressToJPEG(createDummyImageData(t, "png", 4, 4), 101); err == nil {
			t.Error("expected error for quality 101")
		}
	})

	t.Run("品質によってサイズが変わること", func(t *testing.T) {
		input := createDummyImageData(t, "png", 64, 64)

		highQuality, _ := CompressToJPEG(input, 100)
		lowQuality, _ := CompressToJPEG(input, 10)

		if len(lowQuality) >= len(highQuality) {
			t.Errorf("low quality size (%d) should be smaller than high quality size (%d)", len(lowQuality), len(highQuality))
		}
	})
}

func TestCompress_MaxEdge(t *testing.T) {
	t.Run("長辺を MaxEdge に縮小し縦横比を保つ", func(t *testing.T) {
		got, err := Compress(createDummyImageData(t, "png", 200, 100), Options{MaxEdge: 50})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		info, err := Inspect(got)
		if err != nil {
			t.Fatalf("inspect failed: %v", err)
		}
		if info.Width != 50 || info.Height != 25 {
			t.Errorf("expected 50x25, got %dx%d", info.Width, info.Height)
		}
	})

	t.Run("小さい画像は縮小しない", func(t *testing.T) {
		got, err := Compress(createDummyImageData(t, "png", 30, 40), Options{MaxEdge: 50})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		info, _ := Inspect(got)
		if info.Width != 30 || info.Height != 40 {
			t.Errorf("expected 30x40, got %dx%d", info.Width, info.Height)
		}
	})
}

func TestInspect(t *testing.T) {
	info, err := Inspect(createDummyImageData(t, "png", 12, 7))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Format != "png" || info.Width != 12 || info.Height != 7 {
		t.Errorf("unexpected info: %+v", info)
	}

	if _, err := Inspect([]byte("nope")); err == nil {
		t.Error("expected error for invalid data")
	}
}
