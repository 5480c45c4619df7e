package cli

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/shouni/go-remote-io/pkg/gcsfactory"
	"github.com/shouni/go-remote-io/pkg/remoteio"
)

// gcsReader は最初の gs:// 読み込みで GCS クライアントを作る remoteio のラッパーです。
// ローカルファイルだけを使うコマンドでは認証情報を要求しません。
type gcsReader struct {
	once   sync.Once
	reader remoteio.InputReader
	closer io.Closer
	err    error
}

func (g *gcsReader) init(ctx context.Context) {
	factory, err := gcsfactory.New(ctx)
	if err != nil {
		g.err = fmt.Errorf("failed to create GCS client: %w", err)
		return
	}
	if c, ok := any(factory).(io.Closer); ok {
		g.closer = c
	}
	g.reader, g.err = factory.InputReader()
}

// Open は gs:// URI のオブジェクトを開きます。
func (g *gcsReader) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	g.once.Do(func() { g.init(ctx) })
	if g.err != nil {
		return nil, g.err
	}
	return g.reader.Open(ctx, uri)
}

// Close は作成済みのクライアントがあれば閉じます。
func (g *gcsReader) Close() error {
	if g.closer == nil {
		return nil
	}
	return g.closer.Close()
}
