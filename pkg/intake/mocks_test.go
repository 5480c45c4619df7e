package intake

import (
	"bytes"
	"context"
	"io"
	"sync"
)

// --- Mocks ---

// mockHTTPClient は HTTPClient のモックです。
type mockHTTPClient struct {
	mu        sync.Mutex
	urls      []string
	fetchFunc func(ctx context.Context, url string) ([]byte, error)
}

func (m *mockHTTPClient) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	m.mu.Lock()
	m.urls = append(m.urls, url)
	m.mu.Unlock()
	return m.fetchFunc(ctx, url)
}

// mockObjectReader は ObjectReader のモックです。開いたリーダーが閉じられたかも記録します。
type mockObjectReader struct {
	openFunc func(ctx context.Context, uri string) ([]byte, error)
	closed   int
}

func (m *mockObjectReader) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	data, err := m.openFunc(ctx, uri)
	if err != nil {
		return nil, err
	}
	return &trackingReadCloser{Reader: bytes.NewReader(data), onClose: func() { m.closed++ }}, nil
}

type trackingReadCloser struct {
	io.Reader
	onClose func()
}

func (r *trackingReadCloser) Close() error {
	r.onClose()
	return nil
}
