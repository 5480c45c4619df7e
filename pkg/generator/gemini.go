package generator

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// ClientFactory は API キーから ContentGenerator を作る関数です。
// キーを選び直したときに新しいクライアントを作り直すために使います。
type ClientFactory func(ctx context.Context, apiKey string) (ContentGenerator, error)

// NewGeminiClient は Gemini API バックエンドの genai クライアントを作成し、
// そのモデル API を ContentGenerator として返します。
func NewGeminiClient(ctx context.Context, apiKey string) (ContentGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("apiKey is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return client.Models, nil
}
