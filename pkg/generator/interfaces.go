package generator

import (
	"context"

	"github.com/shouni/gemini-banner-kit/pkg/domain"
	"google.golang.org/genai"
)

// ContentGenerator はリモートの生成 API 呼び出しを抽象化するインターフェースです。
// *genai.Models がそのまま満たします。
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// BatchGenerator はビジネスロジック層が利用するバナー生成の窓口です。
type BatchGenerator interface {
	// Generate は1リクエストから複数のバリエーションを生成し、成功した画像の URL を返します。
	Generate(ctx context.Context, req domain.GenerationRequest) ([]string, error)
}

// Recorder は試行とバッチの結果を記録します。nil の場合は記録しません。
type Recorder interface {
	ObserveAttempt(model string, outcome string)
	ObserveBatch(model string, succeeded int, failed bool)
}
