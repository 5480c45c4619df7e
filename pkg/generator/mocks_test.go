package generator

import (
	"context"
	"sync"

	"google.golang.org/genai"
)

// --- Mocks ---

// mockAIClient は ContentGenerator のモックです。
// コンテキストの試行番号を generateFunc に渡します。
type mockAIClient struct {
	mu           sync.Mutex
	calls        int
	lastModel    string
	lastContents []*genai.Content
	lastConfig   *genai.GenerateContentConfig
	generateFunc func(attempt int) (*genai.GenerateContentResponse, error)
}

func (m *mockAIClient) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	m.mu.Lock()
	m.calls++
	m.lastModel = model
	m.lastContents = contents
	m.lastConfig = config
	m.mu.Unlock()

	if m.generateFunc != nil {
		attempt, _ := AttemptFromContext(ctx)
		return m.generateFunc(attempt)
	}
	return imageResponse("image/png", []byte("fake")), nil
}

func (m *mockAIClient) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockRecorder struct {
	mu       sync.Mutex
	attempts map[string]int
	batches  int
	failed   int
}

func (r *mockRecorder) ObserveAttempt(model, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.attempts == nil {
		r.attempts = map[string]int{}
	}
	r.attempts[outcome]++
}

func (r *mockRecorder) ObserveBatch(model string, succeeded int, failed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches++
	if failed {
		r.failed++
	}
}

// imageResponse は画像パーツを1つ持つレスポンスを作るヘルパーです。
func imageResponse(mimeType string, data []byte) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			FinishReason: genai.FinishReasonStop,
			Content: &genai.Content{
				Parts: []*genai.Part{{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}}},
			},
		}},
	}
}
