package studio

import (
	"context"
	"errors"
	"sync"

	"github.com/shouni/gemini-banner-kit/pkg/domain"
	"github.com/shouni/gemini-banner-kit/pkg/generator"
	"github.com/shouni/gemini-banner-kit/pkg/keys"
	"google.golang.org/genai"
)

// --- Mocks ---

type mockGenerator struct {
	mu           sync.Mutex
	calls        int
	generateFunc func(ctx context.Context, req domain.GenerationRequest) ([]string, error)
}

func (m *mockGenerator) Generate(ctx context.Context, req domain.GenerationRequest) ([]string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.generateFunc != nil {
		return m.generateFunc(ctx, req)
	}
	return []string{"data:image/png;base64,AQ==", "data:image/png;base64,Ag=="}, nil
}

func (m *mockGenerator) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockFactory は作成回数と渡されたキーを記録する GeneratorFactory を返します。
type mockFactory struct {
	gen     generator.BatchGenerator
	created int
	keys    []string
}

func (f *mockFactory) New(_ context.Context, apiKey string) (generator.BatchGenerator, error) {
	f.created++
	f.keys = append(f.keys, apiKey)
	return f.gen, nil
}

type mockKeys struct {
	shared         string
	user           string
	nextUser       string
	reprovisionErr error
	reprovisions   int
}

func (k *mockKeys) APIKey(_ context.Context, spec domain.ModelSpec) (string, error) {
	if spec.RequiresUserKey {
		if k.user == "" {
			return "", keys.ErrNoUserKey
		}
		return k.user, nil
	}
	if k.shared == "" {
		return "", errors.New("no API key configured: set GEMINI_API_KEY")
	}
	return k.shared, nil
}

func (k *mockKeys) HasUserKey(context.Context) bool { return k.user != "" }

func (k *mockKeys) Reprovision(context.Context) error {
	k.reprovisions++
	if k.reprovisionErr != nil {
		return k.reprovisionErr
	}
	k.user = k.nextUser
	return nil
}

// fakeModels は試行番号ごとに応答を切り替える ContentGenerator です。
type fakeModels struct {
	respond func(attempt int) (*genai.GenerateContentResponse, error)
}

func (f *fakeModels) GenerateContent(ctx context.Context, _ string, _ []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	attempt, _ := generator.AttemptFromContext(ctx)
	return f.respond(attempt)
}

func imageResponse(data string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			FinishReason: genai.FinishReasonStop,
			Content: &genai.Content{
				Parts: []*genai.Part{{InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte(data)}}},
			},
		}},
	}
}
