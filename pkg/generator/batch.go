package generator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/gemini-banner-kit/pkg/domain"
	"golang.org/x/sync/errgroup"
	"google.golang.org/genai"
)

// BannerGenerator は同じリクエストを BatchSize 回並行に送り、
// 成功した画像だけを集めるオーケストレーターです。
type BannerGenerator struct {
	aiClient ContentGenerator
	recorder Recorder
	logger   *slog.Logger
}

// Option は BannerGenerator の任意設定です。
type Option func(*BannerGenerator)

// WithRecorder は試行結果の記録先を設定します。
func WithRecorder(r Recorder) Option {
	return func(g *BannerGenerator) { g.recorder = r }
}

// WithLogger はロガーを設定します。未指定なら slog.Default() を使います。
func WithLogger(l *slog.Logger) Option {
	return func(g *BannerGenerator) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewBannerGenerator は依存関係を注入して BannerGenerator を初期化します。
func NewBannerGenerator(aiClient ContentGenerator, opts ...Option) (*BannerGenerator, error) {
	if aiClient == nil {
		return nil, fmt.Errorf("aiClient is required")
	}
	g := &BannerGenerator{
		aiClient: aiClient,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Generate は BatchSize 個の試行を並行に実行し、すべてが終わるまで待ってから集計します。
// 1件でも成功すれば成功した画像の URL を試行番号順に返します。
// 全滅した場合は1回目の試行のメッセージを持つ BatchFailure を返します。
func (g *BannerGenerator) Generate(ctx context.Context, req domain.GenerationRequest) ([]string, error) {
	spec, err := domain.LookupModel(req.Model)
	if err != nil {
		return nil, err
	}

	// ペイロードは全試行で共通
	contents := BuildContents(req)
	config := BuildConfig(req, spec)

	g.logger.InfoContext(ctx, "バナー生成バッチを開始します",
		"model", spec.Name,
		"references", len(req.References),
		"subjects", len(req.Subjects),
		"aspect_ratio", req.AspectRatio,
		"image_size", config.ImageConfig.ImageSize,
	)

	outcomes := make([]attemptOutcome, BatchSize)
	var eg errgroup.Group
	for i := range outcomes {
		eg.Go(func() error {
			outcomes[i] = g.runAttempt(ctx, i+1, string(spec.Name), contents, config)
			// 失敗はバッチを止めないので常に nil を返す
			return nil
		})
	}
	_ = eg.Wait()

	var urls []string
	var failures []*domain.AttemptFailure
	for _, o := range outcomes {
		if g.recorder != nil {
			g.recorder.ObserveAttempt(string(spec.Name), o.label)
		}
		if o.err != nil {
			failures = append(failures, &domain.AttemptFailure{Attempt: o.index, Kind: domain.ClassifyFailure(o.err), Err: o.err})
			continue
		}
		urls = append(urls, o.url)
	}

	if len(urls) == 0 {
		if g.recorder != nil {
			g.recorder.ObserveBatch(string(spec.Name), 0, true)
		}
		batchErr := &domain.BatchFailure{Failures: failures}
		g.logger.ErrorContext(ctx, "すべての試行が失敗しました", "model", spec.Name, "error", batchErr)
		return nil, batchErr
	}

	if g.recorder != nil {
		g.recorder.ObserveBatch(string(spec.Name), len(urls), false)
	}
	g.logger.InfoContext(ctx, "バナー生成バッチが完了しました",
		"model", spec.Name, "succeeded", len(urls), "failed", len(failures))
	return urls, nil
}

type attemptKey struct{}

// AttemptFromContext は試行番号（1 始まり）を取り出します。診断用です。
func AttemptFromContext(ctx context.Context) (int, bool) {
	n, ok := ctx.Value(attemptKey{}).(int)
	return n, ok
}

// runAttempt は1試行分のリクエストと解析を行います。index は診断用で、ペイロードには影響しません。
func (g *BannerGenerator) runAttempt(ctx context.Context, index int, model string, contents []*genai.Content, config *genai.GenerateContentConfig) attemptOutcome {
	ctx = context.WithValue(ctx, attemptKey{}, index)
	resp, err := g.aiClient.GenerateContent(ctx, model, contents, config)
	if err == nil {
		var out *ImageOutput
		out, err = parseToResponse(resp)
		if err == nil {
			return attemptOutcome{index: index, url: toDataURL(out), label: OutcomeSuccess}
		}
	}

	label := outcomeLabel(err)
	g.logger.WarnContext(ctx, "バリエーション生成に失敗しました",
		"attempt", index, "outcome", label, "error", err)
	return attemptOutcome{index: index, err: err, label: label}
}
