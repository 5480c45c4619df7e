package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/gemini-banner-kit/pkg/config"
	"github.com/shouni/gemini-banner-kit/pkg/generator"
	"github.com/shouni/gemini-banner-kit/pkg/intake"
	"github.com/shouni/gemini-banner-kit/pkg/keys"
	"github.com/shouni/gemini-banner-kit/pkg/logger"
	"github.com/shouni/gemini-banner-kit/pkg/metrics"
	"github.com/shouni/gemini-banner-kit/pkg/store"
	"github.com/shouni/gemini-banner-kit/pkg/studio"
)

// Runtime はコマンド1回分の実行環境です。
type Runtime struct {
	Config   *config.Config
	Logger   *slog.Logger
	Studio   *studio.Studio
	Loader   *intake.Loader
	Registry *prometheus.Registry
	closers  []io.Closer
}

// Close は開いた接続を閉じます。
func (r *Runtime) Close() error {
	var firstErr error
	for _, c := range r.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// BuildFunc は設定から Runtime を組み立てます。テストで差し替えます。
type BuildFunc func(ctx context.Context, cfg *config.Config, streams Streams) (*Runtime, error)

// DefaultBuild は設定に従って本番用の依存関係を組み立てます。
func DefaultBuild(ctx context.Context, cfg *config.Config, streams Streams) (*Runtime, error) {
	lc := logger.FromConfig(cfg.LogLevel, cfg.LogFormat)
	lc.Output = streams.Err
	log := logger.New(lc)
	rt := &Runtime{Config: cfg, Logger: log, Registry: prometheus.NewRegistry()}

	var ps store.ProfileStore
	switch cfg.Store {
	case config.StoreRedis:
		r, err := store.DialRedis(ctx, store.RedisOptions{
			Addr:     cfg.RedisAddr,
			Username: cfg.RedisUsername,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, r)
		ps = r
	default:
		f, err := store.NewFile(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		ps = f
	}

	m, err := metrics.New(rt.Registry)
	if err != nil {
		return nil, err
	}
	keyProvider, err := keys.NewPrompting(cfg.GeminiAPIKey, cfg.GeminiProAPIKey, streams.In, streams.Err)
	if err != nil {
		return nil, err
	}

	genLogger := logger.WithComponent(log, "generator")
	factory := func(ctx context.Context, apiKey string) (generator.BatchGenerator, error) {
		client, err := generator.NewGeminiClient(ctx, apiKey)
		if err != nil {
			return nil, err
		}
		return generator.NewBannerGenerator(client, generator.WithRecorder(m), generator.WithLogger(genLogger))
	}

	rt.Studio, err = studio.New(studio.Deps{
		Store:        ps,
		Keys:         keyProvider,
		NewGenerator: factory,
		Logger:       logger.WithComponent(log, "studio"),
		Timeout:      cfg.GenerationTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize studio: %w", err)
	}
	gcs := &gcsReader{}
	rt.closers = append(rt.closers, gcs)
	rt.Loader = intake.NewLoader(intake.Options{
		Compress: cfg.ImageCompression,
		Quality:  cfg.ImageCompressionQuality,
		MaxEdge:  cfg.ImageMaxEdge,
	}, logger.WithComponent(log, "intake"),
		intake.WithHTTPClient(httpkit.New(cfg.ImageFetchTimeout)),
		intake.WithObjectReader(gcs),
	)
	return rt, nil
}
