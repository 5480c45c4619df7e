package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/shouni/gemini-banner-kit/pkg/config"
	"github.com/shouni/gemini-banner-kit/pkg/domain"
	"github.com/shouni/gemini-banner-kit/pkg/metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Streams はコマンドの入出力先です。
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// app はコマンド間で共有する状態です。
type app struct {
	streams Streams
	build   BuildFunc
	v       *viper.Viper
	cfgFile string
	envFile string
	rt      *Runtime
}

// NewRootCmd は bannerkit のルートコマンドを作成します。build が nil なら DefaultBuild を使います。
func NewRootCmd(streams Streams, build BuildFunc) *cobra.Command {
	if build == nil {
		build = DefaultBuild
	}
	a := &app{streams: streams, build: build, v: viper.New()}

	root := &cobra.Command{
		Use:           "bannerkit",
		Short:         "Generate marketing banners from reference and product images with Gemini",
		Long:          "bannerkit combines reference banners and product photos into new banner variations using Gemini image models, and keeps a per-user history of the results.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Context())
		},
	}
	root.SetIn(streams.In)
	root.SetOut(streams.Out)
	root.SetErr(streams.Err)

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.bannerkit.yaml)")
	pf.StringVar(&a.envFile, "env-file", "", "dotenv file to load (default is .env)")
	pf.String("model", "", "default model: flash or pro")
	pf.String("store", "", "profile store: file or redis")
	pf.String("data-dir", "", "directory for the file store")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-format", "", "log format: text or json")
	pf.String("metrics-file", "", "write Prometheus metrics in textfile format after each command")
	for _, name := range []string{"model", "store", "data-dir", "log-level", "log-format", "metrics-file"} {
		_ = a.v.BindPFlag(name, pf.Lookup(name))
	}

	root.AddCommand(
		newRegisterCmd(a),
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newGenerateCmd(a),
		newHistoryCmd(a),
		newExportCmd(a),
	)
	return root
}

func (a *app) setup(ctx context.Context) error {
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		a.v.AddConfigPath(home)
		a.v.SetConfigName(".bannerkit")
	}
	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if a.cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	var envFiles []string
	if a.envFile != "" {
		envFiles = append(envFiles, a.envFile)
	}
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return err
	}
	if err := a.applyOverrides(cfg); err != nil {
		return err
	}

	rt, err := a.build(ctx, cfg, a.streams)
	if err != nil {
		return err
	}
	if _, err := rt.Studio.Resume(ctx); err != nil {
		// teardown は走らないのでここで閉じる
		_ = rt.Close()
		return fmt.Errorf("failed to restore session: %w", err)
	}
	a.rt = rt
	return nil
}

// applyOverrides はフラグと設定ファイルの値を環境変数由来の設定に上書きします。
func (a *app) applyOverrides(cfg *config.Config) error {
	if s := a.v.GetString("model"); s != "" {
		m, err := domain.ParseModel(s)
		if err != nil {
			return err
		}
		cfg.DefaultModel = m
	}
	if s := a.v.GetString("store"); s != "" {
		if s != config.StoreFile && s != config.StoreRedis {
			return fmt.Errorf("invalid --store %q", s)
		}
		cfg.Store = s
	}
	if s := a.v.GetString("data-dir"); s != "" {
		cfg.DataDir = s
	}
	if s := a.v.GetString("log-level"); s != "" {
		cfg.LogLevel = s
	}
	if s := a.v.GetString("log-format"); s != "" {
		cfg.LogFormat = s
	}
	return nil
}

// run は RunE の終了時に成否にかかわらず teardown を呼びます。
func (a *app) run(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			if cerr := a.teardown(); err == nil {
				err = cerr
			}
		}()
		return fn(cmd, args)
	}
}

func (a *app) teardown() error {
	if a.rt == nil {
		return nil
	}
	if path := a.v.GetString("metrics-file"); path != "" {
		if err := metrics.WriteTextfile(path, a.rt.Registry); err != nil {
			a.rt.Logger.Warn("メトリクスの書き出しに失敗しました", "error", err)
		}
	}
	return a.rt.Close()
}

// Execute はルートコマンドを実行し、失敗したら終了コード 1 で終了します。
func Execute(ctx context.Context) {
	root := NewRootCmd(Streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}, nil)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", describe(err))
		os.Exit(1)
	}
}

// describe はユーザー向けのエラーメッセージを返します。
func describe(err error) string {
	var kpe *domain.KeyProvisioningError
	if errors.As(err, &kpe) {
		model := kpe.Model
		if model == "" {
			model = "the selected model"
		}
		return "no valid API key for " + model + ". Select a key (GEMINI_PRO_API_KEY or the prompt) and try again: " + kpe.Err.Error()
	}
	var bf *domain.BatchFailure
	if errors.As(err, &bf) {
		return "could not generate images: " + bf.Error()
	}
	return err.Error()
}
