package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shouni/gemini-banner-kit/pkg/domain"
	"github.com/shouni/gemini-banner-kit/pkg/generator"
	"github.com/shouni/gemini-banner-kit/pkg/intake"
	"github.com/spf13/cobra"
)

type generateFlags struct {
	refs       []string
	subjects   []string
	prompt     string
	aspect     string
	resolution string
	style      string
	outDir     string
}

func newGenerateCmd(a *app) *cobra.Command {
	var f generateFlags
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate banner variations from reference and product images",
		Long: "Generate sends the reference banners, product images and style settings to the selected Gemini model " +
			"as parallel requests. Successful images are added to the top of your history.",
		Args: cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			req, err := a.buildRequest(cmd, f)
			if err != nil {
				return err
			}

			records, err := a.rt.Studio.Generate(cmd.Context(), req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Generated %d of %d variations\n", len(records), generator.BatchSize)
			for _, r := range records {
				line := r.ID
				if f.outDir != "" {
					path, err := writeRecord(f.outDir, r)
					if err != nil {
						return err
					}
					line += "  " + path
				}
				fmt.Fprintln(out, line)
			}
			return nil
		}),
		Example: `bannerkit generate \
  --ref sale-banner.png --ref gs://brand-assets/layout.jpg \
  --subject sneaker.png \
  --prompt "summer sale, pastel colors" \
  --model pro --aspect 16:9 --resolution 2K --style "Photorealistic"`,
	}

	fl := cmd.Flags()
	fl.StringArrayVar(&f.refs, "ref", nil, "reference banner: file, http(s) URL or gs:// URI (up to 3, repeatable)")
	fl.StringArrayVar(&f.subjects, "subject", nil, "product image: file, http(s) URL or gs:// URI (up to 5, repeatable)")
	fl.StringVar(&f.prompt, "prompt", "", "additional instructions")
	fl.StringVar(&f.aspect, "aspect", string(domain.DefaultAspectRatio), "aspect ratio: 1:1, 16:9, 9:16, 4:3, 3:4")
	fl.StringVar(&f.resolution, "resolution", string(domain.DefaultResolution), "resolution target: 1K, 2K, 4K (Pro only)")
	fl.StringVar(&f.style, "style", string(domain.DefaultStyle), "style: "+styleNames())
	fl.StringVarP(&f.outDir, "out-dir", "o", "", "also save the generated images to this directory")
	return cmd
}

func (a *app) buildRequest(cmd *cobra.Command, f generateFlags) (domain.GenerationRequest, error) {
	// --model は全コマンド共通のフラグで、applyOverrides で反映済み
	model := a.rt.Config.DefaultModel
	aspect, err := domain.ParseAspectRatio(f.aspect)
	if err != nil {
		return domain.GenerationRequest{}, err
	}
	resolution, err := domain.ParseResolution(f.resolution)
	if err != nil {
		return domain.GenerationRequest{}, err
	}
	style, err := domain.ParseStyle(f.style)
	if err != nil {
		return domain.GenerationRequest{}, err
	}

	spec, err := domain.LookupModel(model)
	if err != nil {
		return domain.GenerationRequest{}, err
	}
	if !spec.SupportsExplicitResolution && resolution != domain.Resolution1K {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s does not support an explicit resolution; %s is used as a prompt hint only\n",
			spec.DisplayName, resolution)
	}

	ctx := cmd.Context()
	refs := a.rt.Loader.Load(ctx, domain.RoleReference, f.refs)
	subjects := a.rt.Loader.Load(ctx, domain.RoleSubject, f.subjects)
	for _, fe := range append(refs.Errors, subjects.Errors...) {
		fmt.Fprintf(cmd.ErrOrStderr(), "Skipped %s\n", fe.Error())
	}

	return domain.GenerationRequest{
		Instruction: f.prompt,
		References:  refs.Attachments,
		Subjects:    subjects.Attachments,
		Model:       model,
		AspectRatio: aspect,
		Resolution:  resolution,
		Style:       style,
	}, nil
}

func styleNames() string {
	names := make([]string, len(domain.Styles))
	for i, s := range domain.Styles {
		names[i] = fmt.Sprintf("%q", s)
	}
	return strings.Join(names, ", ")
}

// writeRecord はレコードの画像を dir に banner-<id>.<ext> として保存します。
func writeRecord(dir string, r domain.GeneratedRecord) (string, error) {
	att, err := intake.ParseDataURL(r.ID, r.URL)
	if err != nil {
		return "", fmt.Errorf("record %s: %w", r.ID, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output dir %s: %w", dir, err)
	}
	path := filepath.Join(dir, "banner-"+r.ID+intake.Extension(att.MIMEType))
	if err := os.WriteFile(path, att.Data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
