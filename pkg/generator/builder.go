package generator

import (
	"fmt"
	"strings"

	"github.com/shouni/gemini-banner-kit/pkg/domain"
	"google.golang.org/genai"
)

const basePromptTemplate = `Create a professional high-end marketing banner.
STYLE: %s.
ASPECT RATIO: %s.
RESOLUTION TARGET: %s.
LAYOUT INSTRUCTION: Follow the composition and mood of the inspiration images.
PRODUCT INSTRUCTION: Place the provided product images naturally into the design.
The final result must be a complete, ready-to-use advertisement.`

// BuildInstruction はスタイル・縦横比・解像度を明示したテキスト指示を組み立てます。
// ユーザーの追加指示は空でない場合のみ末尾に付きます。
func BuildInstruction(req domain.GenerationRequest) string {
	text := fmt.Sprintf(basePromptTemplate, req.Style, req.AspectRatio, req.Resolution)
	if details := strings.TrimSpace(req.Instruction); details != "" {
		text += "\nSPECIFIC DETAILS: " + details
	}
	return text
}

// BuildParts はリクエストからパーツ列を作ります。
// 順序は 指示テキスト → 参考画像（入力順） → 商品画像（入力順） で固定です。
func BuildParts(req domain.GenerationRequest) []*genai.Part {
	parts := make([]*genai.Part, 0, 1+len(req.References)+len(req.Subjects))
	parts = append(parts, genai.NewPartFromText(BuildInstruction(req)))

	for _, img := range req.References {
		parts = append(parts, toPart(img))
	}
	for _, img := range req.Subjects {
		parts = append(parts, toPart(img))
	}
	return parts
}

// BuildContents は API に渡す user ロールのコンテンツを1件だけ返します。
// ネットワーク I/O は行いません。
func BuildContents(req domain.GenerationRequest) []*genai.Content {
	return []*genai.Content{genai.NewContentFromParts(BuildParts(req), genai.RoleUser)}
}

// BuildConfig は画像生成設定を作ります。
// 縦横比は常に指定し、解像度は明示指定に対応するモデルの場合だけ送ります。
func BuildConfig(req domain.GenerationRequest, spec domain.ModelSpec) *genai.GenerateContentConfig {
	imageConfig := &genai.ImageConfig{
		AspectRatio: string(req.AspectRatio),
	}
	if spec.SupportsExplicitResolution && req.Resolution != "" {
		imageConfig.ImageSize = string(req.Resolution)
	}
	return &genai.GenerateContentConfig{
		ImageConfig: imageConfig,
	}
}

func toPart(img domain.ImageAttachment) *genai.Part {
	mimeType := img.MIMEType
	if mimeType == "" {
		mimeType = defaultImageMIMEType
	}
	return &genai.Part{InlineData: &genai.Blob{MIMEType: mimeType, Data: img.Data}}
}
