package generator

import (
	"github.com/shouni/gemini-banner-kit/pkg/domain"
	"google.golang.org/genai"
)

// safetyFinishReasons は安全フィルターによるブロックを示す終了理由です。
var safetyFinishReasons = map[genai.FinishReason]bool{
	genai.FinishReasonSafety:                 true,
	genai.FinishReason("IMAGE_SAFETY"):       true,
	genai.FinishReason("PROHIBITED_CONTENT"): true,
	genai.FinishReason("BLOCKLIST"):          true,
}

// parseToResponse はレスポンスから画像データを取り出します。
// 候補なし・安全フィルター・画像なしをそれぞれ別のエラーとして返します。
func parseToResponse(resp *genai.GenerateContentResponse) (*ImageOutput, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return nil, domain.ErrNoCandidates
	}

	// 最初の候補 (Candidate) のみを利用する
	candidate := resp.Candidates[0]
	if safetyFinishReasons[candidate.FinishReason] {
		return nil, domain.ErrSafetyBlocked
	}

	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return &ImageOutput{Data: part.InlineData.Data, MimeType: part.InlineData.MIMEType}, nil
			}
		}
	}
	return nil, domain.ErrNoImageData
}

// outcomeLabel はエラーをメトリクス用のラベルに変換します。
func outcomeLabel(err error) string {
	if err == nil {
		return OutcomeSuccess
	}
	return string(domain.ClassifyFailure(err))
}

// toDataURL は画像データを data URL に変換します。
func toDataURL(out *ImageOutput) string {
	mimeType := out.MimeType
	if mimeType == "" {
		mimeType = defaultImageMIMEType
	}
	return domain.ImageAttachment{MIMEType: mimeType, Data: out.Data}.DataURL()
}
