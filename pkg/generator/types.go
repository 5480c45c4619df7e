package generator

import "github.com/shouni/gemini-banner-kit/pkg/domain"

const (
	// BatchSize は1回の生成操作で並行に発行する試行数です。
	BatchSize = 4

	defaultImageMIMEType = "image/png"
)

// 試行結果のラベル（メトリクス・ログ用）
const (
	OutcomeSuccess        = "success"
	OutcomeNoCandidates   = string(domain.FailureNoCandidates)
	OutcomeSafetyBlocked  = string(domain.FailureSafetyBlocked)
	OutcomeNoImageData    = string(domain.FailureNoImageData)
	OutcomeTransportError = string(domain.FailureTransport)
)

// ImageOutput はレスポンス解析結果です。
type ImageOutput struct {
	Data     []byte
	MimeType string
}

// attemptOutcome は1試行の結果です。URL か err のどちらか一方だけが入ります。
type attemptOutcome struct {
	index int
	url   string
	err   error
	label string
}
