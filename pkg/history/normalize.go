package history

import (
	"time"

	"github.com/google/uuid"
	"github.com/shouni/gemini-banner-kit/pkg/domain"
)

// Clock は現在時刻を返します。テストで差し替えます。
type Clock func() time.Time

// Normalize は成功した画像 URL を履歴レコードに変換します。
// URL ごとに1件、入力と同じ順序で作成し、ID は毎回新しく採番します。
// style と resolution はリクエストのラベルをそのまま写します。
func Normalize(urls []string, style domain.Style, resolution domain.Resolution, now time.Time) []domain.GeneratedRecord {
	if len(urls) == 0 {
		return nil
	}
	records := make([]domain.GeneratedRecord, 0, len(urls))
	for _, u := range urls {
		records = append(records, domain.GeneratedRecord{
			ID:         uuid.NewString(),
			URL:        u,
			CreatedAt:  now,
			Style:      style,
			Resolution: resolution,
		})
	}
	return records
}

// NormalizeNow は clock の時刻で Normalize します。clock が nil なら time.Now を使います。
func NormalizeNow(urls []string, style domain.Style, resolution domain.Resolution, clock Clock) []domain.GeneratedRecord {
	if clock == nil {
		clock = time.Now
	}
	return Normalize(urls, style, resolution, clock())
}
