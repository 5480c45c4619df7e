package domain

import (
	"encoding/base64"
	"encoding/json"
	"time"
)

// AspectRatio は生成するバナーの縦横比です。
type AspectRatio string

const (
	AspectSquare    AspectRatio = "1:1"
	AspectLandscape AspectRatio = "16:9"
	AspectPortrait  AspectRatio = "9:16"
	AspectClassic   AspectRatio = "4:3"
	AspectTall      AspectRatio = "3:4"
)

// AspectRatios は選択可能な縦横比の一覧です。
var AspectRatios = []AspectRatio{AspectSquare, AspectLandscape, AspectPortrait, AspectClassic, AspectTall}

// Resolution は解像度ターゲットのラベルです。
type Resolution string

const (
	Resolution1K Resolution = "1K"
	Resolution2K Resolution = "2K"
	Resolution4K Resolution = "4K"
)

// Resolutions は選択可能な解像度の一覧です。
var Resolutions = []Resolution{Resolution1K, Resolution2K, Resolution4K}

// Style はバナーの画風ラベルです。プロンプトにそのまま埋め込まれます。
type Style string

const (
	StyleMinimalist     Style = "Minimalist & Clean"
	StyleCyberpunk      Style = "Cyberpunk / Neon"
	StyleVintage        Style = "Retro / Vintage"
	StyleProfessional   Style = "Corporate / Professional"
	StyleArtistic       Style = "Abstract / Artistic"
	StylePhotorealistic Style = "Photorealistic"
	StyleLuxury         Style = "Luxury / Elegant"
)

// Styles は選択可能な画風の一覧です。
var Styles = []Style{
	StyleMinimalist, StyleCyberpunk, StyleVintage, StyleProfessional,
	StyleArtistic, StylePhotorealistic, StyleLuxury,
}

// ImageRole は添付画像の役割です。
type ImageRole string

const (
	RoleReference ImageRole = "reference" // 構図・雰囲気の参考にするバナー
	RoleSubject   ImageRole = "subject"   // バナーに配置する商品
)

// ImageAttachment はユーザーが選択したファイルから作られる画像です。
// 作成後は変更しない前提で扱います。
type ImageAttachment struct {
	Name     string
	MIMEType string
	Data     []byte
}

// DataURL は添付画像を data URL 形式のテキストに変換します。
func (a ImageAttachment) DataURL() string {
	return "data:" + a.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(a.Data)
}

// GenerationRequest は1回の生成操作に必要なパラメータ一式です。
// References と Subjects の順序はモデルの構図解釈に影響するため保持されます。
type GenerationRequest struct {
	Instruction string
	References  []ImageAttachment
	Subjects    []ImageAttachment
	Model       Model
	AspectRatio AspectRatio
	Resolution  Resolution
	Style       Style
}

// 未指定のときに使う既定値です。
const (
	DefaultModel       = ModelFlash
	DefaultAspectRatio = AspectSquare
	DefaultResolution  = Resolution1K
	DefaultStyle       = StyleProfessional
)

// WithDefaults は空のパラメータを既定値で埋めたコピーを返します。
func (r GenerationRequest) WithDefaults() GenerationRequest {
	if r.Model == "" {
		r.Model = DefaultModel
	}
	if r.AspectRatio == "" {
		r.AspectRatio = DefaultAspectRatio
	}
	if r.Resolution == "" {
		r.Resolution = DefaultResolution
	}
	if r.Style == "" {
		r.Style = DefaultStyle
	}
	return r
}

// Validate は送信前の前提条件を検証します。
// 参考画像と商品画像がそれぞれ1枚以上必要です。
func (r GenerationRequest) Validate() error {
	if len(r.References) == 0 || len(r.Subjects) == 0 {
		return &ValidationError{Message: "at least one reference image and one subject image are required"}
	}
	return nil
}

// GeneratedRecord は履歴に保存される生成結果1件です。
type GeneratedRecord struct {
	ID         string
	URL        string
	CreatedAt  time.Time
	Style      Style
	Resolution Resolution
}

// recordJSON は保存形式です。timestamp はミリ秒の UNIX 時刻で保持します。
type recordJSON struct {
	ID         string     `json:"id"`
	URL        string     `json:"url"`
	Timestamp  int64      `json:"timestamp"`
	Style      Style      `json:"style"`
	Resolution Resolution `json:"resolution,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (r GeneratedRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordJSON{
		ID:         r.ID,
		URL:        r.URL,
		Timestamp:  r.CreatedAt.UnixMilli(),
		Style:      r.Style,
		Resolution: r.Resolution,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *GeneratedRecord) UnmarshalJSON(b []byte) error {
	var v recordJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*r = GeneratedRecord{
		ID:         v.ID,
		URL:        v.URL,
		CreatedAt:  time.UnixMilli(v.Timestamp),
		Style:      v.Style,
		Resolution: v.Resolution,
	}
	return nil
}

// UserProfile はユーザー1人分のプロフィールと生成履歴です。
// History は新しい順に並びます。
type UserProfile struct {
	Username     string            `json:"username"`
	PasswordHash string            `json:"password_hash,omitempty"`
	History      []GeneratedRecord `json:"history"`
}
