package domain

import (
	"fmt"
	"strings"
)

// Model はリモートの画像生成モデルの識別子です。
type Model string

const (
	ModelFlash Model = "gemini-2.5-flash-image"
	ModelPro   Model = "gemini-3-pro-image-preview"
)

// ModelSpec はモデル（ティア）ごとの能力を宣言します。
// 新しいティアは識別子で分岐せず、ここに能力を宣言して追加します。
type ModelSpec struct {
	Name        Model
	DisplayName string
	Alias       string

	// SupportsExplicitResolution が false のモデルは解像度指定を受け付けず、自動選択になります。
	SupportsExplicitResolution bool
	// RequiresUserKey が true のモデルはユーザー自身が選択した API キーを必要とします。
	RequiresUserKey bool
}

// ModelSpecs はモデルとその能力の対応表です。
var ModelSpecs = map[Model]ModelSpec{
	ModelFlash: {
		Name:        ModelFlash,
		DisplayName: "Flash",
		Alias:       "flash",
	},
	ModelPro: {
		Name:                       ModelPro,
		DisplayName:                "3 Pro",
		Alias:                      "pro",
		SupportsExplicitResolution: true,
		RequiresUserKey:            true,
	},
}

// LookupModel はモデルの能力を返します。未知のモデルはエラーです。
func LookupModel(m Model) (ModelSpec, error) {
	spec, ok := ModelSpecs[m]
	if !ok {
		return ModelSpec{}, fmt.Errorf("unknown model: %s", m)
	}
	return spec, nil
}

// ParseModel は識別子またはエイリアス（flash, pro）からモデルを解決します。
func ParseModel(s string) (Model, error) {
	s = strings.TrimSpace(s)
	for name, spec := range ModelSpecs {
		if string(name) == s || strings.EqualFold(spec.Alias, s) {
			return name, nil
		}
	}
	return "", fmt.Errorf("unknown model: %s", s)
}

// ParseAspectRatio は文字列を AspectRatio に変換します。
func ParseAspectRatio(s string) (AspectRatio, error) {
	for _, a := range AspectRatios {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("unsupported aspect ratio: %s", s)
}

// ParseResolution は文字列を Resolution に変換します。大文字小文字は区別しません。
func ParseResolution(s string) (Resolution, error) {
	for _, r := range Resolutions {
		if strings.EqualFold(string(r), s) {
			return r, nil
		}
	}
	return "", fmt.Errorf("unsupported resolution: %s", s)
}

// ParseStyle はラベルを Style に変換します。
func ParseStyle(s string) (Style, error) {
	for _, st := range Styles {
		if strings.EqualFold(string(st), strings.TrimSpace(s)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unsupported style: %s", s)
}
