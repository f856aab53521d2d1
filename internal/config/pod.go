package config

import (
	"net/url"

	"github.com/hitoshi/subpod/internal/model"
)

// PodConfig は購読podの設定。
// 構築後は変更しない。
type PodConfig struct {
	// URL は購読サービスのベースURL。
	URL string
	// Token は購読サービスの認証トークン。
	Token string
}

// FieldSchema はpod設定項目の宣言。
type FieldSchema struct {
	Type        string `json:"type"`
	Required    bool   `json:"required"`
	Description string `json:"description"`
}

// PodConfigSchema はホストに公開するpod設定のスキーマ。
var PodConfigSchema = map[string]FieldSchema{
	"url": {
		Type:        "string",
		Required:    true,
		Description: "URL to query for the registration data",
	},
	"token": {
		Type:        "string",
		Required:    true,
		Description: "Authentication token for registration endpoint",
	},
}

// NewPodConfig は設定マッピングを検証してPodConfigを生成する。
// url と token はいずれも空でない文字列でなければならない。
func NewPodConfig(raw map[string]any) (*PodConfig, error) {
	u, err := requiredString(raw, "url")
	if err != nil {
		return nil, err
	}
	token, err := requiredString(raw, "token")
	if err != nil {
		return nil, err
	}

	parsed, err := url.Parse(u)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, &model.ConfigError{Field: "url", Reason: "must be an absolute http(s) URL"}
	}

	return &PodConfig{URL: u, Token: token}, nil
}

func requiredString(raw map[string]any, key string) (string, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return "", &model.ConfigError{Field: key, Reason: "is required"}
	}
	s, ok := v.(string)
	if !ok {
		return "", &model.ConfigError{Field: key, Reason: "must be a string"}
	}
	if s == "" {
		return "", &model.ConfigError{Field: key, Reason: "must not be empty"}
	}
	return s, nil
}
