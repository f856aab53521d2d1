package security

import (
	"html"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer は外部サービス由来の文字列を表示用のプレーンテキストに整える。
type TextSanitizer interface {
	// Sanitize は全てのHTMLタグを除去したテキストを返す。
	// script, styleなどの要素は内容ごと除去される。
	Sanitize(s string) string
}

// textSanitizer はbluemondayのStrictPolicyを使うTextSanitizerの実装。
// Policyはスレッドセーフに利用できる。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerの新しいインスタンスを生成する。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize はタグを除去し、エスケープされた実体参照を元の文字に戻す。
// ホストUIは値をテキストとしてバインドするため、二重エスケープを避ける。
func (s *textSanitizer) Sanitize(in string) string {
	if in == "" {
		return ""
	}
	return html.UnescapeString(s.policy.Sanitize(in))
}
