package sbm

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// ServiceError は購読サービスの呼び出し失敗を表す。
// HTTPエラーステータスと通信エラーの両方をこの型で返す。
type ServiceError struct {
	Operation  string
	StatusCode int    // 通信エラーの場合は0
	Detail     string // レスポンスのdetailフィールド、なければ要約
	Err        error
}

// Error はerrorインターフェースを実装する。
func (e *ServiceError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("sbm %s: %s", e.Operation, e.Detail)
	}
	return fmt.Sprintf("sbm %s: status %d: %s", e.Operation, e.StatusCode, e.Detail)
}

// Unwrap は原因となったエラーを返す。
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// IsNotFound はサービスが404を返したかを判定する。
func (e *ServiceError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// maxDetailLength はdetailとして本文をそのまま使う場合の最大長。
const maxDetailLength = 200

// extractDetail はエラーレスポンス本文からdetailを取り出す。
// DRF形式の {"detail": "..."} を優先し、なければ短い本文かステータステキストを返す。
func extractDetail(statusCode int, body []byte) string {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
		return payload.Detail
	}

	text := strings.TrimSpace(string(body))
	if text != "" && len(text) <= maxDetailLength && !strings.HasPrefix(text, "<") {
		return text
	}

	if st := http.StatusText(statusCode); st != "" {
		return st
	}
	return fmt.Sprintf("unexpected status %d", statusCode)
}
