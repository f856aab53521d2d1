// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// ホストUIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: case, validation, service, system
	Action   string // ユーザー向け対処方法
	Err      error  // 原因となったエラー（レスポンスには含めない）
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap は原因となったエラーを返す。
func (e *APIError) Unwrap() error {
	return e.Err
}

// 定義済みエラーコード
const (
	ErrCodeCaseNotFound         = "CASE_NOT_FOUND"
	ErrCodeInvalidCaseID        = "INVALID_CASE_ID"
	ErrCodeUnknownAction        = "UNKNOWN_ACTION"
	ErrCodeInvalidActionPayload = "INVALID_ACTION_PAYLOAD"
	ErrCodeServiceError         = "SERVICE_ERROR"
)

// NewCaseNotFoundError はケース未検出エラーを生成する。
func NewCaseNotFoundError(caseID int64) *APIError {
	return &APIError{
		Code:     ErrCodeCaseNotFound,
		Message:  fmt.Sprintf("指定されたケースが見つかりません: %d", caseID),
		Category: "case",
		Action:   "ケースIDを確認してください。",
	}
}

// NewInvalidCaseIDError はケースIDが不正な場合のエラーを生成する。
func NewInvalidCaseIDError(raw string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCaseID,
		Message:  fmt.Sprintf("無効なケースIDです: %q", raw),
		Category: "validation",
		Action:   "case_id には整数を指定してください。",
	}
}

// NewUnknownActionError は未対応のアクション種別が指定された場合のエラーを生成する。
func NewUnknownActionError(actionType string) *APIError {
	return &APIError{
		Code:     ErrCodeUnknownAction,
		Message:  fmt.Sprintf("未対応のアクションです: %q", actionType),
		Category: "validation",
		Action:   "podが提示したアクションのみ実行できます。",
	}
}

// NewInvalidActionPayloadError はアクションのペイロードが解析できない場合のエラーを生成する。
func NewInvalidActionPayloadError(actionType string, err error) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidActionPayload,
		Message:  fmt.Sprintf("アクションのペイロードが不正です: %s", actionType),
		Category: "validation",
		Action:   "正しいJSON形式のペイロードを指定してください。",
		Err:      err,
	}
}

// NewServiceError は購読サービスの呼び出し失敗を表すエラーを生成する。
func NewServiceError(operation string, err error) *APIError {
	return &APIError{
		Code:     ErrCodeServiceError,
		Message:  fmt.Sprintf("購読サービスの呼び出しに失敗しました: %s", operation),
		Category: "service",
		Action:   "しばらく待ってから再度お試しください。",
		Err:      err,
	}
}

// ConfigError はpod設定の検証エラーを表す。
// 起動時に検出され、ホストへそのまま返される。
type ConfigError struct {
	Field  string
	Reason string
}

// Error はerrorインターフェースを実装する。
func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid pod config: %s: %s", e.Field, e.Reason)
}
