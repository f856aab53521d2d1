package model

// ActionType はpodが提供するアクションの種別。
type ActionType string

const (
	// ActionCancelSubscriptions は有効な購読を一括で停止するアクション。
	ActionCancelSubscriptions ActionType = "cancel_subs"
)

// 一括停止アクションの表示文言と結果メッセージ
const (
	CancelActionName     = "Cancel All Subscriptions"
	CancelActionBusyText = "Cancelling..."
	CancelSucceededMsg   = "cancelled all subscriptions"
	CancelFailedMsg      = "Failed to cancel some subscriptions"
)

// Action はホストUIに提示する実行可能な操作を表す。
type Action struct {
	Type     ActionType `json:"type"`
	Name     string     `json:"name"`
	Confirm  bool       `json:"confirm"`
	BusyText string     `json:"busy_text"`
	Payload  any        `json:"payload"`
}

// CancelSubscriptionsPayload はcancel_subsアクションのペイロード。
type CancelSubscriptionsPayload struct {
	SubscriptionIDs []SubscriptionID `json:"subscription_ids"`
}

// NewCancelSubscriptionsAction は指定された購読IDを停止するアクションを生成する。
func NewCancelSubscriptionsAction(ids []SubscriptionID) Action {
	return Action{
		Type:     ActionCancelSubscriptions,
		Name:     CancelActionName,
		Confirm:  true,
		BusyText: CancelActionBusyText,
		Payload:  CancelSubscriptionsPayload{SubscriptionIDs: ids},
	}
}

// ActionMessage はアクション結果のペイロード。
type ActionMessage struct {
	Message string `json:"message"`
}

// ActionResult はアクション実行結果。
type ActionResult struct {
	Success bool          `json:"success"`
	Payload ActionMessage `json:"payload"`
}

// NewActionResult はアクション実行結果を生成する。
func NewActionResult(success bool, message string) *ActionResult {
	return &ActionResult{
		Success: success,
		Payload: ActionMessage{Message: message},
	}
}
