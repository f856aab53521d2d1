package model

// 表示ラベル
const (
	RowMessageSet         = "Message Set"
	RowNextSequenceNumber = "Next Sequence Number"
	RowSchedule           = "Schedule"
	RowActive             = "Active"
	RowCompleted          = "Completed"

	ItemError           = "Error"
	ItemNoSubscriptions = "No subscriptions"
)

// Row は表示用の名前と値の組。
type Row struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// Item はDisplayContentの1要素。
// 購読1件分の行グループ（Rows）か、単独の情報行（Name/Value）のいずれか。
type Item struct {
	Name  string `json:"name,omitempty"`
	Value any    `json:"value,omitempty"`
	Rows  []Row  `json:"rows,omitempty"`
}

// NewInfoItem は単独の情報行を生成する。
func NewInfoItem(name string, value any) Item {
	return Item{Name: name, Value: value}
}

// DisplayContent はpodがホストへ返す表示内容。
// リクエストごとに生成され、状態を持たない。
type DisplayContent struct {
	Items   []Item   `json:"items"`
	Actions []Action `json:"actions"`
}

// NewInfoContent は単独の情報行のみでアクションを持たない表示内容を生成する。
func NewInfoContent(name string, value any) *DisplayContent {
	return &DisplayContent{
		Items:   []Item{NewInfoItem(name, value)},
		Actions: []Action{},
	}
}
