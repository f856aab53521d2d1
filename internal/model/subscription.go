package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// SubscriptionID は購読サービス上の購読IDを表す。
// JSONでは文字列・数値のどちらでも受け付ける。
type SubscriptionID string

// UnmarshalJSON は文字列または数値のIDをデコードする。
func (id *SubscriptionID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = SubscriptionID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("subscription id must be a string or number: %s", data)
	}
	if _, err := strconv.ParseInt(n.String(), 10, 64); err != nil {
		return fmt.Errorf("subscription id must be an integer: %s", n)
	}
	*id = SubscriptionID(n.String())
	return nil
}

// Subscription は連絡先のメッセージセットへの登録を表す。
// 購読サービスが所有し、読み取りの度に取得し直す。
type Subscription struct {
	ID                 SubscriptionID `json:"id"`
	Identity           string         `json:"identity"`
	MessageSetID       int            `json:"messageset"`
	NextSequenceNumber int            `json:"next_sequence_number"`
	Lang               string         `json:"lang"`
	ScheduleID         int            `json:"schedule"`
	Active             bool           `json:"active"`
	Completed          bool           `json:"completed"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// SubscriptionPage は購読一覧APIの1ページ分のレスポンス。
type SubscriptionPage struct {
	Count   int            `json:"count"`
	Results []Subscription `json:"results"`
}

// MessageSet は購読が順に配信するメッセージの集合。
type MessageSet struct {
	ID        int    `json:"id"`
	ShortName string `json:"short_name"`
}

// Schedule はメッセージ配信タイミングを表すcron形式の5フィールド。
type Schedule struct {
	ID          int    `json:"id"`
	Minute      string `json:"minute"`
	Hour        string `json:"hour"`
	DayOfMonth  string `json:"day_of_month"`
	MonthOfYear string `json:"month_of_year"`
	DayOfWeek   string `json:"day_of_week"`
}

// SubscriptionUpdate は購読の部分更新リクエスト。
type SubscriptionUpdate struct {
	Active *bool `json:"active,omitempty"`
}
