// Package pod はケース詳細画面に購読情報を表示し、一括停止を行うpodを提供する。
// 表示内容の生成（ReadData）とアクションの実行（PerformAction）を担う。
package pod

import (
	"context"
	"log/slog"

	"github.com/hitoshi/subpod/internal/config"
	"github.com/hitoshi/subpod/internal/metrics"
	"github.com/hitoshi/subpod/internal/model"
	"github.com/hitoshi/subpod/internal/repository"
	"github.com/hitoshi/subpod/internal/schedule"
	"github.com/hitoshi/subpod/internal/security"
)

// SubscriptionService は購読サービスへの問い合わせインターフェース。
// sbm.Clientが実装する。
type SubscriptionService interface {
	GetSubscriptions(ctx context.Context, identity string) (*model.SubscriptionPage, error)
	// GetMessageSet は存在しない場合nil, nilを返す。
	GetMessageSet(ctx context.Context, id int) (*model.MessageSet, error)
	GetSchedule(ctx context.Context, id int) (*model.Schedule, error)
	UpdateSubscription(ctx context.Context, id model.SubscriptionID, update model.SubscriptionUpdate) error
}

// DefaultMaxConcurrent は購読ごとの補完処理の既定並列数。
const DefaultMaxConcurrent = 4

// Options はPodの動作設定。
type Options struct {
	// MaxConcurrent は購読ごとの補完（メッセージセット・スケジュール取得）の最大並列数。
	// 1で逐次実行、0以下でDefaultMaxConcurrentを使用する。
	MaxConcurrent int
}

// actionHandler はアクション種別ごとの処理。
type actionHandler func(ctx context.Context, payload []byte) (*model.ActionResult, error)

// Pod は購読podの本体。
// 生成後は変更されないため、複数のリクエストから同時に利用できる。
type Pod struct {
	cases         repository.CaseRepository
	subs          SubscriptionService
	humanizer     schedule.Humanizer
	sanitizer     security.TextSanitizer
	logger        *slog.Logger
	metrics       metrics.MetricsCollector
	maxConcurrent int
	actions       map[model.ActionType]actionHandler
}

// New はPodの新しいインスタンスを生成する。
func New(
	cases repository.CaseRepository,
	subs SubscriptionService,
	humanizer schedule.Humanizer,
	sanitizer security.TextSanitizer,
	logger *slog.Logger,
	mc metrics.MetricsCollector,
	opts Options,
) *Pod {
	if mc == nil {
		mc = metrics.NopCollector{}
	}
	maxConcurrent := opts.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}

	p := &Pod{
		cases:         cases,
		subs:          subs,
		humanizer:     humanizer,
		sanitizer:     sanitizer,
		logger:        logger,
		metrics:       mc,
		maxConcurrent: maxConcurrent,
	}
	p.actions = map[model.ActionType]actionHandler{
		model.ActionCancelSubscriptions: p.cancelSubscriptions,
	}
	return p
}

// Metadata はホストに登録するpodの情報。
type Metadata struct {
	Name         string                        `json:"name"`
	Label        string                        `json:"label"`
	Title        string                        `json:"title"`
	Directive    string                        `json:"directive"`
	Scripts      []string                      `json:"scripts"`
	Styles       []string                      `json:"styles"`
	ConfigSchema map[string]config.FieldSchema `json:"config_schema"`
}

// Describe はpodのメタデータを返す。
func Describe() Metadata {
	return Metadata{
		Name:         "casepropods.family_connect_subscription",
		Label:        "family_connect_subscription_pod",
		Title:        "Subscription Pod",
		Directive:    "subscription-pod",
		Scripts:      []string{"subscription_pod_directives.js"},
		Styles:       []string{"subscription_pod.css"},
		ConfigSchema: config.PodConfigSchema,
	}
}
