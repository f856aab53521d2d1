// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 読み取り結果の分類
const (
	ReadOutcomeContent         = "content"
	ReadOutcomeNoSubscriptions = "no_subscriptions"
	ReadOutcomeServiceError    = "service_error"
	ReadOutcomeFailed          = "failed"
)

// アクション結果の分類
const (
	ActionOutcomeSucceeded = "succeeded"
	ActionOutcomeFailed    = "failed"
	ActionOutcomeRejected  = "rejected"
)

// MetricsCollector はメトリクス収集のインターフェース。
// 購読サービスクライアントとpodから利用する。
type MetricsCollector interface {
	RecordSBMCall(operation string, statusCode int, duration time.Duration)
	RecordRead(outcome string)
	RecordAction(actionType, outcome string)
	RecordCancelled(count int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	sbmRequests  *prometheus.CounterVec
	sbmLatency   *prometheus.HistogramVec
	reads        *prometheus.CounterVec
	actions      *prometheus.CounterVec
	cancelledSub prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		sbmRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "subpod_sbm_requests_total",
			Help: "購読サービスへのリクエスト数（操作・ステータス別）",
		}, []string{"operation", "status_code"}),
		sbmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "subpod_sbm_request_duration_seconds",
			Help:    "購読サービス呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		reads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "subpod_reads_total",
			Help: "pod読み取りの結果別件数",
		}, []string{"outcome"}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "subpod_actions_total",
			Help: "podアクションの種別・結果別件数",
		}, []string{"type", "outcome"}),
		cancelledSub: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "subpod_subscriptions_cancelled_total",
			Help: "停止に成功した購読の合計数",
		}),
	}

	reg.MustRegister(
		c.sbmRequests,
		c.sbmLatency,
		c.reads,
		c.actions,
		c.cancelledSub,
	)

	return c
}

// RecordSBMCall は購読サービス呼び出しを記録する。
// statusCodeが0の場合は通信エラーとして記録する。
func (c *Collector) RecordSBMCall(operation string, statusCode int, duration time.Duration) {
	status := "error"
	if statusCode > 0 {
		status = strconv.Itoa(statusCode)
	}
	c.sbmRequests.WithLabelValues(operation, status).Inc()
	c.sbmLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordRead はpod読み取りの結果を記録する。
func (c *Collector) RecordRead(outcome string) {
	c.reads.WithLabelValues(outcome).Inc()
}

// RecordAction はアクション実行の結果を記録する。
func (c *Collector) RecordAction(actionType, outcome string) {
	c.actions.WithLabelValues(actionType, outcome).Inc()
}

// RecordCancelled は停止に成功した購読数を記録する。
func (c *Collector) RecordCancelled(count int) {
	c.cancelledSub.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// NopCollector は何も記録しないMetricsCollector。
type NopCollector struct{}

func (NopCollector) RecordSBMCall(string, int, time.Duration) {}
func (NopCollector) RecordRead(string)                        {}
func (NopCollector) RecordAction(string, string)              {}
func (NopCollector) RecordCancelled(int)                      {}
