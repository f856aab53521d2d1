package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// findFamily は指定名のメトリクスファミリーを返す。
func findFamily(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	t.Fatalf("%s metric not found", name)
	return nil
}

// labelValue は指定ラベルの値を返す。
func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	if c := NewCollector(reg); c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// TestRecordSBMCall_LabelsByOperationAndStatus は操作・ステータス別にカウントされることを検証する。
func TestRecordSBMCall_LabelsByOperationAndStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSBMCall("get_subscriptions", 200, 10*time.Millisecond)
	c.RecordSBMCall("get_subscriptions", 200, 20*time.Millisecond)
	c.RecordSBMCall("get_schedule", 0, time.Second)

	mf := findFamily(t, reg, "subpod_sbm_requests_total")
	if len(mf.GetMetric()) != 2 {
		t.Fatalf("expected 2 label combinations, got %d", len(mf.GetMetric()))
	}
	for _, m := range mf.GetMetric() {
		op := labelValue(m, "operation")
		status := labelValue(m, "status_code")
		val := m.GetCounter().GetValue()
		switch op {
		case "get_subscriptions":
			if status != "200" || val != 2 {
				t.Errorf("get_subscriptions{status_code=%s} = %v, want 200 x2", status, val)
			}
		case "get_schedule":
			if status != "error" || val != 1 {
				t.Errorf("get_schedule{status_code=%s} = %v, want error x1", status, val)
			}
		default:
			t.Errorf("unexpected operation label %q", op)
		}
	}

	latency := findFamily(t, reg, "subpod_sbm_request_duration_seconds")
	var samples uint64
	for _, m := range latency.GetMetric() {
		samples += m.GetHistogram().GetSampleCount()
	}
	if samples != 3 {
		t.Errorf("latency sample count = %d, want 3", samples)
	}
}

// TestRecordRead_IncrementsByOutcome は読み取り結果がラベル別に記録されることを検証する。
func TestRecordRead_IncrementsByOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRead(ReadOutcomeContent)
	c.RecordRead(ReadOutcomeContent)
	c.RecordRead(ReadOutcomeServiceError)

	mf := findFamily(t, reg, "subpod_reads_total")
	for _, m := range mf.GetMetric() {
		switch labelValue(m, "outcome") {
		case ReadOutcomeContent:
			if v := m.GetCounter().GetValue(); v != 2 {
				t.Errorf("reads_total{content} = %v, want 2", v)
			}
		case ReadOutcomeServiceError:
			if v := m.GetCounter().GetValue(); v != 1 {
				t.Errorf("reads_total{service_error} = %v, want 1", v)
			}
		}
	}
}

// TestRecordActionAndCancelled はアクション結果と停止件数が記録されることを検証する。
func TestRecordActionAndCancelled(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordAction("cancel_subs", ActionOutcomeSucceeded)
	c.RecordCancelled(3)
	c.RecordCancelled(2)

	actions := findFamily(t, reg, "subpod_actions_total")
	if len(actions.GetMetric()) != 1 {
		t.Fatalf("expected 1 action series, got %d", len(actions.GetMetric()))
	}
	m := actions.GetMetric()[0]
	if labelValue(m, "type") != "cancel_subs" || labelValue(m, "outcome") != ActionOutcomeSucceeded {
		t.Errorf("unexpected labels: %v", m.GetLabel())
	}

	cancelled := findFamily(t, reg, "subpod_subscriptions_cancelled_total")
	if v := cancelled.GetMetric()[0].GetCounter().GetValue(); v != 5 {
		t.Errorf("subscriptions_cancelled_total = %v, want 5", v)
	}
}

// TestNopCollector_ImplementsInterface はNopCollectorがインターフェースを満たすことを検証する。
func TestNopCollector_ImplementsInterface(t *testing.T) {
	var c MetricsCollector = NopCollector{}
	c.RecordSBMCall("x", 200, time.Millisecond)
	c.RecordRead(ReadOutcomeContent)
	c.RecordAction("cancel_subs", ActionOutcomeFailed)
	c.RecordCancelled(1)

	var _ MetricsCollector = (*Collector)(nil)
}
