// Package schedule は購読スケジュール（cron形式の5フィールド）を
// 人が読める文に変換する。
package schedule

import (
	"fmt"
	"strings"

	"github.com/lnquy/cron"

	"github.com/hitoshi/subpod/internal/model"
)

// Humanizer はcron式を自然文に変換する。
type Humanizer interface {
	Prettify(expr string) (string, error)
}

// Expression はスケジュールを "minute hour day_of_month month_of_year day_of_week" の
// 標準5フィールドcron式に組み立てる。
func Expression(s model.Schedule) string {
	return strings.Join([]string{s.Minute, s.Hour, s.DayOfMonth, s.MonthOfYear, s.DayOfWeek}, " ")
}

// Format はスケジュールをhumanizerで自然文に変換する。
// humanizerのエラーはそのまま返す。
func Format(h Humanizer, s model.Schedule) (string, error) {
	expr := Expression(s)
	text, err := h.Prettify(expr)
	if err != nil {
		return "", fmt.Errorf("failed to describe schedule %q: %w", expr, err)
	}
	return text, nil
}

// CronHumanizer はlnquy/cronの英語ロケールを使うHumanizer。
// ExpressionDescriptorは読み取り専用で共有できる。
type CronHumanizer struct {
	descriptor *cron.ExpressionDescriptor
}

// NewCronHumanizer はCronHumanizerを生成する。時刻は24時間表記で出力する。
func NewCronHumanizer() (*CronHumanizer, error) {
	d, err := cron.NewDescriptor(
		cron.Use24HourTimeFormat(true),
		cron.DayOfWeekStartsAtOne(false),
		cron.SetLocales(cron.Locale_en),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cron descriptor: %w", err)
	}
	return &CronHumanizer{descriptor: d}, nil
}

// Prettify はcron式を英語の説明文に変換する。
func (h *CronHumanizer) Prettify(expr string) (string, error) {
	return h.descriptor.ToDescription(expr, cron.Locale_en)
}
