package pod

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hitoshi/subpod/internal/metrics"
	"github.com/hitoshi/subpod/internal/model"
	"github.com/hitoshi/subpod/internal/sbm"
	"github.com/hitoshi/subpod/internal/schedule"
)

// ReadData は指定ケースの連絡先の購読一覧を表示内容に変換する。
//
// 購読一覧の取得失敗はエラー行として表示内容に含める。
// スケジュールの取得・整形に失敗した場合はエラーを返す。
func (p *Pod) ReadData(ctx context.Context, caseID int64) (*model.DisplayContent, error) {
	c, err := p.cases.FindByID(ctx, caseID)
	if err != nil {
		p.metrics.RecordRead(metrics.ReadOutcomeFailed)
		return nil, fmt.Errorf("ケースの取得に失敗しました: %w", err)
	}
	if c == nil {
		p.metrics.RecordRead(metrics.ReadOutcomeFailed)
		return nil, model.NewCaseNotFoundError(caseID)
	}

	page, err := p.subs.GetSubscriptions(ctx, c.Identity())
	if err != nil {
		var svcErr *sbm.ServiceError
		if errors.As(err, &svcErr) {
			p.metrics.RecordRead(metrics.ReadOutcomeServiceError)
			return model.NewInfoContent(model.ItemError, p.sanitizer.Sanitize(svcErr.Detail)), nil
		}
		p.metrics.RecordRead(metrics.ReadOutcomeFailed)
		return nil, fmt.Errorf("購読一覧の取得に失敗しました: %w", err)
	}

	if page.Count < 1 || len(page.Results) == 0 {
		p.metrics.RecordRead(metrics.ReadOutcomeNoSubscriptions)
		return model.NewInfoContent(model.ItemNoSubscriptions, ""), nil
	}

	items, err := p.enrich(ctx, page.Results)
	if err != nil {
		p.metrics.RecordRead(metrics.ReadOutcomeFailed)
		return nil, err
	}

	var activeIDs []model.SubscriptionID
	for _, sub := range page.Results {
		if sub.Active {
			activeIDs = append(activeIDs, sub.ID)
		}
	}

	content := &model.DisplayContent{Items: items, Actions: []model.Action{}}
	if len(activeIDs) > 0 {
		content.Actions = append(content.Actions, model.NewCancelSubscriptionsAction(activeIDs))
	}

	p.metrics.RecordRead(metrics.ReadOutcomeContent)
	return content, nil
}

// enrich は購読ごとの行グループを生成する。
// semaphoreパターンで並列数を制御し、結果は購読の順序どおりに並べる。
// 最初のエラーで残りの処理をキャンセルし、そのエラーを返す。
func (p *Pod) enrich(parent context.Context, subs []model.Subscription) ([]model.Item, error) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	items := make([]model.Item, len(subs))
	sem := make(chan struct{}, p.maxConcurrent)
	var wg sync.WaitGroup
	var once sync.Once
	var firstErr error

	for i := range subs {
		sem <- struct{}{} // semaphore取得（ブロック）
		if ctx.Err() != nil {
			<-sem
			break
		}

		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }() // semaphore解放

			rows, err := p.subscriptionRows(ctx, subs[i])
			if err != nil {
				once.Do(func() {
					firstErr = err
					cancel()
				})
				return
			}
			items[i] = model.Item{Rows: rows}
		}(i)
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := parent.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// subscriptionRows は購読1件分の表示行を生成する。
// メッセージセットが取得できない場合はその行のみ省略する。
func (p *Pod) subscriptionRows(ctx context.Context, sub model.Subscription) ([]model.Row, error) {
	rows := make([]model.Row, 0, 5)

	ms, err := p.subs.GetMessageSet(ctx, sub.MessageSetID)
	switch {
	case err != nil:
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		p.logger.Warn("メッセージセットの取得に失敗したため表示を省略します",
			slog.String("subscription_id", string(sub.ID)),
			slog.Int("messageset_id", sub.MessageSetID),
			slog.String("error", err.Error()),
		)
	case ms != nil:
		rows = append(rows, model.Row{Name: model.RowMessageSet, Value: p.sanitizer.Sanitize(ms.ShortName)})
	}

	rows = append(rows, model.Row{Name: model.RowNextSequenceNumber, Value: sub.NextSequenceNumber})

	sched, err := p.subs.GetSchedule(ctx, sub.ScheduleID)
	if err != nil {
		var svcErr *sbm.ServiceError
		if errors.As(err, &svcErr) {
			return nil, model.NewServiceError(sbm.OpGetSchedule, err)
		}
		return nil, fmt.Errorf("スケジュールの取得に失敗しました: %w", err)
	}
	text, err := schedule.Format(p.humanizer, *sched)
	if err != nil {
		return nil, err
	}
	rows = append(rows,
		model.Row{Name: model.RowSchedule, Value: text},
		model.Row{Name: model.RowActive, Value: sub.Active},
		model.Row{Name: model.RowCompleted, Value: sub.Completed},
	)

	return rows, nil
}
