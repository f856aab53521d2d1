package pod

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/subpod/internal/metrics"
	"github.com/hitoshi/subpod/internal/model"
	"github.com/hitoshi/subpod/internal/sbm"
)

// PerformAction は指定種別のアクションを実行する。
// 未対応の種別はUNKNOWN_ACTION、ペイロードの解析失敗はINVALID_ACTION_PAYLOADのエラーを返す。
func (p *Pod) PerformAction(ctx context.Context, actionType string, payload json.RawMessage) (*model.ActionResult, error) {
	handler, ok := p.actions[model.ActionType(actionType)]
	if !ok {
		p.metrics.RecordAction("unknown", metrics.ActionOutcomeRejected)
		return nil, model.NewUnknownActionError(actionType)
	}
	return handler(ctx, payload)
}

// cancelSubscriptions は指定された購読を順に停止する。
// 最初の失敗で中断し、残りの購読には更新を送らない。
func (p *Pod) cancelSubscriptions(ctx context.Context, payload []byte) (*model.ActionResult, error) {
	actionType := string(model.ActionCancelSubscriptions)

	var req model.CancelSubscriptionsPayload
	if trimmed := bytes.TrimSpace(payload); len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
		if err := json.Unmarshal(trimmed, &req); err != nil {
			p.metrics.RecordAction(actionType, metrics.ActionOutcomeRejected)
			return nil, model.NewInvalidActionPayloadError(actionType, err)
		}
	}

	inactive := false
	update := model.SubscriptionUpdate{Active: &inactive}

	for n, id := range req.SubscriptionIDs {
		if err := p.subs.UpdateSubscription(ctx, id, update); err != nil {
			p.metrics.RecordCancelled(n)

			p.metrics.RecordAction(actionType, metrics.ActionOutcomeFailed)

			var svcErr *sbm.ServiceError
			if errors.As(err, &svcErr) {
				p.logger.Warn("購読の停止に失敗したため処理を中断しました",
					slog.String("subscription_id", string(id)),
					slog.Int("cancelled", n),
					slog.Int("requested", len(req.SubscriptionIDs)),
					slog.String("error", err.Error()),
				)
				return model.NewActionResult(false, model.CancelFailedMsg), nil
			}
			return nil, fmt.Errorf("購読の停止に失敗しました: %w", err)
		}
	}

	p.metrics.RecordCancelled(len(req.SubscriptionIDs))
	p.metrics.RecordAction(actionType, metrics.ActionOutcomeSucceeded)
	p.logger.Info("購読を一括停止しました", slog.Int("count", len(req.SubscriptionIDs)))
	return model.NewActionResult(true, model.CancelSucceededMsg), nil
}
