// Package sbm はstage-based messaging（購読サービス）APIのクライアントを提供する。
// 購読一覧の取得、メッセージセット・スケジュールの参照、購読の更新を含む。
package sbm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/hitoshi/subpod/internal/metrics"
	"github.com/hitoshi/subpod/internal/model"
)

// 操作名（ログとメトリクスのラベルに使用）
const (
	OpGetSubscriptions   = "get_subscriptions"
	OpGetMessageSet      = "get_messageset"
	OpGetSchedule        = "get_schedule"
	OpUpdateSubscription = "update_subscription"
)

const (
	// maxResponseSize はレスポンスボディの最大読み取りサイズ。
	maxResponseSize = 5 << 20
	userAgent       = "subpod/1.0"
)

// ClientConfig はClientの接続設定。
type ClientConfig struct {
	// BaseURL は購読サービスのベースURL（例: http://sbm/api/v1/）。
	BaseURL string
	// Token は Authorization: Token ヘッダーに使う認証トークン。
	Token string
	// RateLimit は送信リクエストの上限（req/sec）。0以下で無制限。
	RateLimit float64
}

// Client は購読サービスAPIのクライアント。
// 状態を持たないため、複数のgoroutineから同時に利用できる。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    metrics.MetricsCollector
	baseURL    *url.URL
	token      string
	limiter    *rate.Limiter
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, logger *slog.Logger, mc metrics.MetricsCollector, cfg ClientConfig) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid sbm base URL: %w", err)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	if mc == nil {
		mc = metrics.NopCollector{}
	}

	c := &Client{
		httpClient: httpClient,
		logger:     logger,
		metrics:    mc,
		baseURL:    base,
		token:      cfg.Token,
	}
	if cfg.RateLimit > 0 {
		burst := int(cfg.RateLimit)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return c, nil
}

// GetSubscriptions は指定identityの購読一覧（先頭1ページ）を取得する。
func (c *Client) GetSubscriptions(ctx context.Context, identity string) (*model.SubscriptionPage, error) {
	q := url.Values{}
	q.Set("identity", identity)

	var page model.SubscriptionPage
	if err := c.do(ctx, OpGetSubscriptions, http.MethodGet, "subscriptions/", q, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetMessageSet は指定IDのメッセージセットを取得する。
// 存在しない場合はnil, nilを返す。
func (c *Client) GetMessageSet(ctx context.Context, id int) (*model.MessageSet, error) {
	var ms model.MessageSet
	err := c.do(ctx, OpGetMessageSet, http.MethodGet, "messageset/"+strconv.Itoa(id)+"/", nil, nil, &ms)
	if err != nil {
		var svcErr *ServiceError
		if errors.As(err, &svcErr) && svcErr.IsNotFound() {
			return nil, nil
		}
		return nil, err
	}
	return &ms, nil
}

// GetSchedule は指定IDのスケジュールを取得する。
func (c *Client) GetSchedule(ctx context.Context, id int) (*model.Schedule, error) {
	var s model.Schedule
	if err := c.do(ctx, OpGetSchedule, http.MethodGet, "schedule/"+strconv.Itoa(id)+"/", nil, nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// UpdateSubscription は購読を部分更新する（PATCH）。
func (c *Client) UpdateSubscription(ctx context.Context, id model.SubscriptionID, update model.SubscriptionUpdate) error {
	body, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("failed to encode subscription update: %w", err)
	}
	if id == "" || strings.Contains(string(id), "/") {
		return &ServiceError{Operation: OpUpdateSubscription, Detail: fmt.Sprintf("invalid subscription id %q", id)}
	}
	return c.do(ctx, OpUpdateSubscription, http.MethodPatch, "subscriptions/"+string(id)+"/", nil, body, nil)
}

// do はリクエストを送信し、2xxの場合はレスポンスをoutにデコードする。
// 2xx以外と通信エラーは*ServiceErrorとして返す。コンテキストのキャンセルはそのまま返す。
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body []byte, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("sbm %s: rate limiter: %w", op, err)
		}
	}

	ref := &url.URL{Path: path}
	if query != nil {
		ref.RawQuery = query.Encode()
	}
	reqURL := c.baseURL.ResolveReference(ref)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("sbm %s: failed to build request: %w", op, err)
	}
	req.Header.Set("Authorization", "Token "+c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordSBMCall(op, 0, time.Since(start))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		c.logger.Error("購読サービスの呼び出しに失敗しました",
			slog.String("operation", op),
			slog.String("error", err.Error()),
		)
		return &ServiceError{Operation: op, Detail: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	c.metrics.RecordSBMCall(op, resp.StatusCode, time.Since(start))
	if err != nil {
		return &ServiceError{Operation: op, StatusCode: resp.StatusCode, Detail: err.Error(), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := extractDetail(resp.StatusCode, respBody)
		level := slog.LevelError
		if resp.StatusCode == http.StatusNotFound {
			level = slog.LevelDebug
		}
		c.logger.Log(ctx, level, "購読サービスがエラーステータスを返しました",
			slog.String("operation", op),
			slog.Int("http_status", resp.StatusCode),
			slog.String("detail", detail),
		)
		return &ServiceError{Operation: op, StatusCode: resp.StatusCode, Detail: detail}
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		c.logger.Error("購読サービスのレスポンスのパースに失敗しました",
			slog.String("operation", op),
			slog.String("error", err.Error()),
		)
		return &ServiceError{Operation: op, StatusCode: resp.StatusCode, Detail: "invalid JSON response", Err: err}
	}
	return nil
}
