// Package handler はホスト向けのHTTPハンドラーとルーティングを提供する。
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/subpod/internal/metrics"
	"github.com/hitoshi/subpod/internal/middleware"
	"github.com/hitoshi/subpod/internal/pod"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Logger        *slog.Logger
	HealthChecker HealthChecker
	RateLimiter   *middleware.RateLimiter
	// HostToken が空でない場合、/pod 以下は Authorization: Token <HostToken> を要求する。
	HostToken string
	// MetricsGatherer がnilの場合は /metrics を公開しない。
	MetricsGatherer prometheus.Gatherer

	Pod         PodService
	PodMetadata pod.Metadata
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → RealIP → Logging → Recovery → (/pod) HostAuth → RateLimit
//
// /health と /metrics は認証・レート制限の対象外とする。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewRecoveryMiddleware(logger))

	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	if deps.MetricsGatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	podHandler := NewPodHandler(deps.Pod, deps.PodMetadata)

	r.Route("/pod", func(r chi.Router) {
		r.Use(middleware.NewHostAuthMiddleware(deps.HostToken))
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.Middleware())
		}

		r.Get("/", podHandler.Describe)
		r.Get("/read", podHandler.Read)
		r.Post("/action", podHandler.Action)
	})

	return r
}
