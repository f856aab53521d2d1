package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/subpod/internal/config"
	"github.com/hitoshi/subpod/internal/database"
	"github.com/hitoshi/subpod/internal/handler"
	"github.com/hitoshi/subpod/internal/logger"
	"github.com/hitoshi/subpod/internal/metrics"
	"github.com/hitoshi/subpod/internal/middleware"
	"github.com/hitoshi/subpod/internal/pod"
	"github.com/hitoshi/subpod/internal/repository"
	"github.com/hitoshi/subpod/internal/sbm"
	"github.com/hitoshi/subpod/internal/schedule"
	"github.com/hitoshi/subpod/internal/security"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定されたログレベルを反映する
	if !logger.SetLevel(cfg.LogLevel) {
		slog.Warn("unknown LOG_LEVEL, falling back to info", slog.String("log_level", cfg.LogLevel))
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("sbm_url", cfg.Pod.URL),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// buildRouter はケースストア接続と設定からpodを組み立て、ルーターを返す。
// 返り値のstop関数はバックグラウンド処理（レート制限のクリーンアップ）を停止する。
func buildRouter(cfg *config.Config, db *sql.DB, reg *prometheus.Registry) (http.Handler, func(), error) {
	// 1. リポジトリの初期化
	caseRepo := repository.NewPostgresCaseRepo(db)

	// 2. 購読サービスクライアントの初期化
	if err := security.ValidateServiceURL(cfg.Pod.URL, cfg.SBMStrictSSRF); err != nil {
		return nil, nil, fmt.Errorf("invalid SBM URL: %w", err)
	}
	collector := metrics.NewCollector(reg)
	sbmClient, err := sbm.NewClient(
		security.NewOutboundClient(cfg.SBMTimeout, cfg.SBMStrictSSRF),
		slog.Default(),
		collector,
		sbm.ClientConfig{
			BaseURL:   cfg.Pod.URL,
			Token:     cfg.Pod.Token,
			RateLimit: cfg.SBMRateLimit,
		},
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create SBM client: %w", err)
	}

	// 3. 表示用の変換処理の初期化
	humanizer, err := schedule.NewCronHumanizer()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create schedule humanizer: %w", err)
	}
	sanitizer := security.NewTextSanitizer()

	// 4. podの初期化
	p := pod.New(caseRepo, sbmClient, humanizer, sanitizer, slog.Default(), collector, pod.Options{
		MaxConcurrent: cfg.EnrichMaxConcurrent,
	})

	// 5. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(middleware.NewRateLimiterConfig(cfg.RateLimitGeneral))

	router := handler.NewRouter(&handler.RouterDeps{
		Logger:          slog.Default(),
		HealthChecker:   db,
		RateLimiter:     rateLimiter,
		HostToken:       cfg.HostToken,
		MetricsGatherer: reg,
		Pod:             p,
		PodMetadata:     pod.Describe(),
	})

	return router, rateLimiter.Stop, nil
}

// runServe はpodのHTTPサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. メトリクスレジストリ（プロセス・Goランタイムの標準メトリクスを含む）
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// 3. ワイヤリング
	router, stop, err := buildRouter(cfg, db, reg)
	if err != nil {
		return err
	}
	defer stop()

	// 4. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.SBMTimeout*2 + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("pod server starting",
			slog.String("addr", server.Addr),
			slog.Int("enrich_max_concurrent", cfg.EnrichMaxConcurrent),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-sigCh:
	case err := <-errCh:
		return fmt.Errorf("server listen error: %w", err)
	}
	slog.Info("shutting down pod server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("pod server stopped gracefully")
	return nil
}

// runMigrate はケースストアのマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	target := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(target)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLのパスワードをマスクする。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}
