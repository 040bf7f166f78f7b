// Package app はアプリケーションの起動と依存関係のワイヤリングを行う。
package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hitoshi/arxivnotify/internal/config"
	"github.com/hitoshi/arxivnotify/internal/database"
	"github.com/hitoshi/arxivnotify/internal/handler"
	"github.com/hitoshi/arxivnotify/internal/logger"
	"github.com/hitoshi/arxivnotify/internal/matcher"
	"github.com/hitoshi/arxivnotify/internal/metrics"
	"github.com/hitoshi/arxivnotify/internal/middleware"
	"github.com/hitoshi/arxivnotify/internal/notify"
	"github.com/hitoshi/arxivnotify/internal/paper"
	"github.com/hitoshi/arxivnotify/internal/recommend"
	"github.com/hitoshi/arxivnotify/internal/repository"
	"github.com/hitoshi/arxivnotify/internal/security"
	"github.com/hitoshi/arxivnotify/internal/settings"
	"github.com/hitoshi/arxivnotify/internal/subscription"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, slog.LevelInfo)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定のログレベルで再設定する
	logger.SetupDefault(w, logger.ParseLevel(cfg.LogLevel))

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
		slog.String("store_driver", cfg.StoreDriver),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandRefresh:
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		_, err := runRefresh(ctx, cfg)
		return err
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// components はserveとrefreshで共有するワイヤリング済みの依存関係。
type components struct {
	registry    *prometheus.Registry
	paperSource *paper.Source
	subService  *subscription.Service
	settings    *settings.Service
	dispatcher  *notify.Dispatcher
	recommend   *recommend.Service
	closeStore  func() error
}

// Close はストアの接続を閉じる。
func (c *components) Close() error {
	if c.closeStore == nil {
		return nil
	}
	return c.closeStore()
}

// openStore は設定されたドライバのKeyValueStoreを開く。
// 戻り値の関数で接続を閉じる。
func openStore(cfg *config.Config) (repository.KeyValueStore, func() error, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		return repository.NewMemoryKVStore(), func() error { return nil }, nil

	case config.StoreDriverSQLite:
		db, err := database.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("sqlite store opened", slog.String("path", cfg.SQLitePath))
		return repository.NewSQLiteKVStore(db), db.Close, nil

	case config.StoreDriverPostgres:
		db, err := database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := pingDatabase(db); err != nil {
			db.Close()
			return nil, nil, err
		}
		slog.Info("database connection established")
		return repository.NewPostgresKVStore(db), db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unsupported store driver: %s", cfg.StoreDriver)
	}
}

func pingDatabase(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	return nil
}

// buildComponents はストア、外部クライアント、サービスを初期化する。
func buildComponents(cfg *config.Config) (*components, error) {
	// 1. リレープレフィックスの検証
	guard := security.NewOutboundGuard()
	for _, prefix := range cfg.RelayPrefixes {
		if err := guard.ValidateRelayPrefix(prefix); err != nil {
			return nil, err
		}
	}

	// 2. ストアとリポジトリの初期化
	store, closeStore, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	subRepo := repository.NewKVSubscriptionRepo(store)
	historyRepo := repository.NewKVHistoryRepo(store)
	settingsRepo := repository.NewKVSettingsRepo(store)
	cacheRepo := repository.NewKVPaperCacheRepo(store)

	// 3. メトリクス
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. 論文取得
	paperSource := paper.NewSource(
		guard.NewClient(cfg.FetchTimeout),
		cacheRepo,
		collector,
		slog.Default().With(slog.String("component", "paper")),
		paper.Options{
			BaseURL:         cfg.ArxivBaseURL,
			MaxResults:      cfg.ArxivMaxResults,
			Relays:          cfg.RelayPrefixes,
			MaxAttempts:     cfg.FetchMaxAttempts,
			Timeout:         cfg.FetchTimeout,
			MaxBodySize:     cfg.FetchMaxSize,
			CacheTTL:        cfg.CacheTTL,
			RequestInterval: cfg.ArxivRequestInterval,
		},
	)

	// 5. マッチングと送信
	selector := matcher.NewSelector(
		guard.NewClient(cfg.AssistTimeout),
		matcher.SelectorOptions{
			Provider:      cfg.AssistProvider,
			OpenAIBaseURL: cfg.OpenAIBaseURL,
			OpenAIModel:   cfg.OpenAIModel,
			GeminiModel:   cfg.GeminiModel,
		},
		collector,
		slog.Default().With(slog.String("component", "matcher")),
	)
	dispatcher := notify.NewDispatcher(
		notify.NewEmailJSClient(guard.NewClient(cfg.FetchTimeout), cfg.EmailJSEndpoint),
		security.NewDigestSanitizer(),
		collector,
		slog.Default().With(slog.String("component", "notify")),
		notify.Options{MaxPapers: cfg.DigestMaxPapers, SummaryMaxLen: cfg.SummaryMaxLen},
	)

	// 6. ドメインサービス
	settingsService := settings.NewService(settingsRepo, subRepo, historyRepo)
	recommendService := recommend.NewService(
		paperSource,
		selector,
		dispatcher,
		settingsService,
		subRepo,
		historyRepo,
		collector,
		slog.Default().With(slog.String("component", "recommend")),
	)

	return &components{
		registry:    registry,
		paperSource: paperSource,
		subService:  subscription.NewService(subRepo),
		settings:    settingsService,
		dispatcher:  dispatcher,
		recommend:   recommendService,
		closeStore:  closeStore,
	}, nil
}

// newRouter はワイヤリング済みのコンポーネントからHTTPハンドラーを構築する。
func newRouter(cfg *config.Config, c *components, rl *middleware.RateLimiter) http.Handler {
	return handler.NewRouter(&handler.RouterDeps{
		Logger:              slog.Default(),
		CORSAllowedOrigin:   cfg.CORSAllowedOrigin,
		RateLimiter:         rl,
		MetricsHandler:      metrics.Handler(c.registry),
		PaperService:        c.paperSource,
		SubscriptionService: c.subService,
		RecommendService:    c.recommend,
		SettingsService:     c.settings,
		WelcomeSender:       c.dispatcher,
		Credentials:         c.settings,
	})
}

// rateLimiterConfig はRATE_LIMIT_GENERAL（req/min）をreq/secに変換したレート制限設定を返す。
func rateLimiterConfig(cfg *config.Config) middleware.RateLimiterConfig {
	rlCfg := middleware.DefaultRateLimiterConfig()
	if cfg.RateLimitGeneral > 0 {
		rlCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
		rlCfg.GeneralBurst = cfg.RateLimitGeneral
	}
	return rlCfg
}

// runServe はAPIサーバーモードで起動する。
// 全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	c, err := buildComponents(cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	rl := middleware.NewRateLimiter(rateLimiterConfig(cfg), slog.Default())
	defer rl.Stop()

	server := &http.Server{
		Addr:        ":" + cfg.ServerPort,
		Handler:     newRouter(cfg, c, rl),
		ReadTimeout: 15 * time.Second,
		// 購読の更新は論文取得と補助マッチングを順番に行うため長めに取る
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen error: %w", err)
	case <-stop:
	}
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runRefresh は全購読を1回だけ更新し、結果をログに出力する。
func runRefresh(ctx context.Context, cfg *config.Config) (*recommend.Summary, error) {
	c, err := buildComponents(cfg)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	start := time.Now()
	summary, err := c.recommend.RefreshAll(ctx, recommend.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("refresh failed: %w", err)
	}

	slog.Info("refresh completed",
		slog.Int("success_count", summary.SuccessCount),
		slog.Int("total_papers", summary.TotalPapers),
		slog.Int("failed", summary.Failed),
		slog.String("status", summary.Status.Message),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return summary, nil
}

// runMigrate はデータベースマイグレーションを実行する。
// PostgreSQLストア以外ではスキーマを起動時に適用するため何もしない。
func runMigrate(cfg *config.Config) error {
	if cfg.StoreDriver != config.StoreDriverPostgres {
		slog.Info("migrations are only required for the postgres store",
			slog.String("store_driver", cfg.StoreDriver),
		)
		return nil
	}

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
	return checkHealth(fmt.Sprintf("http://localhost:%s/health", port))
}

func checkHealth(url string) error {
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
