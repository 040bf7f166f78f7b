package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/arxivnotify/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	// MetricsHandler は /metrics で公開するハンドラー。nilの場合はルートを登録しない。
	MetricsHandler http.Handler

	PaperService        PaperServiceInterface
	SubscriptionService SubscriptionServiceInterface
	RecommendService    RecommendServiceInterface
	SettingsService     SettingsServiceInterface
	WelcomeSender       WelcomeSender
	Credentials         CredentialReader
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → CORS → SecurityHeaders → RateLimit(General)
//
// 購読の更新とマッチングテストには更新操作用のレート制限を追加する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware(deps.Logger))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())

	paperHandler := NewPaperHandler(deps.PaperService)
	matchHandler := NewMatchHandler(deps.RecommendService)
	subHandler := NewSubscriptionHandler(deps.SubscriptionService, deps.RecommendService, deps.WelcomeSender, deps.Credentials)
	settingsHandler := NewSettingsHandler(deps.SettingsService)

	r.Get("/health", Health)
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())
		refreshLimit := deps.RateLimiter.RefreshMiddleware()

		r.Get("/categories", paperHandler.ListCategories)

		// 論文
		r.Route("/papers", func(r chi.Router) {
			r.Get("/", paperHandler.ListPapers)
			r.With(refreshLimit).Post("/update", paperHandler.UpdatePapers)
		})

		// マッチングテスト
		r.With(refreshLimit).Post("/match/test", matchHandler.TestMatch)

		// 購読管理
		r.Route("/subscriptions", func(r chi.Router) {
			r.Get("/", subHandler.ListSubscriptions)
			r.Post("/", subHandler.Subscribe)
			r.With(refreshLimit).Post("/refresh", subHandler.RefreshAll)

			r.Route("/{id}", func(r chi.Router) {
				r.Delete("/", subHandler.Unsubscribe)
				r.With(refreshLimit).Post("/refresh", subHandler.Refresh)
			})
		})

		// 設定
		r.Route("/settings", func(r chi.Router) {
			r.Get("/", settingsHandler.GetSettings)
			r.Delete("/", settingsHandler.ClearAll)
			r.Put("/openai", settingsHandler.SaveOpenAIKey)
			r.Put("/mail", settingsHandler.SaveMailSettings)
		})
	})

	return r
}
