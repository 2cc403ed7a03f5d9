package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rabiuk/stride/internal/middleware"
	"github.com/rabiuk/stride/internal/wizard"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	CSRFConfig        middleware.CSRFConfig

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// エントリ入力ウィザード
	DraftStore     *wizard.Store
	EntrySubmitter EntrySubmitter

	// 週次ログ閲覧
	HistoryService HistoryServiceInterface

	// ユーザー管理
	UserService   UserServiceInterface
	UserFinder    UserFinder
	AvatarFetcher AvatarFetcher
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → SecurityHeaders → CORS → CSRF → Session → RateLimit(General)
//
// 認証ルート（/auth/*）とヘルスチェック（/health）はセッションゲートの外に配置する。
// 未認証の/api/*リクエストへの401が、クライアントの「サインイン画面」状態に対応する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// 全ルートに効くミドルウェア
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(slog.Default()))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	draftHandler := NewDraftHandler(deps.DraftStore, deps.EntrySubmitter)
	logHandler := NewLogHandler(deps.HistoryService)
	userHandler := NewUserHandler(deps.UserService, deps.UserFinder, deps.AvatarFetcher)

	// --- 認証不要のルート ---

	// ヘルスチェック
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// CSRFトークン取得
	r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))

	// 認証ルート（OAuthフロー）
	r.Route("/auth", func(r chi.Router) {
		r.Get("/google/login", authHandler.Login)
		r.Get("/google/callback", authHandler.Callback)
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: CSRF → Session → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// エントリ入力ウィザード
		r.Route("/api/draft", func(r chi.Router) {
			r.Get("/", draftHandler.GetDraft)
			r.Put("/answer", draftHandler.SetAnswer)
			// POST /api/draft/advance - 最終ステップでは提出（提出専用レート制限を追加）
			r.With(deps.RateLimiter.SubmitMiddleware()).Post("/advance", draftHandler.Advance)
			r.Post("/jump", draftHandler.Jump)
			r.Delete("/", draftHandler.Discard)
		})

		// 週次ログ閲覧
		r.Route("/api/logs", func(r chi.Router) {
			r.Get("/", logHandler.ListLogs)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", logHandler.GetLog)
				r.Get("/download", logHandler.DownloadLog)
			})
		})

		// ユーザー管理
		r.Route("/api/users", func(r chi.Router) {
			r.Delete("/me", userHandler.Withdraw)
			r.Get("/me/avatar", userHandler.Avatar)
		})
	})

	return r
}
