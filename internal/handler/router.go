package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/authweb/internal/metrics"
	"github.com/hitoshi/authweb/internal/middleware"
)

// HealthChecker はヘルスチェックに必要なインターフェース。
// *sql.DBがそのまま満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// OwnerResolver は所有権ガードのリソース所有者解決インターフェース。
type OwnerResolver = middleware.OwnerResolver

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Sessions          middleware.SessionFactory
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	CSRFConfig        middleware.CSRFConfig
	Logger            *slog.Logger

	// サービス
	AuthService AuthServiceInterface
	UserService UserServiceInterface
	Owners      OwnerResolver

	// 運用
	HealthChecker  HealthChecker
	Metrics        metrics.MetricsCollector
	MetricsHandler http.Handler
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → RateLimit(General) → CSRF
//
// /users/{id}/JSON と /users/{id}/XML には認証ガードと所有権ガードを重ねる。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// connectはURLのセッションID一致検証、disconnectは冪等なログアウトのため
	// CSRFトークン検証を免除する
	csrfConfig := deps.CSRFConfig
	csrfConfig.ExemptPrefixes = append(csrfConfig.ExemptPrefixes, "/connect/", "/disconnect")

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(logger, deps.Metrics))
	if deps.RateLimiter != nil {
		r.Use(deps.RateLimiter.GeneralMiddleware())
	}
	r.Use(middleware.NewCSRFMiddleware(csrfConfig))

	authHandler := NewAuthHandler(deps.AuthService, deps.Sessions)
	userHandler := NewUserHandler(deps.UserService)

	// --- 運用エンドポイント ---

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if deps.HealthChecker != nil {
			if err := deps.HealthChecker.PingContext(r.Context()); err != nil {
				slog.Error("health check failed", slog.String("error", err.Error()))
				http.Error(w, "unhealthy", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))

	// --- 認証フロー ---

	r.Get("/login", authHandler.Login)
	if deps.RateLimiter != nil {
		r.With(deps.RateLimiter.ConnectMiddleware()).Post("/connect/{provider}/{session_id}", authHandler.Connect)
	} else {
		r.Post("/connect/{provider}/{session_id}", authHandler.Connect)
	}
	r.Get("/disconnect", authHandler.Disconnect)

	// --- ユーザービュー ---

	r.Route("/users", func(r chi.Router) {
		// 一覧と個別表示は公開
		r.Get("/", userHandler.List)
		r.Get("/{id}", userHandler.Get)

		// エクスポートは本人のみ
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewAuthMiddleware(deps.Sessions))
			r.Use(middleware.NewOwnershipMiddleware(deps.Owners))
			r.Get("/{id}/JSON", userHandler.GetJSON)
			r.Get("/{id}/XML", userHandler.GetXML)
		})
	})

	return r
}
