package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/hitoshi/gardenboard/internal/middleware"
	"github.com/hitoshi/gardenboard/internal/view"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Logger *slog.Logger

	// ミドルウェア依存
	RateLimiter    *middleware.RateLimiter
	CSRF           middleware.CSRFConfig
	StatusRecorder middleware.StatusRecorder
	// TrustProxy が true の場合、X-Forwarded-For / X-Real-IP をクライアントIPとして扱う
	TrustProxy bool

	// ボード
	Controller      BoardController
	Sessions        SessionSource
	SectionRecorder SectionRecorder
	Title           func() string

	// 認証
	AuthURLs AuthURLs

	// プロフィール
	ProfileBackend ProfileBackend
	Activity       ActivitySource

	// 運用
	MetricsHandler http.Handler
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	(RealIP) → RequestID → Logging → Recovery → SecurityHeaders → RateLimit(General) → CSRF
//
// /health と /metrics はレート制限とCSRFの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	if deps.TrustProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.StatusRecorder))
	r.Use(middleware.NewRecoveryMiddleware(deps.Logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())

	boardHandler := NewBoardHandler(deps.Controller, deps.Sessions, deps.SectionRecorder, deps.Title, deps.Logger)
	authHandler := NewAuthHandler(deps.AuthURLs)
	profileHandler := NewProfileHandler(deps.ProfileBackend, deps.Activity, deps.Title, deps.Logger)

	// --- 運用エンドポイント ---
	r.Get("/health", Health)
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// --- ページ ---
	// ミドルウェアスタック: RateLimit(General) → CSRF
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())
		r.Use(middleware.NewCSRFMiddleware(deps.CSRF))

		r.Get("/", boardHandler.Show)
		// POST /refresh - 手動更新（手動更新専用レート制限を追加）
		r.With(deps.RateLimiter.RefreshMiddleware()).Post(view.RefreshPath, boardHandler.Refresh)

		r.Get(view.LoginPath, authHandler.Login)
		r.Get(view.LogoutPath, authHandler.Logout)

		r.Get("/users/{participantId}", profileHandler.Show)

		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(view.StaticFS()))))
	})

	return r
}

// Health はプロセスの生存確認に応答する。
// GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
