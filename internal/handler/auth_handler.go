package handler

import "net/http"

// AuthURLs はバックエンドのログイン・ログアウトURLを返す。
// gardenapi.Client が実装する。
type AuthURLs interface {
	LoginURL() string
	LogoutURL() string
}

// AuthHandler はログイン・ログアウトをバックエンドへ引き渡すHTTPハンドラー。
// 認証フロー自体はバックエンドが行うため、ページ全体をリダイレクトするだけ。
type AuthHandler struct {
	urls AuthURLs
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(urls AuthURLs) *AuthHandler {
	return &AuthHandler{urls: urls}
}

// Login はバックエンドのGitHubログインへリダイレクトする。
// GET /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.urls.LoginURL(), http.StatusFound)
}

// Logout はバックエンドのログアウトへリダイレクトする。
// GET /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.urls.LogoutURL(), http.StatusFound)
}
