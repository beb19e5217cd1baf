package handler

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/hitoshi/gardenboard/internal/board"
	"github.com/hitoshi/gardenboard/internal/middleware"
	"github.com/hitoshi/gardenboard/internal/model"
	"github.com/hitoshi/gardenboard/internal/view"
)

// BoardController はボードハンドラーが必要とするページコントローラのインターフェース。
// board.Controller が実装する。
type BoardController interface {
	Load(ctx context.Context, req board.Request) board.State
	Refresh(ctx context.Context, req board.Request) board.State
	IsPrivileged(participantID string) bool
}

// SessionSource は手動更新の権限確認に使うセッション取得のインターフェース。
type SessionSource interface {
	CurrentSession(ctx context.Context, cookies []*http.Cookie) (*model.SessionPayload, error)
}

// SectionRecorder は描画のたびに変化したセクションを記録する。
type SectionRecorder interface {
	RecordSectionChanged(section string)
}

type nopSectionRecorder struct{}

func (nopSectionRecorder) RecordSectionChanged(string) {}

// BoardHandler はボードページと手動更新のHTTPハンドラー。
type BoardHandler struct {
	controller BoardController
	sessions   SessionSource
	recorder   SectionRecorder
	title      func() string
	logger     *slog.Logger
	now        func() time.Time

	// 直前に描画したセクションの指紋
	mu   sync.Mutex
	last view.Fingerprints
}

// NewBoardHandler はBoardHandlerを生成する。
func NewBoardHandler(controller BoardController, sessions SessionSource, recorder SectionRecorder, title func() string, logger *slog.Logger) *BoardHandler {
	if recorder == nil {
		recorder = nopSectionRecorder{}
	}
	return &BoardHandler{
		controller: controller,
		sessions:   sessions,
		recorder:   recorder,
		title:      title,
		logger:     logger,
		now:        time.Now,
	}
}

// Show はボードページを読み込んで描画する。
// GET /
func (h *BoardHandler) Show(w http.ResponseWriter, r *http.Request) {
	state := h.controller.Load(r.Context(), board.Request{Cookies: r.Cookies()})
	h.render(w, r, state)
}

// Refresh は手動更新を実行し、ボードページへリダイレクトする。
// 権限付き参加者としてログインしていない場合は403を返す。
// POST /refresh
func (h *BoardHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.CurrentSession(r.Context(), r.Cookies())
	if err != nil || session == nil || !h.controller.IsPrivileged(session.GithubID) {
		h.logger.Warn("manual refresh rejected",
			slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
		)
		middleware.WriteErrorResponse(w, http.StatusForbidden, model.NewRefreshForbiddenError())
		return
	}

	h.logger.Info("manual refresh requested", slog.String("participant_id", session.GithubID))
	h.controller.Refresh(r.Context(), board.Request{Cookies: r.Cookies()})

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// render はページを組み立て、直前の描画との差分を記録してから書き出す。
// If-None-Match がETagと一致する場合は304を返す。
func (h *BoardHandler) render(w http.ResponseWriter, r *http.Request, state board.State) {
	locale := view.NegotiateLocale(r.Header.Get("Accept-Language"))
	body := view.BoardBody(view.BoardPage{
		Title:     h.title(),
		State:     state,
		Locale:    locale,
		CSRFToken: middleware.CSRFTokenFromContext(r.Context()),
		Now:       h.now(),
	})

	h.recordChanges(view.SectionFingerprints(body), state.Version)

	var buf bytes.Buffer
	if err := view.Page(h.title(), locale.Lang(), body).Render(r.Context(), &buf); err != nil {
		h.logger.Error("failed to render board page", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	writeHTML(w, r, buf.Bytes())
}

// recordChanges は直前の描画から変化したセクションをログとメトリクスに記録する。
func (h *BoardHandler) recordChanges(next view.Fingerprints, version uint64) {
	h.mu.Lock()
	prev := h.last
	h.last = next
	h.mu.Unlock()

	if prev == nil {
		return
	}
	changed := view.Diff(prev, next)
	if len(changed) == 0 {
		return
	}
	for _, id := range changed {
		h.recorder.RecordSectionChanged(id)
	}
	h.logger.Info("board sections changed",
		slog.Any("sections", changed),
		slog.Uint64("version", version),
	)
}

// writeHTML はHTMLを書き出す。条件付きGETに一致した場合は304を返す。
func writeHTML(w http.ResponseWriter, r *http.Request, body []byte) {
	etag := view.ETag(body)
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Vary", "Accept-Language, Cookie")

	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		w.Write(body)
	}
}
