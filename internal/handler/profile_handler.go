package handler

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/gardenboard/internal/activity"
	"github.com/hitoshi/gardenboard/internal/board"
	"github.com/hitoshi/gardenboard/internal/middleware"
	"github.com/hitoshi/gardenboard/internal/model"
	"github.com/hitoshi/gardenboard/internal/view"
)

// ProfileBackend はプロフィールページが必要とするバックエンドAPIのインターフェース。
type ProfileBackend interface {
	ListParticipants(ctx context.Context) ([]model.Participant, error)
	Statistics(ctx context.Context) (*model.AttendanceStatistics, error)
}

// ActivitySource は参加者の最近の活動を返す。
// activity.Fetcher が実装する。
type ActivitySource interface {
	Recent(ctx context.Context, participantID string) ([]activity.Entry, error)
}

// ProfileHandler は参加者プロフィールページのHTTPハンドラー。
type ProfileHandler struct {
	backend  ProfileBackend
	activity ActivitySource
	title    func() string
	logger   *slog.Logger
}

// NewProfileHandler はProfileHandlerを生成する。
func NewProfileHandler(backend ProfileBackend, source ActivitySource, title func() string, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{
		backend:  backend,
		activity: source,
		title:    title,
		logger:   logger,
	}
}

// Show は参加者の出席統計と最近の活動を描画する。
// 参加者一覧にないIDは404を返す。
// GET /users/{participantId}
func (h *ProfileHandler) Show(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	participantID := chi.URLParam(r, "participantId")

	participants, err := h.backend.ListParticipants(ctx)
	if err != nil {
		loadErr := model.NewLoadError(model.SectionRoster, err)
		h.logger.Error("failed to load participants for profile",
			slog.String("participant_id", participantID),
			slog.String("error", err.Error()),
		)
		middleware.WriteErrorResponse(w, http.StatusBadGateway, &model.APIError{
			Code:     loadErr.Code,
			Message:  loadErr.Message,
			Category: "board",
			Action:   "잠시 후 다시 시도해 주세요.",
		})
		return
	}

	participant, ok := findParticipant(participants, participantID)
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewParticipantUnknownError(participantID))
		return
	}

	page := view.ProfilePage{
		Title:       h.title(),
		Locale:      view.NegotiateLocale(r.Header.Get("Accept-Language")),
		Participant: participant,
	}

	// 出席統計と最近の活動は独立しているため並行に取得する
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		stats, err := h.backend.Statistics(ctx)
		if err != nil {
			h.logger.Warn("failed to load statistics for profile",
				slog.String("participant_id", participantID),
				slog.String("error", err.Error()),
			)
			return
		}
		if stat := stats.FindUser(participantID); stat != nil {
			if len(stat.Attendance) == len(stats.Dates) {
				page.Stat = stat
				page.Headers = board.DateHeaders(stats.Dates)
			}
		}
	}()
	go func() {
		defer wg.Done()
		entries, err := h.activity.Recent(ctx, participantID)
		if err != nil {
			h.logger.Warn("failed to load activity feed",
				slog.String("participant_id", participantID),
				slog.String("error", err.Error()),
			)
			page.ActivityFailed = true
			return
		}
		page.Activity = entries
	}()
	wg.Wait()

	var buf bytes.Buffer
	if err := view.Page(page.Title, page.Locale.Lang(), view.ProfileBody(page)).Render(ctx, &buf); err != nil {
		h.logger.Error("failed to render profile page", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	writeHTML(w, r, buf.Bytes())
}

func findParticipant(participants []model.Participant, id string) (model.Participant, bool) {
	for _, p := range participants {
		if p.ID == id {
			return p, true
		}
	}
	return model.Participant{}, false
}
