package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/hitoshi/gardenboard/internal/activity"
	"github.com/hitoshi/gardenboard/internal/board"
	"github.com/hitoshi/gardenboard/internal/model"
)

// --- モック定義 ---

// mockController はBoardControllerのモック実装。
type mockController struct {
	mu         sync.Mutex
	state      board.State
	privileged map[string]bool
	loads      int
	refreshes  int
}

func (m *mockController) Load(ctx context.Context, req board.Request) board.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	return m.state
}

func (m *mockController) Refresh(ctx context.Context, req board.Request) board.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshes++
	return m.state
}

func (m *mockController) IsPrivileged(participantID string) bool {
	return m.privileged[participantID]
}

func (m *mockController) setState(s board.State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
}

// mockSessions はSessionSourceのモック実装。
type mockSessions struct {
	payload *model.SessionPayload
	err     error
}

func (m *mockSessions) CurrentSession(ctx context.Context, cookies []*http.Cookie) (*model.SessionPayload, error) {
	return m.payload, m.err
}

// mockSectionRecorder はSectionRecorderのモック実装。
type mockSectionRecorder struct {
	mu       sync.Mutex
	sections []string
}

func (m *mockSectionRecorder) RecordSectionChanged(section string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sections = append(m.sections, section)
}

// mockAuthURLs はAuthURLsのモック実装。
type mockAuthURLs struct{}

func (mockAuthURLs) LoginURL() string  { return "http://backend/api/auth/login" }
func (mockAuthURLs) LogoutURL() string { return "http://backend/api/auth/logout" }

// mockProfileBackend はProfileBackendのモック実装。
type mockProfileBackend struct {
	participants []model.Participant
	listErr      error
	stats        *model.AttendanceStatistics
	statsErr     error
}

func (m *mockProfileBackend) ListParticipants(ctx context.Context) ([]model.Participant, error) {
	return m.participants, m.listErr
}

func (m *mockProfileBackend) Statistics(ctx context.Context) (*model.AttendanceStatistics, error) {
	return m.stats, m.statsErr
}

// mockActivity はActivitySourceのモック実装。
type mockActivity struct {
	entries []activity.Entry
	err     error
}

func (m *mockActivity) Recent(ctx context.Context, participantID string) ([]activity.Entry, error) {
	return m.entries, m.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func fixedTitle() string { return "정원사들 출석부" }
