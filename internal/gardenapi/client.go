// Package gardenapi は出席ボードのバックエンドJSON APIクライアントを提供する。
// 参加者一覧・セッション・出席統計・日別出席・時間帯別コミット数の取得を含む。
package gardenapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hitoshi/gardenboard/internal/model"
)

const (
	// defaultMaxBodySize はレスポンスボディの最大読み取りサイズ。
	defaultMaxBodySize = 5 << 20
	userAgent          = "Gardenboard/1.0"
)

// エンドポイント名。メトリクスのラベルとログに使う。
const (
	EndpointUsers         = "users"
	EndpointAuthMe        = "auth_me"
	EndpointStats         = "stats"
	EndpointDaily         = "daily"
	EndpointHourlyCommits = "hourly_commits"
	EndpointCheck         = "check"
)

// ErrUnauthenticated はセッションが存在しないことを表す。
// 未ログインは正常な状態遷移であり、呼び出し元はバナー表示をしない。
var ErrUnauthenticated = errors.New("no authenticated session")

// StatusError はバックエンドが2xx以外のステータスを返したことを表す。
type StatusError struct {
	Endpoint   string
	StatusCode int
}

// Error はerrorインターフェースを実装する。
func (e *StatusError) Error() string {
	return fmt.Sprintf("backend %s returned status %d", e.Endpoint, e.StatusCode)
}

// RequestRecorder はバックエンド呼び出しの結果を記録するインターフェース。
// metrics.Collector が実装する。
type RequestRecorder interface {
	RecordBackendRequest(endpoint, outcome string, duration time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RecordBackendRequest(string, string, time.Duration) {}

// Client はバックエンドAPIのクライアント。
type Client struct {
	httpClient  *http.Client
	logger      *slog.Logger
	baseURL     string
	maxBodySize int64
	recorder    RequestRecorder
}

// Option はClientの任意設定。
type Option func(*Client)

// WithRecorder はリクエスト結果の記録先を設定する。
func WithRecorder(r RequestRecorder) Option {
	return func(c *Client) {
		if r != nil {
			c.recorder = r
		}
	}
}

// WithMaxBodySize はレスポンスボディの最大サイズを設定する。
func WithMaxBodySize(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBodySize = n
		}
	}
}

// NewClient はClientの新しいインスタンスを生成する。
// baseURL はバックエンドのオリジン（例: http://backend:8000）。
func NewClient(httpClient *http.Client, logger *slog.Logger, baseURL string, opts ...Option) *Client {
	c := &Client{
		httpClient:  httpClient,
		logger:      logger,
		baseURL:     strings.TrimRight(baseURL, "/"),
		maxBodySize: defaultMaxBodySize,
		recorder:    nopRecorder{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LoginURL はバックエンドのログイン開始URLを返す。ページ遷移用で、クライアントは取得しない。
func (c *Client) LoginURL() string {
	return c.baseURL + "/api/auth/login"
}

// LogoutURL はバックエンドのログアウトURLを返す。
func (c *Client) LogoutURL() string {
	return c.baseURL + "/api/auth/logout"
}

// ListParticipants は全参加者の一覧をバックエンドの返却順で取得する。
func (c *Client) ListParticipants(ctx context.Context) ([]model.Participant, error) {
	var participants []model.Participant
	if err := c.getJSON(ctx, EndpointUsers, "/api/users", nil, &participants); err != nil {
		return nil, err
	}
	return participants, nil
}

// CurrentSession は呼び出し元のCookieを転送して現在のセッションを取得する。
// 2xx以外の応答はすべてErrUnauthenticatedとして返す。
func (c *Client) CurrentSession(ctx context.Context, cookies []*http.Cookie) (*model.SessionPayload, error) {
	var payload model.SessionPayload
	err := c.getJSON(ctx, EndpointAuthMe, "/api/auth/me", cookies, &payload)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) {
			return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
		}
		return nil, err
	}
	if payload.GithubID == "" {
		return nil, fmt.Errorf("%w: empty github_id", ErrUnauthenticated)
	}
	return &payload, nil
}

// Statistics は出席統計スナップショットを取得する。
func (c *Client) Statistics(ctx context.Context) (*model.AttendanceStatistics, error) {
	var stats model.AttendanceStatistics
	if err := c.getJSON(ctx, EndpointStats, "/api/attendance/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// DailyAttendance は指定日付（YYYY-MM-DD）の出席記録を取得する。
func (c *Client) DailyAttendance(ctx context.Context, date string) ([]model.DailyAttendanceRecord, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, fmt.Errorf("日付の形式が不正です: %q: %w", date, err)
	}
	var records []model.DailyAttendanceRecord
	if err := c.getJSON(ctx, EndpointDaily, "/api/attendance/"+url.PathEscape(date), nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// HourlyCommits は時間帯別のコミット数を取得する。
func (c *Client) HourlyCommits(ctx context.Context) ([]model.HourlyCommit, error) {
	var commits []model.HourlyCommit
	if err := c.getJSON(ctx, EndpointHourlyCommits, "/api/attendance/hourly-commits", nil, &commits); err != nil {
		return nil, err
	}
	return commits, nil
}

// TriggerCheck はバックエンドに全参加者の出席チェック再実行を依頼する。
// 呼び出し元のCookieを転送する。
func (c *Client) TriggerCheck(ctx context.Context, cookies []*http.Cookie) error {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/attendance/check", bytes.NewReader(nil))
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	c.decorate(req, cookies)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.record(EndpointCheck, "error", start)
		c.logger.Error("出席チェックの依頼に失敗しました", slog.String("error", err.Error()))
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, c.maxBodySize))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.record(EndpointCheck, "status", start)
		return &StatusError{Endpoint: EndpointCheck, StatusCode: resp.StatusCode}
	}
	c.record(EndpointCheck, "ok", start)
	return nil
}

// getJSON はGETリクエストを発行し、レスポンスJSONをoutにデコードする。
func (c *Client) getJSON(ctx context.Context, endpoint, path string, cookies []*http.Cookie, out any) error {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	c.decorate(req, cookies)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.record(endpoint, "error", start)
		c.logger.Error("バックエンドAPIの呼び出しに失敗しました",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()),
		)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.record(endpoint, "status", start)
		// 未ログインの /api/auth/me は日常的に発生するためエラーログにしない
		level := slog.LevelError
		if endpoint == EndpointAuthMe {
			level = slog.LevelDebug
		}
		c.logger.Log(ctx, level, "バックエンドAPIがエラーステータスを返しました",
			slog.String("endpoint", endpoint),
			slog.Int("http_status", resp.StatusCode),
		)
		return &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		c.record(endpoint, "error", start)
		c.logger.Error("レスポンスボディの読み取りに失敗しました",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		c.record(endpoint, "decode", start)
		c.logger.Error("バックエンドAPIのレスポンスのパースに失敗しました",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}

	c.record(endpoint, "ok", start)
	return nil
}

func (c *Client) decorate(req *http.Request, cookies []*http.Cookie) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
}

func (c *Client) record(endpoint, outcome string, start time.Time) {
	c.recorder.RecordBackendRequest(endpoint, outcome, time.Since(start))
}
