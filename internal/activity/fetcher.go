// Package activity は参加者の公開GitHubアクティビティ（Atomフィード）を取得する。
// プロフィールページの「最近の活動」欄に使われる。
package activity

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
)

// MaxEntries はプロフィールページに表示する活動の最大件数。
const MaxEntries = 10

// ErrFeedNotFound はフィードが存在しない場合のエラー。
var ErrFeedNotFound = errors.New("activity feed not found")

// SSRFValidator はSSRF検証のインターフェース。
type SSRFValidator interface {
	ValidateURL(rawURL string) error
	NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client
}

// TextSanitizer はタイトルをプレーンテキストにする。
type TextSanitizer interface {
	SanitizeText(raw string) string
}

// ContentSanitizer は本文HTMLを安全なHTMLにする。
type ContentSanitizer interface {
	Sanitize(rawHTML string) string
}

// Entry はアクティビティ1件。
type Entry struct {
	Title string
	Link  string
	// Content はサニタイズ済みのHTML。
	Content   string
	Published *time.Time
}

type cachedFeed struct {
	etag         string
	lastModified string
	entries      []Entry
}

// Fetcher は参加者ごとのAtomフィードを条件付きGETで取得する。
type Fetcher struct {
	guard       SSRFValidator
	text        TextSanitizer
	content     ContentSanitizer
	logger      *slog.Logger
	feedBase    string
	timeout     time.Duration
	maxBodySize int64

	mu    sync.Mutex
	cache map[string]cachedFeed
}

// NewFetcher はFetcherの新しいインスタンスを生成する。
// feedBase は "https://github.com" のようなフィードのベースURL。
func NewFetcher(
	guard SSRFValidator,
	text TextSanitizer,
	content ContentSanitizer,
	logger *slog.Logger,
	feedBase string,
	timeout time.Duration,
	maxBodySize int64,
) *Fetcher {
	return &Fetcher{
		guard:       guard,
		text:        text,
		content:     content,
		logger:      logger,
		feedBase:    strings.TrimRight(feedBase, "/"),
		timeout:     timeout,
		maxBodySize: maxBodySize,
		cache:       make(map[string]cachedFeed),
	}
}

// FeedURL は参加者のフィードURLを返す。
func (f *Fetcher) FeedURL(participantID string) string {
	return f.feedBase + "/" + url.PathEscape(participantID) + ".atom"
}

// Recent は参加者の最近の活動を新しい順に最大MaxEntries件返す。
// 前回の取得結果があれば ETag / Last-Modified で条件付きGETを行い、304なら前回の結果を返す。
func (f *Fetcher) Recent(ctx context.Context, participantID string) ([]Entry, error) {
	feedURL := f.FeedURL(participantID)
	if err := f.guard.ValidateURL(feedURL); err != nil {
		return nil, fmt.Errorf("SSRF検証に失敗: %w", err)
	}

	f.mu.Lock()
	cached, hasCache := f.cache[participantID]
	f.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("リクエスト作成に失敗: %w", err)
	}
	req.Header.Set("User-Agent", "Gardenboard/1.0")
	req.Header.Set("Accept", "application/atom+xml, application/xml, text/xml, */*")
	if hasCache {
		if cached.etag != "" {
			req.Header.Set("If-None-Match", cached.etag)
		}
		if cached.lastModified != "" {
			req.Header.Set("If-Modified-Since", cached.lastModified)
		}
	}

	start := time.Now()
	client := f.guard.NewSafeClient(f.timeout, f.maxBodySize)
	resp, err := client.Do(req)
	if err != nil {
		f.logger.Warn("アクティビティフィードの取得に失敗しました",
			slog.String("participant_id", participantID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("HTTPリクエスト失敗: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified && hasCache:
		f.logger.Debug("アクティビティフィードは未変更です（304）",
			slog.String("participant_id", participantID),
		)
		return cached.entries, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrFeedNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("予期しないHTTPステータス: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("レスポンス読み取り失敗: %w", err)
	}

	parsed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		f.logger.Warn("アクティビティフィードのパースに失敗しました",
			slog.String("participant_id", participantID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("フィードのパースに失敗: %w", err)
	}

	entries := f.convertItems(parsed.Items)

	f.mu.Lock()
	f.cache[participantID] = cachedFeed{
		etag:         resp.Header.Get("ETag"),
		lastModified: resp.Header.Get("Last-Modified"),
		entries:      entries,
	}
	f.mu.Unlock()

	f.logger.Info("アクティビティフィードを取得しました",
		slog.String("participant_id", participantID),
		slog.Int("entries", len(entries)),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return entries, nil
}

// Prefetch は参加者のフィードを取得してキャッシュだけを更新する。
// 次回のRecentは条件付きGETになる。
func (f *Fetcher) Prefetch(ctx context.Context, participantID string) error {
	_, err := f.Recent(ctx, participantID)
	return err
}

// convertItems はgofeedの記事を表示用のEntryに変換する。
// タイトルが空になった記事は除外する。
func (f *Fetcher) convertItems(items []*gofeed.Item) []Entry {
	entries := make([]Entry, 0, min(len(items), MaxEntries))
	for _, item := range items {
		if len(entries) == MaxEntries {
			break
		}
		if item == nil {
			continue
		}

		title := f.text.SanitizeText(item.Title)
		if title == "" {
			continue
		}

		e := Entry{
			Title: title,
			Link:  item.Link,
		}

		content := item.Content
		if content == "" {
			content = item.Description
		}
		if content != "" {
			e.Content = f.content.Sanitize(content)
		}

		if item.PublishedParsed != nil {
			t := *item.PublishedParsed
			e.Published = &t
		} else if item.UpdatedParsed != nil {
			t := *item.UpdatedParsed
			e.Published = &t
		}

		if e.Link == "" && (strings.HasPrefix(item.GUID, "http://") || strings.HasPrefix(item.GUID, "https://")) {
			e.Link = item.GUID
		}
		if !strings.HasPrefix(e.Link, "https://") && !strings.HasPrefix(e.Link, "http://") {
			e.Link = ""
		}

		entries = append(entries, e)
	}
	return entries
}
