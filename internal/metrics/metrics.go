// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// バックエンドクライアント、通知、ページコントローラ、HTTP層から利用する。
type MetricsCollector interface {
	RecordBackendRequest(endpoint, outcome string, duration time.Duration)
	RecordNotification(isError bool)
	RecordSupersededRefresh()
	RecordLoadFailure(section string)
	RecordSectionChanged(section string)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	backendRequests   *prometheus.CounterVec
	backendLatency    *prometheus.HistogramVec
	notifications     *prometheus.CounterVec
	supersededRefresh prometheus.Counter
	loadFailures      *prometheus.CounterVec
	sectionChanges    *prometheus.CounterVec
	httpStatus        *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		backendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gardenboard_backend_requests_total",
			Help: "バックエンドAPI呼び出しの合計数",
		}, []string{"endpoint", "outcome"}),
		backendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gardenboard_backend_latency_seconds",
			Help:    "バックエンドAPI呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gardenboard_notifications_total",
			Help: "表示したバナー通知の合計数",
		}, []string{"kind"}),
		supersededRefresh: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gardenboard_refresh_superseded_total",
			Help: "新しい手動更新によって中断された手動更新の合計数",
		}),
		loadFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gardenboard_section_load_failures_total",
			Help: "セクションの読み込み失敗の合計数",
		}, []string{"section"}),
		sectionChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gardenboard_section_changes_total",
			Help: "前回の描画から内容が変わったセクションの合計数",
		}, []string{"section"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gardenboard_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.backendRequests,
		c.backendLatency,
		c.notifications,
		c.supersededRefresh,
		c.loadFailures,
		c.sectionChanges,
		c.httpStatus,
	)

	return c
}

// RecordBackendRequest はバックエンドAPI呼び出しの結果とレイテンシを記録する。
func (c *Collector) RecordBackendRequest(endpoint, outcome string, duration time.Duration) {
	c.backendRequests.WithLabelValues(endpoint, outcome).Inc()
	c.backendLatency.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordNotification はバナー通知を記録する。
func (c *Collector) RecordNotification(isError bool) {
	kind := "info"
	if isError {
		kind = "error"
	}
	c.notifications.WithLabelValues(kind).Inc()
}

// RecordSupersededRefresh は中断された手動更新を記録する。
func (c *Collector) RecordSupersededRefresh() {
	c.supersededRefresh.Inc()
}

// RecordLoadFailure はセクションの読み込み失敗を記録する。
func (c *Collector) RecordLoadFailure(section string) {
	c.loadFailures.WithLabelValues(section).Inc()
}

// RecordSectionChanged は内容が変わったセクションを記録する。
func (c *Collector) RecordSectionChanged(section string) {
	c.sectionChanges.WithLabelValues(section).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
