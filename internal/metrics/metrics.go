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
// 認証サービスとHTTPミドルウェアから利用する。
type MetricsCollector interface {
	RecordConnectSuccess(provider string)
	RecordConnectFailure(provider string, reason string)
	RecordDisconnect(provider string)
	RecordConnectLatency(duration time.Duration)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	connectSuccess *prometheus.CounterVec
	connectFail    *prometheus.CounterVec
	disconnects    *prometheus.CounterVec
	connectLatency prometheus.Histogram
	httpStatus     *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		connectSuccess: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authweb_connect_success_total",
			Help: "OAuth連携成功の合計数（プロバイダー別）",
		}, []string{"provider"}),
		connectFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authweb_connect_fail_total",
			Help: "OAuth連携失敗の合計数（プロバイダー・理由別）",
		}, []string{"provider", "reason"}),
		disconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authweb_disconnect_total",
			Help: "ログアウトの合計数（プロバイダー別）",
		}, []string{"provider"}),
		connectLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "authweb_connect_duration_seconds",
			Help:    "認可コード交換からセッション確立までの所要時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authweb_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.connectSuccess,
		c.connectFail,
		c.disconnects,
		c.connectLatency,
		c.httpStatus,
	)

	return c
}

// RecordConnectSuccess はOAuth連携成功を記録する。
func (c *Collector) RecordConnectSuccess(provider string) {
	c.connectSuccess.WithLabelValues(provider).Inc()
}

// RecordConnectFailure はOAuth連携失敗を記録する。
func (c *Collector) RecordConnectFailure(provider string, reason string) {
	c.connectFail.WithLabelValues(provider, reason).Inc()
}

// RecordDisconnect はログアウトを記録する。
func (c *Collector) RecordDisconnect(provider string) {
	c.disconnects.WithLabelValues(provider).Inc()
}

// RecordConnectLatency は連携処理の所要時間を記録する。
func (c *Collector) RecordConnectLatency(duration time.Duration) {
	c.connectLatency.Observe(duration.Seconds())
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
