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
// ハンドラーやサービス層から利用する。
type MetricsCollector interface {
	RecordHTTPStatus(statusCode int)
	RecordLoginSuccess()
	RecordLoginFailure(reason string)
	RecordVoteCast()
	RecordKVReadFallback(key string)
	RecordImageProxyLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus        *prometheus.CounterVec
	loginSuccess      prometheus.Counter
	loginFail         *prometheus.CounterVec
	voteCast          prometheus.Counter
	kvReadFallback    prometheus.Counter
	imageProxyLatency prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fanhub_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		loginSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fanhub_login_success_total",
			Help: "ログイン成功の合計数",
		}),
		loginFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fanhub_login_fail_total",
			Help: "ログイン失敗の理由別合計数",
		}, []string{"reason"}),
		voteCast: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fanhub_vote_cast_total",
			Help: "成立した投票の合計数",
		}),
		kvReadFallback: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fanhub_kv_read_fallback_total",
			Help: "デフォルト値に縮退したKV読み取りの合計数",
		}),
		imageProxyLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fanhub_image_proxy_latency_seconds",
			Help:    "画像プロキシのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.loginSuccess,
		c.loginFail,
		c.voteCast,
		c.kvReadFallback,
		c.imageProxyLatency,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordLoginSuccess はログイン成功を記録する。
func (c *Collector) RecordLoginSuccess() {
	c.loginSuccess.Inc()
}

// RecordLoginFailure はログイン失敗を理由付きで記録する。
func (c *Collector) RecordLoginFailure(reason string) {
	c.loginFail.WithLabelValues(reason).Inc()
}

// RecordVoteCast は成立した投票を記録する。
func (c *Collector) RecordVoteCast() {
	c.voteCast.Inc()
}

// RecordKVReadFallback はデフォルト値に縮退したKV読み取りを記録する。
// kv.FallbackRecorderを実装する。
func (c *Collector) RecordKVReadFallback(key string) {
	c.kvReadFallback.Inc()
}

// RecordImageProxyLatency は画像プロキシのレイテンシを記録する。
func (c *Collector) RecordImageProxyLatency(duration time.Duration) {
	c.imageProxyLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// アプリ本体とは別ポートで公開し、外部には晒さない。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
