// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// リレー試行の結果ラベル
const (
	RelayOutcomeOK        = "ok"
	RelayOutcomeTransport = "transport"
	RelayOutcomeStatus    = "status"
	RelayOutcomeEmpty     = "empty"
	RelayOutcomeParse     = "parse"
)

// MetricsCollector はメトリクス収集のインターフェース。
// 論文取得、マッチング、メール送信、リフレッシュの各層から利用する。
type MetricsCollector interface {
	RecordRelayAttempt(outcome string)
	RecordCacheFallback(category string)
	RecordUnavailable(category string)
	RecordFetchLatency(duration time.Duration)
	RecordAssistedFallback(reason string)
	RecordDispatch(outcome string)
	RecordRefreshLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	relayAttempts    *prometheus.CounterVec
	cacheFallbacks   *prometheus.CounterVec
	unavailable      *prometheus.CounterVec
	fetchLatency     prometheus.Histogram
	assistedFallback *prometheus.CounterVec
	dispatches       *prometheus.CounterVec
	refreshLatency   prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		relayAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arxivnotify_relay_attempts_total",
			Help: "リレー経由の論文フィード取得の試行数（結果別）",
		}, []string{"outcome"}),
		cacheFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arxivnotify_cache_fallbacks_total",
			Help: "取得失敗時にキャッシュを返した回数",
		}, []string{"category"}),
		unavailable: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arxivnotify_unavailable_total",
			Help: "取得不能のプレースホルダを返した回数",
		}, []string{"category"}),
		fetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "arxivnotify_fetch_latency_seconds",
			Help:    "カテゴリ単位の論文取得のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		assistedFallback: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arxivnotify_assisted_fallbacks_total",
			Help: "補助マッチングから文字列マッチングへフォールバックした回数",
		}, []string{"reason"}),
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arxivnotify_dispatch_total",
			Help: "ダイジェストメール送信の結果別件数",
		}, []string{"outcome"}),
		refreshLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "arxivnotify_refresh_latency_seconds",
			Help:    "購読1件のリフレッシュのレイテンシ（秒）",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
		}),
	}

	reg.MustRegister(
		c.relayAttempts,
		c.cacheFallbacks,
		c.unavailable,
		c.fetchLatency,
		c.assistedFallback,
		c.dispatches,
		c.refreshLatency,
	)

	return c
}

// RecordRelayAttempt はリレー試行を結果別に記録する。
func (c *Collector) RecordRelayAttempt(outcome string) {
	c.relayAttempts.WithLabelValues(outcome).Inc()
}

// RecordCacheFallback はキャッシュへのフォールバックを記録する。
func (c *Collector) RecordCacheFallback(category string) {
	c.cacheFallbacks.WithLabelValues(category).Inc()
}

// RecordUnavailable はプレースホルダ論文の返却を記録する。
func (c *Collector) RecordUnavailable(category string) {
	c.unavailable.WithLabelValues(category).Inc()
}

// RecordFetchLatency は論文取得のレイテンシを記録する。
func (c *Collector) RecordFetchLatency(duration time.Duration) {
	c.fetchLatency.Observe(duration.Seconds())
}

// RecordAssistedFallback は補助マッチングのフォールバックを理由別に記録する。
func (c *Collector) RecordAssistedFallback(reason string) {
	c.assistedFallback.WithLabelValues(reason).Inc()
}

// RecordDispatch はメール送信の結果を記録する。
func (c *Collector) RecordDispatch(outcome string) {
	c.dispatches.WithLabelValues(outcome).Inc()
}

// RecordRefreshLatency はリフレッシュのレイテンシを記録する。
func (c *Collector) RecordRefreshLatency(duration time.Duration) {
	c.refreshLatency.Observe(duration.Seconds())
}

// Nop は何も記録しないMetricsCollector。テストやメトリクス無効時に使用する。
type Nop struct{}

func (Nop) RecordRelayAttempt(string)          {}
func (Nop) RecordCacheFallback(string)         {}
func (Nop) RecordUnavailable(string)           {}
func (Nop) RecordFetchLatency(time.Duration)   {}
func (Nop) RecordAssistedFallback(string)      {}
func (Nop) RecordDispatch(string)              {}
func (Nop) RecordRefreshLatency(time.Duration) {}

var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = Nop{}
)

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
