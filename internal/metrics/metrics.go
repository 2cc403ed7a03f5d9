// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// 提出パイプラインやワーカーから利用する。
type MetricsCollector interface {
	RecordSubmission()
	RecordPersistenceFailure()
	RecordCompileRejected()
	RecordCompileUnreachable()
	RecordCompileLatency(duration time.Duration)
	RecordScheduledCompile(count int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	submissions        prometheus.Counter
	persistenceFail    prometheus.Counter
	compileRejected    prometheus.Counter
	compileUnreachable prometheus.Counter
	compileLatency     prometheus.Histogram
	scheduledCompiles  prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		submissions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stride_submissions_total",
			Help: "エントリ提出成功の合計数",
		}),
		persistenceFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stride_persistence_fail_total",
			Help: "エントリ保存失敗の合計数",
		}),
		compileRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stride_compile_rejected_total",
			Help: "コンパイルサービスがリクエストを拒否した合計数",
		}),
		compileUnreachable: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stride_compile_unreachable_total",
			Help: "コンパイルサービスに到達できなかった合計数",
		}),
		compileLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stride_compile_latency_seconds",
			Help:    "コンパイルサービス呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		scheduledCompiles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stride_scheduled_compiles_total",
			Help: "スケジューラーが起動した再コンパイルの合計数",
		}),
	}

	reg.MustRegister(
		c.submissions,
		c.persistenceFail,
		c.compileRejected,
		c.compileUnreachable,
		c.compileLatency,
		c.scheduledCompiles,
	)

	return c
}

// RecordSubmission はエントリ提出成功を記録する。
func (c *Collector) RecordSubmission() {
	c.submissions.Inc()
}

// RecordPersistenceFailure はエントリ保存失敗を記録する。
func (c *Collector) RecordPersistenceFailure() {
	c.persistenceFail.Inc()
}

// RecordCompileRejected はコンパイルサービスの拒否応答を記録する。
func (c *Collector) RecordCompileRejected() {
	c.compileRejected.Inc()
}

// RecordCompileUnreachable はコンパイルサービスへの接続失敗を記録する。
func (c *Collector) RecordCompileUnreachable() {
	c.compileUnreachable.Inc()
}

// RecordCompileLatency はコンパイル呼び出しのレイテンシを記録する。
func (c *Collector) RecordCompileLatency(duration time.Duration) {
	c.compileLatency.Observe(duration.Seconds())
}

// RecordScheduledCompile はスケジューラー起点の再コンパイル件数を記録する。
func (c *Collector) RecordScheduledCompile(count int) {
	c.scheduledCompiles.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
