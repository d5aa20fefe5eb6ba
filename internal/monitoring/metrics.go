package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 清理任务结果标签
const (
	CleanupSucceeded = "success"
	CleanupFailed    = "failure"
	CleanupSkipped   = "skipped"
)

// Metrics 监控指标
type Metrics struct {
	// HTTP 请求指标
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	PanicsTotal         prometheus.Counter

	// 业务指标
	AddressesCreated prometheus.Counter
	MessageLookups   prometheus.Counter
	StoreErrors      *prometheus.CounterVec

	// 清理任务指标
	CleanupRuns        *prometheus.CounterVec
	CleanupDeactivated prometheus.Counter
	CleanupDuration    prometheus.Histogram

	gatherer prometheus.Gatherer
}

// NewMetrics 创建监控指标并注册到给定的注册表
//
// 传入 nil 时使用独立的新注册表，便于测试中重复创建。
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "privateinbox_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "privateinbox_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		PanicsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "privateinbox_panics_total",
				Help: "Total number of recovered handler panics",
			},
		),

		AddressesCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "privateinbox_addresses_created_total",
				Help: "Total number of temporary addresses created",
			},
		),

		MessageLookups: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "privateinbox_message_lookups_total",
				Help: "Total number of inbox listings served",
			},
		),

		StoreErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "privateinbox_store_errors_total",
				Help: "Total number of failed store operations",
			},
			[]string{"operation"},
		),

		CleanupRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "privateinbox_cleanup_runs_total",
				Help: "Total number of cleanup ticks by result",
			},
			[]string{"result"},
		),

		CleanupDeactivated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "privateinbox_cleanup_deactivated_total",
				Help: "Total number of addresses deactivated by cleanup",
			},
		),

		CleanupDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "privateinbox_cleanup_duration_seconds",
				Help:    "Cleanup tick duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),

		gatherer: reg,
	}
}

// RecordHTTPRequest 记录 HTTP 请求
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordPanic 记录被恢复的 panic
func (m *Metrics) RecordPanic() {
	m.PanicsTotal.Inc()
}

// RecordAddressCreated 记录新建地址
func (m *Metrics) RecordAddressCreated() {
	m.AddressesCreated.Inc()
}

// RecordMessageLookup 记录收件箱查询
func (m *Metrics) RecordMessageLookup() {
	m.MessageLookups.Inc()
}

// RecordStoreError 记录存储操作失败
func (m *Metrics) RecordStoreError(operation string) {
	m.StoreErrors.WithLabelValues(operation).Inc()
}

// RecordCleanup 记录一次清理任务；deactivated 为负数表示存储未返回影响行数
func (m *Metrics) RecordCleanup(result string, deactivated int64, duration time.Duration) {
	m.CleanupRuns.WithLabelValues(result).Inc()
	if result != CleanupSkipped {
		m.CleanupDuration.Observe(duration.Seconds())
	}
	if deactivated > 0 {
		m.CleanupDeactivated.Add(float64(deactivated))
	}
}

// Handler 返回 Prometheus 指标处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
