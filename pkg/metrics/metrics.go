// Package metrics Prometheus 指标
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"TrendRadar/pkg/model"
)

const namespace = "trendradar"

// Metrics 检测服务指标，使用独立的 Registry
type Metrics struct {
	registry *prometheus.Registry

	Passes        prometheus.Counter
	PassFailures  prometheus.Counter
	PassDuration  prometheus.Histogram
	Checks        *prometheus.CounterVec
	Signals       *prometheus.CounterVec
	Notifications *prometheus.CounterVec
	FetchFailures *prometheus.CounterVec
}

// New 创建并注册指标
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Passes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "detection_passes_total",
			Help: "Completed detection passes",
		}),
		PassFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "detection_pass_failures_total",
			Help: "Detection passes aborted by an unexpected failure",
		}),
		PassDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "detection_pass_duration_seconds",
			Help:    "Wall time of one detection pass",
			Buckets: []float64{1, 2, 5, 10, 30, 60, 120},
		}),
		Checks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "symbol_checks_total",
			Help: "Symbols evaluated by the detector",
		}, []string{"symbol"}),
		Signals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "signals_total",
			Help: "Detector decisions by signal",
		}, []string{"symbol", "signal"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "notifications_total",
			Help: "Notification attempts by result",
		}, []string{"result"}),
		FetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "fetch_failures_total",
			Help: "Kline fetches that failed or returned no data",
		}, []string{"symbol"}),
	}

	m.registry.MustRegister(
		m.Passes, m.PassFailures, m.PassDuration,
		m.Checks, m.Signals, m.Notifications, m.FetchFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObservePass 记录一次检测轮次
func (m *Metrics) ObservePass(d time.Duration, err error) {
	if err != nil {
		m.PassFailures.Inc()
		return
	}
	m.Passes.Inc()
	m.PassDuration.Observe(d.Seconds())
}

// ObserveDecision 记录一次检测结果
func (m *Metrics) ObserveDecision(symbol string, signal model.Signal) {
	m.Checks.WithLabelValues(symbol).Inc()
	m.Signals.WithLabelValues(symbol, string(signal)).Inc()
}

// ObserveNotification 记录通知结果
func (m *Metrics) ObserveNotification(err error) {
	if err != nil {
		m.Notifications.WithLabelValues("failure").Inc()
		return
	}
	m.Notifications.WithLabelValues("success").Inc()
}

// ObserveFetchFailure 记录K线获取失败
func (m *Metrics) ObserveFetchFailure(symbol string) {
	m.FetchFailures.WithLabelValues(symbol).Inc()
}

// Registry 指标注册表
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler /metrics 处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
