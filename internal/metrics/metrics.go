// Package metrics 提供派工引擎的 Prometheus 监控指标
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry 应用自有的指标注册表，避免与默认注册表的其他指标混杂
var Registry = prometheus.NewRegistry()

// factory 将指标直接注册到自有注册表
var factory = promauto.With(Registry)

// HTTPRequestsTotal 按路径与状态码统计的请求总数
var HTTPRequestsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "paigong",
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "Total HTTP requests by path and status code",
}, []string{"path", "status"})

// HTTPRequestDuration 请求耗时分布
var HTTPRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "paigong",
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "HTTP request latency by path",
	Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
}, []string{"path"})

// AllocationsTotal 按结果统计的派工分配次数
var AllocationsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "paigong",
	Subsystem: "staffing",
	Name:      "allocations_total",
	Help:      "Total crew allocation runs by outcome (success/partial)",
}, []string{"outcome"})

// UnfilledRequirementsTotal 未满足的岗位需求人数累计
var UnfilledRequirementsTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "paigong",
	Subsystem: "staffing",
	Name:      "unfilled_requirements_total",
	Help:      "Total headcount that could not be filled across allocation runs",
})

// AllocationDuration 单次派工分配耗时分布
var AllocationDuration = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "paigong",
	Subsystem: "staffing",
	Name:      "allocation_duration_seconds",
	Help:      "Time taken to allocate a full crew for a job",
	Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
})

// AllocationAverageScore 最近一次派工分配的平均评分
var AllocationAverageScore = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "paigong",
	Subsystem: "staffing",
	Name:      "allocation_average_score",
	Help:      "Average candidate score of the most recent allocation",
})

// CandidatesRanked 单次排序处理的候选人数分布
var CandidatesRanked = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "paigong",
	Subsystem: "staffing",
	Name:      "candidates_ranked",
	Help:      "Number of candidates scored per ranking run",
	Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500},
})

// SourceDegradedTotal 按数据源统计的降级次数
var SourceDegradedTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "paigong",
	Subsystem: "staffing",
	Name:      "source_degraded_total",
	Help:      "Times a data source read failed and scoring degraded",
}, []string{"source"})

// AlternativesFound 单次备选搜索找到的时段数分布
var AlternativesFound = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "paigong",
	Subsystem: "staffing",
	Name:      "alternatives_found",
	Help:      "Number of viable alternative slots found per search",
	Buckets:   []float64{0, 1, 2, 3, 4, 5},
})

// Handler 返回暴露指标的 HTTP 处理器
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordAllocation 记录一次派工分配的结果指标
func RecordAllocation(success bool, unfilled int, avgScore, durationSeconds float64) {
	outcome := "success"
	if !success {
		outcome = "partial"
	}
	AllocationsTotal.WithLabelValues(outcome).Inc()
	UnfilledRequirementsTotal.Add(float64(unfilled))
	AllocationDuration.Observe(durationSeconds)
	AllocationAverageScore.Set(avgScore)
}
