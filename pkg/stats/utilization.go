// Package stats 提供派工统计分析功能
package stats

import (
	"math"
	"sort"

	"github.com/paigong/paigong/pkg/model"
)

// WorkerUtilization 单个工人的周工时统计
type WorkerUtilization struct {
	WorkerID       string  `json:"worker_id"`
	WorkerName     string  `json:"worker_name"`
	HoursScheduled float64 `json:"hours_scheduled"`
	TargetHours    float64 `json:"target_hours"`
	UtilizationPct float64 `json:"utilization_pct"`
	Deviation      float64 `json:"deviation"` // 与班组平均工时的偏差百分比
}

// UtilizationMetrics 班组工时分布指标
type UtilizationMetrics struct {
	WorkloadGini     float64             `json:"workload_gini"`     // 工时基尼系数 (0=完全均衡, 1=完全失衡)
	WorkloadStdDev   float64             `json:"workload_std_dev"`  // 工时标准差
	AvgHours         float64             `json:"avg_hours"`         // 人均工时
	MaxHours         float64             `json:"max_hours"`         // 最大工时
	MinHours         float64             `json:"min_hours"`         // 最小工时
	HoursRange       float64             `json:"hours_range"`       // 工时极差
	WorkerStats      []WorkerUtilization `json:"worker_stats"`      // 工人级别统计
	OverallBalance   float64             `json:"overall_balance"`   // 综合均衡评分 (0-100)
	OverloadedCount  int                 `json:"overloaded_count"`  // 超过目标工时的人数
	UnderusedCount   int                 `json:"underused_count"`   // 利用率低于一半的人数
	DefaultTarget    float64             `json:"default_target"`    // 缺省目标周工时
}

// UtilizationAnalyzer 工时分布分析器
type UtilizationAnalyzer struct {
	defaultTargetHours float64
}

// NewUtilizationAnalyzer 创建工时分布分析器
func NewUtilizationAnalyzer(defaultTargetHours float64) *UtilizationAnalyzer {
	if defaultTargetHours <= 0 {
		defaultTargetHours = 40
	}
	return &UtilizationAnalyzer{defaultTargetHours: defaultTargetHours}
}

// Analyze 分析班组内工时分配的均衡程度
// commitments 为本周内开始的已接受占用，按工人聚合后计算分布指标
func (a *UtilizationAnalyzer) Analyze(workers []*model.Worker, commitments []*model.JobCommitment) *UtilizationMetrics {
	metrics := &UtilizationMetrics{DefaultTarget: a.defaultTargetHours}
	if len(workers) == 0 {
		metrics.OverallBalance = 100
		return metrics
	}

	hoursByWorker := make(map[string]float64)
	for _, c := range commitments {
		if !c.IsAccepted() {
			continue
		}
		hoursByWorker[c.WorkerID.String()] += c.Hours()
	}

	hours := make([]float64, 0, len(workers))
	for _, w := range workers {
		target := w.TargetWeeklyHours
		if target <= 0 {
			target = a.defaultTargetHours
		}

		scheduled := hoursByWorker[w.ID.String()]
		pct := scheduled / target * 100
		if pct > 100 {
			metrics.OverloadedCount++
			pct = 100
		}
		if pct < 50 {
			metrics.UnderusedCount++
		}

		metrics.WorkerStats = append(metrics.WorkerStats, WorkerUtilization{
			WorkerID:       w.ID.String(),
			WorkerName:     w.Name,
			HoursScheduled: scheduled,
			TargetHours:    target,
			UtilizationPct: pct,
		})
		hours = append(hours, scheduled)
	}

	avg := mean(hours)
	stdDev := math.Sqrt(variance(hours, avg))
	maxH, minH := valueRange(hours)

	for i := range metrics.WorkerStats {
		if avg > 0 {
			metrics.WorkerStats[i].Deviation = (metrics.WorkerStats[i].HoursScheduled - avg) / avg * 100
		}
	}

	// 工时降序，便于面板直接展示
	sort.Slice(metrics.WorkerStats, func(i, j int) bool {
		if metrics.WorkerStats[i].HoursScheduled != metrics.WorkerStats[j].HoursScheduled {
			return metrics.WorkerStats[i].HoursScheduled > metrics.WorkerStats[j].HoursScheduled
		}
		return metrics.WorkerStats[i].WorkerID < metrics.WorkerStats[j].WorkerID
	})

	metrics.WorkloadGini = gini(hours)
	metrics.WorkloadStdDev = stdDev
	metrics.AvgHours = avg
	metrics.MaxHours = maxH
	metrics.MinHours = minH
	metrics.HoursRange = maxH - minH
	metrics.OverallBalance = balanceScore(metrics.WorkloadGini, stdDev, avg)

	return metrics
}

// balanceScore 计算综合均衡评分
func balanceScore(giniCoef, stdDev, avgHours float64) float64 {
	const (
		giniWeight = 0.7
		cvWeight   = 0.3
	)

	giniScore := (1 - giniCoef) * 100

	// 变异系数越低分数越高
	cvScore := 100.0
	if avgHours > 0 {
		cv := stdDev / avgHours
		cvScore = math.Max(0, 100-cv*200)
	}

	return math.Max(0, math.Min(100, giniWeight*giniScore+cvWeight*cvScore))
}

// mean 计算平均值
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// variance 计算方差
func variance(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sumSquares := 0.0
	for _, v := range values {
		diff := v - mean
		sumSquares += diff * diff
	}
	return sumSquares / float64(len(values))
}

// valueRange 计算极值
func valueRange(values []float64) (max, min float64) {
	if len(values) == 0 {
		return 0, 0
	}
	max, min = values[0], values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	return
}

// gini 计算基尼系数
func gini(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	if sum == 0 {
		return 0
	}

	g := 0.0
	for i, v := range sorted {
		g += (2*float64(i+1) - float64(n) - 1) * v
	}

	g = g / (float64(n) * sum)
	return math.Max(0, math.Min(1, g))
}
