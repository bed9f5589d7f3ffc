// Package validator 提供工单占用的冲突检测功能
package validator

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/paigong/paigong/pkg/model"
)

// ConflictType 冲突类型
type ConflictType string

const (
	ConflictOverlap  ConflictType = "overlap"   // 时间重叠
	ConflictRestTime ConflictType = "rest_time" // 休息时间不足
	ConflictMaxHours ConflictType = "max_hours" // 超过最大工时
)

// Conflict 冲突信息
type Conflict struct {
	Type        ConflictType `json:"type"`
	Severity    string       `json:"severity"` // error/warning
	WorkerID    uuid.UUID    `json:"worker_id"`
	Date        string       `json:"date"`
	Message     string       `json:"message"`
	Commitments []uuid.UUID  `json:"commitments,omitempty"` // 相关的占用ID
}

// ConflictDetector 占用冲突检测器
type ConflictDetector struct {
	config *DetectorConfig
}

// DetectorConfig 检测器配置
type DetectorConfig struct {
	MinRestHours    int // 两个工单之间的最小休息时间（小时）
	MaxHoursPerDay  int // 每日最大工时
	MaxHoursPerWeek int // 每周最大工时
}

// DefaultDetectorConfig 返回默认配置
func DefaultDetectorConfig() *DetectorConfig {
	return &DetectorConfig{
		MinRestHours:    10,
		MaxHoursPerDay:  12,
		MaxHoursPerWeek: 60,
	}
}

// NewConflictDetector 创建占用冲突检测器
func NewConflictDetector(config *DetectorConfig) *ConflictDetector {
	if config == nil {
		config = DefaultDetectorConfig()
	}
	return &ConflictDetector{config: config}
}

// DetectForCommitment 检测新占用与某工人现有占用之间的冲突
//
// 只有已接受的现有占用参与检测，被拒绝或待确认的占用不构成障碍
func (d *ConflictDetector) DetectForCommitment(
	newCommitment *model.JobCommitment,
	existing []*model.JobCommitment,
) []Conflict {
	var conflicts []Conflict

	date := model.DateOf(newCommitment.StartTime)

	for _, c := range existing {
		if c.WorkerID != newCommitment.WorkerID {
			continue
		}
		if c.ID == newCommitment.ID {
			continue
		}
		if !c.IsAccepted() {
			continue
		}

		if newCommitment.Slot().Overlaps(c.Slot()) {
			conflicts = append(conflicts, Conflict{
				Type:        ConflictOverlap,
				Severity:    "error",
				WorkerID:    newCommitment.WorkerID,
				Date:        date,
				Message:     fmt.Sprintf("与现有工单 %s 时间重叠", c.JobType),
				Commitments: []uuid.UUID{newCommitment.ID, c.ID},
			})
			continue
		}

		restHours := restBetween(newCommitment, c)
		if restHours >= 0 && restHours < float64(d.config.MinRestHours) {
			conflicts = append(conflicts, Conflict{
				Type:        ConflictRestTime,
				Severity:    "warning",
				WorkerID:    newCommitment.WorkerID,
				Date:        date,
				Message:     fmt.Sprintf("与相邻工单间休息仅 %.1f 小时，少于要求的 %d 小时", restHours, d.config.MinRestHours),
				Commitments: []uuid.UUID{newCommitment.ID, c.ID},
			})
		}
	}

	dailyHours := d.dailyHoursWith(newCommitment, existing)
	if dailyHours > float64(d.config.MaxHoursPerDay) {
		conflicts = append(conflicts, Conflict{
			Type:     ConflictMaxHours,
			Severity: "error",
			WorkerID: newCommitment.WorkerID,
			Date:     date,
			Message:  fmt.Sprintf("当日工时 %.1f 小时，超过限制 %d 小时", dailyHours, d.config.MaxHoursPerDay),
		})
	}

	return conflicts
}

// DetectAll 检测一批占用中所有工人的冲突
func (d *ConflictDetector) DetectAll(commitments []*model.JobCommitment) []Conflict {
	var conflicts []Conflict

	for workerID, list := range groupByWorker(commitments) {
		conflicts = append(conflicts, d.detectOverlaps(workerID, list)...)
		conflicts = append(conflicts, d.detectRestTimeViolations(workerID, list)...)
		conflicts = append(conflicts, d.detectWeeklyHoursViolations(workerID, list)...)
	}

	return conflicts
}

// detectOverlaps 检测同一工人相邻占用的时间重叠
func (d *ConflictDetector) detectOverlaps(workerID uuid.UUID, commitments []*model.JobCommitment) []Conflict {
	var conflicts []Conflict

	sorted := make([]*model.JobCommitment, len(commitments))
	copy(sorted, commitments)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].StartTime.Before(sorted[j].StartTime)
	})

	for i := 0; i < len(sorted)-1; i++ {
		current := sorted[i]
		next := sorted[i+1]

		if current.Slot().Overlaps(next.Slot()) {
			conflicts = append(conflicts, Conflict{
				Type:        ConflictOverlap,
				Severity:    "error",
				WorkerID:    workerID,
				Date:        model.DateOf(current.StartTime),
				Message:     fmt.Sprintf("工人在 %s 存在时间重叠的工单占用", model.DateOf(current.StartTime)),
				Commitments: []uuid.UUID{current.ID, next.ID},
			})
		}
	}

	return conflicts
}

// detectRestTimeViolations 检测相邻工单间休息时间不足
func (d *ConflictDetector) detectRestTimeViolations(workerID uuid.UUID, commitments []*model.JobCommitment) []Conflict {
	var conflicts []Conflict

	if len(commitments) < 2 {
		return conflicts
	}

	sorted := make([]*model.JobCommitment, len(commitments))
	copy(sorted, commitments)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].EndTime.Before(sorted[j].EndTime)
	})

	for i := 0; i < len(sorted)-1; i++ {
		current := sorted[i]
		next := sorted[i+1]

		restHours := next.StartTime.Sub(current.EndTime).Hours()
		if restHours >= 0 && restHours < float64(d.config.MinRestHours) {
			conflicts = append(conflicts, Conflict{
				Type:        ConflictRestTime,
				Severity:    "warning",
				WorkerID:    workerID,
				Date:        model.DateOf(next.StartTime),
				Message:     fmt.Sprintf("工单间休息仅 %.1f 小时", restHours),
				Commitments: []uuid.UUID{current.ID, next.ID},
			})
		}
	}

	return conflicts
}

// detectWeeklyHoursViolations 检测周工时超限
func (d *ConflictDetector) detectWeeklyHoursViolations(workerID uuid.UUID, commitments []*model.JobCommitment) []Conflict {
	var conflicts []Conflict

	weeklyHours := make(map[string]float64)
	for _, c := range commitments {
		if !c.IsAccepted() {
			continue
		}
		week := model.DateOf(model.WeekOf(c.StartTime).Start)
		weeklyHours[week] += c.Hours()
	}

	weeks := make([]string, 0, len(weeklyHours))
	for w := range weeklyHours {
		weeks = append(weeks, w)
	}
	sort.Strings(weeks)

	for _, week := range weeks {
		if weeklyHours[week] > float64(d.config.MaxHoursPerWeek) {
			conflicts = append(conflicts, Conflict{
				Type:     ConflictMaxHours,
				Severity: "warning",
				WorkerID: workerID,
				Date:     week,
				Message:  fmt.Sprintf("周（%s 起）工时 %.1f 小时，超过限制 %d 小时", week, weeklyHours[week], d.config.MaxHoursPerWeek),
			})
		}
	}

	return conflicts
}

// dailyHoursWith 计算加上新占用后当日的累计工时
func (d *ConflictDetector) dailyHoursWith(newCommitment *model.JobCommitment, existing []*model.JobCommitment) float64 {
	date := model.DateOf(newCommitment.StartTime)
	hours := newCommitment.Hours()

	for _, c := range existing {
		if c.WorkerID != newCommitment.WorkerID || !c.IsAccepted() {
			continue
		}
		if model.DateOf(c.StartTime) == date {
			hours += c.Hours()
		}
	}

	return hours
}

// restBetween 计算两个占用之间的休息时间，重叠返回 -1
func restBetween(a, b *model.JobCommitment) float64 {
	if a.EndTime.Before(b.StartTime) {
		return b.StartTime.Sub(a.EndTime).Hours()
	}
	if b.EndTime.Before(a.StartTime) {
		return a.StartTime.Sub(b.EndTime).Hours()
	}
	return -1
}

// groupByWorker 按工人分组
func groupByWorker(commitments []*model.JobCommitment) map[uuid.UUID][]*model.JobCommitment {
	result := make(map[uuid.UUID][]*model.JobCommitment)
	for _, c := range commitments {
		result[c.WorkerID] = append(result[c.WorkerID], c)
	}
	return result
}
