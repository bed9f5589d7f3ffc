// Package model 定义派工引擎的核心数据模型
package model

import (
	"time"

	"github.com/google/uuid"
)

// BaseModel 基础模型（包含通用字段）
type BaseModel struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"-" db:"deleted_at"`
}

// NewBaseModel 创建新的基础模型
func NewBaseModel() BaseModel {
	now := time.Now()
	return BaseModel{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Team 班组/团队
type Team struct {
	BaseModel
	Name     string  `json:"name" db:"name"`
	Code     string  `json:"code" db:"code"`
	Settings JSONMap `json:"settings" db:"settings"`
}

// JSONMap 用于存储 JSONB 数据
type JSONMap map[string]interface{}

// TimeSlot 工单时间段
type TimeSlot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration 返回时间段的持续时间
func (s TimeSlot) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Hours 返回时间段的小时数
func (s TimeSlot) Hours() float64 {
	return s.End.Sub(s.Start).Hours()
}

// Overlaps 检查两个时间段是否重叠
func (s TimeSlot) Overlaps(other TimeSlot) bool {
	return s.Start.Before(other.End) && other.Start.Before(s.End)
}

// Contains 检查时间段是否包含某个时间点
func (s TimeSlot) Contains(t time.Time) bool {
	return !t.Before(s.Start) && t.Before(s.End)
}

// IsValid 检查时间段是否有效（结束必须晚于开始）
func (s TimeSlot) IsValid() bool {
	return s.End.After(s.Start)
}

// ShiftTo 返回同等时长、平移到指定日期同一时刻的时间段
func (s TimeSlot) ShiftTo(day time.Time) TimeSlot {
	start := time.Date(day.Year(), day.Month(), day.Day(),
		s.Start.Hour(), s.Start.Minute(), 0, 0, s.Start.Location())
	return TimeSlot{Start: start, End: start.Add(s.Duration())}
}

// Days 返回时间段覆盖的所有日历日（含首尾两端所在日期）
func (s TimeSlot) Days() []time.Time {
	var days []time.Time
	day := time.Date(s.Start.Year(), s.Start.Month(), s.Start.Day(), 0, 0, 0, 0, s.Start.Location())
	last := time.Date(s.End.Year(), s.End.Month(), s.End.Day(), 0, 0, 0, 0, s.End.Location())
	for !day.After(last) {
		days = append(days, day)
		day = day.AddDate(0, 0, 1)
	}
	return days
}

// DateRange 日期范围
type DateRange struct {
	StartDate string `json:"start_date"` // YYYY-MM-DD
	EndDate   string `json:"end_date"`   // YYYY-MM-DD
}

// CoversDate 检查日期范围是否覆盖某个日期（YYYY-MM-DD）
func (r DateRange) CoversDate(date string) bool {
	return r.StartDate <= date && date <= r.EndDate
}

// DateOf 返回时间点的日期字符串（YYYY-MM-DD）
func DateOf(t time.Time) string {
	return t.Format("2006-01-02")
}

// WeekOf 返回时间点所在周的边界（周一 00:00 至 周日 23:59:59）
func WeekOf(t time.Time) TimeSlot {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7 // 周日按一周的最后一天处理
	}
	monday := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()).
		AddDate(0, 0, -(weekday - 1))
	return TimeSlot{
		Start: monday,
		End:   monday.AddDate(0, 0, 7).Add(-time.Second),
	}
}
