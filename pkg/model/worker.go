// Package model 定义派工引擎的核心数据模型
package model

import (
	"time"

	"github.com/google/uuid"
)

// Worker 工人/技工
type Worker struct {
	BaseModel
	TeamID uuid.UUID `json:"team_id" db:"team_id"`
	Name   string    `json:"name" db:"name"`
	Code   string    `json:"code" db:"code"`
	Phone  string    `json:"phone,omitempty" db:"phone"`
	Email  string    `json:"email,omitempty" db:"email"`
	Status string    `json:"status" db:"status"` // active/inactive/leave

	// 评分与工时目标
	Rating            float64 `json:"rating" db:"rating"`                           // 绩效评分 1-5
	TargetWeeklyHours float64 `json:"target_weekly_hours" db:"target_weekly_hours"` // 目标周工时

	// 排班相关
	WeeklySchedule WeeklySchedule      `json:"weekly_schedule" db:"weekly_schedule"`
	Exceptions     []ScheduleException `json:"exceptions,omitempty" db:"-"`

	// 岗位履历（含带班标记）
	RoleHistory []RoleAssignment `json:"role_history,omitempty" db:"-"`
}

// IsActive 检查工人是否在职
func (w *Worker) IsActive() bool {
	return w.Status == "active"
}

// HasRoleExperience 检查工人是否有某岗位的履历
func (w *Worker) HasRoleExperience(roleID uuid.UUID) bool {
	for _, ra := range w.RoleHistory {
		if ra.RoleID == roleID {
			return true
		}
	}
	return false
}

// HasLeadExperience 检查工人在某岗位是否带过班
func (w *Worker) HasLeadExperience(roleID uuid.UUID) bool {
	for _, ra := range w.RoleHistory {
		if ra.RoleID == roleID && ra.IsLead {
			return true
		}
	}
	return false
}

// ExceptionOn 查找覆盖某日期的已批准例外
// 按日期范围与当日精确匹配，而不是与整个工单时间段匹配
func (w *Worker) ExceptionOn(date string) *ScheduleException {
	for i := range w.Exceptions {
		ex := &w.Exceptions[i]
		if ex.Status != ExceptionApproved {
			continue
		}
		if ex.Dates.CoversDate(date) {
			return ex
		}
	}
	return nil
}

// WeeklySchedule 每周固定排班：星期 -> 当日安排
type WeeklySchedule map[time.Weekday]DaySchedule

// DaySchedule 单日排班安排
// Available 为 false 时 Start/End 无意义
type DaySchedule struct {
	Available    bool   `json:"available"`
	Start        string `json:"start,omitempty"` // HH:MM
	End          string `json:"end,omitempty"`   // HH:MM
	BreakMinutes int    `json:"break_minutes,omitempty"`
}

// NetHours 返回当日净工时（扣除休息时间，下限为0）
func (d DaySchedule) NetHours() float64 {
	if !d.Available {
		return 0
	}
	start, err1 := time.Parse("15:04", d.Start)
	end, err2 := time.Parse("15:04", d.End)
	if err1 != nil || err2 != nil || !end.After(start) {
		return 0
	}
	hours := end.Sub(start).Hours() - float64(d.BreakMinutes)/60
	if hours < 0 {
		return 0
	}
	return hours
}

// ExceptionType 排班例外类型（封闭枚举）
type ExceptionType string

const (
	ExceptionVacation  ExceptionType = "vacation"  // 休假
	ExceptionSick      ExceptionType = "sick"      // 病假
	ExceptionPersonal  ExceptionType = "personal"  // 事假
	ExceptionHoliday   ExceptionType = "holiday"   // 节假日
	ExceptionEmergency ExceptionType = "emergency" // 紧急情况
)

// EffectiveFullDay 该类型是否固定按整日生效
// 休假/病假/事假无论 IsFullDay 如何都按整日处理；
// 节假日和紧急情况遵循 IsFullDay 标记，可只覆盖部分时段
func (t ExceptionType) EffectiveFullDay() bool {
	switch t {
	case ExceptionVacation, ExceptionSick, ExceptionPersonal:
		return true
	default:
		return false
	}
}

// IsKnown 检查是否为已知的例外类型
func (t ExceptionType) IsKnown() bool {
	switch t {
	case ExceptionVacation, ExceptionSick, ExceptionPersonal, ExceptionHoliday, ExceptionEmergency:
		return true
	}
	return false
}

// ExceptionStatus 例外审批状态
type ExceptionStatus string

const (
	ExceptionPending  ExceptionStatus = "pending"
	ExceptionApproved ExceptionStatus = "approved"
	ExceptionRejected ExceptionStatus = "rejected"
)

// ScheduleException 排班例外（覆盖每周固定排班的日期段）
// 仅 approved 状态的例外影响可用性判定
type ScheduleException struct {
	BaseModel
	WorkerID  uuid.UUID       `json:"worker_id" db:"worker_id"`
	Type      ExceptionType   `json:"type" db:"type"`
	Dates     DateRange       `json:"dates" db:"-"`
	IsFullDay bool            `json:"is_full_day" db:"is_full_day"`
	StartTime string          `json:"start_time,omitempty" db:"start_time"` // HH:MM，IsFullDay=false 时使用
	EndTime   string          `json:"end_time,omitempty" db:"end_time"`     // HH:MM
	Status    ExceptionStatus `json:"status" db:"status"`
	Reason    string          `json:"reason,omitempty" db:"reason"`
}

// CarvedHours 返回部分时段例外挖掉的小时数
// 仅对非整日且起止时间齐全的例外有效
func (e *ScheduleException) CarvedHours() float64 {
	if e.IsFullDay || e.StartTime == "" || e.EndTime == "" {
		return 0
	}
	start, err1 := time.Parse("15:04", e.StartTime)
	end, err2 := time.Parse("15:04", e.EndTime)
	if err1 != nil || err2 != nil || !end.After(start) {
		return 0
	}
	return end.Sub(start).Hours()
}

// RoleAssignment 岗位履历记录
type RoleAssignment struct {
	RoleID     uuid.UUID `json:"role_id" db:"role_id"`
	WorkerID   uuid.UUID `json:"worker_id" db:"worker_id"`
	IsLead     bool      `json:"is_lead" db:"is_lead"`
	HourlyRate float64   `json:"hourly_rate" db:"hourly_rate"`
	AssignedAt time.Time `json:"assigned_at" db:"assigned_at"`
}

// Certification 证书记录
type Certification struct {
	WorkerID  uuid.UUID  `json:"worker_id" db:"worker_id"`
	Name      string     `json:"name" db:"name"`
	Verified  bool       `json:"verified" db:"verified"`
	IssuedAt  time.Time  `json:"issued_at" db:"issued_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty" db:"expires_at"`
}

// IsValid 检查证书是否有效（已核验且未过期）
func (c *Certification) IsValid(now time.Time) bool {
	if !c.Verified {
		return false
	}
	if c.ExpiresAt != nil && c.ExpiresAt.Before(now) {
		return false
	}
	return true
}
