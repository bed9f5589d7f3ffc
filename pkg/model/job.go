// Package model 定义派工引擎的核心数据模型
package model

import (
	"time"

	"github.com/google/uuid"
)

// JobRole 工单岗位
type JobRole struct {
	BaseModel
	TeamID                 uuid.UUID `json:"team_id" db:"team_id"`
	Name                   string    `json:"name" db:"name"`
	Code                   string    `json:"code" db:"code"`
	Description            string    `json:"description,omitempty" db:"description"`
	RequiredCertifications []string  `json:"required_certifications,omitempty" db:"required_certifications"`
	BaseHourlyRate         float64   `json:"base_hourly_rate" db:"base_hourly_rate"`
}

// RoleRequirement 岗位人数需求
type RoleRequirement struct {
	RoleID         uuid.UUID `json:"role_id"`
	Quantity       int       `json:"quantity"`                  // 需求人数，>= 1
	MinProficiency int       `json:"min_proficiency,omitempty"` // 最低熟练等级 1-5，0 表示不限
}

// Job 工单
type Job struct {
	BaseModel
	TeamID       uuid.UUID         `json:"team_id" db:"team_id"`
	JobNo        string            `json:"job_no" db:"job_no"`
	ClientID     uuid.UUID         `json:"client_id" db:"client_id"`
	JobType      string            `json:"job_type" db:"job_type"`
	Slot         TimeSlot          `json:"slot" db:"-"`
	Requirements []RoleRequirement `json:"requirements,omitempty" db:"-"`
	Status       string            `json:"status" db:"status"` // pending/assigned/in_progress/completed/cancelled
	Notes        string            `json:"notes,omitempty" db:"notes"`
}

// JobCommitment 工人已接受的工单占用
type JobCommitment struct {
	BaseModel
	WorkerID       uuid.UUID `json:"worker_id" db:"worker_id"`
	JobID          uuid.UUID `json:"job_id" db:"job_id"`
	RoleID         uuid.UUID `json:"role_id" db:"role_id"`
	JobType        string    `json:"job_type" db:"job_type"`
	StartTime      time.Time `json:"start_time" db:"start_time"`
	EndTime        time.Time `json:"end_time" db:"end_time"`
	EstimatedHours float64   `json:"estimated_hours,omitempty" db:"estimated_hours"`
	Status         string    `json:"status" db:"status"` // accepted/declined/completed/cancelled
}

// IsAccepted 检查占用是否处于已接受状态
func (c *JobCommitment) IsAccepted() bool {
	return c.Status == "accepted"
}

// Slot 返回占用对应的时间段
func (c *JobCommitment) Slot() TimeSlot {
	return TimeSlot{Start: c.StartTime, End: c.EndTime}
}

// Hours 返回占用工时，优先使用预估工时，缺省时按起止时间计算
func (c *JobCommitment) Hours() float64 {
	if c.EstimatedHours > 0 {
		return c.EstimatedHours
	}
	return c.EndTime.Sub(c.StartTime).Hours()
}

// StartsOn 检查占用是否在某日期开始（YYYY-MM-DD）
func (c *JobCommitment) StartsOn(date string) bool {
	return DateOf(c.StartTime) == date
}
