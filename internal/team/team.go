// Package team 提供班组管理与请求上下文支持
package team

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrTeamNotFound = errors.New("班组不存在")
	ErrInvalidTeam  = errors.New("无效的班组")
	ErrTeamDisabled = errors.New("班组已停用")
)

// Team 班组
type Team struct {
	ID        uuid.UUID    `json:"id"`
	Code      string       `json:"code"`   // 班组编码
	Name      string       `json:"name"`   // 班组名称
	Status    string       `json:"status"` // active/suspended
	Settings  TeamSettings `json:"settings"`
	CreatedAt time.Time    `json:"created_at"`
}

// TeamSettings 班组配置
type TeamSettings struct {
	MaxWorkers      int      `json:"max_workers"`        // 最大工人数
	MaxJobsPerDay   int      `json:"max_jobs_per_day"`   // 每日最大工单数
	AllowedJobTypes []string `json:"allowed_job_types"`  // 允许承接的工单类型
	FairnessWeight  float64  `json:"fairness_weight"`    // 班组级别的公平性权重覆盖，<0 表示使用全局配置
	APIRateLimit    int      `json:"api_rate_limit"`     // API速率限制
}

// IsActive 检查班组是否启用
func (t *Team) IsActive() bool {
	return t.Status == "active"
}

// AcceptsJobType 检查班组是否承接某类工单
func (t *Team) AcceptsJobType(jobType string) bool {
	for _, jt := range t.Settings.AllowedJobTypes {
		if jt == jobType || jt == "*" {
			return true
		}
	}
	return false
}

// Manager 班组管理器
type Manager struct {
	teams map[string]*Team // code -> team
	mu    sync.RWMutex
}

// NewManager 创建班组管理器
func NewManager() *Manager {
	return &Manager{
		teams: make(map[string]*Team),
	}
}

// Register 注册班组
func (m *Manager) Register(team *Team) error {
	if team == nil || team.Code == "" {
		return ErrInvalidTeam
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.teams[team.Code] = team
	return nil
}

// Get 获取班组
func (m *Manager) Get(code string) (*Team, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	team, exists := m.teams[code]
	if !exists {
		return nil, ErrTeamNotFound
	}

	if !team.IsActive() {
		return nil, ErrTeamDisabled
	}

	return team, nil
}

// GetByID 通过ID获取班组
func (m *Manager) GetByID(id uuid.UUID) (*Team, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, team := range m.teams {
		if team.ID == id {
			if !team.IsActive() {
				return nil, ErrTeamDisabled
			}
			return team, nil
		}
	}

	return nil, ErrTeamNotFound
}

// List 列出所有班组
func (m *Manager) List() []*Team {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Team, 0, len(m.teams))
	for _, t := range m.teams {
		result = append(result, t)
	}
	return result
}

// Remove 移除班组
func (m *Manager) Remove(code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.teams, code)
}

// teamContextKey 班组上下文键
type teamContextKey struct{}

// WithTeam 将班组添加到上下文
func WithTeam(ctx context.Context, team *Team) context.Context {
	return context.WithValue(ctx, teamContextKey{}, team)
}

// FromContext 从上下文获取班组
func FromContext(ctx context.Context) (*Team, bool) {
	team, ok := ctx.Value(teamContextKey{}).(*Team)
	return team, ok
}

// DefaultTeamSettings 默认班组配置
func DefaultTeamSettings() TeamSettings {
	return TeamSettings{
		MaxWorkers:      100,
		MaxJobsPerDay:   200,
		AllowedJobTypes: []string{"*"},
		FairnessWeight:  -1,
		APIRateLimit:    100,
	}
}

// CreateDefaultTeam 创建默认班组（开发测试用）
func CreateDefaultTeam() *Team {
	return &Team{
		ID:        uuid.New(),
		Code:      "default",
		Name:      "默认班组",
		Status:    "active",
		Settings:  DefaultTeamSettings(),
		CreatedAt: time.Now(),
	}
}
