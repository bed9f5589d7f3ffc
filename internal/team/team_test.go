package team

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestTeam_IsActive(t *testing.T) {
	tests := []struct {
		name     string
		team     *Team
		expected bool
	}{
		{
			name:     "启用班组",
			team:     &Team{Status: "active"},
			expected: true,
		},
		{
			name:     "停用班组",
			team:     &Team{Status: "suspended"},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := tt.team.IsActive(); result != tt.expected {
				t.Errorf("IsActive() = %v, expected %v", result, tt.expected)
			}
		})
	}
}

func TestTeam_AcceptsJobType(t *testing.T) {
	team := &Team{
		Settings: TeamSettings{
			AllowedJobTypes: []string{"Plumbing", "Electrical"},
		},
	}

	if !team.AcceptsJobType("Plumbing") {
		t.Error("应承接Plumbing工单")
	}
	if team.AcceptsJobType("HVAC") {
		t.Error("不应承接HVAC工单")
	}

	// 测试通配符
	team2 := &Team{
		Settings: TeamSettings{
			AllowedJobTypes: []string{"*"},
		},
	}
	if !team2.AcceptsJobType("anything") {
		t.Error("通配符应匹配任何工单类型")
	}
}

func TestManager_RegisterAndGet(t *testing.T) {
	manager := NewManager()

	team := &Team{
		ID:     uuid.New(),
		Code:   "test",
		Name:   "测试班组",
		Status: "active",
	}

	// 注册
	err := manager.Register(team)
	if err != nil {
		t.Errorf("Register failed: %v", err)
	}

	// 获取
	got, err := manager.Get("test")
	if err != nil {
		t.Errorf("Get failed: %v", err)
	}
	if got.Code != "test" {
		t.Errorf("Got wrong team: %v", got)
	}

	// 获取不存在的
	_, err = manager.Get("nonexistent")
	if err != ErrTeamNotFound {
		t.Errorf("Expected ErrTeamNotFound, got: %v", err)
	}
}

func TestManager_GetByID(t *testing.T) {
	manager := NewManager()
	id := uuid.New()

	team := &Team{
		ID:     id,
		Code:   "test",
		Status: "active",
	}
	manager.Register(team)

	got, err := manager.GetByID(id)
	if err != nil {
		t.Errorf("GetByID failed: %v", err)
	}
	if got.ID != id {
		t.Errorf("Got wrong team")
	}
}

func TestManager_GetDisabled(t *testing.T) {
	manager := NewManager()

	team := &Team{
		ID:     uuid.New(),
		Code:   "off",
		Status: "suspended",
	}
	manager.Register(team)

	if _, err := manager.Get("off"); err != ErrTeamDisabled {
		t.Errorf("Expected ErrTeamDisabled, got: %v", err)
	}
}

func TestTeamContext(t *testing.T) {
	team := &Team{Code: "test"}
	ctx := WithTeam(context.Background(), team)

	got, ok := FromContext(ctx)
	if !ok {
		t.Error("FromContext should return true")
	}
	if got.Code != "test" {
		t.Error("Got wrong team from context")
	}

	// 空上下文
	_, ok = FromContext(context.Background())
	if ok {
		t.Error("Empty context should return false")
	}
}

func TestDefaultTeamSettings(t *testing.T) {
	settings := DefaultTeamSettings()

	if settings.MaxWorkers != 100 {
		t.Errorf("Expected MaxWorkers=100, got %d", settings.MaxWorkers)
	}
	if settings.FairnessWeight >= 0 {
		t.Error("Default settings should defer fairness weight to global config")
	}
}

func TestCreateDefaultTeam(t *testing.T) {
	team := CreateDefaultTeam()

	if team.Code != "default" {
		t.Errorf("Expected code='default', got %s", team.Code)
	}
	if team.Status != "active" {
		t.Errorf("Expected status='active', got %s", team.Status)
	}
}
