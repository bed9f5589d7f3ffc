// Package scenario 提供场景测试
package scenario

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/paigong/paigong/pkg/model"
	"github.com/paigong/paigong/pkg/staffing"
)

// 场景基准时间：2026-09-09 为周三
var scenarioNow = time.Date(2026, 9, 9, 12, 0, 0, 0, time.UTC)

// memorySources 内存数据源，实现引擎的全部数据源接口
type memorySources struct {
	roles       map[uuid.UUID]*model.JobRole
	commitments map[uuid.UUID][]*model.JobCommitment
	certs       map[uuid.UUID][]model.Certification
	rates       map[uuid.UUID]float64 // workerID -> 最近协商时薪
}

func newMemorySources() *memorySources {
	return &memorySources{
		roles:       make(map[uuid.UUID]*model.JobRole),
		commitments: make(map[uuid.UUID][]*model.JobCommitment),
		certs:       make(map[uuid.UUID][]model.Certification),
		rates:       make(map[uuid.UUID]float64),
	}
}

func (m *memorySources) GetRole(_ context.Context, roleID uuid.UUID) (*model.JobRole, error) {
	return m.roles[roleID], nil
}

func (m *memorySources) ListCommitments(_ context.Context, workerID uuid.UUID, dates model.DateRange) ([]*model.JobCommitment, error) {
	var out []*model.JobCommitment
	for _, c := range m.commitments[workerID] {
		if dates.CoversDate(model.DateOf(c.StartTime)) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memorySources) ListValidCertifications(_ context.Context, workerID uuid.UUID) ([]model.Certification, error) {
	return m.certs[workerID], nil
}

func (m *memorySources) LatestRate(_ context.Context, workerID, _ uuid.UUID) (float64, error) {
	return m.rates[workerID], nil
}

// newScenarioEngine 创建使用固定时钟的场景引擎
func newScenarioEngine(src *memorySources) *staffing.Engine {
	e := staffing.NewEngine(staffing.DefaultConfig(), staffing.Sources{
		Roles:          src,
		Commitments:    src,
		Certifications: src,
		Rates:          src,
	})
	e.SetClock(func() time.Time { return scenarioNow })
	return e
}

// newRole 创建岗位
func newRole(name string, rate float64, certs ...string) *model.JobRole {
	return &model.JobRole{
		BaseModel:              model.BaseModel{ID: uuid.New()},
		Name:                   name,
		RequiredCertifications: certs,
		BaseHourlyRate:         rate,
	}
}

// newCrewWorker 创建周一至周五 08:00-17:00 出勤的工人（午休1小时）
func newCrewWorker(name string, rating float64) *model.Worker {
	schedule := make(model.WeeklySchedule)
	for _, d := range []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday} {
		schedule[d] = model.DaySchedule{Available: true, Start: "08:00", End: "17:00", BreakMinutes: 60}
	}
	return &model.Worker{
		BaseModel:         model.BaseModel{ID: uuid.New()},
		Name:              name,
		Status:            "active",
		Rating:            rating,
		TargetWeeklyHours: 40,
		WeeklySchedule:    schedule,
	}
}

// withExperience 添加岗位履历
func withExperience(w *model.Worker, roleID uuid.UUID, isLead bool) *model.Worker {
	w.RoleHistory = append(w.RoleHistory, model.RoleAssignment{
		RoleID:   roleID,
		WorkerID: w.ID,
		IsLead:   isLead,
	})
	return w
}

// withCerts 登记已核验证书
func withCerts(src *memorySources, w *model.Worker, names ...string) {
	for _, n := range names {
		src.certs[w.ID] = append(src.certs[w.ID], model.Certification{
			WorkerID: w.ID,
			Name:     n,
			Verified: true,
		})
	}
}
