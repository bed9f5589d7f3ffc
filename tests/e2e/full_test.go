// Package e2e 提供端到端测试
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/paigong/paigong/internal/handler"
	"github.com/paigong/paigong/pkg/model"
	"github.com/paigong/paigong/pkg/staffing"
)

// 基准时间：2026-09-09 为周三
var e2eNow = time.Date(2026, 9, 9, 12, 0, 0, 0, time.UTC)

// stubSources 内存数据源
type stubSources struct {
	roles map[uuid.UUID]*model.JobRole
}

func (s *stubSources) GetRole(_ context.Context, roleID uuid.UUID) (*model.JobRole, error) {
	return s.roles[roleID], nil
}

func (s *stubSources) ListCommitments(_ context.Context, _ uuid.UUID, _ model.DateRange) ([]*model.JobCommitment, error) {
	return nil, nil
}

func (s *stubSources) ListValidCertifications(_ context.Context, _ uuid.UUID) ([]model.Certification, error) {
	return nil, nil
}

func (s *stubSources) LatestRate(_ context.Context, _, _ uuid.UUID) (float64, error) {
	return 0, nil
}

func newTestServer(src *stubSources) *handler.StaffingHandler {
	engine := staffing.NewEngine(staffing.DefaultConfig(), staffing.Sources{
		Roles:          src,
		Commitments:    src,
		Certifications: src,
		Rates:          src,
	})
	engine.SetClock(func() time.Time { return e2eNow })
	return handler.NewStaffingHandler(engine, nil)
}

func postJSON(t *testing.T, h http.HandlerFunc, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("请求体序列化失败: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	h(recorder, req)
	return recorder
}

func crewWorker(name string, roleID uuid.UUID) *model.Worker {
	schedule := make(model.WeeklySchedule)
	for _, d := range []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday} {
		schedule[d] = model.DaySchedule{Available: true, Start: "08:00", End: "16:00"}
	}
	w := &model.Worker{
		BaseModel:         model.BaseModel{ID: uuid.New()},
		Name:              name,
		Status:            "active",
		Rating:            4,
		TargetWeeklyHours: 40,
		WeeklySchedule:    schedule,
	}
	if roleID != uuid.Nil {
		w.RoleHistory = []model.RoleAssignment{{RoleID: roleID, WorkerID: w.ID}}
	}
	return w
}

// TestFullStaffingWorkflow 完整派工工作流：可用性 -> 排序 -> 派工 -> 备选
func TestFullStaffingWorkflow(t *testing.T) {
	role := &model.JobRole{
		BaseModel:      model.BaseModel{ID: uuid.New()},
		Name:           "电工",
		BaseHourlyRate: 40,
	}
	src := &stubSources{roles: map[uuid.UUID]*model.JobRole{role.ID: role}}
	h := newTestServer(src)

	worker := crewWorker("李师傅", role.ID)
	slot := map[string]string{
		"start": "2026-09-11T08:00:00Z",
		"end":   "2026-09-11T16:00:00Z",
	}

	// 1. 可用性检查
	rec := postJSON(t, h.Availability, map[string]interface{}{
		"worker": worker,
		"slot":   slot,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("可用性检查状态码 %d: %s", rec.Code, rec.Body.String())
	}

	var availResp struct {
		Success bool `json:"success"`
		Data    struct {
			Available      bool    `json:"available"`
			AvailableHours float64 `json:"available_hours"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &availResp); err != nil {
		t.Fatalf("响应解析失败: %v", err)
	}
	if !availResp.Data.Available {
		t.Error("工人周五应可用")
	}
	if availResp.Data.AvailableHours != 8 {
		t.Errorf("期望 8 小时可用工时，实际 %.1f", availResp.Data.AvailableHours)
	}

	// 2. 候选排序
	rec = postJSON(t, h.Rank, map[string]interface{}{
		"role_id": role.ID,
		"slot":    slot,
		"workers": []*model.Worker{worker, crewWorker("王小工", uuid.Nil)},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("候选排序状态码 %d: %s", rec.Code, rec.Body.String())
	}

	var rankResp struct {
		Data []staffing.CandidateScore `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &rankResp); err != nil {
		t.Fatalf("响应解析失败: %v", err)
	}
	if len(rankResp.Data) != 2 {
		t.Fatalf("期望 2 名候选，实际 %d", len(rankResp.Data))
	}
	if rankResp.Data[0].WorkerID != worker.ID {
		t.Error("有经验的李师傅应排第一")
	}

	// 3. 整班派工
	rec = postJSON(t, h.Allocate, map[string]interface{}{
		"requirements": []map[string]interface{}{
			{"role_id": role.ID, "quantity": 1},
		},
		"slot":    slot,
		"workers": []*model.Worker{worker},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("派工状态码 %d: %s", rec.Code, rec.Body.String())
	}

	var allocResp struct {
		Success bool `json:"success"`
		Data    struct {
			Assignments []staffing.Assignment `json:"assignments"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &allocResp); err != nil {
		t.Fatalf("响应解析失败: %v", err)
	}
	if !allocResp.Success {
		t.Fatal("派工应成功")
	}
	if len(allocResp.Data.Assignments) != 1 || !allocResp.Data.Assignments[0].IsLead {
		t.Errorf("应有 1 条带班分配，实际 %v", allocResp.Data.Assignments)
	}
	// 无协商时薪时回落到岗位基准时薪
	if allocResp.Data.Assignments[0].Rate != 40 {
		t.Errorf("期望岗位基准时薪 40，实际 %.0f", allocResp.Data.Assignments[0].Rate)
	}

	// 4. 备选时段
	rec = postJSON(t, h.Alternatives, map[string]interface{}{
		"requirements": []map[string]interface{}{
			{"role_id": role.ID, "quantity": 1},
		},
		"slot":    slot,
		"workers": []*model.Worker{worker},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("备选搜索状态码 %d: %s", rec.Code, rec.Body.String())
	}

	var altResp struct {
		Data []staffing.AlternativeSlot `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &altResp); err != nil {
		t.Fatalf("响应解析失败: %v", err)
	}
	if len(altResp.Data) == 0 {
		t.Fatal("应找到备选时段")
	}
	t.Logf("工作流完成，共 %d 个备选时段", len(altResp.Data))
}

// TestValidationRejectsBadRequests 请求校验测试
func TestValidationRejectsBadRequests(t *testing.T) {
	src := &stubSources{roles: map[uuid.UUID]*model.JobRole{}}
	h := newTestServer(src)

	// 结束时间早于开始时间
	rec := postJSON(t, h.Availability, map[string]interface{}{
		"worker": crewWorker("李师傅", uuid.Nil),
		"slot": map[string]string{
			"start": "2026-09-11T16:00:00Z",
			"end":   "2026-09-11T08:00:00Z",
		},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("倒置时间段应返回 400，实际 %d", rec.Code)
	}

	// 缺少需求列表
	rec = postJSON(t, h.Allocate, map[string]interface{}{
		"slot": map[string]string{
			"start": "2026-09-11T08:00:00Z",
			"end":   "2026-09-11T16:00:00Z",
		},
		"workers": []*model.Worker{crewWorker("李师傅", uuid.Nil)},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("缺少需求应返回 400，实际 %d", rec.Code)
	}

	// 既无工人也无班组
	rec = postJSON(t, h.Rank, map[string]interface{}{
		"role_id": uuid.New(),
		"slot": map[string]string{
			"start": "2026-09-11T08:00:00Z",
			"end":   "2026-09-11T16:00:00Z",
		},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("缺少候选池应返回 400，实际 %d", rec.Code)
	}
}

// TestMethodNotAllowed 非POST请求测试
func TestMethodNotAllowed(t *testing.T) {
	src := &stubSources{roles: map[uuid.UUID]*model.JobRole{}}
	h := newTestServer(src)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.Allocate(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET 请求应返回 405，实际 %d", rec.Code)
	}
}
