// Package handler 提供API处理器
package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/paigong/paigong/internal/metrics"
	"github.com/paigong/paigong/internal/repository"
	"github.com/paigong/paigong/internal/team"
	apperrors "github.com/paigong/paigong/pkg/errors"
	"github.com/paigong/paigong/pkg/logger"
	"github.com/paigong/paigong/pkg/model"
	"github.com/paigong/paigong/pkg/staffing"
)

// validate 请求参数校验器
var validate = validator.New()

// StaffingHandler 派工API处理器
type StaffingHandler struct {
	engine  *staffing.Engine
	workers *repository.WorkerRepository
}

// NewStaffingHandler 创建派工API处理器
func NewStaffingHandler(engine *staffing.Engine, workers *repository.WorkerRepository) *StaffingHandler {
	return &StaffingHandler{engine: engine, workers: workers}
}

// engineFor 返回应用了班组级配置覆盖的引擎
// 班组设置了非负公平性权重时用其覆盖全局权重，否则使用全局引擎
func (h *StaffingHandler) engineFor(r *http.Request) *staffing.Engine {
	t, ok := team.FromContext(r.Context())
	if !ok {
		return h.engine
	}
	return h.engine.WithFairnessWeight(t.Settings.FairnessWeight)
}

// APIResponse 通用响应封装
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// SlotRequest 请求中的时间段
type SlotRequest struct {
	Start time.Time `json:"start" validate:"required"`
	End   time.Time `json:"end" validate:"required,gtfield=Start"`
}

// Slot 转换为引擎时间段
func (s SlotRequest) Slot() model.TimeSlot {
	return model.TimeSlot{Start: s.Start, End: s.End}
}

// RequirementRequest 请求中的岗位需求
type RequirementRequest struct {
	RoleID         uuid.UUID `json:"role_id" validate:"required"`
	Quantity       int       `json:"quantity" validate:"required,min=1"`
	MinProficiency int       `json:"min_proficiency" validate:"min=0,max=5"`
}

// Requirements 转换为引擎岗位需求
func toRequirements(reqs []RequirementRequest) []model.RoleRequirement {
	out := make([]model.RoleRequirement, len(reqs))
	for i, r := range reqs {
		out[i] = model.RoleRequirement{
			RoleID:         r.RoleID,
			Quantity:       r.Quantity,
			MinProficiency: r.MinProficiency,
		}
	}
	return out
}

// AvailabilityRequest 可用性检查请求
type AvailabilityRequest struct {
	Worker *model.Worker `json:"worker" validate:"required"`
	Slot   SlotRequest   `json:"slot" validate:"required"`
}

// Availability 检查单个工人在某时间段的可用性
func (h *StaffingHandler) Availability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req AvailabilityRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.engine.CheckAvailability(r.Context(), req.Worker, req.Slot.Slot())
	if err != nil {
		sendError(w, err)
		return
	}

	sendJSON(w, http.StatusOK, APIResponse{Success: true, Data: result})
}

// QualificationRequest 资质评分请求
type QualificationRequest struct {
	Worker *model.Worker `json:"worker" validate:"required"`
	RoleID uuid.UUID     `json:"role_id" validate:"required"`
}

// Qualification 对单个工人评估某岗位的资质
func (h *StaffingHandler) Qualification(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req QualificationRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.engine.ScoreQualification(r.Context(), req.Worker, req.RoleID)
	if err != nil {
		sendError(w, err)
		return
	}

	sendJSON(w, http.StatusOK, APIResponse{Success: true, Data: result})
}

// RankRequest 候选排序请求
// Workers 为空时按 TeamID 加载在职工人
type RankRequest struct {
	RoleID  uuid.UUID       `json:"role_id" validate:"required"`
	Slot    SlotRequest     `json:"slot" validate:"required"`
	Workers []*model.Worker `json:"workers,omitempty"`
	TeamID  uuid.UUID       `json:"team_id,omitempty"`
}

// Rank 对候选工人池排序
func (h *StaffingHandler) Rank(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RankRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	pool, ok := h.resolvePool(w, r, req.Workers, req.TeamID)
	if !ok {
		return
	}

	scores, err := h.engineFor(r).RankCandidates(r.Context(), req.RoleID, req.Slot.Slot(), pool)
	if err != nil {
		sendError(w, err)
		return
	}

	metrics.CandidatesRanked.Observe(float64(len(pool)))

	sendJSON(w, http.StatusOK, APIResponse{Success: true, Data: scores})
}

// AllocateRequest 整班派工请求
// JobType 非空时按班组允许承接的工单类型过滤
type AllocateRequest struct {
	Requirements []RequirementRequest `json:"requirements" validate:"required,min=1,dive"`
	Slot         SlotRequest          `json:"slot" validate:"required"`
	JobType      string               `json:"job_type,omitempty"`
	Workers      []*model.Worker      `json:"workers,omitempty"`
	TeamID       uuid.UUID            `json:"team_id,omitempty"`
}

// Allocate 对工单的全部岗位需求执行派工
func (h *StaffingHandler) Allocate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req AllocateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if t, ok := team.FromContext(r.Context()); ok && req.JobType != "" && !t.AcceptsJobType(req.JobType) {
		sendJSON(w, http.StatusUnprocessableEntity, APIResponse{
			Success: false,
			Error:   fmt.Sprintf("team %s does not accept job type %s", t.Code, req.JobType),
		})
		return
	}

	pool, ok := h.resolvePool(w, r, req.Workers, req.TeamID)
	if !ok {
		return
	}

	start := time.Now()
	result, err := h.engineFor(r).Allocate(r.Context(), toRequirements(req.Requirements), req.Slot.Slot(), pool)
	if err != nil {
		sendError(w, err)
		return
	}

	unfilled := 0
	for _, u := range result.UnfilledRequirements {
		unfilled += u.Quantity
	}
	metrics.RecordAllocation(result.Success, unfilled, result.AverageScore, time.Since(start).Seconds())

	sendJSON(w, http.StatusOK, APIResponse{Success: result.Success, Data: result})
}

// AlternativesRequest 备选时段搜索请求
type AlternativesRequest struct {
	Requirements []RequirementRequest `json:"requirements" validate:"required,min=1,dive"`
	Slot         SlotRequest          `json:"slot" validate:"required"`
	Workers      []*model.Worker      `json:"workers,omitempty"`
	TeamID       uuid.UUID            `json:"team_id,omitempty"`
}

// Alternatives 搜索可行的备选时段
func (h *StaffingHandler) Alternatives(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req AlternativesRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	pool, ok := h.resolvePool(w, r, req.Workers, req.TeamID)
	if !ok {
		return
	}

	alternatives, err := h.engineFor(r).FindAlternatives(r.Context(), toRequirements(req.Requirements), req.Slot.Slot(), pool)
	if err != nil {
		sendError(w, err)
		return
	}

	metrics.AlternativesFound.Observe(float64(len(alternatives)))

	sendJSON(w, http.StatusOK, APIResponse{Success: true, Data: alternatives})
}

// Weekdays 分析周一至周五的人手充裕程度
func (h *StaffingHandler) Weekdays(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req AlternativesRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	pool, ok := h.resolvePool(w, r, req.Workers, req.TeamID)
	if !ok {
		return
	}

	options, err := h.engineFor(r).AnalyzeWeekdays(r.Context(), toRequirements(req.Requirements), req.Slot.Slot(), pool)
	if err != nil {
		sendError(w, err)
		return
	}

	sendJSON(w, http.StatusOK, APIResponse{Success: true, Data: options})
}

// resolvePool 解析候选工人池：请求内嵌优先，否则按班组加载在职工人
func (h *StaffingHandler) resolvePool(w http.ResponseWriter, r *http.Request, workers []*model.Worker, teamID uuid.UUID) ([]*model.Worker, bool) {
	if len(workers) > 0 {
		return workers, true
	}

	if teamID == uuid.Nil || h.workers == nil {
		sendJSON(w, http.StatusBadRequest, APIResponse{
			Success: false,
			Error:   "workers or team_id is required",
		})
		return nil, false
	}

	pool, err := h.workers.ListActive(r.Context(), teamID)
	if err != nil {
		logger.Error().Err(err).Str("team_id", teamID.String()).Msg("加载班组工人失败")
		sendError(w, apperrors.RepositoryUnavailable("workers", err))
		return nil, false
	}

	return pool, true
}

// decodeAndValidate 解析并校验请求体
func decodeAndValidate(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		sendJSON(w, http.StatusBadRequest, APIResponse{
			Success: false,
			Error:   "Invalid request: " + err.Error(),
		})
		return false
	}

	if err := validate.Struct(req); err != nil {
		sendJSON(w, http.StatusBadRequest, APIResponse{
			Success: false,
			Error:   "Validation failed: " + err.Error(),
		})
		return false
	}

	return true
}

// sendError 按错误码映射HTTP状态并发送错误响应
func sendError(w http.ResponseWriter, err error) {
	status := apperrors.GetHTTPStatus(err)
	sendJSON(w, status, APIResponse{Success: false, Error: err.Error()})
}

// sendJSON 发送JSON响应
func sendJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
