// Package staffing 提供工人可用性判定与班组派工引擎
package staffing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/paigong/paigong/pkg/errors"
	"github.com/paigong/paigong/pkg/model"
)

// Assignment 单条派工分配
type Assignment struct {
	RoleID     uuid.UUID `json:"role_id"`
	WorkerID   uuid.UUID `json:"worker_id"`
	WorkerName string    `json:"worker_name"`
	Score      float64   `json:"score"`
	Rate       float64   `json:"rate"`
	IsLead     bool      `json:"is_lead"`
}

// AllocationResult 派工分配结果
type AllocationResult struct {
	Assignments          []Assignment            `json:"assignments"`
	UnfilledRequirements []model.RoleRequirement `json:"unfilled_requirements,omitempty"`
	Success              bool                    `json:"success"`
	AverageScore         float64                 `json:"average_score"`
}

// Allocate 对工单的全部岗位需求执行稀缺感知的贪心分配
//
// 需求按给定顺序依次处理（不做跨岗位全局优化）：
// 每个需求先排除已被前序需求占用的工人再排序候选，
// 设置了最低熟练等级的需求过滤掉资质分低于 等级×20 的候选，
// 取前 quantity 名可用候选，不足部分以缩减数量记入未满足需求。
// 硬排他：同一工单上一名工人不会覆盖两个岗位。
// 整个分配过程恰有一名带班人：第一个产生分配的需求中第一名被
// 分配的工人（带班标记通过循环中的累加值传递，而非全局状态）。
// 需求之间必须串行处理，后序需求依赖前序积累的排除集合
func (e *Engine) Allocate(ctx context.Context, requirements []model.RoleRequirement, slot model.TimeSlot, pool []*model.Worker) (*AllocationResult, error) {
	if !slot.IsValid() {
		return nil, errors.InvalidTimeRange(fmt.Sprintf("结束时间 %s 不晚于开始时间 %s",
			slot.End.Format("2006-01-02 15:04"), slot.Start.Format("2006-01-02 15:04")))
	}
	for i, req := range requirements {
		if req.Quantity < 1 {
			return nil, errors.InvalidInput(fmt.Sprintf("requirements[%d].quantity", i), "必须不小于1")
		}
	}

	startTime := time.Now()
	e.logger.StartAllocation(slot.Start.Format("2006-01-02 15:04"), len(requirements), len(pool))

	result := &AllocationResult{}
	consumed := make(map[uuid.UUID]bool)
	leadAssigned := false

	for _, req := range requirements {
		// 排除已被前序需求占用的工人
		remaining := make([]*model.Worker, 0, len(pool))
		for _, w := range pool {
			if !consumed[w.ID] {
				remaining = append(remaining, w)
			}
		}

		candidates, err := e.RankCandidates(ctx, req.RoleID, slot, remaining)
		if err != nil {
			return nil, err
		}

		assigned := 0
		for _, c := range candidates {
			if assigned >= req.Quantity {
				break
			}
			if !c.Available {
				continue
			}
			if req.MinProficiency > 0 && c.QualificationScore < float64(req.MinProficiency)*20 {
				continue
			}

			result.Assignments = append(result.Assignments, Assignment{
				RoleID:     req.RoleID,
				WorkerID:   c.WorkerID,
				WorkerName: c.WorkerName,
				Score:      c.OverallScore,
				Rate:       c.SuggestedRate,
				IsLead:     !leadAssigned,
			})
			leadAssigned = true
			consumed[c.WorkerID] = true
			assigned++
		}

		if assigned < req.Quantity {
			shortfall := req
			shortfall.Quantity = req.Quantity - assigned
			result.UnfilledRequirements = append(result.UnfilledRequirements, shortfall)
		}
	}

	result.Success = len(result.UnfilledRequirements) == 0

	if len(result.Assignments) > 0 {
		var total float64
		for _, a := range result.Assignments {
			total += a.Score
		}
		result.AverageScore = total / float64(len(result.Assignments))
	}

	e.logger.AllocationComplete(time.Since(startTime),
		len(result.Assignments), len(result.UnfilledRequirements), result.AverageScore)

	return result, nil
}
