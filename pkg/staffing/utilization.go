// Package staffing 提供工人可用性判定与班组派工引擎
package staffing

import (
	"context"

	"github.com/paigong/paigong/pkg/errors"
	"github.com/paigong/paigong/pkg/model"
)

// UtilizationResult 周工时利用率结果
type UtilizationResult struct {
	HoursScheduled float64 `json:"hours_scheduled"`
	TargetHours    float64 `json:"target_hours"`
	UtilizationPct float64 `json:"utilization_pct"` // 0-100，超出封顶
	FairnessScore  float64 `json:"fairness_score"`  // 100 - 利用率，空闲者得高分
}

// Utilization 计算工人本周的工时利用率与公平性加分
//
// 本周按 周一 00:00 至 周日 23:59 界定（相对引擎时钟），
// 只统计开始时间落在本周内的已接受占用，
// 工时优先取预估值、缺省时按起止时间推算。
// 公平性加分 = 100 - 利用率：空闲工人 100 分，满负荷工人 0 分。
// 数据源读取失败时降级为零加分，不中断调用方
func (e *Engine) Utilization(ctx context.Context, worker *model.Worker) (*UtilizationResult, error) {
	if worker == nil {
		return nil, errors.InvalidInput("worker", "不能为空")
	}

	target := worker.TargetWeeklyHours
	if target <= 0 {
		target = e.cfg.DefaultTargetHours
	}

	week := model.WeekOf(e.clock())
	commitments, err := e.listCommitments(ctx, worker.ID, model.DateRange{
		StartDate: model.DateOf(week.Start),
		EndDate:   model.DateOf(week.End),
	})
	if err != nil {
		e.sourceDegraded("commitments", worker.ID.String(), err)
		return &UtilizationResult{TargetHours: target}, nil
	}

	var hours float64
	for _, c := range commitments {
		if !c.IsAccepted() {
			continue
		}
		if !week.Contains(c.StartTime) {
			continue
		}
		hours += c.Hours()
	}

	pct := 0.0
	if target > 0 {
		pct = hours / target * 100
		if pct > 100 {
			pct = 100
		}
	}

	return &UtilizationResult{
		HoursScheduled: hours,
		TargetHours:    target,
		UtilizationPct: pct,
		FairnessScore:  100 - pct,
	}, nil
}
