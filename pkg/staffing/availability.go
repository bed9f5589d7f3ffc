// Package staffing 提供工人可用性判定与班组派工引擎
package staffing

import (
	"context"
	"fmt"

	"github.com/paigong/paigong/pkg/errors"
	"github.com/paigong/paigong/pkg/model"
)

// AvailabilityResult 可用性判定结果
type AvailabilityResult struct {
	Available      bool     `json:"available"`
	Conflicts      []string `json:"conflicts,omitempty"`
	AvailableHours float64  `json:"available_hours"`
}

// CheckAvailability 判定工人在时间段内是否可用
//
// 逐日检查时间段覆盖的每个日历日（含首尾所在日期）：
//  1. 已批准例外：休假/病假/事假固定按整日生效并记录冲突；
//     非整日的节假日/紧急例外从当日净工时中挖掉对应时段；
//     整日的节假日/紧急例外使当日不贡献工时但不记录冲突
//  2. 无例外时按每周固定排班计算净工时（扣除休息时间），
//     当日不出勤则记录 "Not available on <weekday>s" 冲突
//  3. 当日开始且与时间段重叠的已接受占用记录
//     "Already assigned to job: <jobType>" 冲突（不扣减工时）
//
// 全有全无策略：仅当零冲突且净工时 > 0 时判定为可用，
// 多日时间段中任意一天的冲突都会使整个时间段不可用
func (e *Engine) CheckAvailability(ctx context.Context, worker *model.Worker, slot model.TimeSlot) (*AvailabilityResult, error) {
	if worker == nil {
		return nil, errors.InvalidInput("worker", "不能为空")
	}
	if !slot.IsValid() {
		return nil, errors.InvalidTimeRange(fmt.Sprintf("结束时间 %s 不晚于开始时间 %s",
			slot.End.Format("2006-01-02 15:04"), slot.Start.Format("2006-01-02 15:04")))
	}

	result := &AvailabilityResult{}
	days := slot.Days()

	for _, day := range days {
		date := model.DateOf(day)

		if ex := worker.ExceptionOn(date); ex != nil {
			if ex.Type.EffectiveFullDay() {
				result.Conflicts = append(result.Conflicts, fmt.Sprintf("%s on %s", ex.Type, date))
				continue
			}
			if !ex.IsFullDay && ex.StartTime != "" && ex.EndTime != "" {
				net := worker.WeeklySchedule[day.Weekday()].NetHours() - ex.CarvedHours()
				if net > 0 {
					result.AvailableHours += net
				}
				continue
			}
			// 整日的节假日/紧急例外：当日不贡献工时
			continue
		}

		ds := worker.WeeklySchedule[day.Weekday()]
		if !ds.Available {
			result.Conflicts = append(result.Conflicts, fmt.Sprintf("Not available on %ss", day.Weekday()))
			continue
		}
		result.AvailableHours += ds.NetHours()
	}

	// 占用冲突单独检查：不扣减工时，仅作为排他信号
	commitments, err := e.listCommitments(ctx, worker.ID, model.DateRange{
		StartDate: model.DateOf(slot.Start),
		EndDate:   model.DateOf(slot.End),
	})
	if err != nil {
		e.sourceDegraded("commitments", worker.ID.String(), err)
		result.Conflicts = append(result.Conflicts, "Commitment data unavailable")
		result.Available = false
		return result, nil
	}

	for _, day := range days {
		date := model.DateOf(day)
		for _, c := range commitments {
			if !c.IsAccepted() {
				continue
			}
			if c.StartsOn(date) && slot.Overlaps(c.Slot()) {
				result.Conflicts = append(result.Conflicts, "Already assigned to job: "+c.JobType)
			}
		}
	}

	result.Available = len(result.Conflicts) == 0 && result.AvailableHours > 0
	return result, nil
}
