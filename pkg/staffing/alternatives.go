// Package staffing 提供工人可用性判定与班组派工引擎
package staffing

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/paigong/paigong/pkg/errors"
	"github.com/paigong/paigong/pkg/model"
)

// AlternativeSlot 备选时段
type AlternativeSlot struct {
	Start            time.Time `json:"start"`
	End              time.Time `json:"end"`
	AvailableWorkers int       `json:"available_workers"`
	Score            float64   `json:"score"` // 越接近原时段分数越高
	Conflicts        []string  `json:"conflicts,omitempty"`
	Reason           string    `json:"reason"`
}

// WeekdayOption 周几分析结果
type WeekdayOption struct {
	Weekday          time.Weekday `json:"weekday"`
	QualifiedWorkers int          `json:"qualified_workers"`
}

// FindAlternatives 原时段无法满足人员需求时向后搜索可行的备选时段
//
// 在配置的搜索天数内逐日探测（可配置跳过周末），
// 将原时段按同等时长平移到目标日，对每个岗位需求重新排序候选，
// 统计清过质量下限（分数 >= QualityFloor 且零冲突）的工人数；
// 合计数满足总需求人数的日期成为备选，分数 = 100 - 5×天数差，
// 按分数降序返回前 MaxAlternatives 个。
// 找不到备选不是错误，返回空列表属正常结果
func (e *Engine) FindAlternatives(ctx context.Context, requirements []model.RoleRequirement, referenceSlot model.TimeSlot, pool []*model.Worker) ([]AlternativeSlot, error) {
	if !referenceSlot.IsValid() {
		return nil, errors.InvalidTimeRange(fmt.Sprintf("结束时间 %s 不晚于开始时间 %s",
			referenceSlot.End.Format("2006-01-02 15:04"), referenceSlot.Start.Format("2006-01-02 15:04")))
	}

	demand := 0
	for i, req := range requirements {
		if req.Quantity < 1 {
			return nil, errors.InvalidInput(fmt.Sprintf("requirements[%d].quantity", i), "必须不小于1")
		}
		demand += req.Quantity
	}
	if demand == 0 {
		return nil, nil
	}

	var alternatives []AlternativeSlot

	for daysOut := 1; daysOut <= e.cfg.HorizonDays; daysOut++ {
		day := referenceSlot.Start.AddDate(0, 0, daysOut)
		if e.cfg.SkipWeekends && isWeekend(day) {
			continue
		}

		candidate := referenceSlot.ShiftTo(day)
		qualified, err := e.countQualified(ctx, requirements, candidate, pool)
		if err != nil {
			return nil, err
		}

		if qualified >= demand {
			alternatives = append(alternatives, AlternativeSlot{
				Start:            candidate.Start,
				End:              candidate.End,
				AvailableWorkers: qualified,
				Score:            100 - 5*float64(daysOut),
				Reason:           fmt.Sprintf("%d qualified workers available", qualified),
			})
		}
	}

	sort.Slice(alternatives, func(i, j int) bool {
		return alternatives[i].Score > alternatives[j].Score
	})
	if len(alternatives) > e.cfg.MaxAlternatives {
		alternatives = alternatives[:e.cfg.MaxAlternatives]
	}

	return alternatives, nil
}

// AnalyzeWeekdays 分析周一至周五哪几天人手最充裕
//
// 每个工作日取参考时段之后最近的对应日期作为代表时段，
// 按清过质量下限的工人数降序排列，
// 用于在不绑定具体工单的情况下推荐低冲突的常规日
func (e *Engine) AnalyzeWeekdays(ctx context.Context, requirements []model.RoleRequirement, referenceSlot model.TimeSlot, pool []*model.Worker) ([]WeekdayOption, error) {
	if !referenceSlot.IsValid() {
		return nil, errors.InvalidTimeRange("参考时段无效")
	}

	weekdays := []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}
	options := make([]WeekdayOption, 0, len(weekdays))

	for _, wd := range weekdays {
		day := nextWeekday(referenceSlot.Start, wd)
		candidate := referenceSlot.ShiftTo(day)

		qualified, err := e.countQualified(ctx, requirements, candidate, pool)
		if err != nil {
			return nil, err
		}
		options = append(options, WeekdayOption{Weekday: wd, QualifiedWorkers: qualified})
	}

	sort.Slice(options, func(i, j int) bool {
		if options[i].QualifiedWorkers != options[j].QualifiedWorkers {
			return options[i].QualifiedWorkers > options[j].QualifiedWorkers
		}
		return options[i].Weekday < options[j].Weekday
	})

	return options, nil
}

// countQualified 统计各需求中清过质量下限的工人总数
func (e *Engine) countQualified(ctx context.Context, requirements []model.RoleRequirement, slot model.TimeSlot, pool []*model.Worker) (int, error) {
	total := 0
	for _, req := range requirements {
		candidates, err := e.RankCandidates(ctx, req.RoleID, slot, pool)
		if err != nil {
			return 0, err
		}
		for _, c := range candidates {
			if c.OverallScore >= e.cfg.QualityFloor && len(c.Conflicts) == 0 {
				total++
			}
		}
	}
	return total, nil
}

// isWeekend 判断日期是否为周末
func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// nextWeekday 返回严格晚于 t 的最近一个指定星期几
func nextWeekday(t time.Time, wd time.Weekday) time.Time {
	days := (int(wd) - int(t.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	return t.AddDate(0, 0, days)
}
