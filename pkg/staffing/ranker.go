// Package staffing 提供工人可用性判定与班组派工引擎
package staffing

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/paigong/paigong/pkg/errors"
	"github.com/paigong/paigong/pkg/model"
)

// CandidateScore 候选工人评分
type CandidateScore struct {
	WorkerID           uuid.UUID `json:"worker_id"`
	WorkerName         string    `json:"worker_name"`
	OverallScore       float64   `json:"overall_score"` // 0-100
	Available          bool      `json:"available"`
	Reasons            []string  `json:"reasons,omitempty"`
	Conflicts          []string  `json:"conflicts,omitempty"`
	AvailableHours     float64   `json:"available_hours"`
	QualificationScore float64   `json:"qualification_score"`
	FairnessBonus      float64   `json:"fairness_bonus"`
	SuggestedRate      float64   `json:"suggested_rate"`
}

// RankCandidates 对候选工人池按某岗位与时间段进行综合评分排序
//
// 综合分 = (1-公平性权重) × (0.35×可用性分 + 0.45×资质分) + 公平性权重 × 公平性加分
// 可用性分：完全可用为 100，否则 max(0, 100 - 20×冲突数)。
// 该混合有意允许高资质但排班已满的工人被资质稍低、空闲的工人反超，
// 目标是计费工时的均衡分配而非纯能力排序。
// 各工人之间的评分无数据依赖，按配置的并发数扇出执行后汇合排序；
// 排序按分数降序，同分按工人ID保证重复调用输出次序一致
func (e *Engine) RankCandidates(ctx context.Context, roleID uuid.UUID, slot model.TimeSlot, pool []*model.Worker) ([]CandidateScore, error) {
	if !slot.IsValid() {
		return nil, errors.InvalidTimeRange(fmt.Sprintf("结束时间 %s 不晚于开始时间 %s",
			slot.End.Format("2006-01-02 15:04"), slot.Start.Format("2006-01-02 15:04")))
	}
	if len(pool) == 0 {
		return nil, nil
	}

	// 岗位基准时薪整个排序过程只读一次
	baseRate := 0.0
	if role, err := e.getRole(ctx, roleID); err == nil && role != nil {
		baseRate = role.BaseHourlyRate
	}

	scores := make([]CandidateScore, len(pool))

	jobChan := make(chan int, len(pool))
	var wg sync.WaitGroup
	workers := e.cfg.ParallelWorkers
	if workers > len(pool) {
		workers = len(pool)
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobChan {
				select {
				case <-ctx.Done():
					return
				default:
					scores[idx] = e.scoreCandidate(ctx, roleID, slot, pool[idx], baseRate)
				}
			}
		}()
	}

	for i := range pool {
		jobChan <- i
	}
	close(jobChan)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].OverallScore != scores[j].OverallScore {
			return scores[i].OverallScore > scores[j].OverallScore
		}
		return scores[i].WorkerID.String() < scores[j].WorkerID.String()
	})

	return scores, nil
}

// scoreCandidate 评估单个候选工人
func (e *Engine) scoreCandidate(ctx context.Context, roleID uuid.UUID, slot model.TimeSlot, worker *model.Worker, baseRate float64) CandidateScore {
	score := CandidateScore{
		WorkerID:   worker.ID,
		WorkerName: worker.Name,
	}

	avail, err := e.CheckAvailability(ctx, worker, slot)
	if err != nil {
		e.sourceDegraded("availability", worker.ID.String(), err)
		avail = &AvailabilityResult{Conflicts: []string{"Availability check failed"}}
	}
	score.Available = avail.Available
	score.Conflicts = avail.Conflicts
	score.AvailableHours = avail.AvailableHours

	qual, err := e.ScoreQualification(ctx, worker, roleID)
	if err != nil {
		e.sourceDegraded("qualification", worker.ID.String(), err)
		qual = &QualificationResult{}
	}
	score.QualificationScore = qual.Score
	score.Reasons = append(score.Reasons, qual.Reasons...)

	util, err := e.Utilization(ctx, worker)
	if err != nil {
		e.sourceDegraded("utilization", worker.ID.String(), err)
		util = &UtilizationResult{}
	}
	score.FairnessBonus = util.FairnessScore

	availabilityComponent := 100.0
	if !avail.Available {
		availabilityComponent = 100 - 20*float64(len(avail.Conflicts))
		if availabilityComponent < 0 {
			availabilityComponent = 0
		}
	}

	base := e.cfg.AvailabilityWeight*availabilityComponent + e.cfg.QualificationWeight*qual.Score
	fw := e.cfg.FairnessWeight
	score.OverallScore = clamp((1-fw)*base + fw*util.FairnessScore)

	score.SuggestedRate = e.suggestRate(ctx, worker.ID, roleID, baseRate)

	return score
}

// suggestRate 计算建议时薪：最近协商时薪 -> 岗位基准时薪 -> 兜底默认值
func (e *Engine) suggestRate(ctx context.Context, workerID, roleID uuid.UUID, baseRate float64) float64 {
	rate, err := e.latestRate(ctx, workerID, roleID)
	if err != nil {
		e.sourceDegraded("rates", workerID.String(), err)
		rate = 0
	}
	if rate > 0 {
		return rate
	}
	if baseRate > 0 {
		return baseRate
	}
	return e.cfg.DefaultHourlyRate
}
