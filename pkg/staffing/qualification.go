// Package staffing 提供工人可用性判定与班组派工引擎
package staffing

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/paigong/paigong/pkg/errors"
	"github.com/paigong/paigong/pkg/model"
)

// QualificationResult 资质评分结果
type QualificationResult struct {
	Score                float64  `json:"score"` // 0-100
	Reasons              []string `json:"reasons,omitempty"`
	HasAllCertifications bool     `json:"has_all_certifications"`
}

// 资质评分参数
const (
	qualificationBaseline  = 50.0
	experienceBonus        = 20.0
	leadershipBonus        = 10.0
	fullCertificationBonus = 20.0
	missingCertPenalty     = 10.0
)

// ScoreQualification 计算工人对某岗位的资质评分
//
// 基准分 50，岗位履历 +20，带班履历额外 +10；
// 证书齐全 +20，每缺一项 -10；评分调整 (rating-3)×5；
// 最终分数限制在 [0, 100]。
// 原因按 履历 -> 证书 -> 评分 的顺序输出，便于追溯。
// 岗位不存在或数据源读取失败时降级为 0 分并附加说明，不中断调用方
func (e *Engine) ScoreQualification(ctx context.Context, worker *model.Worker, roleID uuid.UUID) (*QualificationResult, error) {
	if worker == nil {
		return nil, errors.InvalidInput("worker", "不能为空")
	}

	role, err := e.getRole(ctx, roleID)
	if err != nil {
		e.sourceDegraded("roles", worker.ID.String(), err)
		return &QualificationResult{
			Score:   0,
			Reasons: []string{"Role data unavailable"},
		}, nil
	}
	if role == nil {
		return &QualificationResult{
			Score:   0,
			Reasons: []string{fmt.Sprintf("Role not found: %s", roleID)},
		}, nil
	}

	score := qualificationBaseline
	var reasons []string

	// 履历加分
	if worker.HasRoleExperience(roleID) {
		score += experienceBonus
		reasons = append(reasons, "Has prior experience in this role")
		if worker.HasLeadExperience(roleID) {
			score += leadershipBonus
			reasons = append(reasons, "Has lead experience in this role")
		}
	}

	// 证书检查
	hasAll := true
	if len(role.RequiredCertifications) > 0 {
		certs, err := e.listValidCertifications(ctx, worker.ID)
		if err != nil {
			e.sourceDegraded("certifications", worker.ID.String(), err)
			certs = nil
			reasons = append(reasons, "Certification data unavailable")
		}

		held := make(map[string]bool, len(certs))
		for _, c := range certs {
			held[c.Name] = true
		}

		var missing []string
		for _, required := range role.RequiredCertifications {
			if !held[required] {
				missing = append(missing, required)
			}
		}
		sort.Strings(missing)

		if len(missing) == 0 {
			score += fullCertificationBonus
			reasons = append(reasons, "Has all required certifications")
		} else {
			hasAll = false
			score -= missingCertPenalty * float64(len(missing))
			reasons = append(reasons, "Missing certifications: "+strings.Join(missing, ", "))
		}
	}

	// 评分调整：3 分为中性，5 分 +10，1 分 -10
	ratingAdj := (worker.Rating - 3) * 5
	score += ratingAdj
	reasons = append(reasons, fmt.Sprintf("Performance rating %.1f (%+.1f)", worker.Rating, ratingAdj))

	return &QualificationResult{
		Score:                clamp(score),
		Reasons:              reasons,
		HasAllCertifications: hasAll,
	}, nil
}
