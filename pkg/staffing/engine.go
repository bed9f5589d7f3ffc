// Package staffing 提供工人可用性判定与班组派工引擎
package staffing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/paigong/paigong/pkg/logger"
	"github.com/paigong/paigong/pkg/model"
)

// RoleSource 岗位数据源
type RoleSource interface {
	GetRole(ctx context.Context, roleID uuid.UUID) (*model.JobRole, error)
}

// CommitmentSource 工单占用数据源
type CommitmentSource interface {
	ListCommitments(ctx context.Context, workerID uuid.UUID, dates model.DateRange) ([]*model.JobCommitment, error)
}

// CertificationSource 证书数据源（仅返回已核验且未过期的证书）
type CertificationSource interface {
	ListValidCertifications(ctx context.Context, workerID uuid.UUID) ([]model.Certification, error)
}

// RateSource 历史薪酬数据源
type RateSource interface {
	// LatestRate 返回工人在某岗位最近一次协商时薪，无记录时返回 0
	LatestRate(ctx context.Context, workerID, roleID uuid.UUID) (float64, error)
}

// Sources 引擎依赖的外部数据源集合
type Sources struct {
	Roles          RoleSource
	Commitments    CommitmentSource
	Certifications CertificationSource
	Rates          RateSource
}

// Config 派工引擎配置
type Config struct {
	AvailabilityWeight  float64       // 可用性权重
	QualificationWeight float64       // 资质权重
	FairnessWeight      float64       // 公平性权重（占综合分的比例）
	QualityFloor        float64       // 备选时段搜索的质量下限分数
	DefaultHourlyRate   float64       // 兜底时薪
	DefaultTargetHours  float64       // 默认目标周工时
	HorizonDays         int           // 备选时段搜索天数
	SkipWeekends        bool          // 备选搜索是否跳过周末
	MaxAlternatives     int           // 返回的最大备选时段数
	ParallelWorkers     int           // 候选人评分并发数
	SourceTimeout       time.Duration // 单次数据源读取超时
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		AvailabilityWeight:  0.35,
		QualificationWeight: 0.45,
		FairnessWeight:      0.20,
		QualityFloor:        70,
		DefaultHourlyRate:   25,
		DefaultTargetHours:  40,
		HorizonDays:         14,
		SkipWeekends:        true,
		MaxAlternatives:     5,
		ParallelWorkers:     4,
		SourceTimeout:       2 * time.Second,
	}
}

// Engine 派工引擎
// 引擎本身无状态，所有输入由调用方和数据源提供，可安全并发调用
type Engine struct {
	cfg       Config
	src       Sources
	logger    *logger.StaffingLogger
	clock     func() time.Time
	onDegrade func(source string)
}

// NewEngine 创建派工引擎
func NewEngine(cfg Config, src Sources) *Engine {
	if cfg.ParallelWorkers <= 0 {
		cfg.ParallelWorkers = 4
	}
	if cfg.MaxAlternatives <= 0 {
		cfg.MaxAlternatives = 5
	}
	if cfg.SourceTimeout <= 0 {
		cfg.SourceTimeout = 2 * time.Second
	}
	return &Engine{
		cfg:    cfg,
		src:    src,
		logger: logger.NewStaffingLogger(),
		clock:  time.Now,
	}
}

// SetClock 设置时钟（用于测试周工时窗口等时间相关逻辑）
func (e *Engine) SetClock(clock func() time.Time) {
	if clock != nil {
		e.clock = clock
	}
}

// SetDegradeHook 设置数据源降级回调（用于指标上报等旁路观测）
func (e *Engine) SetDegradeHook(hook func(source string)) {
	e.onDegrade = hook
}

// Config 返回引擎当前配置
func (e *Engine) Config() Config {
	return e.cfg
}

// WithFairnessWeight 返回使用指定公平性权重的引擎副本
// 用于班组级配置覆盖全局权重；权重超出 [0,1] 时返回原引擎
func (e *Engine) WithFairnessWeight(weight float64) *Engine {
	if weight < 0 || weight > 1 || weight == e.cfg.FairnessWeight {
		return e
	}
	clone := *e
	clone.cfg.FairnessWeight = weight
	return &clone
}

// sourceDegraded 记录一次数据源降级
func (e *Engine) sourceDegraded(source, workerID string, err error) {
	e.logger.SourceDegraded(source, workerID, err)
	if e.onDegrade != nil {
		e.onDegrade(source)
	}
}

// listCommitments 带超时读取工人占用，失败时返回错误由调用方降级处理
func (e *Engine) listCommitments(ctx context.Context, workerID uuid.UUID, dates model.DateRange) ([]*model.JobCommitment, error) {
	if e.src.Commitments == nil {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, e.cfg.SourceTimeout)
	defer cancel()
	return e.src.Commitments.ListCommitments(ctx, workerID, dates)
}

// getRole 带超时读取岗位
func (e *Engine) getRole(ctx context.Context, roleID uuid.UUID) (*model.JobRole, error) {
	if e.src.Roles == nil {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, e.cfg.SourceTimeout)
	defer cancel()
	return e.src.Roles.GetRole(ctx, roleID)
}

// listValidCertifications 带超时读取有效证书
func (e *Engine) listValidCertifications(ctx context.Context, workerID uuid.UUID) ([]model.Certification, error) {
	if e.src.Certifications == nil {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, e.cfg.SourceTimeout)
	defer cancel()
	return e.src.Certifications.ListValidCertifications(ctx, workerID)
}

// latestRate 带超时读取最近协商时薪
func (e *Engine) latestRate(ctx context.Context, workerID, roleID uuid.UUID) (float64, error) {
	if e.src.Rates == nil {
		return 0, nil
	}
	ctx, cancel := context.WithTimeout(ctx, e.cfg.SourceTimeout)
	defer cancel()
	return e.src.Rates.LatestRate(ctx, workerID, roleID)
}

// clamp 将分数限制在 [0, 100]
func clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
