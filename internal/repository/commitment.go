// Package repository 提供数据访问层
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/paigong/paigong/pkg/errors"
	"github.com/paigong/paigong/pkg/model"
	"github.com/paigong/paigong/pkg/validator"
)

// CommitmentRepository 工单占用仓储
type CommitmentRepository struct {
	db       DB
	detector *validator.ConflictDetector
}

// NewCommitmentRepository 创建工单占用仓储
func NewCommitmentRepository(db DB, detector *validator.ConflictDetector) *CommitmentRepository {
	if detector == nil {
		detector = validator.NewConflictDetector(nil)
	}
	return &CommitmentRepository{db: db, detector: detector}
}

// Create 创建工单占用
func (r *CommitmentRepository) Create(ctx context.Context, c *model.JobCommitment) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now

	query := `
		INSERT INTO job_commitments (
			id, worker_id, job_id, role_id, job_type,
			start_time, end_time, estimated_hours, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.WorkerID, c.JobID, c.RoleID, c.JobType,
		c.StartTime, c.EndTime, c.EstimatedHours, c.Status, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建工单占用失败: %w", err)
	}

	return nil
}

// CreateIfNoConflict 先检测冲突再创建占用
// 与工人现有已接受占用存在 error 级冲突时拒绝写入
func (r *CommitmentRepository) CreateIfNoConflict(ctx context.Context, c *model.JobCommitment) ([]validator.Conflict, error) {
	dates := model.DateRange{
		StartDate: model.DateOf(c.StartTime.AddDate(0, 0, -1)),
		EndDate:   model.DateOf(c.EndTime.AddDate(0, 0, 1)),
	}
	existing, err := r.ListCommitments(ctx, c.WorkerID, dates)
	if err != nil {
		return nil, err
	}

	conflicts := r.detector.DetectForCommitment(c, existing)
	for _, conflict := range conflicts {
		if conflict.Severity == "error" {
			return conflicts, errors.CommitmentConflict(c.WorkerID.String(), conflict.Message)
		}
	}

	if err := r.Create(ctx, c); err != nil {
		return conflicts, err
	}
	return conflicts, nil
}

// ListCommitments 获取工人在某日期范围内开始的全部占用
func (r *CommitmentRepository) ListCommitments(ctx context.Context, workerID uuid.UUID, dates model.DateRange) ([]*model.JobCommitment, error) {
	query := `
		SELECT id, worker_id, job_id, role_id, job_type,
			start_time, end_time, estimated_hours, status, created_at, updated_at
		FROM job_commitments
		WHERE worker_id = $1
			AND start_time >= $2::date
			AND start_time < $3::date + interval '1 day'
			AND deleted_at IS NULL
		ORDER BY start_time
	`

	rows, err := r.db.QueryContext(ctx, query, workerID, dates.StartDate, dates.EndDate)
	if err != nil {
		return nil, fmt.Errorf("查询工单占用失败: %w", err)
	}
	defer rows.Close()

	var commitments []*model.JobCommitment
	for rows.Next() {
		c := &model.JobCommitment{}
		err := rows.Scan(
			&c.ID, &c.WorkerID, &c.JobID, &c.RoleID, &c.JobType,
			&c.StartTime, &c.EndTime, &c.EstimatedHours, &c.Status, &c.CreatedAt, &c.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("扫描工单占用失败: %w", err)
		}
		commitments = append(commitments, c)
	}

	return commitments, nil
}

// ListByJob 获取某工单的全部占用
func (r *CommitmentRepository) ListByJob(ctx context.Context, jobID uuid.UUID) ([]*model.JobCommitment, error) {
	query := `
		SELECT id, worker_id, job_id, role_id, job_type,
			start_time, end_time, estimated_hours, status, created_at, updated_at
		FROM job_commitments
		WHERE job_id = $1 AND deleted_at IS NULL
		ORDER BY start_time
	`

	rows, err := r.db.QueryContext(ctx, query, jobID)
	if err != nil {
		return nil, fmt.Errorf("查询工单占用失败: %w", err)
	}
	defer rows.Close()

	var commitments []*model.JobCommitment
	for rows.Next() {
		c := &model.JobCommitment{}
		err := rows.Scan(
			&c.ID, &c.WorkerID, &c.JobID, &c.RoleID, &c.JobType,
			&c.StartTime, &c.EndTime, &c.EstimatedHours, &c.Status, &c.CreatedAt, &c.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("扫描工单占用失败: %w", err)
		}
		commitments = append(commitments, c)
	}

	return commitments, nil
}

// UpdateStatus 更新占用状态
func (r *CommitmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `UPDATE job_commitments SET status = $2, updated_at = $3 WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, status, time.Now())
	if err != nil {
		return fmt.Errorf("更新占用状态失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("工单占用不存在")
	}

	return nil
}

// Delete 软删除占用
func (r *CommitmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE job_commitments SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("删除占用失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("工单占用不存在")
	}

	return nil
}
