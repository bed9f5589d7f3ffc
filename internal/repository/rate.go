// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/paigong/paigong/pkg/model"
)

// RateRepository 时薪履历仓储
// 岗位履历表同时承载带班标记与协商时薪，最新一条即当前时薪
type RateRepository struct {
	db DB
}

// NewRateRepository 创建时薪履历仓储
func NewRateRepository(db DB) *RateRepository {
	return &RateRepository{db: db}
}

// LatestRate 获取工人在某岗位最近一次协商时薪，无记录时返回 0
func (r *RateRepository) LatestRate(ctx context.Context, workerID, roleID uuid.UUID) (float64, error) {
	query := `
		SELECT hourly_rate
		FROM role_assignments
		WHERE worker_id = $1 AND role_id = $2
		ORDER BY assigned_at DESC
		LIMIT 1
	`

	var rate float64
	err := r.db.QueryRowContext(ctx, query, workerID, roleID).Scan(&rate)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("查询时薪履历失败: %w", err)
	}

	return rate, nil
}

// Record 记录一次岗位分配（含带班标记与时薪）
func (r *RateRepository) Record(ctx context.Context, ra *model.RoleAssignment) error {
	query := `
		INSERT INTO role_assignments (role_id, worker_id, is_lead, hourly_rate, assigned_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query, ra.RoleID, ra.WorkerID, ra.IsLead, ra.HourlyRate, ra.AssignedAt)
	if err != nil {
		return fmt.Errorf("记录岗位分配失败: %w", err)
	}

	return nil
}
