// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paigong/paigong/pkg/model"
)

// RoleRepository 岗位仓储
type RoleRepository struct {
	db DB
}

// NewRoleRepository 创建岗位仓储
func NewRoleRepository(db DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// Create 创建岗位
func (r *RoleRepository) Create(ctx context.Context, role *model.JobRole) error {
	if role.ID == uuid.Nil {
		role.ID = uuid.New()
	}
	now := time.Now()
	role.CreatedAt = now
	role.UpdatedAt = now

	certsJSON, _ := json.Marshal(role.RequiredCertifications)

	query := `
		INSERT INTO job_roles (
			id, team_id, name, code, description, required_certifications,
			base_hourly_rate, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		role.ID, role.TeamID, role.Name, role.Code, role.Description, certsJSON,
		role.BaseHourlyRate, role.CreatedAt, role.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建岗位失败: %w", err)
	}

	return nil
}

// GetRole 根据ID获取岗位，不存在时返回 nil
func (r *RoleRepository) GetRole(ctx context.Context, id uuid.UUID) (*model.JobRole, error) {
	query := `
		SELECT id, team_id, name, code, description, required_certifications,
			base_hourly_rate, created_at, updated_at
		FROM job_roles
		WHERE id = $1 AND deleted_at IS NULL
	`

	return r.scanRole(r.db.QueryRowContext(ctx, query, id))
}

// GetByID 根据ID获取岗位
func (r *RoleRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.JobRole, error) {
	return r.GetRole(ctx, id)
}

// Update 更新岗位
func (r *RoleRepository) Update(ctx context.Context, role *model.JobRole) error {
	role.UpdatedAt = time.Now()

	certsJSON, _ := json.Marshal(role.RequiredCertifications)

	query := `
		UPDATE job_roles SET
			name = $2, code = $3, description = $4, required_certifications = $5,
			base_hourly_rate = $6, updated_at = $7
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		role.ID, role.Name, role.Code, role.Description, certsJSON,
		role.BaseHourlyRate, role.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("更新岗位失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("岗位不存在")
	}

	return nil
}

// Delete 软删除岗位
func (r *RoleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE job_roles SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("删除岗位失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("岗位不存在")
	}

	return nil
}

// List 查询岗位列表
func (r *RoleRepository) List(ctx context.Context, filter ListFilter) ([]*model.JobRole, int, error) {
	var conditions []string
	var args []interface{}
	argIndex := 1

	conditions = append(conditions, "deleted_at IS NULL")

	if filter.TeamID != nil {
		conditions = append(conditions, fmt.Sprintf("team_id = $%d", argIndex))
		args = append(args, *filter.TeamID)
		argIndex++
	}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR code ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+filter.Search+"%")
		argIndex++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM job_roles WHERE %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("查询总数失败: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, team_id, name, code, description, required_certifications,
			base_hourly_rate, created_at, updated_at
		FROM job_roles
		WHERE %s
		ORDER BY name
		LIMIT $%d OFFSET $%d
	`, whereClause, argIndex, argIndex+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询列表失败: %w", err)
	}
	defer rows.Close()

	var roles []*model.JobRole
	for rows.Next() {
		role := &model.JobRole{}
		var certsJSON []byte
		err := rows.Scan(
			&role.ID, &role.TeamID, &role.Name, &role.Code, &role.Description, &certsJSON,
			&role.BaseHourlyRate, &role.CreatedAt, &role.UpdatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("扫描岗位数据失败: %w", err)
		}
		json.Unmarshal(certsJSON, &role.RequiredCertifications)
		roles = append(roles, role)
	}

	return roles, total, nil
}

// scanRole 扫描单行岗位数据
func (r *RoleRepository) scanRole(row *sql.Row) (*model.JobRole, error) {
	role := &model.JobRole{}
	var certsJSON []byte

	err := row.Scan(
		&role.ID, &role.TeamID, &role.Name, &role.Code, &role.Description, &certsJSON,
		&role.BaseHourlyRate, &role.CreatedAt, &role.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("扫描岗位数据失败: %w", err)
	}

	json.Unmarshal(certsJSON, &role.RequiredCertifications)

	return role, nil
}
