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

// WorkerRepository 工人仓储
type WorkerRepository struct {
	db DB
}

// NewWorkerRepository 创建工人仓储
func NewWorkerRepository(db DB) *WorkerRepository {
	return &WorkerRepository{db: db}
}

// Create 创建工人
func (r *WorkerRepository) Create(ctx context.Context, w *model.Worker) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	now := time.Now()
	w.CreatedAt = now
	w.UpdatedAt = now

	scheduleJSON, _ := json.Marshal(w.WeeklySchedule)

	query := `
		INSERT INTO workers (
			id, team_id, name, code, phone, email, status,
			rating, target_weekly_hours, weekly_schedule, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.ExecContext(ctx, query,
		w.ID, w.TeamID, w.Name, w.Code, w.Phone, w.Email, w.Status,
		w.Rating, w.TargetWeeklyHours, scheduleJSON, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建工人失败: %w", err)
	}

	return nil
}

// GetByID 根据ID获取工人，附带例外与岗位履历
func (r *WorkerRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Worker, error) {
	query := `
		SELECT id, team_id, name, code, phone, email, status,
			rating, target_weekly_hours, weekly_schedule, created_at, updated_at
		FROM workers
		WHERE id = $1 AND deleted_at IS NULL
	`

	w, err := r.scanWorker(r.db.QueryRowContext(ctx, query, id))
	if err != nil || w == nil {
		return w, err
	}

	if w.Exceptions, err = r.listExceptions(ctx, id); err != nil {
		return nil, err
	}
	if w.RoleHistory, err = r.listRoleHistory(ctx, id); err != nil {
		return nil, err
	}

	return w, nil
}

// GetByCode 根据班组和工号获取工人
func (r *WorkerRepository) GetByCode(ctx context.Context, teamID uuid.UUID, code string) (*model.Worker, error) {
	query := `
		SELECT id, team_id, name, code, phone, email, status,
			rating, target_weekly_hours, weekly_schedule, created_at, updated_at
		FROM workers
		WHERE team_id = $1 AND code = $2 AND deleted_at IS NULL
	`

	return r.scanWorker(r.db.QueryRowContext(ctx, query, teamID, code))
}

// Update 更新工人
func (r *WorkerRepository) Update(ctx context.Context, w *model.Worker) error {
	w.UpdatedAt = time.Now()

	scheduleJSON, _ := json.Marshal(w.WeeklySchedule)

	query := `
		UPDATE workers SET
			name = $2, code = $3, phone = $4, email = $5, status = $6,
			rating = $7, target_weekly_hours = $8, weekly_schedule = $9, updated_at = $10
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		w.ID, w.Name, w.Code, w.Phone, w.Email, w.Status,
		w.Rating, w.TargetWeeklyHours, scheduleJSON, w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("更新工人失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("工人不存在")
	}

	return nil
}

// Delete 软删除工人
func (r *WorkerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE workers SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("删除工人失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("工人不存在")
	}

	return nil
}

// List 查询工人列表
func (r *WorkerRepository) List(ctx context.Context, filter ListFilter) ([]*model.Worker, int, error) {
	var conditions []string
	var args []interface{}
	argIndex := 1

	conditions = append(conditions, "deleted_at IS NULL")

	if filter.TeamID != nil {
		conditions = append(conditions, fmt.Sprintf("team_id = $%d", argIndex))
		args = append(args, *filter.TeamID)
		argIndex++
	}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, filter.Status)
		argIndex++
	}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR code ILIKE $%d OR phone ILIKE $%d)", argIndex, argIndex, argIndex))
		args = append(args, "%"+filter.Search+"%")
		argIndex++
	}

	whereClause := strings.Join(conditions, " AND ")

	// 查询总数
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM workers WHERE %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("查询总数失败: %w", err)
	}

	orderBy := filter.OrderBy
	if orderBy == "" {
		orderBy = "created_at"
	}
	orderDir := filter.OrderDir
	if orderDir == "" {
		orderDir = "desc"
	}

	query := fmt.Sprintf(`
		SELECT id, team_id, name, code, phone, email, status,
			rating, target_weekly_hours, weekly_schedule, created_at, updated_at
		FROM workers
		WHERE %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, whereClause, orderBy, orderDir, argIndex, argIndex+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询列表失败: %w", err)
	}
	defer rows.Close()

	var workers []*model.Worker
	for rows.Next() {
		w, err := r.scanWorkerRow(rows)
		if err != nil {
			return nil, 0, err
		}
		workers = append(workers, w)
	}

	return workers, total, nil
}

// ListActive 获取班组下所有在职工人，附带例外与岗位履历
// 可用性判定依赖例外数据，岗位履历用于经验与带班加分
func (r *WorkerRepository) ListActive(ctx context.Context, teamID uuid.UUID) ([]*model.Worker, error) {
	filter := DefaultListFilter().WithTeamID(teamID).WithStatus("active").WithLimit(10000)
	workers, _, err := r.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	for _, w := range workers {
		if w.Exceptions, err = r.listExceptions(ctx, w.ID); err != nil {
			return nil, err
		}
		if w.RoleHistory, err = r.listRoleHistory(ctx, w.ID); err != nil {
			return nil, err
		}
	}

	return workers, nil
}

// listExceptions 获取工人的全部排班例外
func (r *WorkerRepository) listExceptions(ctx context.Context, workerID uuid.UUID) ([]model.ScheduleException, error) {
	query := `
		SELECT id, worker_id, type, start_date, end_date, is_full_day,
			start_time, end_time, status, reason, created_at, updated_at
		FROM schedule_exceptions
		WHERE worker_id = $1 AND deleted_at IS NULL
		ORDER BY start_date
	`

	rows, err := r.db.QueryContext(ctx, query, workerID)
	if err != nil {
		return nil, fmt.Errorf("查询排班例外失败: %w", err)
	}
	defer rows.Close()

	var exceptions []model.ScheduleException
	for rows.Next() {
		var ex model.ScheduleException
		var startTime, endTime, reason sql.NullString
		err := rows.Scan(
			&ex.ID, &ex.WorkerID, &ex.Type, &ex.Dates.StartDate, &ex.Dates.EndDate, &ex.IsFullDay,
			&startTime, &endTime, &ex.Status, &reason, &ex.CreatedAt, &ex.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("扫描排班例外失败: %w", err)
		}
		ex.StartTime = startTime.String
		ex.EndTime = endTime.String
		ex.Reason = reason.String
		exceptions = append(exceptions, ex)
	}

	return exceptions, nil
}

// listRoleHistory 获取工人的岗位履历
func (r *WorkerRepository) listRoleHistory(ctx context.Context, workerID uuid.UUID) ([]model.RoleAssignment, error) {
	query := `
		SELECT role_id, worker_id, is_lead, hourly_rate, assigned_at
		FROM role_assignments
		WHERE worker_id = $1
		ORDER BY assigned_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, workerID)
	if err != nil {
		return nil, fmt.Errorf("查询岗位履历失败: %w", err)
	}
	defer rows.Close()

	var history []model.RoleAssignment
	for rows.Next() {
		var ra model.RoleAssignment
		if err := rows.Scan(&ra.RoleID, &ra.WorkerID, &ra.IsLead, &ra.HourlyRate, &ra.AssignedAt); err != nil {
			return nil, fmt.Errorf("扫描岗位履历失败: %w", err)
		}
		history = append(history, ra)
	}

	return history, nil
}

// scanWorker 扫描单行工人数据
func (r *WorkerRepository) scanWorker(row *sql.Row) (*model.Worker, error) {
	w := &model.Worker{}
	var scheduleJSON []byte

	err := row.Scan(
		&w.ID, &w.TeamID, &w.Name, &w.Code, &w.Phone, &w.Email, &w.Status,
		&w.Rating, &w.TargetWeeklyHours, &scheduleJSON, &w.CreatedAt, &w.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("扫描工人数据失败: %w", err)
	}

	json.Unmarshal(scheduleJSON, &w.WeeklySchedule)

	return w, nil
}

// scanWorkerRow 扫描Rows中的工人数据
func (r *WorkerRepository) scanWorkerRow(rows *sql.Rows) (*model.Worker, error) {
	w := &model.Worker{}
	var scheduleJSON []byte

	err := rows.Scan(
		&w.ID, &w.TeamID, &w.Name, &w.Code, &w.Phone, &w.Email, &w.Status,
		&w.Rating, &w.TargetWeeklyHours, &scheduleJSON, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("扫描工人数据失败: %w", err)
	}

	json.Unmarshal(scheduleJSON, &w.WeeklySchedule)

	return w, nil
}
