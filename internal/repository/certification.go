// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/paigong/paigong/pkg/model"
)

// CertificationRepository 证书仓储
type CertificationRepository struct {
	db DB
}

// NewCertificationRepository 创建证书仓储
func NewCertificationRepository(db DB) *CertificationRepository {
	return &CertificationRepository{db: db}
}

// Add 为工人添加证书记录
func (r *CertificationRepository) Add(ctx context.Context, cert *model.Certification) error {
	query := `
		INSERT INTO worker_certifications (worker_id, name, verified, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (worker_id, name) DO UPDATE SET
			verified = EXCLUDED.verified,
			issued_at = EXCLUDED.issued_at,
			expires_at = EXCLUDED.expires_at
	`

	_, err := r.db.ExecContext(ctx, query,
		cert.WorkerID, cert.Name, cert.Verified, cert.IssuedAt, cert.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("保存证书失败: %w", err)
	}

	return nil
}

// ListValidCertifications 获取工人当前有效的证书（已核验且未过期）
func (r *CertificationRepository) ListValidCertifications(ctx context.Context, workerID uuid.UUID) ([]model.Certification, error) {
	query := `
		SELECT worker_id, name, verified, issued_at, expires_at
		FROM worker_certifications
		WHERE worker_id = $1
			AND verified = true
			AND (expires_at IS NULL OR expires_at > $2)
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, query, workerID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("查询证书失败: %w", err)
	}
	defer rows.Close()

	var certs []model.Certification
	for rows.Next() {
		var cert model.Certification
		var expiresAt sql.NullTime
		if err := rows.Scan(&cert.WorkerID, &cert.Name, &cert.Verified, &cert.IssuedAt, &expiresAt); err != nil {
			return nil, fmt.Errorf("扫描证书失败: %w", err)
		}
		if expiresAt.Valid {
			cert.ExpiresAt = &expiresAt.Time
		}
		certs = append(certs, cert)
	}

	return certs, nil
}

// Revoke 撤销工人的某个证书
func (r *CertificationRepository) Revoke(ctx context.Context, workerID uuid.UUID, name string) error {
	query := `UPDATE worker_certifications SET verified = false WHERE worker_id = $1 AND name = $2`

	result, err := r.db.ExecContext(ctx, query, workerID, name)
	if err != nil {
		return fmt.Errorf("撤销证书失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("证书不存在")
	}

	return nil
}
